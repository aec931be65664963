package ai

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrNoJSON indicates the reply text contains no JSON object at all.
var ErrNoJSON = errors.New("reply contains no json object")

var examinerSchema = jsonschema.MustCompileString("examiner-reply.json", `{
	"type": "object",
	"required": ["score", "feedback"],
	"properties": {
		"score": {"type": "number"},
		"feedback": {"type": "string"},
		"strengths": {"type": "array", "items": {"type": "string"}}
	}
}`)

var summarySchema = jsonschema.MustCompileString("summary-reply.json", `{
	"type": "object",
	"required": ["summary"],
	"properties": {
		"summary": {"type": "string"},
		"improvements": {"type": "array", "items": {"type": "string"}}
	}
}`)

// ExaminerReply is the structured payload an examiner prompt asks for.
type ExaminerReply struct {
	Score     float64  `json:"score"`
	Feedback  string   `json:"feedback"`
	Strengths []string `json:"strengths"`
}

// SummaryReply is the structured payload the summary prompt asks for.
type SummaryReply struct {
	Summary      string   `json:"summary"`
	Improvements []string `json:"improvements"`
}

// ExtractObject locates the first balanced {...} span in free text.
// Braces inside double-quoted strings are skipped, both within the
// object and in any quoted prose before it, so a reply like
// `"use {braces}" {"score": 5, ...}` anchors on the real object. The
// second return is false when no complete object is present.
func ExtractObject(content string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(content); i++ {
		ch := content[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			if start < 0 {
				start = i
			}
			depth++
		case '}':
			if start < 0 {
				continue
			}
			depth--
			if depth == 0 {
				return content[start : i+1], true
			}
		}
	}

	return "", false
}

// ParseExaminerReply extracts and validates the examiner JSON object
// embedded in a free-text reply. Any failure returns an error; callers
// branch explicitly rather than trusting partially decoded fields.
func ParseExaminerReply(content string) (ExaminerReply, error) {
	raw, err := extractValidated(content, examinerSchema)
	if err != nil {
		return ExaminerReply{}, err
	}

	var reply ExaminerReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return ExaminerReply{}, fmt.Errorf("decode examiner reply: %w", err)
	}

	return reply, nil
}

// ParseSummaryReply extracts and validates the summary JSON object
// embedded in a free-text reply.
func ParseSummaryReply(content string) (SummaryReply, error) {
	raw, err := extractValidated(content, summarySchema)
	if err != nil {
		return SummaryReply{}, err
	}

	var reply SummaryReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return SummaryReply{}, fmt.Errorf("decode summary reply: %w", err)
	}

	return reply, nil
}

func extractValidated(content string, schema *jsonschema.Schema) ([]byte, error) {
	object, ok := ExtractObject(content)
	if !ok {
		return nil, ErrNoJSON
	}

	var value interface{}
	if err := json.Unmarshal([]byte(object), &value); err != nil {
		return nil, fmt.Errorf("invalid json object: %w", err)
	}

	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("reply schema mismatch: %w", err)
	}

	return []byte(object), nil
}
