package exam

// QuestionType captures the grading policy attached to a mark-band label.
type QuestionType struct {
	Label           string
	Marks           int
	RequiresDiagram bool
	DiagramAdvice   string
}

// DefaultQuestionType is assumed when a request omits the mark band.
const DefaultQuestionType = "14-mark"

// DefaultUnit is assumed when a request omits the examination unit.
const DefaultUnit = "WEC11"

var questionTypes = map[string]QuestionType{
	"4-mark": {
		Label: "4-mark",
		Marks: 4,
	},
	"6-mark": {
		Label: "6-mark",
		Marks: 6,
	},
	"8-mark": {
		Label:           "8-mark",
		Marks:           8,
		RequiresDiagram: true,
		DiagramAdvice: "An 8-mark question expects a supporting diagram. Include a correctly " +
			"labelled diagram (axes, curves and the shift you describe) and refer to it in your analysis.",
	},
	"10-mark": {
		Label: "10-mark",
		Marks: 10,
	},
	"12-mark": {
		Label:           "12-mark",
		Marks:           12,
		RequiresDiagram: true,
		DiagramAdvice: "A 12-mark question expects at least one analytical diagram. Draw the " +
			"relevant model, label every curve and axis, and use it to drive your chains of reasoning.",
	},
	"14-mark": {
		Label:           "14-mark",
		Marks:           14,
		RequiresDiagram: true,
		DiagramAdvice: "A 14-mark essay is expected to include an accurate, fully labelled diagram. " +
			"Integrate it into your analysis rather than leaving it free-standing, and explain each " +
			"movement or shift you draw.",
	},
}

// QuestionTypeByLabel resolves a mark-band label to its grading policy.
func QuestionTypeByLabel(label string) (QuestionType, bool) {
	qt, ok := questionTypes[label]
	return qt, ok
}

// QuestionTypeLabels lists the configured mark bands.
func QuestionTypeLabels() []string {
	labels := make([]string, 0, len(questionTypes))
	for label := range questionTypes {
		labels = append(labels, label)
	}
	return labels
}

// DiagramFeedback returns the canned advice for a question type when a
// required diagram is missing. The second return is false when no advice
// applies: either the band does not require a diagram or one was supplied.
func DiagramFeedback(qt QuestionType, hasDiagram bool) (string, bool) {
	if !qt.RequiresDiagram || hasDiagram {
		return "", false
	}
	return qt.DiagramAdvice, true
}
