package exam

import "fmt"

// ExaminerProfile describes one grading persona bound to a single
// assessment objective. Profiles are immutable once the catalog is built.
type ExaminerProfile struct {
	ID       string
	Name     string
	AO       string
	MaxScore float64
	Color    string
	Prompt   func(unit, questionType string, hasDiagram bool) string
}

// Catalog is the fixed panel of examiners a grading request is fanned out to.
type Catalog struct {
	examiners []ExaminerProfile
}

// NewCatalog builds an immutable catalog from the given profiles.
func NewCatalog(profiles ...ExaminerProfile) Catalog {
	copied := make([]ExaminerProfile, len(profiles))
	copy(copied, profiles)
	return Catalog{examiners: copied}
}

// Examiners returns the panel in its stable display order.
func (c Catalog) Examiners() []ExaminerProfile {
	return c.examiners
}

// Size returns the number of configured examiners.
func (c Catalog) Size() int {
	return len(c.examiners)
}

// MaxTotal sums the maximum achievable score across the panel.
func (c Catalog) MaxTotal() float64 {
	total := 0.0
	for _, examiner := range c.examiners {
		total += examiner.MaxScore
	}
	return total
}

// DefaultCatalog returns the standard four-examiner panel, one per
// assessment objective, each marking out of ten.
func DefaultCatalog() Catalog {
	return NewCatalog(
		ExaminerProfile{
			ID:       "ao1-knowledge",
			Name:     "Dr. Priya Sharma",
			AO:       "AO1",
			MaxScore: 10,
			Color:    "#6366f1",
			Prompt:   knowledgePrompt,
		},
		ExaminerProfile{
			ID:       "ao2-application",
			Name:     "Mr. Daniel Okafor",
			AO:       "AO2",
			MaxScore: 10,
			Color:    "#10b981",
			Prompt:   applicationPrompt,
		},
		ExaminerProfile{
			ID:       "ao3-analysis",
			Name:     "Ms. Elena Petrova",
			AO:       "AO3",
			MaxScore: 10,
			Color:    "#f59e0b",
			Prompt:   analysisPrompt,
		},
		ExaminerProfile{
			ID:       "ao4-evaluation",
			Name:     "Prof. James Whitfield",
			AO:       "AO4",
			MaxScore: 10,
			Color:    "#ef4444",
			Prompt:   evaluationPrompt,
		},
	)
}

const replyFormat = `Respond with a JSON object of the form {"score": <number 0-10>, "feedback": "<two or three sentences>", "strengths": ["<short point>", ...]}. Do not wrap the JSON in markdown fences.`

func knowledgePrompt(unit, questionType string, hasDiagram bool) string {
	return fmt.Sprintf(
		"You are a senior examiner marking AO1 (Knowledge and Understanding) for unit %s. "+
			"The candidate is answering a %s question. Award marks for accurate definitions, "+
			"correct terminology and relevant theory only; ignore essay structure and evaluation. %s%s",
		unit, questionType, diagramClause(hasDiagram), replyFormat)
}

func applicationPrompt(unit, questionType string, hasDiagram bool) string {
	return fmt.Sprintf(
		"You are a senior examiner marking AO2 (Application) for unit %s. "+
			"The candidate is answering a %s question. Award marks only where knowledge is applied "+
			"to the context in the question: data, examples and case material. %s%s",
		unit, questionType, diagramClause(hasDiagram), replyFormat)
}

func analysisPrompt(unit, questionType string, hasDiagram bool) string {
	return fmt.Sprintf(
		"You are a senior examiner marking AO3 (Analysis) for unit %s. "+
			"The candidate is answering a %s question. Reward developed chains of reasoning that "+
			"link cause and effect; a single assertion without development earns little. %s%s",
		unit, questionType, diagramClause(hasDiagram), replyFormat)
}

func evaluationPrompt(unit, questionType string, hasDiagram bool) string {
	return fmt.Sprintf(
		"You are a senior examiner marking AO4 (Evaluation) for unit %s. "+
			"The candidate is answering a %s question. Reward weighed judgements, counter-arguments "+
			"and justified conclusions; description alone earns no evaluation marks. %s%s",
		unit, questionType, diagramClause(hasDiagram), replyFormat)
}

func diagramClause(hasDiagram bool) string {
	if hasDiagram {
		return "The candidate has included a supporting diagram; credit it where it strengthens the answer. "
	}
	return "No diagram accompanies this answer. "
}
