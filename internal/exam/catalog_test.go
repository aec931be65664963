package exam

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogCoversAllObjectives(t *testing.T) {
	catalog := DefaultCatalog()
	require.Equal(t, 4, catalog.Size())
	require.Equal(t, 40.0, catalog.MaxTotal())

	seen := map[string]bool{}
	for _, examiner := range catalog.Examiners() {
		require.NotEmpty(t, examiner.ID)
		require.NotEmpty(t, examiner.Name)
		require.Greater(t, examiner.MaxScore, 0.0)
		require.NotNil(t, examiner.Prompt)
		seen[examiner.AO] = true
	}

	for _, ao := range []string{"AO1", "AO2", "AO3", "AO4"} {
		require.True(t, seen[ao], "missing %s", ao)
	}
}

func TestCatalogOrderIsStable(t *testing.T) {
	catalog := DefaultCatalog()
	first := catalog.Examiners()
	second := catalog.Examiners()
	for i := range first {
		require.Equal(t, first[i].ID, second[i].ID)
	}
}

func TestPromptTemplatesMentionContext(t *testing.T) {
	catalog := DefaultCatalog()
	for _, examiner := range catalog.Examiners() {
		prompt := examiner.Prompt("WEC12", "14-mark", true)
		require.Contains(t, prompt, "WEC12")
		require.Contains(t, prompt, "14-mark")
		require.Contains(t, prompt, "diagram")
		require.Contains(t, prompt, `"score"`)
	}
}

func TestPromptDiagramClauseTracksFlag(t *testing.T) {
	catalog := DefaultCatalog()
	examiner := catalog.Examiners()[0]

	with := examiner.Prompt("WEC11", "8-mark", true)
	without := examiner.Prompt("WEC11", "8-mark", false)
	require.NotEqual(t, with, without)
	require.True(t, strings.Contains(without, "No diagram"))
}

func TestQuestionTypeLookup(t *testing.T) {
	qt, ok := QuestionTypeByLabel("14-mark")
	require.True(t, ok)
	require.Equal(t, 14, qt.Marks)
	require.True(t, qt.RequiresDiagram)

	_, ok = QuestionTypeByLabel("99-mark")
	require.False(t, ok)
}

func TestDiagramFeedback(t *testing.T) {
	fourMark, ok := QuestionTypeByLabel("4-mark")
	require.True(t, ok)
	fourteenMark, ok := QuestionTypeByLabel("14-mark")
	require.True(t, ok)

	// Required and missing: advice attaches.
	advice, required := DiagramFeedback(fourteenMark, false)
	require.True(t, required)
	require.NotEmpty(t, advice)

	// Required and supplied: nothing.
	_, required = DiagramFeedback(fourteenMark, true)
	require.False(t, required)

	// Not required: nothing either way.
	_, required = DiagramFeedback(fourMark, false)
	require.False(t, required)
	_, required = DiagramFeedback(fourMark, true)
	require.False(t, required)
}
