package render_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/roleaudit/internal/render"
)

func TestMarkdownRendererPlainStyle(testInstance *testing.T) {
	renderer := render.NewMarkdownRenderer(render.StylePlain, 80)

	rendered, renderError := renderer.Render("## Valid Items\n- roles/sample\n")
	require.NoError(testInstance, renderError)
	require.Contains(testInstance, rendered, "Valid Items")
	require.Contains(testInstance, rendered, "roles/sample")
}

func TestScoreBadge(testInstance *testing.T) {
	testCases := []struct {
		name     string
		score    int
		terminal bool
		expected string
	}{
		{name: "healthy", score: 100, expected: "Score 100/100"},
		{name: "warning", score: 75, expected: "Score 75/100"},
		{name: "failing", score: 10, expected: "Score 10/100"},
		{name: "terminal", score: 0, terminal: true, expected: "Score not evaluated"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			require.Contains(subTest, render.ScoreBadge(testCase.score, 100, testCase.terminal), testCase.expected)
		})
	}
}
