// Package render turns validation reports into styled terminal output.
package render

import (
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

const (
	// StyleAuto picks a dark or light style from the terminal background.
	StyleAuto = "auto"
	// StylePlain renders without colors, for non-terminal output.
	StylePlain = "notty"

	scoreBadgeTemplateConstant   = "Score %d/%d"
	notEvaluatedBadgeConstant    = "Score not evaluated"
	healthyScoreFloorConstant    = 90
	warningScoreFloorConstant    = 70
	healthyColorConstant         = "42"
	warningColorConstant         = "214"
	failingColorConstant         = "196"
	badgeForegroundColorConstant = "0"
)

// MarkdownRenderer renders Markdown through glamour.
type MarkdownRenderer struct {
	styleName string
	wordWrap  int
}

// NewMarkdownRenderer constructs a MarkdownRenderer. A non-positive wordWrap disables wrapping.
func NewMarkdownRenderer(styleName string, wordWrap int) *MarkdownRenderer {
	if len(styleName) == 0 {
		styleName = StyleAuto
	}
	return &MarkdownRenderer{styleName: styleName, wordWrap: wordWrap}
}

// Render returns the styled form of markdown.
func (renderer *MarkdownRenderer) Render(markdown string) (string, error) {
	var rendererOptions []glamour.TermRendererOption
	if renderer.styleName == StyleAuto {
		rendererOptions = append(rendererOptions, glamour.WithAutoStyle())
	} else {
		rendererOptions = append(rendererOptions, glamour.WithStandardStyle(renderer.styleName))
	}
	if renderer.wordWrap > 0 {
		rendererOptions = append(rendererOptions, glamour.WithWordWrap(renderer.wordWrap))
	}

	termRenderer, rendererError := glamour.NewTermRenderer(rendererOptions...)
	if rendererError != nil {
		return "", rendererError
	}
	return termRenderer.Render(markdown)
}

// ScoreBadge renders the score as a colored badge: green from 90, amber from 70, red below.
func ScoreBadge(score int, ceiling int, terminal bool) string {
	badgeStyle := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(lipgloss.Color(badgeForegroundColorConstant))

	if terminal {
		return badgeStyle.Background(lipgloss.Color(failingColorConstant)).Render(notEvaluatedBadgeConstant)
	}

	backgroundColor := failingColorConstant
	switch {
	case score >= healthyScoreFloorConstant:
		backgroundColor = healthyColorConstant
	case score >= warningScoreFloorConstant:
		backgroundColor = warningColorConstant
	}
	return badgeStyle.Background(lipgloss.Color(backgroundColor)).Render(fmt.Sprintf(scoreBadgeTemplateConstant, score, ceiling))
}
