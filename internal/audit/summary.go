package audit

import (
	"gopkg.in/yaml.v3"

	"github.com/temirov/roleaudit/internal/findings"
)

// Summary is the machine-readable digest of a run written next to the report.
type Summary struct {
	Score          int            `yaml:"score"`
	Terminal       bool           `yaml:"terminal"`
	RolesEvaluated int            `yaml:"roles_evaluated"`
	ValidRoles     []string       `yaml:"valid_roles"`
	FlaggedRoles   []string       `yaml:"flagged_roles"`
	Findings       map[string]int `yaml:"findings"`
}

// Summarize derives the Summary of report.
func Summarize(report Report) Summary {
	summary := Summary{
		Score:          report.Score(),
		Terminal:       report.Terminal,
		RolesEvaluated: len(report.Roles),
		ValidRoles:     []string{},
		FlaggedRoles:   []string{},
		Findings:       make(map[string]int, len(findings.Categories())),
	}
	for _, roleResult := range report.CleanRoles() {
		summary.ValidRoles = append(summary.ValidRoles, roleResult.Role.Name)
	}
	for _, roleResult := range report.FlaggedRoles() {
		summary.FlaggedRoles = append(summary.FlaggedRoles, roleResult.Role.Name)
	}
	for _, category := range findings.Categories() {
		summary.Findings[string(category)] = report.CategoryCount(category)
	}
	return summary
}

// Marshal encodes the summary as YAML.
func (summary Summary) Marshal() ([]byte, error) {
	return yaml.Marshal(summary)
}
