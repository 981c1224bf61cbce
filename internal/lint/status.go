package lint

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	statusHeaderConstant        = "## ansible-lint violation summary"
	violationLineTemplate       = "- %s: %d"
	totalViolationsLineTemplate = "Total violations: %d"
	decodeStatusErrorTemplate   = "decode lint status: %w"
	encodeStatusErrorTemplate   = "encode lint status: %w"
)

// Status is the machine-readable lint record.
type Status struct {
	Violations map[string]int `yaml:"violations"`
	Total      int            `yaml:"total"`
}

// Status converts the summary into its persisted form.
func (summary Summary) Status() Status {
	return Status{Violations: summary.Counts(), Total: summary.Total}
}

// Summary ranks the persisted counts.
func (status Status) Summary() Summary {
	summary := NewSummary(status.Violations)
	if status.Total > summary.Total {
		summary.Total = status.Total
	}
	return summary
}

// Marshal encodes the status as YAML.
func (status Status) Marshal() ([]byte, error) {
	if status.Violations == nil {
		status.Violations = map[string]int{}
	}
	encoded, encodeError := yaml.Marshal(status)
	if encodeError != nil {
		return nil, fmt.Errorf(encodeStatusErrorTemplate, encodeError)
	}
	return encoded, nil
}

// ParseStatus decodes a lint status document. An empty document yields the zero Status.
func ParseStatus(data []byte) (Status, error) {
	var status Status
	if decodeError := yaml.Unmarshal(data, &status); decodeError != nil {
		return Status{}, fmt.Errorf(decodeStatusErrorTemplate, decodeError)
	}
	return status, nil
}

// RenderMarkdown produces the lint status Markdown.
func (summary Summary) RenderMarkdown() string {
	lines := []string{statusHeaderConstant}
	for _, violation := range summary.Violations {
		lines = append(lines, fmt.Sprintf(violationLineTemplate, violation.Rule, violation.Count))
	}
	lines = append(lines, "", fmt.Sprintf(totalViolationsLineTemplate, summary.Total))
	return strings.Join(lines, "\n") + "\n"
}
