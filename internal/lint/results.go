package lint

import (
	"encoding/json"
	"sort"
	"strings"
)

const (
	checkNameFieldConstant = "check_name"
	ruleFieldConstant      = "rule"
	ruleIDFieldConstant    = "id"
	ruleNameFieldConstant  = "name"
)

// Violation is the number of results reported for one rule.
type Violation struct {
	Rule  string
	Count int
}

// Summary aggregates lint results by rule.
type Summary struct {
	Violations []Violation
	Total      int
}

// ParseResults decodes the JSON list printed by ansible-lint -f json.
// Output that is not a JSON list of objects yields no results.
func ParseResults(output string) []map[string]any {
	var results []map[string]any
	if decodeError := json.Unmarshal([]byte(output), &results); decodeError != nil {
		return nil
	}
	return results
}

// RuleIdentifier returns the rule a result belongs to: check_name, else rule.id, else rule.name.
func RuleIdentifier(result map[string]any) string {
	if checkName := stringField(result, checkNameFieldConstant); len(checkName) > 0 {
		return checkName
	}
	rule, isMapping := result[ruleFieldConstant].(map[string]any)
	if !isMapping {
		return ""
	}
	if ruleID := stringField(rule, ruleIDFieldConstant); len(ruleID) > 0 {
		return ruleID
	}
	return stringField(rule, ruleNameFieldConstant)
}

// Summarize counts results per rule. Results without a rule are ignored.
func Summarize(results []map[string]any) Summary {
	counts := make(map[string]int)
	for _, result := range results {
		if ruleID := RuleIdentifier(result); len(ruleID) > 0 {
			counts[ruleID]++
		}
	}
	return NewSummary(counts)
}

// NewSummary ranks counts by descending count, then rule name.
func NewSummary(counts map[string]int) Summary {
	summary := Summary{Violations: make([]Violation, 0, len(counts))}
	for rule, count := range counts {
		summary.Violations = append(summary.Violations, Violation{Rule: rule, Count: count})
		summary.Total += count
	}
	sort.Slice(summary.Violations, func(leftIndex int, rightIndex int) bool {
		left := summary.Violations[leftIndex]
		right := summary.Violations[rightIndex]
		if left.Count != right.Count {
			return left.Count > right.Count
		}
		return left.Rule < right.Rule
	})
	return summary
}

// Counts returns the per-rule counts.
func (summary Summary) Counts() map[string]int {
	counts := make(map[string]int, len(summary.Violations))
	for _, violation := range summary.Violations {
		counts[violation.Rule] = violation.Count
	}
	return counts
}

// Top returns at most limit violations in rank order.
func (summary Summary) Top(limit int) []Violation {
	if limit < 0 || limit >= len(summary.Violations) {
		return summary.Violations
	}
	return summary.Violations[:limit]
}

func stringField(values map[string]any, key string) string {
	text, isText := values[key].(string)
	if !isText {
		return ""
	}
	return strings.TrimSpace(text)
}
