package audit

import (
	"fmt"
	"strings"

	"github.com/temirov/roleaudit/internal/findings"
	"github.com/temirov/roleaudit/internal/roles"
)

const (
	// ScoreCeilingConstant is the score of a run without findings.
	ScoreCeilingConstant = 100

	validItemsHeaderConstant      = "## ✅ Valid Items"
	missingOrBrokenHeaderConstant = "## ❌ Missing or Broken"
	placeholdersHeaderConstant    = "## ⚠️ Placeholders Detected"
	recommendationsHeaderConstant = "## 🛠 Fix Recommendations"
	scoreHeaderConstant           = "## 📊 Score"
	nextActionsHeaderConstant     = "## 🔜 Next Actions"

	emptySectionLineConstant          = "- None"
	noIssuesLineConstant              = "- No issues found"
	bulletTemplateConstant            = "- %s"
	roleItemTemplateConstant          = "- %s: %s"
	undefinedVariableTemplateConstant = "undefined variable '%s'"
	scoreTemplateConstant             = "%d/%d"
	rolesEvaluatedTemplateConstant    = "Roles evaluated: %d (clean %d, flagged %d)"
	notEvaluatedScoreConstant         = "not evaluated"
	terminalRolesLineTemplate         = "- %s — Missing directory"
	terminalSummaryLineTemplate       = "No roles were evaluated because %s does not exist."

	addMissingRecommendationTemplate    = "- Add %s to %s"
	reviewBrokenRecommendationTemplate  = "- Review tasks/handlers in %s for missing tags or handlers"
	defineVariablesRecommendationFormat = "- Define variables %s"
	listSeparatorConstant               = ", "

	nextActionMissingConstant        = "- Address missing directories and meta files"
	nextActionTasksConstant          = "- Ensure each task has name and tags"
	nextActionVariablesConstant      = "- Define any undefined variables in defaults or vars"
	nextActionCleanConstant          = "- Collection structure looks good"
	nextActionNoRolesTemplate        = "- No roles found under %s; add roles to evaluate"
	nextActionCreateRolesDirTemplate = "- Create %s and add roles before re-running the audit"
)

// RoleResult pairs a role with its merged findings.
type RoleResult struct {
	Role     roles.Role
	Findings *findings.Set
}

// Clean reports whether the role has no findings in any category.
func (result RoleResult) Clean() bool {
	return result.Findings.Empty()
}

// Report is the outcome of an audit run.
type Report struct {
	RolesDirectory string
	Terminal       bool
	Roles          []RoleResult
	Playbooks      []string
}

// CleanRoles returns the roles without findings.
func (report Report) CleanRoles() []RoleResult {
	var clean []RoleResult
	for _, roleResult := range report.Roles {
		if roleResult.Clean() {
			clean = append(clean, roleResult)
		}
	}
	return clean
}

// FlaggedRoles returns the roles with at least one finding.
func (report Report) FlaggedRoles() []RoleResult {
	var flagged []RoleResult
	for _, roleResult := range report.Roles {
		if !roleResult.Clean() {
			flagged = append(flagged, roleResult)
		}
	}
	return flagged
}

// FindingCount totals the findings across every role and category.
func (report Report) FindingCount() int {
	total := 0
	for _, roleResult := range report.Roles {
		total += roleResult.Findings.Count()
	}
	return total
}

// CategoryCount totals the findings of one category across every role.
func (report Report) CategoryCount(category findings.Category) int {
	total := 0
	for _, roleResult := range report.Roles {
		total += roleResult.Findings.CountOf(category)
	}
	return total
}

// Score deducts one point per finding from ScoreCeilingConstant, floored at zero.
// A terminal run scores zero.
func (report Report) Score() int {
	if report.Terminal {
		return 0
	}
	score := ScoreCeilingConstant - report.FindingCount()
	if score < 0 {
		return 0
	}
	return score
}

// Render produces the Markdown report.
func (report Report) Render() string {
	if report.Terminal {
		return report.renderTerminal()
	}

	var lines []string
	lines = append(lines, report.validItemsSection()...)
	lines = append(lines, "")
	lines = append(lines, report.missingOrBrokenSection()...)
	lines = append(lines, "")
	lines = append(lines, report.placeholdersSection()...)
	lines = append(lines, "")
	lines = append(lines, report.recommendationsSection()...)
	lines = append(lines, "")
	lines = append(lines, report.scoreSection()...)
	lines = append(lines, "")
	lines = append(lines, report.nextActionsSection()...)

	return strings.Join(lines, "\n") + "\n"
}

func (report Report) validItemsSection() []string {
	lines := []string{validItemsHeaderConstant}
	for _, roleResult := range report.CleanRoles() {
		lines = append(lines, fmt.Sprintf(bulletTemplateConstant, roleResult.Role.RelativePath))
	}
	for _, playbook := range report.Playbooks {
		lines = append(lines, fmt.Sprintf(bulletTemplateConstant, playbook))
	}
	if len(lines) == 1 {
		lines = append(lines, emptySectionLineConstant)
	}
	return lines
}

func (report Report) missingOrBrokenSection() []string {
	lines := []string{missingOrBrokenHeaderConstant}
	for _, roleResult := range report.FlaggedRoles() {
		roleName := roleResult.Role.Name
		for _, item := range roleResult.Findings.Items(findings.CategoryMissing) {
			lines = append(lines, fmt.Sprintf(roleItemTemplateConstant, roleName, item))
		}
		for _, item := range roleResult.Findings.Items(findings.CategoryBroken) {
			lines = append(lines, fmt.Sprintf(roleItemTemplateConstant, roleName, item))
		}
		for _, item := range roleResult.Findings.Items(findings.CategoryUndefinedVars) {
			lines = append(lines, fmt.Sprintf(roleItemTemplateConstant, roleName, fmt.Sprintf(undefinedVariableTemplateConstant, item)))
		}
	}
	if len(lines) == 1 {
		lines = append(lines, emptySectionLineConstant)
	}
	return lines
}

func (report Report) placeholdersSection() []string {
	lines := []string{placeholdersHeaderConstant}
	for _, roleResult := range report.FlaggedRoles() {
		for _, item := range roleResult.Findings.Items(findings.CategoryPlaceholders) {
			lines = append(lines, fmt.Sprintf(roleItemTemplateConstant, roleResult.Role.Name, item))
		}
	}
	if len(lines) == 1 {
		lines = append(lines, emptySectionLineConstant)
	}
	return lines
}

// recommendationsSection emits one bullet per non-empty missing, broken or undefined_vars category per role.
func (report Report) recommendationsSection() []string {
	lines := []string{recommendationsHeaderConstant}
	for _, roleResult := range report.FlaggedRoles() {
		rolePath := roleResult.Role.RelativePath
		if missingItems := roleResult.Findings.Items(findings.CategoryMissing); len(missingItems) > 0 {
			lines = append(lines, fmt.Sprintf(addMissingRecommendationTemplate, strings.Join(missingItems, listSeparatorConstant), rolePath))
		}
		if roleResult.Findings.CountOf(findings.CategoryBroken) > 0 {
			lines = append(lines, fmt.Sprintf(reviewBrokenRecommendationTemplate, rolePath))
		}
		if undefinedNames := roleResult.Findings.Items(findings.CategoryUndefinedVars); len(undefinedNames) > 0 {
			lines = append(lines, fmt.Sprintf(defineVariablesRecommendationFormat, strings.Join(undefinedNames, listSeparatorConstant)))
		}
	}
	if len(lines) == 1 {
		if report.FindingCount() == 0 {
			lines = append(lines, noIssuesLineConstant)
		} else {
			lines = append(lines, emptySectionLineConstant)
		}
	}
	return lines
}

func (report Report) scoreSection() []string {
	cleanCount := len(report.CleanRoles())
	return []string{
		scoreHeaderConstant,
		fmt.Sprintf(scoreTemplateConstant, report.Score(), ScoreCeilingConstant),
		"",
		fmt.Sprintf(rolesEvaluatedTemplateConstant, len(report.Roles), cleanCount, len(report.Roles)-cleanCount),
	}
}

func (report Report) nextActionsSection() []string {
	lines := []string{nextActionsHeaderConstant}
	switch {
	case report.FindingCount() > 0:
		lines = append(lines, nextActionMissingConstant, nextActionTasksConstant, nextActionVariablesConstant)
	case len(report.Roles) == 0:
		lines = append(lines, fmt.Sprintf(nextActionNoRolesTemplate, roles.RolesDirectoryNameConstant))
	default:
		lines = append(lines, nextActionCleanConstant)
	}
	return lines
}

func (report Report) renderTerminal() string {
	lines := []string{
		missingOrBrokenHeaderConstant,
		fmt.Sprintf(terminalRolesLineTemplate, report.RolesDirectory),
		"",
		scoreHeaderConstant,
		notEvaluatedScoreConstant,
		"",
		fmt.Sprintf(terminalSummaryLineTemplate, report.RolesDirectory),
		"",
		nextActionsHeaderConstant,
		fmt.Sprintf(nextActionCreateRolesDirTemplate, report.RolesDirectory),
	}
	return strings.Join(lines, "\n") + "\n"
}
