package variables

import (
	"regexp"
	"strings"
)

const (
	filterSeparatorConstant             = "|"
	attributeAccessCharactersConstant   = ".["
	whitespaceControlCharactersConstant = "-+"
)

var (
	interpolationPattern = regexp.MustCompile(`(?s)\{\{(.*?)\}\}`)
	identifierPattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// ExtractReferences returns the base variable names of every `{{ ... }}`
// placeholder in text, in order of appearance. Filters, attribute access and
// indexing are stripped, so `user.profile | default('x')` yields `user`.
// Expressions whose base is not a plain identifier (literals, operators) are discarded.
func ExtractReferences(text string) []string {
	matches := interpolationPattern.FindAllStringSubmatch(text, -1)
	references := make([]string, 0, len(matches))
	for _, match := range matches {
		baseName, isIdentifier := baseVariableName(match[1])
		if !isIdentifier {
			continue
		}
		references = append(references, baseName)
	}
	return references
}

func baseVariableName(expression string) (string, bool) {
	trimmedExpression := strings.TrimSpace(expression)
	trimmedExpression = strings.TrimLeft(trimmedExpression, whitespaceControlCharactersConstant)
	trimmedExpression = strings.TrimRight(trimmedExpression, whitespaceControlCharactersConstant)

	if separatorIndex := strings.Index(trimmedExpression, filterSeparatorConstant); separatorIndex >= 0 {
		trimmedExpression = trimmedExpression[:separatorIndex]
	}
	if accessIndex := strings.IndexAny(trimmedExpression, attributeAccessCharactersConstant); accessIndex >= 0 {
		trimmedExpression = trimmedExpression[:accessIndex]
	}

	baseName := strings.TrimSpace(trimmedExpression)
	if len(baseName) == 0 || !identifierPattern.MatchString(baseName) {
		return "", false
	}
	return baseName, true
}
