package pathutils

import (
	"strings"
)

const (
	currentDirectoryPathConstant     = "."
	booleanLiteralTrueValueConstant  = "true"
	booleanLiteralFalseValueConstant = "false"
)

// RootPathResolver picks and normalizes the audit root from command inputs.
type RootPathResolver struct {
	homeExpander *HomeExpander
}

// NewRootPathResolver constructs a RootPathResolver. A nil expander uses the operating system home lookup.
func NewRootPathResolver(homeExpander *HomeExpander) *RootPathResolver {
	if homeExpander == nil {
		homeExpander = NewHomeExpander()
	}
	return &RootPathResolver{homeExpander: homeExpander}
}

// Resolve returns the first usable candidate, trimmed and with a leading tilde
// expanded. Blank candidates and stray boolean literals are skipped; with no
// usable candidate the current directory is returned.
func (resolver *RootPathResolver) Resolve(candidatePaths ...string) string {
	expander := NewHomeExpander()
	if resolver != nil {
		expander = resolver.homeExpander
	}

	for _, candidatePath := range candidatePaths {
		trimmedCandidate := strings.TrimSpace(candidatePath)
		if len(trimmedCandidate) == 0 || isBooleanLiteral(trimmedCandidate) {
			continue
		}
		if expandedPath := expander.Expand(trimmedCandidate); len(expandedPath) > 0 {
			return expandedPath
		}
	}
	return currentDirectoryPathConstant
}

func isBooleanLiteral(candidate string) bool {
	loweredCandidate := strings.ToLower(candidate)
	return loweredCandidate == booleanLiteralTrueValueConstant || loweredCandidate == booleanLiteralFalseValueConstant
}
