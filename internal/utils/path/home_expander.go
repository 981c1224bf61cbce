package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const tildeSymbolConstant = "~"

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// EnvironmentLookup resolves an environment variable, reporting whether it is set.
type EnvironmentLookup func(name string) (string, bool)

// HomeExpander rewrites user supplied paths: a leading "~" becomes the home
// directory and $NAME or ${NAME} references are substituted from the environment.
// Unset variables are left verbatim so a typo stays visible in error messages.
type HomeExpander struct {
	homeDirectory     func() (string, error)
	environmentLookup EnvironmentLookup
}

// NewHomeExpander constructs a HomeExpander backed by the operating system.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(os.UserHomeDir)
}

// NewHomeExpanderWithProvider constructs a HomeExpander with a custom home lookup.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	return NewHomeExpanderWithLookups(provider, os.LookupEnv)
}

// NewHomeExpanderWithLookups constructs a HomeExpander with custom home and environment lookups.
func NewHomeExpanderWithLookups(provider HomeDirectoryProvider, lookup EnvironmentLookup) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return &HomeExpander{
		homeDirectory:     sync.OnceValues(provider),
		environmentLookup: lookup,
	}
}

// Expand returns candidatePath with environment references and a leading tilde resolved.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil || len(candidatePath) == 0 {
		return candidatePath
	}

	expandedPath := os.Expand(candidatePath, func(variableName string) string {
		if value, isSet := expander.environmentLookup(variableName); isSet {
			return value
		}
		return "${" + variableName + "}"
	})

	return expander.expandTilde(expandedPath)
}

func (expander *HomeExpander) expandTilde(candidatePath string) string {
	if !strings.HasPrefix(candidatePath, tildeSymbolConstant) {
		return candidatePath
	}

	remainder := strings.TrimPrefix(candidatePath, tildeSymbolConstant)
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		// ~user forms are not supported.
		return candidatePath
	}

	homeDirectory, lookupError := expander.homeDirectory()
	if lookupError != nil || len(homeDirectory) == 0 {
		return candidatePath
	}
	if len(remainder) == 0 {
		return homeDirectory
	}
	return filepath.Join(homeDirectory, remainder[1:])
}
