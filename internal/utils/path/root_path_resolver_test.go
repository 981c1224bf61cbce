package pathutils_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	pathutils "github.com/temirov/roleaudit/internal/utils/path"
)

const testHomeDirectoryConstant = "/home/auditor"

func TestRootPathResolverResolve(testInstance *testing.T) {
	resolver := pathutils.NewRootPathResolver(pathutils.NewHomeExpanderWithProvider(func() (string, error) {
		return testHomeDirectoryConstant, nil
	}))

	testCases := []struct {
		name       string
		candidates []string
		expected   string
	}{
		{name: "no_candidates", candidates: nil, expected: "."},
		{name: "blank_candidates", candidates: []string{"", "  \t"}, expected: "."},
		{name: "first_usable_wins", candidates: []string{" ", " /srv/collection ", "/other"}, expected: "/srv/collection"},
		{name: "tilde_expanded", candidates: []string{"~/collections/site"}, expected: filepath.Join(testHomeDirectoryConstant, "collections/site")},
		{name: "bare_tilde", candidates: []string{"~"}, expected: testHomeDirectoryConstant},
		{name: "boolean_literal_skipped", candidates: []string{"TRUE", "relative/root"}, expected: "relative/root"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			require.Equal(subTest, testCase.expected, resolver.Resolve(testCase.candidates...))
		})
	}
}
