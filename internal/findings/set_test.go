package findings_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/roleaudit/internal/findings"
)

func TestSetDeduplicatesAndSorts(testInstance *testing.T) {
	findingSet := findings.NewSet()
	require.True(testInstance, findingSet.Empty())

	findingSet.Add(findings.CategoryMissing, "vars directory", "files directory", "vars directory")
	findingSet.Add(findings.CategoryBroken)

	require.Equal(testInstance, []string{"files directory", "vars directory"}, findingSet.Items(findings.CategoryMissing))
	require.Nil(testInstance, findingSet.Items(findings.CategoryBroken))
	require.Equal(testInstance, 2, findingSet.Count())
	require.False(testInstance, findingSet.Empty())
}

func TestSetMerge(testInstance *testing.T) {
	first := findings.NewSet()
	first.Add(findings.CategoryUndefinedVars, "alpha")

	second := &findings.Set{}
	second.Add(findings.CategoryUndefinedVars, "alpha", "beta")
	second.Add(findings.CategoryPlaceholders, "tasks/main.yml contains 'TODO'")

	first.Merge(second)
	first.Merge(nil)

	require.Equal(testInstance, []string{"alpha", "beta"}, first.Items(findings.CategoryUndefinedVars))
	require.Equal(testInstance, 1, first.CountOf(findings.CategoryPlaceholders))
	require.Equal(testInstance, 3, first.Count())
}

func TestCategoriesOrder(testInstance *testing.T) {
	require.Equal(testInstance, []findings.Category{
		findings.CategoryMissing,
		findings.CategoryBroken,
		findings.CategoryPlaceholders,
		findings.CategoryUndefinedVars,
	}, findings.Categories())
}
