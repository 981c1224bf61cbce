// Package findings holds the categorized, de-duplicated issue collections reported per role.
package findings

import "sort"

// Category names a class of finding.
type Category string

// Finding categories, in report order.
const (
	CategoryMissing       Category = "missing"
	CategoryBroken        Category = "broken"
	CategoryPlaceholders  Category = "placeholders"
	CategoryUndefinedVars Category = "undefined_vars"
)

// Categories lists every category in report order.
func Categories() []Category {
	return []Category{CategoryMissing, CategoryBroken, CategoryPlaceholders, CategoryUndefinedVars}
}

// Set maps categories to sorted, de-duplicated finding strings. The zero value is ready to use.
type Set struct {
	items map[Category]map[string]struct{}
}

// NewSet constructs an empty Set.
func NewSet() *Set {
	return &Set{}
}

// Add records findings under category; repeated findings are stored once.
func (set *Set) Add(category Category, findings ...string) {
	if len(findings) == 0 {
		return
	}
	if set.items == nil {
		set.items = make(map[Category]map[string]struct{})
	}
	categoryItems, exists := set.items[category]
	if !exists {
		categoryItems = make(map[string]struct{})
		set.items[category] = categoryItems
	}
	for _, finding := range findings {
		categoryItems[finding] = struct{}{}
	}
}

// Merge adds every finding of other.
func (set *Set) Merge(other *Set) {
	if other == nil {
		return
	}
	for category, categoryItems := range other.items {
		for finding := range categoryItems {
			set.Add(category, finding)
		}
	}
}

// Items returns the findings of category in lexical order.
func (set *Set) Items(category Category) []string {
	if set == nil {
		return nil
	}
	categoryItems := set.items[category]
	if len(categoryItems) == 0 {
		return nil
	}
	sortedItems := make([]string, 0, len(categoryItems))
	for finding := range categoryItems {
		sortedItems = append(sortedItems, finding)
	}
	sort.Strings(sortedItems)
	return sortedItems
}

// Count returns the number of findings across every category.
func (set *Set) Count() int {
	if set == nil {
		return 0
	}
	total := 0
	for _, categoryItems := range set.items {
		total += len(categoryItems)
	}
	return total
}

// CountOf returns the number of findings in category.
func (set *Set) CountOf(category Category) int {
	if set == nil {
		return 0
	}
	return len(set.items[category])
}

// Empty reports whether the set holds no findings.
func (set *Set) Empty() bool {
	return set.Count() == 0
}
