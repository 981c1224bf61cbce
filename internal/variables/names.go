package variables

import "sort"

// NameSet is a set of variable names.
type NameSet map[string]struct{}

// NewNameSet constructs a NameSet containing the provided names.
func NewNameSet(names ...string) NameSet {
	nameSet := make(NameSet, len(names))
	nameSet.Add(names...)
	return nameSet
}

// Add inserts names, skipping empty strings.
func (nameSet NameSet) Add(names ...string) {
	for _, name := range names {
		if len(name) == 0 {
			continue
		}
		nameSet[name] = struct{}{}
	}
}

// Contains reports whether name belongs to the set.
func (nameSet NameSet) Contains(name string) bool {
	_, present := nameSet[name]
	return present
}

// Union inserts every member of other.
func (nameSet NameSet) Union(other NameSet) {
	for name := range other {
		nameSet[name] = struct{}{}
	}
}

// Sorted returns the members in lexical order.
func (nameSet NameSet) Sorted() []string {
	names := make([]string, 0, len(nameSet))
	for name := range nameSet {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
