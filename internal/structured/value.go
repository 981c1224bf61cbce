package structured

import (
	"sort"
	"strings"
)

// Kind identifies the shape of a Value.
type Kind int

// Supported value shapes.
const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
)

// ScalarType classifies scalar values.
type ScalarType string

// Supported scalar types.
const (
	ScalarTypeString  ScalarType = "string"
	ScalarTypeNumber  ScalarType = "number"
	ScalarTypeBoolean ScalarType = "boolean"
	ScalarTypeNull    ScalarType = "null"
)

const (
	booleanTrueLiteralConstant = "true"
	numericZeroLiteralConstant = "0"
)

// Value is a parsed structured-data node: a Mapping, a Sequence or a Scalar.
type Value interface {
	Kind() Kind
	isValue()
}

// MappingEntry is a single key/value pair of a Mapping.
type MappingEntry struct {
	Key   string
	Value Value
}

// Mapping is a name-keyed mapping that preserves document order.
type Mapping struct {
	Entries []MappingEntry
}

// Sequence is an ordered list of values.
type Sequence struct {
	Items []Value
}

// Scalar is a leaf value with its literal text.
type Scalar struct {
	Type ScalarType
	Text string
}

// Kind implements Value.
func (Mapping) Kind() Kind { return KindMapping }

// Kind implements Value.
func (Sequence) Kind() Kind { return KindSequence }

// Kind implements Value.
func (Scalar) Kind() Kind { return KindScalar }

func (Mapping) isValue()  {}
func (Sequence) isValue() {}
func (Scalar) isValue()   {}

// Lookup returns the value of the last entry with the provided key.
func (mapping Mapping) Lookup(key string) (Value, bool) {
	for entryIndex := len(mapping.Entries) - 1; entryIndex >= 0; entryIndex-- {
		if mapping.Entries[entryIndex].Key == key {
			return mapping.Entries[entryIndex].Value, true
		}
	}
	return nil, false
}

// Has reports whether the mapping declares key, regardless of its value.
func (mapping Mapping) Has(key string) bool {
	_, found := mapping.Lookup(key)
	return found
}

// Len returns the number of entries.
func (mapping Mapping) Len() int {
	return len(mapping.Entries)
}

// Text returns the literal text of a scalar value.
func Text(value Value) (string, bool) {
	scalar, isScalar := value.(Scalar)
	if !isScalar || scalar.Type == ScalarTypeNull {
		return "", false
	}
	return scalar.Text, true
}

// Truthy mirrors template truthiness: null, empty strings, false, zero and empty collections are false.
func Truthy(value Value) bool {
	switch typedValue := value.(type) {
	case nil:
		return false
	case Mapping:
		return len(typedValue.Entries) > 0
	case Sequence:
		return len(typedValue.Items) > 0
	case Scalar:
		switch typedValue.Type {
		case ScalarTypeNull:
			return false
		case ScalarTypeBoolean:
			return strings.EqualFold(typedValue.Text, booleanTrueLiteralConstant)
		case ScalarTypeNumber:
			return !isNumericZero(typedValue.Text)
		default:
			return len(typedValue.Text) > 0
		}
	default:
		return false
	}
}

// Strings flattens a scalar or a sequence of scalars into their texts.
func Strings(value Value) []string {
	switch typedValue := value.(type) {
	case Scalar:
		if text, hasText := Text(typedValue); hasText {
			return []string{text}
		}
		return nil
	case Sequence:
		texts := make([]string, 0, len(typedValue.Items))
		for _, item := range typedValue.Items {
			if text, hasText := Text(item); hasText {
				texts = append(texts, text)
			}
		}
		return texts
	default:
		return nil
	}
}

// GatherKeys returns every mapping key found at any nesting depth, sorted and de-duplicated.
func GatherKeys(value Value) []string {
	keySet := make(map[string]struct{})
	gatherKeys(value, keySet)

	keys := make([]string, 0, len(keySet))
	for key := range keySet {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func gatherKeys(value Value, keySet map[string]struct{}) {
	switch typedValue := value.(type) {
	case Mapping:
		for _, entry := range typedValue.Entries {
			if len(entry.Key) > 0 {
				keySet[entry.Key] = struct{}{}
			}
			gatherKeys(entry.Value, keySet)
		}
	case Sequence:
		for _, item := range typedValue.Items {
			gatherKeys(item, keySet)
		}
	}
}

func isNumericZero(text string) bool {
	trimmed := strings.TrimLeft(strings.TrimSpace(text), "+-")
	trimmed = strings.ReplaceAll(trimmed, "_", "")
	if len(trimmed) == 0 {
		return false
	}
	if trimmed == numericZeroLiteralConstant {
		return true
	}
	for _, character := range trimmed {
		if character != '0' && character != '.' {
			return false
		}
	}
	return true
}
