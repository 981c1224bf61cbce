package structured

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/roleaudit/internal/content"
	"github.com/temirov/roleaudit/internal/filesystem"
)

const (
	yamlExtensionConstant           = ".yml"
	yamlLongExtensionConstant       = ".yaml"
	jsonExtensionConstant           = ".json"
	mergeKeyTagConstant             = "!!merge"
	nullTagConstant                 = "!!null"
	boolTagConstant                 = "!!bool"
	intTagConstant                  = "!!int"
	floatTagConstant                = "!!float"
	maximumNestingDepthConstant     = 256
	maximumExpandedNodesConstant    = 1_000_000
	unsupportedNodeTemplateConstant = "unsupported node kind %d"
)

const documentIndexErrorTemplateConstant = "document %d: %w"

// ErrNestingTooDeep indicates a document nests (or aliases itself) beyond the supported depth.
var ErrNestingTooDeep = errors.New("structure nests too deeply")

// ErrExpansionTooLarge indicates aliases expand the document beyond the supported node count.
var ErrExpansionTooLarge = errors.New("aliases expand the document beyond the supported size")

// ErrInvalidMergeValue indicates a merge key whose value is not a mapping or a list of mappings.
var ErrInvalidMergeValue = errors.New("merge key value must be a mapping or a list of mappings")

// LoadStatus classifies the outcome of loading a structured file.
type LoadStatus int

// Load outcomes.
const (
	LoadStatusParsed LoadStatus = iota
	LoadStatusNotFound
	LoadStatusReadFailed
	LoadStatusParseFailed
)

// LoadResult is the outcome of loading a single structured file.
type LoadResult struct {
	Path    string
	Status  LoadStatus
	Value   Value
	Failure error
}

// Parsed reports whether the document was parsed.
func (result LoadResult) Parsed() bool {
	return result.Status == LoadStatusParsed
}

// AsMapping returns the parsed value when it is a mapping.
func (result LoadResult) AsMapping() (Mapping, bool) {
	if !result.Parsed() {
		return Mapping{}, false
	}
	mapping, isMapping := result.Value.(Mapping)
	return mapping, isMapping
}

// AsSequence returns the parsed value when it is a sequence.
func (result LoadResult) AsSequence() (Sequence, bool) {
	if !result.Parsed() {
		return Sequence{}, false
	}
	sequence, isSequence := result.Value.(Sequence)
	return sequence, isSequence
}

// Loader reads and parses structured files.
type Loader struct {
	reader *content.Reader
}

// NewLoader constructs a Loader backed by the provided filesystem.
func NewLoader(fileSystem filesystem.FileSystem) *Loader {
	return &Loader{reader: content.NewReader(fileSystem)}
}

// Load reads and parses the file at path.
func (loader *Loader) Load(path string) LoadResult {
	readResult := loader.reader.Read(path)
	if readResult.NotFound() {
		return LoadResult{Path: path, Status: LoadStatusNotFound, Failure: readResult.Failure}
	}
	if !readResult.Succeeded() {
		return LoadResult{Path: path, Status: LoadStatusReadFailed, Failure: readResult.Failure}
	}

	value, parseError := Parse(readResult.Text)
	if parseError != nil {
		return LoadResult{Path: path, Status: LoadStatusParseFailed, Failure: parseError}
	}
	return LoadResult{Path: path, Status: LoadStatusParsed, Value: value}
}

// Parse converts YAML (or JSON) text into a Value. Only the first document is
// returned; later documents are decoded so syntax errors in them still surface.
// A document that is empty, comment-only or an explicit null becomes an empty Mapping.
func Parse(text string) (Value, error) {
	decoder := yaml.NewDecoder(strings.NewReader(text))

	var firstDocument yaml.Node
	decodeError := decoder.Decode(&firstDocument)
	if errors.Is(decodeError, io.EOF) {
		return Mapping{}, nil
	}
	if decodeError != nil {
		return nil, decodeError
	}

	value, convertError := convertDocument(&firstDocument)
	if convertError != nil {
		return nil, convertError
	}

	for documentIndex := 2; ; documentIndex++ {
		var trailingDocument yaml.Node
		trailingError := decoder.Decode(&trailingDocument)
		if errors.Is(trailingError, io.EOF) {
			break
		}
		if trailingError != nil {
			return nil, fmt.Errorf(documentIndexErrorTemplateConstant, documentIndex, trailingError)
		}
	}

	return value, nil
}

// IsStructuredFile reports whether the path carries a YAML extension.
func IsStructuredFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case yamlExtensionConstant, yamlLongExtensionConstant:
		return true
	default:
		return false
	}
}

// IsVariableFile reports whether the path carries a YAML or JSON extension.
func IsVariableFile(path string) bool {
	return IsStructuredFile(path) || strings.EqualFold(filepath.Ext(path), jsonExtensionConstant)
}

func convertDocument(document *yaml.Node) (Value, error) {
	if document.Kind == yaml.DocumentNode {
		if len(document.Content) == 0 {
			return Mapping{}, nil
		}
		document = document.Content[0]
		if document.Kind == yaml.ScalarNode && document.ShortTag() == nullTagConstant {
			return Mapping{}, nil
		}
	}
	converter := newNodeConverter()
	value, _, convertError := converter.convert(document, 0)
	return value, convertError
}

// convertedNode is a converted anchor target together with its expanded node count.
type convertedNode struct {
	value Value
	size  int
}

// nodeConverter turns yaml nodes into Values. Anchored nodes are converted once
// and shared by every alias; the expanded node count is tracked so nested
// aliases cannot grow the result without bound.
type nodeConverter struct {
	anchors       map[*yaml.Node]convertedNode
	expandedNodes int
}

func newNodeConverter() *nodeConverter {
	return &nodeConverter{anchors: make(map[*yaml.Node]convertedNode)}
}

func (converter *nodeConverter) count(size int) error {
	converter.expandedNodes += size
	if converter.expandedNodes > maximumExpandedNodesConstant {
		return ErrExpansionTooLarge
	}
	return nil
}

func (converter *nodeConverter) convert(node *yaml.Node, depth int) (Value, int, error) {
	if depth > maximumNestingDepthConstant {
		return nil, 0, ErrNestingTooDeep
	}

	if node.Kind == yaml.AliasNode {
		if node.Alias == nil {
			return nil, 0, fmt.Errorf(unsupportedNodeTemplateConstant, node.Kind)
		}
		return converter.convert(node.Alias, depth+1)
	}

	if cached, isCached := converter.anchors[node]; isCached {
		if countError := converter.count(cached.size); countError != nil {
			return nil, 0, countError
		}
		return cached.value, cached.size, nil
	}

	value, size, convertError := converter.convertFresh(node, depth)
	if convertError != nil {
		return nil, 0, convertError
	}
	if len(node.Anchor) > 0 {
		converter.anchors[node] = convertedNode{value: value, size: size}
	}
	return value, size, nil
}

func (converter *nodeConverter) convertFresh(node *yaml.Node, depth int) (Value, int, error) {
	if countError := converter.count(1); countError != nil {
		return nil, 0, countError
	}

	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return Scalar{Type: ScalarTypeNull}, 1, nil
		}
		value, size, convertError := converter.convert(node.Content[0], depth+1)
		return value, size + 1, convertError
	case yaml.ScalarNode:
		return convertScalar(node), 1, nil
	case yaml.SequenceNode:
		items := make([]Value, 0, len(node.Content))
		size := 1
		for _, child := range node.Content {
			item, itemSize, itemError := converter.convert(child, depth+1)
			if itemError != nil {
				return nil, 0, itemError
			}
			items = append(items, item)
			size += itemSize
		}
		return Sequence{Items: items}, size, nil
	case yaml.MappingNode:
		return converter.convertMapping(node, depth)
	default:
		return nil, 0, fmt.Errorf(unsupportedNodeTemplateConstant, node.Kind)
	}
}

func (converter *nodeConverter) convertMapping(node *yaml.Node, depth int) (Value, int, error) {
	mapping := Mapping{Entries: make([]MappingEntry, 0, len(node.Content)/2)}
	size := 1
	for pairIndex := 0; pairIndex+1 < len(node.Content); pairIndex += 2 {
		keyNode := node.Content[pairIndex]
		valueNode := node.Content[pairIndex+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.ShortTag() == mergeKeyTagConstant {
			mergedEntries, mergedSize, mergeError := converter.mergeEntries(valueNode, depth+1)
			if mergeError != nil {
				return nil, 0, mergeError
			}
			size += mergedSize
			for _, mergedEntry := range mergedEntries {
				if !mapping.Has(mergedEntry.Key) {
					mapping.Entries = append(mapping.Entries, mergedEntry)
				}
			}
			continue
		}

		value, valueSize, valueError := converter.convert(valueNode, depth+1)
		if valueError != nil {
			return nil, 0, valueError
		}
		size += valueSize
		mapping = withEntry(mapping, MappingEntry{Key: keyText(keyNode), Value: value})
	}
	return mapping, size, nil
}

// withEntry appends the entry, replacing any earlier entry with the same key so explicit keys override merged ones.
func withEntry(mapping Mapping, entry MappingEntry) Mapping {
	for entryIndex := range mapping.Entries {
		if mapping.Entries[entryIndex].Key == entry.Key {
			mapping.Entries[entryIndex].Value = entry.Value
			return mapping
		}
	}
	mapping.Entries = append(mapping.Entries, entry)
	return mapping
}

func (converter *nodeConverter) mergeEntries(valueNode *yaml.Node, depth int) ([]MappingEntry, int, error) {
	resolved, size, convertError := converter.convert(valueNode, depth)
	if convertError != nil {
		return nil, 0, convertError
	}
	switch typedValue := resolved.(type) {
	case Mapping:
		return typedValue.Entries, size, nil
	case Sequence:
		var entries []MappingEntry
		for _, item := range typedValue.Items {
			itemMapping, isMapping := item.(Mapping)
			if !isMapping {
				return nil, 0, ErrInvalidMergeValue
			}
			for _, entry := range itemMapping.Entries {
				if !containsKey(entries, entry.Key) {
					entries = append(entries, entry)
				}
			}
		}
		return entries, size, nil
	default:
		return nil, 0, ErrInvalidMergeValue
	}
}

func containsKey(entries []MappingEntry, key string) bool {
	for _, entry := range entries {
		if entry.Key == key {
			return true
		}
	}
	return false
}

func keyText(keyNode *yaml.Node) string {
	resolved := keyNode
	for resolved.Kind == yaml.AliasNode && resolved.Alias != nil {
		resolved = resolved.Alias
	}
	if resolved.Kind == yaml.ScalarNode {
		return resolved.Value
	}
	return ""
}

func convertScalar(node *yaml.Node) Scalar {
	switch node.ShortTag() {
	case nullTagConstant:
		return Scalar{Type: ScalarTypeNull, Text: node.Value}
	case boolTagConstant:
		return Scalar{Type: ScalarTypeBoolean, Text: node.Value}
	case intTagConstant, floatTagConstant:
		return Scalar{Type: ScalarTypeNumber, Text: node.Value}
	default:
		return Scalar{Type: ScalarTypeString, Text: node.Value}
	}
}
