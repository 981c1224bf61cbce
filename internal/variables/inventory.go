package variables

import (
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/temirov/roleaudit/internal/content"
	"github.com/temirov/roleaudit/internal/filesystem"
	"github.com/temirov/roleaudit/internal/structured"
)

const (
	iniExtensionConstant           = ".ini"
	configExtensionConstant        = ".cfg"
	groupVariablesSuffixConstant   = ":vars"
	keyValueDelimiterConstant      = "="
	inventoryParseTemplateConstant = "parse inventory %s: %w"
)

// IsInventoryFile reports whether a file name looks like an INI-style inventory.
func IsInventoryFile(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case iniExtensionConstant, configExtensionConstant, "":
		return true
	default:
		return false
	}
}

// InventoryParser extracts variable names from INI-style inventory files.
type InventoryParser struct {
	reader *content.Reader
}

// NewInventoryParser constructs an InventoryParser.
func NewInventoryParser(fileSystem filesystem.FileSystem) *InventoryParser {
	return &InventoryParser{reader: content.NewReader(fileSystem)}
}

// Parse returns the variable names an inventory file defines. Extensionless
// files holding a YAML mapping are read as YAML inventories; everything else is
// read as INI, where `[group:vars]` keys and inline `host key=value` pairs count as definitions.
func (parser *InventoryParser) Parse(path string) (NameSet, error) {
	readResult := parser.reader.Read(path)
	if !readResult.Succeeded() {
		return nil, readResult.Failure
	}

	if len(filepath.Ext(path)) == 0 {
		if value, parseError := structured.Parse(readResult.Text); parseError == nil {
			if mapping, isMapping := value.(structured.Mapping); isMapping && mapping.Len() > 0 {
				return NewNameSet(structured.GatherKeys(mapping)...), nil
			}
		}
	}

	return ParseINIInventory(path, []byte(readResult.Text))
}

// ParseINIInventory extracts variable names from INI inventory data.
func ParseINIInventory(sourceName string, data []byte) (NameSet, error) {
	inventoryFile, loadError := ini.LoadSources(ini.LoadOptions{
		AllowBooleanKeys:        true,
		SkipUnrecognizableLines: true,
		KeyValueDelimiters:      keyValueDelimiterConstant,
	}, data)
	if loadError != nil {
		return nil, fmt.Errorf(inventoryParseTemplateConstant, sourceName, loadError)
	}

	definedNames := NewNameSet()
	for _, section := range inventoryFile.Sections() {
		if strings.HasSuffix(section.Name(), groupVariablesSuffixConstant) {
			for _, key := range section.Keys() {
				definedNames.Add(strings.TrimSpace(key.Name()))
			}
			continue
		}
		for _, key := range section.Keys() {
			definedNames.Add(inlineHostVariables(key.Name(), key.Value())...)
		}
	}
	return definedNames, nil
}

// inlineHostVariables recovers the names of `host name=value other=value` pairs
// from a key split at its first delimiter.
func inlineHostVariables(keyName string, keyValue string) []string {
	keyFields := strings.Fields(keyName)
	if len(keyFields) < 2 {
		return nil
	}

	variableNames := []string{keyFields[len(keyFields)-1]}
	for _, valueField := range strings.Fields(keyValue) {
		delimiterIndex := strings.Index(valueField, keyValueDelimiterConstant)
		if delimiterIndex <= 0 {
			continue
		}
		variableNames = append(variableNames, valueField[:delimiterIndex])
	}
	return variableNames
}
