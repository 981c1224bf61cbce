package variables

import (
	"errors"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/roleaudit/internal/filesystem"
	"github.com/temirov/roleaudit/internal/structured"
)

const (
	rootVariablesDirectoryNameConstant  = "vars"
	inventoryDirectoryNameConstant      = "inventory"
	groupVariablesDirectoryNameConstant = "group_vars"
	hostVariablesDirectoryNameConstant  = "host_vars"
	roleDefaultsDirectoryNameConstant   = "defaults"
	roleVariablesDirectoryNameConstant  = "vars"

	pathLogFieldConstant               = "path"
	definedCountLogFieldConstant       = "defined_count"
	sourceSkippedMessageConstant       = "variable source skipped"
	sourceUnreadableMessageConstant    = "variable source directory unreadable"
	variableSourceCountMessageConstant = "defined variables collected"
)

// Collector gathers variable names defined across the variable sources of an audit root.
type Collector struct {
	fileSystem filesystem.FileSystem
	loader     *structured.Loader
	inventory  *InventoryParser
	logger     *zap.Logger
}

// NewCollector constructs a Collector.
func NewCollector(fileSystem filesystem.FileSystem, logger *zap.Logger) *Collector {
	if fileSystem == nil {
		fileSystem = filesystem.NewOSFileSystem()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		fileSystem: fileSystem,
		loader:     structured.NewLoader(fileSystem),
		inventory:  NewInventoryParser(fileSystem),
		logger:     logger,
	}
}

// Collect returns the union of every mapping key, at any depth, found in the
// root-level and role-level variable sources. Absent sources contribute nothing,
// and a source that fails to load never aborts collection of the others.
func (collector *Collector) Collect(rootPath string, rolePaths []string) NameSet {
	definedNames := NewNameSet()

	collector.collectFlat(filepath.Join(rootPath, rootVariablesDirectoryNameConstant), definedNames)
	collector.collectInventory(filepath.Join(rootPath, inventoryDirectoryNameConstant), definedNames)

	scopedDirectories := []string{
		filepath.Join(rootPath, groupVariablesDirectoryNameConstant),
		filepath.Join(rootPath, hostVariablesDirectoryNameConstant),
		filepath.Join(rootPath, inventoryDirectoryNameConstant, groupVariablesDirectoryNameConstant),
		filepath.Join(rootPath, inventoryDirectoryNameConstant, hostVariablesDirectoryNameConstant),
	}
	for _, scopedDirectory := range scopedDirectories {
		collector.collectRecursive(scopedDirectory, true, definedNames)
	}

	for _, rolePath := range rolePaths {
		collector.collectRecursive(filepath.Join(rolePath, roleDefaultsDirectoryNameConstant), false, definedNames)
		collector.collectRecursive(filepath.Join(rolePath, roleVariablesDirectoryNameConstant), false, definedNames)
	}

	collector.logger.Debug(variableSourceCountMessageConstant, zap.Int(definedCountLogFieldConstant, len(definedNames)))
	return definedNames
}

// CollectFile adds the keys of a single structured file to definedNames.
func (collector *Collector) CollectFile(path string, definedNames NameSet) {
	loadResult := collector.loader.Load(path)
	if !loadResult.Parsed() {
		if loadResult.Status != structured.LoadStatusNotFound {
			collector.logger.Warn(sourceSkippedMessageConstant, zap.String(pathLogFieldConstant, path), zap.Error(loadResult.Failure))
		}
		return
	}
	definedNames.Add(structured.GatherKeys(loadResult.Value)...)
}

func (collector *Collector) collectFlat(directoryPath string, definedNames NameSet) {
	entries, readError := collector.fileSystem.ReadDir(directoryPath)
	if readError != nil {
		collector.logUnreadable(directoryPath, readError)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !structured.IsVariableFile(entry.Name()) {
			continue
		}
		collector.CollectFile(filepath.Join(directoryPath, entry.Name()), definedNames)
	}
}

func (collector *Collector) collectInventory(directoryPath string, definedNames NameSet) {
	entries, readError := collector.fileSystem.ReadDir(directoryPath)
	if readError != nil {
		collector.logUnreadable(directoryPath, readError)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		entryPath := filepath.Join(directoryPath, entry.Name())
		switch {
		case structured.IsVariableFile(entry.Name()):
			collector.CollectFile(entryPath, definedNames)
		case IsInventoryFile(entry.Name()):
			collector.collectInventoryFile(entryPath, definedNames)
		}
	}
}

func (collector *Collector) collectInventoryFile(path string, definedNames NameSet) {
	inventoryNames, parseError := collector.inventory.Parse(path)
	if parseError != nil {
		collector.logger.Warn(sourceSkippedMessageConstant, zap.String(pathLogFieldConstant, path), zap.Error(parseError))
		return
	}
	definedNames.Union(inventoryNames)
}

// collectRecursive walks directoryPath. Scoped variable directories also accept
// extensionless files, which the host treats as YAML.
func (collector *Collector) collectRecursive(directoryPath string, acceptExtensionless bool, definedNames NameSet) {
	walkError := collector.fileSystem.WalkDir(directoryPath, func(path string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			if path == directoryPath {
				return entryError
			}
			collector.logUnreadable(path, entryError)
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if structured.IsVariableFile(path) || (acceptExtensionless && len(filepath.Ext(path)) == 0) {
			collector.CollectFile(path, definedNames)
		}
		return nil
	})
	if walkError != nil {
		collector.logUnreadable(directoryPath, walkError)
	}
}

func (collector *Collector) logUnreadable(path string, readError error) {
	if errors.Is(readError, fs.ErrNotExist) {
		return
	}
	collector.logger.Warn(sourceUnreadableMessageConstant, zap.String(pathLogFieldConstant, path), zap.Error(readError))
}
