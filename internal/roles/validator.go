package roles

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/roleaudit/internal/filesystem"
	"github.com/temirov/roleaudit/internal/findings"
	"github.com/temirov/roleaudit/internal/structured"
)

const (
	metaDirectoryNameConstant     = "meta"
	tasksDirectoryNameConstant    = "tasks"
	handlersDirectoryNameConstant = "handlers"

	taskNameFieldConstant      = "name"
	taskTagsFieldConstant      = "tags"
	taskNotifyFieldConstant    = "notify"
	handlerListenFieldConstant = "listen"
	unnamedTaskLabelConstant   = "unnamed"
	taskNameSeparatorConstant  = ", "

	missingDirectoryTemplateConstant  = "%s directory"
	invalidStructuredTemplateConstant = "%s — Invalid YAML: %v"
	invalidTaskShapeTemplateConstant  = "%s — Invalid YAML shape: expected a list of tasks"
	missingTaskNameTemplateConstant   = "%s - missing task name"
	missingTagsTemplateConstant       = "%s missing tags for: %s"
	undefinedHandlerTemplateConstant  = "%s notifies undefined handler '%s'"

	pathLogFieldConstant           = "path"
	unreadableFileMessageConstant  = "role file unreadable"
	unwalkableEntryMessageConstant = "role entry skipped"
)

// DefaultRequiredDirectories lists the conventional role skeleton.
func DefaultRequiredDirectories() []string {
	return []string{"tasks", "defaults", "vars", "handlers", "templates", "files", "meta"}
}

// DefaultMetaFileNames lists the accepted metadata file names, preferred first.
func DefaultMetaFileNames() []string {
	return []string{"main.yml", "main.yaml"}
}

// Validator checks a role's skeleton, structured files and task metadata.
type Validator struct {
	fileSystem          filesystem.FileSystem
	loader              *structured.Loader
	logger              *zap.Logger
	requiredDirectories []string
	metaFileNames       []string
}

// NewValidator constructs a Validator. Empty directory or meta lists fall back to the defaults.
func NewValidator(fileSystem filesystem.FileSystem, logger *zap.Logger, requiredDirectories []string, metaFileNames []string) *Validator {
	if fileSystem == nil {
		fileSystem = filesystem.NewOSFileSystem()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if requiredDirectories == nil {
		requiredDirectories = DefaultRequiredDirectories()
	}
	if len(metaFileNames) == 0 {
		metaFileNames = DefaultMetaFileNames()
	}
	return &Validator{
		fileSystem:          fileSystem,
		loader:              structured.NewLoader(fileSystem),
		logger:              logger,
		requiredDirectories: append([]string(nil), requiredDirectories...),
		metaFileNames:       append([]string(nil), metaFileNames...),
	}
}

// Validate returns the missing and broken findings of role.
func (validator *Validator) Validate(role Role) *findings.Set {
	findingSet := findings.NewSet()

	validator.checkSkeleton(role, findingSet)
	validator.checkMetadata(role, findingSet)
	loadResults := validator.checkStructuredFiles(role, findingSet)
	handlerNames := collectHandlerNames(role, loadResults)
	validator.checkTasks(role, loadResults, handlerNames, findingSet)

	return findingSet
}

func (validator *Validator) checkSkeleton(role Role, findingSet *findings.Set) {
	for _, directoryName := range validator.requiredDirectories {
		info, statError := validator.fileSystem.Stat(filepath.Join(role.Path, directoryName))
		if statError != nil || !info.IsDir() {
			findingSet.Add(findings.CategoryMissing, fmt.Sprintf(missingDirectoryTemplateConstant, directoryName))
		}
	}
}

func (validator *Validator) checkMetadata(role Role, findingSet *findings.Set) {
	for _, metaFileName := range validator.metaFileNames {
		metaPath := filepath.Join(role.Path, metaDirectoryNameConstant, metaFileName)
		loadResult := validator.loader.Load(metaPath)
		switch loadResult.Status {
		case structured.LoadStatusNotFound:
			continue
		case structured.LoadStatusReadFailed:
			validator.logger.Warn(unreadableFileMessageConstant, zap.String(pathLogFieldConstant, metaPath), zap.Error(loadResult.Failure))
			continue
		case structured.LoadStatusParseFailed:
			findingSet.Add(findings.CategoryBroken, fmt.Sprintf(invalidStructuredTemplateConstant, role.DisplayPath(metaPath), loadResult.Failure))
		}
		return
	}
	findingSet.Add(findings.CategoryMissing, metaDirectoryNameConstant+"/"+validator.metaFileNames[0])
}

// checkStructuredFiles parses every YAML file under the role and records parse failures.
// The successful results are returned keyed by absolute path for the task and handler checks.
func (validator *Validator) checkStructuredFiles(role Role, findingSet *findings.Set) map[string]structured.LoadResult {
	loadResults := make(map[string]structured.LoadResult)

	walkError := validator.fileSystem.WalkDir(role.Path, func(path string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			if path == role.Path {
				return entryError
			}
			validator.logger.Warn(unwalkableEntryMessageConstant, zap.String(pathLogFieldConstant, path), zap.Error(entryError))
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.IsDir() || !structured.IsStructuredFile(path) {
			return nil
		}

		loadResult := validator.loader.Load(path)
		switch loadResult.Status {
		case structured.LoadStatusParsed:
			loadResults[path] = loadResult
		case structured.LoadStatusParseFailed:
			findingSet.Add(findings.CategoryBroken, fmt.Sprintf(invalidStructuredTemplateConstant, role.DisplayPath(path), loadResult.Failure))
		default:
			validator.logger.Warn(unreadableFileMessageConstant, zap.String(pathLogFieldConstant, path), zap.Error(loadResult.Failure))
		}
		return nil
	})
	if walkError != nil && !errors.Is(walkError, fs.ErrNotExist) {
		validator.logger.Warn(unwalkableEntryMessageConstant, zap.String(pathLogFieldConstant, role.Path), zap.Error(walkError))
	}

	return loadResults
}

func (validator *Validator) checkTasks(role Role, loadResults map[string]structured.LoadResult, handlerNames map[string]struct{}, findingSet *findings.Set) {
	tasksDirectory := filepath.Join(role.Path, tasksDirectoryNameConstant)
	for _, taskFilePath := range sortedPathsUnder(loadResults, tasksDirectory) {
		displayPath := role.DisplayPath(taskFilePath)
		taskList, isSequence := loadResults[taskFilePath].AsSequence()
		if !isSequence {
			findingSet.Add(findings.CategoryBroken, fmt.Sprintf(invalidTaskShapeTemplateConstant, displayPath))
			continue
		}

		var untaggedTaskNames []string
		for _, item := range taskList.Items {
			task, isMapping := item.(structured.Mapping)
			if !isMapping {
				continue
			}

			nameValue, _ := task.Lookup(taskNameFieldConstant)
			if !structured.Truthy(nameValue) {
				findingSet.Add(findings.CategoryBroken, fmt.Sprintf(missingTaskNameTemplateConstant, displayPath))
			}

			if !task.Has(taskTagsFieldConstant) {
				untaggedTaskNames = append(untaggedTaskNames, taskLabel(nameValue))
			}

			notifyValue, notifies := task.Lookup(taskNotifyFieldConstant)
			if !notifies {
				continue
			}
			for _, target := range structured.Strings(notifyValue) {
				if _, known := handlerNames[target]; !known {
					findingSet.Add(findings.CategoryBroken, fmt.Sprintf(undefinedHandlerTemplateConstant, displayPath, target))
				}
			}
		}

		if len(untaggedTaskNames) > 0 {
			findingSet.Add(findings.CategoryBroken, fmt.Sprintf(missingTagsTemplateConstant, displayPath, strings.Join(untaggedTaskNames, taskNameSeparatorConstant)))
		}
	}
}

// collectHandlerNames gathers handler names and listen topics from the role's handler files.
func collectHandlerNames(role Role, loadResults map[string]structured.LoadResult) map[string]struct{} {
	handlerNames := make(map[string]struct{})
	handlersDirectory := filepath.Join(role.Path, handlersDirectoryNameConstant)
	for _, handlerFilePath := range sortedPathsUnder(loadResults, handlersDirectory) {
		handlerList, isSequence := loadResults[handlerFilePath].AsSequence()
		if !isSequence {
			continue
		}
		for _, item := range handlerList.Items {
			handler, isMapping := item.(structured.Mapping)
			if !isMapping {
				continue
			}
			if nameValue, hasName := handler.Lookup(taskNameFieldConstant); hasName && structured.Truthy(nameValue) {
				if name, isText := structured.Text(nameValue); isText {
					handlerNames[name] = struct{}{}
				}
			}
			if listenValue, listens := handler.Lookup(handlerListenFieldConstant); listens {
				for _, topic := range structured.Strings(listenValue) {
					handlerNames[topic] = struct{}{}
				}
			}
		}
	}
	return handlerNames
}

func sortedPathsUnder(loadResults map[string]structured.LoadResult, directoryPath string) []string {
	prefix := directoryPath + string(filepath.Separator)
	var paths []string
	for candidatePath := range loadResults {
		if strings.HasPrefix(candidatePath, prefix) {
			paths = append(paths, candidatePath)
		}
	}
	sort.Strings(paths)
	return paths
}

func taskLabel(nameValue structured.Value) string {
	if name, isText := structured.Text(nameValue); isText && len(name) > 0 {
		return name
	}
	return unnamedTaskLabelConstant
}
