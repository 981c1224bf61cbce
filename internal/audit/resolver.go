package audit

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/roleaudit/internal/content"
	"github.com/temirov/roleaudit/internal/filesystem"
	"github.com/temirov/roleaudit/internal/findings"
	"github.com/temirov/roleaudit/internal/roles"
	"github.com/temirov/roleaudit/internal/variables"
)

const (
	templateExtensionConstant   = ".j2"
	yamlExtensionConstant       = ".yml"
	yamlLongExtensionConstant   = ".yaml"
	referenceReadSkippedMessage = "variable reference scan skipped unreadable file"
	referenceWalkSkippedMessage = "variable reference scan skipped entry"
	pathLogFieldConstant        = "path"
)

var referenceSourceDirectories = []string{"tasks", "handlers", "templates"}

// IgnorePolicy decides which referenced names are supplied by the host at run time.
type IgnorePolicy struct {
	names    map[string]struct{}
	prefixes []string
}

// NewIgnorePolicy constructs an IgnorePolicy from exact names and name prefixes.
func NewIgnorePolicy(names []string, prefixes []string) IgnorePolicy {
	policy := IgnorePolicy{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		policy.names[name] = struct{}{}
	}
	for _, prefix := range prefixes {
		if len(prefix) > 0 {
			policy.prefixes = append(policy.prefixes, prefix)
		}
	}
	return policy
}

// Ignores reports whether name is host-supplied.
func (policy IgnorePolicy) Ignores(name string) bool {
	if _, listed := policy.names[name]; listed {
		return true
	}
	for _, prefix := range policy.prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// Resolver computes referenced-but-undefined variables of a role.
type Resolver struct {
	fileSystem filesystem.FileSystem
	reader     *content.Reader
	logger     *zap.Logger
	policy     IgnorePolicy
}

// NewResolver constructs a Resolver.
func NewResolver(fileSystem filesystem.FileSystem, logger *zap.Logger, policy IgnorePolicy) *Resolver {
	if fileSystem == nil {
		fileSystem = filesystem.NewOSFileSystem()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		fileSystem: fileSystem,
		reader:     content.NewReader(fileSystem),
		logger:     logger,
		policy:     policy,
	}
}

// UsedVariables extracts the base names referenced by the role's task, handler and template files.
func (resolver *Resolver) UsedVariables(role roles.Role) variables.NameSet {
	usedNames := variables.NewNameSet()
	for _, directoryName := range referenceSourceDirectories {
		directoryPath := filepath.Join(role.Path, directoryName)
		walkError := resolver.fileSystem.WalkDir(directoryPath, func(path string, entry fs.DirEntry, entryError error) error {
			if entryError != nil {
				if path == directoryPath {
					return entryError
				}
				resolver.logger.Warn(referenceWalkSkippedMessage, zap.String(pathLogFieldConstant, path), zap.Error(entryError))
				if entry != nil && entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if entry.IsDir() || !isReferenceSource(path) {
				return nil
			}

			readResult := resolver.reader.Read(path)
			if !readResult.Succeeded() {
				resolver.logger.Warn(referenceReadSkippedMessage, zap.String(pathLogFieldConstant, path), zap.Error(readResult.Failure))
				return nil
			}
			usedNames.Add(variables.ExtractReferences(readResult.Text)...)
			return nil
		})
		if walkError != nil && !errors.Is(walkError, fs.ErrNotExist) {
			resolver.logger.Warn(referenceWalkSkippedMessage, zap.String(pathLogFieldConstant, directoryPath), zap.Error(walkError))
		}
	}
	return usedNames
}

// Resolve reports every used name that is neither defined nor host-supplied as undefined_vars.
func (resolver *Resolver) Resolve(role roles.Role, definedNames variables.NameSet) *findings.Set {
	findingSet := findings.NewSet()
	for _, usedName := range resolver.UsedVariables(role).Sorted() {
		if definedNames.Contains(usedName) || resolver.policy.Ignores(usedName) {
			continue
		}
		findingSet.Add(findings.CategoryUndefinedVars, usedName)
	}
	return findingSet
}

func isReferenceSource(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case templateExtensionConstant, yamlExtensionConstant, yamlLongExtensionConstant:
		return true
	default:
		return false
	}
}
