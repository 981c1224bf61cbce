package roles

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/temirov/roleaudit/internal/filesystem"
	"github.com/temirov/roleaudit/internal/structured"
)

const (
	// RolesDirectoryNameConstant names the role container under an audit root.
	RolesDirectoryNameConstant = "roles"

	playbooksDirectoryNameConstant  = "playbooks"
	playbookNameMarkerConstant      = "playbook"
	rolesDirectoryErrorTemplate     = "%w: %s"
	rolesDirectoryReadErrorTemplate = "list roles in %s: %w"
)

// ErrRolesDirectoryMissing indicates the audit root has no roles container.
var ErrRolesDirectoryMissing = errors.New("roles directory missing")

// Role identifies a single role directory.
type Role struct {
	Name         string
	Path         string
	RelativePath string
}

// DisplayPath renders a path inside the role relative to the audit root using forward slashes.
func (role Role) DisplayPath(absolutePath string) string {
	relativeToRole, relativeError := filepath.Rel(role.Path, absolutePath)
	if relativeError != nil {
		return filepath.ToSlash(absolutePath)
	}
	return path.Join(role.RelativePath, filepath.ToSlash(relativeToRole))
}

// Discoverer enumerates roles and playbooks under an audit root.
type Discoverer struct {
	fileSystem filesystem.FileSystem
}

// NewDiscoverer constructs a Discoverer.
func NewDiscoverer(fileSystem filesystem.FileSystem) *Discoverer {
	if fileSystem == nil {
		fileSystem = filesystem.NewOSFileSystem()
	}
	return &Discoverer{fileSystem: fileSystem}
}

// RolesDirectory returns the role container path for rootPath.
func RolesDirectory(rootPath string) string {
	return filepath.Join(rootPath, RolesDirectoryNameConstant)
}

// DiscoverRoles lists the immediate sub-directories of the roles container, sorted by name.
// A missing container yields ErrRolesDirectoryMissing.
func (discoverer *Discoverer) DiscoverRoles(rootPath string) ([]Role, error) {
	rolesDirectory := RolesDirectory(rootPath)
	info, statError := discoverer.fileSystem.Stat(rolesDirectory)
	if statError != nil || !info.IsDir() {
		return nil, fmt.Errorf(rolesDirectoryErrorTemplate, ErrRolesDirectoryMissing, rolesDirectory)
	}

	entries, readError := discoverer.fileSystem.ReadDir(rolesDirectory)
	if readError != nil {
		return nil, fmt.Errorf(rolesDirectoryReadErrorTemplate, rolesDirectory, readError)
	}

	discovered := make([]Role, 0, len(entries))
	for _, entry := range entries {
		if !discoverer.isDirectory(rolesDirectory, entry) {
			continue
		}
		discovered = append(discovered, Role{
			Name:         entry.Name(),
			Path:         filepath.Join(rolesDirectory, entry.Name()),
			RelativePath: path.Join(RolesDirectoryNameConstant, entry.Name()),
		})
	}

	sort.Slice(discovered, func(first int, second int) bool {
		return discovered[first].Name < discovered[second].Name
	})
	return discovered, nil
}

// DiscoverPlaybooks returns root-relative playbook paths: YAML files in the root
// whose name mentions a playbook and every YAML file in the playbooks directory.
func (discoverer *Discoverer) DiscoverPlaybooks(rootPath string) []string {
	seen := make(map[string]struct{})
	var playbooks []string

	collect := func(directoryName string, requireMarker bool) {
		directoryPath := filepath.Join(rootPath, directoryName)
		entries, readError := discoverer.fileSystem.ReadDir(directoryPath)
		if readError != nil {
			return
		}
		for _, entry := range entries {
			if entry.IsDir() || !structured.IsStructuredFile(entry.Name()) {
				continue
			}
			if requireMarker && !strings.Contains(entry.Name(), playbookNameMarkerConstant) {
				continue
			}
			relativePath := path.Join(filepath.ToSlash(directoryName), entry.Name())
			if _, duplicate := seen[relativePath]; duplicate {
				continue
			}
			seen[relativePath] = struct{}{}
			playbooks = append(playbooks, relativePath)
		}
	}

	collect(".", true)
	collect(playbooksDirectoryNameConstant, false)

	sort.Strings(playbooks)
	return playbooks
}

func (discoverer *Discoverer) isDirectory(parentPath string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, statError := discoverer.fileSystem.Stat(filepath.Join(parentPath, entry.Name()))
	return statError == nil && info.IsDir()
}
