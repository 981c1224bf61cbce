package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
)

const (
	temporaryFilePatternConstant = "%s.tmp.*"
	directoryPermissionsConstant = 0o755
)

// FileSystem exposes the filesystem primitives consumed by the audit engine and its collaborators.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	ReadFile(path string) ([]byte, error)
	ReadDir(path string) ([]fs.DirEntry, error)
	WalkDir(root string, walkFunction fs.WalkDirFunc) error
	Abs(path string) (string, error)
	ReplaceFile(path string, data []byte, permissions fs.FileMode) error
}

// OSFileSystem implements FileSystem using the operating system primitives.
type OSFileSystem struct{}

// NewOSFileSystem constructs an OSFileSystem.
func NewOSFileSystem() OSFileSystem {
	return OSFileSystem{}
}

// Stat retrieves file metadata.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// ReadFile reads file contents.
func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// ReadDir lists directory entries sorted by file name.
func (OSFileSystem) ReadDir(path string) ([]fs.DirEntry, error) {
	return os.ReadDir(path)
}

// WalkDir walks the file tree rooted at root in lexical order.
func (OSFileSystem) WalkDir(root string, walkFunction fs.WalkDirFunc) error {
	return filepath.WalkDir(root, walkFunction)
}

// Abs resolves an absolute path.
func (OSFileSystem) Abs(path string) (string, error) {
	return filepath.Abs(path)
}

// ReplaceFile writes data to a sibling temporary file and renames it over path.
// Readers observe either the previous content or the new content, never a partial write.
func (OSFileSystem) ReplaceFile(path string, data []byte, permissions fs.FileMode) error {
	directoryPath := filepath.Dir(path)
	if mkdirError := os.MkdirAll(directoryPath, directoryPermissionsConstant); mkdirError != nil {
		return mkdirError
	}

	temporaryFile, openError := os.CreateTemp(directoryPath, fmt.Sprintf(temporaryFilePatternConstant, filepath.Base(path)))
	if openError != nil {
		return openError
	}
	temporaryPath := temporaryFile.Name()
	if chmodError := temporaryFile.Chmod(permissions); chmodError != nil {
		_ = temporaryFile.Close()
		_ = os.Remove(temporaryPath)
		return chmodError
	}

	if _, writeError := temporaryFile.Write(data); writeError != nil {
		_ = temporaryFile.Close()
		_ = os.Remove(temporaryPath)
		return writeError
	}
	if syncError := temporaryFile.Sync(); syncError != nil {
		_ = temporaryFile.Close()
		_ = os.Remove(temporaryPath)
		return syncError
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		_ = os.Remove(temporaryPath)
		return closeError
	}

	if renameError := os.Rename(temporaryPath, path); renameError != nil {
		_ = os.Remove(temporaryPath)
		return renameError
	}

	return syncDirectory(directoryPath)
}

func syncDirectory(directoryPath string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	directory, openError := os.Open(directoryPath)
	if openError != nil {
		return nil
	}
	defer directory.Close()
	_ = directory.Sync()
	return nil
}
