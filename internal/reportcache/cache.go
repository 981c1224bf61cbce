// Package reportcache remembers the last report produced for each audit root.
package reportcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/temirov/roleaudit/internal/filesystem"
)

const (
	// DefaultFileNameConstant is the cache file name used when none is configured.
	DefaultFileNameConstant = "cache.json"

	cacheFilePermissionsConstant = 0o644
	jsonIndentConstant           = "  "

	readCacheErrorTemplate   = "read report cache %s: %w"
	decodeCacheErrorTemplate = "decode report cache %s: %w"
	encodeCacheErrorTemplate = "encode report cache: %w"
	writeCacheErrorTemplate  = "write report cache %s: %w"
)

// Entry is the cached outcome of one audit run.
type Entry struct {
	ReportPath string `json:"report_path"`
	Score      int    `json:"score"`
	Terminal   bool   `json:"terminal"`
}

// Cache is a JSON file mapping absolute audit roots to their latest Entry.
type Cache struct {
	fileSystem filesystem.FileSystem
	path       string
	mutex      sync.Mutex
}

// New constructs a Cache stored at path.
func New(fileSystem filesystem.FileSystem, path string) *Cache {
	if fileSystem == nil {
		fileSystem = filesystem.NewOSFileSystem()
	}
	if len(path) == 0 {
		path = DefaultFileNameConstant
	}
	return &Cache{fileSystem: fileSystem, path: path}
}

// Path returns the cache file location.
func (cache *Cache) Path() string {
	return cache.path
}

// Read returns every cached entry. An absent cache file reads as empty.
func (cache *Cache) Read() (map[string]Entry, error) {
	cache.mutex.Lock()
	defer cache.mutex.Unlock()
	return cache.read()
}

// Lookup returns the entry recorded for rootPath.
func (cache *Cache) Lookup(rootPath string) (Entry, bool, error) {
	entries, readError := cache.Read()
	if readError != nil {
		return Entry{}, false, readError
	}
	entry, found := entries[rootPath]
	return entry, found, nil
}

// Record stores entry for rootPath, creating the cache file on first use.
func (cache *Cache) Record(rootPath string, entry Entry) error {
	cache.mutex.Lock()
	defer cache.mutex.Unlock()

	entries, readError := cache.read()
	if readError != nil {
		return readError
	}
	entries[rootPath] = entry

	encoded, encodeError := json.MarshalIndent(entries, "", jsonIndentConstant)
	if encodeError != nil {
		return fmt.Errorf(encodeCacheErrorTemplate, encodeError)
	}
	if writeError := cache.fileSystem.ReplaceFile(cache.path, append(encoded, '\n'), cacheFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(writeCacheErrorTemplate, cache.path, writeError)
	}
	return nil
}

func (cache *Cache) read() (map[string]Entry, error) {
	data, readError := cache.fileSystem.ReadFile(cache.path)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return map[string]Entry{}, nil
		}
		return nil, fmt.Errorf(readCacheErrorTemplate, cache.path, readError)
	}

	entries := map[string]Entry{}
	if len(data) == 0 {
		return entries, nil
	}
	if decodeError := json.Unmarshal(data, &entries); decodeError != nil {
		return nil, fmt.Errorf(decodeCacheErrorTemplate, cache.path, decodeError)
	}
	return entries, nil
}
