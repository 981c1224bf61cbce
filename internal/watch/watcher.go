// Package watch re-runs a callback after the files under a directory change.
//
// Events are coalesced: the callback fires once the tree has been quiet for the
// debounce period, and never runs concurrently with itself.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	// DefaultDebounce is the quiet period used when Configuration.Debounce is not positive.
	DefaultDebounce = 300 * time.Millisecond

	createWatcherErrorTemplate = "create watcher: %w"
	resolveBaseErrorTemplate   = "resolve watch directory %s: %w"
	addDirectoryErrorTemplate  = "watch directory %s: %w"
	walkErrorTemplate          = "walk watch directory %s: %w"

	pathLogFieldConstant          = "path"
	changedLogFieldConstant       = "changed"
	skippedPathMessageConstant    = "watch skipped inaccessible path"
	watcherErrorMessageConstant   = "watcher error"
	callbackFailedMessageConstant = "watch callback failed"
	changeDetectedMessageConstant = "change detected"
)

// ErrAlreadyRunning indicates Run was invoked more than once.
var ErrAlreadyRunning = errors.New("watcher already running")

// ErrEventsClosed indicates the underlying notification channels closed unexpectedly.
var ErrEventsClosed = errors.New("watch notifications closed")

// ChangeHandler receives the sorted, root-relative paths changed during a debounce window.
type ChangeHandler func(executionContext context.Context, changedPaths []string) error

// Configuration controls a Watcher.
type Configuration struct {
	RootPath        string
	Debounce        time.Duration
	IgnoredPatterns []string
	OnChange        ChangeHandler
	Logger          *zap.Logger
}

// Watcher monitors a directory tree recursively.
type Watcher struct {
	configuration Configuration
	notifier      *fsnotify.Watcher
	rootPath      string
	debounce      time.Duration
	logger        *zap.Logger
	started       bool
}

// New constructs a Watcher and registers every directory under the root.
func New(configuration Configuration) (*Watcher, error) {
	absoluteRoot, resolveError := filepath.Abs(configuration.RootPath)
	if resolveError != nil {
		return nil, fmt.Errorf(resolveBaseErrorTemplate, configuration.RootPath, resolveError)
	}

	notifier, notifierError := fsnotify.NewWatcher()
	if notifierError != nil {
		return nil, fmt.Errorf(createWatcherErrorTemplate, notifierError)
	}

	debounce := configuration.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	logger := configuration.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher := &Watcher{
		configuration: configuration,
		notifier:      notifier,
		rootPath:      absoluteRoot,
		debounce:      debounce,
		logger:        logger,
	}
	if addError := watcher.addDirectories(absoluteRoot); addError != nil {
		_ = notifier.Close()
		return nil, addError
	}
	return watcher, nil
}

// Run processes events until the context is cancelled. The handler runs on the
// Run goroutine, so events arriving during a callback are batched into the next window.
func (watcher *Watcher) Run(executionContext context.Context) error {
	if watcher.started {
		return ErrAlreadyRunning
	}
	watcher.started = true
	defer watcher.notifier.Close()

	pending := make(map[string]struct{})
	debounceTimer := time.NewTimer(watcher.debounce)
	if !debounceTimer.Stop() {
		<-debounceTimer.C
	}
	defer debounceTimer.Stop()

	for {
		select {
		case <-executionContext.Done():
			return nil

		case event, open := <-watcher.notifier.Events:
			if !open {
				return ErrEventsClosed
			}
			relativePath, ignored := watcher.classify(event.Name)
			if ignored {
				continue
			}
			if event.Has(fsnotify.Create) {
				watcher.addCreatedDirectory(event.Name)
			}
			pending[relativePath] = struct{}{}
			resetTimer(debounceTimer, watcher.debounce)

		case watchError, open := <-watcher.notifier.Errors:
			if !open {
				return ErrEventsClosed
			}
			watcher.logger.Warn(watcherErrorMessageConstant, zap.Error(watchError))

		case <-debounceTimer.C:
			if len(pending) == 0 {
				continue
			}
			changedPaths := make([]string, 0, len(pending))
			for changedPath := range pending {
				changedPaths = append(changedPaths, changedPath)
			}
			clear(pending)
			sort.Strings(changedPaths)

			watcher.logger.Debug(changeDetectedMessageConstant, zap.Strings(changedLogFieldConstant, changedPaths))
			if watcher.configuration.OnChange == nil {
				continue
			}
			if callbackError := watcher.configuration.OnChange(executionContext, changedPaths); callbackError != nil {
				watcher.logger.Warn(callbackFailedMessageConstant, zap.Error(callbackError))
			}
		}
	}
}

// classify returns the root-relative path of an event and whether it matches an ignored pattern.
func (watcher *Watcher) classify(eventPath string) (string, bool) {
	relativePath, relativeError := filepath.Rel(watcher.rootPath, eventPath)
	if relativeError != nil {
		relativePath = eventPath
	}
	relativePath = filepath.ToSlash(relativePath)
	return relativePath, watcher.isIgnored(relativePath)
}

func (watcher *Watcher) isIgnored(relativePath string) bool {
	baseName := filepath.Base(relativePath)
	for _, pattern := range watcher.configuration.IgnoredPatterns {
		if matched, _ := filepath.Match(pattern, relativePath); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, baseName); matched {
			return true
		}
	}
	return false
}

func (watcher *Watcher) addDirectories(rootPath string) error {
	walkError := filepath.WalkDir(rootPath, func(path string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			if path == rootPath {
				return entryError
			}
			watcher.logger.Warn(skippedPathMessageConstant, zap.String(pathLogFieldConstant, path), zap.Error(entryError))
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != watcher.rootPath {
			if _, ignored := watcher.classify(path); ignored {
				return filepath.SkipDir
			}
		}
		if addError := watcher.notifier.Add(path); addError != nil {
			return fmt.Errorf(addDirectoryErrorTemplate, path, addError)
		}
		return nil
	})
	if walkError != nil {
		return fmt.Errorf(walkErrorTemplate, rootPath, walkError)
	}
	return nil
}

func (watcher *Watcher) addCreatedDirectory(path string) {
	info, statError := os.Stat(path)
	if statError != nil || !info.IsDir() {
		return
	}
	if addError := watcher.addDirectories(path); addError != nil {
		watcher.logger.Warn(skippedPathMessageConstant, zap.String(pathLogFieldConstant, path), zap.Error(addError))
	}
}

func resetTimer(timer *time.Timer, duration time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(duration)
}
