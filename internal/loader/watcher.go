package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// batchWindow is the debounce interval for change events. Editors tend to
// write a document in several bursts; the window collapses them into one
// reload.
const batchWindow = 500 * time.Millisecond

// Watch monitors the project directory and reloads changed diagram
// documents into the index. Blocks until the context is cancelled.
//
// Reloads go through the regular index mutators, so subscribers (including
// a mirrored storage backend) observe every change as it lands on disk.
func (l *ProjectLoader) Watch(ctx context.Context) error {
	matcher, err := loadGitignoreMatcher(l.dir)
	if err != nil {
		matcher = nil // Continue without gitignore
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the project directory recursively.
	err = filepath.Walk(l.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != l.dir && l.shouldIgnoreDir(info.Name(), path, matcher) {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("setting up watcher: %w", err)
	}

	// Batch changed files so a burst of writes triggers one reload.
	changed := make(map[string]bool)
	batchTimer := time.NewTimer(batchWindow)
	batchTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			// New directories need their own watch.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !l.shouldIgnoreDir(info.Name(), event.Name, matcher) {
						_ = watcher.Add(event.Name)
					}
					continue
				}
			}

			if !l.shouldWatchFile(event.Name, matcher) {
				continue
			}

			changed[event.Name] = true
			batchTimer.Reset(batchWindow)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)

		case <-batchTimer.C:
			if len(changed) > 0 {
				l.processChanges(changed)
				changed = make(map[string]bool)
			}
		}
	}
}

// processChanges reloads or removes each changed document.
func (l *ProjectLoader) processChanges(changed map[string]bool) {
	for path := range changed {
		if filepath.Base(path) == MetaFileName {
			if err := l.loadMeta(); err != nil {
				fmt.Fprintf(os.Stderr, "Error reloading metadata: %v\n", err)
			}
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			if l.removeFile(path) {
				fmt.Printf("  Removed: %s\n", filepath.Base(path))
			}
			continue
		}

		if err := l.loadFile(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error reloading %s: %v\n", path, err)
			continue
		}
		fmt.Printf("  Reloaded: %s\n", filepath.Base(path))
	}
}

// shouldWatchFile checks whether a changed path is a project document.
func (l *ProjectLoader) shouldWatchFile(path string, matcher gitignore.Matcher) bool {
	base := filepath.Base(path)
	if base != MetaFileName && !isDiagramDoc(path) {
		return false
	}

	if matcher != nil {
		relPath, err := filepath.Rel(l.dir, path)
		if err != nil {
			return false
		}
		pathParts := strings.Split(relPath, string(filepath.Separator))
		if matcher.Match(pathParts, false) {
			return false
		}
	}
	return true
}

// shouldIgnoreDir checks whether a directory should stay unwatched.
func (l *ProjectLoader) shouldIgnoreDir(name, path string, matcher gitignore.Matcher) bool {
	if shouldSkipDir(name) {
		return true
	}
	if matcher != nil {
		relPath, err := filepath.Rel(l.dir, path)
		if err != nil {
			return false
		}
		pathParts := strings.Split(relPath, string(filepath.Separator))
		return matcher.Match(pathParts, true)
	}
	return false
}

// loadGitignoreMatcher loads a gitignore matcher from the project root.
func loadGitignoreMatcher(dir string) (gitignore.Matcher, error) {
	gitignorePath := filepath.Join(dir, ".gitignore")
	if _, err := os.Stat(gitignorePath); os.IsNotExist(err) {
		return nil, nil
	}

	content, err := os.ReadFile(gitignorePath)
	if err != nil {
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	if len(patterns) == 0 {
		return nil, nil
	}
	return gitignore.NewMatcher(patterns), nil
}
