package pattern

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/promptmesh/logging"
)

// FSLibrary loads prompt fragments from a directory tree:
//
//	<root>/patterns/<name>/system.md
//	<root>/strategies/<name>.yaml   (fields: description, prompt)
//	<root>/contexts/<name>.md
//
// The tree is read eagerly; call Reload after external edits, or Watch to
// reload automatically on filesystem changes.
type FSLibrary struct {
	root   string
	logger logging.Logger

	mu         sync.RWMutex
	patterns   map[string]Pattern
	strategies map[string]Strategy
	contexts   map[string]Context
}

// FSOptions configure the filesystem library.
type FSOptions struct {
	Logger logging.Logger
}

// NewFSLibrary loads the fragment tree rooted at root. Missing subdirectories
// are tolerated (a library may carry only patterns).
func NewFSLibrary(root string, optFns ...func(o *FSOptions)) (*FSLibrary, error) {
	opts := FSOptions{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	l := &FSLibrary{root: root, logger: opts.Logger}
	if err := l.Reload(); err != nil {
		return nil, err
	}
	return l, nil
}

// Reload re-reads the whole fragment tree, replacing the cached state.
func (l *FSLibrary) Reload() error {
	patterns, err := l.loadPatterns()
	if err != nil {
		return err
	}
	strategies, err := l.loadStrategies()
	if err != nil {
		return err
	}
	contexts, err := l.loadContexts()
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.patterns = patterns
	l.strategies = strategies
	l.contexts = contexts
	return nil
}

func (l *FSLibrary) loadPatterns() (map[string]Pattern, error) {
	dir := filepath.Join(l.root, "patterns")
	out := make(map[string]Pattern)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read patterns dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name := e.Name()
		body, err := os.ReadFile(filepath.Join(dir, name, "system.md"))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read pattern %q: %w", name, err)
		}
		out[name] = Pattern{Name: name, Body: string(body)}
	}
	return out, nil
}

func (l *FSLibrary) loadStrategies() (map[string]Strategy, error) {
	dir := filepath.Join(l.root, "strategies")
	out := make(map[string]Strategy)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read strategies dir: %w", err)
	}
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read strategy %q: %w", name, err)
		}
		var s Strategy
		if err := yaml.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("parse strategy %q: %w", name, err)
		}
		s.Name = name
		out[name] = s
	}
	return out, nil
}

func (l *FSLibrary) loadContexts() (map[string]Context, error) {
	dir := filepath.Join(l.root, "contexts")
	out := make(map[string]Context)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read contexts dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".md")
		body, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read context %q: %w", name, err)
		}
		out[name] = Context{Name: name, Body: string(body)}
	}
	return out, nil
}

// Watch reloads the library whenever the fragment tree changes on disk.
// It blocks until ctx is done. A reload failure is logged, not fatal; the
// previous state stays in effect.
func (l *FSLibrary) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close() //nolint:errcheck

	for _, dir := range l.watchDirs() {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New pattern directories need their own watch.
			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			if err := l.Reload(); err != nil {
				l.logger.Warn("pattern library reload failed", "error", err, "trigger", event.Name)
				continue
			}
			l.logger.Debug("pattern library reloaded", "trigger", event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("pattern library watch error", "error", err)
		}
	}
}

// watchDirs lists the directories the watcher covers: the three fragment
// roots plus each existing pattern subdirectory.
func (l *FSLibrary) watchDirs() []string {
	dirs := []string{}
	for _, sub := range []string{"patterns", "strategies", "contexts"} {
		dir := filepath.Join(l.root, sub)
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	patternsDir := filepath.Join(l.root, "patterns")
	if entries, err := os.ReadDir(patternsDir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				dirs = append(dirs, filepath.Join(patternsDir, e.Name()))
			}
		}
	}
	return dirs
}

// Pattern implements Library.
func (l *FSLibrary) Pattern(name string) (Pattern, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p, ok := l.patterns[name]
	if !ok {
		return Pattern{}, fmt.Errorf("pattern %q: %w", name, ErrNotFound)
	}
	return p, nil
}

// Strategy implements Library.
func (l *FSLibrary) Strategy(name string) (Strategy, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.strategies[name]
	if !ok {
		return Strategy{}, fmt.Errorf("strategy %q: %w", name, ErrNotFound)
	}
	return s, nil
}

// Context implements Library.
func (l *FSLibrary) Context(name string) (Context, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.contexts[name]
	if !ok {
		return Context{}, fmt.Errorf("context %q: %w", name, ErrNotFound)
	}
	return c, nil
}

// Interface compliance (compile-time assertion)
var _ Library = (*FSLibrary)(nil)
