// SPDX-License-Identifier: MPL-2.0

// Package watch re-runs packaging when project files change.
//
// A Watcher monitors a project tree and invokes a callback after a debounce
// period. Events within the window are coalesced so one rebuild covers every
// change. Octopack's own staging directories and produced packages are
// always ignored so a rebuild never triggers itself.
package watch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/octopack/octopack/internal/issue"
	"github.com/octopack/octopack/internal/logsink"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the delay between the last event and the rebuild.
const DefaultDebounce = 500 * time.Millisecond

// ErrAlreadyStarted is returned by a second call to Run.
var ErrAlreadyStarted = errors.New("watch: Run called more than once")

var defaultIgnores = []string{
	"obj/octopacking/**",
	"obj/octopacked/**",
	"**/*.nupkg",
	"**/.git/**",
	"**/.vs/**",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

// Watcher monitors a directory tree and fires a debounced callback when
// matching files change. Run must be called exactly once.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	ignores  []string
	sink     logsink.Sink
	debounce time.Duration
	baseDir  string
	started  atomic.Bool
}

// New validates cfg and registers every non-ignored directory under BaseDir.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	baseDir := string(cfg.BaseDir)
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	sink := cfg.Sink
	if sink == nil {
		sink = logsink.Discard
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		sink:     sink,
		debounce: debounce,
		baseDir:  absBase,
	}

	if err := w.addDirectories(); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled. It returns nil on
// cancellation and an error when the underlying watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire may run after cancellation via time.AfterFunc. A rebuild still
	// in progress postpones the next one instead of overlapping it.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.sink.Detail("watch: rebuild still in progress, postponing")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.sink.Error(issue.CodeOf(err), "watch: rebuild failed: "+err.Error())
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.sink.Detail("watch: close fsnotify: " + err.Error())
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			rel, err := filepath.Rel(w.baseDir, evt.Name)
			if err != nil {
				rel = evt.Name
			}
			if w.isIgnored(rel) {
				continue
			}
			// New directories are watched whatever the patterns select, and
			// files written into them before the watch was added are queued.
			var found []string
			if evt.Has(fsnotify.Create) {
				found = w.maybeAddDir(evt.Name)
			}
			if w.matchesPatterns(rel) {
				found = append(found, rel)
			}
			if len(found) == 0 {
				continue
			}

			mu.Lock()
			for _, f := range found {
				pending[filepath.ToSlash(f)] = struct{}{}
			}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.sink.Warn(issue.CodeFailure, "watch: fsnotify error: "+err.Error())
		}
	}
}

// addDirectories registers BaseDir and every non-ignored directory below it.
// Inaccessible directories are skipped with a detail message.
func (w *Watcher) addDirectories() error {
	walkErr := filepath.WalkDir(w.baseDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.sink.Detail(fmt.Sprintf("watch: skipping inaccessible path %q: %v", path, err))
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.baseDir, path)
		if relErr != nil {
			return nil
		}
		if rel != "." && (w.isIgnored(rel) || w.isIgnored(rel+"/")) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// maybeAddDir watches path and its subdirectories when path is a
// directory, returning the selected files already inside it.
func (w *Watcher) maybeAddDir(path string) []string {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return nil
	}

	var found []string
	_ = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, relErr := filepath.Rel(w.baseDir, p)
		if relErr != nil {
			return nil
		}
		if d.IsDir() {
			if w.isIgnored(rel) || w.isIgnored(rel+"/") {
				return filepath.SkipDir
			}
			if addErr := w.fsw.Add(p); addErr != nil {
				w.sink.Detail(fmt.Sprintf("watch: add new directory %q: %v", p, addErr))
			}
			return nil
		}
		if !w.isIgnored(rel) && w.matchesPatterns(rel) {
			found = append(found, rel)
		}
		return nil
	})
	return found
}

func (w *Watcher) isIgnored(rel string) bool {
	return matchAny(w.ignores, rel)
}

// matchesPatterns reports whether rel is selected. No patterns selects all.
func (w *Watcher) matchesPatterns(rel string) bool {
	return len(w.cfg.Patterns) == 0 || matchAny(w.cfg.Patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range patterns {
		if matched, err := doublestar.Match(pat, normalized); err == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}
