// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package watch reports batches of changed source files under a directory
// tree, debounced so that an editor save or a branch switch produces one
// reparse instead of many.
//
//	docs/ARCHITECTURE § Watcher.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last event before a batch
// is delivered.
const DefaultDebounce = 200 * time.Millisecond

// ErrStarted is returned by Start on a watcher that was already started.
var ErrStarted = errors.New("watcher already started")

// Config controls what is watched.
type Config struct {
	Root     string
	Debounce time.Duration
	// Tracks reports whether a changed file is of interest. Nil tracks all.
	Tracks func(abs string) bool
	// SkipDir reports whether a directory is left unwatched. Nil skips none.
	SkipDir func(abs string) bool
	Logger  *slog.Logger
}

// Stats counts delivered work.
type Stats struct {
	Batches int64
	Events  int64
	Errors  int64
}

// Watcher delivers debounced batches of changed paths to a callback. The
// callback runs on the watcher's goroutine, one batch at a time.
type Watcher struct {
	cfg      Config
	watcher  *fsnotify.Watcher
	onChange func(paths []string)
	log      *slog.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started atomic.Bool

	batches atomic.Int64
	events  atomic.Int64
	errors  atomic.Int64
}

// New creates a watcher for cfg.Root. Nothing is watched until Start.
func New(cfg Config, onChange func(paths []string)) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Tracks == nil {
		cfg.Tracks = func(string) bool { return true }
	}
	if cfg.SkipDir == nil {
		cfg.SkipDir = func(string) bool { return false }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", cfg.Root, err)
	}
	cfg.Root = root

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		cfg:      cfg,
		watcher:  fsw,
		onChange: onChange,
		log:      cfg.Logger.With("component", "watch"),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start adds watches for every directory under the root and begins
// delivering batches.
func (w *Watcher) Start() error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrStarted
	}
	if err := w.addWatches(w.cfg.Root); err != nil {
		return fmt.Errorf("adding watches under %s: %w", w.cfg.Root, err)
	}
	w.wg.Add(1)
	go w.loop()
	w.log.Debug("watcher started", "root", w.cfg.Root, "watches", len(w.watcher.WatchList()))
	return nil
}

// Stop ends watching and waits for the delivery goroutine. Events pending
// in the debounce window are dropped.
func (w *Watcher) Stop() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	if err != nil {
		return fmt.Errorf("closing fsnotify watcher: %w", err)
	}
	return nil
}

// Stats returns the counters accumulated so far.
func (w *Watcher) Stats() Stats {
	return Stats{
		Batches: w.batches.Load(),
		Events:  w.events.Load(),
		Errors:  w.errors.Load(),
	}
}

// addWatches watches root and its subdirectories. Symlinked directories are
// resolved so a cycle is watched only once.
func (w *Watcher) addWatches(root string) error {
	visited := make(map[string]bool)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries we cannot read.
		}
		if !d.IsDir() {
			return nil
		}
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			return filepath.SkipDir
		}
		if visited[resolved] {
			return filepath.SkipDir
		}
		visited[resolved] = true

		if path != root && w.cfg.SkipDir(path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.log.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.cfg.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if w.handle(ev, pending) {
				timer.Reset(w.cfg.Debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.errors.Add(1)
			w.log.Warn("watcher error", "error", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)

			w.batches.Add(1)
			w.log.Debug("delivering change batch", "files", len(paths))
			if w.onChange != nil {
				w.onChange(paths)
			}
		}
	}
}

// handle records ev in pending and reports whether it counts as a change.
func (w *Watcher) handle(ev fsnotify.Event, pending map[string]struct{}) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			return w.handleNewDir(ev.Name, pending)
		}
	}
	if !w.cfg.Tracks(ev.Name) {
		return false
	}
	w.events.Add(1)
	pending[ev.Name] = struct{}{}
	return true
}

// handleNewDir watches a directory created after Start. Files written into it
// before its watch was added are picked up by scanning it once.
func (w *Watcher) handleNewDir(dir string, pending map[string]struct{}) bool {
	if w.cfg.SkipDir(dir) {
		return false
	}
	if err := w.addWatches(dir); err != nil {
		w.log.Warn("failed to watch new directory", "path", dir, "error", err)
		return false
	}
	changed := false
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && w.cfg.SkipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.cfg.Tracks(path) {
			w.events.Add(1)
			pending[path] = struct{}{}
			changed = true
		}
		return nil
	})
	return changed
}
