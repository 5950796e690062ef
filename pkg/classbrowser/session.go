// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package classbrowser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/petar-djukic/go-classbrowser/internal/browser"
	"github.com/petar-djukic/go-classbrowser/internal/cppparse"
	"github.com/petar-djukic/go-classbrowser/internal/project"
	"github.com/petar-djukic/go-classbrowser/internal/symtab"
	"github.com/petar-djukic/go-classbrowser/internal/watch"
)

// Session ties a symbol table, its parser and one browser model together.
type Session struct {
	cfg        Config
	log        *slog.Logger
	table      *symtab.Table
	parser     *cppparse.Parser
	model      *browser.Model
	membership project.Membership

	parseMu sync.Mutex // one parse pass at a time
}

// New validates the config and wires the components. It does not parse;
// call Parse before Open.
func New(cfg Config) (*Session, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	applyDefaults(&cfg)

	membership := project.Detect(cfg.Root, cfg.NoGit)
	if repo, ok := membership.(*project.Repo); ok {
		cfg.Logger.Debug("using git index for project membership", "tracked", repo.TrackedCount())
	}

	table := symtab.New()
	parser, err := cppparse.New(table, cppparse.Config{
		Root:              cfg.Root,
		Sources:           cfg.Sources,
		Exclude:           cfg.Exclude,
		IncludeDirs:       cfg.IncludeDirs,
		SystemIncludeDirs: cfg.SystemIncludeDirs,
		Jobs:              cfg.Jobs,
		Membership:        membership,
		Logger:            cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	model := browser.NewModel(
		browser.WithLogger(cfg.Logger),
		browser.WithShowInheritedMembers(cfg.ShowInherited),
	)
	model.SetParser(table)

	return &Session{
		cfg:        cfg,
		log:        cfg.Logger,
		table:      table,
		parser:     parser,
		model:      model,
		membership: membership,
	}, nil
}

// Parse runs a full parse pass. The browser model rebuilds when it ends.
func (s *Session) Parse(ctx context.Context) (ParseStats, error) {
	s.parseMu.Lock()
	defer s.parseMu.Unlock()

	if repo, ok := s.membership.(*project.Repo); ok {
		if err := repo.Reload(); err != nil {
			s.log.Warn("reloading git index", "error", err)
		}
	}

	st, err := s.parser.Parse(ctx)
	if err != nil {
		return ParseStats{}, fmt.Errorf("parsing %s: %w", s.cfg.Root, err)
	}
	return ParseStats{
		Files:      st.Files,
		Statements: st.Statements,
		Parsed:     st.ParseCount,
		CacheHits:  st.CacheHits,
		Skipped:    st.FilesSkipped,
		Elapsed:    st.Elapsed,
	}, nil
}

// Open scopes the browser to file, given relative to the root or absolute.
func (s *Session) Open(file string) error {
	key, err := s.key(file)
	if err != nil {
		return err
	}
	if s.table.FindFileIncludes(key) == nil {
		return fmt.Errorf("%w: %s", ErrUnknownFile, file)
	}
	s.model.SetCurrentFile(key)
	return nil
}

func (s *Session) key(file string) (string, error) {
	if !filepath.IsAbs(file) {
		return filepath.ToSlash(filepath.Clean(file)), nil
	}
	if rel, ok := s.parser.Rel(file); ok {
		return rel, nil
	}
	// Files outside the root are keyed by absolute path.
	if s.table.FindFileIncludes(filepath.Clean(file)) != nil {
		return filepath.Clean(file), nil
	}
	return "", fmt.Errorf("%w: %s is outside %s", ErrUnknownFile, file, s.cfg.Root)
}

// Snapshot materializes the tree of the open file down to depth levels
// (0 means no limit).
func (s *Session) Snapshot(depth int) *browser.Snapshot {
	return browser.Expand(s.model, depth)
}

// Model returns the browser model.
func (s *Session) Model() *browser.Model { return s.model }

// Table returns the symbol table.
func (s *Session) Table() *symtab.Table { return s.table }

// Watch reparses whenever sources under the root change, until ctx is done.
func (s *Session) Watch(ctx context.Context) error {
	w, err := watch.New(watch.Config{
		Root:     s.parser.Root(),
		Debounce: s.cfg.Debounce,
		Tracks:   s.parser.Tracks,
		SkipDir:  s.parser.SkipDir,
		Logger:   s.log,
	}, func(paths []string) {
		s.log.Info("sources changed", "files", len(paths))
		if _, err := s.Parse(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("reparse failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	return w.Stop()
}

// Close detaches the browser model from the symbol table.
func (s *Session) Close() {
	s.model.Close()
}

// validateConfig checks that required fields are present.
func validateConfig(cfg Config) error {
	if cfg.Root == "" {
		return fmt.Errorf("Root is required")
	}
	if info, err := os.Stat(cfg.Root); err != nil || !info.IsDir() {
		return fmt.Errorf("Root %q does not exist or is not a directory", cfg.Root)
	}
	if cfg.Jobs < 0 {
		return fmt.Errorf("Jobs must not be negative")
	}
	if cfg.Debounce < 0 {
		return fmt.Errorf("Debounce must not be negative")
	}
	return nil
}

// applyDefaults fills in zero-value fields with their defaults.
func applyDefaults(cfg *Config) {
	if cfg.Debounce == 0 {
		cfg.Debounce = watch.DefaultDebounce
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
}
