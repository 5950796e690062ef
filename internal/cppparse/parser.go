// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package cppparse fills the symbol table from C/C++ sources using
// tree-sitter. A parse pass discovers sources, extracts declarations in
// parallel, follows includes, links everything into a new generation and
// publishes it.
//
//	docs/ARCHITECTURE § Parser.
package cppparse

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/petar-djukic/go-classbrowser/internal/project"
	"github.com/petar-djukic/go-classbrowser/internal/symtab"
)

// DefaultSources matches C and C++ sources and headers.
const DefaultSources = "**/*.{c,cc,cpp,cxx,h,hh,hpp,hxx}"

// ErrDisabled is returned by Parse when the table's parser is disabled.
var ErrDisabled = errors.New("parser disabled")

// skipDirs are never descended during discovery.
var skipDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"build":        true,
}

// Config controls discovery and include resolution.
type Config struct {
	Root              string
	Sources           []string // doublestar patterns relative to Root
	Exclude           []string
	IncludeDirs       []string // relative entries resolve against Root
	SystemIncludeDirs []string
	Jobs              int
	Membership        project.Membership
	Logger            *slog.Logger
}

// Stats describes one parse pass.
type Stats struct {
	ExtractStats
	Files      int
	Statements int
	Elapsed    time.Duration
}

// Parser runs parse passes into a symbol table.
type Parser struct {
	cfg       Config
	table     *symtab.Table
	extractor *Extractor
	resolver  *resolver
	log       *slog.Logger
}

// New creates a parser writing into table. Zero Config fields get defaults.
func New(table *symtab.Table, cfg Config) (*Parser, error) {
	if cfg.Root == "" {
		cfg.Root = "."
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %s: %w", cfg.Root, err)
	}
	cfg.Root = root
	if len(cfg.Sources) == 0 {
		cfg.Sources = []string{DefaultSources}
	}
	for _, p := range append(append([]string{}, cfg.Sources...), cfg.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pattern %q: %w", p, doublestar.ErrBadPattern)
		}
	}
	if cfg.Jobs <= 0 {
		cfg.Jobs = runtime.NumCPU()
	}
	if cfg.Membership == nil {
		cfg.Membership = project.All{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Parser{
		cfg:       cfg,
		table:     table,
		extractor: NewExtractor(),
		resolver:  newResolver(root, cfg.IncludeDirs, cfg.SystemIncludeDirs),
		log:       cfg.Logger.With("component", "cppparse"),
	}, nil
}

// Root returns the absolute project root.
func (p *Parser) Root() string { return p.cfg.Root }

// Matches reports whether rel, a slash path relative to the root, is a
// source file the parser would pick up.
func (p *Parser) Matches(rel string) bool {
	if p.excluded(rel) {
		return false
	}
	for _, pat := range p.cfg.Sources {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

// Tracks reports whether the file at abs is a source under the root.
func (p *Parser) Tracks(abs string) bool {
	rel, ok := p.Rel(abs)
	return ok && p.Matches(rel)
}

// Rel converts an absolute path to a root-relative slash path. It returns
// false for paths outside the root.
func (p *Parser) Rel(abs string) (string, bool) {
	rel, err := filepath.Rel(p.cfg.Root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// SkipDir reports whether the directory at abs is left out of discovery.
func (p *Parser) SkipDir(abs string) bool {
	rel, ok := p.Rel(abs)
	if !ok {
		return true
	}
	if rel == "." {
		return false
	}
	return skipDirs[filepath.Base(abs)] || p.excluded(rel)
}

func (p *Parser) excluded(rel string) bool {
	for _, pat := range p.cfg.Exclude {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

// Parse runs one full pass: discover, extract, link, publish, and notify
// subscribers. The table reports Parsing for the duration of the pass.
// Unchanged files are served from the extraction cache.
func (p *Parser) Parse(ctx context.Context) (Stats, error) {
	if !p.table.Enabled() {
		return Stats{}, ErrDisabled
	}
	start := time.Now()
	p.table.SetParsing(true)
	p.extractor.ResetStats()

	gen, files, err := p.build(ctx)
	if err != nil {
		p.table.SetParsing(false)
		return Stats{}, err
	}
	p.table.Publish(gen)
	p.table.SetParsing(false)

	stats := Stats{
		ExtractStats: p.extractor.Stats(),
		Files:        files,
		Statements:   gen.Len(),
		Elapsed:      time.Since(start),
	}
	p.log.Info("parse complete",
		"files", stats.Files,
		"statements", stats.Statements,
		"parsed", stats.ParseCount,
		"cache_hits", stats.CacheHits,
		"skipped", stats.FilesSkipped,
		"elapsed", stats.Elapsed)

	p.table.NotifyEndParsing()
	return stats, nil
}

func (p *Parser) build(ctx context.Context) (*symtab.Generation, int, error) {
	queue, err := p.discover(ctx)
	if err != nil {
		return nil, 0, err
	}
	p.log.Debug("discovered sources", "count", len(queue))

	symbols := make(map[string]*FileSymbols)
	direct := make(map[string][]string)
	system := make(map[string]bool)
	queued := make(map[string]bool, len(queue))
	for _, key := range queue {
		queued[key] = true
	}

	// Headers reached only through includes are extracted in later rounds.
	for len(queue) > 0 {
		results, err := p.extractAll(ctx, queue)
		if err != nil {
			return nil, 0, err
		}

		var next []string
		for i, key := range queue {
			syms := results[i]
			if syms == nil {
				continue
			}
			symbols[key] = syms
			for _, inc := range syms.Includes {
				dep, sys, ok := p.resolver.resolve(key, inc)
				if !ok {
					p.log.Debug("unresolved include", "file", key, "include", inc.Path, "line", inc.Line)
					continue
				}
				if !slices.Contains(direct[key], dep) {
					direct[key] = append(direct[key], dep)
				}
				if sys {
					system[dep] = true
				}
				if !queued[dep] {
					queued[dep] = true
					next = append(next, dep)
				}
			}
		}
		queue = next
	}
	p.extractor.Prune(symbols)

	gen := symtab.NewGeneration()
	newLinker(gen, p.cfg.Membership, system).link(symbols, direct)
	return gen, len(symbols), nil
}

// extractAll extracts keys in parallel, bounded by Jobs. Files that cannot
// be read or parsed leave a nil slot.
func (p *Parser) extractAll(ctx context.Context, keys []string) ([]*FileSymbols, error) {
	results := make([]*FileSymbols, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Jobs)
	for i, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			syms, err := p.extractor.ExtractFile(gctx, p.resolver.abs(key), key)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				p.log.Warn("skipping file", "path", key, "error", err)
				return nil
			}
			results[i] = syms
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extracting sources: %w", err)
	}
	return results, nil
}

// discover walks the root for files matching Sources and not Exclude.
func (p *Parser) discover(ctx context.Context) ([]string, error) {
	var files []string
	err := filepath.WalkDir(p.cfg.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries we cannot read.
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, ok := p.Rel(path)
		if !ok || rel == "." {
			return nil
		}
		if d.IsDir() {
			if p.SkipDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && p.Matches(rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", p.cfg.Root, err)
	}
	return files, nil
}
