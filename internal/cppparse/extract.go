// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package cppparse

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"

	"github.com/petar-djukic/go-classbrowser/pkg/types"
)

const includePattern = `(preproc_include path: (_) @path)`

var includeQuery = sync.OnceValues(func() (*sitter.Query, error) {
	return sitter.NewQuery([]byte(includePattern), cpp.GetLanguage())
})

// cacheEntry stores extraction results keyed by file path and content hash.
type cacheEntry struct {
	hash    uint64
	symbols *FileSymbols
}

// Extractor extracts declarations from C/C++ files using tree-sitter. Files
// whose contents hash the same as on the previous pass are not re-parsed.
type Extractor struct {
	mu    sync.Mutex
	cache map[string]cacheEntry
	stats ExtractStats
}

// ExtractStats tracks extraction statistics.
type ExtractStats struct {
	FilesProcessed int
	FilesSkipped   int
	CacheHits      int
	ParseCount     int
}

// NewExtractor creates an extractor with an empty cache.
func NewExtractor() *Extractor {
	return &Extractor{cache: make(map[string]cacheEntry)}
}

// ExtractFile reads absPath and extracts it under key.
func (e *Extractor) ExtractFile(ctx context.Context, absPath, key string) (*FileSymbols, error) {
	content, err := os.ReadFile(absPath)
	if err != nil {
		e.skipped()
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return e.Extract(ctx, key, content)
}

// Extract parses content, or returns the cached result when the content is
// unchanged since the last call for key.
func (e *Extractor) Extract(ctx context.Context, key string, content []byte) (*FileSymbols, error) {
	sum := xxhash.Sum64(content)

	e.mu.Lock()
	if cached, ok := e.cache[key]; ok && cached.hash == sum {
		e.stats.CacheHits++
		e.stats.FilesProcessed++
		e.mu.Unlock()
		return cached.symbols, nil
	}
	e.mu.Unlock()

	fs, err := parseFile(ctx, key, content)
	if err != nil {
		e.skipped()
		return nil, err
	}

	e.mu.Lock()
	e.stats.ParseCount++
	e.stats.FilesProcessed++
	e.cache[key] = cacheEntry{hash: sum, symbols: fs}
	e.mu.Unlock()

	return fs, nil
}

// Stats returns the statistics accumulated since the last ResetStats.
func (e *Extractor) Stats() ExtractStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// ResetStats zeroes the statistics.
func (e *Extractor) ResetStats() {
	e.mu.Lock()
	e.stats = ExtractStats{}
	e.mu.Unlock()
}

// Prune drops cache entries for files not in keep.
func (e *Extractor) Prune(keep map[string]*FileSymbols) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key := range e.cache {
		if _, ok := keep[key]; !ok {
			delete(e.cache, key)
		}
	}
}

func (e *Extractor) skipped() {
	e.mu.Lock()
	e.stats.FilesSkipped++
	e.mu.Unlock()
}

func parseFile(ctx context.Context, key string, content []byte) (*FileSymbols, error) {
	root, err := sitter.ParseCtx(ctx, content, cpp.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", key, err)
	}
	if root == nil {
		return nil, fmt.Errorf("parsing %s: empty tree", key)
	}

	w := &walker{src: content}
	return &FileSymbols{
		Path:     key,
		Includes: extractIncludes(root, content),
		Decls:    w.scope(root, types.AccessNone, ""),
	}, nil
}

// extractIncludes runs the include query. Computed includes
// (#include MACRO) are ignored.
func extractIncludes(root *sitter.Node, content []byte) []Include {
	q, err := includeQuery()
	if err != nil {
		return nil
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	var out []Include
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			raw := strings.TrimSpace(c.Node.Content(content))
			inc := Include{Line: int(c.Node.StartPoint().Row) + 1}
			switch {
			case strings.HasPrefix(raw, "<"):
				inc.System = true
				inc.Path = strings.Trim(raw, "<>")
			case strings.HasPrefix(raw, `"`):
				inc.Path = strings.Trim(raw, `"`)
			default:
				continue
			}
			if inc.Path != "" {
				out = append(out, inc)
			}
		}
	}
	return out
}
