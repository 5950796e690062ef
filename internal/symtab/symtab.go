// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package symtab holds the shared symbol table written by the parser and
// read by browsers under the freeze/unfreeze contract.
//
//	docs/ARCHITECTURE § Symbol Table.
package symtab

import (
	"sync"
	"sync/atomic"

	"github.com/petar-djukic/go-classbrowser/pkg/types"
)

var lastID atomic.Uint64

// NextID returns a fresh statement handle. Handles are never reused, so a
// handle from an older generation cannot resolve to an unrelated statement.
func NextID() types.StatementID {
	return types.StatementID(lastID.Add(1))
}

// Table is the shared symbol table. A parse pass builds a Generation off to
// the side and swaps it in with Publish; readers see one generation at a
// time and must hold a freeze while traversing it.
type Table struct {
	mu      sync.RWMutex // held for writing only while a generation is swapped
	gen     atomic.Pointer[Generation]
	parsing atomic.Bool
	enabled atomic.Bool

	subsMu  sync.Mutex
	subs    map[int]func()
	subIDs  []int
	nextSub int
}

// New creates an enabled table holding an empty generation.
func New() *Table {
	t := &Table{subs: make(map[int]func())}
	t.gen.Store(NewGeneration())
	t.enabled.Store(true)
	return t
}

// Freeze tries to obtain a read-consistent view without blocking. It returns
// false while a generation swap is in progress; callers should give up and
// retry on the next trigger. Every successful Freeze must be paired with
// Unfreeze.
func (t *Table) Freeze() bool {
	return t.mu.TryRLock()
}

// Unfreeze releases a freeze obtained with Freeze.
func (t *Table) Unfreeze() {
	t.mu.RUnlock()
}

// Publish replaces the current generation. It waits for outstanding freezes.
func (t *Table) Publish(g *Generation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen.Store(g)
}

// Parsing reports whether a parse pass is running.
func (t *Table) Parsing() bool { return t.parsing.Load() }

// SetParsing is called by the parser around each pass.
func (t *Table) SetParsing(v bool) { t.parsing.Store(v) }

// Enabled reports whether the parser is enabled.
func (t *Table) Enabled() bool { return t.enabled.Load() }

// SetEnabled turns the parser on or off.
func (t *Table) SetEnabled(v bool) { t.enabled.Store(v) }

// FindFileIncludes returns the File-Include Index entry for path, or nil.
func (t *Table) FindFileIncludes(path string) *types.FileIncludes {
	return t.gen.Load().files[path]
}

// FindStatement resolves a weak handle. Zero and stale handles yield nil.
func (t *Table) FindStatement(id types.StatementID) *types.Statement {
	if id == 0 {
		return nil
	}
	return t.gen.Load().byID[id]
}

// FindByFullName returns the first statement registered under fullName.
func (t *Table) FindByFullName(fullName string) *types.Statement {
	return t.gen.Load().byName[fullName]
}

// Files returns the indexed file paths in the order they were added.
func (t *Table) Files() []string {
	g := t.gen.Load()
	out := make([]string, len(g.fileOrder))
	copy(out, g.fileOrder)
	return out
}

// Len returns the number of statements in the current generation.
func (t *Table) Len() int {
	return len(t.gen.Load().byID)
}

// Subscribe registers fn to run after every completed parse pass and returns
// a function that removes the subscription.
func (t *Table) Subscribe(fn func()) (unsubscribe func()) {
	t.subsMu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = fn
	t.subIDs = append(t.subIDs, id)
	t.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.subsMu.Lock()
			defer t.subsMu.Unlock()
			delete(t.subs, id)
			for i, sid := range t.subIDs {
				if sid == id {
					t.subIDs = append(t.subIDs[:i], t.subIDs[i+1:]...)
					break
				}
			}
		})
	}
}

// NotifyEndParsing runs every subscriber, in subscription order, on the
// calling goroutine.
func (t *Table) NotifyEndParsing() {
	t.subsMu.Lock()
	fns := make([]func(), 0, len(t.subIDs))
	for _, id := range t.subIDs {
		fns = append(fns, t.subs[id])
	}
	t.subsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
