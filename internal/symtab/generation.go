// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package symtab

import (
	"github.com/petar-djukic/go-classbrowser/pkg/types"
)

// Generation is one complete, immutable-once-published snapshot of the
// symbol table and its File-Include Index.
type Generation struct {
	byID      map[types.StatementID]*types.Statement
	byName    map[string]*types.Statement
	files     map[string]*types.FileIncludes
	fileOrder []string
}

// NewGeneration returns an empty generation.
func NewGeneration() *Generation {
	return &Generation{
		byID:   make(map[types.StatementID]*types.Statement),
		byName: make(map[string]*types.Statement),
		files:  make(map[string]*types.FileIncludes),
	}
}

// Add registers s, assigning a handle if it has none and linking it under
// parent's children. parent may be nil for top-level statements. The first
// statement added under a full name is the one FindByFullName returns.
func (g *Generation) Add(s *types.Statement, parent *types.Statement) {
	if s.ID == 0 {
		s.ID = NextID()
	}
	if s.Children == nil {
		s.Children = types.NewStatementMap()
	}
	if parent != nil {
		s.Parent = parent.ID
		if parent.Children == nil {
			parent.Children = types.NewStatementMap()
		}
		parent.Children.Insert(s.Command, s)
	}
	g.byID[s.ID] = s
	if _, ok := g.byName[s.FullName]; !ok {
		g.byName[s.FullName] = s
	}
}

// Statement resolves a handle within this generation.
func (g *Generation) Statement(id types.StatementID) *types.Statement {
	return g.byID[id]
}

// Lookup returns the first statement registered under fullName.
func (g *Generation) Lookup(fullName string) *types.Statement {
	return g.byName[fullName]
}

// FileIncludes returns the entry for path, creating it on first use.
func (g *Generation) FileIncludes(path string) *types.FileIncludes {
	fi, ok := g.files[path]
	if !ok {
		fi = &types.FileIncludes{
			FileName:   path,
			Statements: types.NewStatementMap(),
		}
		g.files[path] = fi
		g.fileOrder = append(g.fileOrder, path)
	}
	return fi
}

// Len returns the number of statements.
func (g *Generation) Len() int {
	return len(g.byID)
}
