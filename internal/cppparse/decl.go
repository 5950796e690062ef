// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package cppparse

import (
	"github.com/petar-djukic/go-classbrowser/pkg/types"
)

// Decl is one declaration as written in a single file, before linking.
// Decls are cached across parse passes and never modified after extraction.
type Decl struct {
	Name      string
	Qualifier string // scope written in the name: "C" for C::m, "" otherwise
	Kind      types.StatementKind
	Type      string
	Args      string
	Signature string // parameter types only, for telling overloads apart
	Value     string
	Access    types.AccessScope
	Static    bool
	Body      bool // definition with a body
	Line      int  // 1-based
	Bases     []string
	Children  []*Decl
}

// Include is one #include directive.
type Include struct {
	Path   string // as written, without quotes or brackets
	System bool   // <...> form
	Line   int
}

// FileSymbols is the extraction result for one file.
type FileSymbols struct {
	Path     string // root-relative slash path, absolute outside the root
	Includes []Include
	Decls    []*Decl
}

// Count returns the number of declarations, nested ones included.
func (fs *FileSymbols) Count() int {
	return countDecls(fs.Decls)
}

func countDecls(decls []*Decl) int {
	n := 0
	for _, d := range decls {
		n += 1 + countDecls(d.Children)
	}
	return n
}
