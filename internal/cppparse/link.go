// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package cppparse

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/petar-djukic/go-classbrowser/internal/project"
	"github.com/petar-djukic/go-classbrowser/internal/symtab"
	"github.com/petar-djukic/go-classbrowser/pkg/types"
)

// pendingDecl is a qualified declaration (C::m) waiting for its owner.
type pendingDecl struct {
	file   string
	decl   *Decl
	parent *types.Statement // lexical scope the declaration was written in
}

// linker turns per-file Decls into one Generation.
type linker struct {
	gen       *symtab.Generation
	member    project.Membership
	system    map[string]bool
	fragments map[string]*types.Statement   // "file#ns::name" to the file's fragment
	topFrags  map[string][]*types.Statement // top-level fragments per file
	defined   map[types.StatementID]bool
	overloads map[string][]*types.Statement // functions per full name
	sigs      map[types.StatementID]string
	classes   []*types.Statement
	pending   []pendingDecl
}

func newLinker(gen *symtab.Generation, member project.Membership, system map[string]bool) *linker {
	return &linker{
		gen:       gen,
		member:    member,
		system:    system,
		fragments: make(map[string]*types.Statement),
		topFrags:  make(map[string][]*types.Statement),
		defined:   make(map[types.StatementID]bool),
		overloads: make(map[string][]*types.Statement),
		sigs:      make(map[types.StatementID]string),
	}
}

// link builds the generation from symbols. direct holds the resolved direct
// includes of each file.
func (l *linker) link(symbols map[string]*FileSymbols, direct map[string][]string) {
	files := linkOrder(symbols)
	for _, file := range files {
		fi := l.gen.FileIncludes(file)
		fi.DirectIncludes = direct[file]
		for _, d := range symbols[file].Decls {
			l.add(file, d, nil)
		}
	}
	l.resolvePending()
	l.inherit()

	for _, file := range files {
		fi := l.gen.FileIncludes(file)
		fi.IncludeFiles = closure(file, direct)
		for _, inc := range fi.IncludeFiles {
			if l.system[inc] {
				continue
			}
			for _, frag := range l.topFrags[inc] {
				fi.Statements.Insert(inc+"#"+frag.FullName, frag)
			}
		}
	}
}

// linkOrder puts headers before sources so prototypes are seen before
// their definitions.
func linkOrder(symbols map[string]*FileSymbols) []string {
	files := make([]string, 0, len(symbols))
	for f := range symbols {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		hi, hj := isHeader(files[i]), isHeader(files[j])
		if hi != hj {
			return hi
		}
		return files[i] < files[j]
	})
	return files
}

func isHeader(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".h", ".hh", ".hpp", ".hxx", ".inl":
		return true
	}
	return false
}

func (l *linker) add(file string, d *Decl, parent *types.Statement) {
	if d.Qualifier != "" {
		l.pending = append(l.pending, pendingDecl{file: file, decl: d, parent: parent})
		return
	}
	l.place(file, d, parent, qualify(parent, d.Name))
}

func (l *linker) place(file string, d *Decl, parent *types.Statement, full string) {
	if d.Kind == types.KindNamespace {
		l.placeNamespace(file, d, parent, full)
		return
	}
	if existing := l.lookup(full, d); existing != nil && l.mergeable(existing, d, file) {
		l.mergeInto(existing, d, file)
		return
	}

	s := l.statement(file, d, parent, full)
	l.gen.Add(s, parent)
	if d.Body {
		l.defined[s.ID] = true
	}
	if s.Kind == types.KindClass {
		l.classes = append(l.classes, s)
	}
	if s.Kind.IsFunction() {
		l.overloads[full] = append(l.overloads[full], s)
		l.sigs[s.ID] = d.Signature
	}
	l.gen.FileIncludes(file).Statements.Insert(full, s)

	for _, c := range d.Children {
		l.add(file, c, s)
	}
}

// placeNamespace reuses the file's fragment for a namespace reopened in the
// same file.
func (l *linker) placeNamespace(file string, d *Decl, parent *types.Statement, full string) {
	key := file + "#" + full
	frag, ok := l.fragments[key]
	if !ok {
		frag = l.statement(file, d, parent, full)
		l.gen.Add(frag, parent)
		l.fragments[key] = frag
		if parent == nil {
			l.topFrags[file] = append(l.topFrags[file], frag)
		}
		l.gen.FileIncludes(file).Statements.Insert(full, frag)
	}
	for _, c := range d.Children {
		l.add(file, c, frag)
	}
}

func (l *linker) statement(file string, d *Decl, parent *types.Statement, full string) *types.Statement {
	scope := types.ScopeGlobal
	if parent != nil && !parent.Kind.IsNamespace() {
		scope = types.ScopeClass
	}
	s := &types.Statement{
		Command:        d.Name,
		FullName:       full,
		Type:           d.Type,
		Args:           d.Args,
		Value:          d.Value,
		Kind:           d.Kind,
		Scope:          scope,
		ClassScope:     d.Access,
		FileName:       file,
		Line:           d.Line,
		IsStatic:       d.Static,
		InSystemHeader: l.system[file],
		Bases:          d.Bases,
	}
	s.InProject = !s.InSystemHeader && !filepath.IsAbs(file) && l.member.InProject(file)
	if d.Body {
		s.DefinitionFileName, s.DefinitionLine = file, d.Line
	}
	return s
}

// lookup finds the statement d would redeclare. Functions only match an
// overload with the same parameter types.
func (l *linker) lookup(full string, d *Decl) *types.Statement {
	if !d.Kind.IsFunction() {
		return l.gen.Lookup(full)
	}
	for _, s := range l.overloads[full] {
		if l.sigs[s.ID] == d.Signature {
			return s
		}
	}
	return nil
}

// mergeable reports whether d is another declaration of s: a prototype and
// its definition, a redeclaration, or an out-of-line static member
// definition. Two bodies never merge, and file-static globals only merge
// within their own file.
func (l *linker) mergeable(s *types.Statement, d *Decl, file string) bool {
	switch {
	case s.Kind.IsFunction() && d.Kind.IsFunction():
	case s.Kind == types.KindVariable && d.Kind == types.KindVariable:
	default:
		return false
	}
	if d.Body && l.defined[s.ID] && s.Kind.IsFunction() {
		return false
	}
	if s.Scope == types.ScopeGlobal && (s.IsStatic || d.Static) && s.FileName != file {
		return false
	}
	return true
}

func (l *linker) mergeInto(s *types.Statement, d *Decl, file string) {
	switch {
	case d.Body && (!l.defined[s.ID] || d.Qualifier != ""):
		s.DefinitionFileName, s.DefinitionLine = file, d.Line
		l.defined[s.ID] = true
		if s.Value == "" {
			s.Value = d.Value
		}
	case !d.Body && s.FileName == s.DefinitionFileName && s.Line == s.DefinitionLine:
		// Definition seen first; the prototype becomes the declaration.
		s.FileName, s.Line = file, d.Line
	}
	l.gen.FileIncludes(file).Statements.Insert(s.FullName, s)
}

// resolvePending attaches qualified declarations to their owners. Owners
// may themselves be pending, so it repeats while progress is made; what
// remains unresolved is placed at the top level under its written name.
func (l *linker) resolvePending() {
	for len(l.pending) > 0 {
		work := l.pending
		l.pending = nil
		var unresolved []pendingDecl
		for _, p := range work {
			owner := l.resolveScope(p.decl.Qualifier, p.parent)
			if owner == nil {
				unresolved = append(unresolved, p)
				continue
			}
			l.place(p.file, p.decl, owner, owner.FullName+"::"+p.decl.Name)
		}
		if len(l.pending) > 0 || len(unresolved) < len(work) {
			l.pending = append(l.pending, unresolved...)
			continue
		}
		for _, p := range unresolved {
			l.place(p.file, p.decl, p.parent, qualify(p.parent, p.decl.Qualifier+"::"+p.decl.Name))
		}
	}
}

// resolveScope looks name up from the scope of ctx outward, then globally.
func (l *linker) resolveScope(name string, ctx *types.Statement) *types.Statement {
	name = strings.TrimPrefix(name, "::")
	prefix := ""
	if ctx != nil {
		prefix = ctx.FullName
	}
	for {
		cand := name
		if prefix != "" {
			cand = prefix + "::" + name
		}
		if s := l.gen.Lookup(cand); s != nil && s.Kind != types.KindNamespaceAlias {
			return s
		}
		if prefix == "" {
			return nil
		}
		prefix, _ = splitQualified(prefix)
	}
}

// inherit copies accessible base members into derived classes, flagged as
// inherited. Constructors and destructors are not inherited.
func (l *linker) inherit() {
	done := make(map[types.StatementID]bool)
	for _, c := range l.classes {
		l.inheritInto(c, done, make(map[types.StatementID]bool))
	}
}

func (l *linker) inheritInto(c *types.Statement, done, visiting map[types.StatementID]bool) {
	if done[c.ID] || visiting[c.ID] {
		return
	}
	visiting[c.ID] = true

	ctx := l.gen.Statement(c.Parent)
	for _, b := range c.Bases {
		base := l.resolveScope(b, ctx)
		if base == nil || base.Kind != types.KindClass || base.ID == c.ID {
			continue
		}
		l.inheritInto(base, done, visiting)

		var members []*types.Statement
		for _, m := range base.Children.All() {
			members = append(members, m)
		}
		for _, m := range members {
			if m.ClassScope == types.AccessPrivate || m.Kind == types.KindConstructor || m.Kind == types.KindDestructor {
				continue
			}
			if _, exists := c.Children.Get(m.Command); exists {
				continue
			}
			cp := *m
			cp.ID = 0
			cp.FullName = c.FullName + "::" + m.Command
			cp.IsInherited = true
			cp.Children = m.Children.Clone()
			l.gen.Add(&cp, c)
		}
	}
	done[c.ID] = true
}

func qualify(parent *types.Statement, name string) string {
	if parent == nil {
		return name
	}
	return parent.FullName + "::" + name
}
