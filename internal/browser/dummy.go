// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package browser

import (
	"github.com/petar-djukic/go-classbrowser/pkg/types"
)

// createDummy synthesizes a placeholder for s owned by the current rebuild
// cycle. It keeps s's descriptive fields, moves it into the current file at
// line zero, and registers it in the dummy cache under s's full name. The
// placeholder starts without children and has no table handle.
func (m *Model) createDummy(s *types.Statement) *types.Statement {
	d := &types.Statement{
		Parent:             s.Parent,
		Command:            s.Command,
		FullName:           s.FullName,
		Type:               s.Type,
		Args:               s.Args,
		Value:              s.Value,
		Kind:               s.Kind,
		Scope:              s.Scope,
		ClassScope:         s.ClassScope,
		FileName:           m.currentFile,
		DefinitionFileName: m.currentFile,
		IsInherited:        s.IsInherited,
		IsStatic:           s.IsStatic,
		InProject:          s.InProject,
		InSystemHeader:     s.InSystemHeader,
		Children:           types.NewStatementMap(),
	}
	m.dummies[d.FullName] = d
	return d
}

// promoteOrphan hosts s under a synthesized chain of its ancestors until an
// ancestor that lives in the current file, an existing dummy, or the top of
// the chain is reached. Only the top of a newly built chain is attached to
// node; deeper links hang off the dummies' children.
func (m *Model) promoteOrphan(node *Node, s, parent *types.Statement) {
	for {
		if parent.DeclaredOrDefinedIn(m.currentFile) {
			// The parent is in this file; s is reached through it.
			return
		}
		if dummy, ok := m.dummies[parent.FullName]; ok {
			dummy.Children.Insert(s.Command, s)
			return
		}
		dummy := m.createDummy(parent)
		dummy.Children.Insert(s.Command, s)

		s = dummy
		parent = m.resolveParent(s)
		if parent == nil {
			m.addChild(node, s)
			return
		}
	}
}

// mergeNamespace folds a namespace fragment into the one dummy kept per
// fully-qualified namespace name. Only the first fragment creates a node.
func (m *Model) mergeNamespace(node *Node, s *types.Statement) {
	if dummy, ok := m.dummies[s.FullName]; ok {
		m.mergeChildren(dummy, s.Children)
		return
	}
	dummy := m.createDummy(s)
	m.mergeChildren(dummy, s.Children)
	for _, frag := range m.fragments[s.FullName] {
		if frag != s {
			m.mergeChildren(dummy, frag.Children)
		}
	}
	m.addChild(node, dummy)
}

// mergeChildren inserts children into dummy, first writer wins. A nested
// namespace fragment that loses to another fragment of the same name is kept
// aside so its members join that namespace's dummy.
func (m *Model) mergeChildren(dummy *types.Statement, children *types.StatementMap) {
	for name, child := range children.All() {
		if dummy.Children.Insert(name, child) {
			continue
		}
		existing, _ := dummy.Children.Get(name)
		if existing == child || !child.Kind.IsNamespace() || !existing.Kind.IsNamespace() {
			continue
		}
		m.fragments[child.FullName] = append(m.fragments[child.FullName], child)
		if nested, ok := m.dummies[child.FullName]; ok {
			m.mergeChildren(nested, child.Children)
		}
	}
}
