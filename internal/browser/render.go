// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package browser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/petar-djukic/go-classbrowser/pkg/types"
)

const maxLineLength = 100

// Snapshot is a fully materialized copy of (part of) the browser tree.
type Snapshot struct {
	Name      string      `json:"name" yaml:"name"`
	FullName  string      `json:"full_name,omitempty" yaml:"full_name,omitempty"`
	Kind      string      `json:"kind,omitempty" yaml:"kind,omitempty"`
	Signature string      `json:"signature,omitempty" yaml:"signature,omitempty"`
	File      string      `json:"file,omitempty" yaml:"file,omitempty"`
	Line      int         `json:"line,omitempty" yaml:"line,omitempty"`
	Synthetic bool        `json:"synthetic,omitempty" yaml:"synthetic,omitempty"`
	Inherited bool        `json:"inherited,omitempty" yaml:"inherited,omitempty"`
	InProject bool        `json:"in_project,omitempty" yaml:"in_project,omitempty"`
	System    bool        `json:"system,omitempty" yaml:"system,omitempty"`
	Children  []*Snapshot `json:"children,omitempty" yaml:"children,omitempty"`
}

// Count returns the number of symbols below s.
func (s *Snapshot) Count() int {
	n := 0
	for _, c := range s.Children {
		n += 1 + c.Count()
	}
	return n
}

// Expand materializes the tree through FetchMore down to depth levels below
// the root (0 means no limit) and returns a snapshot of it. A statement that
// already appears on the path from the root is not expanded again.
func Expand(m *Model, depth int) *Snapshot {
	root := &Snapshot{Name: m.CurrentFile()}
	onPath := make(map[*types.Statement]bool)
	root.Children = expandChildren(m, m.Root(), 1, depth, onPath)
	return root
}

func expandChildren(m *Model, node *Node, level, depth int, onPath map[*types.Statement]bool) []*Snapshot {
	var out []*Snapshot
	for _, child := range node.Children() {
		s := child.Statement()
		snap := snapshotOf(m, s)
		if (depth == 0 || level < depth) && !onPath[s] {
			if m.CanFetchMore(child) {
				m.FetchMore(child)
			}
			onPath[s] = true
			snap.Children = expandChildren(m, child, level+1, depth, onPath)
			delete(onPath, s)
		}
		out = append(out, snap)
	}
	return out
}

func snapshotOf(m *Model, s *types.Statement) *Snapshot {
	snap := &Snapshot{
		Name:      s.Command,
		FullName:  s.FullName,
		Kind:      s.Kind.String(),
		Signature: Signature(s),
		File:      s.FileName,
		Line:      s.Line,
		Synthetic: m.IsDummy(s),
		Inherited: s.IsInherited,
		InProject: s.InProject,
		System:    s.InSystemHeader,
	}
	if s.DefinitionFileName != "" && s.DefinitionFileName != s.FileName {
		snap.File = s.DefinitionFileName
		snap.Line = s.DefinitionLine
	}
	return snap
}

// Signature renders the one-line form of a statement.
func Signature(s *types.Statement) string {
	switch {
	case s.Kind.IsFunction():
		sig := s.Command + s.Args
		if s.Type != "" {
			sig += " : " + s.Type
		}
		return sig
	case s.Kind == types.KindVariable && s.Type != "":
		return s.Command + " : " + s.Type
	case s.Kind == types.KindNamespace, s.Kind == types.KindClass,
		s.Kind == types.KindEnumType, s.Kind == types.KindEnumClassType:
		return s.Kind.String() + " " + s.Command
	case s.Kind == types.KindPreprocessor:
		return "#define " + s.Command
	default:
		return s.Command
	}
}

// RenderText produces an indented outline of the snapshot with a header
// naming the file and the number of symbols shown.
func RenderText(root *Snapshot) string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "%s (%d symbols)\n", root.Name, root.Count())
	renderLevel(&buf, root.Children, 1)
	return buf.String()
}

func renderLevel(buf *strings.Builder, nodes []*Snapshot, level int) {
	for _, n := range nodes {
		line := strings.Repeat("  ", level) + n.Signature
		if n.Signature == "" {
			line = strings.Repeat("  ", level) + n.Name
		}
		if n.Inherited {
			line += " [inherited]"
		}
		if n.System {
			line += " [system]"
		}
		if utf8.RuneCountInString(line) > maxLineLength {
			line = string([]rune(line)[:maxLineLength-3]) + "..."
		}
		buf.WriteString(line + "\n")
		renderLevel(buf, n.Children, level+1)
	}
}
