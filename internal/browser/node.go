// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package browser

import (
	"github.com/petar-djukic/go-classbrowser/pkg/types"
)

// Node is one row of the browser tree. It wraps at most one statement; only
// the root wraps none. A node owns its children.
type Node struct {
	parent   *Node
	children []*Node
	stmt     *types.Statement
	fetched  bool
}

// Statement returns the wrapped statement, nil for the root.
func (n *Node) Statement() *types.Statement {
	if n == nil {
		return nil
	}
	return n.stmt
}

// Fetched reports whether the node's children have been materialized.
func (n *Node) Fetched() bool {
	return n != nil && n.fetched
}

// ChildCount returns the number of materialized children.
func (n *Node) ChildCount() int {
	if n == nil {
		return 0
	}
	return len(n.children)
}

// Child returns the child at row, or nil when out of range.
func (n *Node) Child(row int) *Node {
	if n == nil || row < 0 || row >= len(n.children) {
		return nil
	}
	return n.children[row]
}

// Children returns the materialized children. The slice must not be modified.
func (n *Node) Children() []*Node {
	if n == nil {
		return nil
	}
	return n.children
}

// row returns the index of n within its parent, or -1.
func (n *Node) row() int {
	if n == nil || n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

func newRoot() *Node {
	return &Node{fetched: true}
}
