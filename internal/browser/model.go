// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package browser projects the shared symbol table into a lazily expanded
// tree scoped to one source file.
//
//	docs/ARCHITECTURE § Class Browser.
package browser

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/petar-djukic/go-classbrowser/pkg/types"
)

// Parser is the symbol-table collaborator a Model reads from.
type Parser interface {
	// Freeze tries to obtain a read-consistent view without blocking.
	Freeze() bool
	// Unfreeze releases a successful Freeze.
	Unfreeze()
	Parsing() bool
	Enabled() bool
	// FindFileIncludes returns the statements visible from path, or nil.
	FindFileIncludes(path string) *types.FileIncludes
	// FindStatement resolves a weak parent handle, or returns nil.
	FindStatement(id types.StatementID) *types.Statement
	// Subscribe registers fn to run after every parse pass.
	Subscribe(fn func()) (unsubscribe func())
}

// ResetObserver is told when the whole tree is about to be replaced and when
// the replacement is complete. Nodes obtained before BeginReset are invalid
// after EndReset.
type ResetObserver interface {
	BeginReset()
	EndReset()
}

// Role selects which piece of a node's data Data returns.
type Role int

const (
	DisplayRole Role = iota
	ToolTipRole
	DecorationRole
)

type updateState int32

const (
	stateIdle updateState = iota
	stateRebuilding
)

// Model is the class browser tree. Rebuilds are serialized internally; view
// queries and FetchMore are expected on the same goroutine that runs
// rebuilds (see SetDispatcher).
type Model struct {
	mu    sync.Mutex
	state atomic.Int32

	parser      Parser
	unsubscribe func()
	dispatch    func(func())
	observer    ResetObserver
	log         *slog.Logger

	root          *Node
	nodes         []*Node
	dummies       map[string]*types.Statement
	fragments     map[string][]*types.Statement // shadowed nested namespace fragments
	currentFile   string
	showInherited bool
}

// Option configures a Model.
type Option func(*Model)

// WithObserver sets the observer notified around every reset.
func WithObserver(o ResetObserver) Option {
	return func(m *Model) { m.observer = o }
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.log = l
		}
	}
}

// WithShowInheritedMembers sets the initial inherited-member toggle.
func WithShowInheritedMembers(v bool) Option {
	return func(m *Model) { m.showInherited = v }
}

// NewModel creates an empty model with no parser attached.
func NewModel(opts ...Option) *Model {
	m := &Model{
		root:      newRoot(),
		dummies:   make(map[string]*types.Statement),
		fragments: make(map[string][]*types.Statement),
		dispatch:  func(f func()) { f() },
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetDispatcher routes end-of-parse rebuilds through d, typically to hop onto
// the view's goroutine. The default runs them on the notifying goroutine.
func (m *Model) SetDispatcher(d func(func())) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d == nil {
		d = func(f func()) { f() }
	}
	m.dispatch = d
}

// SetParser attaches p, detaching any previous parser, and rebuilds right away
// unless p is in the middle of a pass.
func (m *Model) SetParser(p Parser) {
	m.mu.Lock()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.parser = p
	if p != nil {
		m.unsubscribe = p.Subscribe(m.onEndParsing)
	}
	m.mu.Unlock()

	if p != nil && !p.Parsing() {
		m.FillStatements()
	}
}

// Close detaches the parser.
func (m *Model) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.parser = nil
}

func (m *Model) onEndParsing() {
	m.mu.Lock()
	dispatch := m.dispatch
	m.mu.Unlock()
	dispatch(m.FillStatements)
}

// CurrentFile returns the file the tree is scoped to.
func (m *Model) CurrentFile() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentFile
}

// SetCurrentFile scopes the tree to path and rebuilds.
func (m *Model) SetCurrentFile(path string) {
	m.mu.Lock()
	m.currentFile = path
	m.mu.Unlock()
	m.FillStatements()
}

// ShowInheritedMembers reports whether inherited members are listed.
func (m *Model) ShowInheritedMembers() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.showInherited
}

// SetShowInheritedMembers toggles inherited members and rebuilds.
func (m *Model) SetShowInheritedMembers(v bool) {
	m.mu.Lock()
	m.showInherited = v
	m.mu.Unlock()
	m.FillStatements()
}

// Updating reports whether a rebuild is in flight.
func (m *Model) Updating() bool {
	return updateState(m.state.Load()) == stateRebuilding
}

// Refresh rebuilds the tree from the current symbol table.
func (m *Model) Refresh() {
	m.FillStatements()
}

// FillStatements discards the tree and rebuilds its top level from the
// statements visible in the current file. A call arriving while another
// rebuild is in flight is dropped. When the parser is missing, disabled, or
// refuses the freeze, the tree is left empty.
func (m *Model) FillStatements() {
	if !m.state.CompareAndSwap(int32(stateIdle), int32(stateRebuilding)) {
		m.log.Debug("class browser rebuild dropped, another is in flight")
		return
	}
	defer m.endReset()
	defer m.state.Store(int32(stateIdle))
	m.beginReset()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
	m.rebuildLocked()
}

func (m *Model) rebuildLocked() {
	p := m.parser
	if p == nil || !p.Enabled() {
		return
	}
	if !p.Freeze() {
		m.log.Debug("symbol table busy, class browser left empty", "file", m.currentFile)
		return
	}
	defer p.Unfreeze()

	if m.currentFile == "" {
		return
	}
	fi := p.FindFileIncludes(m.currentFile)
	if fi == nil {
		return
	}
	m.filterChildren(m.root, fi.Statements)
	m.log.Debug("class browser rebuilt", "file", m.currentFile, "nodes", len(m.nodes), "dummies", len(m.dummies))
}

// Clear removes every node except the root and empties the dummy cache.
func (m *Model) Clear() {
	m.beginReset()
	defer m.endReset()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearLocked()
}

func (m *Model) clearLocked() {
	m.root.children = nil
	m.nodes = nil
	clear(m.dummies)
	clear(m.fragments)
}

func (m *Model) beginReset() {
	if m.observer != nil {
		m.observer.BeginReset()
	}
}

func (m *Model) endReset() {
	if m.observer != nil {
		m.observer.EndReset()
	}
}

// addChild appends a new unfetched node wrapping s under node.
func (m *Model) addChild(node *Node, s *types.Statement) {
	n := &Node{parent: node, stmt: s}
	node.children = append(node.children, n)
	m.nodes = append(m.nodes, n)
}

// resolveParent follows s's weak parent handle through the symbol table.
func (m *Model) resolveParent(s *types.Statement) *types.Statement {
	if m.parser == nil {
		return nil
	}
	return m.parser.FindStatement(s.Parent)
}

// filterChildren projects statements under node in mapping order.
func (m *Model) filterChildren(node *Node, statements *types.StatementMap) {
	for _, s := range statements.All() {
		if !s.Kind.Visible() {
			continue
		}
		if s.IsInherited && !m.showInherited {
			continue
		}
		if s == node.stmt {
			continue
		}
		if s.Scope == types.ScopeLocal {
			continue
		}

		// Orphans are only handled at the top level.
		parent := m.resolveParent(s)
		switch {
		case node.stmt == nil && parent != nil:
			m.promoteOrphan(node, s, parent)
		case s.Kind.IsNamespace():
			m.mergeNamespace(node, s)
		default:
			m.addChild(node, s)
		}
	}
}

// Root returns the synthetic root node.
func (m *Model) Root() *Node {
	return m.root
}

// NodeCount returns the number of nodes below the root.
func (m *Model) NodeCount() int {
	return len(m.nodes)
}

// Dummy returns the placeholder registered under fullName in this cycle.
func (m *Model) Dummy(fullName string) *types.Statement {
	return m.dummies[fullName]
}

// IsDummy reports whether s is a placeholder synthesized in this cycle.
func (m *Model) IsDummy(s *types.Statement) bool {
	return s != nil && m.dummies[s.FullName] == s
}

// RowCount returns the number of children of parent; nil means the root.
func (m *Model) RowCount(parent *Node) int {
	return m.nodeOrRoot(parent).ChildCount()
}

// ColumnCount is always one.
func (m *Model) ColumnCount() int {
	return 1
}

// Index returns the child of parent at row; nil parent means the root.
func (m *Model) Index(row int, parent *Node) *Node {
	return m.nodeOrRoot(parent).Child(row)
}

// Parent returns the parent of node, or nil for top-level nodes.
func (m *Model) Parent(node *Node) *Node {
	if node == nil || node.parent == nil || node.parent == m.root {
		return nil
	}
	return node.parent
}

// Row returns the index of node within its parent, or -1.
func (m *Model) Row(node *Node) int {
	return node.row()
}

// CanFetchMore reports whether FetchMore would add children to node. A node
// whose statement has no children is marked fetched as a side effect.
func (m *Model) CanFetchMore(node *Node) bool {
	if node == nil || node == m.root {
		return false
	}
	if !node.fetched {
		if node.stmt.HasChildren() {
			return true
		}
		node.fetched = true
	}
	return false
}

// FetchMore materializes node's children once.
func (m *Model) FetchMore(node *Node) {
	if node == nil || node == m.root || node.fetched {
		return
	}
	node.fetched = true
	if node.stmt.HasChildren() {
		m.filterChildren(node, node.stmt.Children)
	}
}

// Data returns the text for node in the given role, or "" when the role does
// not apply.
func (m *Model) Data(node *Node, role Role) string {
	s := node.Statement()
	if s == nil {
		return ""
	}
	switch role {
	case DisplayRole:
		return s.Command
	case ToolTipRole:
		if s.Line > 0 {
			return fmt.Sprintf("%s (%s:%d)", s.FullName, s.FileName, s.Line)
		}
		return fmt.Sprintf("%s (%s)", s.FullName, s.FileName)
	case DecorationRole:
		return s.Kind.String()
	default:
		return ""
	}
}

func (m *Model) nodeOrRoot(n *Node) *Node {
	if n == nil {
		return m.root
	}
	return n
}
