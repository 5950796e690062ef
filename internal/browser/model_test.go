// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package browser

import (
	"testing"

	"github.com/petar-djukic/go-classbrowser/internal/symtab"
	"github.com/petar-djukic/go-classbrowser/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const currentFile = "main.cpp"

// fakeParser wraps a real table so tests can refuse freezes and count calls.
type fakeParser struct {
	*symtab.Table
	denyFreeze bool
	freezes    int
	unfreezes  int
}

func (p *fakeParser) Freeze() bool {
	if p.denyFreeze || !p.Table.Freeze() {
		return false
	}
	p.freezes++
	return true
}

func (p *fakeParser) Unfreeze() {
	p.unfreezes++
	p.Table.Unfreeze()
}

// fixture builds one symbol-table generation by hand.
type fixture struct {
	t      *testing.T
	gen    *symtab.Generation
	parser *fakeParser
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		t:      t,
		gen:    symtab.NewGeneration(),
		parser: &fakeParser{Table: symtab.New()},
	}
}

func (f *fixture) add(parent *types.Statement, kind types.StatementKind, name, file string) *types.Statement {
	f.t.Helper()
	full := name
	scope := types.ScopeGlobal
	if parent != nil {
		full = parent.FullName + "::" + name
		if parent.Kind == types.KindClass {
			scope = types.ScopeClass
		}
	}
	s := &types.Statement{
		Command:            name,
		FullName:           full,
		Kind:               kind,
		Scope:              scope,
		FileName:           file,
		Line:               1,
		DefinitionFileName: file,
		DefinitionLine:     1,
	}
	f.gen.Add(s, parent)
	return s
}

// visible makes stmts visible from path, allowing fragments that share a
// full name.
func (f *fixture) visible(path string, stmts ...*types.Statement) {
	fi := f.gen.FileIncludes(path)
	for _, s := range stmts {
		fi.Statements.Insert(s.FileName+"#"+s.FullName, s)
	}
}

func (f *fixture) model(opts ...Option) *Model {
	f.t.Helper()
	f.parser.Publish(f.gen)
	m := NewModel(opts...)
	m.SetParser(f.parser)
	m.SetCurrentFile(currentFile)
	return m
}

func childNames(m *Model, n *Node) []string {
	if m.CanFetchMore(n) {
		m.FetchMore(n)
	}
	var names []string
	for i := 0; i < m.RowCount(n); i++ {
		names = append(names, m.Data(m.Index(i, n), DisplayRole))
	}
	return names
}

func TestFillStatements_RootWrapsNothing(t *testing.T) {
	f := newFixture(t)
	fn := f.add(nil, types.KindFunction, "main", currentFile)
	f.visible(currentFile, fn)

	m := f.model()

	assert.Nil(t, m.Root().Statement())
	assert.True(t, m.Root().Fetched())
	assert.False(t, m.CanFetchMore(m.Root()))
	assert.Equal(t, []string{"main"}, childNames(m, nil))
}

func TestFillStatements_MergesNamespaceAcrossHeaders(t *testing.T) {
	f := newFixture(t)
	nsA := f.add(nil, types.KindNamespace, "NS", "a.h")
	f.add(nsA, types.KindFunction, "f", "a.h")
	nsB := f.add(nil, types.KindNamespace, "NS", "b.h")
	f.add(nsB, types.KindFunction, "g", "b.h")
	f.visible(currentFile, nsA, nsB)

	m := f.model()

	require.Equal(t, 1, m.RowCount(nil), "exactly one node for NS")
	nsNode := m.Index(0, nil)
	ns := nsNode.Statement()
	assert.True(t, m.IsDummy(ns))
	assert.NotSame(t, nsA, ns)
	assert.Equal(t, "NS", ns.FullName)
	assert.Equal(t, currentFile, ns.FileName)
	assert.Equal(t, currentFile, ns.DefinitionFileName)
	assert.Zero(t, ns.Line)

	assert.Equal(t, []string{"f", "g"}, childNames(m, nsNode))

	// The real fragments were not touched by the merge.
	assert.Equal(t, []string{"f"}, nsA.Children.Keys())
	assert.Equal(t, []string{"g"}, nsB.Children.Keys())
}

func TestFillStatements_NamespaceMergeFirstWriterWins(t *testing.T) {
	f := newFixture(t)
	nsA := f.add(nil, types.KindNamespace, "NS", "a.h")
	fromA := f.add(nsA, types.KindFunction, "f", "a.h")
	nsB := f.add(nil, types.KindNamespace, "NS", "b.h")
	f.add(nsB, types.KindFunction, "f", "b.h")
	f.visible(currentFile, nsA, nsB)

	m := f.model()
	nsNode := m.Index(0, nil)
	require.True(t, m.CanFetchMore(nsNode))
	m.FetchMore(nsNode)

	require.Equal(t, 1, m.RowCount(nsNode))
	assert.Same(t, fromA, m.Index(0, nsNode).Statement())
}

func TestFillStatements_PromotesOrphanUnderDummyParent(t *testing.T) {
	f := newFixture(t)
	class := f.add(nil, types.KindClass, "C", "c.h")
	method := f.add(class, types.KindFunction, "m", "g.cpp")
	f.visible(currentFile, method)

	m := f.model()

	require.Equal(t, 1, m.RowCount(nil))
	cNode := m.Index(0, nil)
	c := cNode.Statement()
	assert.True(t, m.IsDummy(c))
	assert.Equal(t, "C", c.FullName)
	assert.Equal(t, currentFile, c.FileName)
	assert.Equal(t, types.KindClass, c.Kind)

	require.True(t, m.CanFetchMore(cNode))
	m.FetchMore(cNode)
	require.Equal(t, 1, m.RowCount(cNode))
	assert.Same(t, method, m.Index(0, cNode).Statement())

	// The real class keeps its own children.
	assert.Equal(t, []string{"m"}, class.Children.Keys())
}

func TestFillStatements_PromotesAncestorChain(t *testing.T) {
	f := newFixture(t)
	ns := f.add(nil, types.KindNamespace, "ns", "lib.h")
	class := f.add(ns, types.KindClass, "Widget", "lib.h")
	draw := f.add(class, types.KindFunction, "draw", "lib.cpp")
	resize := f.add(class, types.KindFunction, "resize", "lib.cpp")
	f.visible(currentFile, draw, resize)

	m := f.model()

	require.Equal(t, 1, m.RowCount(nil), "no duplicate ancestor dummies")
	nsNode := m.Index(0, nil)
	assert.Equal(t, "ns", nsNode.Statement().FullName)
	assert.True(t, m.IsDummy(nsNode.Statement()))

	assert.Equal(t, []string{"Widget"}, childNames(m, nsNode))
	widgetNode := m.Index(0, nsNode)
	leaf := widgetNode.Statement()
	assert.Equal(t, class.FullName, leaf.FullName)
	assert.Same(t, m.Dummy("ns::Widget"), leaf)

	assert.Equal(t, []string{"draw", "resize"}, childNames(m, widgetNode))
}

func TestFillStatements_ParentInCurrentFileIsNotOrphan(t *testing.T) {
	f := newFixture(t)
	class := f.add(nil, types.KindClass, "Local", currentFile)
	member := f.add(class, types.KindVariable, "x", currentFile)
	f.visible(currentFile, class, member)

	m := f.model()

	assert.Equal(t, []string{"Local"}, childNames(m, nil))
	assert.Nil(t, m.Dummy("Local"))
	assert.Equal(t, []string{"x"}, childNames(m, m.Index(0, nil)))
}

func TestFillStatements_ParentDefinedInCurrentFileIsNotOrphan(t *testing.T) {
	f := newFixture(t)
	class := f.add(nil, types.KindClass, "C", "c.h")
	class.DefinitionFileName = currentFile
	member := f.add(class, types.KindFunction, "m", currentFile)
	f.visible(currentFile, member)

	m := f.model()

	assert.Equal(t, 0, m.RowCount(nil))
	assert.Nil(t, m.Dummy("C"))
}

func TestFillStatements_StaleParentHandleIsPlainChild(t *testing.T) {
	f := newFixture(t)
	fn := f.add(nil, types.KindFunction, "helper", currentFile)
	fn.Parent = symtab.NextID() // never registered
	f.visible(currentFile, fn)

	m := f.model()

	assert.Equal(t, []string{"helper"}, childNames(m, nil))
}

func TestFillStatements_SkipsHiddenStatements(t *testing.T) {
	f := newFixture(t)
	block := f.add(nil, types.KindBlock, "{}", currentFile)
	local := f.add(nil, types.KindVariable, "tmp", currentFile)
	local.Scope = types.ScopeLocal
	inherited := f.add(nil, types.KindFunction, "base", currentFile)
	inherited.IsInherited = true
	shown := f.add(nil, types.KindFunction, "shown", currentFile)
	f.visible(currentFile, block, local, inherited, shown)

	m := f.model()
	assert.Equal(t, []string{"shown"}, childNames(m, nil))

	m.SetShowInheritedMembers(true)
	assert.True(t, m.ShowInheritedMembers())
	assert.Equal(t, []string{"base", "shown"}, childNames(m, nil))
}

func TestFillStatements_ShowInheritedOption(t *testing.T) {
	f := newFixture(t)
	inherited := f.add(nil, types.KindFunction, "base", currentFile)
	inherited.IsInherited = true
	f.visible(currentFile, inherited)

	m := f.model(WithShowInheritedMembers(true))
	assert.Equal(t, []string{"base"}, childNames(m, nil))
}

func TestFetchMore_SkipsSelf(t *testing.T) {
	f := newFixture(t)
	class := f.add(nil, types.KindClass, "Loop", currentFile)
	f.add(class, types.KindVariable, "v", currentFile)
	class.Children.Insert("Loop", class)
	f.visible(currentFile, class)

	m := f.model()
	loopNode := m.Index(0, nil)

	assert.Equal(t, []string{"v"}, childNames(m, loopNode))
	for _, c := range loopNode.Children() {
		assert.NotSame(t, loopNode.Statement(), c.Statement())
	}
}

func TestFetchMore_NestedNamespacesMergeBelowRoot(t *testing.T) {
	f := newFixture(t)
	outer := f.add(nil, types.KindNamespace, "outer", currentFile)
	inner := f.add(outer, types.KindNamespace, "inner", currentFile)
	f.add(inner, types.KindFunction, "run", currentFile)
	f.visible(currentFile, outer)

	m := f.model()
	outerNode := m.Index(0, nil)
	assert.Equal(t, []string{"inner"}, childNames(m, outerNode))

	innerNode := m.Index(0, outerNode)
	assert.Same(t, m.Dummy("outer::inner"), innerNode.Statement())
	assert.Equal(t, []string{"run"}, childNames(m, innerNode))
}

func TestFetchMore_NestedNamespaceSplitAcrossHeaders(t *testing.T) {
	f := newFixture(t)
	appA := f.add(nil, types.KindNamespace, "app", "a.h")
	detailA := f.add(appA, types.KindNamespace, "detail", "a.h")
	f.add(detailA, types.KindFunction, "a", "a.h")
	appB := f.add(nil, types.KindNamespace, "app", "b.h")
	detailB := f.add(appB, types.KindNamespace, "detail", "b.h")
	f.add(detailB, types.KindFunction, "b", "b.h")
	f.add(detailB, types.KindFunction, "a", "b.h")
	f.visible(currentFile, appA, appB)

	m := f.model()
	require.Equal(t, 1, m.RowCount(nil))
	appNode := m.Index(0, nil)
	assert.Equal(t, []string{"detail"}, childNames(m, appNode))

	detailNode := m.Index(0, appNode)
	assert.Same(t, m.Dummy("app::detail"), detailNode.Statement())
	assert.Equal(t, []string{"a", "b"}, childNames(m, detailNode))
	assert.Equal(t, "a.h", m.Index(0, detailNode).Statement().FileName, "first fragment wins")

	// A rebuild starts from a clean slate.
	m.Refresh()
	appNode = m.Index(0, nil)
	assert.Equal(t, []string{"detail"}, childNames(m, appNode))
	assert.Equal(t, []string{"a", "b"}, childNames(m, m.Index(0, appNode)))
}

func TestCanFetchMore_MarksChildlessFetched(t *testing.T) {
	f := newFixture(t)
	fn := f.add(nil, types.KindFunction, "leaf", currentFile)
	f.visible(currentFile, fn)

	m := f.model()
	node := m.Index(0, nil)
	require.False(t, node.Fetched())

	assert.False(t, m.CanFetchMore(node))
	assert.True(t, node.Fetched(), "fetched as a side effect of the query")
}

func TestFetchMore_OnlyOnce(t *testing.T) {
	f := newFixture(t)
	class := f.add(nil, types.KindClass, "C", currentFile)
	f.add(class, types.KindVariable, "a", currentFile)
	f.visible(currentFile, class)

	m := f.model()
	node := m.Index(0, nil)

	assert.True(t, m.CanFetchMore(node))
	m.FetchMore(node)
	m.FetchMore(node)
	assert.Equal(t, 1, m.RowCount(node))
	assert.False(t, m.CanFetchMore(node))

	m.FetchMore(nil)
	m.FetchMore(m.Root())
	assert.Equal(t, 1, m.RowCount(nil))
}

func TestClear_Idempotent(t *testing.T) {
	f := newFixture(t)
	nsA := f.add(nil, types.KindNamespace, "NS", "a.h")
	f.visible(currentFile, nsA)
	m := f.model()
	require.Equal(t, 1, m.RowCount(nil))

	m.Clear()
	assert.Equal(t, 0, m.RowCount(nil))
	assert.Equal(t, 0, m.NodeCount())
	assert.Nil(t, m.Dummy("NS"))

	m.Clear()
	assert.Equal(t, 0, m.RowCount(nil))
	assert.Nil(t, m.Root().Statement())
	assert.True(t, m.Root().Fetched())
}

func TestFillStatements_FreezeDeniedLeavesEmptyTree(t *testing.T) {
	f := newFixture(t)
	fn := f.add(nil, types.KindFunction, "main", currentFile)
	f.visible(currentFile, fn)
	m := f.model()
	require.Equal(t, 1, m.RowCount(nil))

	f.parser.denyFreeze = true
	m.Refresh()

	assert.Equal(t, 0, m.RowCount(nil))
	assert.False(t, m.Updating())
	assert.Equal(t, f.parser.freezes, f.parser.unfreezes)
}

func TestFillStatements_UnfreezesOnEveryPath(t *testing.T) {
	f := newFixture(t)
	fn := f.add(nil, types.KindFunction, "main", currentFile)
	f.visible(currentFile, fn)
	m := f.model()

	m.SetCurrentFile("")
	m.SetCurrentFile("unknown.cpp")
	m.SetCurrentFile(currentFile)

	assert.Equal(t, 5, f.parser.freezes)
	assert.Equal(t, f.parser.freezes, f.parser.unfreezes)
	assert.True(t, f.parser.Freeze(), "no freeze left held")
	f.parser.Unfreeze()
}

func TestFillStatements_EmptyWithoutUsableParser(t *testing.T) {
	f := newFixture(t)
	fn := f.add(nil, types.KindFunction, "main", currentFile)
	f.visible(currentFile, fn)

	t.Run("no parser", func(t *testing.T) {
		m := NewModel()
		m.SetCurrentFile(currentFile)
		assert.Equal(t, 0, m.RowCount(nil))
	})

	t.Run("disabled parser", func(t *testing.T) {
		m := f.model()
		require.Equal(t, 1, m.RowCount(nil))
		f.parser.SetEnabled(false)
		defer f.parser.SetEnabled(true)
		m.Refresh()
		assert.Equal(t, 0, m.RowCount(nil))
	})

	t.Run("unknown file", func(t *testing.T) {
		m := f.model()
		m.SetCurrentFile("other.cpp")
		assert.Equal(t, 0, m.RowCount(nil))
		assert.Equal(t, "other.cpp", m.CurrentFile())
	})
}

// reentrantObserver triggers another rebuild from inside a reset.
type reentrantObserver struct {
	m      *Model
	begins int
	ends   int
}

func (o *reentrantObserver) BeginReset() {
	o.begins++
	if o.m != nil && o.begins == 1 {
		o.m.FillStatements()
	}
}

func (o *reentrantObserver) EndReset() { o.ends++ }

func TestFillStatements_DropsReentrantRebuild(t *testing.T) {
	f := newFixture(t)
	fn := f.add(nil, types.KindFunction, "main", currentFile)
	f.visible(currentFile, fn)
	f.parser.Publish(f.gen)

	obs := &reentrantObserver{}
	m := NewModel(WithObserver(obs))
	obs.m = m
	m.SetCurrentFile(currentFile)
	m.SetParser(f.parser)

	assert.Equal(t, 2, obs.begins)
	assert.Equal(t, 2, obs.ends)
	assert.Equal(t, 1, f.parser.freezes, "the nested rebuild was dropped")
	assert.Equal(t, 1, m.RowCount(nil))
	assert.False(t, m.Updating())
}

func TestSetParser_RebuildsOnEndParsing(t *testing.T) {
	f := newFixture(t)
	m := f.model()
	assert.Equal(t, 0, m.RowCount(nil))

	var dispatched int
	m.SetDispatcher(func(run func()) {
		dispatched++
		run()
	})

	next := symtab.NewGeneration()
	fn := &types.Statement{Command: "late", FullName: "late", Kind: types.KindFunction, FileName: currentFile, DefinitionFileName: currentFile}
	next.Add(fn, nil)
	next.FileIncludes(currentFile).Statements.Insert(fn.FullName, fn)
	f.parser.Publish(next)
	f.parser.NotifyEndParsing()

	assert.Equal(t, 1, dispatched)
	assert.Equal(t, []string{"late"}, childNames(m, nil))

	m.Close()
	f.parser.NotifyEndParsing()
	assert.Equal(t, 1, dispatched, "closed models are not notified")
}

func TestSetParser_SkipsRebuildWhileParsing(t *testing.T) {
	f := newFixture(t)
	fn := f.add(nil, types.KindFunction, "main", currentFile)
	f.visible(currentFile, fn)
	f.parser.Publish(f.gen)
	f.parser.SetParsing(true)

	m := NewModel()
	m.SetParser(f.parser)
	assert.Equal(t, 0, f.parser.freezes)

	f.parser.SetParsing(false)
	m.SetCurrentFile(currentFile)
	assert.Equal(t, 1, m.RowCount(nil))
}

func TestViewProtocol(t *testing.T) {
	f := newFixture(t)
	class := f.add(nil, types.KindClass, "Shape", currentFile)
	class.Line = 12
	area := f.add(class, types.KindFunction, "area", currentFile)
	area.Args = "()"
	f.add(class, types.KindVariable, "sides", currentFile)
	f.visible(currentFile, class)

	m := f.model()
	assert.Equal(t, 1, m.ColumnCount())

	shape := m.Index(0, nil)
	require.NotNil(t, shape)
	assert.Nil(t, m.Index(1, nil))
	assert.Nil(t, m.Index(-1, nil))
	assert.Nil(t, m.Parent(shape), "top-level rows have no parent")
	assert.Equal(t, 0, m.Row(shape))

	m.FetchMore(shape)
	sides := m.Index(1, shape)
	require.NotNil(t, sides)
	assert.Same(t, shape, m.Parent(sides))
	assert.Equal(t, 1, m.Row(sides))
	assert.Equal(t, -1, m.Row(nil))

	assert.Equal(t, "Shape", m.Data(shape, DisplayRole))
	assert.Equal(t, "Shape (main.cpp:12)", m.Data(shape, ToolTipRole))
	assert.Equal(t, "class", m.Data(shape, DecorationRole))
	assert.Equal(t, "", m.Data(shape, Role(99)))
	assert.Equal(t, "", m.Data(nil, DisplayRole))
	assert.Equal(t, "", m.Data(m.Root(), DisplayRole))
}
