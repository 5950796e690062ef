// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tui shows the class browser tree in the terminal. Rebuilds
// triggered by the parser are delivered as messages, so tree rebuilds and
// lazy expansion both run on the program's goroutine.
//
//	docs/ARCHITECTURE § Terminal View.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/petar-djukic/go-classbrowser/internal/browser"
	"github.com/petar-djukic/go-classbrowser/pkg/types"
)

// chromeLines is the number of lines used by the header and help footer.
const chromeLines = 3

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Expand    key.Binding
	Collapse  key.Binding
	Inherited key.Binding
	Refresh   key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Expand, k.Collapse, k.Inherited, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultKeys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Expand: key.NewBinding(
		key.WithKeys("enter", " ", "right", "l"),
		key.WithHelp("enter", "expand"),
	),
	Collapse: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "collapse"),
	),
	Inherited: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "inherited"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// rebuildMsg carries work handed to the dispatcher onto the program
// goroutine.
type rebuildMsg struct {
	run func()
}

// refreshedMsg reports the end of a refresh started with the refresh key.
type refreshedMsg struct {
	err error
}

// Dispatcher returns a browser dispatcher that runs rebuilds inside p's
// update loop.
func Dispatcher(p *tea.Program) func(func()) {
	return func(f func()) {
		p.Send(rebuildMsg{run: f})
	}
}

type row struct {
	node  *browser.Node
	depth int
}

// Model is the bubbletea model for the browser tree.
type Model struct {
	browser *browser.Model
	refresh func() error
	keys    keyMap
	help    help.Model

	// expanded holds the full names of expanded nodes so expansion survives
	// rebuilds.
	expanded map[string]bool
	rows     []row
	cursor   int
	offset   int

	width  int
	height int
	status string
}

// New creates a view over bm. refresh is run when the refresh key is
// pressed; nil rebuilds from the current symbol table.
func New(bm *browser.Model, refresh func() error) Model {
	m := Model{
		browser:  bm,
		refresh:  refresh,
		keys:     defaultKeys,
		help:     help.New(),
		expanded: make(map[string]bool),
	}
	m.flatten()
	return m
}

// Run shows bm until the user quits or ctx is cancelled.
func Run(ctx context.Context, bm *browser.Model, refresh func() error) error {
	program := tea.NewProgram(
		New(bm, refresh),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
	)
	bm.SetDispatcher(Dispatcher(program))
	defer bm.SetDispatcher(nil)

	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running terminal view: %w", err)
	}
	return nil
}

// Init fulfills the Bubble Tea Model interface.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update applies incoming Bubble Tea messages to the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.scroll()
		return m, nil

	case rebuildMsg:
		msg.run()
		m.flatten()
		return m, nil

	case refreshedMsg:
		m.status = ""
		if msg.err != nil {
			m.status = "refresh failed: " + msg.err.Error()
		}
		m.flatten()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Expand):
		if r, ok := m.selected(); ok {
			if m.browser.CanFetchMore(r.node) {
				m.browser.FetchMore(r.node)
			}
			if r.node.ChildCount() > 0 {
				m.expanded[r.node.Statement().FullName] = true
				m.flatten()
			}
		}

	case key.Matches(msg, m.keys.Collapse):
		m.collapse()

	case key.Matches(msg, m.keys.Inherited):
		m.browser.SetShowInheritedMembers(!m.browser.ShowInheritedMembers())
		m.flatten()

	case key.Matches(msg, m.keys.Refresh):
		if m.refresh == nil {
			m.browser.Refresh()
			m.flatten()
			return m, nil
		}
		m.status = "parsing..."
		refresh := m.refresh
		return m, func() tea.Msg {
			return refreshedMsg{err: refresh()}
		}
	}
	m.scroll()
	return m, nil
}

// collapse closes the selected node, or moves to its parent when the node
// is already closed.
func (m *Model) collapse() {
	r, ok := m.selected()
	if !ok {
		return
	}
	name := r.node.Statement().FullName
	if m.expanded[name] {
		delete(m.expanded, name)
		m.flatten()
		return
	}
	if parent := m.browser.Parent(r.node); parent != nil {
		for i, pr := range m.rows {
			if pr.node == parent {
				m.cursor = i
				break
			}
		}
	}
}

func (m Model) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

// flatten lists the visible rows: top-level nodes plus the children of
// expanded nodes, fetching them on first use.
func (m *Model) flatten() {
	var selected *types.Statement
	if r, ok := m.selected(); ok {
		selected = r.node.Statement()
	}

	rows := make([]row, 0, len(m.rows))
	onPath := make(map[*types.Statement]bool)
	var walk func(parent *browser.Node, depth int)
	walk = func(parent *browser.Node, depth int) {
		for _, child := range parent.Children() {
			s := child.Statement()
			rows = append(rows, row{node: child, depth: depth})
			if !m.expanded[s.FullName] || onPath[s] {
				continue
			}
			if m.browser.CanFetchMore(child) {
				m.browser.FetchMore(child)
			}
			onPath[s] = true
			walk(child, depth+1)
			delete(onPath, s)
		}
	}
	walk(m.browser.Root(), 0)
	m.rows = rows

	for i, r := range m.rows {
		if selected != nil && r.node.Statement().FullName == selected.FullName {
			m.cursor = i
			break
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.scroll()
}

// scroll keeps the cursor inside the window.
func (m *Model) scroll() {
	height := m.height - chromeLines
	if height <= 0 {
		m.offset = 0
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+height {
		m.offset = m.cursor - height + 1
	}
}

// View renders the header, the visible rows, and the key help.
func (m Model) View() string {
	var b strings.Builder

	file := m.browser.CurrentFile()
	if file == "" {
		file = "(no file)"
	}
	b.WriteString(headerStyle.Render(file))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  %d rows", len(m.rows))))
	if m.browser.ShowInheritedMembers() {
		b.WriteString(dimStyle.Render("  +inherited"))
	}
	if m.status != "" {
		b.WriteString("  " + dimStyle.Render(m.status))
	}
	b.WriteString("\n")

	end := len(m.rows)
	if height := m.height - chromeLines; height > 0 && m.offset+height < end {
		end = m.offset + height
	}
	if len(m.rows) == 0 {
		b.WriteString(dimStyle.Render("  no symbols") + "\n")
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderRow(i) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m Model) renderRow(i int) string {
	r := m.rows[i]
	s := r.node.Statement()

	marker := "  "
	switch {
	case m.expanded[s.FullName] && r.node.ChildCount() > 0:
		marker = "▾ "
	case s.HasChildren():
		marker = "▸ "
	}

	text := browser.Signature(s)
	if m.browser.IsDummy(s) {
		text += dimStyle.Render(" ~")
	}
	line := strings.Repeat("  ", r.depth) + marker + kindStyle(s).Render(text)
	if i == m.cursor {
		return selectedStyle.Render(line)
	}
	return line
}
