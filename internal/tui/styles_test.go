// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/petar-djukic/go-classbrowser/pkg/types"
)

func TestKindStyle(t *testing.T) {
	tests := []struct {
		name string
		stmt types.Statement
		fg   lipgloss.TerminalColor
	}{
		{"project class", types.Statement{Kind: types.KindClass, InProject: true}, colorSecondary},
		{"project function", types.Statement{Kind: types.KindFunction, InProject: true}, colorSuccess},
		{"system class", types.Statement{Kind: types.KindClass, InSystemHeader: true}, colorDim},
		{"untracked function", types.Statement{Kind: types.KindFunction}, colorDim},
		{"inherited member", types.Statement{Kind: types.KindFunction, InProject: true, IsInherited: true}, colorDim},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.fg, kindStyle(&tt.stmt).GetForeground())
		})
	}
}
