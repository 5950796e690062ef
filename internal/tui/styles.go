// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/petar-djukic/go-classbrowser/pkg/types"
)

var (
	colorPrimary   = lipgloss.Color("39")
	colorSecondary = lipgloss.Color("86")
	colorSuccess   = lipgloss.Color("42")
	colorWarning   = lipgloss.Color("220")
	colorDim       = lipgloss.Color("241")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	selectedStyle = lipgloss.NewStyle().
			Reverse(true)

	namespaceStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	classStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSecondary)

	functionStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	macroStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	inheritedStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	externalStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	plainStyle = lipgloss.NewStyle()
)

// kindStyle picks the style a statement's line is drawn with. Symbols from
// outside the project are dimmed.
func kindStyle(s *types.Statement) lipgloss.Style {
	if s.IsInherited {
		return inheritedStyle
	}
	if !s.InProject {
		return externalStyle
	}
	switch {
	case s.Kind.IsNamespace():
		return namespaceStyle
	case s.Kind == types.KindClass, s.Kind == types.KindEnumType, s.Kind == types.KindEnumClassType:
		return classStyle
	case s.Kind.IsFunction():
		return functionStyle
	case s.Kind == types.KindPreprocessor:
		return macroStyle
	default:
		return plainStyle
	}
}
