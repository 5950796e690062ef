// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package classbrowser is the public entry point: it parses a C/C++ project
// into a symbol table and projects the symbols visible from one file into a
// browsable tree.
//
//	docs/ARCHITECTURE § Facade.
package classbrowser

import (
	"errors"
	"log/slog"
	"time"
)

// Error types for the classbrowser API.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrUnknownFile   = errors.New("file not in symbol table")
)

// Config configures a Session.
type Config struct {
	Root              string        // Project root (required)
	Sources           []string      // Source patterns (default all C/C++ files)
	Exclude           []string      // Patterns left out of discovery
	IncludeDirs       []string      // Searched for "..." and <...> includes
	SystemIncludeDirs []string      // Searched last; headers found here are system headers
	Jobs              int           // Parallel extractions (default NumCPU)
	ShowInherited     bool          // List inherited class members
	NoGit             bool          // Treat every file as in-project
	Debounce          time.Duration // Watch quiet period (default 200ms)
	Logger            *slog.Logger  // Default slog.Default()
}

// ParseStats describes one parse pass.
type ParseStats struct {
	Files      int
	Statements int
	Parsed     int
	CacheHits  int
	Skipped    int
	Elapsed    time.Duration
}
