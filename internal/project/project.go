// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package project decides which source files belong to the project being
// browsed, using the git index when the root is a repository.
//
//	docs/ARCHITECTURE § Parser.
package project

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
)

// ErrNoGit is returned when the root is not inside a git repository.
var ErrNoGit = errors.New("not a git repository")

// Membership classifies files by path relative to the project root.
type Membership interface {
	InProject(relPath string) bool
}

// Repo wraps a go-git repository and the set of files tracked by its index.
type Repo struct {
	repo    *gogit.Repository
	root    string // absolute project root
	top     string // absolute worktree root
	tracked map[string]bool
}

// Open opens the repository containing root and loads its index.
// Returns ErrNoGit if root is not inside a git repository.
func Open(root string) (*Repo, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", root, err)
	}
	r, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	repo := &Repo{repo: r, root: abs, top: wt.Filesystem.Root()}
	if err := repo.Reload(); err != nil {
		return nil, err
	}
	return repo, nil
}

// Reload re-reads the git index.
func (r *Repo) Reload() error {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return fmt.Errorf("reading index: %w", err)
	}
	tracked := make(map[string]bool, len(idx.Entries))
	for _, e := range idx.Entries {
		tracked[filepath.ToSlash(e.Name)] = true
	}
	r.tracked = tracked
	return nil
}

// InProject reports whether relPath (relative to the root passed to Open)
// is tracked by git.
func (r *Repo) InProject(relPath string) bool {
	abs := filepath.Join(r.root, relPath)
	rel, err := filepath.Rel(r.top, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return r.tracked[filepath.ToSlash(rel)]
}

// TrackedCount returns the number of files in the index.
func (r *Repo) TrackedCount() int {
	return len(r.tracked)
}

// All treats every file under the root as part of the project. It is used
// when git is disabled or the root is not a repository.
type All struct{}

// InProject always returns true.
func (All) InProject(string) bool { return true }

// Detect returns the git membership for root, falling back to All when root
// is not a repository or noGit is set.
func Detect(root string, noGit bool) Membership {
	if noGit {
		return All{}
	}
	repo, err := Open(root)
	if err != nil {
		return All{}
	}
	return repo
}
