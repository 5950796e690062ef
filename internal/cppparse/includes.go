// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package cppparse

import (
	"os"
	"path/filepath"
	"strings"
)

// resolver maps #include directives to file keys. Keys are slash paths
// relative to the root, or absolute paths for files outside it.
type resolver struct {
	root        string
	includeDirs []string
	systemDirs  []string
	exists      func(path string) bool
}

func newResolver(root string, includeDirs, systemDirs []string) *resolver {
	return &resolver{
		root:        root,
		includeDirs: absDirs(root, includeDirs),
		systemDirs:  absDirs(root, systemDirs),
		exists:      isFile,
	}
}

// resolve finds the file named by inc as seen from the file with key from.
// Quoted includes search the including file's directory first. A header
// lying under a system directory reports system=true, whichever search step
// found it.
func (r *resolver) resolve(from string, inc Include) (key string, system, ok bool) {
	var dirs []string
	if !inc.System {
		dirs = append(dirs, filepath.Dir(r.abs(from)))
	}
	dirs = append(dirs, r.includeDirs...)
	dirs = append(dirs, r.systemDirs...)

	for _, dir := range dirs {
		if p := filepath.Join(dir, filepath.FromSlash(inc.Path)); r.exists(p) {
			return r.key(p), r.inSystemDir(p), true
		}
	}
	return "", false, false
}

// inSystemDir reports whether abs lies under one of the system directories.
func (r *resolver) inSystemDir(abs string) bool {
	for _, dir := range r.systemDirs {
		rel, err := filepath.Rel(dir, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (r *resolver) abs(key string) string {
	if filepath.IsAbs(key) {
		return key
	}
	return filepath.Join(r.root, filepath.FromSlash(key))
}

func (r *resolver) key(abs string) string {
	rel, err := filepath.Rel(r.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Clean(abs)
	}
	return filepath.ToSlash(rel)
}

// closure returns every file reachable from key through direct, in
// depth-first include order, without key itself. Cycles are cut.
func closure(key string, direct map[string][]string) []string {
	seen := map[string]bool{key: true}
	var out []string
	var visit func(string)
	visit = func(k string) {
		for _, dep := range direct[k] {
			if seen[dep] {
				continue
			}
			seen[dep] = true
			out = append(out, dep)
			visit(dep)
		}
	}
	visit(key)
	return out
}

func absDirs(root string, dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		if !filepath.IsAbs(d) {
			d = filepath.Join(root, d)
		}
		out = append(out, filepath.Clean(d))
	}
	return out
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
