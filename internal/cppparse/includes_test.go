// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package cppparse

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver_SearchOrder(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/a.cpp":        "",
		"src/local.h":      "",
		"src/shadow.h":     "",
		"include/lib.h":    "",
		"include/shadow.h": "",
	})
	sys := writeTree(t, map[string]string{"stdx.h": "", "lib.h": ""})
	r := newResolver(root, []string{"include"}, []string{sys})

	tests := []struct {
		name   string
		inc    Include
		key    string
		system bool
		ok     bool
	}{
		{"quoted next to file", Include{Path: "local.h"}, "src/local.h", false, true},
		{"quoted prefers own directory", Include{Path: "shadow.h"}, "src/shadow.h", false, true},
		{"angle skips own directory", Include{Path: "shadow.h", System: true}, "include/shadow.h", false, true},
		{"include dirs before system dirs", Include{Path: "lib.h", System: true}, "include/lib.h", false, true},
		{"system header", Include{Path: "stdx.h", System: true}, filepath.Join(sys, "stdx.h"), true, true},
		{"missing", Include{Path: "nope.h"}, "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, system, ok := r.resolve("src/a.cpp", tt.inc)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.key, key)
			assert.Equal(t, tt.system, system)
		})
	}
}

func TestResolver_SystemFlagFollowsLocation(t *testing.T) {
	root := writeTree(t, map[string]string{"src/a.cpp": ""})
	sys := writeTree(t, map[string]string{
		"vector":      "",
		"bits/impl.h": "",
	})
	r := newResolver(root, nil, []string{sys})

	key, system, ok := r.resolve(filepath.Join(sys, "vector"), Include{Path: "bits/impl.h"})
	assert.True(t, ok)
	assert.Equal(t, filepath.Join(sys, "bits", "impl.h"), key)
	assert.True(t, system, "a quoted include found next to a system header is still a system header")

	_, system, ok = r.resolve("src/a.cpp", Include{Path: "vector", System: true})
	assert.True(t, ok)
	assert.True(t, system)
}

func TestClosure_CutsCycles(t *testing.T) {
	direct := map[string][]string{
		"a": {"b", "c"},
		"b": {"c"},
		"c": {"a", "d"},
	}
	assert.Equal(t, []string{"b", "c", "d"}, closure("a", direct))
	assert.Equal(t, []string{"a", "b", "d"}, closure("c", direct))
	assert.Empty(t, closure("d", direct))
}
