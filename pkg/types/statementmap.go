// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import "iter"

// StatementMap is an insertion-ordered mapping from name to statement.
// The zero value and the nil pointer are both empty maps for reading.
type StatementMap struct {
	keys []string
	m    map[string]*Statement
}

// NewStatementMap returns an empty map.
func NewStatementMap() *StatementMap {
	return &StatementMap{m: make(map[string]*Statement)}
}

// Len returns the number of entries.
func (sm *StatementMap) Len() int {
	if sm == nil {
		return 0
	}
	return len(sm.keys)
}

// Get returns the statement stored under key.
func (sm *StatementMap) Get(key string) (*Statement, bool) {
	if sm == nil {
		return nil, false
	}
	s, ok := sm.m[key]
	return s, ok
}

// Insert adds s under key unless key is already present. The first writer
// wins; it returns false when the entry already existed.
func (sm *StatementMap) Insert(key string, s *Statement) bool {
	if sm.m == nil {
		sm.m = make(map[string]*Statement)
	}
	if _, ok := sm.m[key]; ok {
		return false
	}
	sm.keys = append(sm.keys, key)
	sm.m[key] = s
	return true
}

// Set stores s under key, keeping the original position if key exists.
func (sm *StatementMap) Set(key string, s *Statement) {
	if sm.m == nil {
		sm.m = make(map[string]*Statement)
	}
	if _, ok := sm.m[key]; !ok {
		sm.keys = append(sm.keys, key)
	}
	sm.m[key] = s
}

// Keys returns the keys in insertion order.
func (sm *StatementMap) Keys() []string {
	if sm == nil {
		return nil
	}
	out := make([]string, len(sm.keys))
	copy(out, sm.keys)
	return out
}

// All iterates entries in insertion order.
func (sm *StatementMap) All() iter.Seq2[string, *Statement] {
	return func(yield func(string, *Statement) bool) {
		if sm == nil {
			return
		}
		for _, k := range sm.keys {
			if !yield(k, sm.m[k]) {
				return
			}
		}
	}
}

// Clone returns a shallow copy: the mapping is new, the statements are shared.
func (sm *StatementMap) Clone() *StatementMap {
	out := NewStatementMap()
	if sm == nil {
		return out
	}
	out.keys = append(out.keys, sm.keys...)
	for k, v := range sm.m {
		out.m[k] = v
	}
	return out
}
