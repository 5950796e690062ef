// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package classbrowser

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSession(t *testing.T) (*Session, string) {
	t.Helper()
	root := writeProject(t, map[string]string{
		"shape.h":  "namespace geo {\nclass Shape {\npublic:\n    double area();\n};\n}\n",
		"main.cpp": "#include \"shape.h\"\n\nint main() { return 0; }\n",
	})
	s, err := New(Config{
		Root:     root,
		NoGit:    true,
		Debounce: 50 * time.Millisecond,
		Logger:   quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, root
}

func TestNew_InvalidConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.cpp")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "missing root", cfg: Config{}},
		{name: "root does not exist", cfg: Config{Root: filepath.Join(t.TempDir(), "nope")}},
		{name: "root is a file", cfg: Config{Root: file}},
		{name: "negative jobs", cfg: Config{Root: t.TempDir(), Jobs: -1}},
		{name: "negative debounce", cfg: Config{Root: t.TempDir(), Debounce: -time.Second}},
		{name: "bad pattern", cfg: Config{Root: t.TempDir(), Sources: []string{"src/[.cpp"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(Config{Root: t.TempDir(), NoGit: true})
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, 200*time.Millisecond, s.cfg.Debounce)
	assert.NotNil(t, s.log)
}

func TestSession_ParseOpenSnapshot(t *testing.T) {
	s, _ := newSession(t)

	stats, err := s.Parse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 2, stats.Parsed)
	assert.Zero(t, stats.CacheHits)
	assert.Positive(t, stats.Statements)

	require.NoError(t, s.Open("main.cpp"))
	assert.Equal(t, "main.cpp", s.Model().CurrentFile())

	snap := s.Snapshot(0)
	assert.Equal(t, "main.cpp", snap.Name)
	require.Len(t, snap.Children, 2)
	assert.Equal(t, "main", snap.Children[0].Name)
	assert.Equal(t, "geo", snap.Children[1].Name)

	shallow := s.Snapshot(1)
	require.Len(t, shallow.Children, 2)
	assert.Empty(t, shallow.Children[1].Children)

	again, err := s.Parse(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, again.CacheHits)
	assert.Zero(t, again.Parsed)
}

// commitFiles commits files into a new repository at dir.
func commitFiles(t *testing.T, dir string, files ...string) {
	t.Helper()
	r, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	wt, err := r.Worktree()
	require.NoError(t, err)
	for _, name := range files {
		_, err = wt.Add(name)
		require.NoError(t, err)
	}
	_, err = wt.Commit("initial commit", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@test.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestSession_GitMembershipReachesSnapshot(t *testing.T) {
	root := writeProject(t, map[string]string{
		"shape.h":   "namespace geo {\nclass Shape {};\n}\n",
		"scratch.h": "namespace ext {\nvoid helper();\n}\n",
		"main.cpp":  "#include \"shape.h\"\n#include \"scratch.h\"\nint main() { return 0; }\n",
	})
	commitFiles(t, root, "shape.h", "main.cpp")

	s, err := New(Config{Root: root, Logger: quietLogger()})
	require.NoError(t, err)
	defer s.Close()
	_, err = s.Parse(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Open("main.cpp"))

	snap := s.Snapshot(0)
	require.Len(t, snap.Children, 3)
	mainFn, geo, ext := snap.Children[0], snap.Children[1], snap.Children[2]
	assert.Equal(t, "main", mainFn.Name)
	assert.True(t, mainFn.InProject)
	assert.Equal(t, "geo", geo.Name)
	assert.True(t, geo.InProject)
	require.Len(t, geo.Children, 1)
	assert.True(t, geo.Children[0].InProject)
	assert.Equal(t, "ext", ext.Name)
	assert.False(t, ext.InProject, "untracked headers are outside the project")
	require.Len(t, ext.Children, 1)
	assert.False(t, ext.Children[0].InProject)

	// Without git every file under the root belongs to the project.
	noGit, err := New(Config{Root: root, NoGit: true, Logger: quietLogger()})
	require.NoError(t, err)
	defer noGit.Close()
	_, err = noGit.Parse(context.Background())
	require.NoError(t, err)
	require.NoError(t, noGit.Open("main.cpp"))
	assert.True(t, noGit.Snapshot(0).Children[2].InProject)
}

func TestSession_OpenAbsolutePath(t *testing.T) {
	s, root := newSession(t)
	_, err := s.Parse(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.Open(filepath.Join(root, "shape.h")))
	assert.Equal(t, "shape.h", s.Model().CurrentFile())
}

func TestSession_OpenUnknownFile(t *testing.T) {
	s, _ := newSession(t)
	_, err := s.Parse(context.Background())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Open("missing.cpp"), ErrUnknownFile)
	assert.ErrorIs(t, s.Open(filepath.Join(t.TempDir(), "elsewhere.cpp")), ErrUnknownFile)
	assert.Empty(t, s.Model().CurrentFile())
}

func TestSession_ParseCancelled(t *testing.T) {
	s, _ := newSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Parse(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSession_WatchReparses(t *testing.T) {
	defer goleak.VerifyNone(t)

	s, root := newSession(t)
	_, err := s.Parse(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Open("main.cpp"))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	var watchErr error
	go func() {
		defer wg.Done()
		watchErr = s.Watch(ctx)
	}()

	// Give the watcher time to register the root before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.cpp"),
		[]byte("#include \"shape.h\"\n\nint main() { return 0; }\nvoid helper();\n"), 0o644))

	assert.Eventually(t, func() bool {
		return s.Table().FindByFullName("helper") != nil
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	wg.Wait()
	assert.NoError(t, watchErr)

	// The tree is rebuilt on the watcher goroutine, so read it once that
	// goroutine is gone.
	assert.Equal(t, 3, s.Snapshot(1).Count(), "the open file's tree picks up the new function")
}
