// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package surface

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/convert-drop/pkg/types"
)

const testSettle = 150 * time.Millisecond

// startWatcher runs a Watcher on a fresh drop folder and returns the folder,
// the dispatcher, and a log of state changes.
func startWatcher(t *testing.T) (string, *fakeDispatcher, *stateLog) {
	t.Helper()
	dir := t.TempDir()
	d := &fakeDispatcher{ch: make(chan []types.FileHandle, 4)}
	states := &stateLog{}
	s := New(d, OnStateChange(states.add))
	w := NewWatcher(dir, testSettle, s, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})

	// Give fsnotify a moment to register the watch.
	time.Sleep(50 * time.Millisecond)
	return dir, d, states
}

type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (l *stateLog) add(s State) {
	l.mu.Lock()
	l.states = append(l.states, s)
	l.mu.Unlock()
}

func (l *stateLog) snapshot() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...)
}

func TestWatcher_DropsSettledFiles(t *testing.T) {
	dir, d, states := startWatcher(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.stl"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.stl"), []byte("a"), 0o644))

	select {
	case files := <-d.ch:
		require.Len(t, files, 2)
		assert.Equal(t, "a.stl", files[0].Name)
		assert.Equal(t, "b.stl", files[1].Name)
	case <-time.After(5 * time.Second):
		t.Fatal("drop never dispatched")
	}

	assert.Equal(t, []State{Active, Idle}, states.snapshot())
}

func TestWatcher_RemovedBeforeSettleIsDragLeave(t *testing.T) {
	dir, d, states := startWatcher(t)

	p := filepath.Join(dir, "oops.stl")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	require.NoError(t, os.Remove(p))

	time.Sleep(3 * testSettle)
	assert.Zero(t, d.count())
	assert.Equal(t, []State{Active, Idle}, states.snapshot())
}

func TestWatcher_IgnoresHiddenAndPartialFiles(t *testing.T) {
	dir, d, states := startWatcher(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "big.stl.part"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))

	time.Sleep(3 * testSettle)
	assert.Zero(t, d.count())
	assert.Empty(t, states.snapshot())
}

func TestIgnored(t *testing.T) {
	for name, want := range map[string]bool{
		"part.stl":            false,
		"report.zip":          false,
		".DS_Store":           true,
		"notes.txt~":          true,
		"mesh.stl.part":       true,
		"mesh.stl.crdownload": true,
		"upload.tmp":          true,
	} {
		assert.Equal(t, want, ignored(name), name)
	}
}
