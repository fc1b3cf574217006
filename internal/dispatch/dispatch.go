// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dispatch starts one independent upload job per selected file.
package dispatch

import (
	"context"
	"sync"

	"github.com/pdiddy/convert-drop/pkg/types"
)

// Processor runs a single upload job to completion. Implementations contain
// their own failures; the dispatcher ignores whatever they return.
type Processor interface {
	Process(ctx context.Context, f types.FileHandle) types.UploadJob
}

// Dispatcher fans a file selection out to a Processor, one goroutine per
// file. Jobs share nothing and complete in whatever order the network
// delivers.
type Dispatcher struct {
	proc Processor
	wg   sync.WaitGroup
}

// New returns a Dispatcher feeding proc.
func New(proc Processor) *Dispatcher {
	return &Dispatcher{proc: proc}
}

// Dispatch starts a job for every file and returns without waiting for any
// of them. An empty selection starts nothing. There is no aggregate result:
// each job reports its own outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, files []types.FileHandle) {
	for _, f := range files {
		d.wg.Add(1)
		go func(f types.FileHandle) {
			defer d.wg.Done()
			d.proc.Process(ctx, f)
		}(f)
	}
}

// Wait blocks until every dispatched job has resolved. It exists so a
// process can exit cleanly; it says nothing about success.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
