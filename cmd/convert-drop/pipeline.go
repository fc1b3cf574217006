// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"io"
	"log/slog"

	"github.com/pdiddy/convert-drop/internal/convert"
	"github.com/pdiddy/convert-drop/internal/dispatch"
	"github.com/pdiddy/convert-drop/internal/history"
	"github.com/pdiddy/convert-drop/internal/save"
	"github.com/pdiddy/convert-drop/pkg/types"
)

// pipeline wires dispatcher -> handler -> client/trigger/ledger for one run.
type pipeline struct {
	handler    *convert.Handler
	dispatcher *dispatch.Dispatcher
	store      *history.Store
}

// newPipeline builds the upload pipeline for cfg. Status lines go to out.
// A history ledger that cannot be opened is logged and skipped; jobs still
// run without it.
func newPipeline(cfg types.Config, recordHistory bool, log *slog.Logger, out io.Writer) *pipeline {
	p := &pipeline{}

	opts := []convert.HandlerOption{convert.WithLogger(log), convert.WithOutput(out)}
	if recordHistory && cfg.History.Enabled {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			log.Warn("history disabled", "dir", cfg.History.Dir, "err", err)
		} else {
			p.store = store
			opts = append(opts, convert.WithRecorder(store))
		}
	}

	client := convert.NewClient(nil, cfg.Convert)
	trigger := save.NewTrigger(cfg.Convert.DownloadDir, cfg.Convert.DefaultFilename)
	p.handler = convert.NewHandler(client, trigger, opts...)
	p.dispatcher = dispatch.New(p.handler)
	return p
}

// Close waits for in-flight jobs and then closes the ledger.
func (p *pipeline) Close() {
	p.dispatcher.Wait()
	if p.store != nil {
		p.store.Close()
	}
}
