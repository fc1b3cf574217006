// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/convert-drop/pkg/types"
)

const jobIDPrefix = "job-"

// Saver persists an artifact and returns where it landed.
type Saver interface {
	Save(a types.Artifact) (string, error)
}

// Recorder stores resolved jobs. Recording is best effort.
type Recorder interface {
	Record(ctx context.Context, job types.UploadJob) error
}

// Tally counts resolved jobs for end-of-run reporting.
type Tally struct {
	Succeeded int
	Failed    int
}

// Total returns the number of resolved jobs.
func (t Tally) Total() int { return t.Succeeded + t.Failed }

// HasFailures reports whether any job failed.
func (t Tally) HasFailures() bool { return t.Failed > 0 }

// Handler runs one upload job end to end: convert, save, record, report.
// Process is the failure boundary for a job: nothing it does can fail or
// block a sibling job.
type Handler struct {
	conv  Converter
	saver Saver
	rec   Recorder
	log   *slog.Logger

	outMu sync.Mutex
	out   io.Writer

	succeeded atomic.Int64
	failed    atomic.Int64
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithRecorder records every resolved job.
func WithRecorder(r Recorder) HandlerOption {
	return func(h *Handler) { h.rec = r }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.log = l }
}

// WithOutput sets the writer receiving one status line per job.
func WithOutput(w io.Writer) HandlerOption {
	return func(h *Handler) { h.out = w }
}

// NewHandler returns a Handler converting with conv and saving with saver.
func NewHandler(conv Converter, saver Saver, opts ...HandlerOption) *Handler {
	h := &Handler{
		conv:  conv,
		saver: saver,
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		out:   io.Discard,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Tally returns the jobs resolved so far.
func (h *Handler) Tally() Tally {
	return Tally{
		Succeeded: int(h.succeeded.Load()),
		Failed:    int(h.failed.Load()),
	}
}

// Process uploads f, saves the converted artifact and returns the resolved
// job. Failures, including a panicking file handle, end up on the returned
// job and in the log; they are never returned or re-panicked.
func (h *Handler) Process(ctx context.Context, f types.FileHandle) (job types.UploadJob) {
	job = types.UploadJob{
		ID:         newJobID(),
		Source:     f.Name,
		SourceSize: f.Size,
		Status:     types.JobPending,
		StartedAt:  time.Now().UTC(),
	}
	h.log.Debug("job started", "job", job.ID, "file", f.Name)

	defer func() {
		if r := recover(); r != nil {
			job = fail(job, types.FailureInternal, fmt.Errorf("panic: %v", r))
		}
		job.FinishedAt = time.Now().UTC()
		h.finish(ctx, job)
	}()

	out := h.conv.Convert(ctx, f)
	job.HTTPStatus = out.HTTPStatus
	if !out.Succeeded() {
		return fail(job, out.Reason, out.Err)
	}

	job.Filename = out.Artifact.Filename
	job.Bytes = int64(len(out.Artifact.Payload))
	if !out.FromHeader {
		h.log.Debug("no attachment filename, using default", "job", job.ID, "filename", job.Filename)
	}

	path, err := h.saver.Save(*out.Artifact)
	if err != nil {
		return fail(job, types.FailureSave, err)
	}
	job.SavedPath = path
	job.Status = types.JobSucceeded
	return job
}

func fail(job types.UploadJob, reason types.FailureReason, err error) types.UploadJob {
	job.Status = types.JobFailed
	job.Reason = reason
	if err != nil {
		job.Error = err.Error()
	}
	return job
}

// finish reports and records a resolved job.
func (h *Handler) finish(ctx context.Context, job types.UploadJob) {
	h.outMu.Lock()
	if job.Status == types.JobSucceeded {
		h.succeeded.Add(1)
		fmt.Fprintf(h.out, "converted: %s -> %s\n", job.Source, job.SavedPath)
	} else {
		h.failed.Add(1)
		fmt.Fprintf(h.out, "failed:  %s (%s: %s)\n", job.Source, job.Reason, job.Error)
	}
	h.outMu.Unlock()

	if job.Status == types.JobSucceeded {
		h.log.Info("job succeeded", "job", job.ID, "file", job.Source, "saved", job.SavedPath, "bytes", job.Bytes)
	} else {
		h.log.Warn("job failed", "job", job.ID, "file", job.Source, "reason", job.Reason, "status", job.HTTPStatus, "err", job.Error)
	}

	if h.rec == nil {
		return
	}
	// A cancelled run still gets its failures recorded.
	if err := h.rec.Record(context.WithoutCancel(ctx), job); err != nil {
		h.log.Warn("recording job failed", "job", job.ID, "err", err)
	}
}

// newJobID returns a time-ordered unique job ID.
func newJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Sprintf(jobIDPrefix+"%d", time.Now().UnixNano())
	}
	return jobIDPrefix + id.String()
}
