// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"
)

// FileHandle is an opaque selected file: an original name plus a way to read
// its bytes. Handles come from a drop or from the manual picker and are
// consumed exactly once by the dispatcher.
type FileHandle struct {
	// Name is the original file name sent to the conversion service.
	Name string

	// Size is the payload size in bytes, or -1 when unknown.
	Size int64

	// Open returns a reader over the file contents. A nil Open or an Open
	// error fails only the job that owns this handle.
	Open func() (io.ReadCloser, error)
}

// LocalFile returns a handle for a file on disk. The file is not touched
// until the handle is opened.
func LocalFile(path string) FileHandle {
	size := int64(-1)
	if info, err := os.Stat(path); err == nil {
		size = info.Size()
	}
	return FileHandle{
		Name: filepath.Base(path),
		Size: size,
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// MemoryFile returns a handle over an in-memory payload.
func MemoryFile(name string, data []byte) FileHandle {
	return FileHandle{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// JobStatus indicates where an upload job is in its lifecycle.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// IsFinished reports whether the job has resolved either way.
func (s JobStatus) IsFinished() bool {
	return s == JobSucceeded || s == JobFailed
}

// FailureReason classifies why a job produced no artifact.
type FailureReason string

const (
	// FailureOpen means the source file handle could not be read.
	FailureOpen FailureReason = "open"
	// FailureEndpoint means the configured endpoint is not a usable URL.
	FailureEndpoint FailureReason = "endpoint"
	// FailureTransport means the request never got a response
	// (network error, aborted, interrupted).
	FailureTransport FailureReason = "transport"
	// FailureStatus means the service answered with a non-2xx status.
	FailureStatus FailureReason = "status"
	// FailureBody means the response body could not be read in full.
	FailureBody FailureReason = "body"
	// FailureSave means the artifact could not be saved locally.
	FailureSave FailureReason = "save"
	// FailureInternal means the job panicked and was contained.
	FailureInternal FailureReason = "internal"
)

// Artifact is a converted payload plus the filename it should be saved under.
// It exists only until the save action runs.
type Artifact struct {
	Payload  []byte
	Filename string
}

// UploadJob records one file's round trip. It is created by the dispatcher,
// owned by the handler processing it, and never shared with sibling jobs.
type UploadJob struct {
	// ID is a unique job identifier ("job-" + UUIDv7).
	ID string `json:"id" yaml:"id"`

	// Source is the original file name.
	Source string `json:"source" yaml:"source"`

	// SourceSize is the uploaded payload size in bytes (-1 if unknown).
	SourceSize int64 `json:"source_size" yaml:"source_size"`

	// Status is pending until the outcome resolves.
	Status JobStatus `json:"status" yaml:"status"`

	// Reason and Error describe a failed job.
	Reason FailureReason `json:"reason,omitempty" yaml:"reason,omitempty"`
	Error  string        `json:"error,omitempty" yaml:"error,omitempty"`

	// HTTPStatus is the response status code, 0 if no response arrived.
	HTTPStatus int `json:"http_status,omitempty" yaml:"http_status,omitempty"`

	// Filename is the name chosen for the artifact (extracted or default).
	Filename string `json:"filename,omitempty" yaml:"filename,omitempty"`

	// SavedPath is where the artifact landed, which may differ from Filename
	// when the name was already taken.
	SavedPath string `json:"saved_path,omitempty" yaml:"saved_path,omitempty"`

	// Bytes is the artifact size.
	Bytes int64 `json:"bytes,omitempty" yaml:"bytes,omitempty"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}
