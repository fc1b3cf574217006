// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/convert-drop/internal/httputil"
	"github.com/pdiddy/convert-drop/internal/save"
	"github.com/pdiddy/convert-drop/pkg/types"
)

type stubConverter struct {
	out Outcome
}

func (s stubConverter) Convert(context.Context, types.FileHandle) Outcome { return s.out }

type stubSaver struct {
	mu    sync.Mutex
	saved []types.Artifact
	err   error
}

func (s *stubSaver) Save(a types.Artifact) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	s.saved = append(s.saved, a)
	return "/downloads/" + a.Filename, nil
}

type memRecorder struct {
	mu   sync.Mutex
	jobs []types.UploadJob
	err  error
}

func (m *memRecorder) Record(_ context.Context, job types.UploadJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, job)
	return m.err
}

func TestHandlerProcess_Success(t *testing.T) {
	saver := &stubSaver{}
	rec := &memRecorder{}
	var out bytes.Buffer
	h := NewHandler(stubConverter{out: Outcome{
		Artifact:   &types.Artifact{Payload: []byte("zip"), Filename: "report.zip"},
		HTTPStatus: http.StatusOK,
		FromHeader: true,
	}}, saver, WithRecorder(rec), WithOutput(&out))

	job := h.Process(context.Background(), types.MemoryFile("part.step", []byte("abc")))

	assert.Equal(t, types.JobSucceeded, job.Status)
	assert.True(t, strings.HasPrefix(job.ID, jobIDPrefix))
	assert.Equal(t, "part.step", job.Source)
	assert.Equal(t, int64(3), job.SourceSize)
	assert.Equal(t, "report.zip", job.Filename)
	assert.Equal(t, "/downloads/report.zip", job.SavedPath)
	assert.Equal(t, int64(3), job.Bytes)
	assert.False(t, job.FinishedAt.Before(job.StartedAt))

	require.Len(t, saver.saved, 1)
	require.Len(t, rec.jobs, 1)
	assert.Equal(t, job, rec.jobs[0])
	assert.Equal(t, "converted: part.step -> /downloads/report.zip\n", out.String())
	assert.Equal(t, Tally{Succeeded: 1}, h.Tally())
}

func TestHandlerProcess_ConversionFailureSavesNothing(t *testing.T) {
	saver := &stubSaver{}
	rec := &memRecorder{}
	var out bytes.Buffer
	h := NewHandler(stubConverter{out: Outcome{
		Reason:     types.FailureStatus,
		Err:        &StatusError{Code: http.StatusBadGateway},
		HTTPStatus: http.StatusBadGateway,
	}}, saver, WithRecorder(rec), WithOutput(&out))

	job := h.Process(context.Background(), types.MemoryFile("a.txt", []byte("a")))

	assert.Equal(t, types.JobFailed, job.Status)
	assert.Equal(t, types.FailureStatus, job.Reason)
	assert.Equal(t, http.StatusBadGateway, job.HTTPStatus)
	assert.Contains(t, job.Error, "HTTP 502")
	assert.Empty(t, saver.saved)
	require.Len(t, rec.jobs, 1)
	assert.Equal(t, types.JobFailed, rec.jobs[0].Status)
	assert.True(t, strings.HasPrefix(out.String(), "failed:  a.txt (status: "))
	assert.True(t, h.Tally().HasFailures())
}

func TestHandlerProcess_SaveFailure(t *testing.T) {
	h := NewHandler(stubConverter{out: Outcome{
		Artifact: &types.Artifact{Payload: []byte("x"), Filename: "download.zip"},
	}}, &stubSaver{err: errors.New("disk full")})

	job := h.Process(context.Background(), types.MemoryFile("a.txt", nil))

	assert.Equal(t, types.JobFailed, job.Status)
	assert.Equal(t, types.FailureSave, job.Reason)
	assert.Equal(t, "download.zip", job.Filename)
	assert.Equal(t, "disk full", job.Error)
}

func TestHandlerProcess_RecorderErrorDoesNotFailJob(t *testing.T) {
	rec := &memRecorder{err: errors.New("database is locked")}
	h := NewHandler(stubConverter{out: Outcome{
		Artifact: &types.Artifact{Filename: "a.zip"},
	}}, &stubSaver{}, WithRecorder(rec))

	job := h.Process(context.Background(), types.MemoryFile("a.txt", nil))
	assert.Equal(t, types.JobSucceeded, job.Status)
}

func TestHandlerProcess_PanickingHandleIsContained(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer ts.Close()

	rec := &memRecorder{}
	h := NewHandler(NewClient(ts.Client(), types.ConvertConfig{Endpoint: ts.URL}), &stubSaver{}, WithRecorder(rec))

	bad := types.FileHandle{Name: "bad", Open: func() (io.ReadCloser, error) { panic("corrupt handle") }}
	job := h.Process(context.Background(), bad)

	assert.Equal(t, types.JobFailed, job.Status)
	assert.Equal(t, types.FailureInternal, job.Reason)
	assert.Contains(t, job.Error, "corrupt handle")
	require.Len(t, rec.jobs, 1)
	assert.False(t, rec.jobs[0].FinishedAt.IsZero())
}

func TestHandlerProcess_UniqueJobIDs(t *testing.T) {
	h := NewHandler(stubConverter{out: Outcome{Artifact: &types.Artifact{Filename: "a.zip"}}}, &stubSaver{})
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		job := h.Process(context.Background(), types.MemoryFile("a", nil))
		assert.False(t, seen[job.ID])
		seen[job.ID] = true
	}
}

// TestHandlerProcess_FailureIsolation runs a failing and a succeeding job
// concurrently against a real service and download directory.
func TestHandlerProcess_FailureIsolation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		name := r.MultipartForm.File["files"][0].Filename
		if name == "broken.step" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.Header().Set("Content-Disposition", httputil.Attachment("good.zip"))
		io.WriteString(w, "converted")
	}))
	defer ts.Close()

	dir := t.TempDir()
	rec := &memRecorder{}
	h := NewHandler(
		NewClient(ts.Client(), types.ConvertConfig{Endpoint: ts.URL}),
		save.NewTrigger(dir, types.DefaultFilename),
		WithRecorder(rec),
	)

	var wg sync.WaitGroup
	jobs := make([]types.UploadJob, 2)
	for i, name := range []string{"broken.step", "good.step"} {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			jobs[i] = h.Process(context.Background(), types.MemoryFile(name, []byte(name)))
		}(i, name)
	}
	wg.Wait()

	assert.Equal(t, types.JobFailed, jobs[0].Status)
	assert.Equal(t, types.FailureStatus, jobs[0].Reason)
	assert.Equal(t, types.JobSucceeded, jobs[1].Status)

	data, err := os.ReadFile(filepath.Join(dir, "good.zip"))
	require.NoError(t, err)
	assert.Equal(t, "converted", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "a failed job must not leave an artifact")
	assert.Equal(t, Tally{Succeeded: 1, Failed: 1}, h.Tally())
}
