// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert performs the per-file conversion round trip: upload one
// file as a multipart POST, validate the response, pick a filename from the
// Content-Disposition header, and read the converted payload.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/convert-drop/internal/httputil"
	"github.com/pdiddy/convert-drop/pkg/types"
)

// ErrConversion is the generic failure for any non-2xx response. The status
// code is kept on the wrapping *StatusError.
var ErrConversion = errors.New("error converting file")

// errNoReader marks a file handle that has no way to open its contents.
var errNoReader = errors.New("file handle has no reader")

// StatusError reports a non-success response from the conversion service.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: HTTP %d", ErrConversion, e.Code)
}

// Is makes errors.Is(err, ErrConversion) hold for every StatusError.
func (e *StatusError) Is(target error) bool { return target == ErrConversion }

// Outcome is the result of one conversion: either an artifact, or a
// failure reason with its error.
type Outcome struct {
	// Artifact is set only on success.
	Artifact *types.Artifact

	// Reason and Err are set only on failure.
	Reason types.FailureReason
	Err    error

	// HTTPStatus is the response status, 0 when no response arrived.
	HTTPStatus int

	// FromHeader reports whether Artifact.Filename came from the
	// Content-Disposition header rather than the default.
	FromHeader bool
}

// Succeeded reports whether the outcome carries an artifact.
func (o Outcome) Succeeded() bool { return o.Artifact != nil }

func failed(reason types.FailureReason, status int, err error) Outcome {
	return Outcome{Reason: reason, Err: err, HTTPStatus: status}
}

// Converter turns one selected file into an Outcome.
type Converter interface {
	Convert(ctx context.Context, f types.FileHandle) Outcome
}

// Client is the HTTP Converter for a conversion service endpoint.
type Client struct {
	http *http.Client
	cfg  types.ConvertConfig
}

// NewClient returns a Client posting to cfg.Endpoint. cfg.FieldName and
// cfg.DefaultFilename fall back to the package defaults when empty.
func NewClient(client *http.Client, cfg types.ConvertConfig) *Client {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	if cfg.FieldName == "" {
		cfg.FieldName = types.DefaultFieldName
	}
	if cfg.DefaultFilename == "" {
		cfg.DefaultFilename = types.DefaultFilename
	}
	return &Client{http: client, cfg: cfg}
}

// Convert uploads f and returns the converted artifact. It never panics on
// malformed response headers; every failure comes back as an Outcome.
func (c *Client) Convert(ctx context.Context, f types.FileHandle) Outcome {
	content, err := openHandle(f)
	if err != nil {
		return failed(types.FailureOpen, 0, err)
	}
	req, err := httputil.NewUploadRequest(ctx, c.cfg.Endpoint, c.cfg.FieldName, f.Name, content)
	content.Close()
	switch {
	case errors.Is(err, httputil.ErrEndpoint):
		return failed(types.FailureEndpoint, 0, err)
	case err != nil:
		return failed(types.FailureOpen, 0, err)
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return failed(types.FailureTransport, 0, fmt.Errorf("HTTP request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return failed(types.FailureStatus, resp.StatusCode, &StatusError{Code: resp.StatusCode})
	}

	filename, fromHeader := httputil.AttachmentFilename(resp.Header.Get("Content-Disposition"))
	if !fromHeader {
		filename = c.cfg.DefaultFilename
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return failed(types.FailureBody, resp.StatusCode, fmt.Errorf("reading response body: %w", err))
	}

	return Outcome{
		Artifact:   &types.Artifact{Payload: payload, Filename: filename},
		HTTPStatus: resp.StatusCode,
		FromHeader: fromHeader,
	}
}

// openHandle opens f so that open failures are told apart from transport
// failures. The contents are read once, into the request body.
func openHandle(f types.FileHandle) (io.ReadCloser, error) {
	if f.Open == nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, errNoReader)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	return rc, nil
}
