// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// ErrEndpoint marks an endpoint that is not an absolute http(s) URL.
var ErrEndpoint = errors.New("invalid conversion endpoint")

// ValidateEndpoint checks that endpoint is an absolute http or https URL.
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEndpoint, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrEndpoint, endpoint)
	}
	return nil
}

// NewUploadRequest builds a POST to endpoint whose multipart body holds a
// single file part named field with the given filename and contents. The
// body is buffered so the request carries a Content-Length; a zero-length
// file produces a valid, empty part. The endpoint is checked before content
// is read; a bad endpoint is reported as ErrEndpoint.
func NewUploadRequest(ctx context.Context, endpoint, field, filename string, content io.Reader) (*http.Request, error) {
	if err := ValidateEndpoint(endpoint); err != nil {
		return nil, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("creating form part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}
