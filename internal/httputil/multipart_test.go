// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUploadRequest(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"non-empty file", "solid cube\nendsolid cube\n"},
		{"empty file", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewUploadRequest(context.Background(), "http://convert.test/upload", "files", "cube.stl", strings.NewReader(tt.content))
			require.NoError(t, err)

			assert.Equal(t, http.MethodPost, req.Method)
			assert.Equal(t, "http://convert.test/upload", req.URL.String())
			assert.Positive(t, req.ContentLength)

			require.NoError(t, req.ParseMultipartForm(1<<20))
			assert.Empty(t, req.MultipartForm.Value)
			require.Len(t, req.MultipartForm.File, 1)
			files := req.MultipartForm.File["files"]
			require.Len(t, files, 1)
			assert.Equal(t, "cube.stl", files[0].Filename)

			f, err := files[0].Open()
			require.NoError(t, err)
			defer f.Close()
			data, err := io.ReadAll(f)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(data))
		})
	}
}

func TestNewUploadRequest_BadEndpoint(t *testing.T) {
	content := strings.NewReader("x")
	_, err := NewUploadRequest(context.Background(), "://missing-scheme", "files", "a.txt", content)
	assert.ErrorIs(t, err, ErrEndpoint)
	assert.Equal(t, 1, content.Len(), "content is not read for a bad endpoint")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestNewUploadRequest_ReadError(t *testing.T) {
	_, err := NewUploadRequest(context.Background(), "http://convert.test/upload", "files", "a.txt", failingReader{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrEndpoint)
	assert.Contains(t, err.Error(), "disk gone")
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		ok       bool
	}{
		{"http://localhost:8080/convert", true},
		{"https://convert.example.com/api", true},
		{"", false},
		{"localhost:8080/convert", false},
		{"/convert", false},
		{"ftp://convert.example.com/", false},
		{"http://", false},
		{"://missing-scheme", false},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			err := ValidateEndpoint(tt.endpoint)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrEndpoint)
			}
		})
	}
}
