// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preview

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func binarySTL(n int) []byte {
	buf := make([]byte, 84+n*50)
	binary.LittleEndian.PutUint32(buf[80:], uint32(n))
	return buf
}

// newTestServer fills a download dir with a bare mesh, an archive holding
// a mesh, a plain file, and a leftover temp file.
func newTestServer(t *testing.T) (*gin.Engine, string) {
	t.Helper()
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bracket.stl"), binarySTL(3), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".convert-drop-1.part"), []byte("x"), 0o644))

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("parts/lid one.stl")
	require.NoError(t, err)
	_, err = w.Write(binarySTL(5))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "download.zip"), buf.Bytes(), 0o644))

	return NewServer(dir, nil).Router(), dir
}

func get(router http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestListArtifacts(t *testing.T) {
	router, _ := newTestServer(t)

	rec := get(router, "/api/artifacts")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Artifacts []Artifact `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	byName := make(map[string]Artifact)
	for _, a := range body.Artifacts {
		byName[a.Name] = a
	}
	require.Len(t, byName, 3, "hidden temp files are not listed")

	stl := byName["bracket.stl"]
	require.Len(t, stl.Meshes, 1)
	assert.Equal(t, "/artifacts/bracket.stl", stl.Meshes[0].URL)
	assert.Equal(t, 3, stl.Meshes[0].Triangles)
	assert.Equal(t, "/viewer?url=%2Fartifacts%2Fbracket.stl", stl.Meshes[0].ViewerURL)

	zipped := byName["download.zip"]
	require.Len(t, zipped.Meshes, 1)
	assert.Equal(t, "parts/lid one.stl", zipped.Meshes[0].Name)
	assert.Equal(t, "/artifacts/download.zip/mesh/parts/lid%20one.stl", zipped.Meshes[0].URL)
	assert.Equal(t, 5, zipped.Meshes[0].Triangles)

	assert.Empty(t, byName["notes.txt"].Meshes)
}

func TestListArtifacts_MissingDir(t *testing.T) {
	router := NewServer(filepath.Join(t.TempDir(), "nope"), nil).Router()
	rec := get(router, "/api/artifacts")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"artifacts": []}`, rec.Body.String())
}

func TestGetArtifact(t *testing.T) {
	router, _ := newTestServer(t)

	rec := get(router, "/artifacts/bracket.stl")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "model/stl", rec.Header().Get("Content-Type"))
	assert.Equal(t, binarySTL(3), rec.Body.Bytes())

	rec = get(router, "/artifacts/notes.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hi", rec.Body.String())
}

func TestGetArtifact_NotFound(t *testing.T) {
	router, _ := newTestServer(t)
	for _, target := range []string{
		"/artifacts/missing.zip",
		"/artifacts/.convert-drop-1.part",
		"/artifacts/missing.zip/mesh/a.stl",
	} {
		rec := get(router, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
	}
}

func TestGetArchiveMesh(t *testing.T) {
	router, _ := newTestServer(t)

	rec := get(router, "/artifacts/download.zip/mesh/parts/lid%20one.stl")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "model/stl", rec.Header().Get("Content-Type"))
	assert.Equal(t, binarySTL(5), rec.Body.Bytes())

	rec = get(router, "/artifacts/download.zip/mesh/parts/missing.stl")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(router, "/artifacts/notes.txt/mesh/a.stl")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestViewer(t *testing.T) {
	router, _ := newTestServer(t)

	rec := get(router, "/viewer?url=%2Fartifacts%2Fbracket.stl")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<stl-viewer url="/artifacts/bracket.stl">`)
	assert.Contains(t, rec.Body.String(), `/assets/stl-viewer.js`)

	rec = get(router, "/viewer?url=https%3A%2F%2Fevil.example%2Fx.stl")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(router, "/assets/stl-viewer.js")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "customElements.define('stl-viewer'")
}
