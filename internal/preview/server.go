// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preview serves saved conversion artifacts and a viewer page so a
// converted mesh can be inspected in a browser. It only hands the viewer a
// reachable URL; all rendering happens client side.
package preview

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/convert-drop/internal/mesh"
)

//go:embed assets
var assets embed.FS

var viewerPage = template.Must(template.ParseFS(assets, "assets/viewer.html"))

const artifactPrefix = "/artifacts/"

// Artifact describes one saved file and the meshes it holds.
type Artifact struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	URL      string    `json:"url"`
	Meshes   []Mesh    `json:"meshes,omitempty"`
}

// Mesh is a viewable STL mesh with the URLs to fetch and to view it.
type Mesh struct {
	Name      string `json:"name"`
	URL       string `json:"url"`
	ViewerURL string `json:"viewer_url"`
	mesh.Info
}

// Server exposes a download directory over HTTP.
type Server struct {
	dir string
	log *slog.Logger
}

// NewServer returns a Server for the artifacts in dir.
func NewServer(dir string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{dir: dir, log: log}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	static, _ := fs.Sub(assets, "assets")
	router.StaticFS("/assets", http.FS(static))

	router.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/api/artifacts") })
	router.GET("/api/artifacts", s.listArtifacts)
	router.GET("/artifacts/:name", s.getArtifact)
	router.GET("/artifacts/:name/mesh/*entry", s.getArchiveMesh)
	router.GET("/viewer", s.viewer)
}

// Router returns a gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLog())
	s.RegisterRoutes(router)
	return router
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("preview request", "method", c.Request.Method, "path", c.Request.URL.Path,
			"status", c.Writer.Status(), "elapsed", time.Since(start))
	}
}

func (s *Server) listArtifacts(c *gin.Context) {
	entries, err := os.ReadDir(s.dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	artifacts := make([]Artifact, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || hidden(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		a := Artifact{
			Name:     e.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().UTC(),
			URL:      artifactURL(e.Name()),
		}
		a.Meshes = s.meshesIn(a)
		artifacts = append(artifacts, a)
	}
	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].Modified.After(artifacts[j].Modified)
	})
	c.JSON(http.StatusOK, gin.H{"artifacts": artifacts})
}

// meshesIn inspects a saved artifact for viewable meshes. Unreadable files
// simply have none.
func (s *Server) meshesIn(a Artifact) []Mesh {
	p := filepath.Join(s.dir, a.Name)
	switch {
	case mesh.IsSTL(a.Name):
		data, err := os.ReadFile(p)
		if err != nil {
			return nil
		}
		info, err := mesh.Inspect(data)
		if err != nil {
			return nil
		}
		return []Mesh{{Name: a.Name, URL: a.URL, ViewerURL: viewerURL(a.URL), Info: info}}

	case strings.EqualFold(path.Ext(a.Name), ".zip"):
		f, err := os.Open(p)
		if err != nil {
			return nil
		}
		defer f.Close()
		members, err := mesh.ArchiveMembers(f, a.Size)
		if err != nil {
			s.log.Debug("skipping unreadable archive", "name", a.Name, "err", err)
			return nil
		}
		meshes := make([]Mesh, len(members))
		for i, m := range members {
			u := a.URL + "/mesh/" + escapePath(m.Name)
			meshes[i] = Mesh{Name: m.Name, URL: u, ViewerURL: viewerURL(u), Info: m.Info}
		}
		return meshes
	}
	return nil
}

func (s *Server) getArtifact(c *gin.Context) {
	p, ok := s.artifactPath(c)
	if !ok {
		return
	}
	if mesh.IsSTL(p) {
		c.Header("Content-Type", "model/stl")
	}
	c.File(p)
}

func (s *Server) getArchiveMesh(c *gin.Context) {
	p, ok := s.artifactPath(c)
	if !ok {
		return
	}
	entry := strings.TrimPrefix(c.Param("entry"), "/")

	f, err := os.Open(p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	data, err := mesh.ReadMember(f, info.Size(), entry)
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, mesh.ErrNotSTL):
		c.JSON(http.StatusNotFound, gin.H{"error": "mesh not found"})
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.DataFromReader(http.StatusOK, int64(len(data)), "model/stl", bytes.NewReader(data), nil)
}

// artifactPath resolves the :name parameter to a file in the download
// directory, answering 404 itself when it cannot.
func (s *Server) artifactPath(c *gin.Context) (string, bool) {
	name := c.Param("name")
	if name == "" || name != filepath.Base(name) || hidden(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
		return "", false
	}
	p := filepath.Join(s.dir, name)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
		return "", false
	}
	return p, true
}

func (s *Server) viewer(c *gin.Context) {
	u := c.Query("url")
	if !strings.HasPrefix(u, artifactPrefix) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must point at a saved artifact"})
		return
	}
	var buf bytes.Buffer
	if err := viewerPage.Execute(&buf, struct{ URL string }{URL: u}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func artifactURL(name string) string {
	return artifactPrefix + url.PathEscape(name)
}

func viewerURL(meshURL string) string {
	return "/viewer?url=" + url.QueryEscape(meshURL)
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
