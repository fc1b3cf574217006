// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mesh finds STL surface meshes among saved conversion artifacts,
// either as standalone files or as members of zip archives, so that a viewer
// can be pointed at them.
package mesh

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
)

const (
	stlExt        = ".stl"
	binHeaderSize = 80
	binPrefixSize = binHeaderSize + 4
	triangleSize  = 50
)

// Format distinguishes the two STL encodings.
type Format string

const (
	FormatBinary Format = "binary"
	FormatASCII  Format = "ascii"
)

// ErrNotSTL is returned for payloads that are neither binary nor ASCII STL.
var ErrNotSTL = errors.New("not an STL mesh")

// Info describes one STL mesh.
type Info struct {
	Format Format `json:"format"`

	// Triangles is the facet count.
	Triangles int `json:"triangles"`

	// Size is the mesh size in bytes.
	Size int64 `json:"size"`
}

// IsSTL reports whether name has the .stl extension.
func IsSTL(name string) bool {
	return strings.EqualFold(path.Ext(name), stlExt)
}

// Inspect classifies data as binary or ASCII STL and counts its triangles.
// A binary mesh must be exactly 84 + 50*n bytes for its declared count n.
func Inspect(data []byte) (Info, error) {
	size := int64(len(data))
	if len(data) >= binPrefixSize {
		n := binary.LittleEndian.Uint32(data[binHeaderSize:binPrefixSize])
		if int64(binPrefixSize)+int64(n)*triangleSize == size {
			return Info{Format: FormatBinary, Triangles: int(n), Size: size}, nil
		}
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("solid")) {
		facets := bytes.Count(trimmed, []byte("facet normal"))
		if facets > 0 || bytes.Contains(trimmed, []byte("endsolid")) {
			return Info{Format: FormatASCII, Triangles: facets, Size: size}, nil
		}
	}
	return Info{}, ErrNotSTL
}

// Member is an STL mesh stored inside a zip archive.
type Member struct {
	Name string `json:"name"`
	Info
}

// ArchiveMembers lists the .stl members of a zip archive that inspect as
// valid meshes. Directory entries and unsafe paths are skipped.
func ArchiveMembers(r io.ReaderAt, size int64) ([]Member, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}

	var members []Member
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !IsSTL(f.Name) || !safeMemberName(f.Name) {
			continue
		}
		data, err := readMember(f)
		if err != nil {
			return nil, err
		}
		info, err := Inspect(data)
		if err != nil {
			continue
		}
		members = append(members, Member{Name: f.Name, Info: info})
	}
	return members, nil
}

// ReadMember returns the contents of the named STL member.
func ReadMember(r io.ReaderAt, size int64, name string) ([]byte, error) {
	if !IsSTL(name) || !safeMemberName(name) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotSTL)
	}
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	for _, f := range zr.File {
		if f.Name == name {
			return readMember(f)
		}
	}
	return nil, fmt.Errorf("member %s: %w", name, fs.ErrNotExist)
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening member %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading member %s: %w", f.Name, err)
	}
	return data, nil
}

func safeMemberName(name string) bool {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
