package form

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// File is a resume picked by the user, either from disk or from memory.
type File struct {
	Name string
	Size int64
	Path string

	data []byte
}

// FileFromPath describes the file at path without reading it.
func FileFromPath(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("inspecting resume %q: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("resume %q is a directory", path)
	}

	return File{
		Name: filepath.Base(path),
		Size: info.Size(),
		Path: path,
	}, nil
}

// FileFromBytes wraps an in-memory resume.
func FileFromBytes(name string, data []byte) File {
	return File{
		Name: name,
		Size: int64(len(data)),
		data: data,
	}
}

// Ext returns the lowercased extension without the leading dot.
func (f File) Ext() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
}

// Open returns the file content. Callers must close it.
func (f File) Open() (io.ReadCloser, error) {
	if f.Path == "" {
		return io.NopCloser(bytes.NewReader(f.data)), nil
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("opening resume: %w", err)
	}

	return file, nil
}
