// Package export writes rendered command output to a file. The file is
// replaced atomically so a reader never sees a partial listing.
package export

import (
	"bytes"
	"io"

	"github.com/google/renameio/v2"
)

// FileMode is the mode of written files
const FileMode = 0o644

// File buffers output and writes it to Path on Commit
type File struct {
	Path string
	buf  bytes.Buffer
}

// NewFile returns a File that will be written to path
func NewFile(path string) *File {
	return &File{Path: path}
}

// Write appends p to the buffer
func (f *File) Write(p []byte) (int, error) {
	return f.buf.Write(p)
}

// Commit replaces the file at Path with the buffered content
func (f *File) Commit() error {
	return renameio.WriteFile(f.Path, f.buf.Bytes(), FileMode)
}

// Target returns a writer for path, or w when path is empty, and a commit
// function to call once rendering succeeded
func Target(w io.Writer, path string) (io.Writer, func() error) {
	if path == "" {
		return w, func() error { return nil }
	}
	f := NewFile(path)
	return f, f.Commit
}
