// Package archive opens corpus files that may be compressed.
// A trailing ".xz" or ".gz" on the file name selects the codec.
package archive

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// Compression identifies the codec wrapping a corpus file.
type Compression string

// Codecs.
const (
	None Compression = ""
	XZ   Compression = "xz"
	Gzip Compression = "gzip"
)

// Detect returns the codec named by the file's final extension.
func Detect(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xz":
		return XZ
	case ".gz":
		return Gzip
	}
	return None
}

// Strip removes the codec extension, so "kjv.json.xz" becomes "kjv.json".
func Strip(path string) string {
	if Detect(path) == None {
		return path
	}
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// Reader is a decompressing reader over an open file.
type Reader struct {
	io.Reader
	file         *os.File
	decompressor io.Closer
}

// Open opens path for reading, decompressing it when its name carries a
// codec extension.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}

	r := &Reader{Reader: f, file: f}
	switch Detect(path) {
	case XZ:
		xzr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		r.Reader = xzr // xz reader doesn't need closing
	case Gzip:
		gzr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		r.Reader = gzr
		r.decompressor = gzr
	}
	return r, nil
}

// Close closes the decompressor and the underlying file.
func (r *Reader) Close() error {
	var errs []error
	if r.decompressor != nil {
		if err := r.decompressor.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Inflate decompresses path into a temporary file and returns its name.
// Formats that need random access (SQLite, bbolt) load from the copy; the
// caller removes it. An uncompressed path is returned unchanged with a no-op
// cleanup.
func Inflate(path string) (string, func(), error) {
	if Detect(path) == None {
		return path, func() {}, nil
	}

	r, err := Open(path)
	if err != nil {
		return "", nil, err
	}
	defer r.Close()

	tmp, err := os.CreateTemp("", "corpus-*"+filepath.Ext(Strip(path)))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("inflate %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	return tmp.Name(), cleanup, nil
}
