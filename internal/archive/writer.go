package archive

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"
)

// Writer is a compressing writer over a created file.
type Writer struct {
	io.Writer
	file       *os.File
	compressor io.Closer
}

// Create creates path, compressing what is written when its name carries a
// codec extension. Parent directories are created as needed.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create corpus file: %w", err)
	}

	w := &Writer{Writer: f, file: f}
	switch Detect(path) {
	case XZ:
		xzw, err := xz.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		w.Writer = xzw
		w.compressor = xzw
	case Gzip:
		gzw := gzip.NewWriter(f)
		w.Writer = gzw
		w.compressor = gzw
	}
	return w, nil
}

// Close flushes the compressor and closes the file.
func (w *Writer) Close() error {
	if w.compressor != nil {
		if err := w.compressor.Close(); err != nil {
			w.file.Close()
			return err
		}
	}
	return w.file.Close()
}

// Deflate compresses the file at src into dst using dst's codec.
func Deflate(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	w, err := Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, in); err != nil {
		w.Close()
		return fmt.Errorf("deflate %s: %w", dst, err)
	}
	return w.Close()
}
