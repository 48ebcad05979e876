// Package formats loads and writes corpus files.
//
// Each on-disk format lives in its own subpackage and registers a Handler
// from init. The registry picks a handler by explicit name or by file
// extension; a trailing ".xz" or ".gz" is transparent to every format.
package formats

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/FocuswithJustin/JuniperSearch/core/corpus"
	"github.com/FocuswithJustin/JuniperSearch/core/errors"
	"github.com/FocuswithJustin/JuniperSearch/internal/archive"
)

// Handler reads one corpus format from a file.
type Handler interface {
	Name() string
	Extensions() []string
	Load(path string) (*corpus.Corpus, error)
}

// Decoder is implemented by stream formats. Compressed files of a stream
// format are decoded without a temporary copy.
type Decoder interface {
	Decode(r io.Reader) (*corpus.Corpus, error)
}

// Writer is implemented by formats that can be written.
type Writer interface {
	Write(path string, c *corpus.Corpus) error
}

// DetectResult reports which handler claims a path.
type DetectResult struct {
	Detected bool   `json:"detected"`
	Format   string `json:"format,omitempty"`
	Reason   string `json:"reason"`
}

var (
	mu       sync.RWMutex
	handlers = make(map[string]Handler)
)

// Register adds a handler. Registering a name twice replaces the handler.
func Register(h Handler) {
	mu.Lock()
	defer mu.Unlock()
	handlers[h.Name()] = h
}

// Get returns the handler registered under name.
func Get(name string) (Handler, bool) {
	mu.RLock()
	defer mu.RUnlock()
	h, ok := handlers[strings.ToLower(name)]
	return h, ok
}

// Names returns the registered format names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	return sortedNames()
}

// Detect picks a handler for path. A non-empty format overrides extension
// detection.
func Detect(path, format string) DetectResult {
	if format != "" {
		if _, ok := Get(format); ok {
			return DetectResult{Detected: true, Format: strings.ToLower(format), Reason: "format set explicitly"}
		}
		return DetectResult{Reason: fmt.Sprintf("unknown format %q", format)}
	}

	ext := strings.ToLower(filepath.Ext(archive.Strip(path)))
	if ext == "" {
		return DetectResult{Reason: "no file extension"}
	}

	mu.RLock()
	defer mu.RUnlock()
	for _, name := range sortedNames() {
		for _, e := range handlers[name].Extensions() {
			if ext == e {
				return DetectResult{Detected: true, Format: name, Reason: fmt.Sprintf("%s file extension detected", name)}
			}
		}
	}
	return DetectResult{Reason: fmt.Sprintf("no format handles %s files", ext)}
}

// sortedNames must be called with mu held.
func sortedNames() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resolve(path, format string) (Handler, error) {
	det := Detect(path, format)
	if !det.Detected {
		return nil, errors.NewUnsupported("corpus format", det.Reason)
	}
	h, _ := Get(det.Format)
	return h, nil
}

// LoadStrict loads the corpus at path and reports any failure.
func LoadStrict(path, format string) (*corpus.Corpus, error) {
	h, err := resolve(path, format)
	if err != nil {
		return nil, err
	}

	if archive.Detect(path) != archive.None {
		if d, ok := h.(Decoder); ok {
			r, err := archive.Open(path)
			if err != nil {
				return nil, errors.NewIO("open", path, err)
			}
			defer r.Close()
			return d.Decode(r)
		}

		tmp, cleanup, err := archive.Inflate(path)
		if err != nil {
			return nil, errors.NewIO("inflate", path, err)
		}
		defer cleanup()
		return h.Load(tmp)
	}
	return h.Load(path)
}

// Load loads the corpus at path. Any failure is logged and yields an empty
// corpus, so a server started without its data still answers queries.
func Load(path, format string, logger *slog.Logger) *corpus.Corpus {
	if logger == nil {
		logger = slog.Default()
	}
	c, err := LoadStrict(path, format)
	if err != nil {
		logger.Error("corpus load failed", "path", path, "format", format, "error", err)
		return corpus.Empty()
	}
	return c
}

// Write writes c to path in the selected format, compressing it when path
// carries a codec extension.
func Write(path, format string, c *corpus.Corpus) error {
	h, err := resolve(path, format)
	if err != nil {
		return err
	}
	w, ok := h.(Writer)
	if !ok {
		return errors.NewUnsupported("writing "+h.Name(), "format is read-only")
	}

	if archive.Detect(path) == archive.None {
		return w.Write(path, c)
	}

	dir, err := os.MkdirTemp("", "corpus-write-*")
	if err != nil {
		return errors.NewIO("mkdir", os.TempDir(), err)
	}
	defer os.RemoveAll(dir)

	tmp := filepath.Join(dir, filepath.Base(archive.Strip(path)))
	if err := w.Write(tmp, c); err != nil {
		return err
	}
	return archive.Deflate(tmp, path)
}
