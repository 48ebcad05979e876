// Package json reads and writes JSON corpora.
//
// Two layouts are accepted, mixed freely at the top level:
//
//	{"창1:1": "태초에 ..."}                       flat composite keys
//	{"창": {"1": {"1": "태초에 ..."}}}            nested book -> chapter -> verse
//
// Key order in the document is the corpus order. Books may be short codes or
// long names. Top-level string entries whose key is not a verse reference,
// such as "version", are skipped. Written corpora use the flat layout.
package json

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/FocuswithJustin/JuniperSearch/core/books"
	"github.com/FocuswithJustin/JuniperSearch/core/corpus"
	"github.com/FocuswithJustin/JuniperSearch/core/errors"
	"github.com/FocuswithJustin/JuniperSearch/internal/archive"
	"github.com/FocuswithJustin/JuniperSearch/internal/formats"
	"github.com/FocuswithJustin/JuniperSearch/internal/logging"
)

// Name is the registered format name.
const Name = "json"

// Handler implements formats.Handler, formats.Decoder and formats.Writer.
type Handler struct{}

func init() {
	formats.Register(&Handler{})
}

// Name implements formats.Handler.
func (h *Handler) Name() string { return Name }

// Extensions implements formats.Handler.
func (h *Handler) Extensions() []string { return []string{".json"} }

// Load implements formats.Handler.
func (h *Handler) Load(path string) (*corpus.Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	c, err := h.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Decode implements formats.Decoder. The document is streamed token by
// token so key order survives.
func (h *Handler) Decode(r io.Reader) (*corpus.Corpus, error) {
	dec := json.NewDecoder(r)
	b := corpus.NewBuilder()
	skipped := 0

	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return nil, err
		}

		tok, err := dec.Token()
		if err != nil {
			return nil, syntaxError(err)
		}
		switch v := tok.(type) {
		case string:
			k, err := corpus.ParseKey(key)
			if err != nil {
				skipped++
				continue
			}
			k.Book = books.ShortOf(k.Book)
			if err := b.Add(k, v); err != nil {
				return nil, err
			}
		case json.Delim:
			if v != '{' {
				return nil, errors.NewParse(Name, key, "expected verse text or chapter object")
			}
			if err := decodeBook(dec, b, books.ShortOf(key)); err != nil {
				return nil, err
			}
		default:
			return nil, errors.NewParse(Name, key, fmt.Sprintf("unexpected value %v", v))
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}
	if skipped > 0 {
		logging.Warn("skipped non-verse keys", "format", Name, "count", skipped)
	}
	return b.Build(), nil
}

// decodeBook reads the chapter object of one book; the opening brace has
// been consumed.
func decodeBook(dec *json.Decoder, b *corpus.Builder, code string) error {
	for dec.More() {
		chKey, err := readKey(dec)
		if err != nil {
			return err
		}
		chapter, err := strconv.Atoi(chKey)
		if err != nil {
			return errors.NewParse(Name, code+chKey, "chapter must be a number")
		}
		if err := expectDelim(dec, '{'); err != nil {
			return err
		}

		for dec.More() {
			vKey, err := readKey(dec)
			if err != nil {
				return err
			}
			verse, err := strconv.Atoi(vKey)
			if err != nil {
				return errors.NewParse(Name, fmt.Sprintf("%s%d:%s", code, chapter, vKey), "verse must be a number")
			}
			var text string
			if err := dec.Decode(&text); err != nil {
				return errors.NewParse(Name, fmt.Sprintf("%s%d:%d", code, chapter, verse), "verse text must be a string")
			}
			if err := b.Add(corpus.Key{Book: code, Chapter: chapter, Verse: verse}, text); err != nil {
				return err
			}
		}
		if err := expectDelim(dec, '}'); err != nil {
			return err
		}
	}
	return expectDelim(dec, '}')
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", syntaxError(err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", errors.NewParse(Name, "", fmt.Sprintf("expected object key, got %v", tok))
	}
	return key, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return syntaxError(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return errors.NewParse(Name, "", fmt.Sprintf("expected %q, got %v", want, tok))
	}
	return nil
}

func syntaxError(err error) error {
	if err == io.EOF {
		return errors.NewParse(Name, "", "unexpected end of document")
	}
	return errors.NewParse(Name, "", err.Error())
}

// Write implements formats.Writer using the flat layout, one verse per line.
func (h *Handler) Write(path string, c *corpus.Corpus) error {
	w, err := archive.Create(path)
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	bw := bufio.NewWriter(w)
	if err := Encode(bw, c); err != nil {
		w.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		w.Close()
		return errors.NewIO("write", path, err)
	}
	return w.Close()
}

// Encode writes c as a flat JSON object in corpus order.
func Encode(w io.Writer, c *corpus.Corpus) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	first := true
	var encErr error
	c.Each(func(v corpus.Verse) bool {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteString("\n  ")
		if encErr = enc.Encode(v.Key.String()); encErr != nil {
			return false
		}
		buf.Truncate(buf.Len() - 1) // Encode appends a newline
		buf.WriteString(": ")
		if encErr = enc.Encode(v.Text); encErr != nil {
			return false
		}
		buf.Truncate(buf.Len() - 1)
		return true
	})
	if encErr != nil {
		return encErr
	}
	if !first {
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")

	_, err := w.Write(buf.Bytes())
	return err
}
