// Package sqlite reads and writes SQLite corpora.
//
// Schema:
//
//	CREATE TABLE verses (
//		seq     INTEGER PRIMARY KEY,
//		book    TEXT    NOT NULL,
//		chapter INTEGER NOT NULL,
//		verse   INTEGER NOT NULL,
//		text    TEXT    NOT NULL
//	);
//
// Rows are read in seq order, which is the corpus order.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/FocuswithJustin/JuniperSearch/core/books"
	"github.com/FocuswithJustin/JuniperSearch/core/corpus"
	"github.com/FocuswithJustin/JuniperSearch/core/errors"
	"github.com/FocuswithJustin/JuniperSearch/core/sqlite"
	"github.com/FocuswithJustin/JuniperSearch/internal/formats"
)

// Name is the registered format name.
const Name = "sqlite"

const schema = `
	CREATE TABLE IF NOT EXISTS verses (
		seq     INTEGER PRIMARY KEY,
		book    TEXT    NOT NULL,
		chapter INTEGER NOT NULL,
		verse   INTEGER NOT NULL,
		text    TEXT    NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_verses_ref ON verses(book, chapter, verse);
`

// magic opens every SQLite 3 database file.
const magic = "SQLite format 3\x00"

// Handler implements formats.Handler and formats.Writer.
type Handler struct{}

func init() {
	formats.Register(&Handler{})
}

// Name implements formats.Handler.
func (h *Handler) Name() string { return Name }

// Extensions implements formats.Handler.
func (h *Handler) Extensions() []string { return []string{".db", ".sqlite", ".sqlite3"} }

// Load implements formats.Handler.
func (h *Handler) Load(path string) (*corpus.Corpus, error) {
	if err := checkMagic(path); err != nil {
		return nil, err
	}

	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer db.Close()

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='verses'").Scan(&count)
	if err != nil || count == 0 {
		return nil, errors.NewParse(Name, path, "no 'verses' table found")
	}

	rows, err := db.Query("SELECT book, chapter, verse, text FROM verses ORDER BY seq")
	if err != nil {
		return nil, errors.NewIO("query", path, err)
	}
	defer rows.Close()

	b := corpus.NewBuilder()
	for rows.Next() {
		var k corpus.Key
		var text string
		if err := rows.Scan(&k.Book, &k.Chapter, &k.Verse, &text); err != nil {
			return nil, errors.NewParse(Name, path, err.Error())
		}
		k.Book = books.ShortOf(k.Book)
		if err := b.Add(k, text); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	return b.Build(), nil
}

func checkMagic(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.NewIO("open", path, err)
	}
	defer f.Close()

	buf := make([]byte, len(magic))
	if n, _ := f.Read(buf); n < len(magic) || string(buf) != magic {
		return errors.NewParse(Name, path, "not a SQLite 3 database")
	}
	return nil
}

// Write implements formats.Writer. An existing file at path is replaced.
func (h *Handler) Write(path string, c *corpus.Corpus) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewIO("remove", path, err)
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := insertAll(tx, c); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func insertAll(tx *sql.Tx, c *corpus.Corpus) error {
	stmt, err := tx.Prepare("INSERT INTO verses (seq, book, chapter, verse, text) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	seq := 0
	var insertErr error
	c.Each(func(v corpus.Verse) bool {
		seq++
		_, insertErr = stmt.Exec(seq, v.Book, v.Chapter, v.Verse, v.Text)
		return insertErr == nil
	})
	if insertErr != nil {
		return fmt.Errorf("insert verse %d: %w", seq, insertErr)
	}
	return nil
}
