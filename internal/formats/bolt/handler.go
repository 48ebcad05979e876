// Package bolt reads and writes bbolt corpus snapshots.
//
// The "verses" bucket maps an 8-byte big-endian sequence number to a JSON
// verse record, so a cursor walk returns corpus order. The "meta" bucket
// holds the corpus fingerprint, checked on load.
package bolt

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/FocuswithJustin/JuniperSearch/core/books"
	"github.com/FocuswithJustin/JuniperSearch/core/corpus"
	"github.com/FocuswithJustin/JuniperSearch/core/errors"
	"github.com/FocuswithJustin/JuniperSearch/internal/formats"
)

// Name is the registered format name.
const Name = "bolt"

var (
	bucketVerses   = []byte("verses")
	bucketMeta     = []byte("meta")
	keyFingerprint = []byte("fingerprint")
)

// Handler implements formats.Handler and formats.Writer.
type Handler struct{}

func init() {
	formats.Register(&Handler{})
}

// Name implements formats.Handler.
func (h *Handler) Name() string { return Name }

// Extensions implements formats.Handler.
func (h *Handler) Extensions() []string { return []string{".bolt", ".bbolt"} }

func open(path string, readOnly bool) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second, ReadOnly: readOnly})
	if err != nil {
		return nil, errors.NewIO("bbolt open", path, err)
	}
	return db, nil
}

// Load implements formats.Handler.
func (h *Handler) Load(path string) (*corpus.Corpus, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewIO("stat", path, err)
	}
	db, err := open(path, true)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	b := corpus.NewBuilder()
	var want string
	err = db.View(func(tx *bolt.Tx) error {
		vb := tx.Bucket(bucketVerses)
		if vb == nil {
			return errors.NewParse(Name, path, "no 'verses' bucket")
		}
		if mb := tx.Bucket(bucketMeta); mb != nil {
			want = string(mb.Get(keyFingerprint))
		}

		return vb.ForEach(func(k, v []byte) error {
			var rec corpus.Verse
			if err := json.Unmarshal(v, &rec); err != nil {
				return errors.NewParse(Name, path, fmt.Sprintf("verse %d: %v", binary.BigEndian.Uint64(k), err))
			}
			rec.Book = books.ShortOf(rec.Book)
			return b.Add(rec.Key, rec.Text)
		})
	})
	if err != nil {
		return nil, err
	}

	c := b.Build()
	if want != "" && want != c.Fingerprint() {
		return nil, errors.NewParse(Name, path, "fingerprint mismatch")
	}
	return c, nil
}

// Write implements formats.Writer. An existing file at path is replaced.
func (h *Handler) Write(path string, c *corpus.Corpus) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.NewIO("remove", path, err)
	}
	db, err := open(path, false)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		vb, err := tx.CreateBucket(bucketVerses)
		if err != nil {
			return err
		}
		vb.FillPercent = 1.0 // keys are appended in order

		var seq uint64
		var putErr error
		c.Each(func(v corpus.Verse) bool {
			seq++
			data, err := json.Marshal(v)
			if err != nil {
				putErr = err
				return false
			}
			var key [8]byte
			binary.BigEndian.PutUint64(key[:], seq)
			putErr = vb.Put(key[:], data)
			return putErr == nil
		})
		if putErr != nil {
			return fmt.Errorf("put verse %d: %w", seq, putErr)
		}

		mb, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return err
		}
		return mb.Put(keyFingerprint, []byte(c.Fingerprint()))
	})
}
