// Package history keeps a local record of verification runs, so that
// "it crashed correctly last Tuesday" is something that can be looked up
// rather than remembered.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"go.etcd.io/bbolt"
)

// Entry is one recorded child death.
type Entry struct {
	ID         string        `json:"id"`
	Kind       string        `json:"kind"`
	When       time.Time     `json:"when"`
	Duration   time.Duration `json:"duration"`
	Outcome    string        `json:"outcome"`
	CoreDumped bool          `json:"coreDumped"`
	MaxRSS     int64         `json:"maxRSS,omitempty"`
	Passed     bool          `json:"passed"`
	Failure    string        `json:"failure,omitempty"`
}

// Store is a handle on the history database.  Entries are kept in one
// bucket per fault kind, keyed by timestamp so that iteration order is
// chronological.
type Store struct {
	db *bbolt.DB
}

// DefaultPath is where the history database lives unless the caller says
// otherwise.
func DefaultPath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "faultline", "history.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "faultline-history.db")
	}
	return filepath.Join(home, ".local", "share", "faultline", "history.db")
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating %q: %w", filepath.Dir(path), err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening history database %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends entries to the history.
func (s *Store) Record(entries ...Entry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, entry := range entries {
			bucket, err := tx.CreateBucketIfNotExists([]byte(entry.Kind))
			if err != nil {
				return fmt.Errorf("creating bucket %q: %w", entry.Kind, err)
			}
			value, err := json.Marshal(entry)
			if err != nil {
				return fmt.Errorf("encoding entry %q: %w", entry.ID, err)
			}
			key := entry.When.UTC().Format(time.RFC3339Nano) + "-" + entry.ID
			if err := bucket.Put([]byte(key), value); err != nil {
				return fmt.Errorf("storing entry %q: %w", entry.ID, err)
			}
		}
		return nil
	})
}

// List returns recorded entries for one kind, or for every kind when kind
// is empty, oldest first.
func (s *Store) List(kind string) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		collect := func(name []byte, bucket *bbolt.Bucket) error {
			return bucket.ForEach(func(k, v []byte) error {
				var entry Entry
				if err := json.Unmarshal(v, &entry); err != nil {
					return fmt.Errorf("decoding entry %q in bucket %q: %w", string(k), string(name), err)
				}
				entries = append(entries, entry)
				return nil
			})
		}
		if kind != "" {
			bucket := tx.Bucket([]byte(kind))
			if bucket == nil {
				return nil
			}
			return collect([]byte(kind), bucket)
		}
		return tx.ForEach(collect)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].When.Before(entries[j].When) })
	return entries, nil
}
