// Package manifest persists a path -> URL index of extracted files in a bbolt
// database so that lossy projections remain traceable across runs.
package manifest

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/burp2fs/internal/extract/domain"
)

var (
	bucketFiles = []byte("files")
	bucketMeta  = []byte("meta")

	keyRuns    = []byte("runs")
	keyUpdated = []byte("updated")
)

// Stats reports counts and metadata of the manifest.
type Stats struct {
	Files       uint64
	Runs        uint64
	UpdatedUnix int64
}

// Store is a bbolt-backed manifest.
type Store struct {
	db  *bbolt.DB
	run uint64
}

// Open opens (or creates) a manifest database at path and ensures buckets exist.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketFiles); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMeta)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database file lock.
func (s *Store) Close() error { return s.db.Close() }

// BeginRun increments the persisted run counter and returns the new run number.
// Entries recorded afterwards carry it.
func (s *Store) BeginRun(at time.Time) (uint64, error) {
	var run uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if v := b.Get(keyRuns); len(v) == 8 {
			run = binary.BigEndian.Uint64(v)
		}
		run++
		if err := b.Put(keyRuns, u64(run)); err != nil {
			return err
		}
		return b.Put(keyUpdated, u64(uint64(at.Unix())))
	})
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	s.run = run
	return run, nil
}

// Record stores e under its path, replacing an earlier entry for the same file.
func (s *Store) Record(e domain.ManifestEntry) error {
	if e.Run == 0 {
		e.Run = s.run
	}
	val, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketFiles).Put([]byte(e.Path), val); err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keyUpdated, u64(uint64(e.WrittenAt.Unix())))
	})
}

// Lookup returns the entry recorded for path.
func (s *Store) Lookup(path string) (domain.ManifestEntry, bool, error) {
	var (
		e     domain.ManifestEntry
		found bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketFiles).Get([]byte(path))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &e)
	})
	return e, found, err
}

// Walk visits every entry in path order until visit returns false.
func (s *Store) Walk(visit func(domain.ManifestEntry) bool) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketFiles).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var e domain.ManifestEntry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("decode manifest entry %q: %w", k, err)
			}
			if !visit(e) {
				return nil
			}
		}
		return nil
	})
}

// Stats reads counts and metadata in a read-only transaction.
func (s *Store) Stats() Stats {
	st := Stats{}
	_ = s.db.View(func(tx *bbolt.Tx) error {
		st.Files = uint64(tx.Bucket(bucketFiles).Stats().KeyN)
		meta := tx.Bucket(bucketMeta)
		if v := meta.Get(keyRuns); len(v) == 8 {
			st.Runs = binary.BigEndian.Uint64(v)
		}
		if v := meta.Get(keyUpdated); len(v) == 8 {
			st.UpdatedUnix = int64(binary.BigEndian.Uint64(v))
		}
		return nil
	})
	return st
}

func u64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}
