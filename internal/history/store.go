// Package history persists a log of past searches so operators can
// revisit what was asked and what it matched. Only our own request log is
// stored; upstream data is never cached here.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketSearches = []byte("searches")
	bucketByTime   = []byte("searches_by_time")
)

// Record is one completed search
type Record struct {
	ID          string    `json:"id"`
	Keyword     string    `json:"keyword"`
	Days        int       `json:"days"`
	Limit       int       `json:"limit"`
	MatchCount  int       `json:"match_count"`
	CampaignIDs []string  `json:"campaign_ids"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is a BoltDB-backed search history
type Store struct {
	db         *bolt.DB
	maxEntries int
}

// Open opens (creating if needed) the history database at path.
// maxEntries bounds the number of retained records; older records are
// pruned on insert.
func Open(path string, maxEntries int) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketSearches, bucketByTime} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, maxEntries: maxEntries}, nil
}

// Put stores one search record and prunes beyond the retention bound
func (s *Store) Put(ctx context.Context, rec *Record) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		searches := tx.Bucket(bucketSearches)
		byTime := tx.Bucket(bucketByTime)

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		if err := searches.Put([]byte(rec.ID), data); err != nil {
			return fmt.Errorf("failed to store record: %w", err)
		}
		if err := byTime.Put(makeIndexKey(rec.CreatedAt, rec.ID), []byte(rec.ID)); err != nil {
			return fmt.Errorf("failed to index record: %w", err)
		}

		return s.prune(tx)
	})
}

// prune removes the oldest records past maxEntries. Runs inside Put's
// transaction.
func (s *Store) prune(tx *bolt.Tx) error {
	if s.maxEntries <= 0 {
		return nil
	}

	byTime := tx.Bucket(bucketByTime)
	searches := tx.Bucket(bucketSearches)

	// Stats().KeyN lags writes made inside this transaction; count with a
	// cursor instead.
	count := 0
	c := byTime.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		count++
	}

	excess := count - s.maxEntries
	if excess <= 0 {
		return nil
	}
	for k, v := c.First(); k != nil && excess > 0; k, v = c.Next() {
		if err := searches.Delete(v); err != nil {
			return err
		}
		if err := c.Delete(); err != nil {
			return err
		}
		excess--
	}
	return nil
}

// Get retrieves one record by id, nil when absent
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	var rec *Record

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSearches).Get([]byte(id))
		if data == nil {
			return nil
		}
		var r Record
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("failed to unmarshal record: %w", err)
		}
		rec = &r
		return nil
	})
	return rec, err
}

// List returns up to limit records, newest first
func (s *Store) List(ctx context.Context, limit int) ([]*Record, error) {
	var records []*Record

	err := s.db.View(func(tx *bolt.Tx) error {
		searches := tx.Bucket(bucketSearches)
		c := tx.Bucket(bucketByTime).Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			data := searches.Get(v)
			if data == nil {
				continue
			}
			var r Record
			if err := json.Unmarshal(data, &r); err != nil {
				continue
			}
			records = append(records, &r)
			if limit > 0 && len(records) >= limit {
				break
			}
		}
		return nil
	})
	return records, err
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// indexKeyLayout is fixed-width so lexicographic key order matches
// chronological order.
const indexKeyLayout = "2006-01-02T15:04:05.000000000Z"

// makeIndexKey builds a time-ordered key; the id suffix keeps same-instant
// records distinct.
func makeIndexKey(t time.Time, id string) []byte {
	return []byte(t.UTC().Format(indexKeyLayout) + "_" + id)
}
