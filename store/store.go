// Package store keeps transcripts on flash so they survive reboots and can be
// backed up later.
package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

type Record struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Text   string    `json:"text"`
	Synced bool      `json:"synced"`
}

type Store interface {
	Append(ctx context.Context, t time.Time, text string) error
	// Unsynced returns records not yet backed up, oldest first.
	Unsynced(ctx context.Context) ([]Record, error)
	MarkSynced(ctx context.Context, ids []string) error
	Close() error
}

var (
	recordsBucket = []byte("records")
	// index from record id to its key in records
	idsBucket = []byte("ids")
)

// Bolt is a Store on a single bbolt file. Records are keyed by an
// auto-incrementing sequence so iteration order is append order.
type Bolt struct {
	db *bolt.DB
	// Limit caps how many records Unsynced returns at once. Zero means no cap.
	Limit int
}

func Open(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{recordsBucket, idsBucket} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("store: init buckets: %w", err)
	}
	return &Bolt{db: db, Limit: 500}, nil
}

func key(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

func (s *Bolt) Append(ctx context.Context, t time.Time, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rec := Record{ID: uuid.NewString(), Time: t.UTC(), Text: text}
	val, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(recordsBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		k := key(seq)
		if err := b.Put(k, val); err != nil {
			return fmt.Errorf("store: append: %w", err)
		}
		return tx.Bucket(idsBucket).Put([]byte(rec.ID), k)
	})
}

func (s *Bolt) Unsynced(ctx context.Context) ([]Record, error) {
	var out []Record
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(recordsBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("store: record %x: %w", k, err)
			}
			if r.Synced {
				continue
			}
			out = append(out, r)
			if s.Limit > 0 && len(out) >= s.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}

var ErrUnknownID = errors.New("store: unknown record id")

// MarkSynced flags every id as backed up in one transaction. Unknown ids fail
// the whole call.
func (s *Bolt) MarkSynced(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		recs := tx.Bucket(recordsBucket)
		idx := tx.Bucket(idsBucket)
		for _, id := range ids {
			k := idx.Get([]byte(id))
			if k == nil {
				return fmt.Errorf("%w: %s", ErrUnknownID, id)
			}
			var r Record
			if err := json.Unmarshal(recs.Get(k), &r); err != nil {
				return err
			}
			if r.Synced {
				continue
			}
			r.Synced = true
			val, err := json.Marshal(r)
			if err != nil {
				return err
			}
			if err := recs.Put(k, val); err != nil {
				return err
			}
		}
		return nil
	})
}

// Stats counts stored and unsynced records.
func (s *Bolt) Stats() (total, unsynced int, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(recordsBucket).ForEach(func(_, v []byte) error {
			var r Record
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			total++
			if !r.Synced {
				unsynced++
			}
			return nil
		})
	})
	return total, unsynced, err
}

func (s *Bolt) Close() error {
	return s.db.Close()
}
