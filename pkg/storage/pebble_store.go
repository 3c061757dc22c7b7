// Package storage persists batch outcomes so operators can audit past
// settlement rounds. The matching core itself keeps no state between
// batches; this is the only durable record.
package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/D9J9V/UniCow/pkg/core"
)

// BatchRecord is one settled batch: the closed order snapshot, the winning
// transfers and the per-order diagnostics.
type BatchRecord struct {
	Seq         uint64
	ClosedAt    int64 // unix seconds when the window closed
	Orders      []core.Order
	Transfers   []core.Transfer
	Diagnostics map[uint64]core.OrderOutcome
}

// PebbleStore keeps batch records in a Pebble KV database.
// Keys: bt:<8-byte-seq> for records, lt for the latest sequence.
type PebbleStore struct {
	db *pebble.DB
}

func kBatch(seq uint64) []byte { return append([]byte("bt:"), seqKey(seq)...) }
func kLatest() []byte          { return []byte("lt") }

func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

// SaveBatch assigns the next sequence number to the record and persists it
// together with the latest-sequence pointer in one atomic write.
func (s *PebbleStore) SaveBatch(rec *BatchRecord) (uint64, error) {
	latest, ok, err := s.LatestSeq()
	if err != nil {
		return 0, err
	}
	seq := uint64(1)
	if ok {
		seq = latest + 1
	}
	rec.Seq = seq

	val, err := encodeGob(rec)
	if err != nil {
		return 0, fmt.Errorf("encode batch %d: %w", seq, err)
	}

	b := s.db.NewBatch()
	defer b.Close()
	if err := b.Set(kBatch(seq), val, nil); err != nil {
		return 0, err
	}
	if err := b.Set(kLatest(), seqKey(seq), nil); err != nil {
		return 0, err
	}
	if err := b.Commit(pebble.Sync); err != nil {
		return 0, fmt.Errorf("commit batch %d: %w", seq, err)
	}
	return seq, nil
}

// GetBatch loads one batch record; ok is false when the sequence is unknown.
func (s *PebbleStore) GetBatch(seq uint64) (*BatchRecord, bool, error) {
	val, closer, err := s.db.Get(kBatch(seq))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer closer.Close()

	var rec BatchRecord
	if err := decodeGob(val, &rec); err != nil {
		return nil, false, fmt.Errorf("decode batch %d: %w", seq, err)
	}
	return &rec, true, nil
}

// LatestSeq returns the most recent batch sequence; ok is false when no
// batch has been stored yet.
func (s *PebbleStore) LatestSeq() (uint64, bool, error) {
	val, closer, err := s.db.Get(kLatest())
	if err != nil {
		if err == pebble.ErrNotFound {
			return 0, false, nil
		}
		return 0, false, err
	}
	defer closer.Close()

	if len(val) != 8 {
		return 0, false, fmt.Errorf("corrupt latest-seq value of %d bytes", len(val))
	}
	return binary.BigEndian.Uint64(val), true, nil
}
