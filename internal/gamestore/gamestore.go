// Package gamestore persists the next self-play game index across runs,
// using an embedded BadgerDB transaction to make the read-increment-write
// atomic across process restarts.
package gamestore

import (
	"encoding/binary"

	"github.com/dgraph-io/badger/v4"
)

const keyNextIndex = "next_game_index"

// Store wraps a BadgerDB instance holding a single monotonic counter.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) the index database at dir, typically
// models/latest/index.db.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// NextIndex returns the next unused game index and persists the
// increment, so concurrent or restarted self-play runs never reuse an
// index.
func (s *Store) NextIndex() (int, error) {
	var next int
	err := s.db.Update(func(txn *badger.Txn) error {
		cur := 0
		item, err := txn.Get([]byte(keyNextIndex))
		switch err {
		case nil:
			if err := item.Value(func(val []byte) error {
				cur = int(binary.BigEndian.Uint64(val))
				return nil
			}); err != nil {
				return err
			}
		case badger.ErrKeyNotFound:
			cur = 0
		default:
			return err
		}

		next = cur
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(cur+1))
		return txn.Set([]byte(keyNextIndex), buf)
	})
	return next, err
}
