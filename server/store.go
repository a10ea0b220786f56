package server

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned for a block height or computation index that does not exist.
var ErrNotFound = errors.New("computation not found")

// BlockStore keeps sealed blocks of computations. Height 0 is the empty genesis block.
type BlockStore interface {
	// Seal appends one block holding computations and returns its height.
	Seal(computations ...json.RawMessage) (uint64, error)
	Computation(height, index uint64) (json.RawMessage, error)
}

// MemoryStore is a BlockStore that lives as long as the process.
type MemoryStore struct {
	mu     sync.RWMutex
	blocks [][]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blocks: [][]json.RawMessage{{}}}
}

func (s *MemoryStore) Seal(computations ...json.RawMessage) (uint64, error) {
	block := make([]json.RawMessage, len(computations))
	for i, c := range computations {
		block[i] = append(json.RawMessage(nil), c...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks = append(s.blocks, block)
	return uint64(len(s.blocks) - 1), nil
}

func (s *MemoryStore) Computation(height, index uint64) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if height >= uint64(len(s.blocks)) || index >= uint64(len(s.blocks[height])) {
		return nil, ErrNotFound
	}
	return s.blocks[height][index], nil
}

var blocksBucket = []byte("blocks")

// BoltStore persists blocks in a bbolt file so a restarted stub node still answers
// output queries. Every block is a nested bucket keyed by big-endian height, holding
// the computations' bytes keyed by big-endian index.
type BoltStore struct {
	db *bolt.DB
}

func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open block store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(blocksBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init block store: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Seal(computations ...json.RawMessage) (uint64, error) {
	var height uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(blocksBucket)
		// NextSequence starts at 1, which leaves height 0 to genesis.
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		block, err := b.CreateBucket(uint64Key(seq))
		if err != nil {
			return err
		}
		for i, c := range computations {
			if err := block.Put(uint64Key(uint64(i)), c); err != nil {
				return err
			}
		}
		height = seq
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seal block: %w", err)
	}
	return height, nil
}

func (s *BoltStore) Computation(height, index uint64) (json.RawMessage, error) {
	var out json.RawMessage
	err := s.db.View(func(tx *bolt.Tx) error {
		block := tx.Bucket(blocksBucket).Bucket(uint64Key(height))
		if block == nil {
			return ErrNotFound
		}
		v := block.Get(uint64Key(index))
		if v == nil {
			return ErrNotFound
		}
		// v is only valid inside the transaction.
		out = append(json.RawMessage(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func uint64Key(v uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, v)
	return k
}
