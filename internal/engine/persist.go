package engine

import (
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/chessplay-core/chessplay-core/internal/board"
)

// ttEntryRecordSize is the fixed width of one TTEntry encoded for
// storage: 4 bytes Key, 4 bytes BestMove, 2 bytes Score, 1 byte Depth,
// 1 byte Flag.
const ttEntryRecordSize = 12

// SaveSnapshot writes every populated, current-age transposition table
// entry to a BadgerDB database in dir, so a later process can resume
// with a warm table. Stale or empty slots are skipped.
func (c *Coordinator) SaveSnapshot(dir string) error {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open snapshot db: %w", err)
	}
	defer db.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	return db.Update(func(txn *badger.Txn) error {
		for idx, entry := range c.tt.entries {
			if entry.Depth <= 0 || entry.Age != c.tt.age {
				continue
			}

			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, uint64(idx))

			val := make([]byte, ttEntryRecordSize)
			binary.LittleEndian.PutUint32(val[0:4], entry.Key)
			binary.LittleEndian.PutUint32(val[4:8], uint32(entry.BestMove))
			binary.LittleEndian.PutUint16(val[8:10], uint16(entry.Score))
			val[10] = byte(entry.Depth)
			val[11] = byte(entry.Flag)

			if err := txn.Set(key, val); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadSnapshot reads a snapshot written by SaveSnapshot and merges its
// entries into the live transposition table through the table's normal
// replacement policy: a loaded entry overwrites its slot when the slot
// holds an entry from an earlier search generation or one no deeper than
// the loaded entry, and is dropped otherwise.
func (c *Coordinator) LoadSnapshot(dir string) error {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open snapshot db: %w", err)
	}
	defer db.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	return db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			idx := binary.BigEndian.Uint64(item.Key())

			err := item.Value(func(val []byte) error {
				if len(val) != ttEntryRecordSize {
					return fmt.Errorf("corrupt snapshot record (len=%d)", len(val))
				}

				key := binary.LittleEndian.Uint32(val[0:4])
				bestMove := board.Move(binary.LittleEndian.Uint32(val[4:8]))
				score := int16(binary.LittleEndian.Uint16(val[8:10]))
				depth := int8(val[10])
				flag := TTFlag(val[11])

				// idx is the low bits of the original Zobrist hash (the
				// table index); key is the upper 32 bits. Reconstructing
				// a hash from the two lets Store run its normal
				// replacement logic exactly as if this were a live probe.
				hash := uint64(key)<<32 | idx
				c.tt.Store(hash, int(depth), int(score), flag, bestMove)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}
