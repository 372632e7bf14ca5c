package engine

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"

	"github.com/chessplay-core/chessplay-core/internal/board"
)

// pawnScore packs the middlegame and endgame pawn-structure score into a
// single ristretto value, avoiding a pointer allocation per cached entry.
type pawnScore struct {
	mg, eg int32
}

// EvalCache is a bounded admission-LRU cache of pawn-structure-dependent
// evaluation terms, keyed by a hash of the pawn occupancy and side to
// move. Unlike a fixed-size direct-mapped table, entries are evicted by
// access frequency rather than always-overwrite, so a cache sized well
// below the working set still keeps its hottest entries.
type EvalCache struct {
	cache *ristretto.Cache[uint64, pawnScore]
}

// NewEvalCache creates an evaluation cache sized for roughly numEntries
// cached pawn structures.
func NewEvalCache(numEntries int64) *EvalCache {
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, pawnScore]{
		NumCounters: numEntries * 10,
		MaxCost:     numEntries,
		BufferItems: 64,
	})
	if err != nil {
		// A misconfigured cache (bad Config fields) is a programmer error,
		// not a runtime condition callers can meaningfully recover from.
		panic(err)
	}
	return &EvalCache{cache: cache}
}

// pawnCacheKey hashes the pawn bitboards of both sides plus side to move
// into a single lookup key, independent of the position's full Zobrist
// hash (which also depends on non-pawn material).
func pawnCacheKey(pos *board.Position) uint64 {
	var buf [17]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(pos.Pieces[board.White][board.Pawn]))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(pos.Pieces[board.Black][board.Pawn]))
	buf[16] = byte(pos.SideToMove)
	return xxhash.Sum64(buf[:])
}

// Probe returns the cached pawn-structure middlegame/endgame scores for
// the position's pawn structure, if present.
func (c *EvalCache) Probe(pos *board.Position) (mg, eg int, found bool) {
	v, found := c.cache.Get(pawnCacheKey(pos))
	if !found {
		return 0, 0, false
	}
	return int(v.mg), int(v.eg), true
}

// Store caches the pawn-structure middlegame/endgame scores for the
// position's pawn structure.
func (c *EvalCache) Store(pos *board.Position, mg, eg int) {
	c.cache.Set(pawnCacheKey(pos), pawnScore{mg: int32(mg), eg: int32(eg)}, 1)
}

// Close releases the cache's background goroutines.
func (c *EvalCache) Close() {
	c.cache.Close()
}
