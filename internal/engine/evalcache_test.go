package engine

import (
	"testing"

	"github.com/chessplay-core/chessplay-core/internal/board"
)

func TestEvalCacheRoundTrip(t *testing.T) {
	cache := NewEvalCache(1024)
	defer cache.Close()

	pos := board.NewPosition()

	if _, _, found := cache.Probe(pos); found {
		t.Error("expected cache miss on first probe")
	}

	cache.Store(pos, -15, -20)

	// ristretto's admission buffer is applied asynchronously; give it a
	// moment to land before asserting the store took effect.
	cache.cache.Wait()

	mg, eg, found := cache.Probe(pos)
	if !found {
		t.Fatal("expected cache hit after store")
	}
	if mg != -15 || eg != -20 {
		t.Errorf("wrong values: got mg=%d, eg=%d, want -15, -20", mg, eg)
	}
}

func TestEvalCacheKeyChangesWithPawnStructure(t *testing.T) {
	cache := NewEvalCache(1024)
	defer cache.Close()

	pos := board.NewPosition()
	keyBefore := pawnCacheKey(pos)

	move := board.NewDoublePawnPush(board.E2, board.E4)
	pos.MakeMove(move)

	keyAfter := pawnCacheKey(pos)
	if keyBefore == keyAfter {
		t.Error("expected pawn cache key to change after a pawn move")
	}
}
