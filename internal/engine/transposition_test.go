package engine

import (
	"testing"

	"github.com/chessplay-core/chessplay-core/internal/board"
)

func TestTranspositionStoreProbe(t *testing.T) {
	tt := NewTranspositionTable(1)

	hash := uint64(0x1234567890ABCDEF)
	move := board.NewMove(board.E2, board.E4, board.Pawn)

	if _, found := tt.Probe(hash); found {
		t.Fatal("expected a miss on an empty table")
	}

	tt.Store(hash, 6, 123, TTExact, move)

	entry, found := tt.Probe(hash)
	if !found {
		t.Fatal("expected a hit after Store")
	}
	if entry.Depth != 6 || entry.Score != 123 || entry.Flag != TTExact || entry.BestMove != move {
		t.Errorf("wrong entry: %+v", entry)
	}
}

func TestTranspositionNewSearchAges(t *testing.T) {
	tt := NewTranspositionTable(1)
	hash := uint64(0xDEADBEEFCAFED00D)

	tt.Store(hash, 3, 10, TTExact, board.NoMove)
	tt.NewSearch()

	// A shallower store from the new generation must still replace a
	// deeper entry left over from the previous generation.
	tt.Store(hash, 1, -10, TTUpperBound, board.NoMove)

	entry, found := tt.Probe(hash)
	if !found {
		t.Fatal("expected a hit")
	}
	if entry.Depth != 1 || entry.Score != -10 {
		t.Errorf("new-generation store did not replace stale deeper entry: %+v", entry)
	}
}

// TestMateScoreRescaling exercises the law the coordinator relies on for
// storing and retrieving mate scores at different plies from root: a mate
// score adjusted into a table entry at one ply and read back out at another
// must shift by exactly the difference between the two plies, and a plain
// centipawn score must not move at all.
func TestMateScoreRescaling(t *testing.T) {
	cases := []struct {
		name       string
		score      int
		storePly   int
		retrievePly int
	}{
		{"winning mate, same ply", MateScore - 3, 5, 5},
		{"winning mate, shallower retrieve", MateScore - 3, 7, 2},
		{"losing mate, same ply", -MateScore + 4, 5, 5},
		{"losing mate, shallower retrieve", -MateScore + 4, 7, 2},
		{"ordinary score is ply-invariant", 35, 7, 2},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			stored := AdjustScoreToTT(c.score, c.storePly)
			got := AdjustScoreFromTT(stored, c.retrievePly)

			var want int
			delta := c.storePly - c.retrievePly
			switch {
			case c.score > MateScore-MaxPly:
				want = c.score + delta
			case c.score < -MateScore+MaxPly:
				want = c.score - delta
			default:
				want = c.score
			}

			if got != want {
				t.Errorf("AdjustScoreFromTT(AdjustScoreToTT(%d, %d), %d) = %d, want %d",
					c.score, c.storePly, c.retrievePly, got, want)
			}
		})
	}
}
