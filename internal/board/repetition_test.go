package board

import "testing"

// TestRepetitionKingShuffle reproduces the documented king-shuffle sequence:
// after f8e8, f1e1, e8f8, e1f1 on 5K2/8/8/8/8/8/8/5k2 w - - 0 1, the position
// has recurred with White to move again and IsRepetition must report true --
// and not before any of the earlier plies in the sequence.
func TestRepetitionKingShuffle(t *testing.T) {
	pos, err := ParseFEN("5K2/8/8/8/8/8/8/5k2 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}

	if pos.IsRepetition() {
		t.Fatal("starting position should not be a repetition")
	}

	moves := []string{"f8e8", "f1e1", "e8f8", "e1f1"}
	for i, mv := range moves {
		m, err := ParseMove(mv, pos)
		if err != nil {
			t.Fatalf("move %d (%s): %v", i, mv, err)
		}
		pos.MakeMove(m)

		want := i == len(moves)-1
		if got := pos.IsRepetition(); got != want {
			t.Fatalf("after move %d (%s): IsRepetition() = %v, want %v", i, mv, got, want)
		}
	}
}
