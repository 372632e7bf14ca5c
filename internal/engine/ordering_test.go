package engine

import (
	"testing"

	"github.com/chessplay-core/chessplay-core/internal/board"
)

func TestCounterMoveRoundTrip(t *testing.T) {
	mo := NewMoveOrderer()
	pos := board.NewPosition()

	prevMove := board.NewMove(board.E2, board.E4, board.Pawn)
	counter := board.NewMove(board.E7, board.E5, board.Pawn)

	// Counter moves are keyed by the piece standing on prevMove's
	// destination, so prevMove has to be on the board first.
	pos.MakeMove(prevMove)

	if got := mo.GetCounterMove(prevMove, pos); got != board.NoMove {
		t.Fatalf("expected no counter move before any Update, got %v", got)
	}

	mo.UpdateCounterMove(prevMove, counter, pos)

	if got := mo.GetCounterMove(prevMove, pos); got != counter {
		t.Errorf("GetCounterMove = %v, want %v", got, counter)
	}
}

func TestScoreMovesWithCounterBonusesCounterMove(t *testing.T) {
	mo := NewMoveOrderer()
	pos := board.NewPosition()

	prevMove := board.NewMove(board.B1, board.C3, board.Knight)
	pos.MakeMove(prevMove)

	moves := pos.GenerateLegalMoves()

	var counter board.Move
	for i := 0; i < moves.Len(); i++ {
		if m := moves.Get(i); !m.IsCapture() {
			counter = m
			break
		}
	}
	if counter == board.NoMove {
		t.Fatal("expected at least one quiet legal reply to 1.Nc3")
	}
	mo.UpdateCounterMove(prevMove, counter, pos)

	scores := mo.ScoreMovesWithCounter(pos, moves, 0, board.NoMove, prevMove)

	for i := 0; i < moves.Len(); i++ {
		if moves.Get(i) == counter {
			if scores[i] < KillerScore2-10000 {
				t.Errorf("counter move score = %d, want at least %d", scores[i], KillerScore2-10000)
			}
		}
	}
}

func TestCaptureHistoryRoundTrip(t *testing.T) {
	mo := NewMoveOrderer()

	attacker := board.NewPiece(board.Knight, board.White)
	to := board.D5

	if got := mo.GetCaptureHistoryScore(attacker, to, board.Pawn); got != 0 {
		t.Fatalf("expected zero capture history before any Update, got %d", got)
	}

	mo.UpdateCaptureHistory(attacker, to, board.Pawn, 6, true)

	if got := mo.GetCaptureHistoryScore(attacker, to, board.Pawn); got <= 0 {
		t.Errorf("expected positive capture history after a good-capture update, got %d", got)
	}
}

func TestCountermoveHistoryRoundTrip(t *testing.T) {
	mo := NewMoveOrderer()

	prevMove := board.NewMove(board.E2, board.E4, board.Pawn)
	move := board.NewMove(board.G8, board.F6, board.Knight)
	prevPiece := board.NewPiece(board.Pawn, board.White)
	movePiece := board.NewPiece(board.Knight, board.Black)

	if got := mo.GetCountermoveHistoryScore(prevMove, prevPiece, movePiece, move.To()); got != 0 {
		t.Fatalf("expected zero countermove history before any Update, got %d", got)
	}

	mo.UpdateCountermoveHistory(prevMove, move, prevPiece, movePiece, 4, true)

	if got := mo.GetCountermoveHistoryScore(prevMove, prevPiece, movePiece, move.To()); got <= 0 {
		t.Errorf("expected positive countermove history after a good-move update, got %d", got)
	}
}
