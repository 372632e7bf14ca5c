package engine

import (
	"testing"
	"time"

	"github.com/chessplay-core/chessplay-core/internal/board"
)

func TestCoordinatorSearchBasic(t *testing.T) {
	coord := NewCoordinator(16)
	defer coord.Shutdown()

	pos := board.NewPosition()
	results, err := coord.Start(pos, UCILimits{Depth: 4, MoveTime: 2 * time.Second})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	result := <-results
	if result.Move == board.NoMove {
		t.Error("search returned NoMove for starting position")
	}
	if result.Depth < 1 {
		t.Errorf("expected at least one completed iteration, got depth %d", result.Depth)
	}
	t.Logf("best move: %s (score %d, depth %d, nodes %d)", result.Move.String(), result.Score, result.Depth, result.Nodes)
}

// TestCoordinatorCancellation verifies the Testable Properties' cancellation
// scenario: stopping an in-flight infinite search still yields the best move
// of the last completed iteration rather than hanging or returning NoMove.
func TestCoordinatorCancellation(t *testing.T) {
	coord := NewCoordinator(16)
	defer coord.Shutdown()

	pos := board.NewPosition()
	results, err := coord.Start(pos, UCILimits{Infinite: true})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if err := coord.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case result := <-results:
		if result.Move == board.NoMove {
			t.Error("cancelled search returned NoMove for a position with legal moves")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("coordinator did not return a result after Stop")
	}
}

// TestCoordinatorSequentialSearches exercises the rule that a task's
// bestmove is always emitted before the next task is accepted, by driving
// two searches back to back on the same coordinator.
func TestCoordinatorSequentialSearches(t *testing.T) {
	coord := NewCoordinator(16)
	defer coord.Shutdown()

	positions := []string{
		board.StartFEN,
		"r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3",
	}

	for i, fen := range positions {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatalf("position %d: failed to parse FEN: %v", i, err)
		}

		results, err := coord.Start(pos, UCILimits{Depth: 4, MoveTime: time.Second})
		if err != nil {
			t.Fatalf("position %d: Start: %v", i, err)
		}
		result := <-results
		if result.Move == board.NoMove {
			t.Errorf("position %d: search returned NoMove", i)
		}
	}
}

// TestCoordinatorClosedAfterShutdown verifies the documented error-handling
// contract: Start and Stop return ErrCoordinatorClosed once Shutdown has
// run, instead of blocking forever on a worker that is no longer reading
// its task channel.
func TestCoordinatorClosedAfterShutdown(t *testing.T) {
	coord := NewCoordinator(16)
	coord.Shutdown()

	if _, err := coord.Start(board.NewPosition(), UCILimits{Depth: 1}); err != ErrCoordinatorClosed {
		t.Errorf("Start after Shutdown: got err %v, want ErrCoordinatorClosed", err)
	}
	if err := coord.Stop(); err != ErrCoordinatorClosed {
		t.Errorf("Stop after Shutdown: got err %v, want ErrCoordinatorClosed", err)
	}
}

func TestCoordinatorClearTables(t *testing.T) {
	coord := NewCoordinator(16)
	defer coord.Shutdown()

	pos := board.NewPosition()
	results, err := coord.Start(pos, UCILimits{Depth: 4, MoveTime: time.Second})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-results

	coord.ClearTables()

	if _, found := coord.tt.Probe(pos.Hash); found {
		t.Error("expected transposition table to be empty after ClearTables")
	}
}
