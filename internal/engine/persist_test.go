package engine

import (
	"testing"

	"github.com/chessplay-core/chessplay-core/internal/board"
)

func TestSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()

	coord := NewCoordinator(1)
	defer coord.Shutdown()

	move := board.NewMove(board.G1, board.F3, board.Knight)
	coord.tt.Store(0xAABBCCDD11223344, 8, 57, TTExact, move)
	coord.tt.Store(0x1111111122222222, 4, -12, TTLowerBound, board.NoMove)

	if err := coord.SaveSnapshot(dir); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	fresh := NewCoordinator(1)
	defer fresh.Shutdown()

	if err := fresh.LoadSnapshot(dir); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	entry, found := fresh.tt.Probe(0xAABBCCDD11223344)
	if !found {
		t.Fatal("expected entry to survive the snapshot round trip")
	}
	if entry.Depth != 8 || entry.Score != 57 || entry.Flag != TTExact || entry.BestMove != move {
		t.Errorf("wrong entry after load: %+v", entry)
	}
}
