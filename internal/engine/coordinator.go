package engine

import (
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/chessplay-core/chessplay-core/internal/board"
)

// ErrCoordinatorClosed is returned by Start and Stop once Shutdown has
// been called; the worker goroutine is gone and c.tasks has no reader.
var ErrCoordinatorClosed = errors.New("engine: coordinator is closed")

// SearchResult is the outcome of one coordinator search task.
type SearchResult struct {
	Move    board.Move
	Score   int
	Depth   int
	Nodes   uint64
	Elapsed time.Duration
}

type task struct {
	pos    *board.Position
	limits UCILimits
	result chan SearchResult
}

// Coordinator owns a single dedicated search worker goroutine and the
// transposition table it searches with. It replaces the teacher's
// Lazy-SMP engine (many worker goroutines sharing a result channel)
// with the single-worker, command-channel design this spec calls for.
type Coordinator struct {
	tasks chan task
	clear chan struct{}
	quit  chan struct{}
	done  chan struct{}

	mu sync.Mutex
	tt *TranspositionTable

	searcher *Searcher
	cache    *EvalCache

	closed atomic.Bool
}

// NewCoordinator starts the worker goroutine and allocates a
// transposition table of the given size.
func NewCoordinator(ttSizeMB int) *Coordinator {
	tt := NewTranspositionTable(ttSizeMB)
	cache := NewEvalCache(1 << 16)
	c := &Coordinator{
		tasks:    make(chan task),
		clear:    make(chan struct{}),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		tt:       tt,
		searcher: NewSearcher(tt, cache),
		cache:    cache,
	}
	go c.run()
	return c
}

// run is the worker's main loop: it blocks on its command channel when
// idle and never blocks on anything else while a search is active.
func (c *Coordinator) run() {
	defer close(c.done)
	for {
		select {
		case t := <-c.tasks:
			c.runTask(t)
		case <-c.clear:
			c.mu.Lock()
			c.tt.Clear()
			c.mu.Unlock()
		case <-c.quit:
			return
		}
	}
}

func (c *Coordinator) runTask(t task) {
	c.mu.Lock()
	c.tt.NewSearch()
	c.mu.Unlock()

	maxDepth := t.limits.Depth
	if maxDepth <= 0 || maxDepth > MaxPly-1 {
		maxDepth = MaxPly - 1
	}

	ply := (t.pos.FullMoveNumber - 1) * 2
	if t.pos.SideToMove == board.Black {
		ply++
	}

	tm := NewTimeManager()
	tm.Init(t.limits, t.pos.SideToMove, ply)

	watchdogDone := make(chan struct{})
	go c.watchTime(tm, t.limits, watchdogDone)

	log.Printf("coordinator: search started depth=%d optimum=%s maximum=%s",
		maxDepth, tm.OptimumTime(), tm.MaximumTime())

	adaptive := t.limits.MoveTime == 0 && !t.limits.Infinite

	start := time.Now()
	move, score, depth := c.searcher.SearchIterative(t.pos, maxDepth, tm, adaptive)
	close(watchdogDone)
	elapsed := time.Since(start)
	nodes := c.searcher.Nodes()

	log.Printf("coordinator: search complete move=%s score=%d depth=%d nodes=%s elapsed=%s",
		move.String(), score, depth, humanize.Comma(int64(nodes)), elapsed)

	t.result <- SearchResult{Move: move, Score: score, Depth: depth, Nodes: nodes, Elapsed: elapsed}
	close(t.result)
}

// watchTime polls the time manager and the node budget, requesting
// cancellation once either is exceeded. The search itself enforces no
// hard deadline at its leaves; this is the coordinator's side of the
// soft-deadline contract described in the search component.
func (c *Coordinator) watchTime(tm *TimeManager, limits UCILimits, done <-chan struct{}) {
	if tm.MaximumTime() >= time.Hour && limits.Nodes == 0 {
		return
	}

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if tm.ShouldStop() {
				c.searcher.Stop()
				return
			}
			if limits.Nodes > 0 && c.searcher.Nodes() >= limits.Nodes {
				c.searcher.Stop()
				return
			}
		}
	}
}

// Start enqueues a search task and returns a channel that receives
// exactly one SearchResult when the task completes or is cancelled.
// Replacing an in-flight task is not supported; callers must Stop
// first. Returns ErrCoordinatorClosed once Shutdown has been called.
func (c *Coordinator) Start(pos *board.Position, limits UCILimits) (<-chan SearchResult, error) {
	if c.closed.Load() {
		return nil, ErrCoordinatorClosed
	}
	result := make(chan SearchResult, 1)
	select {
	case c.tasks <- task{pos: pos.Copy(), limits: limits, result: result}:
		return result, nil
	case <-c.quit:
		return nil, ErrCoordinatorClosed
	}
}

// Stop requests cancellation of the in-flight search, if any. The
// worker observes the flag between nodes and returns the best move of
// the last completed iteration. Returns ErrCoordinatorClosed once
// Shutdown has been called.
func (c *Coordinator) Stop() error {
	if c.closed.Load() {
		return ErrCoordinatorClosed
	}
	log.Println("coordinator: stop requested")
	c.searcher.Stop()
	return nil
}

// ClearTables clears the transposition table.
func (c *Coordinator) ClearTables() {
	c.clear <- struct{}{}
}

// Shutdown cancels any in-flight search, stops the worker goroutine,
// and waits for it to exit.
func (c *Coordinator) Shutdown() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	log.Println("coordinator: shutdown requested")
	c.searcher.Stop()
	close(c.quit)
	<-c.done
	c.cache.Close()
}

// EvalCache returns the coordinator's evaluation cache, so callers can
// thread it into Evaluate calls made outside of a search (e.g. a "d"
// debug command printing the static evaluation of the current position).
func (c *Coordinator) EvalCache() *EvalCache {
	return c.cache
}
