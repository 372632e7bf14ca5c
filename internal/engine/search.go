package engine

import (
	"sync/atomic"

	"github.com/chessplay-core/chessplay-core/internal/board"
)

// Search constants
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// PVTable stores the principal variation.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// Searcher performs the alpha-beta search.
type Searcher struct {
	pos        *board.Position
	tt         *TranspositionTable
	orderer    *MoveOrderer
	correction *CorrectionHistory
	evalCache  *EvalCache

	// Search state. nodes is atomic because the coordinator's watchdog
	// goroutine reads it (for a node-limit budget) concurrently with the
	// search goroutine incrementing it.
	nodes    atomic.Uint64
	stopFlag atomic.Bool

	// PV tracking
	pv PVTable

	// Undo stack
	undoStack [MaxPly]board.UndoInfo
}

// NewSearcher creates a new searcher. evalCache may be nil, in which
// case the static evaluator recomputes pawn structure on every call.
func NewSearcher(tt *TranspositionTable, evalCache *EvalCache) *Searcher {
	return &Searcher{
		tt:         tt,
		orderer:    NewMoveOrderer(),
		correction: NewCorrectionHistory(),
		evalCache:  evalCache,
	}
}

// evaluate is the static evaluation used throughout the search,
// consulting the eval cache when one is configured.
func (s *Searcher) evaluate(pos *board.Position) int {
	if s.evalCache == nil {
		return Evaluate(pos)
	}
	return EvaluateWithCache(pos, s.evalCache)
}

// Stop signals the search to stop.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Reset resets the searcher for a new search.
func (s *Searcher) Reset() {
	s.stopFlag.Store(false)
	s.nodes.Store(0)
	s.orderer.Clear()
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes.Load()
}

// Search performs the search at the given depth.
func (s *Searcher) Search(pos *board.Position, depth int) (board.Move, int) {
	s.pos = pos.Copy()
	s.Reset()

	score := s.negamax(depth, 0, -Infinity, Infinity, board.NoMove)

	var bestMove board.Move
	if s.pv.length[0] > 0 {
		bestMove = s.pv.moves[0][0]
	}

	return bestMove, score
}

// SearchIterative runs iterative deepening from depth 1 up to maxDepth,
// returning the move and score of the last *completed* iteration. A
// cancellation mid-iteration (via Stop) discards the partial iteration
// and keeps the previous one; if no iteration ever completed, it falls
// back to the first legal root move, per the documented failure
// semantics for a cancelled search.
//
// When tm is non-nil and adaptive is true, best-move stability across
// iterations feeds tm.AdjustForStability/AdjustForInstability, and
// deepening stops once tm.PastOptimum() — this is only safe because tm's
// optimum-time fields are otherwise touched solely by the coordinator's
// watchdog goroutine's maximum-time check, never its optimum-time one, so
// there is no concurrent access to the fields this loop mutates.
func (s *Searcher) SearchIterative(pos *board.Position, maxDepth int, tm *TimeManager, adaptive bool) (bestMove board.Move, bestScore, completedDepth int) {
	s.pos = pos.Copy()
	s.Reset()

	prevMove := board.NoMove
	stable, unstable := 0, 0

	for depth := 1; depth <= maxDepth; depth++ {
		score := s.negamax(depth, 0, -Infinity, Infinity, board.NoMove)
		if s.stopFlag.Load() {
			break
		}

		completedDepth = depth
		bestScore = score
		if s.pv.length[0] > 0 {
			bestMove = s.pv.moves[0][0]
		}

		if bestScore > MateScore-100 || bestScore < -MateScore+100 {
			break
		}

		if tm != nil && adaptive && depth > 1 {
			if bestMove == prevMove {
				stable++
				unstable = 0
				tm.AdjustForStability(stable)
			} else {
				unstable++
				stable = 0
				tm.AdjustForInstability(unstable)
			}
			if tm.PastOptimum() {
				break
			}
		}
		prevMove = bestMove
	}

	if bestMove == board.NoMove {
		if moves := s.pos.GenerateLegalMoves(); moves.Len() > 0 {
			bestMove = moves.Get(0)
		}
	}

	return bestMove, bestScore, completedDepth
}

// negamax implements the negamax algorithm with alpha-beta pruning.
// prevMove is the move that led to this node (board.NoMove at the root),
// used to look up the counter-move and countermove-history tables.
func (s *Searcher) negamax(depth, ply int, alpha, beta int, prevMove board.Move) int {
	// Check for stop signal periodically
	if s.nodes.Load()&4095 == 0 && s.stopFlag.Load() {
		return 0
	}

	s.nodes.Add(1)

	// Initialize PV length for this ply
	s.pv.length[ply] = ply

	// Check for draw
	if ply > 0 && s.isDraw() {
		return 0
	}

	// Probe transposition table
	var ttMove board.Move
	ttEntry, found := s.tt.Probe(s.pos.Hash)
	if found {
		ttMove = ttEntry.BestMove
		if int(ttEntry.Depth) >= depth {
			score := AdjustScoreFromTT(int(ttEntry.Score), ply)
			switch ttEntry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score > alpha {
					alpha = score
				}
			case TTUpperBound:
				if score < beta {
					beta = score
				}
			}
			if alpha >= beta {
				return score
			}
		}
	}

	// Quiescence search at depth 0
	if depth <= 0 {
		return s.quiescence(ply, alpha, beta)
	}

	// Check if in check
	inCheck := s.pos.InCheck()

	// Generate moves
	moves := s.pos.GenerateLegalMoves()

	// Check for checkmate or stalemate
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply // Checkmate
		}
		return 0 // Stalemate
	}

	// Score and sort moves, including the counter-move and countermove
	// history bonuses the plain ScoreMoves doesn't apply.
	scores := s.orderer.ScoreMovesWithCounter(s.pos, moves, ply, ttMove, prevMove)

	bestScore := -Infinity
	bestMove := board.NoMove
	flag := TTUpperBound

	for i := 0; i < moves.Len(); i++ {
		// Pick the best remaining move
		PickMove(moves, scores, i)
		move := moves.Get(i)

		// Make move
		s.undoStack[ply] = s.pos.MakeMove(move)

		// Skip if move was invalid (no piece at from square)
		if !s.undoStack[ply].Valid {
			continue
		}

		// Recursive search
		score := -s.negamax(depth-1, ply+1, -beta, -alpha, move)

		// Unmake move
		s.pos.UnmakeMove(move, s.undoStack[ply])

		// Check for stop
		if s.stopFlag.Load() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move

			if score > alpha {
				alpha = score
				flag = TTExact

				// Update PV
				s.pv.moves[ply][ply] = move
				for j := ply + 1; j < s.pv.length[ply+1]; j++ {
					s.pv.moves[ply][j] = s.pv.moves[ply+1][j]
				}
				s.pv.length[ply] = s.pv.length[ply+1]
			}
		}

		// Beta cutoff
		if score >= beta {
			// Store in TT
			s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(score, ply), TTLowerBound, bestMove)

			if move.IsCapture() {
				// Position was just unmade, so the capturing piece and its
				// victim are back where they started.
				attackerPiece := s.pos.PieceAt(move.From())
				var capturedType board.PieceType
				if move.IsEnPassant() {
					capturedType = board.Pawn
				} else if capturedPiece := s.pos.PieceAt(move.To()); capturedPiece != board.NoPiece {
					capturedType = capturedPiece.Type()
				}
				s.orderer.UpdateCaptureHistory(attackerPiece, move.To(), capturedType, depth, true)
			} else {
				s.orderer.UpdateKillers(move, ply)
				s.orderer.UpdateHistory(move, depth, true)
				s.orderer.UpdateCounterMove(prevMove, move, s.pos)

				if prevMove != board.NoMove {
					prevPiece := s.pos.PieceAt(prevMove.To())
					// The position was just unmade, so the piece that made
					// this quiet move is back on its origin square.
					movePiece := s.pos.PieceAt(move.From())
					s.orderer.UpdateCountermoveHistory(prevMove, move, prevPiece, movePiece, depth, true)
				}
			}

			return score
		}
	}

	// Store in TT
	s.tt.Store(s.pos.Hash, depth, AdjustScoreToTT(bestScore, ply), flag, bestMove)

	// Teach the correction history the gap between what the static
	// evaluator guessed for this position and what the search found,
	// so future stand-pat evaluations of similar positions improve.
	if !inCheck && flag == TTExact {
		s.correction.Update(s.pos, bestScore, s.evaluate(s.pos), depth)
	}

	return bestScore
}

// quiescence searches only captures to avoid horizon effect.
func (s *Searcher) quiescence(ply int, alpha, beta int) int {
	// Depth limit to prevent infinite recursion
	const maxQuiescencePly = 32
	if ply >= MaxPly || ply > maxQuiescencePly {
		return s.evaluate(s.pos)
	}

	// Check for stop
	if s.stopFlag.Load() {
		return 0
	}

	s.nodes.Add(1)

	// Stand pat (evaluate current position, nudged by what past searches
	// of similar positions found the static evaluator got wrong)
	standPat := s.evaluate(s.pos) + s.correction.Get(s.pos)

	if standPat >= beta {
		return beta
	}

	if standPat > alpha {
		alpha = standPat
	}

	// Delta pruning: if we're very far behind, prune
	bigDelta := QueenValue
	if standPat+bigDelta < alpha {
		return alpha
	}

	// Generate captures only
	moves := s.pos.GenerateLegalCaptures()

	// Score captures using MVV-LVA
	scores := s.orderer.ScoreMoves(s.pos, moves, ply, board.NoMove)

	for i := 0; i < moves.Len(); i++ {
		PickMove(moves, scores, i)
		move := moves.Get(i)

		// Delta pruning for individual moves
		// Skip captures that can't improve alpha significantly
		if !s.pos.InCheck() {
			var captureValue int
			if move.IsEnPassant() {
				captureValue = PawnValue
			} else {
				capturedPiece := s.pos.PieceAt(move.To())
				if capturedPiece != board.NoPiece {
					captureValue = pieceValues[capturedPiece.Type()]
				}
			}
			if move.IsPromotion() {
				captureValue += QueenValue - PawnValue
			}
			if standPat+captureValue+200 < alpha {
				continue
			}
		}

		// Make move
		undo := s.pos.MakeMove(move)

		// Skip if move was invalid (no piece at from square)
		if !undo.Valid {
			continue
		}

		// Recursive search
		score := -s.quiescence(ply+1, -beta, -alpha)

		// Unmake move
		s.pos.UnmakeMove(move, undo)

		if score >= beta {
			return beta
		}

		if score > alpha {
			alpha = score
		}
	}

	return alpha
}

// isDraw checks for draw by repetition, the 50-move rule, or insufficient
// material. Repetition is checked against the position's own history
// stack, which covers both moves played before the search started and
// moves made along the current search line.
func (s *Searcher) isDraw() bool {
	if s.pos.HalfMoveClock >= 100 {
		return true
	}

	if s.pos.IsRepetition() {
		return true
	}

	if s.pos.IsInsufficientMaterial() {
		return true
	}

	return false
}

// GetPV returns the principal variation from the last search.
func (s *Searcher) GetPV() []board.Move {
	pv := make([]board.Move, s.pv.length[0])
	for i := 0; i < s.pv.length[0]; i++ {
		pv[i] = s.pv.moves[0][i]
	}
	return pv
}
