package board

import "fmt"

// MoveFlag classifies how a move must be interpreted during make/unmake.
// Promotion is orthogonal to the flag: a pawn push or capture onto the
// back rank carries Normal or Capture plus a non-zero Promotion piece.
type MoveFlag uint8

const (
	FlagNormal MoveFlag = iota
	FlagCapture
	FlagDoublePawnPush
	FlagEnPassant
	FlagCastling
)

// Move encodes a chess move in 32 bits:
// bits 0-5:   from square (0-63)
// bits 6-11:  to square (0-63)
// bits 12-14: moved piece type
// bits 15-17: promotion piece type (NoPieceType=none, else Knight..Queen)
// bits 18-20: flag
//
// The moved piece and the flag are carried on the move itself (not
// re-derived from the live position) so a Move remains self-describing
// once replayed out of a transposition-table entry or a PV line recorded
// at a different position.
type Move uint32

// NoMove represents an invalid or null move.
const NoMove Move = 0

func packMove(from, to Square, piece PieceType, promo PieceType, flag MoveFlag) Move {
	return Move(from) |
		Move(to)<<6 |
		Move(piece)<<12 |
		Move(promo)<<15 |
		Move(flag)<<18
}

// NewMove creates a quiet, non-special move.
func NewMove(from, to Square, piece PieceType) Move {
	return packMove(from, to, piece, NoPieceType, FlagNormal)
}

// NewCapture creates a capturing move (not en passant).
func NewCapture(from, to Square, piece PieceType) Move {
	return packMove(from, to, piece, NoPieceType, FlagCapture)
}

// NewDoublePawnPush creates a two-square pawn push, which opens an
// en-passant target on the skipped square.
func NewDoublePawnPush(from, to Square) Move {
	return packMove(from, to, Pawn, NoPieceType, FlagDoublePawnPush)
}

// NewPromotion creates a promoting pawn push or capture.
func NewPromotion(from, to Square, promo PieceType, isCapture bool) Move {
	flag := FlagNormal
	if isCapture {
		flag = FlagCapture
	}
	return packMove(from, to, Pawn, promo, flag)
}

// NewEnPassant creates an en passant capture move.
func NewEnPassant(from, to Square) Move {
	return packMove(from, to, Pawn, NoPieceType, FlagEnPassant)
}

// NewCastling creates a castling move (king's movement; the rook's
// movement is implied by from/to during make/unmake).
func NewCastling(from, to Square) Move {
	return packMove(from, to, King, NoPieceType, FlagCastling)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> 6) & 0x3F)
}

// Piece returns the moved piece's type.
func (m Move) Piece() PieceType {
	return PieceType((m >> 12) & 0x7)
}

// Promotion returns the promotion piece type, or NoPieceType if this
// move does not promote.
func (m Move) Promotion() PieceType {
	return PieceType((m >> 15) & 0x7)
}

// Flag returns the move's flag.
func (m Move) Flag() MoveFlag {
	return MoveFlag((m >> 18) & 0x7)
}

// IsPromotion returns true if this move promotes a pawn.
func (m Move) IsPromotion() bool {
	return m.Promotion() != NoPieceType
}

// IsCastling returns true if this is a castling move.
func (m Move) IsCastling() bool {
	return m.Flag() == FlagCastling
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return m.Flag() == FlagEnPassant
}

// IsCapture returns true if this move captures a piece, including en
// passant. Unlike the teacher encoding, this never needs to consult the
// live position: capture status is carried on the move itself.
func (m Move) IsCapture() bool {
	return m.Flag() == FlagCapture || m.Flag() == FlagEnPassant
}

// IsDoublePawnPush returns true if this move is a two-square pawn push.
func (m Move) IsDoublePawnPush() bool {
	return m.Flag() == FlagDoublePawnPush
}

// IsQuiet returns true if this is neither a capture nor a promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// String returns the UCI format of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()

	if m.IsPromotion() {
		promoChars := []byte{0, 'n', 'b', 'r', 'q'}
		s += string(promoChars[m.Promotion()])
	}

	return s
}

// ParseMove parses a UCI format move string against a live position,
// reconstructing the flag and moved-piece fields the encoding needs.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}
	pt := piece.Type()
	isCapture := !pos.IsEmpty(to)

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		return NewPromotion(from, to, promo, isCapture), nil
	}

	if pt == King && abs(int(to)-int(from)) == 2 {
		return NewCastling(from, to), nil
	}

	if pt == Pawn && to == pos.EnPassant {
		return NewEnPassant(from, to), nil
	}

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		return NewDoublePawnPush(from, to), nil
	}

	if isCapture {
		return NewCapture(from, to, pt), nil
	}
	return NewMove(from, to, pt), nil
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set sets the move at index i.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// UndoInfo stores the position fields MakeMove overwrites, so UnmakeMove
// can restore them without recomputation. Board contents themselves are
// restored by replaying the move in reverse rather than snapshotting the
// bitboards, so this only carries the state that MakeMove can't re-derive
// from the move and the restored bitboards.
type UndoInfo struct {
	CapturedPiece  Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	Checkers       Bitboard
	Pinned         Bitboard
	Valid          bool
}
