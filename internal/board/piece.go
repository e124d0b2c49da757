package board

// Color is the side to move or the owner of a piece.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

var colorNames = [...]string{"White", "Black", "NoColor"}

// Other returns the opposing color.
func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	if c > Black {
		return colorNames[2]
	}
	return colorNames[c]
}

// PieceType identifies a piece's kind independent of color.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType PieceType = 6
)

var pieceTypeNames = [...]string{"Pawn", "Knight", "Bishop", "Rook", "Queen", "King", "None"}
var pieceTypeChars = [...]byte{'p', 'n', 'b', 'r', 'q', 'k', ' '}

// PieceValue holds the material value of each PieceType in centipawns,
// indexed the same way as pieceTypeChars. A mined Record's position never
// carries an evaluation of its own (that comes from the external engine),
// so this table only backs Piece.Value and Position.Material, rough
// diagnostics that don't need a live engine call.
var PieceValue = [...]int{100, 320, 330, 500, 900, 20000, 0}

func (pt PieceType) String() string {
	if pt > King {
		return pieceTypeNames[6]
	}
	return pieceTypeNames[pt]
}

// Char returns the lowercase FEN letter for pt, or a space if pt is out of range.
func (pt PieceType) Char() byte {
	if pt > NoPieceType {
		return ' '
	}
	return pieceTypeChars[pt]
}

// Piece packs a PieceType and a Color into one value: white pieces occupy
// 0-5, black pieces 6-11, and 12 is the empty-square sentinel NoPiece.
type Piece uint8

const pieceKindCount = Piece(6)

const (
	WhitePawn   Piece = Piece(Pawn)
	WhiteKnight Piece = Piece(Knight)
	WhiteBishop Piece = Piece(Bishop)
	WhiteRook   Piece = Piece(Rook)
	WhiteQueen  Piece = Piece(Queen)
	WhiteKing   Piece = Piece(King)
	BlackPawn   Piece = Piece(Pawn) + pieceKindCount
	BlackKnight Piece = Piece(Knight) + pieceKindCount
	BlackBishop Piece = Piece(Bishop) + pieceKindCount
	BlackRook   Piece = Piece(Rook) + pieceKindCount
	BlackQueen  Piece = Piece(Queen) + pieceKindCount
	BlackKing   Piece = Piece(King) + pieceKindCount
	NoPiece     Piece = 12
)

var pieceChars = [12]byte{'P', 'N', 'B', 'R', 'Q', 'K', 'p', 'n', 'b', 'r', 'q', 'k'}

var pieceFromChar = map[byte]Piece{
	'P': WhitePawn, 'N': WhiteKnight, 'B': WhiteBishop, 'R': WhiteRook, 'Q': WhiteQueen, 'K': WhiteKing,
	'p': BlackPawn, 'n': BlackKnight, 'b': BlackBishop, 'r': BlackRook, 'q': BlackQueen, 'k': BlackKing,
}

// NewPiece builds the Piece for pt/c, or NoPiece if either is out of range.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(pt) + Piece(c)*pieceKindCount
}

// Type reports which PieceType p is, ignoring color.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % pieceKindCount)
}

// Color reports which side owns p.
func (p Piece) Color() Color {
	if p >= NoPiece {
		return NoColor
	}
	return Color(p / pieceKindCount)
}

// String returns the FEN letter for p: uppercase for white, lowercase for
// black, a single space for NoPiece.
func (p Piece) String() string {
	if p >= NoPiece {
		return " "
	}
	return string(pieceChars[p])
}

// PieceFromChar maps one FEN board-character to its Piece, or NoPiece for
// anything it doesn't recognize (including the rank-gap digits and '/').
func PieceFromChar(c byte) Piece {
	if p, ok := pieceFromChar[c]; ok {
		return p
	}
	return NoPiece
}

// Value returns p's rough material worth in centipawns, used only as a
// cheap diagnostic independent of the external engine's own evaluation.
func (p Piece) Value() int {
	return PieceValue[p.Type()]
}
