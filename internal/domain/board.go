package domain

import (
	"fmt"
	"strings"
)

// Board is a fixed rows x columns grid. Row 0 is the top row, so pieces
// fall towards rows-1.
type Board struct {
	rows  int
	cols  int
	cells []PlayerID
}

func NewBoard() *Board {
	b, _ := NewBoardSize(Rows, Columns)
	return b
}

func NewBoardSize(rows, cols int) (*Board, error) {
	if rows < ToWin || cols < ToWin {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidSize, rows, cols)
	}
	return &Board{
		rows:  rows,
		cols:  cols,
		cells: make([]PlayerID, rows*cols),
	}, nil
}

// FromSnapshot rebuilds a board from the row-major [][]int form produced by Snapshot.
func FromSnapshot(grid [][]int) (*Board, error) {
	if len(grid) == 0 {
		return nil, ErrInvalidSize
	}
	b, err := NewBoardSize(len(grid), len(grid[0]))
	if err != nil {
		return nil, err
	}
	for r, row := range grid {
		if len(row) != b.cols {
			return nil, fmt.Errorf("row %d has %d cells, want %d", r, len(row), b.cols)
		}
		for c, v := range row {
			p := PlayerID(v)
			if p != Empty && p != Player1 && p != Player2 {
				return nil, fmt.Errorf("invalid cell value %d at (%d,%d)", v, r, c)
			}
			b.cells[r*b.cols+c] = p
		}
	}
	return b, nil
}

func (b *Board) Rows() int    { return b.rows }
func (b *Board) Columns() int { return b.cols }

func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.rows && col >= 0 && col < b.cols
}

// At panics on out-of-range coordinates, like a slice index would.
func (b *Board) At(row, col int) PlayerID {
	return b.cells[row*b.cols+col]
}

func (b *Board) set(row, col int, p PlayerID) {
	b.cells[row*b.cols+col] = p
}

// LowestEmptyRow scans the column bottom-up and returns NotFound when it is full.
func (b *Board) LowestEmptyRow(col int) (int, error) {
	if col < 0 || col >= b.cols {
		return NotFound, fmt.Errorf("%w: %d", ErrOutOfRange, col)
	}
	for row := b.rows - 1; row >= 0; row-- {
		if b.At(row, col) == Empty {
			return row, nil
		}
	}
	return NotFound, nil
}

func (b *Board) IsValidMove(col int) bool {
	if col < 0 || col >= b.cols {
		return false
	}
	// board row 0 is the top row, so a free top cell means the column has room
	return b.At(0, col) == Empty
}

// DropDisk lets the piece fall to the lowest free cell of col and returns its row.
func (b *Board) DropDisk(col int, player PlayerID) (int, error) {
	row, err := b.LowestEmptyRow(col)
	if err != nil {
		return NotFound, err
	}
	if row == NotFound {
		return NotFound, ErrColumnFull
	}
	b.set(row, col, player)
	return row, nil
}

// Clear empties a single cell. Only undo should call this.
func (b *Board) Clear(row, col int) {
	b.set(row, col, Empty)
}

func (b *Board) ValidMoves() []int {
	return b.AppendValidMoves(make([]int, 0, b.cols))
}

// AppendValidMoves appends playable columns to dst in ascending order.
func (b *Board) AppendValidMoves(dst []int) []int {
	for col := 0; col < b.cols; col++ {
		if b.At(0, col) == Empty {
			dst = append(dst, col)
		}
	}
	return dst
}

// IsFull reports whether every top-row cell is occupied; with gravity that means
// the whole board is full.
func (b *Board) IsFull() bool {
	for c := 0; c < b.cols; c++ {
		if b.At(0, c) == Empty {
			return false
		}
	}
	return true
}

func (b *Board) EmptyCount() int {
	n := 0
	for _, p := range b.cells {
		if p == Empty {
			n++
		}
	}
	return n
}

// this creates a deep copy of the board
func (b *Board) Clone() *Board {
	nb := &Board{
		rows:  b.rows,
		cols:  b.cols,
		cells: make([]PlayerID, len(b.cells)),
	}
	copy(nb.cells, b.cells)
	return nb
}

// CopyFrom overwrites b with src. Both boards must have the same dimensions.
func (b *Board) CopyFrom(src *Board) {
	if b.rows != src.rows || b.cols != src.cols {
		panic(fmt.Sprintf("domain: CopyFrom %dx%d into %dx%d", src.rows, src.cols, b.rows, b.cols))
	}
	copy(b.cells, src.cells)
}

func (b *Board) Equal(other *Board) bool {
	if other == nil || b.rows != other.rows || b.cols != other.cols {
		return false
	}
	for i := range b.cells {
		if b.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Snapshot returns the grid as plain ints for rendering and JSON.
func (b *Board) Snapshot() [][]int {
	grid := make([][]int, b.rows)
	for r := range grid {
		grid[r] = make([]int, b.cols)
		for c := range grid[r] {
			grid[r][c] = int(b.At(r, c))
		}
	}
	return grid
}

// Encode returns a compact string key: "<rows>x<cols>:" followed by one digit per cell.
func (b *Board) Encode() string {
	var sb strings.Builder
	sb.Grow(len(b.cells) + 8)
	fmt.Fprintf(&sb, "%dx%d:", b.rows, b.cols)
	for _, p := range b.cells {
		sb.WriteByte(byte('0' + p))
	}
	return sb.String()
}

// this counts the number of disks in a specific direction
func (b *Board) CountDiskInDirection(row, col, deltaRow, deltaCol int, player PlayerID) int {
	count := 0
	r, c := row+deltaRow, col+deltaCol
	for b.InBounds(r, c) && b.At(r, c) == player {
		count++
		r += deltaRow
		c += deltaCol
	}
	return count
}

func (b *Board) String() string {
	var sb strings.Builder
	for r := 0; r < b.rows; r++ {
		for c := 0; c < b.cols; c++ {
			switch b.At(r, c) {
			case Player1:
				sb.WriteByte('X')
			case Player2:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
