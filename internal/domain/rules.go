package domain

// axes are the four line directions; each is walked both ways from a cell.
var axes = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal \
	{1, -1}, // diagonal /
}

// CheckWin reports whether the piece at (row, column) is part of four in a row.
// Only lines passing through that cell are inspected, so it must be called with
// the cell of the move that was just placed.
func CheckWin(board *Board, row, column int) bool {
	player := board.At(row, column)
	if player == Empty {
		return false
	}

	for _, axis := range axes {
		count := 1 + board.CountDiskInDirection(row, column, axis[0], axis[1], player) +
			board.CountDiskInDirection(row, column, -axis[0], -axis[1], player)
		if count >= ToWin {
			return true
		}
	}
	return false
}

// CheckDraw is true iff every cell of the top row is occupied.
func CheckDraw(board *Board) bool {
	return board.IsFull()
}

// ForEachWindow calls fn for every run of ToWin cells on the board, in the order
// horizontal, vertical, diagonal down-right, diagonal down-left. The window array
// is reused between calls.
func ForEachWindow(board *Board, fn func(window *[ToWin]PlayerID)) {
	var w [ToWin]PlayerID
	rows, cols := board.rows, board.cols

	for r := 0; r < rows; r++ {
		for c := 0; c <= cols-ToWin; c++ {
			for i := 0; i < ToWin; i++ {
				w[i] = board.At(r, c+i)
			}
			fn(&w)
		}
	}

	for c := 0; c < cols; c++ {
		for r := 0; r <= rows-ToWin; r++ {
			for i := 0; i < ToWin; i++ {
				w[i] = board.At(r+i, c)
			}
			fn(&w)
		}
	}

	for r := 0; r <= rows-ToWin; r++ {
		for c := 0; c <= cols-ToWin; c++ {
			for i := 0; i < ToWin; i++ {
				w[i] = board.At(r+i, c+i)
			}
			fn(&w)
		}
	}

	for r := 0; r <= rows-ToWin; r++ {
		for c := ToWin - 1; c < cols; c++ {
			for i := 0; i < ToWin; i++ {
				w[i] = board.At(r+i, c-i)
			}
			fn(&w)
		}
	}
}

// HasFourInARow scans the whole board for four of player's pieces in a line.
func HasFourInARow(board *Board, player PlayerID) bool {
	rows, cols := board.rows, board.cols
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if board.At(r, c) != player {
				continue
			}
			for _, axis := range axes {
				endR, endC := r+axis[0]*(ToWin-1), c+axis[1]*(ToWin-1)
				if !board.InBounds(endR, endC) {
					continue
				}
				won := true
				for i := 1; i < ToWin; i++ {
					if board.At(r+axis[0]*i, c+axis[1]*i) != player {
						won = false
						break
					}
				}
				if won {
					return true
				}
			}
		}
	}
	return false
}

// IsTerminal reports a finished position: either player has four in a row or the board is full.
func IsTerminal(board *Board) bool {
	return HasFourInARow(board, Player1) || HasFourInARow(board, Player2) || CheckDraw(board)
}
