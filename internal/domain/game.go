package domain

// Game is the authoritative rules path: every move, human or computer, goes
// through MakeMove so terminal detection happens in exactly one place.
type Game struct {
	Board         *Board
	CurrentPlayer PlayerID
	Status        GameStatus
	Winner        PlayerID
	History       MoveHistory
}

func NewGame(rows, cols int) (*Game, error) {
	board, err := NewBoardSize(rows, cols)
	if err != nil {
		return nil, err
	}
	return &Game{
		Board:         board,
		CurrentPlayer: Player1,
		Status:        StatusActive,
		Winner:        Empty,
	}, nil
}

// Replay rebuilds a game by applying columns in order from an empty board.
func Replay(rows, cols int, columns []int) (*Game, error) {
	g, err := NewGame(rows, cols)
	if err != nil {
		return nil, err
	}
	for _, col := range columns {
		if _, err := g.MakeMove(col); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// MakeMove drops a piece for the current player. On a win or draw the turn is
// not flipped, so CurrentPlayer still names the player who ended the game.
func (g *Game) MakeMove(column int) (Move, error) {
	if g.Status != StatusActive {
		return Move{}, ErrInvalidState
	}

	row, err := g.Board.DropDisk(column, g.CurrentPlayer)
	if err != nil {
		return Move{}, err
	}

	move := Move{Row: row, Column: column, Player: g.CurrentPlayer}
	g.History.Push(move)

	if CheckWin(g.Board, row, column) {
		g.Status = StatusWon
		g.Winner = g.CurrentPlayer
		return move, nil
	}

	if CheckDraw(g.Board) {
		g.Status = StatusDraw
		return move, nil
	}

	g.CurrentPlayer = g.CurrentPlayer.Opponent()
	return move, nil
}

// Undo pops the last move, clears its cell and gives the turn back to the
// player who made it. A game the move had finished becomes active again.
func (g *Game) Undo() (Move, error) {
	last, err := g.History.Pop()
	if err != nil {
		return Move{}, err
	}

	g.Board.Clear(last.Row, last.Column)
	g.CurrentPlayer = last.Player
	g.Status = StatusActive
	g.Winner = Empty
	return last, nil
}

func (g *Game) Reset() {
	g.Board = &Board{rows: g.Board.rows, cols: g.Board.cols, cells: make([]PlayerID, len(g.Board.cells))}
	g.CurrentPlayer = Player1
	g.Status = StatusActive
	g.Winner = Empty
	g.History.Clear()
}

func (g *Game) IsFinished() bool {
	return g.Status == StatusWon || g.Status == StatusDraw
}

func (g *Game) MoveCount() int {
	return g.History.Len()
}
