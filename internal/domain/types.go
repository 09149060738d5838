package domain

import "errors"

// PlayerID is the content of a single board cell. Player1 always moves first.
type PlayerID int

const (
	Empty   PlayerID = 0
	Player1 PlayerID = 1
	Player2 PlayerID = 2
)

// Opponent returns the other player. Empty has no opponent and is returned as is.
func (p PlayerID) Opponent() PlayerID {
	switch p {
	case Player1:
		return Player2
	case Player2:
		return Player1
	default:
		return Empty
	}
}

func (p PlayerID) String() string {
	switch p {
	case Player1:
		return "red"
	case Player2:
		return "yellow"
	default:
		return "empty"
	}
}

const (
	Rows    = 6
	Columns = 7
	ToWin   = 4

	// NotFound is returned by LowestEmptyRow when the column has no free cell.
	NotFound = -1
)

// to represent the game status
type GameStatus string

const (
	StatusActive GameStatus = "active"
	StatusWon    GameStatus = "won"
	StatusDraw   GameStatus = "draw"
)

// Mode selects who controls Player2.
type Mode string

const (
	ModeAI        Mode = "ai"
	ModeTwoPlayer Mode = "2player"
)

// ParseMode defaults to ModeAI for anything it does not recognise
func ParseMode(mode string) (Mode, bool) {
	switch Mode(mode) {
	case ModeAI:
		return ModeAI, true
	case ModeTwoPlayer:
		return ModeTwoPlayer, true
	default:
		return ModeAI, false
	}
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty validates and returns the difficulty.
// Defaults to Hard if invalid or empty.
func ParseDifficulty(difficulty string) (Difficulty, bool) {
	switch Difficulty(difficulty) {
	case DifficultyEasy:
		return DifficultyEasy, true
	case DifficultyMedium:
		return DifficultyMedium, true
	case DifficultyHard:
		return DifficultyHard, true
	default:
		return DifficultyHard, false
	}
}

var computerNames = map[Difficulty]string{
	DifficultyEasy:   "Alice",
	DifficultyMedium: "Bob",
	DifficultyHard:   "Charles",
}

// ComputerName is the display name the presentation layer shows for the computer player.
func ComputerName(difficulty Difficulty) string {
	if name, ok := computerNames[difficulty]; ok {
		return name
	}
	return "BOT"
}

// basic error that can occur
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrOutOfRange   Error = "column out of range"
	ErrColumnFull   Error = "column is full"
	ErrEmptyHistory Error = "no moves to undo"
	ErrInvalidState Error = "move not allowed in current state"
	ErrNoMove       Error = "no valid move"
	ErrInvalidSize  Error = "board must be at least 4x4"
)

var errorCodes = map[Error]string{
	ErrOutOfRange:   "out_of_range",
	ErrColumnFull:   "column_full",
	ErrEmptyHistory: "empty_history",
	ErrInvalidState: "invalid_state",
	ErrNoMove:       "no_move",
	ErrInvalidSize:  "invalid_size",
}

// ErrorCode returns the stable wire code for err, or "internal" when err does
// not wrap one of the errors above.
func ErrorCode(err error) string {
	var e Error
	if errors.As(err, &e) {
		if code, ok := errorCodes[e]; ok {
			return code
		}
	}
	return "internal"
}
