package game

import (
	"context"
	"sync"
	"time"

	"github.com/fourinarow/engine/internal/domain"
	"github.com/fourinarow/engine/internal/service/bot"
	"github.com/fourinarow/engine/pkg/logger"
)

// ComputerPlayer is the side the search engine plays in ai mode.
const ComputerPlayer = domain.Player2

// ErrDiscarded is reported to a computer move callback whose search result was
// dropped because the session changed while it ran.
const ErrDiscarded domain.Error = "computer move discarded"

type State string

const (
	StateActive State = "active"
	StatePaused State = "paused"
	StateOver   State = "over"
)

// Mover picks a column for player. *bot.Engine implements it.
type Mover interface {
	ChooseMove(ctx context.Context, board *domain.Board, depth int, player domain.PlayerID) (int, error)
}

type Options struct {
	Rows       int
	Columns    int
	Mode       domain.Mode
	Difficulty domain.Difficulty
}

type Scores struct {
	Red    int `json:"red"`
	Yellow int `json:"yellow"`
}

func (s *Scores) add(p domain.PlayerID, n int) {
	switch p {
	case domain.Player1:
		s.Red += n
	case domain.Player2:
		s.Yellow += n
	}
}

type MoveResult struct {
	Move       domain.Move       `json:"move"`
	Status     domain.GameStatus `json:"status"`
	Winner     domain.PlayerID   `json:"winner"`
	NextPlayer domain.PlayerID   `json:"nextPlayer"`
}

// ComputerMoveResult is passed to the RequestComputerMove callback exactly once.
// Column is domain.NotFound unless Applied is true.
type ComputerMoveResult struct {
	Column  int
	Applied bool
	Result  MoveResult
	Err     error
}

type Snapshot struct {
	ID            string            `json:"id"`
	Rows          int               `json:"rows"`
	Columns       int               `json:"columns"`
	Board         [][]int           `json:"board"`
	CurrentPlayer domain.PlayerID   `json:"currentPlayer"`
	State         State             `json:"state"`
	Status        domain.GameStatus `json:"status"`
	Winner        domain.PlayerID   `json:"winner"`
	Mode          domain.Mode       `json:"mode"`
	Difficulty    domain.Difficulty `json:"difficulty"`
	ComputerName  string            `json:"computerName,omitempty"`
	Scores        Scores            `json:"scores"`
	Moves         []domain.Move     `json:"moves"`
	Thinking      bool              `json:"thinking"`
}

// GameSession owns the authoritative game. Every mutation happens under mu;
// computer searches run on a cloned board and re-enter through completeSearch.
type GameSession struct {
	ID        string
	CreatedAt time.Time

	mu           sync.Mutex
	game         *domain.Game
	mode         domain.Mode
	difficulty   domain.Difficulty
	scores       Scores
	paused       bool
	mover        Mover
	cancel       context.CancelFunc
	generation   uint64
	thinking     bool
	lastActivity time.Time
}

func NewGameSession(id string, mover Mover, opts Options) (*GameSession, error) {
	if opts.Rows == 0 {
		opts.Rows = domain.Rows
	}
	if opts.Columns == 0 {
		opts.Columns = domain.Columns
	}
	if opts.Mode == "" {
		opts.Mode = domain.ModeAI
	}
	if opts.Difficulty == "" {
		opts.Difficulty = domain.DifficultyHard
	}

	g, err := domain.NewGame(opts.Rows, opts.Columns)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &GameSession{
		ID:           id,
		CreatedAt:    now,
		game:         g,
		mode:         opts.Mode,
		difficulty:   opts.Difficulty,
		mover:        mover,
		lastActivity: now,
	}, nil
}

func (s *GameSession) stateLocked() State {
	switch {
	case s.game.IsFinished():
		return StateOver
	case s.paused:
		return StatePaused
	default:
		return StateActive
	}
}

func (s *GameSession) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *GameSession) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// IsComputerTurn reports whether the next move belongs to the search engine.
func (s *GameSession) IsComputerTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.computerTurnLocked() == nil
}

func (s *GameSession) computerTurnLocked() error {
	if s.mode != domain.ModeAI || s.stateLocked() != StateActive || s.game.CurrentPlayer != ComputerPlayer {
		return domain.ErrInvalidState
	}
	return nil
}

// ApplyHumanMove drops a piece for the player to move. It is rejected while
// paused, after the game ended, during a search and on the computer's turn.
func (s *GameSession) ApplyHumanMove(column int) (MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stateLocked() != StateActive || s.thinking {
		return MoveResult{}, domain.ErrInvalidState
	}
	if s.mode == domain.ModeAI && s.game.CurrentPlayer == ComputerPlayer {
		return MoveResult{}, domain.ErrInvalidState
	}
	return s.applyLocked(column)
}

// applyLocked is the single path both move sources use.
func (s *GameSession) applyLocked(column int) (MoveResult, error) {
	move, err := s.game.MakeMove(column)
	if err != nil {
		return MoveResult{}, err
	}
	s.lastActivity = time.Now()

	if s.game.Status == domain.StatusWon {
		s.scores.add(s.game.Winner, 1)
		logger.Info("session", "%s: %s wins after %d moves", s.ID, s.game.Winner, s.game.MoveCount())
	} else if s.game.Status == domain.StatusDraw {
		logger.Info("session", "%s: draw", s.ID)
	}

	return MoveResult{
		Move:       move,
		Status:     s.game.Status,
		Winner:     s.game.Winner,
		NextPlayer: s.game.CurrentPlayer,
	}, nil
}

// RequestComputerMove starts a search for the computer's column and returns
// immediately. Any earlier search is cancelled. onStart, if not nil, runs under
// the session lock before the search goroutine exists, so anything it sends is
// ordered ahead of the result. It must not call back into the session.
// onComplete, if not nil, is called exactly once from the search goroutine
// without the session lock held.
func (s *GameSession) RequestComputerMove(onStart func(computerName string), onComplete func(ComputerMoveResult)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.computerTurnLocked(); err != nil {
		return err
	}

	s.cancelSearchLocked()
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.thinking = true
	gen := s.generation

	board := s.game.Board.Clone()
	depth := bot.DepthFor(s.difficulty)
	name := domain.ComputerName(s.difficulty)
	logger.Debug("bot", "%s: searching depth %d for %s", s.ID, depth, name)
	if onStart != nil {
		onStart(name)
	}

	go func() {
		col, err := s.mover.ChooseMove(ctx, board, depth, ComputerPlayer)
		res := s.completeSearch(gen, col, err)
		if onComplete != nil {
			onComplete(res)
		}
	}()
	return nil
}

func (s *GameSession) completeSearch(gen uint64, column int, searchErr error) ComputerMoveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := ComputerMoveResult{Column: domain.NotFound}
	if gen != s.generation {
		res.Err = ErrDiscarded
		return res
	}

	s.thinking = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	if searchErr != nil {
		res.Err = searchErr
		return res
	}
	if err := s.computerTurnLocked(); err != nil {
		res.Err = ErrDiscarded
		return res
	}

	mr, err := s.applyLocked(column)
	if err != nil {
		logger.Error("bot", "%s: engine returned unplayable column %d: %v", s.ID, column, err)
		res.Err = err
		return res
	}
	res.Column = column
	res.Applied = true
	res.Result = mr
	return res
}

// cancelSearchLocked invalidates the in-flight search, if any.
func (s *GameSession) cancelSearchLocked() {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.thinking = false
}

// Undo takes back the last move. If that move had won, the win is removed
// from the scores again.
func (s *GameSession) Undo() (domain.Move, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hadWinner := s.game.Winner
	move, err := s.game.Undo()
	if err != nil {
		return domain.Move{}, err
	}
	s.cancelSearchLocked()
	s.scores.add(hadWinner, -1)
	s.lastActivity = time.Now()
	return move, nil
}

// Reset starts a new game. Scores are kept.
func (s *GameSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *GameSession) resetLocked() {
	s.cancelSearchLocked()
	s.game.Reset()
	s.paused = false
	s.lastActivity = time.Now()
}

// TogglePause switches between active and paused and returns whether the
// session is now paused. Pausing cancels a running search.
func (s *GameSession) TogglePause() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.game.IsFinished() {
		return s.paused, domain.ErrInvalidState
	}
	s.paused = !s.paused
	if s.paused {
		s.cancelSearchLocked()
	}
	s.lastActivity = time.Now()
	return s.paused, nil
}

// SetMode switches mode and starts a new game.
func (s *GameSession) SetMode(mode domain.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
	s.resetLocked()
}

// SetDifficulty changes the search depth and starts a new game.
func (s *GameSession) SetDifficulty(difficulty domain.Difficulty) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.difficulty = difficulty
	s.resetLocked()
}

// Close cancels any running search. The session must not be used afterwards.
func (s *GameSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelSearchLocked()
}

func (s *GameSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:            s.ID,
		Rows:          s.game.Board.Rows(),
		Columns:       s.game.Board.Columns(),
		Board:         s.game.Board.Snapshot(),
		CurrentPlayer: s.game.CurrentPlayer,
		State:         s.stateLocked(),
		Status:        s.game.Status,
		Winner:        s.game.Winner,
		Mode:          s.mode,
		Difficulty:    s.difficulty,
		Scores:        s.scores,
		Moves:         s.game.History.All(),
		Thinking:      s.thinking,
	}
	if s.mode == domain.ModeAI {
		snap.ComputerName = domain.ComputerName(s.difficulty)
	}
	return snap
}
