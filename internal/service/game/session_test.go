package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/fourinarow/engine/internal/domain"
	"github.com/fourinarow/engine/internal/service/bot"
)

type fixedMover struct {
	column int
	err    error
}

func (m fixedMover) ChooseMove(context.Context, *domain.Board, int, domain.PlayerID) (int, error) {
	return m.column, m.err
}

// gateMover blocks every search until release is closed and ignores cancellation.
type gateMover struct {
	release chan struct{}
	column  int
}

func (m *gateMover) ChooseMove(context.Context, *domain.Board, int, domain.PlayerID) (int, error) {
	<-m.release
	return m.column, nil
}

type blockingMover struct{}

func (blockingMover) ChooseMove(ctx context.Context, _ *domain.Board, _ int, _ domain.PlayerID) (int, error) {
	<-ctx.Done()
	return domain.NotFound, ctx.Err()
}

func newSession(t *testing.T, mover Mover, mode domain.Mode) *GameSession {
	t.Helper()
	s, err := NewGameSession("test", mover, Options{Mode: mode, Difficulty: domain.DifficultyEasy})
	if err != nil {
		t.Fatalf("NewGameSession: %v", err)
	}
	return s
}

func request(t *testing.T, s *GameSession) <-chan ComputerMoveResult {
	t.Helper()
	ch := make(chan ComputerMoveResult, 1)
	if err := s.RequestComputerMove(nil, func(r ComputerMoveResult) { ch <- r }); err != nil {
		t.Fatalf("RequestComputerMove: %v", err)
	}
	return ch
}

func wait(t *testing.T, ch <-chan ComputerMoveResult) ComputerMoveResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(5 * time.Second):
		t.Fatalf("computer move callback was not called")
		return ComputerMoveResult{}
	}
}

func TestNewGameSessionDefaults(t *testing.T) {
	s, err := NewGameSession("id", fixedMover{}, Options{})
	if err != nil {
		t.Fatalf("NewGameSession: %v", err)
	}
	snap := s.Snapshot()
	if snap.Rows != domain.Rows || snap.Columns != domain.Columns {
		t.Errorf("size = %dx%d", snap.Rows, snap.Columns)
	}
	if snap.Mode != domain.ModeAI || snap.Difficulty != domain.DifficultyHard {
		t.Errorf("defaults = %s/%s, want ai/hard", snap.Mode, snap.Difficulty)
	}
	if snap.ComputerName != "Charles" {
		t.Errorf("ComputerName = %q", snap.ComputerName)
	}
	if snap.CurrentPlayer != domain.Player1 || snap.State != StateActive {
		t.Errorf("start = %s/%s", snap.CurrentPlayer, snap.State)
	}

	if _, err := NewGameSession("id", fixedMover{}, Options{Rows: 3, Columns: 7}); !errors.Is(err, domain.ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
}

func TestApplyHumanMoveTwoPlayer(t *testing.T) {
	s := newSession(t, fixedMover{}, domain.ModeTwoPlayer)

	r, err := s.ApplyHumanMove(3)
	if err != nil {
		t.Fatalf("ApplyHumanMove: %v", err)
	}
	if r.Move != (domain.Move{Row: 5, Column: 3, Player: domain.Player1}) || r.NextPlayer != domain.Player2 {
		t.Fatalf("unexpected result %+v", r)
	}
	r, err = s.ApplyHumanMove(3)
	if err != nil {
		t.Fatalf("ApplyHumanMove: %v", err)
	}
	if r.Move.Row != 4 || r.Move.Player != domain.Player2 {
		t.Fatalf("second move = %+v", r.Move)
	}

	if _, err := s.ApplyHumanMove(7); !errors.Is(err, domain.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if _, err := s.ApplyHumanMove(-1); !errors.Is(err, domain.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	for i := 0; i < 4; i++ {
		if _, err := s.ApplyHumanMove(3); err != nil {
			t.Fatalf("filling column: %v", err)
		}
	}
	if _, err := s.ApplyHumanMove(3); !errors.Is(err, domain.ErrColumnFull) {
		t.Errorf("expected ErrColumnFull, got %v", err)
	}
	if len(s.Snapshot().Moves) != 6 {
		t.Errorf("rejected moves must not be recorded")
	}
}

func TestHumanCannotMoveOnComputerTurn(t *testing.T) {
	s := newSession(t, fixedMover{column: 3}, domain.ModeAI)
	if _, err := s.ApplyHumanMove(0); err != nil {
		t.Fatalf("ApplyHumanMove: %v", err)
	}
	if !s.IsComputerTurn() {
		t.Fatalf("expected computer's turn")
	}
	if _, err := s.ApplyHumanMove(1); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestRequestComputerMoveAppliesColumn(t *testing.T) {
	s := newSession(t, fixedMover{column: 3}, domain.ModeAI)
	if _, err := s.ApplyHumanMove(0); err != nil {
		t.Fatalf("ApplyHumanMove: %v", err)
	}

	res := wait(t, request(t, s))
	if res.Err != nil || !res.Applied || res.Column != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Result.Move.Player != ComputerPlayer || res.Result.NextPlayer != domain.Player1 {
		t.Fatalf("unexpected move %+v", res.Result)
	}

	snap := s.Snapshot()
	if snap.Board[5][3] != int(ComputerPlayer) || snap.Thinking {
		t.Fatalf("board or thinking flag wrong: %v thinking=%v", snap.Board, snap.Thinking)
	}
	if _, err := s.ApplyHumanMove(1); err != nil {
		t.Fatalf("human should move again: %v", err)
	}
}

func TestRequestComputerMoveStartHookRunsFirst(t *testing.T) {
	s := newSession(t, fixedMover{column: 3}, domain.ModeAI)
	if _, err := s.ApplyHumanMove(0); err != nil {
		t.Fatalf("ApplyHumanMove: %v", err)
	}

	var events []string
	var mu sync.Mutex
	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}
	done := make(chan ComputerMoveResult, 1)
	err := s.RequestComputerMove(
		func(name string) { record("start:" + name) },
		func(r ComputerMoveResult) { record("done"); done <- r },
	)
	if err != nil {
		t.Fatalf("RequestComputerMove: %v", err)
	}
	wait(t, done)

	mu.Lock()
	defer mu.Unlock()
	want := []string{"start:" + domain.ComputerName(domain.DifficultyEasy), "done"}
	if len(events) != 2 || events[0] != want[0] || events[1] != want[1] {
		t.Fatalf("events = %v, want %v", events, want)
	}
}

func TestRequestComputerMoveRejectedSkipsStartHook(t *testing.T) {
	s := newSession(t, fixedMover{}, domain.ModeAI)
	called := false
	if err := s.RequestComputerMove(func(string) { called = true }, nil); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if called {
		t.Fatalf("start hook ran for a refused request")
	}
}

func TestRequestComputerMoveRejected(t *testing.T) {
	two := newSession(t, fixedMover{}, domain.ModeTwoPlayer)
	two.ApplyHumanMove(0)
	if err := two.RequestComputerMove(nil, nil); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("2player mode: expected ErrInvalidState, got %v", err)
	}

	ai := newSession(t, fixedMover{}, domain.ModeAI)
	if err := ai.RequestComputerMove(nil, nil); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("human's turn: expected ErrInvalidState, got %v", err)
	}

	ai.ApplyHumanMove(0)
	ai.TogglePause()
	if err := ai.RequestComputerMove(nil, nil); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("paused: expected ErrInvalidState, got %v", err)
	}
}

func TestHumanMoveRejectedWhileThinking(t *testing.T) {
	gate := &gateMover{release: make(chan struct{}), column: 2}
	s := newSession(t, gate, domain.ModeAI)
	s.ApplyHumanMove(0)
	ch := request(t, s)

	if !s.Snapshot().Thinking {
		t.Fatalf("expected thinking while search runs")
	}
	if _, err := s.ApplyHumanMove(1); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("move during search: expected ErrInvalidState, got %v", err)
	}
	if _, err := s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if _, err := s.ApplyHumanMove(1); err != nil {
		t.Fatalf("undo should stop the search and allow a move: %v", err)
	}

	close(gate.release)
	if res := wait(t, ch); res.Applied || !errors.Is(res.Err, ErrDiscarded) {
		t.Fatalf("expected discarded result, got %+v", res)
	}
	if got := len(s.Snapshot().Moves); got != 1 {
		t.Fatalf("stale result changed the board: %d moves", got)
	}
}

func TestResetDiscardsInFlightSearch(t *testing.T) {
	gate := &gateMover{release: make(chan struct{}), column: 3}
	s := newSession(t, gate, domain.ModeAI)
	s.ApplyHumanMove(0)
	ch := request(t, s)

	s.Reset()
	close(gate.release)

	res := wait(t, ch)
	if res.Applied || !errors.Is(res.Err, ErrDiscarded) || res.Column != domain.NotFound {
		t.Fatalf("expected discarded result, got %+v", res)
	}
	snap := s.Snapshot()
	if len(snap.Moves) != 0 || snap.Thinking || snap.CurrentPlayer != domain.Player1 {
		t.Fatalf("reset state changed by stale search: %+v", snap)
	}
}

func TestNewRequestSupersedesEarlier(t *testing.T) {
	gate := &gateMover{release: make(chan struct{}), column: 4}
	s := newSession(t, gate, domain.ModeAI)
	s.ApplyHumanMove(0)
	first := request(t, s)
	second := request(t, s)
	close(gate.release)

	if res := wait(t, first); res.Applied || !errors.Is(res.Err, ErrDiscarded) {
		t.Fatalf("earlier request should be discarded, got %+v", res)
	}
	if res := wait(t, second); !res.Applied || res.Column != 4 {
		t.Fatalf("latest request should apply, got %+v", res)
	}
	if got := len(s.Snapshot().Moves); got != 2 {
		t.Fatalf("expected exactly one computer move, have %d moves", got)
	}
}

func TestPauseCancelsSearch(t *testing.T) {
	s := newSession(t, blockingMover{}, domain.ModeAI)
	s.ApplyHumanMove(0)
	ch := request(t, s)

	paused, err := s.TogglePause()
	if err != nil || !paused {
		t.Fatalf("TogglePause = (%v, %v)", paused, err)
	}
	if res := wait(t, ch); res.Applied || !errors.Is(res.Err, ErrDiscarded) {
		t.Fatalf("expected discarded result, got %+v", res)
	}
	if s.State() != StatePaused {
		t.Fatalf("state = %s", s.State())
	}
	if _, err := s.ApplyHumanMove(1); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("paused session accepted a move: %v", err)
	}

	paused, _ = s.TogglePause()
	if paused || !s.IsComputerTurn() {
		t.Fatalf("resume should hand the turn back to the computer")
	}
}

func TestSearchErrorReported(t *testing.T) {
	s := newSession(t, fixedMover{column: domain.NotFound, err: domain.ErrNoMove}, domain.ModeAI)
	s.ApplyHumanMove(0)
	res := wait(t, request(t, s))
	if res.Applied || !errors.Is(res.Err, domain.ErrNoMove) {
		t.Fatalf("expected ErrNoMove, got %+v", res)
	}
	if s.Snapshot().Thinking {
		t.Fatalf("thinking flag left set")
	}
}

func TestScoresUndoAndReset(t *testing.T) {
	s := newSession(t, fixedMover{}, domain.ModeTwoPlayer)
	for _, col := range []int{3, 0, 3, 0, 3, 0, 3} {
		if _, err := s.ApplyHumanMove(col); err != nil {
			t.Fatalf("ApplyHumanMove(%d): %v", col, err)
		}
	}
	snap := s.Snapshot()
	if snap.State != StateOver || snap.Winner != domain.Player1 || snap.Scores.Red != 1 {
		t.Fatalf("after win: %+v", snap)
	}
	if _, err := s.ApplyHumanMove(1); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("move after game over: %v", err)
	}
	if _, err := s.TogglePause(); !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("pause after game over: %v", err)
	}

	move, err := s.Undo()
	if err != nil || move.Column != 3 || move.Player != domain.Player1 {
		t.Fatalf("Undo = (%+v, %v)", move, err)
	}
	snap = s.Snapshot()
	if snap.State != StateActive || snap.Scores.Red != 0 || snap.CurrentPlayer != domain.Player1 {
		t.Fatalf("after undo: %+v", snap)
	}

	s.ApplyHumanMove(3)
	s.Reset()
	snap = s.Snapshot()
	if snap.Scores.Red != 1 || len(snap.Moves) != 0 || snap.State != StateActive {
		t.Fatalf("after reset: %+v", snap)
	}
	if _, err := s.Undo(); !errors.Is(err, domain.ErrEmptyHistory) {
		t.Fatalf("expected ErrEmptyHistory, got %v", err)
	}
}

func TestSetModeAndDifficultyReset(t *testing.T) {
	s := newSession(t, fixedMover{}, domain.ModeTwoPlayer)
	s.ApplyHumanMove(2)
	s.TogglePause()

	s.SetMode(domain.ModeAI)
	snap := s.Snapshot()
	if snap.Mode != domain.ModeAI || len(snap.Moves) != 0 || snap.State != StateActive {
		t.Fatalf("after SetMode: %+v", snap)
	}

	s.ApplyHumanMove(2)
	s.SetDifficulty(domain.DifficultyMedium)
	snap = s.Snapshot()
	if snap.Difficulty != domain.DifficultyMedium || len(snap.Moves) != 0 || snap.ComputerName != "Bob" {
		t.Fatalf("after SetDifficulty: %+v", snap)
	}
}

func TestFullGamesAgainstEngine(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	engine := bot.NewEngine(bot.WithSeed(21))

	for game := 0; game < 5; game++ {
		s := newSession(t, engine, domain.ModeAI)
		for s.State() == StateActive {
			if s.IsComputerTurn() {
				res := wait(t, request(t, s))
				if !res.Applied {
					t.Fatalf("game %d: computer move not applied: %+v", game, res)
				}
				continue
			}
			snap := s.Snapshot()
			var valid []int
			for c := 0; c < snap.Columns; c++ {
				if snap.Board[0][c] == int(domain.Empty) {
					valid = append(valid, c)
				}
			}
			if _, err := s.ApplyHumanMove(valid[rng.Intn(len(valid))]); err != nil {
				t.Fatalf("game %d: %v", game, err)
			}
		}

		snap := s.Snapshot()
		empty := 0
		for _, row := range snap.Board {
			for _, cell := range row {
				if cell == int(domain.Empty) {
					empty++
				}
			}
		}
		if len(snap.Moves)+empty != snap.Rows*snap.Columns {
			t.Fatalf("history %d + empty %d != capacity", len(snap.Moves), empty)
		}
	}
}
