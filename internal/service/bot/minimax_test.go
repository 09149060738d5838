package bot

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/fourinarow/engine/internal/domain"
)

func TestChooseMoveTakesImmediateWin(t *testing.T) {
	b := boardFromRows(t,
		".......",
		".......",
		".......",
		"......O",
		"X.....O",
		"XXX...O",
	)
	for depth := 1; depth <= 6; depth++ {
		e := NewEngine(WithSeed(int64(depth)))
		col, err := e.ChooseMove(context.Background(), b, depth, domain.Player2)
		if err != nil {
			t.Fatalf("depth %d: %v", depth, err)
		}
		if col != 6 {
			t.Fatalf("depth %d: chose %d, want winning column 6", depth, col)
		}
	}
}

func TestChooseMoveBlocksOpponentWin(t *testing.T) {
	b := boardFromRows(t,
		".......",
		".......",
		".......",
		"X......",
		"X.....O",
		"X.....O",
	)
	for depth := 3; depth <= 6; depth++ {
		e := NewEngine(WithSeed(99))
		col, err := e.ChooseMove(context.Background(), b, depth, domain.Player2)
		if err != nil {
			t.Fatalf("depth %d: %v", depth, err)
		}
		if col != 0 {
			t.Fatalf("depth %d: chose %d, want blocking column 0", depth, col)
		}
	}
}

func TestChooseMoveKnownPositions(t *testing.T) {
	tests := []struct {
		name   string
		rows   []string
		player domain.PlayerID
		depth  int
		want   int
	}{
		{"empty board depth 2", []string{".......", ".......", ".......", ".......", ".......", "......."}, domain.Player1, 2, 3},
		{"empty board depth 4", []string{".......", ".......", ".......", ".......", ".......", "......."}, domain.Player1, 4, 3},
		{"reply to center", []string{".......", ".......", ".......", ".......", ".......", "...X..."}, domain.Player2, 5, 3},
		{"middle game depth 2", []string{".......", ".......", ".......", "...O...", "..XXO..", ".OXXXO."}, domain.Player1, 2, 4},
		{"middle game depth 4", []string{".......", ".......", ".......", "...O...", "..XXO..", ".OXXXO."}, domain.Player1, 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(WithSeed(1))
			col, err := e.ChooseMove(context.Background(), boardFromRows(t, tt.rows...), tt.depth, tt.player)
			if err != nil {
				t.Fatalf("ChooseMove: %v", err)
			}
			if col != tt.want {
				t.Fatalf("chose %d, want %d", col, tt.want)
			}
		})
	}
}

func TestChooseMoveNeverPicksFullColumn(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	e := NewEngine(WithSeed(3))
	for game := 0; game < 20; game++ {
		g, _ := domain.NewGame(domain.Rows, domain.Columns)
		for !g.IsFinished() {
			var col int
			if g.CurrentPlayer == domain.Player2 {
				before := g.Board.Encode()
				var err error
				col, err = e.ChooseMove(context.Background(), g.Board, 1+rng.Intn(3), domain.Player2)
				if err != nil {
					t.Fatalf("game %d: %v\n%s", game, err, g.Board)
				}
				if g.Board.Encode() != before {
					t.Fatalf("ChooseMove mutated the caller's board")
				}
				if !g.Board.IsValidMove(col) {
					t.Fatalf("game %d: chose full column %d\n%s", game, col, g.Board)
				}
			} else {
				moves := g.Board.ValidMoves()
				col = moves[rng.Intn(len(moves))]
			}
			if _, err := g.MakeMove(col); err != nil {
				t.Fatalf("MakeMove(%d): %v", col, err)
			}
		}
	}
}

func TestChooseMoveNoMove(t *testing.T) {
	full, err := domain.Replay(domain.Rows, domain.Columns, []int{
		0, 1, 0, 1, 0, 1, 1, 0, 1, 0, 1, 0,
		2, 3, 2, 3, 2, 3, 3, 2, 3, 2, 3, 2,
		4, 5, 4, 5, 4, 5, 5, 4, 5, 4, 5, 4,
		6, 6, 6, 6, 6, 6,
	})
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	e := NewEngine(WithSeed(1))
	if _, err := e.ChooseMove(context.Background(), full.Board, 4, domain.Player2); !errors.Is(err, domain.ErrNoMove) {
		t.Fatalf("full board: expected ErrNoMove, got %v", err)
	}

	won := boardFromRows(t,
		".......",
		".......",
		".......",
		".......",
		"OOO....",
		"XXXX...",
	)
	if _, err := e.ChooseMove(context.Background(), won, 4, domain.Player2); !errors.Is(err, domain.ErrNoMove) {
		t.Fatalf("won board: expected ErrNoMove, got %v", err)
	}
}

func TestChooseMoveDepthZeroSearchesOnePly(t *testing.T) {
	b := boardFromRows(t,
		".......",
		".......",
		".......",
		"......O",
		"X.....O",
		"XXX...O",
	)
	col, err := NewEngine(WithSeed(5)).ChooseMove(context.Background(), b, 0, domain.Player2)
	if err != nil || col != 6 {
		t.Fatalf("got (%d, %v), want (6, nil)", col, err)
	}
}

func TestChooseMoveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEngine().ChooseMove(ctx, domain.NewBoard(), 8, domain.Player1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestChooseMoveSameSeedSameAnswer(t *testing.T) {
	b := boardFromRows(t,
		".......",
		".......",
		".......",
		"...O...",
		"..XXO..",
		".OXXXO.",
	)
	a, _ := NewEngine(WithSeed(11)).ChooseMove(context.Background(), b, 3, domain.Player2)
	c, _ := NewEngine(WithSeed(11)).ChooseMove(context.Background(), b, 3, domain.Player2)
	if a != c {
		t.Fatalf("same seed gave %d and %d", a, c)
	}
}

func TestBestMoveUsesDifficultyDepth(t *testing.T) {
	b := boardFromRows(t,
		".......",
		".......",
		".......",
		"X......",
		"X.....O",
		"X.....O",
	)
	col, err := NewEngine(WithSeed(2)).BestMove(context.Background(), b, domain.Player2, domain.DifficultyMedium)
	if err != nil || col != 0 {
		t.Fatalf("got (%d, %v), want (0, nil)", col, err)
	}
}
