package bot

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/fourinarow/engine/internal/domain"
	"github.com/fourinarow/engine/pkg/logger"
)

const (
	MinimaxWin  int64 = 10_000_000_000
	MinimaxLoss int64 = -MinimaxWin
	MinimaxDraw int64 = 0

	// how many nodes are visited between context checks
	cancelCheckInterval = 1024
)

// Engine picks columns with depth-limited minimax and alpha-beta pruning.
// It is safe for concurrent use; each ChooseMove call works on its own boards.
type Engine struct {
	mu    sync.Mutex
	rng   *rand.Rand
	cache ResultCache
}

type Option func(*Engine)

// WithSeed makes tie-breaking reproducible.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

func WithCache(cache ResultCache) Option {
	return func(e *Engine) {
		e.cache = cache
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return e
}

// BestMove searches at the depth configured for difficulty.
func (e *Engine) BestMove(ctx context.Context, board *domain.Board, player domain.PlayerID, difficulty domain.Difficulty) (int, error) {
	return e.ChooseMove(ctx, board, DepthFor(difficulty), player)
}

// ChooseMove returns the column maximizingFor should play. The caller's board is
// never modified. It returns ErrNoMove when the position is already decided or
// full, and ctx.Err() if the search is cancelled.
func (e *Engine) ChooseMove(ctx context.Context, board *domain.Board, depth int, maximizingFor domain.PlayerID) (int, error) {
	if depth < 1 {
		depth = 1
	}
	if len(board.ValidMoves()) == 0 || domain.IsTerminal(board) {
		return domain.NotFound, domain.ErrNoMove
	}

	key := cacheKey(board, depth, maximizingFor)
	if e.cache != nil {
		col, ok, err := e.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("cache", "lookup failed: %v", err)
		} else if ok && board.IsValidMove(col) {
			logger.Debug("bot", "cache hit for depth %d: column %d", depth, col)
			return col, nil
		}
	}

	s := e.newSearch(ctx, board, depth, maximizingFor)
	start := time.Now()
	col, value, err := s.minimax(0, depth, math.MinInt64, math.MaxInt64, true)
	if err != nil {
		return domain.NotFound, err
	}

	logger.Debug("bot", "depth %d chose column %d (score %d, %d nodes, %s)",
		depth, col, value, s.nodes, time.Since(start).Round(time.Microsecond))

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, col); err != nil {
			logger.Warn("cache", "store failed: %v", err)
		}
	}
	return col, nil
}

// search holds the state of one ChooseMove call. arena[ply] is the board at
// that ply, reused for every sibling, so no boards are allocated while searching.
type search struct {
	ctx    context.Context
	rng    *rand.Rand
	me     domain.PlayerID
	opp    domain.PlayerID
	center int
	arena  []*domain.Board
	moves  [][]int
	nodes  int
}

func (e *Engine) newSearch(ctx context.Context, board *domain.Board, depth int, me domain.PlayerID) *search {
	e.mu.Lock()
	seed := e.rng.Int63()
	e.mu.Unlock()

	s := &search{
		ctx:    ctx,
		rng:    rand.New(rand.NewSource(seed)),
		me:     me,
		opp:    me.Opponent(),
		center: board.Columns() / 2,
		arena:  make([]*domain.Board, depth+1),
		moves:  make([][]int, depth+1),
	}
	for i := range s.arena {
		s.arena[i] = board.Clone()
		s.moves[i] = make([]int, 0, board.Columns())
	}
	return s
}

// orderedMoves returns the valid columns of the ply's board sorted by distance
// from the center column, left first on equal distance.
func (s *search) orderedMoves(ply int) []int {
	moves := s.arena[ply].AppendValidMoves(s.moves[ply][:0])
	for i := 1; i < len(moves); i++ {
		for j := i; j > 0 && s.distance(moves[j]) < s.distance(moves[j-1]); j-- {
			moves[j], moves[j-1] = moves[j-1], moves[j]
		}
	}
	s.moves[ply] = moves
	return moves
}

func (s *search) distance(col int) int {
	if col < s.center {
		return s.center - col
	}
	return col - s.center
}

func (s *search) minimax(ply, depth int, alpha, beta int64, maximizing bool) (int, int64, error) {
	s.nodes++
	if s.nodes%cancelCheckInterval == 0 {
		if err := s.ctx.Err(); err != nil {
			return domain.NotFound, 0, err
		}
	}

	board := s.arena[ply]
	if domain.HasFourInARow(board, s.me) {
		return domain.NotFound, MinimaxWin, nil
	}
	if domain.HasFourInARow(board, s.opp) {
		return domain.NotFound, MinimaxLoss, nil
	}
	moves := s.orderedMoves(ply)
	if len(moves) == 0 {
		return domain.NotFound, MinimaxDraw, nil
	}
	if depth == 0 {
		return domain.NotFound, int64(ScorePosition(board, s.me)), nil
	}

	mover := s.opp
	value := int64(math.MaxInt64)
	if maximizing {
		mover = s.me
		value = math.MinInt64
	}
	best := moves[s.rng.Intn(len(moves))]

	child := s.arena[ply+1]
	for _, col := range moves {
		child.CopyFrom(board)
		if _, err := child.DropDisk(col, mover); err != nil {
			return domain.NotFound, 0, fmt.Errorf("search dropped into column %d: %w", col, err)
		}

		_, score, err := s.minimax(ply+1, depth-1, alpha, beta, !maximizing)
		if err != nil {
			return domain.NotFound, 0, err
		}

		if maximizing {
			if score > value {
				value = score
				best = col
			}
			alpha = max(alpha, value)
		} else {
			if score < value {
				value = score
				best = col
			}
			beta = min(beta, value)
		}

		if alpha >= beta {
			break
		}
	}

	return best, value, nil
}
