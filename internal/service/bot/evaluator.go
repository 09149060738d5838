package bot

import (
	"github.com/fourinarow/engine/internal/domain"
)

// Heuristic weights. Offence is deliberately weighted above defence; changing any
// of these changes which column the computer picks.
const (
	CenterWeight       = 3
	ScoreFour          = 100
	ScoreThree         = 5
	ScoreTwo           = 2
	ScoreOpponentThree = -4
)

// EvaluateWindow scores one run of four cells from player's point of view.
func EvaluateWindow(window []domain.PlayerID, player, opponent domain.PlayerID) int {
	playerCount, opponentCount, emptyCount := 0, 0, 0
	for _, cell := range window {
		switch cell {
		case player:
			playerCount++
		case opponent:
			opponentCount++
		case domain.Empty:
			emptyCount++
		}
	}

	score := 0
	switch {
	case playerCount == 4:
		score += ScoreFour
	case playerCount == 3 && emptyCount == 1:
		score += ScoreThree
	case playerCount == 2 && emptyCount == 2:
		score += ScoreTwo
	}

	if opponentCount == 3 && emptyCount == 1 {
		score += ScoreOpponentThree
	}

	return score
}

// ScorePosition is the static evaluation used at the search horizon.
func ScorePosition(board *domain.Board, player domain.PlayerID) int {
	opponent := player.Opponent()
	score := 0

	// Center column preference
	centerCol := board.Columns() / 2
	for row := 0; row < board.Rows(); row++ {
		if board.At(row, centerCol) == player {
			score += CenterWeight
		}
	}

	domain.ForEachWindow(board, func(window *[domain.ToWin]domain.PlayerID) {
		score += EvaluateWindow(window[:], player, opponent)
	})

	return score
}
