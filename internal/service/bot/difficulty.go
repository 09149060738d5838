package bot

import "github.com/fourinarow/engine/internal/domain"

// Search depth in plies per difficulty.
const (
	DepthEasy   = 2
	DepthMedium = 4
	DepthHard   = 6
)

// DepthFor maps a difficulty to a search depth. Unknown values search like hard.
func DepthFor(difficulty domain.Difficulty) int {
	switch difficulty {
	case domain.DifficultyEasy:
		return DepthEasy
	case domain.DifficultyMedium:
		return DepthMedium
	default:
		return DepthHard
	}
}
