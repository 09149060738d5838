package domain

// Move is one applied drop. Row is derived from gravity, never chosen by a player.
type Move struct {
	Row    int      `json:"row"`
	Column int      `json:"column"`
	Player PlayerID `json:"player"`
}

// MoveHistory is append-only except for Pop, which undo uses.
type MoveHistory struct {
	moves []Move
}

func (h *MoveHistory) Push(m Move) {
	h.moves = append(h.moves, m)
}

func (h *MoveHistory) Pop() (Move, error) {
	if len(h.moves) == 0 {
		return Move{}, ErrEmptyHistory
	}
	last := h.moves[len(h.moves)-1]
	h.moves = h.moves[:len(h.moves)-1]
	return last, nil
}

func (h *MoveHistory) Len() int {
	return len(h.moves)
}

// All returns a copy, so callers may keep it across further moves.
func (h *MoveHistory) All() []Move {
	out := make([]Move, len(h.moves))
	copy(out, h.moves)
	return out
}

func (h *MoveHistory) Clear() {
	h.moves = h.moves[:0]
}
