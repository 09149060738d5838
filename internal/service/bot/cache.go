package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/fourinarow/engine/internal/domain"
)

// ResultCache remembers the column chosen for a position so repeated positions
// (openings, undo and replay) skip the search. Implementations live in the
// repository packages; MemoryCache is the in-process default.
type ResultCache interface {
	Get(ctx context.Context, key string) (column int, ok bool, err error)
	Set(ctx context.Context, key string, column int) error
}

func cacheKey(board *domain.Board, depth int, player domain.PlayerID) string {
	return fmt.Sprintf("%s|d%d|p%d", board.Encode(), depth, player)
}

// MemoryCache is a bounded map that evicts the oldest key once full.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]int
	order   []string
	next    int
	size    int
}

func NewMemoryCache(size int) *MemoryCache {
	if size < 1 {
		size = 1
	}
	return &MemoryCache{
		entries: make(map[string]int, size),
		order:   make([]string, 0, size),
		size:    size,
	}
}

func (c *MemoryCache) Get(_ context.Context, key string) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	col, ok := c.entries[key]
	return col, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, column int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = column
		return nil
	}

	if len(c.order) < c.size {
		c.order = append(c.order, key)
	} else {
		delete(c.entries, c.order[c.next])
		c.order[c.next] = key
		c.next = (c.next + 1) % c.size
	}
	c.entries[key] = column
	return nil
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
