package runner

import (
	"context"

	"mindplay/internal/arena"
)

// arenaCoordinator adapts *arena.Client to the Coordinator interface.
type arenaCoordinator struct {
	c *arena.Client
}

// WrapArena exposes an arena client as a Coordinator.
func WrapArena(c *arena.Client) Coordinator {
	return arenaCoordinator{c: c}
}

func (a arenaCoordinator) Register(ctx context.Context, req arena.RegisterRequest) (*arena.Match, error) {
	return a.c.Register(ctx, req)
}

func (a arenaCoordinator) Join(ctx context.Context, match *arena.Match) (Session, error) {
	return a.c.Join(ctx, match)
}
