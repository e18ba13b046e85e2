package testutil

import (
	"context"
	"sync"

	"termpool/core"
)

// Gate is an in-memory IGateService. The zero value lets everything
// through.
type Gate struct {
	mux    sync.Mutex
	paused bool
	scopes map[core.OperationScope]bool
}

func (g *Gate) Suspend(ctx context.Context, scope core.OperationScope) error {
	g.mux.Lock()
	defer g.mux.Unlock()

	if g.scopes == nil {
		g.scopes = make(map[core.OperationScope]bool)
	}
	g.scopes[scope] = true
	return nil
}

func (g *Gate) Resume(ctx context.Context, scope core.OperationScope) error {
	g.mux.Lock()
	defer g.mux.Unlock()

	delete(g.scopes, scope)
	return nil
}

func (g *Gate) Suspended(ctx context.Context, scope core.OperationScope) (bool, error) {
	g.mux.Lock()
	defer g.mux.Unlock()

	return g.paused || g.scopes[scope], nil
}

func (g *Gate) Guard(ctx context.Context, scope core.OperationScope) error {
	suspended, _ := g.Suspended(ctx, scope)
	if suspended {
		return core.ErrSystemPaused
	}

	return nil
}

func (g *Gate) PauseAll(ctx context.Context) error {
	g.mux.Lock()
	defer g.mux.Unlock()

	g.paused = true
	return nil
}

func (g *Gate) ResumeAll(ctx context.Context) error {
	g.mux.Lock()
	defer g.mux.Unlock()

	g.paused = false
	return nil
}
