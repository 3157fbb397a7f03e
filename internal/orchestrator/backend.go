package orchestrator

import (
	"context"

	"cast-orchestrator/internal/domain"
)

// Backend is a playback engine the Player can drive. Implementations convert
// every internal failure into one of the domain sentinel errors.
type Backend interface {
	// Kind identifies the backend.
	Kind() domain.BackendKind

	// EnsureReady acquires the backend's session or process. On error the
	// backend holds no handle.
	EnsureReady(ctx context.Context) error

	// Play starts target. On error the caller must Stop(ctx, true).
	Play(ctx context.Context, target string) error

	// SendAction dispatches a transport action other than stop. Best-effort.
	SendAction(ctx context.Context, action domain.Action) error

	// Stop halts playback. When fully is false a backend may keep its process
	// alive and idle for reuse. Stop never fails; problems are logged.
	Stop(ctx context.Context, fully bool)

	// Live reports whether the backend currently holds a live process or session.
	Live() bool
}

// Resolver turns an external-lookup URL into a playable watch URL.
type Resolver interface {
	Resolve(ctx context.Context, rawURL string) (string, error)
}
