package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"cast-orchestrator/internal/domain"
	"cast-orchestrator/internal/platform/metrics"
)

// Player is the single source of truth for what is playing and on which
// backend. At most one backend holds a live process or session at a time.
type Player struct {
	resolver Resolver
	log      *slog.Logger
	metrics  *metrics.Metrics
	backends []Backend

	mu      sync.Mutex
	session domain.ActiveSession

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewPlayer returns an idle Player routing to the given backends. Each
// BackendKind should appear once; the first one registered wins.
// log and m may be nil.
func NewPlayer(resolver Resolver, log *slog.Logger, m *metrics.Metrics, backends ...Backend) *Player {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Player{
		resolver: resolver,
		log:      log,
		metrics:  m,
		backends: backends,
	}
}

// Play classifies rawURL and starts it on the matching backend. Whatever was
// playing before is stopped first, even if the new target then fails.
// An unsupported URL returns ErrUnsupportedURL and changes nothing.
func (p *Player) Play(ctx context.Context, rawURL string) error {
	rawURL = strings.TrimSpace(rawURL)
	target := Classify(rawURL)
	if target.Category == domain.CategoryUnsupported {
		p.metrics.IncPlayFailures(domain.KindOf(domain.ErrUnsupportedURL))
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedURL, rawURL)
	}

	kind := backendFor(target.Category)

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked(ctx, kind)

	err := p.startLocked(ctx, kind, target)
	if err != nil {
		p.metrics.IncPlayFailures(domain.KindOf(err))
		p.log.Warn("playback failed",
			slog.String("url", rawURL),
			slog.String("source", target.Source),
			slog.String("kind", domain.KindOf(err)),
			slog.String("error", err.Error()))
		return err
	}
	return nil
}

func (p *Player) startLocked(ctx context.Context, kind domain.BackendKind, target domain.Target) error {
	b := p.backend(kind)
	if b == nil {
		return fmt.Errorf("%w: no %s backend configured", domain.ErrBackendUnavailable, kind)
	}

	resolved := target.RawURL
	if target.Category == domain.CategoryExternalLookup {
		if p.resolver == nil {
			return fmt.Errorf("%w: no resolver configured", domain.ErrLookupFailed)
		}
		var err error
		if resolved, err = p.resolver.Resolve(ctx, target.RawURL); err != nil {
			return err
		}
	}

	if err := b.EnsureReady(ctx); err != nil {
		b.Stop(ctx, true)
		return err
	}
	if err := b.Play(ctx, resolved); err != nil {
		b.Stop(ctx, true)
		return err
	}

	p.session = domain.ActiveSession{Backend: kind, ResolvedURL: resolved}
	p.metrics.IncPlays(string(kind))
	p.metrics.SetActiveBackend(string(kind))
	p.log.Info("playing",
		slog.String("backend", string(kind)),
		slog.String("source", target.Source),
		slog.String("url", resolved))
	return nil
}

// Control dispatches action to the active backend. stop goes through the
// same teardown path as a new Play.
func (p *Player) Control(ctx context.Context, action domain.Action) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session.Idle() {
		return domain.ErrNoActivePlayer
	}
	if _, err := domain.ParseAction(string(action)); err != nil {
		return fmt.Errorf("%w: %q", err, action)
	}

	p.metrics.IncControlActions(string(action))
	if action == domain.ActionStop {
		p.stopLocked(ctx, p.session.Backend)
		return nil
	}

	b := p.backend(p.session.Backend)
	if b == nil {
		return domain.ErrNoActivePlayer
	}
	return b.SendAction(ctx, action)
}

// Stop halts whatever is playing. The direct player stays idle for reuse.
func (p *Player) Stop(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session.Idle() {
		return
	}
	p.stopLocked(ctx, p.session.Backend)
}

// State returns a snapshot of the active session.
func (p *Player) State() domain.ActiveSession {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

// Shutdown fully stops every backend concurrently. It reports ctx's error if
// ctx ended before a backend finished stopping. Only the first call does any
// work; later calls return the first result.
func (p *Player) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()

		g, gctx := errgroup.WithContext(ctx)
		for _, b := range p.backends {
			g.Go(func() error {
				b.Stop(gctx, true)
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("stop %s: %w", b.Kind(), err)
				}
				return nil
			})
		}
		p.shutdownErr = g.Wait()
		p.session = domain.ActiveSession{}
		p.metrics.SetActiveBackend("")
		p.log.Info("players shut down")
	})
	return p.shutdownErr
}

// stopLocked stops the active backend and clears the session. The active
// backend keeps its process only when next is the same kind. Any other
// backend still holding a process is stopped fully.
func (p *Player) stopLocked(ctx context.Context, next domain.BackendKind) {
	if cur := p.session.Backend; cur != domain.BackendNone {
		if b := p.backend(cur); b != nil {
			b.Stop(ctx, cur != next)
		}
		p.log.Info("stopped", slog.String("backend", string(cur)))
	}
	p.session = domain.ActiveSession{}
	p.metrics.SetActiveBackend("")

	for _, b := range p.backends {
		if b.Kind() != next && b.Live() {
			b.Stop(ctx, true)
		}
	}
}

func (p *Player) backend(kind domain.BackendKind) Backend {
	for _, b := range p.backends {
		if b.Kind() == kind {
			return b
		}
	}
	return nil
}

func backendFor(c domain.Category) domain.BackendKind {
	if c == domain.CategoryExternalLookup {
		return domain.BackendBrowser
	}
	return domain.BackendMPV
}
