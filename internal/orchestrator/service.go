package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cast-orchestrator/internal/domain"
	"cast-orchestrator/internal/platform/metrics"
)

// Service is the queue manager and the whole control surface. It sequences
// queue entries through the Player and serializes every call with one lock.
type Service struct {
	repo    Repository
	player  *Player
	log     *slog.Logger
	metrics *metrics.Metrics

	mu sync.Mutex
}

// NewService returns a Service that keeps the queue in repo and plays through
// player. log and m may be nil.
func NewService(repo Repository, player *Player, log *slog.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{repo: repo, player: player, log: log, metrics: m}
}

// Submit appends url. When nothing is selected the new entry is played
// immediately; if that fails the entry is pruned and the error returned.
func (s *Service) Submit(ctx context.Context, url string) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	url = strings.TrimSpace(url)
	if url == "" {
		return s.resultLocked(domain.StatusError, "No URL provided"), domain.ErrMissingURL
	}

	i := s.repo.Append(url)
	s.log.Info("queued", slog.String("url", url), slog.Int("index", i))

	if s.repo.Snapshot().CurrentIndex == -1 {
		if res, err := s.playAtLocked(ctx, i); err != nil {
			return res, err
		}
	}
	return s.resultLocked(domain.StatusSuccess, "Added to queue: "+url), nil
}

// PlayAt plays entry i. An out-of-range i stops playback and reports the
// queue as finished without an error. A failed entry is removed.
func (s *Service) PlayAt(ctx context.Context, i int) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playAtLocked(ctx, i)
}

// Next plays the entry after the current one.
func (s *Service) Next(ctx context.Context) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playAtLocked(ctx, s.repo.Snapshot().CurrentIndex+1)
}

// Previous plays the entry before the current one.
func (s *Service) Previous(ctx context.Context) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playAtLocked(ctx, s.repo.Snapshot().CurrentIndex-1)
}

// RemoveAt deletes entry i, stopping playback if it was the current one.
func (s *Service) RemoveAt(ctx context.Context, i int) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, wasCurrent, err := s.repo.Remove(i)
	if err != nil {
		return s.resultLocked(domain.StatusError, "Invalid index."), err
	}
	if wasCurrent {
		s.player.Stop(ctx)
	}
	s.log.Info("removed from queue", slog.String("url", removed.URL), slog.Int("index", i))
	return s.resultLocked(domain.StatusSuccess, "Removed: "+removed.URL), nil
}

// Clear empties the queue and stops playback.
func (s *Service) Clear(ctx context.Context) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.repo.Clear()
	s.player.Stop(ctx)
	s.log.Info("queue cleared")
	return s.resultLocked(domain.StatusSuccess, "Queue cleared."), nil
}

// Control forwards a transport action to the active player.
func (s *Service) Control(ctx context.Context, action domain.Action) (domain.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	backend := s.player.State().Backend
	if err := s.player.Control(ctx, action); err != nil {
		return s.resultLocked(domain.StatusError, controlFailure(err)), err
	}
	if action == domain.ActionStop {
		s.repo.SetCurrent(-1)
	}
	return s.resultLocked(domain.StatusSuccess, controlMessage(backend, action)), nil
}

// Status returns the queue and player state without changing anything.
func (s *Service) Status() domain.QueueSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Service) playAtLocked(ctx context.Context, i int) (domain.Result, error) {
	entry, ok := s.repo.Entry(i)
	if !ok {
		s.player.Stop(ctx)
		s.repo.SetCurrent(-1)
		return s.resultLocked(domain.StatusStopped, "Queue finished."), nil
	}

	if err := s.player.Play(ctx, entry.URL); err != nil {
		if _, _, rerr := s.repo.Remove(i); rerr != nil {
			s.log.Error("prune failed entry", slog.Int("index", i), slog.String("error", rerr.Error()))
		}
		s.player.Stop(ctx)
		s.repo.SetCurrent(-1)
		s.log.Warn("pruned entry that failed to play", slog.String("url", entry.URL), slog.Int("index", i))
		return s.resultLocked(domain.StatusError, fmt.Sprintf("Failed to play item %d: %v", i+1, err)), err
	}

	s.repo.SetCurrent(i)
	return s.resultLocked(domain.StatusSuccess, fmt.Sprintf("Playing item %d", i+1)), nil
}

func (s *Service) resultLocked(status domain.Status, msg string) domain.Result {
	return domain.Result{Status: status, Message: msg, QueueSnapshot: s.snapshotLocked()}
}

func (s *Service) snapshotLocked() domain.QueueSnapshot {
	st := s.repo.Snapshot()
	session := s.player.State()
	s.metrics.SetQueueLength(len(st.Entries))

	snap := domain.QueueSnapshot{
		Queue:         st.URLs(),
		CurrentIndex:  st.CurrentIndex,
		ActiveBackend: session.Backend,
	}
	if !session.Idle() {
		u := session.ResolvedURL
		snap.CurrentURL = &u
	}
	return snap
}

var actionMessages = map[domain.Action]string{
	domain.ActionPlayPause:    "Toggled play/pause",
	domain.ActionSeekBackward: "Seeked backward",
	domain.ActionSeekForward:  "Seeked forward",
	domain.ActionFullscreen:   "Toggled fullscreen",
}

func controlMessage(backend domain.BackendKind, action domain.Action) string {
	if action == domain.ActionStop {
		return "Player stopped."
	}
	return fmt.Sprintf("%s: %s", backend, actionMessages[action])
}

func controlFailure(err error) string {
	if errors.Is(err, domain.ErrNoActivePlayer) {
		return "No active player."
	}
	return "Control failed: " + err.Error()
}
