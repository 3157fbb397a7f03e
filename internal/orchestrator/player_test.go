package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"cast-orchestrator/internal/domain"
)

// fakeBackend records calls. With keepsIdle a non-full Stop leaves it live,
// as the direct player does.
type fakeBackend struct {
	kind      domain.BackendKind
	keepsIdle bool

	readyErr  error
	playErr   error
	actionErr error

	mu      sync.Mutex
	live    bool
	played  []string
	actions []domain.Action
	stops   []bool
}

func (f *fakeBackend) Kind() domain.BackendKind { return f.kind }

func (f *fakeBackend) EnsureReady(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readyErr != nil {
		return f.readyErr
	}
	f.live = true
	return nil
}

func (f *fakeBackend) Play(_ context.Context, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, target)
	return f.playErr
}

func (f *fakeBackend) SendAction(_ context.Context, a domain.Action) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, a)
	return f.actionErr
}

func (f *fakeBackend) Stop(_ context.Context, fully bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops = append(f.stops, fully)
	if fully || !f.keepsIdle {
		f.live = false
	}
}

func (f *fakeBackend) Live() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.live
}

func (f *fakeBackend) stopCalls() []bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]bool(nil), f.stops...)
}

type fakeResolver struct {
	watchURL string
	err      error
	calls    int
}

func (r *fakeResolver) Resolve(context.Context, string) (string, error) {
	r.calls++
	return r.watchURL, r.err
}

type playerFixture struct {
	player   *Player
	browser  *fakeBackend
	mpv      *fakeBackend
	resolver *fakeResolver
}

func newPlayerFixture() *playerFixture {
	f := &playerFixture{
		browser:  &fakeBackend{kind: domain.BackendBrowser},
		mpv:      &fakeBackend{kind: domain.BackendMPV, keepsIdle: true},
		resolver: &fakeResolver{watchURL: "https://www.cineby.app/movie/550"},
	}
	f.player = NewPlayer(f.resolver, nil, nil, f.browser, f.mpv)
	return f
}

func (f *playerFixture) checkSession(t *testing.T) {
	t.Helper()
	s := f.player.State()
	if s.Idle() != (s.ResolvedURL == "") {
		t.Errorf("session %+v: idle backend must pair with empty url", s)
	}
	if f.browser.Live() && f.mpv.Live() {
		t.Error("both backends live")
	}
}

const (
	imdbURL    = "https://www.imdb.com/title/tt0137523/"
	youtubeURL = "https://youtu.be/abc12345678"
)

func TestPlayer_Play_unsupported(t *testing.T) {
	f := newPlayerFixture()
	if err := f.player.Play(context.Background(), youtubeURL); err != nil {
		t.Fatal(err)
	}
	before := f.player.State()

	err := f.player.Play(context.Background(), "https://example.com/page")
	if !errors.Is(err, domain.ErrUnsupportedURL) {
		t.Fatalf("expected ErrUnsupportedURL, got %v", err)
	}
	if f.player.State() != before {
		t.Errorf("state changed: %+v -> %+v", before, f.player.State())
	}
	if len(f.mpv.stopCalls()) != 0 {
		t.Error("unsupported url must not stop playback")
	}
}

func TestPlayer_Play_direct(t *testing.T) {
	f := newPlayerFixture()
	if err := f.player.Play(context.Background(), "  "+youtubeURL+" "); err != nil {
		t.Fatalf("Play: %v", err)
	}
	want := domain.ActiveSession{Backend: domain.BackendMPV, ResolvedURL: youtubeURL}
	if got := f.player.State(); got != want {
		t.Errorf("got %+v want %+v", got, want)
	}
	if f.resolver.calls != 0 {
		t.Error("direct links must not be resolved")
	}
	f.checkSession(t)
}

func TestPlayer_Play_external_lookup(t *testing.T) {
	f := newPlayerFixture()
	if err := f.player.Play(context.Background(), imdbURL); err != nil {
		t.Fatalf("Play: %v", err)
	}
	want := domain.ActiveSession{Backend: domain.BackendBrowser, ResolvedURL: f.resolver.watchURL}
	if got := f.player.State(); got != want {
		t.Errorf("got %+v want %+v", got, want)
	}
	if len(f.browser.played) != 1 || f.browser.played[0] != f.resolver.watchURL {
		t.Errorf("browser played %v", f.browser.played)
	}
	f.checkSession(t)
}

func TestPlayer_Play_switch_backends(t *testing.T) {
	t.Run("mpv_to_mpv_keeps_process", func(t *testing.T) {
		f := newPlayerFixture()
		_ = f.player.Play(context.Background(), youtubeURL)
		_ = f.player.Play(context.Background(), "https://mp4.smartsynced.site/v/1")

		if got := f.mpv.stopCalls(); len(got) != 1 || got[0] {
			t.Errorf("expected one non-full stop, got %v", got)
		}
		if !f.mpv.Live() {
			t.Error("mpv should still be live")
		}
		f.checkSession(t)
	})

	t.Run("mpv_to_browser_quits_mpv", func(t *testing.T) {
		f := newPlayerFixture()
		_ = f.player.Play(context.Background(), youtubeURL)
		if err := f.player.Play(context.Background(), imdbURL); err != nil {
			t.Fatal(err)
		}
		if got := f.mpv.stopCalls(); len(got) != 1 || !got[0] {
			t.Errorf("expected one full stop, got %v", got)
		}
		if f.mpv.Live() {
			t.Error("mpv must not be live while the browser plays")
		}
		f.checkSession(t)
	})

	t.Run("idle_mpv_quit_before_browser", func(t *testing.T) {
		f := newPlayerFixture()
		_ = f.player.Play(context.Background(), youtubeURL)
		f.player.Stop(context.Background())
		if !f.mpv.Live() {
			t.Fatal("plain stop should leave mpv idle")
		}

		_ = f.player.Play(context.Background(), imdbURL)
		if f.mpv.Live() {
			t.Error("idle mpv must be stopped fully before the browser goes live")
		}
		f.checkSession(t)
	})

	t.Run("browser_to_mpv_closes_browser", func(t *testing.T) {
		f := newPlayerFixture()
		_ = f.player.Play(context.Background(), imdbURL)
		_ = f.player.Play(context.Background(), youtubeURL)
		if f.browser.Live() {
			t.Error("browser should be closed")
		}
		if f.player.State().Backend != domain.BackendMPV {
			t.Errorf("got %+v", f.player.State())
		}
		f.checkSession(t)
	})
}

func TestPlayer_Play_failures_roll_back(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		prepare func(f *playerFixture)
		want    error
	}{
		{
			name:    "lookup_failed",
			url:     imdbURL,
			prepare: func(f *playerFixture) { f.resolver.err = fmt.Errorf("%w: no results", domain.ErrLookupFailed) },
			want:    domain.ErrLookupFailed,
		},
		{
			name:    "browser_unavailable",
			url:     imdbURL,
			prepare: func(f *playerFixture) { f.browser.readyErr = domain.ErrBackendUnavailable },
			want:    domain.ErrBackendUnavailable,
		},
		{
			name:    "trigger_failed",
			url:     imdbURL,
			prepare: func(f *playerFixture) { f.browser.playErr = domain.ErrPlaybackTriggerFailed },
			want:    domain.ErrPlaybackTriggerFailed,
		},
		{
			name:    "spawn_failed",
			url:     youtubeURL,
			prepare: func(f *playerFixture) { f.mpv.readyErr = domain.ErrSpawnFailed },
			want:    domain.ErrSpawnFailed,
		},
		{
			name:    "ipc_unavailable",
			url:     youtubeURL,
			prepare: func(f *playerFixture) { f.mpv.playErr = domain.ErrIPCUnavailable },
			want:    domain.ErrIPCUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPlayerFixture()
			_ = f.player.Play(context.Background(), "https://a.test/video.mp4")
			tt.prepare(f)

			err := f.player.Play(context.Background(), tt.url)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if s := f.player.State(); !s.Idle() {
				t.Errorf("session should be idle after failure, got %+v", s)
			}
			if f.browser.Live() {
				t.Error("failed browser must be torn down")
			}
			f.checkSession(t)
		})
	}
}

func TestPlayer_Control(t *testing.T) {
	t.Run("no_active_player", func(t *testing.T) {
		f := newPlayerFixture()
		if err := f.player.Control(context.Background(), domain.ActionPlayPause); !errors.Is(err, domain.ErrNoActivePlayer) {
			t.Errorf("expected ErrNoActivePlayer, got %v", err)
		}
	})

	t.Run("routes_to_active_backend", func(t *testing.T) {
		f := newPlayerFixture()
		_ = f.player.Play(context.Background(), imdbURL)
		if err := f.player.Control(context.Background(), domain.ActionSeekForward); err != nil {
			t.Fatal(err)
		}
		if len(f.browser.actions) != 1 || f.browser.actions[0] != domain.ActionSeekForward {
			t.Errorf("browser actions %v", f.browser.actions)
		}
		if len(f.mpv.actions) != 0 {
			t.Error("inactive backend must not receive actions")
		}
	})

	t.Run("invalid_action", func(t *testing.T) {
		f := newPlayerFixture()
		_ = f.player.Play(context.Background(), youtubeURL)
		if err := f.player.Control(context.Background(), domain.Action("volume_up")); !errors.Is(err, domain.ErrInvalidAction) {
			t.Errorf("expected ErrInvalidAction, got %v", err)
		}
	})

	t.Run("backend_error_propagates", func(t *testing.T) {
		f := newPlayerFixture()
		_ = f.player.Play(context.Background(), youtubeURL)
		f.mpv.actionErr = domain.ErrIPCUnavailable
		if err := f.player.Control(context.Background(), domain.ActionPlayPause); !errors.Is(err, domain.ErrIPCUnavailable) {
			t.Errorf("expected ErrIPCUnavailable, got %v", err)
		}
	})

	t.Run("stop_clears_session", func(t *testing.T) {
		f := newPlayerFixture()
		_ = f.player.Play(context.Background(), youtubeURL)
		if err := f.player.Control(context.Background(), domain.ActionStop); err != nil {
			t.Fatal(err)
		}
		if !f.player.State().Idle() {
			t.Error("stop should clear the session")
		}
		if got := f.mpv.stopCalls(); len(got) != 1 || got[0] {
			t.Errorf("stop should not quit mpv, got %v", got)
		}
		if len(f.mpv.actions) != 0 {
			t.Error("stop must go through the stop path, not SendAction")
		}
	})
}

func TestPlayer_Shutdown_once(t *testing.T) {
	f := newPlayerFixture()
	_ = f.player.Play(context.Background(), youtubeURL)

	if err := f.player.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := f.player.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	if got := f.mpv.stopCalls(); len(got) != 1 || !got[0] {
		t.Errorf("mpv stops %v, want one full stop", got)
	}
	if got := f.browser.stopCalls(); len(got) != 1 || !got[0] {
		t.Errorf("browser stops %v, want one full stop", got)
	}
	if f.mpv.Live() || !f.player.State().Idle() {
		t.Error("everything should be stopped")
	}
}

func TestPlayer_Shutdown_deadline_reported(t *testing.T) {
	f := newPlayerFixture()
	_ = f.player.Play(context.Background(), youtubeURL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.player.Shutdown(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if again := f.player.Shutdown(context.Background()); !errors.Is(again, context.Canceled) {
		t.Errorf("later call should return the first result, got %v", again)
	}
	if got := f.mpv.stopCalls(); len(got) != 1 || !got[0] {
		t.Errorf("mpv stops %v, want one full stop", got)
	}
	if !f.player.State().Idle() {
		t.Error("session should be cleared")
	}
}

func TestPlayer_Play_missing_backend(t *testing.T) {
	p := NewPlayer(nil, nil, nil, &fakeBackend{kind: domain.BackendMPV})
	if err := p.Play(context.Background(), imdbURL); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Errorf("expected ErrBackendUnavailable, got %v", err)
	}
}
