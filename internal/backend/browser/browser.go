// Package browser plays watch pages in a long-lived, automated browser window.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod/lib/input"

	"cast-orchestrator/internal/domain"
)

const (
	DefaultPlaySelector       = "button[class*='buttonAnimation']"
	DefaultFullscreenSelector = "media-fullscreen-button[aria-label='enter fullscreen mode']"
	DefaultPlayTimeout        = 20 * time.Second
	DefaultControlTimeout     = 10 * time.Second
	DefaultLaunchTimeout      = 30 * time.Second

	blankPage = "about:blank"
)

// Window states accepted by session.SetWindowState.
const (
	windowMaximized  = "maximized"
	windowFullscreen = "fullscreen"
)

// Config is the fixed launch and page-interaction configuration.
type Config struct {
	Bin                string
	ProfileDir         string
	PlaySelector       string
	FullscreenSelector string
	PlayTimeout        time.Duration
	ControlTimeout     time.Duration
	LaunchTimeout      time.Duration
}

// session is one running browser with a single controlled page.
type session interface {
	Probe(ctx context.Context) error
	Navigate(ctx context.Context, url string) error
	// Click waits up to timeout for selector to be interactable, then clicks it.
	Click(ctx context.Context, selector string, timeout time.Duration) error
	Press(ctx context.Context, key input.Key) error
	SetWindowState(ctx context.Context, state string) error
	Close() error
}

// Browser is the browser playback backend.
type Browser struct {
	cfg    Config
	log    *slog.Logger
	launch func(ctx context.Context, cfg Config) (session, error)

	mu   sync.Mutex
	sess session
}

// New returns an uninitialized Browser; the window is opened by EnsureReady.
func New(cfg Config, log *slog.Logger) *Browser {
	if cfg.PlaySelector == "" {
		cfg.PlaySelector = DefaultPlaySelector
	}
	if cfg.FullscreenSelector == "" {
		cfg.FullscreenSelector = DefaultFullscreenSelector
	}
	if cfg.PlayTimeout <= 0 {
		cfg.PlayTimeout = DefaultPlayTimeout
	}
	if cfg.ControlTimeout <= 0 {
		cfg.ControlTimeout = DefaultControlTimeout
	}
	if cfg.LaunchTimeout <= 0 {
		cfg.LaunchTimeout = DefaultLaunchTimeout
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Browser{
		cfg:    cfg,
		log:    log.With(slog.String("backend", string(domain.BackendBrowser))),
		launch: launchRod,
	}
}

// Kind implements orchestrator.Backend.
func (b *Browser) Kind() domain.BackendKind {
	return domain.BackendBrowser
}

// Live reports whether a browser session is held.
func (b *Browser) Live() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sess != nil
}

// EnsureReady reuses a responsive session (reset to a blank page) or launches
// a new one. A session that fails its probe is discarded.
func (b *Browser) EnsureReady(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sess != nil {
		if err := b.reuseLocked(ctx); err != nil {
			b.log.Warn("browser session not reusable, discarding", slog.String("error", err.Error()))
			b.teardownLocked()
		} else {
			return nil
		}
	}

	lctx, cancel := context.WithTimeout(ctx, b.cfg.LaunchTimeout)
	defer cancel()
	sess, err := b.launch(lctx, b.cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	b.sess = sess
	b.log.Info("browser session started")
	return nil
}

// Play navigates to watchURL and clicks the page's play control. On failure
// the session is torn down before returning.
func (b *Browser) Play(ctx context.Context, watchURL string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sess == nil {
		return domain.ErrNoActiveSession
	}

	nctx, cancel := context.WithTimeout(ctx, b.cfg.PlayTimeout)
	defer cancel()
	if err := b.sess.Navigate(nctx, watchURL); err != nil {
		b.teardownLocked()
		return fmt.Errorf("%w: navigate: %v", domain.ErrPlaybackTriggerFailed, err)
	}
	if err := b.sess.Click(ctx, b.cfg.PlaySelector, b.cfg.PlayTimeout); err != nil {
		b.teardownLocked()
		return fmt.Errorf("%w: play control %q: %v", domain.ErrPlaybackTriggerFailed, b.cfg.PlaySelector, err)
	}
	wctx, wcancel := context.WithTimeout(ctx, b.cfg.ControlTimeout)
	defer wcancel()
	if err := b.sess.SetWindowState(wctx, windowMaximized); err != nil {
		b.log.Debug("maximize window", slog.String("error", err.Error()))
	}

	b.log.Info("browser playback started", slog.String("url", watchURL))
	return nil
}

// SendAction injects the keyboard or UI input for action. Delivery is not
// confirmed by the page.
func (b *Browser) SendAction(ctx context.Context, action domain.Action) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sess == nil {
		return domain.ErrNoActiveSession
	}

	var err error
	switch action {
	case domain.ActionPlayPause:
		err = b.pressLocked(ctx, input.KeyK)
	case domain.ActionSeekBackward:
		err = b.pressLocked(ctx, input.ArrowLeft)
	case domain.ActionSeekForward:
		err = b.pressLocked(ctx, input.ArrowRight)
	case domain.ActionFullscreen:
		err = b.fullscreenLocked(ctx)
	case domain.ActionStop:
		b.teardownLocked()
	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidAction, action)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrControlFailed, action, err)
	}
	return nil
}

// Stop closes the session. The browser has no idle mode, so fully is ignored.
func (b *Browser) Stop(_ context.Context, _ bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.teardownLocked()
}

// reuseLocked checks the held session responds and resets it to a blank page.
func (b *Browser) reuseLocked(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.ControlTimeout)
	defer cancel()
	if err := b.sess.Probe(ctx); err != nil {
		return fmt.Errorf("not responsive: %v", err)
	}
	if err := b.sess.Navigate(ctx, blankPage); err != nil {
		return fmt.Errorf("reset: %v", err)
	}
	return nil
}

func (b *Browser) fullscreenLocked(ctx context.Context) error {
	err := b.sess.Click(ctx, b.cfg.FullscreenSelector, b.cfg.ControlTimeout)
	if err == nil {
		return nil
	}
	b.log.Debug("fullscreen control not found, using window state", slog.String("error", err.Error()))
	ctx, cancel := context.WithTimeout(ctx, b.cfg.ControlTimeout)
	defer cancel()
	return b.sess.SetWindowState(ctx, windowFullscreen)
}

func (b *Browser) pressLocked(ctx context.Context, key input.Key) error {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.ControlTimeout)
	defer cancel()
	return b.sess.Press(ctx, key)
}

// teardownLocked always clears the handle; close errors are only logged.
func (b *Browser) teardownLocked() {
	if b.sess == nil {
		return
	}
	if err := b.sess.Close(); err != nil {
		b.log.Warn("error closing browser session", slog.String("error", err.Error()))
	} else {
		b.log.Info("browser session closed")
	}
	b.sess = nil
}
