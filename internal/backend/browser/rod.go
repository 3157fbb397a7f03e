package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// rodSession drives a local Chrome or Chromium over the DevTools protocol.
type rodSession struct {
	launcher    *launcher.Launcher
	browser     *rod.Browser
	page        *rod.Page
	tempProfile bool
}

type launchResult struct {
	controlURL string
	err        error
}

func launchRod(ctx context.Context, cfg Config) (session, error) {
	bin := cfg.Bin
	if bin == "" {
		found, ok := launcher.LookPath()
		if !ok {
			return nil, errors.New("no chrome or chromium binary found")
		}
		bin = found
	}

	l := launcher.New().
		Bin(bin).
		Headless(false).
		Set("autoplay-policy", "no-user-gesture-required").
		Set("start-maximized")
	if cfg.ProfileDir != "" {
		l = l.UserDataDir(cfg.ProfileDir)
	}

	// Launch has no deadline of its own.
	ch := make(chan launchResult, 1)
	go func() {
		u, err := l.Launch()
		ch <- launchResult{controlURL: u, err: err}
	}()

	var res launchResult
	select {
	case res = <-ch:
	case <-ctx.Done():
		l.Kill()
		return nil, fmt.Errorf("launch: %w", ctx.Err())
	}
	if res.err != nil {
		return nil, fmt.Errorf("launch %s: %w", bin, res.err)
	}

	b := rod.New().ControlURL(res.controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect: %w", err)
	}

	page, err := b.Page(proto.TargetCreateTarget{URL: blankPage})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, fmt.Errorf("open page: %w", err)
	}

	return &rodSession{
		launcher:    l,
		browser:     b,
		page:        page,
		tempProfile: cfg.ProfileDir == "",
	}, nil
}

// Probe reads the page's target info, which fails once the browser is gone.
func (s *rodSession) Probe(ctx context.Context) error {
	_, err := s.page.Context(ctx).Info()
	return err
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	return s.page.Context(ctx).Navigate(url)
}

func (s *rodSession) Click(ctx context.Context, selector string, timeout time.Duration) error {
	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()

	el, err := p.Element(selector)
	if err != nil {
		return err
	}
	if _, err := el.WaitInteractable(); err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// Press dispatches key down and up on a ctx-bound page. page.Keyboard keeps
// the page's own context, so it is not used here.
func (s *rodSession) Press(ctx context.Context, key input.Key) error {
	p := s.page.Context(ctx)
	for _, t := range []proto.InputDispatchKeyEventType{
		proto.InputDispatchKeyEventTypeKeyDown,
		proto.InputDispatchKeyEventTypeKeyUp,
	} {
		if err := key.Encode(t, 0).Call(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *rodSession) SetWindowState(ctx context.Context, state string) error {
	bounds := &proto.BrowserBounds{}
	switch state {
	case windowFullscreen:
		bounds.WindowState = proto.BrowserWindowStateFullscreen
	case windowMaximized:
		bounds.WindowState = proto.BrowserWindowStateMaximized
	default:
		return fmt.Errorf("unknown window state %q", state)
	}
	return s.page.Context(ctx).SetWindow(bounds)
}

func (s *rodSession) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	if s.tempProfile {
		s.launcher.Cleanup()
	}
	return err
}
