// Package mpv drives a long-lived mpv process over its JSON IPC endpoint.
package mpv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"cast-orchestrator/internal/domain"
)

const (
	DefaultSettleDelay = 2500 * time.Millisecond
	DefaultDialTimeout = 2 * time.Second
	DefaultQuitTimeout = 3 * time.Second

	killWait    = 2 * time.Second
	seekSeconds = 10
)

// Config holds the fixed launch parameters of the player process.
type Config struct {
	Binary      string
	IPCPath     string
	SettleDelay time.Duration
	DialTimeout time.Duration
	QuitTimeout time.Duration
}

// ipcCommand is one newline-delimited JSON message on the IPC endpoint.
type ipcCommand struct {
	Command []any `json:"command"`
}

// Player is the direct-player backend. The process is started lazily and,
// after a non-full stop, kept idle so the next load reuses it.
type Player struct {
	cfg Config
	log *slog.Logger

	spawn       func(name string, args []string) (process, error)
	dial        func(ctx context.Context, path string) (net.Conn, error)
	removeStale func(path string) error

	mu   sync.Mutex
	proc process
}

// New returns a stopped Player. Zero Config fields take the package defaults.
func New(cfg Config, log *slog.Logger) *Player {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.IPCPath == "" {
		cfg.IPCPath = DefaultIPCPath
	}
	if cfg.SettleDelay < 0 {
		cfg.SettleDelay = 0
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = DefaultDialTimeout
	}
	if cfg.QuitTimeout <= 0 {
		cfg.QuitTimeout = DefaultQuitTimeout
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Player{
		cfg:         cfg,
		log:         log.With(slog.String("backend", string(domain.BackendMPV))),
		spawn:       startProcess,
		dial:        dialIPC,
		removeStale: removeStaleEndpoint,
	}
}

// Kind implements orchestrator.Backend.
func (p *Player) Kind() domain.BackendKind {
	return domain.BackendMPV
}

// Args returns the command line the player is spawned with.
func (p *Player) Args() []string {
	args := []string{
		"--input-ipc-server=" + p.cfg.IPCPath,
		"--idle=yes",
		"--force-window=yes",
		"--fullscreen",
	}
	return append(args, platformArgs()...)
}

// Live reports whether the player process is running.
func (p *Player) Live() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runningLocked()
}

// EnsureReady starts the player process unless one is already running.
func (p *Player) EnsureReady(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureRunningLocked(ctx)
}

// Play loads target, replacing whatever is loaded.
func (p *Player) Play(ctx context.Context, target string) error {
	return p.SendCommand(ctx, "loadfile", target, "replace")
}

// SendAction maps a transport action onto an IPC command.
func (p *Player) SendAction(ctx context.Context, action domain.Action) error {
	var cmd []any
	switch action {
	case domain.ActionPlayPause:
		cmd = []any{"cycle", "pause"}
	case domain.ActionFullscreen:
		cmd = []any{"cycle", "fullscreen"}
	case domain.ActionSeekBackward:
		cmd = []any{"seek", -seekSeconds, "relative"}
	case domain.ActionSeekForward:
		cmd = []any{"seek", seekSeconds, "relative"}
	case domain.ActionStop:
		cmd = []any{"stop"}
	default:
		return fmt.Errorf("%w: %q", domain.ErrInvalidAction, action)
	}
	return p.SendCommand(ctx, cmd...)
}

// SendCommand writes one command, starting the player first if needed.
// A failed write is reported, not retried.
func (p *Player) SendCommand(ctx context.Context, args ...any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureRunningLocked(ctx); err != nil {
		return err
	}
	return p.writeCommand(ctx, args)
}

// Stop halts playback. With fully the process is asked to quit, killed if it
// has not exited within QuitTimeout, and the handle is released.
func (p *Player) Stop(ctx context.Context, fully bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.runningLocked() {
		p.proc = nil
		return
	}

	if !fully {
		if err := p.writeCommand(ctx, []any{"stop"}); err != nil {
			p.log.Warn("stop command failed", slog.String("error", err.Error()))
		}
		return
	}

	proc := p.proc
	p.proc = nil

	if err := p.writeCommand(ctx, []any{"quit"}); err != nil {
		p.log.Warn("quit command failed, killing player", slog.String("error", err.Error()))
		p.kill(proc)
	} else {
		select {
		case <-proc.Done():
			p.log.Info("player quit", slog.Int("pid", proc.Pid()))
		case <-time.After(p.cfg.QuitTimeout):
			p.log.Warn("player did not quit in time, killing", slog.Int("pid", proc.Pid()))
			p.kill(proc)
		}
	}

	if err := p.removeStale(p.cfg.IPCPath); err != nil {
		p.log.Debug("could not remove ipc endpoint", slog.String("path", p.cfg.IPCPath), slog.String("error", err.Error()))
	}
}

func (p *Player) runningLocked() bool {
	return p.proc != nil && !exited(p.proc)
}

func (p *Player) ensureRunningLocked(ctx context.Context) error {
	if p.runningLocked() {
		return nil
	}
	p.proc = nil

	if err := p.removeStale(p.cfg.IPCPath); err != nil {
		p.log.Debug("could not remove stale ipc endpoint", slog.String("path", p.cfg.IPCPath), slog.String("error", err.Error()))
	}

	proc, err := p.spawn(p.cfg.Binary, p.Args())
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSpawnFailed, err)
	}
	p.log.Info("player started", slog.Int("pid", proc.Pid()), slog.String("ipc_path", p.cfg.IPCPath))

	// The endpoint is assumed connectable once the settle delay has passed.
	timer := time.NewTimer(p.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-proc.Done():
		return fmt.Errorf("%w: player exited during startup", domain.ErrSpawnFailed)
	case <-ctx.Done():
		p.kill(proc)
		return fmt.Errorf("%w: %v", domain.ErrSpawnFailed, ctx.Err())
	}

	p.proc = proc
	return nil
}

func (p *Player) writeCommand(ctx context.Context, args []any) error {
	payload, err := json.Marshal(ipcCommand{Command: args})
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", domain.ErrIPCUnavailable, err)
	}

	dctx, cancel := context.WithTimeout(ctx, p.cfg.DialTimeout)
	defer cancel()

	conn, err := p.dial(dctx, p.cfg.IPCPath)
	if err != nil {
		return fmt.Errorf("%w: connect: %v", domain.ErrIPCUnavailable, err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(p.cfg.DialTimeout)); err != nil && !errors.Is(err, net.ErrClosed) {
		p.log.Debug("set write deadline", slog.String("error", err.Error()))
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("%w: write: %v", domain.ErrIPCUnavailable, err)
	}

	p.log.Debug("sent command", slog.String("command", string(payload)))
	return nil
}

func (p *Player) kill(proc process) {
	if err := proc.Kill(); err != nil {
		p.log.Debug("kill player", slog.String("error", err.Error()))
	}
	select {
	case <-proc.Done():
	case <-time.After(killWait):
		p.log.Warn("player did not exit after kill", slog.Int("pid", proc.Pid()))
	}
}
