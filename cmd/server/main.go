package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cast-orchestrator/internal/backend/browser"
	"cast-orchestrator/internal/backend/mpv"
	"cast-orchestrator/internal/orchestrator"
	"cast-orchestrator/internal/platform/config"
	"cast-orchestrator/internal/platform/logger"
	"cast-orchestrator/internal/platform/metrics"
	"cast-orchestrator/internal/resolver"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	shutdownTimeout       = 10 * time.Second
	playerShutdownTimeout = 10 * time.Second
)

func main() {
	_ = config.Load()
	settings := config.FromEnv()

	log := logger.New(settings.LogLevel, settings.LogFormat)
	for _, w := range settings.Warnings() {
		log.Warn("configuration", "warning", w)
	}

	met := metrics.New()

	lookup := resolver.NewTMDB(settings.TMDBBaseURL, settings.TMDBAPIKey, settings.WatchURLTemplate, log)
	web := browser.New(browser.Config{
		Bin:                settings.BrowserBin,
		ProfileDir:         settings.BrowserProfileDir,
		PlaySelector:       settings.BrowserPlaySelector,
		FullscreenSelector: settings.BrowserFullscreenSelector,
		PlayTimeout:        settings.BrowserPlayTimeout,
		ControlTimeout:     settings.BrowserControlTimeout,
	}, log)
	direct := mpv.New(mpv.Config{
		Binary:      settings.MPVPath,
		IPCPath:     settings.MPVIPCPath,
		SettleDelay: settings.MPVSettleDelay,
		DialTimeout: settings.MPVIPCTimeout,
		QuitTimeout: settings.MPVQuitTimeout,
	}, log)

	player := orchestrator.NewPlayer(lookup, log, met, web, direct)
	svc := orchestrator.NewService(orchestrator.NewInMemoryRepository(), player, log, met)
	h := orchestrator.NewHandler(svc, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", met.Handler(func() { met.SetQueueLength(len(svc.Status().Queue)) }).ServeHTTP)
	h.Routes(r)

	addr := ":" + strconv.Itoa(settings.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		var err error
		if settings.TLS() {
			err = srv.ListenAndServeTLS(settings.TLSCertFile, settings.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", settings.Port,
		"tls", settings.TLS(),
		"log_level", settings.LogLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	exitCode := 0
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		exitCode = 1
	}

	pctx, pcancel := context.WithTimeout(context.Background(), playerShutdownTimeout)
	defer pcancel()
	if err := player.Shutdown(pctx); err != nil {
		log.Error("player shutdown error", "error", err)
		exitCode = 1
	}

	log.Info("server stopped")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
