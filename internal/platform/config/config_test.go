package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("CAST_TEST_STR", "value")
	if got := GetEnv("CAST_TEST_STR", "fallback"); got != "value" {
		t.Errorf("got %q", got)
	}
	if got := GetEnv("CAST_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("CAST_TEST_INT", "8081")
	t.Setenv("CAST_TEST_BAD_INT", "eighty")
	if got := GetEnvInt("CAST_TEST_INT", 1); got != 8081 {
		t.Errorf("got %d", got)
	}
	if got := GetEnvInt("CAST_TEST_BAD_INT", 1); got != 1 {
		t.Errorf("invalid int should fall back, got %d", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("CAST_TEST_DUR", "750ms")
	t.Setenv("CAST_TEST_BAD_DUR", "3")
	if got := GetEnvDuration("CAST_TEST_DUR", time.Second); got != 750*time.Millisecond {
		t.Errorf("got %v", got)
	}
	if got := GetEnvDuration("CAST_TEST_BAD_DUR", time.Second); got != time.Second {
		t.Errorf("unitless value should fall back, got %v", got)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CAST_TEST_FROM_FILE=yes\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("CAST_TEST_FROM_FILE") })

	if err := Load(path); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := os.Getenv("CAST_TEST_FROM_FILE"); got != "yes" {
		t.Errorf("got %q", got)
	}
	if err := Load(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Error("missing file should return an error")
	}
}

func TestFromEnv_defaults(t *testing.T) {
	for _, k := range []string{"PORT", "TMDB_BASE_URL", "MPV_SETTLE_DELAY", "BROWSER_PLAY_TIMEOUT", "WATCH_URL_TEMPLATE"} {
		t.Setenv(k, "")
	}
	s := FromEnv()
	if s.Port != 5000 {
		t.Errorf("port %d", s.Port)
	}
	if s.TMDBBaseURL != "https://api.themoviedb.org/3" || s.WatchURLTemplate != "https://www.cineby.app/movie/%d" {
		t.Errorf("lookup defaults %q %q", s.TMDBBaseURL, s.WatchURLTemplate)
	}
	if s.MPVSettleDelay != 2500*time.Millisecond || s.BrowserPlayTimeout != 20*time.Second {
		t.Errorf("timeouts %v %v", s.MPVSettleDelay, s.BrowserPlayTimeout)
	}
}

func TestFromEnv_overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MPV_IPC_PATH", "/run/cast/mpv.sock")
	t.Setenv("MPV_QUIT_TIMEOUT", "5s")
	s := FromEnv()
	if s.Port != 9000 || s.MPVIPCPath != "/run/cast/mpv.sock" || s.MPVQuitTimeout != 5*time.Second {
		t.Errorf("settings %+v", s)
	}
}

func TestSettings_Warnings(t *testing.T) {
	s := Settings{
		MPVPath:           filepath.Join(t.TempDir(), "no-such-mpv"),
		BrowserProfileDir: filepath.Join(t.TempDir(), "missing-profile"),
		TLSCertFile:       "cert.pem",
	}
	got := strings.Join(s.Warnings(), "\n")
	for _, want := range []string{"TMDB_API_KEY", "mpv not found", "BROWSER_PROFILE_DIR", "TLS_KEY_FILE"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing warning about %s in:\n%s", want, got)
		}
	}
	if s.TLS() {
		t.Error("TLS needs both cert and key")
	}
}
