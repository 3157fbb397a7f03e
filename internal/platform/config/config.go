package config

import (
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file from the current working directory and sets
// environment variables. If .env does not exist, Load returns an error but
// callers can ignore it and use system env or defaults. Pass one or more paths
// to load from specific files (e.g. ".env"); with no paths, ".env" is used.
func Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return godotenv.Load(paths...)
}

// GetEnv returns the value of the environment variable named by key, or fallback
// if the variable is unset or empty.
func GetEnv(key, fallback string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return fallback
}

// GetEnvInt returns the integer value of the environment variable named by key,
// or fallback if the variable is unset, empty, or not a valid integer.
func GetEnvInt(key string, fallback int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return fallback
}

// GetEnvDuration returns the duration value (e.g. "2.5s", "500ms") of the
// environment variable named by key, or fallback if it is unset, empty, or
// not a valid duration.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			return d
		}
	}
	return fallback
}

// Settings is the full server configuration. Empty path and binary fields
// mean "use the backend's platform default".
type Settings struct {
	Port      int
	LogLevel  string
	LogFormat string

	TLSCertFile string
	TLSKeyFile  string

	TMDBAPIKey       string
	TMDBBaseURL      string
	WatchURLTemplate string

	BrowserBin                string
	BrowserProfileDir         string
	BrowserPlaySelector       string
	BrowserFullscreenSelector string
	BrowserPlayTimeout        time.Duration
	BrowserControlTimeout     time.Duration

	MPVPath        string
	MPVIPCPath     string
	MPVSettleDelay time.Duration
	MPVIPCTimeout  time.Duration
	MPVQuitTimeout time.Duration
}

// FromEnv builds Settings from the environment.
func FromEnv() Settings {
	return Settings{
		Port:      GetEnvInt("PORT", 5000),
		LogLevel:  GetEnv("LOG_LEVEL", "info"),
		LogFormat: GetEnv("LOG_FORMAT", "json"),

		TLSCertFile: GetEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  GetEnv("TLS_KEY_FILE", ""),

		TMDBAPIKey:       GetEnv("TMDB_API_KEY", ""),
		TMDBBaseURL:      GetEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		WatchURLTemplate: GetEnv("WATCH_URL_TEMPLATE", "https://www.cineby.app/movie/%d"),

		BrowserBin:                GetEnv("BROWSER_BIN", ""),
		BrowserProfileDir:         GetEnv("BROWSER_PROFILE_DIR", ""),
		BrowserPlaySelector:       GetEnv("BROWSER_PLAY_SELECTOR", "button[class*='buttonAnimation']"),
		BrowserFullscreenSelector: GetEnv("BROWSER_FULLSCREEN_SELECTOR", "media-fullscreen-button[aria-label='enter fullscreen mode']"),
		BrowserPlayTimeout:        GetEnvDuration("BROWSER_PLAY_TIMEOUT", 20*time.Second),
		BrowserControlTimeout:     GetEnvDuration("BROWSER_CONTROL_TIMEOUT", 10*time.Second),

		MPVPath:        GetEnv("MPV_PATH", ""),
		MPVIPCPath:     GetEnv("MPV_IPC_PATH", ""),
		MPVSettleDelay: GetEnvDuration("MPV_SETTLE_DELAY", 2500*time.Millisecond),
		MPVIPCTimeout:  GetEnvDuration("MPV_IPC_TIMEOUT", 2*time.Second),
		MPVQuitTimeout: GetEnvDuration("MPV_QUIT_TIMEOUT", 3*time.Second),
	}
}

// TLS reports whether both certificate and key are configured.
func (s Settings) TLS() bool {
	return s.TLSCertFile != "" && s.TLSKeyFile != ""
}

// Warnings lists misconfigurations that do not prevent startup but will make
// some playback fail.
func (s Settings) Warnings() []string {
	var out []string
	if s.TMDBAPIKey == "" {
		out = append(out, "TMDB_API_KEY is not set; IMDb links cannot be resolved")
	}

	mpvBin := s.MPVPath
	if mpvBin == "" {
		mpvBin = "mpv"
	}
	if _, err := exec.LookPath(mpvBin); err != nil {
		out = append(out, "mpv not found ("+mpvBin+"); direct links will fail to play")
	}

	if s.BrowserBin != "" {
		if _, err := exec.LookPath(s.BrowserBin); err != nil {
			out = append(out, "BROWSER_BIN not found ("+s.BrowserBin+")")
		}
	}
	if s.BrowserProfileDir != "" {
		if fi, err := os.Stat(s.BrowserProfileDir); err != nil || !fi.IsDir() {
			out = append(out, "BROWSER_PROFILE_DIR does not exist ("+s.BrowserProfileDir+"); the browser will create it")
		}
	}

	if (s.TLSCertFile == "") != (s.TLSKeyFile == "") {
		out = append(out, "only one of TLS_CERT_FILE and TLS_KEY_FILE is set; serving plain HTTP")
	}
	return out
}
