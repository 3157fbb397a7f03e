// Package resolver turns catalog title links into watch-page URLs.
package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"cast-orchestrator/internal/domain"
)

const (
	DefaultBaseURL       = "https://api.themoviedb.org/3"
	DefaultWatchTemplate = "https://www.cineby.app/movie/%d"

	requestTimeout = 10 * time.Second
	maxBodySize    = 1 << 20
)

var imdbIDRe = regexp.MustCompile(`(?i)/title/(tt\d+)/?`)

// findResponse is the subset of the /find payload we read.
type findResponse struct {
	MovieResults []struct {
		ID int64 `json:"id"`
	} `json:"movie_results"`
	TVResults []struct {
		ID int64 `json:"id"`
	} `json:"tv_results"`
}

// TMDB resolves IMDb title URLs through The Movie Database /find endpoint.
type TMDB struct {
	baseURL       string
	apiKey        string
	watchTemplate string
	client        *http.Client
	log           *slog.Logger
}

// NewTMDB returns a resolver. Empty baseURL or watchTemplate fall back to the
// defaults; watchTemplate must contain a single %d verb for the numeric ID.
func NewTMDB(baseURL, apiKey, watchTemplate string, log *slog.Logger) *TMDB {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if watchTemplate == "" {
		watchTemplate = DefaultWatchTemplate
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	client := cleanhttp.DefaultClient()
	client.Timeout = requestTimeout
	return &TMDB{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		watchTemplate: watchTemplate,
		client:        client,
		log:           log,
	}
}

// ExtractIMDbID returns the tt-prefixed identifier embedded in rawURL.
func ExtractIMDbID(rawURL string) (string, bool) {
	m := imdbIDRe.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

// Resolve looks up the title once and builds its watch URL. It never retries.
func (r *TMDB) Resolve(ctx context.Context, rawURL string) (string, error) {
	imdbID, ok := ExtractIMDbID(rawURL)
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidIdentifier, rawURL)
	}
	if r.apiKey == "" {
		return "", fmt.Errorf("%w: no api key configured", domain.ErrLookupFailed)
	}

	id, mediaType, err := r.find(ctx, imdbID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrLookupFailed, err)
	}

	watch := fmt.Sprintf(r.watchTemplate, id)
	r.log.Debug("resolved external id",
		slog.String("imdb_id", imdbID),
		slog.Int64("tmdb_id", id),
		slog.String("media_type", mediaType),
		slog.String("watch_url", watch))
	return watch, nil
}

func (r *TMDB) find(ctx context.Context, imdbID string) (int64, string, error) {
	q := url.Values{}
	q.Set("api_key", r.apiKey)
	q.Set("external_source", "imdb_id")
	endpoint := r.baseURL + "/find/" + url.PathEscape(imdbID) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, "", fmt.Errorf("create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		// The URL carries the api key; keep it out of the message.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return 0, "", fmt.Errorf("network error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body findResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&body); err != nil {
		return 0, "", fmt.Errorf("decode body: %v", err)
	}

	var (
		id        int64
		mediaType string
	)
	switch {
	case len(body.MovieResults) > 0:
		id, mediaType = body.MovieResults[0].ID, "movie"
	case len(body.TVResults) > 0:
		id, mediaType = body.TVResults[0].ID, "tv"
	default:
		return 0, "", fmt.Errorf("no results for %s", imdbID)
	}
	if id <= 0 {
		return 0, "", fmt.Errorf("%s result for %s has no id", mediaType, imdbID)
	}
	return id, mediaType, nil
}
