package orchestrator

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"cast-orchestrator/internal/domain"
)

type pattern struct {
	source   string
	category domain.Category
	match    func(lower string) bool
}

var youtubeRe = regexp.MustCompile(`(?:youtube\.com/(?:watch\?v=|embed/|v/|shorts/)|youtu\.be/)[a-z0-9_-]{11}`)

var directFileExts = map[string]bool{
	".mp4": true, ".mkv": true, ".webm": true, ".mov": true, ".m4v": true, ".avi": true,
	".m3u8": true, ".mpd": true, ".mp3": true, ".flac": true, ".ogg": true,
}

// patterns is evaluated in order; the first match wins.
var patterns = []pattern{
	{
		source:   "smartsynced",
		category: domain.CategoryDirect,
		match:    func(s string) bool { return strings.Contains(s, "mp4.smartsynced.site") },
	},
	{
		source:   "youtube",
		category: domain.CategoryDirect,
		match: func(s string) bool {
			return youtubeRe.MatchString(s) || strings.Contains(s, "youtube.com/") || strings.Contains(s, "youtu.be/")
		},
	},
	{
		source:   "imdb",
		category: domain.CategoryExternalLookup,
		match:    func(s string) bool { return strings.Contains(s, "imdb.com/title/tt") },
	},
	{
		source:   "direct_file",
		category: domain.CategoryDirect,
		match:    isDirectFile,
	},
}

// Classify maps a submitted URL to its playback category. It never fails;
// anything unrecognized is CategoryUnsupported.
func Classify(raw string) domain.Target {
	t := domain.Target{RawURL: raw, Category: domain.CategoryUnsupported}
	lower := strings.ToLower(strings.TrimSpace(raw))
	if lower == "" {
		return t
	}
	for _, p := range patterns {
		if p.match(lower) {
			t.Category = p.category
			t.Source = p.source
			return t
		}
	}
	return t
}

func isDirectFile(s string) bool {
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	return directFileExts[path.Ext(u.Path)]
}
