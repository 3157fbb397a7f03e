package domain

import "encoding/json"

// Category is the content class a submitted URL falls into.
type Category string

const (
	// CategoryExternalLookup needs an ID lookup and plays in the browser.
	CategoryExternalLookup Category = "external_lookup"
	// CategoryDirect can be handed straight to the direct player.
	CategoryDirect Category = "direct"
	// CategoryUnsupported cannot be played.
	CategoryUnsupported Category = "unsupported"
)

// Target is a classified URL. It is not modified after classification.
type Target struct {
	RawURL   string
	Category Category
	// Source names the pattern that matched (e.g. "imdb", "youtube").
	Source string
}

// BackendKind identifies a playback backend.
type BackendKind string

const (
	BackendNone    BackendKind = ""
	BackendBrowser BackendKind = "browser"
	BackendMPV     BackendKind = "mpv"
)

// MarshalJSON encodes BackendNone as null.
func (k BackendKind) MarshalJSON() ([]byte, error) {
	if k == BackendNone {
		return []byte("null"), nil
	}
	return json.Marshal(string(k))
}

// Action is a transport control request.
type Action string

const (
	ActionPlayPause    Action = "play_pause"
	ActionSeekBackward Action = "seek_backward"
	ActionSeekForward  Action = "seek_forward"
	ActionFullscreen   Action = "fullscreen"
	ActionStop         Action = "stop"
)

// ParseAction validates raw against the action vocabulary.
func ParseAction(raw string) (Action, error) {
	switch a := Action(raw); a {
	case ActionPlayPause, ActionSeekBackward, ActionSeekForward, ActionFullscreen, ActionStop:
		return a, nil
	}
	return "", ErrInvalidAction
}

// ActiveSession records what is live and where.
// Backend == BackendNone iff ResolvedURL == "".
type ActiveSession struct {
	Backend     BackendKind
	ResolvedURL string
}

// Idle reports whether nothing is playing.
func (s ActiveSession) Idle() bool {
	return s.Backend == BackendNone
}

// QueueSnapshot is the renderable state returned by every queue call.
type QueueSnapshot struct {
	Queue         []string    `json:"queue"`
	CurrentIndex  int         `json:"currentIndex"`
	ActiveBackend BackendKind `json:"activePlayer"`
	CurrentURL    *string     `json:"currentUrl"`
}

// Status is the outcome tag of a control-surface call.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusStopped Status = "stopped"
)

// Result is a status tag, a human-readable message and the queue state after the call.
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	QueueSnapshot
}
