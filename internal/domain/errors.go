package domain

import "errors"

// Failures surfaced by the playback core. Backends wrap the underlying cause
// with fmt.Errorf("%w: %v", ErrX, cause), so only the kind matches errors.Is.
var (
	// Classification and resolution
	ErrUnsupportedURL    = errors.New("unsupported url")
	ErrInvalidIdentifier = errors.New("invalid external identifier")
	ErrLookupFailed      = errors.New("external id lookup failed")

	// Browser backend
	ErrBackendUnavailable    = errors.New("browser backend unavailable")
	ErrPlaybackTriggerFailed = errors.New("could not start playback in browser")
	ErrNoActiveSession       = errors.New("no active browser session")
	ErrControlFailed         = errors.New("could not deliver control input to browser")

	// Direct-player backend
	ErrSpawnFailed    = errors.New("could not start media player")
	ErrIPCUnavailable = errors.New("media player ipc unavailable")

	// Orchestrator and queue
	ErrNoActivePlayer = errors.New("no active player")
	ErrInvalidAction  = errors.New("invalid action")
	ErrInvalidIndex   = errors.New("invalid queue index")
	ErrMissingURL     = errors.New("no url provided")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrUnsupportedURL, "unsupported_url"},
	{ErrInvalidIdentifier, "invalid_identifier"},
	{ErrLookupFailed, "lookup_failed"},
	{ErrBackendUnavailable, "backend_unavailable"},
	{ErrPlaybackTriggerFailed, "playback_trigger_failed"},
	{ErrNoActiveSession, "no_active_session"},
	{ErrControlFailed, "control_failed"},
	{ErrSpawnFailed, "spawn_failed"},
	{ErrIPCUnavailable, "ipc_unavailable"},
	{ErrNoActivePlayer, "no_active_player"},
	{ErrInvalidAction, "invalid_action"},
	{ErrInvalidIndex, "invalid_index"},
	{ErrMissingURL, "missing_url"},
}

// KindOf returns a stable label for err, "" for nil and "internal" for
// errors outside the taxonomy.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
