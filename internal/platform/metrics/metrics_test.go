package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func scrape(t *testing.T, m *Metrics, update func()) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler(update).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status %d", rec.Code)
	}
	return rec.Body.String()
}

func assertContains(t *testing.T, body string, lines ...string) {
	t.Helper()
	for _, l := range lines {
		if !strings.Contains(body, l) {
			t.Errorf("scrape output missing %q:\n%s", l, body)
		}
	}
}

func TestMetrics_nil_is_noop(t *testing.T) {
	var m *Metrics
	m.IncRequests()
	m.IncErrors()
	m.IncPlays("mpv")
	m.IncPlayFailures("spawn_failed")
	m.IncControlActions("stop")
	m.SetQueueLength(3)
	m.SetActiveBackend("browser")
}

func TestMetrics_counters(t *testing.T) {
	m := New()
	m.IncPlays("mpv")
	m.IncPlays("mpv")
	m.IncPlayFailures("lookup_failed")
	m.IncControlActions("play_pause")
	m.SetQueueLength(4)

	assertContains(t, scrape(t, m, nil),
		`cast_plays_total{backend="mpv"} 2`,
		`cast_play_failures_total{kind="lookup_failed"} 1`,
		`cast_control_actions_total{action="play_pause"} 1`,
		`cast_queue_length 4`,
	)
}

func TestMetrics_SetActiveBackend(t *testing.T) {
	m := New()
	m.SetActiveBackend("browser")
	m.SetActiveBackend("mpv")

	body := scrape(t, m, nil)
	assertContains(t, body, `cast_active_backend{backend="mpv"} 1`)
	if strings.Contains(body, `backend="browser"`) {
		t.Errorf("previous backend still reported:\n%s", body)
	}

	m.SetActiveBackend("")
	if body := scrape(t, m, nil); strings.Contains(body, "cast_active_backend{") {
		t.Errorf("idle player should export no active backend:\n%s", body)
	}
}

func TestRequestMiddleware(t *testing.T) {
	m := New()
	h := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusBadRequest)
		}
	}))

	for _, p := range []string{"/ok", "/bad", "/ok"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assertContains(t, scrape(t, m, nil), "cast_requests_total 3", "cast_errors_total 1")
}

func TestRequestMiddleware_nil(t *testing.T) {
	called := false
	h := RequestMiddleware(nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("request not passed through")
	}
}

func TestMetrics_Handler_refreshes_gauges(t *testing.T) {
	m := New()
	called := false
	body := scrape(t, m, func() {
		called = true
		m.SetQueueLength(7)
	})
	if !called {
		t.Error("updateGauges not called")
	}
	assertContains(t, body, "cast_queue_length 7")
}
