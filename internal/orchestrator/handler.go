package orchestrator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"cast-orchestrator/internal/domain"
)

// Handler exposes the control surface over HTTP using go-chi.
type Handler struct {
	svc *Service
	log *slog.Logger
}

// NewHandler returns a Handler that uses the given Service and Logger.
func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Handler{svc: svc, log: log}
}

// Routes registers every endpoint on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/submit_url", h.SubmitURL)
	r.Post("/control_player", h.ControlPlayer)
	r.Route("/queue", func(r chi.Router) {
		r.Get("/status", h.QueueStatus)
		r.Post("/play/{index}", h.PlayAt)
		r.Post("/next", h.Next)
		r.Post("/previous", h.Previous)
		r.Post("/remove/{index}", h.RemoveAt)
		r.Post("/clear", h.Clear)
	})
}

// SubmitURL handles POST /submit_url with form field "url".
func (h *Handler) SubmitURL(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Submit(r.Context(), r.FormValue("url"))
	if errors.Is(err, domain.ErrMissingURL) {
		h.writeJSON(w, http.StatusBadRequest, res)
		return
	}
	h.logResult("submit", err)
	h.writeJSON(w, http.StatusOK, res)
}

// PlayAt handles POST /queue/play/{index}.
func (h *Handler) PlayAt(w http.ResponseWriter, r *http.Request) {
	i, ok := h.index(w, r)
	if !ok {
		return
	}
	res, err := h.svc.PlayAt(r.Context(), i)
	h.logResult("play", err)
	h.writeJSON(w, http.StatusOK, res)
}

// Next handles POST /queue/next.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Next(r.Context())
	h.logResult("next", err)
	h.writeJSON(w, http.StatusOK, res)
}

// Previous handles POST /queue/previous.
func (h *Handler) Previous(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Previous(r.Context())
	h.logResult("previous", err)
	h.writeJSON(w, http.StatusOK, res)
}

// RemoveAt handles POST /queue/remove/{index}.
func (h *Handler) RemoveAt(w http.ResponseWriter, r *http.Request) {
	i, ok := h.index(w, r)
	if !ok {
		return
	}
	res, err := h.svc.RemoveAt(r.Context(), i)
	h.logResult("remove", err)
	h.writeJSON(w, http.StatusOK, res)
}

// Clear handles POST /queue/clear.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Clear(r.Context())
	h.logResult("clear", err)
	h.writeJSON(w, http.StatusOK, res)
}

// QueueStatus handles GET /queue/status.
func (h *Handler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.svc.Status())
}

// ControlPlayer handles POST /control_player with form field "action".
func (h *Handler) ControlPlayer(w http.ResponseWriter, r *http.Request) {
	action, err := domain.ParseAction(r.FormValue("action"))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, domain.Result{
			Status:        domain.StatusError,
			Message:       "Invalid action.",
			QueueSnapshot: h.svc.Status(),
		})
		return
	}

	res, err := h.svc.Control(r.Context(), action)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, res)
	case errors.Is(err, domain.ErrNoActivePlayer), errors.Is(err, domain.ErrInvalidAction):
		h.writeJSON(w, http.StatusBadRequest, res)
	default:
		h.log.Error("control failed", slog.String("action", string(action)), slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusInternalServerError, res)
	}
}

func (h *Handler) index(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		h.log.Debug("invalid index param", slog.String("index", chi.URLParam(r, "index")))
		h.writeJSON(w, http.StatusBadRequest, domain.Result{
			Status:        domain.StatusError,
			Message:       "Invalid index.",
			QueueSnapshot: h.svc.Status(),
		})
		return 0, false
	}
	return i, true
}

func (h *Handler) logResult(op string, err error) {
	if err != nil {
		h.log.Info("queue operation failed",
			slog.String("op", op),
			slog.String("kind", domain.KindOf(err)),
			slog.String("error", err.Error()))
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Debug("write response", slog.String("error", err.Error()))
	}
}
