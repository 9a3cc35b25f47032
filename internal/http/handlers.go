package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"audio-sentinel-service/internal/app"
	"audio-sentinel-service/internal/audio"
	"audio-sentinel-service/internal/observability/logging"
	"audio-sentinel-service/internal/session"
)

// maxUploadBytes caps raw PCM uploads (~15 minutes at 16 kHz 16-bit mono).
const maxUploadBytes = 30 << 20

type handlers struct {
	app *app.Application
	log zerolog.Logger
}

func newHandlers(application *app.Application) *handlers {
	return &handlers{
		app: application,
		log: logging.WithComponent("http"),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// upload analyzes a complete audio payload: raw little-endian 16-bit PCM,
// mono, at the configured sample rate. Media decoding and resampling are an
// upstream concern; this endpoint consumes the normalized waveform.
func (h *handlers) upload(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusBadRequest, "empty audio payload")
		return
	}
	if len(body) > maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "audio payload too large")
		return
	}

	waveform, err := audio.DecodePCM16(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s := h.app.Sessions.Create(session.ModeBatch)
	report, err := h.app.Sessions.AnalyzeBatch(r.Context(), s.ID, waveform)
	if err != nil {
		if errors.Is(err, audio.ErrEmptyWaveform) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Str("sessionId", s.ID).Msg("Batch analysis failed")
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// results retrieves a finalized report by session id.
func (h *handlers) results(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")

	report, err := h.app.Sessions.Get(id)
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "no results found for session: "+id)
	case errors.Is(err, session.ErrSessionActive):
		writeError(w, http.StatusConflict, "session still active: "+id)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "failed to load results")
	default:
		writeJSON(w, http.StatusOK, report)
	}
}
