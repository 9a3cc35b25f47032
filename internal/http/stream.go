package http

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"audio-sentinel-service/internal/audio"
	"audio-sentinel-service/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1 << 16,
	WriteBufferSize: 1 << 16,
	// Deployments front this service with their own ingress auth.
	CheckOrigin: func(*http.Request) bool { return true },
}

type streamError struct {
	Error string `json:"error"`
}

// stream handles a live analysis session over WebSocket. The client sends
// binary frames of raw 16-bit little-endian PCM; the service replies with one
// JSON message per scored chunk. When the connection closes, the session is
// finalized and its report stays retrievable via the results endpoint.
// Buffered audio shorter than one chunk is discarded at close.
func (h *handlers) stream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	s := h.app.Sessions.Create(session.ModeStreaming)
	logger := h.log.With().Str("sessionId", s.ID).Logger()

	defer func() {
		if _, err := h.app.Sessions.Finalize(s.ID); err != nil {
			logger.Error().Err(err).Msg("Failed to finalize streaming session")
		}
	}()

	// Hand the session id to the client first so results can be fetched
	// after disconnect.
	if err := conn.WriteJSON(map[string]string{"sessionId": s.ID}); err != nil {
		logger.Warn().Err(err).Msg("Failed to send session handshake")
		return
	}

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn().Err(err).Msg("WebSocket read error")
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			// Text frames are treated as a client-initiated stop.
			logger.Debug().Msg("Non-binary frame received, closing stream")
			return
		}

		samples, err := audio.DecodePCM16(data)
		if err != nil {
			_ = conn.WriteJSON(streamError{Error: err.Error()})
			continue
		}

		messages, err := h.app.Sessions.SubmitFrame(r.Context(), s.ID, samples)
		if err != nil {
			if errors.Is(err, session.ErrStreamBufferFull) {
				_ = conn.WriteJSON(streamError{Error: err.Error()})
				return
			}
			logger.Error().Err(err).Msg("Frame submission failed")
			return
		}

		for i := range messages {
			if err := conn.WriteJSON(&messages[i]); err != nil {
				logger.Warn().Err(err).Msg("Failed to write chunk message")
				return
			}
		}
	}
}
