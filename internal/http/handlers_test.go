package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"audio-sentinel-service/internal/app"
	"audio-sentinel-service/internal/config"
	"audio-sentinel-service/internal/models"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := config.Default()
	application, err := app.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	t.Cleanup(application.Shutdown)

	return NewRouter(application)
}

// silencePCM builds n samples of 16-bit little-endian silence.
func silencePCM(n int) []byte {
	return make([]byte, n*2)
}

func TestUpload(t *testing.T) {
	router := newTestRouter(t)

	// 2.5 seconds of silence: exactly one chunk, nothing detected.
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze/upload", bytes.NewReader(silencePCM(40000)))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var report models.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.SessionID == "" {
		t.Error("missing session id")
	}
	if report.TotalChunks != 1 {
		t.Errorf("totalChunks = %d, want 1", report.TotalChunks)
	}
	if report.ViolenceDetected {
		t.Error("violence detected in silence")
	}

	// The finalized report stays retrievable by id.
	req = httptest.NewRequest(http.MethodGet, "/v1/analyze/results/"+report.SessionID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("results status = %d", rec.Code)
	}
	var fetched models.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode fetched report: %v", err)
	}
	if fetched.SessionID != report.SessionID || fetched.TotalChunks != report.TotalChunks {
		t.Error("fetched report differs from upload response")
	}
}

func TestUpload_BadPayloads(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name string
		body []byte
		want int
	}{
		{"empty body", nil, http.StatusBadRequest},
		{"odd byte count", []byte{0x01, 0x02, 0x03}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/analyze/upload", bytes.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Error == "" {
				t.Errorf("expected JSON error body, got %s", rec.Body.String())
			}
		})
	}
}

func TestResults_UnknownSession(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/analyze/results/no-such-session", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestStream(t *testing.T) {
	router := newTestRouter(t)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/analyze/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	var handshake struct {
		SessionID string `json:"sessionId"`
	}
	if err := conn.ReadJSON(&handshake); err != nil {
		t.Fatalf("read handshake: %v", err)
	}
	if handshake.SessionID == "" {
		t.Fatal("handshake missing session id")
	}

	// 2.5 seconds of silence completes one chunk.
	if err := conn.WriteMessage(websocket.BinaryMessage, silencePCM(40000)); err != nil {
		t.Fatalf("write frame: %v", err)
	}

	var msg models.StreamMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read chunk message: %v", err)
	}
	if msg.ChunkID != 0 {
		t.Errorf("chunkID = %d, want 0", msg.ChunkID)
	}
	if msg.Alert != models.AlertSafe {
		t.Errorf("alert = %s, want Safe for silence", msg.Alert)
	}

	// Closing the stream finalizes the session; its report must become
	// retrievable over plain HTTP shortly after.
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(srv.URL + "/v1/analyze/results/" + handshake.SessionID)
		if err != nil {
			t.Fatalf("get results: %v", err)
		}
		if resp.StatusCode == http.StatusOK {
			var report models.Report
			if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
				t.Fatalf("decode report: %v", err)
			}
			resp.Body.Close()
			if report.TotalChunks != 1 {
				t.Errorf("totalChunks = %d, want 1", report.TotalChunks)
			}
			return
		}
		resp.Body.Close()
		if time.Now().After(deadline) {
			t.Fatalf("session never finalized, last status %d", resp.StatusCode)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
