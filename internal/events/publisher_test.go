package events

import (
	"context"
	"testing"

	"audio-sentinel-service/internal/models"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"empty brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			if p == nil {
				t.Fatal("expected non-nil publisher")
			}
			if p.enabled {
				t.Error("expected publisher to be disabled")
			}
			if p.writerChunk != nil {
				t.Error("expected nil chunk writer when disabled")
			}
			if p.writerEvent != nil {
				t.Error("expected nil event writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:    false,
		Brokers:    []string{"localhost:9092"},
		TopicChunk: "test.chunk",
		TopicEvent: "test.event",
		Principal:  "test-principal",
	}

	p := New(cfg)

	if p.principal != "test-principal" {
		t.Errorf("expected principal 'test-principal', got %s", p.principal)
	}
	if p.topicChunk != "test.chunk" {
		t.Errorf("expected topic chunk 'test.chunk', got %s", p.topicChunk)
	}
	if p.topicEvent != "test.event" {
		t.Errorf("expected topic event 'test.event', got %s", p.topicEvent)
	}
}

func TestPublisher_PublishChunk_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	msg := models.StreamMessage{ChunkID: 0, FusedScore: 0.4, Alert: models.AlertWarning}
	err := p.PublishChunk(context.Background(), "session-123", msg)

	if err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishEvent_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false})

	event := models.Event{
		Start:      2.0,
		End:        4.5,
		Type:       models.EventGunshot,
		Confidence: 0.9,
		Alert:      models.AlertCritical,
	}
	err := p.PublishEvent(context.Background(), "session-123", &event)

	if err != nil {
		t.Errorf("expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Publish_InvalidJSON(t *testing.T) {
	p := New(&Config{Enabled: false})

	// Create an unmarshalable value (channel)
	event := make(chan int)
	err := p.PublishEvent(context.Background(), "session-123", event)

	if err == nil {
		t.Error("expected error for unmarshalable event")
	}
}

func TestPublisher_Close_NoWriters(t *testing.T) {
	p := New(&Config{Enabled: false})

	err := p.Close()
	if err != nil {
		t.Errorf("expected no error closing disabled publisher, got %v", err)
	}
}

func TestPublisher_Close_NilWriters(t *testing.T) {
	p := &Publisher{
		writerChunk: nil,
		writerEvent: nil,
	}

	err := p.Close()
	if err != nil {
		t.Errorf("expected no error closing publisher with nil writers, got %v", err)
	}
}
