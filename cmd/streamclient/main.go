package main

import (
	"encoding/binary"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

// Stream audio in frames to simulate real-time capture.
// At 16kHz 16-bit mono = 32000 bytes/second; 100ms frames = 3200 bytes.
const frameSize = 3200
const frameIntervalMs = 100

type chunkMessage struct {
	SessionID   string  `json:"sessionId,omitempty"`
	ChunkID     int     `json:"chunkId"`
	FusedScore  float64 `json:"fusedScore"`
	Alert       string  `json:"alert"`
	Explanation string  `json:"explanation"`
	EventType   string  `json:"eventType,omitempty"`
	Transcript  string  `json:"transcript,omitempty"`
	Error       string  `json:"error,omitempty"`
}

func main() {
	audioFile := flag.String("audio", "testdata/sample-16khz.wav", "Path to WAV file (16kHz 16-bit mono)")
	serverURL := flag.String("server", "ws://localhost:8080/v1/analyze/stream", "WebSocket endpoint")
	realtime := flag.Bool("realtime", true, "Pace frames at capture speed")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		log.Fatalf("Failed to read WAV header: %v", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		log.Fatal("Not a valid WAV file")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])

	log.Printf("WAV file: format=%d channels=%d sampleRate=%d bitsPerSample=%d",
		audioFormat, numChannels, sampleRate, bitsPerSample)

	if audioFormat != 1 {
		log.Fatal("Only PCM format supported")
	}
	if numChannels != 1 || bitsPerSample != 16 {
		log.Fatal("Only 16-bit mono audio supported")
	}
	if sampleRate != 16000 {
		log.Printf("Warning: Sample rate is %d Hz, expected 16000 Hz", sampleRate)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("Connected to %s", *serverURL)

	var handshake struct {
		SessionID string `json:"sessionId"`
	}
	if err := conn.ReadJSON(&handshake); err != nil {
		log.Fatalf("Failed to read handshake: %v", err)
	}
	log.Printf("Session started: %s", handshake.SessionID)

	// Server messages arrive asynchronously while frames are sent.
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var msg chunkMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Error != "" {
				log.Printf("Server error: %s", msg.Error)
				continue
			}
			log.Printf("chunk %d: score=%.3f alert=%s event=%q transcript=%q explanation=%q",
				msg.ChunkID, msg.FusedScore, msg.Alert, msg.EventType, msg.Transcript, msg.Explanation)
		}
	}()

	frame := make([]byte, frameSize)
	var totalBytes int64
	var frameNum int
	startTime := time.Now()

	for {
		n, err := f.Read(frame)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read audio: %v", err)
		}

		frameNum++
		totalBytes += int64(n)

		if err := conn.WriteMessage(websocket.BinaryMessage, frame[:n]); err != nil {
			log.Fatalf("Failed to send frame: %v", err)
		}

		if frameNum%10 == 0 {
			log.Printf("Sent frame %d (%d bytes total)", frameNum, totalBytes)
		}

		if *realtime {
			time.Sleep(frameIntervalMs * time.Millisecond)
		}
	}

	elapsed := time.Since(startTime)
	log.Printf("Finished streaming: %d frames, %d bytes in %v", frameNum, totalBytes, elapsed)

	// Close politely and drain remaining chunk messages.
	deadline := time.Now().Add(5 * time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)

	select {
	case <-readerDone:
	case <-time.After(5 * time.Second):
	}

	log.Printf("Stream completed: sessionId=%s (fetch results via GET /v1/analyze/results/%s)",
		handshake.SessionID, handshake.SessionID)
}
