package logging

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testStringer string

func (s testStringer) String() string { return string(s) }

func TestInitAndLoggingToFile(t *testing.T) {
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "nested", "docqa.log")

	if err := Init(logPath); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close()
		SetDebug(false)
	})

	LogEvent("hello %s", "world")
	LogError("broken %d", 7)
	LogDebug("hidden")
	SetDebug(true)
	LogDebug("visible")
	_ = Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello world") {
		t.Fatalf("expected LogEvent content, got: %s", content)
	}
	if !strings.Contains(content, "[ERROR] broken 7") {
		t.Fatalf("expected LogError content, got: %s", content)
	}
	if strings.Contains(content, "hidden") {
		t.Fatalf("debug line written while debug disabled: %s", content)
	}
	if !strings.Contains(content, "[DEBUG] visible") {
		t.Fatalf("expected debug line, got: %s", content)
	}
}

func TestBuildRequestMessageDefaults(t *testing.T) {
	msg := buildRequestMessage(" in ", " ", "", map[string]any{"ok": true})
	if !strings.HasPrefix(msg, "[IN]") {
		t.Fatalf("expected uppercased direction, got: %s", msg)
	}
	if !strings.Contains(msg, "host=unknown") {
		t.Fatalf("expected default host, got: %s", msg)
	}
	if !strings.Contains(msg, "model=unknown") {
		t.Fatalf("expected default model, got: %s", msg)
	}
	if !strings.Contains(msg, "payload={\"ok\":true}") {
		t.Fatalf("expected payload json, got: %s", msg)
	}
}

func TestBuildRequestMessageTruncatesLargePayloads(t *testing.T) {
	msg := buildRequestMessage("out", "h", "m", strings.Repeat("x", maxPayloadChars+50))
	if !strings.Contains(msg, "(50 more bytes)") {
		t.Fatalf("expected truncation marker, got tail: %s", msg[len(msg)-40:])
	}
}

func TestFormatPayloadVariants(t *testing.T) {
	if got := formatPayload(nil); got != "null" {
		t.Fatalf("nil payload: %s", got)
	}
	if got := formatPayload(" "); got != `""` {
		t.Fatalf("empty string payload: %s", got)
	}
	if got := formatPayload([]byte("hi")); got != "hi" {
		t.Fatalf("byte payload: %s", got)
	}
	if got := formatPayload(testStringer("ok")); got != "ok" {
		t.Fatalf("stringer payload: %s", got)
	}
}

func TestLogRequestSilentWithoutDebug(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	SetDebug(false)

	LogRequest("out", "localhost", "model", "payload")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got: %s", buf.String())
	}
}
