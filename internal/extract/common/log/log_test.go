package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

type testLogger struct {
	entries []string
}

func (l *testLogger) Info(_ map[string]any, msg string)  { l.entries = append(l.entries, "INFO:"+msg) }
func (l *testLogger) Error(_ map[string]any, msg string) { l.entries = append(l.entries, "ERROR:"+msg) }
func (l *testLogger) Debug(_ map[string]any, msg string) { l.entries = append(l.entries, "DEBUG:"+msg) }
func (l *testLogger) Warn(_ map[string]any, msg string)  { l.entries = append(l.entries, "WARN:"+msg) }
func (l *testLogger) Panic(_ map[string]any, msg string) {}
func (l *testLogger) Fatal(_ map[string]any, msg string) {}

func TestZapLogger_Levels(t *testing.T) {
	l, err := New("dev", "debug")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	l.Debug(map[string]any{"url": "http://example.com/", "index": 3}, "test debug")
	l.Info(nil, "test info")
	l.Warn(nil, "test warn")
	l.Error(nil, "test error")

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic, but none occurred")
		}
	}()
	l.Panic(nil, "test panic")
}

func TestSetLoggerAndGlobalLogging(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)
	tlog := &testLogger{}
	SetLogger(tlog)

	Info(nil, "info msg")
	Error(nil, "error msg")
	Debug(nil, "debug msg")
	Warn(nil, "warn msg")
	Panic(nil, "ignored")
	Fatal(nil, "ignored")

	expected := []string{
		"INFO:info msg",
		"ERROR:error msg",
		"DEBUG:debug msg",
		"WARN:warn msg",
	}
	if len(tlog.entries) != len(expected) {
		t.Fatalf("expected %d log entries, got %d", len(expected), len(tlog.entries))
	}
	for i, msg := range expected {
		if tlog.entries[i] != msg {
			t.Errorf("expected log[%d] = %q, got %q", i, msg, tlog.entries[i])
		}
	}
}

func TestConfigure(t *testing.T) {
	orig := GetLogger()
	defer SetLogger(orig)

	for _, lvl := range []string{"debug", "info", "warn", "error", "INFO"} {
		if err := Configure("prod", lvl); err != nil {
			t.Errorf("Configure(prod, %q) unexpected error: %v", lvl, err)
		}
	}
	if err := Configure("dev", "verbose"); err == nil {
		t.Error("expected error for invalid level")
	}
}

func TestNoopLogger(t *testing.T) {
	l := NewNoopLogger()
	l.Info(nil, "x")
	l.Error(nil, "x")
	l.Debug(nil, "x")
	l.Warn(nil, "x")
	l.Panic(nil, "x")
	l.Fatal(nil, "x")
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "prod", "info")
	if err != nil {
		t.Fatalf("NewWithWriter() error: %v", err)
	}
	l.Debug(nil, "filtered")
	l.Info(map[string]any{"url": "http://a.b/x", "bytes": 3}, "Saved response")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if entry["msg"] != "Saved response" || entry["level"] != "info" || entry["url"] != "http://a.b/x" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("missing time key")
	}
	if strings.Index(lines[0], `"bytes"`) > strings.Index(lines[0], `"url"`) {
		t.Errorf("fields not ordered by key: %s", lines[0])
	}
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "dev", "debug")
	if err != nil {
		t.Fatalf("NewWithWriter() error: %v", err)
	}
	l.Debug(map[string]any{"index": 2}, "skip_item_without_url")
	if !strings.Contains(buf.String(), "skip_item_without_url") || !strings.Contains(buf.String(), `"index": 2`) {
		t.Errorf("unexpected console output: %q", buf.String())
	}
}
