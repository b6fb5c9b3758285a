package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func newBufferLogger(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := &Config{Level: level, Format: "json", ServiceName: "test"}
	return NewWithWriter(cfg, &buf), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected a log line, got nothing")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid json log line %q: %v", line, err)
	}
	return m
}

func TestNew_JSONFields(t *testing.T) {
	log, buf := newBufferLogger("debug")
	log.Info("linked", Fields("from", "a.main", "to", "b.main"))

	m := decodeLine(t, buf)
	if m["message"] != "linked" {
		t.Errorf("expected message 'linked', got %v", m["message"])
	}
	if m["from"] != "a.main" || m["to"] != "b.main" {
		t.Errorf("expected from/to fields, got %v", m)
	}
	if m["service"] != "test" {
		t.Errorf("expected service=test, got %v", m["service"])
	}
}

func TestNew_LevelFilters(t *testing.T) {
	log, buf := newBufferLogger("warn")
	log.Info("hidden")
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected info/debug to be filtered, got %q", buf.String())
	}
	log.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected warn to be written, got %q", buf.String())
	}
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	log, buf := newBufferLogger("nope")
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatal("expected debug to be filtered at info level")
	}
	log.Info("shown")
	if buf.Len() == 0 {
		t.Fatal("expected info to be written")
	}
}

func TestWithComponentAndPipe(t *testing.T) {
	log, buf := newBufferLogger("info")
	log.WithComponent("scheduler").WithPipe("root").Info("run")

	m := decodeLine(t, buf)
	if m[FieldComponent] != "scheduler" {
		t.Errorf("expected component=scheduler, got %v", m[FieldComponent])
	}
	if m[FieldPipe] != "root" {
		t.Errorf("expected pipe=root, got %v", m[FieldPipe])
	}
}

func TestWithError(t *testing.T) {
	log, buf := newBufferLogger("info")
	log.WithError(errors.New("boom")).Error("failed")
	m := decodeLine(t, buf)
	if m["error"] != "boom" {
		t.Errorf("expected error=boom, got %v", m["error"])
	}
}

func TestWithFields(t *testing.T) {
	log, buf := newBufferLogger("info")
	log.WithFields(map[string]interface{}{FieldRow: 3}).Info("row")
	m := decodeLine(t, buf)
	if m[FieldRow] != float64(3) {
		t.Errorf("expected row=3, got %v", m[FieldRow])
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stderr" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.ServiceName != "flowkit" {
		t.Errorf("expected default service name, got %q", cfg.ServiceName)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Level: "info", Format: "json"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Level = "loud"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid level")
	}
	cfg = Config{Level: "info", Format: "xml"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid format")
	}
}

func TestRegisterAndGet(t *testing.T) {
	log, buf := newBufferLogger("info")
	Register("mapper-test", log)
	Get("mapper-test").Info("hello")
	if !strings.Contains(buf.String(), "hello") {
		t.Fatal("expected registered logger to be returned")
	}
}

func TestGetUnregisteredUsesGlobal(t *testing.T) {
	log, buf := newBufferLogger("info")
	SetGlobalLogger(log)
	defer SetGlobalLogger(nil)

	Get("unregistered-component").Info("hi")
	m := decodeLine(t, buf)
	if m[FieldComponent] != "unregistered-component" {
		t.Errorf("expected component tag, got %v", m[FieldComponent])
	}
}

func TestInitResetsRegistry(t *testing.T) {
	log, _ := newBufferLogger("info")
	Register("stale", log)
	Init(Config{Level: "error", Format: "json"})
	defer SetGlobalLogger(nil)

	registry.mu.RLock()
	_, ok := registry.loggers["stale"]
	registry.mu.RUnlock()
	if ok {
		t.Fatal("expected Init to drop registered loggers")
	}
}

func TestNop(t *testing.T) {
	Nop().Error("discarded")
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&Config{Level: "info", Format: "console", NoColor: true}, &buf)
	log.Info("pretty", Fields("node", "a.run"))
	out := buf.String()
	if !strings.Contains(out, "[INF]") || !strings.Contains(out, "node:") {
		t.Errorf("unexpected console output %q", out)
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if len(m) != 2 || m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields %v", m)
	}
}

func TestErrorAndDurationFields(t *testing.T) {
	ef := ErrorFields("x.run", errors.New("bad"))
	if ef[FieldNode] != "x.run" || ef[FieldError] != "bad" {
		t.Errorf("unexpected error fields %v", ef)
	}
	df := DurationFields("x.run", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("unexpected duration fields %v", df)
	}
}
