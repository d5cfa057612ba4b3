package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/myblogsite/myblog/pkg/config"
)

func TestScalyrEncoder(t *testing.T) {
	cfg := &config.LoggingConfig{
		Level:        "INFO",
		Format:       "json",
		ScalyrFormat: true,
	}

	err := InitLogger(cfg)
	if err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	// Capture output
	var buf bytes.Buffer
	oldLogger := Logger
	defer func() { Logger = oldLogger }()

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:       "timestamp",
		LevelKey:      "level",
		MessageKey:    "message",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
		EncodeTime:    zapcore.ISO8601TimeEncoder,
		EncodeLevel:   zapcore.LowercaseLevelEncoder,
		EncodeCaller:  zapcore.ShortCallerEncoder,
	}

	encoder := NewScalyrEncoder(encoderConfig)
	core := zapcore.NewCore(encoder, zapcore.AddSync(&buf), zapcore.InfoLevel)
	logger := zap.New(core)

	logger.Info("post created", zap.String("title", "T1"), zap.Int64("post_id", 7))

	var logObj map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &logObj); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if logObj["message"] != "post created" {
		t.Errorf("Expected message 'post created', got: %v", logObj["message"])
	}
	if logObj["title"] != "T1" {
		t.Errorf("Expected field 'title'='T1', got: %v", logObj["title"])
	}
	if logObj["post_id"] != float64(7) {
		t.Errorf("Expected field 'post_id'=7, got: %v", logObj["post_id"])
	}
	if _, ok := logObj["timestamp"]; !ok {
		t.Error("Expected 'timestamp' field in log output")
	}
}

func TestInitLoggerWritesFile(t *testing.T) {
	oldLogger := Logger
	defer func() { Logger = oldLogger }()

	path := filepath.Join(t.TempDir(), "blog.log")
	cfg := &config.LoggingConfig{
		Level:      "DEBUG",
		Format:     "json",
		File:       path,
		MaxSizeMB:  1,
		MaxBackups: 1,
	}
	if err := InitLogger(cfg); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	WithComponent("test").Info("written to file")
	_ = Logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("Log file does not contain message: %s", data)
	}
	if !strings.Contains(string(data), `"component":"test"`) {
		t.Errorf("Log file does not contain component field: %s", data)
	}
}

func TestWithTraceID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core).With(zap.String("component", "http"))

	WithTraceID(base, "4bf92f3577b34da6a3ce929d0e0e4736").Info("traced")
	WithTraceID(base, "").Info("untraced")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("Expected 2 log entries, got %d", len(entries))
	}

	traced := entries[0].ContextMap()
	if traced["trace_id"] != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("Expected trace_id on traced entry, got: %v", traced["trace_id"])
	}
	if traced["component"] != "http" {
		t.Errorf("Expected component to be kept, got: %v", traced["component"])
	}
	if _, ok := entries[1].ContextMap()["trace_id"]; ok {
		t.Error("Expected no trace_id for an empty trace ID")
	}
}
