package logger_test

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/logger"
	"github.com/Deniskript/CryptoDen-v1.0-sub000/testutils"
)

func TestMockLogger(t *testing.T) {
	l := testutils.NewMockLogger()
	l.Info("hello", logger.String("k", "v"))
	if got := l.LastMessage(); got != "hello" {
		t.Fatalf("expected last message 'hello', got %q", got)
	}
}

func TestZapLoggerWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := logger.FromZap(zap.New(core)).With(logger.String("symbol", "BTCUSDT"))

	l.Warn("condition_eval_failed", logger.Int("bar", 42), logger.Err(errors.New("boom")))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["symbol"] != "BTCUSDT" {
		t.Fatalf("expected symbol field from With, got %v", ctx["symbol"])
	}
	if ctx["bar"] != int64(42) {
		t.Fatalf("expected bar=42, got %v", ctx["bar"])
	}
	if ctx["error"] != "boom" {
		t.Fatalf("expected error field, got %v", ctx["error"])
	}
}

func TestNewZapLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := logger.NewZapLogger("chatty"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := logger.NewZapLogger("debug"); err != nil {
		t.Fatalf("debug level should be accepted: %v", err)
	}
}
