package testutils

import (
	"sync"

	"github.com/Deniskript/CryptoDen-v1.0-sub000/logger"
)

// LogEntry captures a single log invocation for inspection in tests.
type LogEntry struct {
	Level  string
	Msg    string
	Fields []logger.Field
}

// MockLogger implements logger.Logger but stores entries in-memory.
// Loggers derived via With share the parent's entry list.
type MockLogger struct {
	mu      *sync.Mutex
	entries *[]LogEntry
	base    []logger.Field
}

// NewMockLogger returns a logger that records everything.
func NewMockLogger() *MockLogger {
	return &MockLogger{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
}

func (l *MockLogger) record(level, msg string, fields ...logger.Field) {
	all := append(append([]logger.Field(nil), l.base...), fields...)
	l.mu.Lock()
	*l.entries = append(*l.entries, LogEntry{Level: level, Msg: msg, Fields: all})
	l.mu.Unlock()
}

func (l *MockLogger) Debug(msg string, fields ...logger.Field) { l.record("debug", msg, fields...) }
func (l *MockLogger) Info(msg string, fields ...logger.Field)  { l.record("info", msg, fields...) }
func (l *MockLogger) Warn(msg string, fields ...logger.Field)  { l.record("warn", msg, fields...) }
func (l *MockLogger) Error(msg string, fields ...logger.Field) { l.record("error", msg, fields...) }

func (l *MockLogger) With(fields ...logger.Field) logger.Logger {
	return &MockLogger{
		mu:      l.mu,
		entries: l.entries,
		base:    append(append([]logger.Field(nil), l.base...), fields...),
	}
}

// Entries returns a copy of every recorded entry.
func (l *MockLogger) Entries() []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LogEntry(nil), *l.entries...)
}

// LastMessage returns the message associated with the most recent log entry.
func (l *MockLogger) LastMessage() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(*l.entries) == 0 {
		return ""
	}
	return (*l.entries)[len(*l.entries)-1].Msg
}

// Count returns how many entries carry msg.
func (l *MockLogger) Count(msg string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range *l.entries {
		if e.Msg == msg {
			n++
		}
	}
	return n
}
