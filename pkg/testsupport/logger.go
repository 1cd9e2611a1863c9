package testsupport

import (
	"context"
	"maps"
	"sync"

	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

// LogEntry is a single entry captured by RecordingProvider.
type LogEntry struct {
	Level  string
	Msg    string
	Fields map[string]any
}

// RecordingProvider captures log entries from every logger it hands out.
// It is safe for concurrent use.
type RecordingProvider struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewRecordingProvider returns an empty provider.
func NewRecordingProvider() *RecordingProvider {
	return &RecordingProvider{}
}

// GetLogger satisfies interfaces.LoggerProvider.
func (p *RecordingProvider) GetLogger(name string) interfaces.Logger {
	return &recordingLogger{provider: p, fields: map[string]any{"logger": name}}
}

// Entries returns a snapshot of the captured entries.
func (p *RecordingProvider) Entries() []LogEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]LogEntry, len(p.entries))
	copy(out, p.entries)
	return out
}

// Find returns the first entry with msg, or nil.
func (p *RecordingProvider) Find(msg string) *LogEntry {
	for _, entry := range p.Entries() {
		if entry.Msg == msg {
			return &entry
		}
	}
	return nil
}

func (p *RecordingProvider) record(entry LogEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry)
}

type recordingLogger struct {
	provider *RecordingProvider
	fields   map[string]any
}

var (
	_ interfaces.Logger       = (*recordingLogger)(nil)
	_ interfaces.FieldsLogger = (*recordingLogger)(nil)
)

func (l *recordingLogger) Trace(msg string, args ...any) { l.log("trace", msg, args) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.log("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.log("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log("error", msg, args) }
func (l *recordingLogger) Fatal(msg string, args ...any) { l.log("fatal", msg, args) }

func (l *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	merged := maps.Clone(l.fields)
	maps.Copy(merged, fields)
	return &recordingLogger{provider: l.provider, fields: merged}
}

func (l *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	fields := logging.ContextFields(ctx)
	if len(fields) == 0 {
		return l
	}
	return l.WithFields(fields)
}

func (l *recordingLogger) log(level, msg string, args []any) {
	fields := maps.Clone(l.fields)
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			fields[key] = args[i+1]
		}
	}
	l.provider.record(LogEntry{Level: level, Msg: msg, Fields: fields})
}
