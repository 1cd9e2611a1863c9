// Package fixtures provides test doubles shared by command packages.
package fixtures

import "sync"

// RecordingRegistry captures command handlers passed to RegisterCommand.
type RecordingRegistry struct {
	mu       sync.Mutex
	Handlers []any
	err      error
}

// NewRecordingRegistry constructs an empty registry recorder.
func NewRecordingRegistry() *RecordingRegistry {
	return &RecordingRegistry{
		Handlers: make([]any, 0),
	}
}

// Fail makes subsequent registrations return err.
func (r *RecordingRegistry) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// RegisterCommand records handler.
func (r *RecordingRegistry) RegisterCommand(handler any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.Handlers = append(r.Handlers, handler)
	return nil
}
