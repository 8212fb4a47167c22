package fixtures

import "fmt"

// RecordingRegistry captures command handlers handed to a registry.
type RecordingRegistry struct {
	Handlers []any
	err      error
}

// NewRecordingRegistry constructs an empty registry recorder.
func NewRecordingRegistry() *RecordingRegistry {
	return &RecordingRegistry{
		Handlers: make([]any, 0),
	}
}

// Fail makes every later registration return err.
func (r *RecordingRegistry) Fail(err error) {
	r.err = err
}

// RegisterCommand records handler unless the recorder was told to fail.
func (r *RecordingRegistry) RegisterCommand(handler any) error {
	if r.err != nil {
		return fmt.Errorf("register %T: %w", handler, r.err)
	}
	r.Handlers = append(r.Handlers, handler)
	return nil
}
