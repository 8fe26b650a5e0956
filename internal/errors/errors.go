package appErrors

import "fmt"

// ErrBatchNotFound is a sentinel error
type ErrBatchNotFound struct {
	BatchID string
}

func (e *ErrBatchNotFound) Error() string {
	return fmt.Sprintf("batch %s not found", e.BatchID)
}

// Helper constructor
func NewBatchNotFound(id string) error {
	return &ErrBatchNotFound{BatchID: id}
}

// ErrEventNotFound is a sentinel error
type ErrEventNotFound struct {
	EventID int
}

func (e *ErrEventNotFound) Error() string {
	return fmt.Sprintf("event with ID %d not found", e.EventID)
}

func NewEventNotFound(id int) error {
	return &ErrEventNotFound{EventID: id}
}

// ErrGatewayNotConfigured means gateway credentials or a required template
// identifier are missing. Fatal to the batch being processed, not to the run.
type ErrGatewayNotConfigured struct {
	Missing string
}

func (e *ErrGatewayNotConfigured) Error() string {
	return fmt.Sprintf("messaging gateway not configured: %s missing", e.Missing)
}

func NewGatewayNotConfigured(missing string) error {
	return &ErrGatewayNotConfigured{Missing: missing}
}

// ErrBatchNotCancellable means a cancel hit a batch that already left pending.
type ErrBatchNotCancellable struct {
	BatchID string
	State   string
}

func (e *ErrBatchNotCancellable) Error() string {
	return fmt.Sprintf("batch %s cannot be cancelled in state %s", e.BatchID, e.State)
}

func NewBatchNotCancellable(id, state string) error {
	return &ErrBatchNotCancellable{BatchID: id, State: state}
}
