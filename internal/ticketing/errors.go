package ticketing

import "fmt"

// TransportError indicates a network-level failure reaching the ticketing
// backend. It is non-fatal to the workflow loop.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ticketing %s: transport failure: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BackendError indicates a non-success HTTP status from the ticketing
// backend. It is non-fatal to the workflow loop.
type BackendError struct {
	Op         string
	StatusCode int
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("ticketing %s: backend returned status %d", e.Op, e.StatusCode)
}
