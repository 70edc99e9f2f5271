package publish

import (
	"errors"
	"fmt"
)

// RepoAccessError indicates the target repository could not be cloned.
type RepoAccessError struct {
	URL string
	Err error
}

func (e *RepoAccessError) Error() string {
	return fmt.Sprintf("target repository %s inaccessible: %v", e.URL, e.Err)
}

func (e *RepoAccessError) Unwrap() error { return e.Err }

// PublishError indicates a failure while staging, committing or pushing the
// branch. The scratch clone is still cleaned up when this is returned.
type PublishError struct {
	Step string
	Err  error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s failed: %v", e.Step, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// ErrRequestCreation indicates the review-request API rejected the
// submission. The branch remains pushed; the pipeline logs this and reports
// "no request created" rather than failing the cycle.
var ErrRequestCreation = errors.New("review request creation rejected")
