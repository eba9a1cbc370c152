package cli

import "fmt"

// ExitError carries a process exit code other than 1.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitPartialFailure is returned when some, but not all, modules failed.
const ExitPartialFailure = 2

func partialFailure(failed, total int) error {
	return &ExitError{
		Code: ExitPartialFailure,
		Err:  fmt.Errorf("%d of %d modules failed to load", failed, total),
	}
}
