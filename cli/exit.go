package cli

import "fmt"

// Process exit codes.
const (
	ExitFailure     = 1
	ExitUsage       = 2
	ExitInterrupted = 130
)

// ExitError is returned by commands that want to control the process exit code
// without necessarily printing an additional error message.
type ExitError struct {
	code    int
	message string
}

func (e *ExitError) Error() string {
	if e == nil {
		return ""
	}
	if e.message != "" {
		return e.message
	}
	return fmt.Sprintf("exit %d", e.code)
}

func (e *ExitError) Code() int {
	if e == nil {
		return ExitFailure
	}
	return e.code
}

func (e *ExitError) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func usageError(format string, args ...any) *ExitError {
	return &ExitError{code: ExitUsage, message: fmt.Sprintf(format, args...)}
}
