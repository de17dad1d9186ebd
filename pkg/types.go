package pkg

import "fmt"

var (
	// Version is set at build time with -ldflags.
	Version = "dev"
	// BuildDate is set at build time with -ldflags.
	BuildDate = "unknown"
)

// InvalidArgumentError is returned for input rejected before any request
// is sent to the service.
type InvalidArgumentError struct {
	Arg string
	Err error
}

// NewInvalidArgument returns a new InvalidArgumentError
func NewInvalidArgument(arg string, err error) *InvalidArgumentError {
	return &InvalidArgumentError{Arg: arg, Err: err}
}

func (e *InvalidArgumentError) Error() string {
	if e.Arg == "" {
		return fmt.Sprintf("Invalid argument: %v", e.Err)
	}
	return fmt.Sprintf("Invalid argument %q: %v", e.Arg, e.Err)
}

func (e *InvalidArgumentError) Unwrap() error {
	return e.Err
}
