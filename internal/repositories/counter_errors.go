package repositories

import "fmt"

// CounterErrorCode classifies order-number counter failures.
type CounterErrorCode string

const (
	CounterErrorUnknown      CounterErrorCode = "counter_unknown"
	CounterErrorInvalidInput CounterErrorCode = "counter_invalid_input"
	// CounterErrorExhausted fires when a counter with a configured ceiling
	// cannot advance. Order-number counters normally run unbounded.
	CounterErrorExhausted CounterErrorCode = "counter_exhausted"
)

// CounterError is the typed failure for sequential counter operations, so
// checkout can distinguish exhaustion from bad input.
type CounterError struct {
	Op      string
	Code    CounterErrorCode
	Message string
	Err     error
}

func (e *CounterError) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	default:
		return e.Message
	}
}

func (e *CounterError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches on the error code so callers can compare against sentinel
// instances with errors.Is.
func (e *CounterError) Is(target error) bool {
	other, ok := target.(*CounterError)
	if !ok || e == nil || other == nil {
		return false
	}
	return e.Code == other.Code
}

// NewCounterError builds a CounterError, defaulting the message to the code.
func NewCounterError(code CounterErrorCode, message string, err error) *CounterError {
	if message == "" {
		message = string(code)
	}
	return &CounterError{Code: code, Message: message, Err: err}
}
