package domain

import "errors"

var (
	// ErrDivisionByZero is returned when the sulfate/chlorine ratio cannot be
	// formed because chlorine is zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrInvalidInput is returned when a measurement is missing, non-numeric,
	// or not finite.
	ErrInvalidInput = errors.New("invalid input")
)

// Error kinds used as metric labels and log attributes.
const (
	KindDivisionByZero = "division_by_zero"
	KindInvalidInput   = "invalid_input"
	KindParse          = "parse"
)

// ErrorKind classifies an error returned by this package. Errors that are
// neither ErrDivisionByZero nor ErrInvalidInput are reported as KindParse.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDivisionByZero):
		return KindDivisionByZero
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	default:
		return KindParse
	}
}
