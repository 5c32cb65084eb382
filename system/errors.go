package system

import "errors"

// ErrDomain is returned when a DiscreteSystem is constructed with a negative
// sampling time δ.
var ErrDomain = errors.New("system: domain error")

// ErrDimensionMismatch is returned when the dimensions of A, X0, or the
// members of a varying input disagree.
var ErrDimensionMismatch = errors.New("system: dimension mismatch")

// ErrInvalidApproxModel is returned when an unknown discretization
// approximation model name is requested.
var ErrInvalidApproxModel = errors.New("system: invalid approximation model")

// ErrNotImplemented is returned when parallel=true is requested on a code
// path that does not (yet) have a parallel implementation.
var ErrNotImplemented = errors.New("system: not implemented")

// DomainError reports a value outside the admissible domain of an operation,
// e.g. a negative discretization step.
type DomainError struct {
	Msg string
}

func (e *DomainError) Error() string { return "system: domain error: " + e.Msg }

func (e *DomainError) Unwrap() error { return ErrDomain }

// DimensionMismatchError reports disagreeing dimensions among the operands
// of a system or input construction.
type DimensionMismatchError struct {
	Msg string
}

func (e *DimensionMismatchError) Error() string { return "system: dimension mismatch: " + e.Msg }

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// InvalidApproxModelError reports an unrecognized approx_model string.
type InvalidApproxModelError struct {
	Model string
}

func (e *InvalidApproxModelError) Error() string {
	return "system: invalid approximation model: " + e.Model
}

func (e *InvalidApproxModelError) Unwrap() error { return ErrInvalidApproxModel }

// NotImplementedError reports a request for a parallel code path that has
// no parallel implementation.
type NotImplementedError struct {
	Msg string
}

func (e *NotImplementedError) Error() string { return "system: not implemented: " + e.Msg }

func (e *NotImplementedError) Unwrap() error { return ErrNotImplemented }
