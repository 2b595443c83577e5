package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrCollection    = errors.New("collection failure")
	ErrEvaluation    = errors.New("evaluation failure")
	ErrAggregation   = errors.New("aggregation incomplete")
	ErrSynthesis     = errors.New("synthesis inconsistency")
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// ErrorKind names the taxonomy bucket an error belongs to. Kinds appear in
// structured logs and in report degradation records.
type ErrorKind string

const (
	KindCollection    ErrorKind = "collection"
	KindEvaluation    ErrorKind = "evaluation"
	KindAggregation   ErrorKind = "aggregation"
	KindSynthesis     ErrorKind = "synthesis"
	KindExternalTool  ErrorKind = "external_tool"
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindNotFound      ErrorKind = "not_found"
	KindTimeout       ErrorKind = "timeout"
	KindTransient     ErrorKind = "transient"
	KindUnknown       ErrorKind = "unknown"
)

// Wrap builds an error message that includes phase context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, phase, operation, message string, err error) error {
	detail := buildDetail(phase, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind reports the taxonomy bucket for an error based on its sentinel marker.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrCollection):
		return KindCollection
	case errors.Is(err, ErrEvaluation):
		return KindEvaluation
	case errors.Is(err, ErrAggregation):
		return KindAggregation
	case errors.Is(err, ErrSynthesis):
		return KindSynthesis
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrExternalTool):
		return KindExternalTool
	case errors.Is(err, ErrTransient):
		return KindTransient
	default:
		return KindUnknown
	}
}

// IsFatal reports whether an error belongs to the configuration class that
// aborts a run before any report is produced. Everything else degrades.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
}

// ErrorDetails carries the decomposed view of a wrapped error for structured
// logging and degradation records.
type ErrorDetails struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

// Details decomposes a wrapped error into its kind, display message, and
// underlying cause.
func Details(err error) ErrorDetails {
	if err == nil {
		return ErrorDetails{Kind: KindUnknown}
	}
	return ErrorDetails{
		Kind:    Kind(err),
		Message: strings.TrimSpace(err.Error()),
		Cause:   Cause(err),
	}
}

// Cause returns the error wrapped beneath the sentinel marker, or nil when
// the wrap carried no underlying error. Wrap joins the marker and the cause
// with multiple %w verbs, so the chain surfaces as Unwrap() []error and the
// cause is its final element.
func Cause(err error) error {
	if unwrapped, ok := err.(interface{ Unwrap() []error }); ok {
		if chain := unwrapped.Unwrap(); len(chain) > 1 {
			return chain[len(chain)-1]
		}
	}
	return nil
}

func buildDetail(phase, operation, message string) string {
	parts := make([]string, 0, 3)
	if phase = strings.TrimSpace(phase); phase != "" {
		parts = append(parts, phase)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
