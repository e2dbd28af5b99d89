package personality

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCompatibilityNotFound marks a type pair with no authored compatibility entry.
// The engine itself reports a miss as a false result; callers that need an error
// value (service and HTTP layers) use this sentinel.
var ErrCompatibilityNotFound = errors.New("compatibility profile not found")

// ValidationError reports a malformed taxonomy, response set or argument.
type ValidationError struct {
	Reason  string
	Missing []int // unanswered question indices, when the set is incomplete
}

func (e *ValidationError) Error() string {
	if len(e.Missing) == 0 {
		return "validation: " + e.Reason
	}
	idx := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		idx[i] = fmt.Sprint(m)
	}
	return fmt.Sprintf("validation: %s (missing questions: %s)", e.Reason, strings.Join(idx, ", "))
}

func invalidf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// DegenerateProfileError is returned when no type scored above zero.
type DegenerateProfileError struct {
	TaxonomyID string
}

func (e *DegenerateProfileError) Error() string {
	if e.TaxonomyID == "" {
		return "degenerate profile: no type scored above zero"
	}
	return fmt.Sprintf("degenerate profile: no type scored above zero in taxonomy %s", e.TaxonomyID)
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsDegenerate reports whether err wraps a *DegenerateProfileError.
func IsDegenerate(err error) bool {
	var de *DegenerateProfileError
	return errors.As(err, &de)
}
