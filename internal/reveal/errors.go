package reveal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoCandidates is matched by errors.Is for every NO_CANDIDATES RevealError.
var ErrNoCandidates = errors.New("no candidates matched the requested tags")

var (
	// ErrStopped is returned by waiting calls once the loop has exited.
	ErrStopped = errors.New("reveal: controller stopped")

	// ErrAlreadyRunning is returned by a second concurrent Run.
	ErrAlreadyRunning = errors.New("reveal: controller already running")
)

// RevealError describes why a reveal returned to Idle.
//
// RevealErrors are recoverable: the controller is back in a clean Idle
// state and the same request can be retried.
type RevealError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Generation identifies the failed reveal.
	Generation int64

	// Tags are the filter tags the reveal was requested with.
	Tags []string

	// Err is the underlying cause, if any.
	Err error
}

// ErrorCode categorizes reveal errors.
type ErrorCode string

const (
	// ErrCodeNoCandidates indicates the provider returned an empty set.
	ErrCodeNoCandidates ErrorCode = "NO_CANDIDATES"

	// ErrCodeFetchFailed indicates the provider failed or returned an unusable set.
	ErrCodeFetchFailed ErrorCode = "FETCH_FAILED"

	// ErrCodeSelectionFailed indicates the selection engine rejected the set.
	ErrCodeSelectionFailed ErrorCode = "SELECTION_FAILED"
)

// Error implements the error interface.
func (e *RevealError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s (generation=%d", e.Code, e.Message, e.Generation)
	if len(e.Tags) > 0 {
		fmt.Fprintf(&b, ", tags=%s", strings.Join(e.Tags, ","))
	}
	b.WriteString(")")
	if e.Err != nil && e.Err != ErrNoCandidates {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *RevealError) Unwrap() error {
	return e.Err
}

// IsNoCandidates returns true if the error reports an empty candidate set.
// Uses errors.As to handle wrapped errors.
func IsNoCandidates(err error) bool {
	return hasCode(err, ErrCodeNoCandidates)
}

// IsFetchError returns true if the error reports a provider failure.
func IsFetchError(err error) bool {
	return hasCode(err, ErrCodeFetchFailed)
}

// IsSelectionError returns true if the error reports a selection failure.
func IsSelectionError(err error) bool {
	return hasCode(err, ErrCodeSelectionFailed)
}

func hasCode(err error, code ErrorCode) bool {
	var re *RevealError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// NewNoCandidatesError creates a RevealError for an empty candidate set.
func NewNoCandidatesError(gen int64, tags []string) *RevealError {
	return &RevealError{
		Code:       ErrCodeNoCandidates,
		Message:    "no candidates matched the requested tags",
		Generation: gen,
		Tags:       tags,
		Err:        ErrNoCandidates,
	}
}

// NewFetchError creates a RevealError for a failed candidate fetch.
func NewFetchError(gen int64, tags []string, cause error) *RevealError {
	return &RevealError{
		Code:       ErrCodeFetchFailed,
		Message:    "could not fetch candidates",
		Generation: gen,
		Tags:       tags,
		Err:        cause,
	}
}

// NewSelectionError creates a RevealError for a selection failure.
func NewSelectionError(gen int64, cause error) *RevealError {
	return &RevealError{
		Code:       ErrCodeSelectionFailed,
		Message:    "could not select a winner",
		Generation: gen,
		Err:        cause,
	}
}
