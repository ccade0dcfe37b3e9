package docparse

import (
	"errors"
	"fmt"
)

var (
	// ErrPartitionFailed is returned when the PDF cannot be read or
	// partitioned. Always fatal for the whole request.
	ErrPartitionFailed = errors.New("docparse: partitioning failed")

	// ErrRewriteFailed is returned when the chat model fails to rewrite a
	// page and the on_rewrite_error policy is "abort". Wrapped in a
	// RewriteError carrying the page number.
	ErrRewriteFailed = errors.New("docparse: text rewrite failed")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("docparse: invalid configuration")

	// ErrVisionUnconfigured is returned when image description is needed
	// but no vision provider is configured.
	ErrVisionUnconfigured = errors.New("docparse: vision provider not configured")
)

// RewriteError identifies the page whose text rewrite failed and the
// underlying cause. It matches ErrRewriteFailed under errors.Is.
type RewriteError struct {
	Page int
	Err  error
}

func (e *RewriteError) Error() string {
	return fmt.Sprintf("docparse: rewriting page %d: %v", e.Page, e.Err)
}

func (e *RewriteError) Unwrap() error { return e.Err }

// Is reports whether target is ErrRewriteFailed, so callers can test the
// error kind without unwrapping to the concrete type.
func (e *RewriteError) Is(target error) bool { return target == ErrRewriteFailed }
