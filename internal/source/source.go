// Package source retrieves raw document bytes by path.
package source

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned when a path does not exist in the source.
var ErrNotFound = errors.New("document not found")

// ErrTooLarge is returned when a document exceeds the configured size limit.
var ErrTooLarge = errors.New("document too large")

// Source yields the raw bytes of a document addressed by path.
type Source interface {
	Open(ctx context.Context, path string) ([]byte, error)
}

// RetryableError wraps a transient failure worth retrying.
type RetryableError struct {
	StatusCode int
	Err        error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable (status %d): %v", e.StatusCode, e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

// Resolve returns the path of a link relative to the directory of the
// document that contains it. Absolute links are cleaned and returned as is.
func Resolve(docPath, link string) string {
	link = strings.TrimSpace(link)
	if strings.HasPrefix(link, "/") {
		return path.Clean(link)
	}
	return path.Join(path.Dir(docPath), link)
}
