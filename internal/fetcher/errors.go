package fetcher

import (
	"errors"
	"fmt"
)

var (
	ErrDisallowedType   = errors.New("rejected: disallowed content type")
	ErrDeclaredTooLarge = errors.New("rejected: declared length exceeds limit")
	ErrSizeExceeded     = errors.New("aborted: size exceeded during transfer")
)

// HTTPError reports a non-2xx response status.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http error: status %d", e.Status)
}

// DuplicateError reports content whose digest is already in the index. It
// is a skip, not a real failure.
type DuplicateError struct {
	Filename string
	URL      string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate: already saved as %q (from %s)", e.Filename, e.URL)
}

// IsDuplicate reports whether err is a duplicate-content skip.
func IsDuplicate(err error) bool {
	var dup *DuplicateError
	return errors.As(err, &dup)
}
