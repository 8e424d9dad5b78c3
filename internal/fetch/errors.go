package fetch

import (
	"fmt"

	"github.com/tanq16/grablist/internal/utils"
)

// NetworkError covers connect, TLS, timeout and mid-transfer transport
// failures.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error for '%s': %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func (e *NetworkError) Kind() utils.ErrorKind {
	return utils.KindNetwork
}

// HTTPStatusError is a non-2xx response.
type HTTPStatusError struct {
	URL  string
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for '%s'", e.Code, e.URL)
}

func (e *HTTPStatusError) Kind() utils.ErrorKind {
	return utils.KindHTTPStatus
}

// IOError is a local write or rename failure.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s failed for '%s': %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Kind() utils.ErrorKind {
	return utils.KindIO
}
