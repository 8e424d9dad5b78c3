package utils

import "errors"

// Task is one unit of work for the pool: a URL and the destination it
// resolves to inside the download directory.
type Task struct {
	URL        string
	OutputPath string
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// ErrorKind buckets task failures for the final report.
type ErrorKind string

const (
	KindResolution ErrorKind = "resolution"
	KindClaim      ErrorKind = "claim"
	KindNetwork    ErrorKind = "network"
	KindHTTPStatus ErrorKind = "http-status"
	KindIO         ErrorKind = "io"
)

// Outcome is the terminal result of one Task. The pipeline produces
// exactly one Outcome per task regardless of how the task ends.
type Outcome struct {
	Task   Task
	Status Status
	Kind   ErrorKind
	Err    error
	Bytes  int64
}

// Kinder is implemented by the typed errors the pipeline produces.
type Kinder interface {
	Kind() ErrorKind
}

// KindOf walks the wrap chain for a typed pipeline error. Errors that
// escaped classification are treated as transport failures.
func KindOf(err error) ErrorKind {
	for e := err; e != nil; e = errors.Unwrap(e) {
		if k, ok := e.(Kinder); ok {
			return k.Kind()
		}
	}
	return KindNetwork
}
