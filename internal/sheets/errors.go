package sheets

import "errors"

// Error kinds. Match with errors.Is; the returned *Error carries the detail.
var (
	// ErrMissingOption is a configuration error: a required per-scan option is absent.
	ErrMissingOption = errors.New("missing required option")

	// ErrTransport means the request could not be completed.
	ErrTransport = errors.New("transport error")

	// ErrInvalidEnvelope means the response body did not start with the gviz prefix.
	ErrInvalidEnvelope = errors.New("invalid response envelope")

	// ErrMalformedJSON means the body after the prefix is not valid JSON.
	ErrMalformedJSON = errors.New("malformed json")

	// ErrMissingRows means table.rows is absent or not an array.
	ErrMissingRows = errors.New("cannot get rows from response")

	// ErrUnsupportedColumnType means a column asks for a type the mapper cannot produce.
	ErrUnsupportedColumnType = errors.New("column data type is not supported")

	// ErrUnsupportedOperation is returned by rescan and by every write operation.
	ErrUnsupportedOperation = errors.New("operation is not supported")

	// ErrInvalidColumn means a column descriptor is unusable (ordinal below 1).
	ErrInvalidColumn = errors.New("invalid column")
)

// Error is a scan failure of a given kind.
type Error struct {
	Kind   error  // one of the Err* sentinels
	Op     string // operation that failed, e.g. "begin_scan"
	Detail string // parser message, column name, option name, ...
	Err    error  // underlying cause, if any
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	return msg
}

// Is reports whether target is this error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind error, op, detail string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail, Err: cause}
}

func unsupported(op string) error {
	return newError(ErrUnsupportedOperation, op, "", nil)
}
