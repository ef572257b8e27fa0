package launchersdk

import (
	"errors"
	"fmt"
)

const (
	CodeNetwork   = "E_NETWORK"   // request could not complete or returned a non-2xx status
	CodeFormat    = "E_FORMAT"    // body could not be parsed into a manifest
	CodeIO        = "E_IO"        // local file could not be read, written or renamed
	CodeIntegrity = "E_INTEGRITY" // downloaded bytes do not match the expected digest
)

var (
	ErrNetwork   = errors.New("sdk: network error")
	ErrFormat    = errors.New("sdk: format error")
	ErrIO        = errors.New("sdk: io error")
	ErrIntegrity = errors.New("sdk: integrity error")
)

var codeSentinels = map[string]error{
	CodeNetwork:   ErrNetwork,
	CodeFormat:    ErrFormat,
	CodeIO:        ErrIO,
	CodeIntegrity: ErrIntegrity,
}

// Error is returned by every fallible sdk operation. It matches the sentinel
// for its Code with errors.Is and unwraps to the underlying cause.
type Error struct {
	Code       string
	Op         string
	Target     string // url or local path
	StatusCode int    // set for http status failures
	Err        error
}

func newError(code, op, target string, err error) *Error {
	return &Error{Code: code, Op: op, Target: target, Err: err}
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sdk: %s %q: %s: status %d", e.Op, e.Target, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("sdk: %s %q: %s: %v", e.Op, e.Target, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return codeSentinels[e.Code] == target
}

// ErrorCode returns the code of the first *Error in err's chain, or "".
func ErrorCode(err error) string {
	var sdkErr *Error
	if errors.As(err, &sdkErr) {
		return sdkErr.Code
	}
	return ""
}

// IsRetryable reports whether repeating the request may succeed. Client
// errors (4xx) and local io failures are permanent.
func IsRetryable(err error) bool {
	var sdkErr *Error
	if !errors.As(err, &sdkErr) {
		return false
	}
	switch sdkErr.Code {
	case CodeNetwork:
		return sdkErr.StatusCode == 0 || sdkErr.StatusCode >= 500 || sdkErr.StatusCode == 429
	case CodeIntegrity:
		return true
	default:
		return false
	}
}
