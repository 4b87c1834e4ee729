// Package errs is the typed error taxonomy from §7. Per-device and
// per-file errors are always recovered locally and surfaced as data
// (progress events, report entries) rather than propagated as panics;
// Fatal is reserved for the handful of conditions that should abort the
// process with a non-zero exit code.
package errs

import "fmt"

// TransportError covers SSH connect/auth failure, host unreachable, and
// connection reset; recorded against the specific device, never aborts
// the batch.
type TransportError struct {
	Device string
	Op     string // "dial", "handshake", "auth"
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error on %s during %s: %v", e.Device, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// AuthError is a structured subtype of transport failure: the handshake
// completed but credentials were rejected.
type AuthError struct {
	Device   string
	Username string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s@%s", e.Username, e.Device)
}

// KeyParseError is a structured subtype of transport failure: a supplied
// private key could not be parsed.
type KeyParseError struct {
	Device string
	Err    error
}

func (e *KeyParseError) Error() string {
	return fmt.Sprintf("could not parse private key for %s: %v", e.Device, e.Err)
}

func (e *KeyParseError) Unwrap() error { return e.Err }

// ProtocolError covers a prompt never seen, a command timeout, or
// unexpected paging; marked as a per-device timeout; the capture file may
// still contain partial output.
type ProtocolError struct {
	Device  string
	Command string
	Err     error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error on %s running %q: %v", e.Device, e.Command, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ParseError records that no template cleared the score threshold, or a
// required field was missing. The raw capture is retained regardless.
type ParseError struct {
	File         string
	BestScore    int
	BestTemplate string
	Reason       string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %s (best template %q scored %d)", e.File, e.Reason, e.BestTemplate, e.BestScore)
}

// IntegrityError covers a duplicate-key or foreign-key violation on insert.
// The offending transaction is rolled back; the batch continues with the
// next record.
type IntegrityError struct {
	Table string
	Err   error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity error on %s: %v", e.Table, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// UnknownError is the catch-all third tier: anything not classified above
// retains its original message plus a short stack snippet for diagnosis.
type UnknownError struct {
	Device string
	Err    error
	Stack  string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unclassified error on %s: %v", e.Device, e.Err)
}

func (e *UnknownError) Unwrap() error { return e.Err }

// FatalError covers conditions severe enough to abort the run: an
// unreadable data directory, missing credential environment, or schema
// mismatch.
type FatalError struct {
	Reason string
	Err    error
}

func (e *FatalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal wraps err as a FatalError with reason, for the CLI to report as a
// non-zero exit with a human-readable diagnostic.
func Fatal(reason string, err error) error {
	return &FatalError{Reason: reason, Err: err}
}
