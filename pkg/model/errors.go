package model

import (
	"errors"
	"fmt"
)

// Sentinel errors that carry no extra context beyond their kind.
var (
	// ErrUnknownRec is returned when an id has no entry in the cache.
	ErrUnknownRec = errors.New("folio: unknown record")

	// ErrAlreadyExists is returned when an add diff targets an id
	// already present in the cache.
	ErrAlreadyExists = errors.New("folio: record already exists")

	// ErrPoolClosed is returned by a checkout against a closed pool.
	ErrPoolClosed = errors.New("folio: connection pool is closed")

	// ErrUnsupported is returned for operations explicitly out of
	// scope for this engine (backup, file subsystem, index rename).
	ErrUnsupported = errors.New("folio: operation not supported")
)

// TransportError wraps a socket-level failure: connect, timeout, or
// EOF. A TransportError always invalidates the WireClient session
// that produced it.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("folio: transport error during %s", e.Op)
	}
	return fmt.Sprintf("folio: transport error during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError signals a reply frame that does not conform to the
// wire protocol (unknown leading byte, bad length prefix, ...).
type ProtocolError struct {
	Detail string
}

func (e *ProtocolError) Error() string { return "folio: protocol error: " + e.Detail }

// RemoteError carries a server-returned error reply verbatim.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string { return "folio: remote error: " + e.Message }

// AlreadyExistsError is raised when an add diff targets an id already
// present in the cache. It unwraps to ErrAlreadyExists so callers can
// discriminate with errors.Is instead of matching CommitError.Reason.
type AlreadyExistsError struct {
	ID string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("folio: record already exists: %s", e.ID)
}

func (e *AlreadyExistsError) Unwrap() error { return ErrAlreadyExists }

// ConcurrentChangeError is raised when a non-force update's expected
// mod no longer matches the cached record, or a watched-key
// transaction aborts at commit time.
type ConcurrentChangeError struct {
	ID     string
	Reason string
}

func (e *ConcurrentChangeError) Error() string {
	return fmt.Sprintf("folio: concurrent change on %s: %s", e.ID, e.Reason)
}

// CommitError signals a diff that is illegal in context, independent
// of concurrency (e.g. remove of a nonexistent id, reserved tag in
// changes, mixing transient with add/remove).
type CommitError struct {
	ID     string
	Reason string
}

func (e *CommitError) Error() string {
	if e.ID == "" {
		return "folio: commit error: " + e.Reason
	}
	return fmt.Sprintf("folio: commit error on %s: %s", e.ID, e.Reason)
}

// HisConfigError signals a history operation against a record that is
// missing the point/his markers, is trash, or is aux.
type HisConfigError struct {
	ID     string
	Reason string
}

func (e *HisConfigError) Error() string {
	return fmt.Sprintf("folio: history config error on %s: %s", e.ID, e.Reason)
}

// EncodingError wraps a Trio decode failure. Encountered during
// startup sync, it is handled locally: the offending record is logged
// and dropped from the cache for the session.
type EncodingError struct {
	ID  string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("folio: encoding error on %s: %v", e.ID, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }
