package pop3

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotConnected is wrapped by PreconditionError when a command is issued
	// on a disconnected session.
	ErrNotConnected = errors.New("pop3: not connected")

	// ErrAlreadyConnected is wrapped by PreconditionError when Connect is
	// called on a connected session.
	ErrAlreadyConnected = errors.New("pop3: already connected")

	// ErrMessageNumber is wrapped by PreconditionError when a message number
	// lies outside [1, count].
	ErrMessageNumber = errors.New("pop3: message number out of range")

	// ErrCredentials is wrapped by PreconditionError when a user name or
	// password cannot be sent as a command argument.
	ErrCredentials = errors.New("pop3: invalid credentials")

	// ErrTransportClosed is wrapped by TransportError when the transport is
	// used before Connect or after Close.
	ErrTransportClosed = errors.New("pop3: transport closed")
)

// TransportError reports a failure at the socket layer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pop3 %s: %s", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TimeoutError reports that no data arrived within the idle timeout before
// the response terminator was seen. Partial holds whatever was received.
type TimeoutError struct {
	Idle    time.Duration
	Partial string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("pop3 read: idle timeout after %s (%d bytes received)", e.Idle, len(e.Partial))
}

// Timeout reports true so TimeoutError satisfies the net.Error convention.
func (e *TimeoutError) Timeout() bool { return true }

// ProtocolError reports a completed exchange whose response was negative or
// malformed.
type ProtocolError struct {
	Command  string
	Response string
	Reason   string
}

func (e *ProtocolError) Error() string {
	msg := e.Reason
	if msg == "" {
		msg = "server responded " + firstLine(e.Response)
	}
	if e.Command == "" {
		return "pop3: " + msg
	}
	return fmt.Sprintf("pop3 %s: %s", e.Command, msg)
}

// PreconditionError reports a call that was invalid for the session state
// or its arguments. Nothing is sent to the server.
type PreconditionError struct {
	Op  string
	Err error
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("pop3 %s: %s", e.Op, e.Err)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

func precondition(op string, err error, format string, args ...any) error {
	if format != "" {
		err = fmt.Errorf("%w: "+format, append([]any{err}, args...)...)
	}
	return &PreconditionError{Op: op, Err: err}
}

// firstLine returns s up to its first line break
func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' || s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
