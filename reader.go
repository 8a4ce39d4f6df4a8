package pop3

import (
	"bytes"
	"errors"
	"slices"
	"time"
)

// ReadOptions controls a single ReadUntil call.
type ReadOptions struct {
	// Terminator ends the response and is stripped from the result.
	Terminator string
	// IdleTimeout is the longest stretch without any received byte. Zero
	// means no timeout.
	IdleTimeout time.Duration
	// InitialCapacity sizes the first buffer. Any value works; the buffer
	// grows as needed.
	InitialCapacity int
	// GrowBy is the minimum number of bytes added each time the buffer fills.
	GrowBy int
	// PollInterval is the sleep between readability checks. Zero uses the
	// package PollInterval.
	PollInterval time.Duration
}

// sleep is swapped out by tests that count polls
var sleep = time.Sleep

// ReadUntil reads from t until opts.Terminator arrives and returns the
// response without it.
//
// The transport is polled and the caller sleeps between polls instead of
// blocking in a read, so the idle timeout is observed precisely. The
// timeout restarts whenever data arrives.
//
// A response whose first three bytes are not "+OK" (in any case) is returned
// as a *ProtocolError carrying the text. A negative status line ends the read
// as soon as it is complete, because servers never follow it with a
// multi-line terminator.
func ReadUntil(t Transport, opts ReadOptions) (string, error) {
	term := []byte(opts.Terminator)
	if len(term) == 0 {
		return "", errors.New("pop3 read: empty terminator")
	}
	growBy := max(opts.GrowBy, 1)
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = PollInterval
	}

	buf := make([]byte, 0, max(opts.InitialCapacity, 1))
	lastActivity := time.Now()
	statusChecked := false

	for {
		if opts.IdleTimeout > 0 && time.Since(lastActivity) > opts.IdleTimeout {
			readTimeouts.Inc()
			return "", &TimeoutError{Idle: opts.IdleTimeout, Partial: string(buf)}
		}

		readable, err := t.PollReadable()
		if err != nil {
			return "", err
		}
		if !readable {
			sleep(pollInterval)
			continue
		}

		if len(buf) == cap(buf) {
			buf = slices.Grow(buf, growBy)
		}
		n, err := t.Receive(buf[len(buf):cap(buf)])
		if err != nil {
			return "", err
		}
		if n == 0 {
			sleep(pollInterval)
			continue
		}
		lastActivity = time.Now()

		// the terminator may straddle the previous read
		searchFrom := max(0, len(buf)-len(term)+1)
		buf = buf[:len(buf)+n]

		if i := bytes.Index(buf[searchFrom:], term); i >= 0 {
			buf = buf[:searchFrom+i]
			break
		}

		if !statusChecked {
			if eol := bytes.Index(buf, []byte(nl)); eol >= 0 {
				statusChecked = true
				if !isPositive(buf) {
					buf = buf[:eol]
					break
				}
			}
		}
	}

	responseBytes.Observe(float64(len(buf)))

	resp := string(buf)
	if !isPositive(buf) {
		return "", &ProtocolError{Response: resp}
	}
	return resp, nil
}

// isPositive compares the status token case-insensitively
func isPositive(b []byte) bool {
	return len(b) >= len(statusOK) && bytes.EqualFold(b[:len(statusOK)], []byte(statusOK))
}
