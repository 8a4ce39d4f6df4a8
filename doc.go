// Package pop3 provides a small, synchronous POP3 client for Go.
//
// It covers what a mail fetcher needs from RFC 1939:
//
//   - Logging in with USER/PASS over plain TCP
//   - STAT, LIST and UIDL, cached per session and fetched lazily
//   - RETR and TOP, returning a Message with header and body accessors
//   - DELE, RSET, NOOP and QUIT
//
// Responses are read by polling the connection and sleeping between polls,
// so every read is bounded by an idle timeout: a response only fails when the
// server sends nothing for longer than Session.IdleTimeout, however long the
// whole transfer takes.
//
// Every failure is returned as one of *TransportError, *TimeoutError,
// *ProtocolError or *PreconditionError. Only Connect and Disconnect change
// whether a session is connected, and nothing is retried internally.
package pop3
