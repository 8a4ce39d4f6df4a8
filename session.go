package pop3

import (
	"errors"
	"strings"
	"time"

	"github.com/rs/xid"
)

// Session is a POP3 client connection. It starts disconnected, becomes
// connected after a successful Connect and returns to disconnected on
// Disconnect or a failed Connect.
//
// Commands are strictly request/response; a Session must not be used from
// more than one goroutine at a time.
type Session struct {
	// IdleTimeout bounds how long a response may stall. It is read at the
	// start of every command.
	IdleTimeout time.Duration

	// Logger overrides the package logger for this session when set
	Logger Logger

	id           string
	host         string
	transport    Transport
	newTransport func() Transport
	connected    bool

	// mailbox metadata, cleared only by Disconnect
	mailCount  int
	statCached bool
	// highest is the largest STAT count seen since login. Message numbers
	// stay fixed for the session, so LIST and UIDL may still name messages
	// up to it after DELE has lowered the STAT count.
	highest int
	sizes   []uint64
	ids     []string

	lastResponse string
}

// NewSession returns a disconnected session using TCP
func NewSession() *Session {
	return &Session{
		IdleTimeout:  IdleTimeout,
		id:           xid.New().String(),
		newTransport: func() Transport { return NewTCPTransport() },
	}
}

// Dial creates a session and logs in with username and password
func Dial(username string, password string, host string, port int) (*Session, error) {
	s := NewSession()
	if err := s.Connect(host, username, password, port); err != nil {
		return nil, err
	}
	return s, nil
}

// ID identifies the session in log output
func (s *Session) ID() string {
	return s.id
}

// IsConnected reports whether the session is logged in
func (s *Session) IsConnected() bool {
	return s.connected
}

// LastResponse returns the most recent server response, or the partial text
// of a response that timed out. It is kept for diagnostics.
func (s *Session) LastResponse() string {
	return s.lastResponse
}

// MailCount returns the message count from the last STAT, if any
func (s *Session) MailCount() (int, bool) {
	return s.mailCount, s.statCached
}

// Connect opens a transport to host:port, reads the greeting and logs in
// with USER and PASS. On any failure the transport is closed and the session
// stays disconnected.
func (s *Session) Connect(host string, username string, password string, port int) error {
	if s.connected {
		return precondition("connect", ErrAlreadyConnected, "")
	}
	if err := checkCredential("user", username); err != nil {
		return err
	}
	if err := checkCredential("pass", password); err != nil {
		return err
	}

	s.host = host
	s.debugLog("establishing connection", "port", port)

	t := s.newTransport()
	if err := t.Connect(host, port); err != nil {
		_ = t.Close()
		s.debugLog("failed to connect", "error", err)
		return err
	}
	s.transport = t
	s.connected = true

	if _, err := s.read("greeting", nl, commandBufferSize, defaultGrowBy); err != nil {
		s.abort("greeting", err)
		return err
	}
	if _, err := s.exec("USER", "USER "+username, nl, commandBufferSize, defaultGrowBy); err != nil {
		s.abort("USER", err)
		return err
	}
	if _, err := s.exec("PASS", "PASS "+password, nl, commandBufferSize, defaultGrowBy); err != nil {
		s.abort("PASS", err)
		return err
	}

	s.debugLog("logged in", "user", username)
	return nil
}

// Disconnect sends QUIT, clears all cached mailbox data and closes the
// transport. The transport is closed and the state cleared even when QUIT
// fails; that failure is still returned. Calling Disconnect on a
// disconnected session closes any transport and returns a PreconditionError.
func (s *Session) Disconnect() error {
	if !s.connected {
		_ = s.closeTransport()
		return precondition("quit", ErrNotConnected, "")
	}

	_, err := s.exec("QUIT", "QUIT", nl, commandBufferSize, defaultGrowBy)
	if err != nil {
		s.warnLog("QUIT failed, closing anyway", "error", err)
	}

	s.connected = false
	s.clearCache()

	if cerr := s.closeTransport(); err == nil {
		err = cerr
	}
	s.debugLog("disconnected")
	return err
}

// Close is Disconnect without the error for an already closed session, for
// use with defer.
func (s *Session) Close() error {
	err := s.Disconnect()
	if errors.Is(err, ErrNotConnected) {
		return nil
	}
	return err
}

// abort tears down a half-open login without sending QUIT
func (s *Session) abort(step string, err error) {
	s.debugLog("login failed, closing connection", "step", step, "error", err)
	s.connected = false
	s.clearCache()
	_ = s.closeTransport()
}

func (s *Session) clearCache() {
	s.mailCount = 0
	s.statCached = false
	s.highest = 0
	s.sizes = nil
	s.ids = nil
}

func (s *Session) closeTransport() error {
	if s.transport == nil {
		return nil
	}
	err := s.transport.Close()
	s.transport = nil
	return err
}

func (s *Session) requireConnected(op string) error {
	if !s.connected {
		return precondition(op, ErrNotConnected, "")
	}
	return nil
}

// exec sends command and reads its response up to terminator
func (s *Session) exec(name string, command string, terminator string, initialCapacity int, growBy int) (string, error) {
	if err := s.requireConnected(strings.ToLower(name)); err != nil {
		return "", err
	}

	if Verbose {
		logged := command
		if name == "PASS" {
			logged = "PASS ****"
		}
		s.debugLog("sending command", "command", logged)
	}

	if err := s.transport.Send([]byte(command + nl)); err != nil {
		s.lastResponse = ""
		observeCommand(name, err)
		return "", err
	}

	resp, err := s.read(name, terminator, initialCapacity, growBy)
	observeCommand(name, err)
	return resp, err
}

// read collects one response and records it as the last response
func (s *Session) read(name string, terminator string, initialCapacity int, growBy int) (string, error) {
	resp, err := ReadUntil(s.transport, ReadOptions{
		Terminator:      terminator,
		IdleTimeout:     s.IdleTimeout,
		InitialCapacity: initialCapacity,
		GrowBy:          growBy,
	})

	var pe *ProtocolError
	var te *TimeoutError
	switch {
	case err == nil:
		s.lastResponse = resp
	case errors.As(err, &pe):
		pe.Command = name
		s.lastResponse = pe.Response
	case errors.As(err, &te):
		s.lastResponse = te.Partial
	default:
		s.lastResponse = ""
	}

	if err != nil {
		s.debugLog("command failed", "command", name, "error", err)
		return "", err
	}
	if Verbose && !SkipResponses {
		s.debugLog("server response", "command", name, "response", firstLine(resp), "bytes", len(resp))
	}
	return resp, nil
}

// checkCredential rejects arguments that would overflow or split the
// command line
func checkCredential(op string, value string) error {
	if len(value) >= MaxCredentialLength {
		return precondition(op, ErrCredentials, "length %d exceeds limit of %d", len(value), MaxCredentialLength-1)
	}
	if strings.ContainsAny(value, "\r\n") {
		return precondition(op, ErrCredentials, "contains a line break")
	}
	return nil
}
