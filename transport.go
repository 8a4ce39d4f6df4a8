package pop3

import (
	"bufio"
	"errors"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// Transport is the stream a Session talks over. Connect may block; Receive
// and PollReadable never wait for data.
type Transport interface {
	// Connect opens the stream to host, which may be a literal address or a
	// name for the dialer to resolve.
	Connect(host string, port int) error
	Send(p []byte) error
	// Receive copies available bytes into p. It returns (0, nil) when
	// nothing has arrived yet and an error only when the stream is unusable.
	Receive(p []byte) (int, error)
	PollReadable() (bool, error)
	// Close releases the stream. Closing twice is not an error.
	Close() error
}

// readableWait bounds the read attempted by a readability check. A zero or
// past deadline would fail before the socket is even looked at.
const readableWait = time.Millisecond

// TCPTransport is a Transport over a TCP connection. Dialing honours the
// ALL_PROXY and NO_PROXY environment variables.
type TCPTransport struct {
	conn net.Conn
	r    *bufio.Reader
}

var _ Transport = (*TCPTransport)(nil)

// NewTCPTransport creates an unconnected transport.
func NewTCPTransport() *TCPTransport {
	return &TCPTransport{}
}

// Connect dials host:port
func (t *TCPTransport) Connect(host string, port int) error {
	if t.conn != nil {
		return &TransportError{Op: "connect", Err: errors.New("transport already connected")}
	}

	dialer := proxy.FromEnvironmentUsing(&net.Dialer{Timeout: DialTimeout})
	conn, err := dialer.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return &TransportError{Op: "connect", Err: err}
	}

	t.conn = conn
	t.r = bufio.NewReader(conn)
	return nil
}

// Send writes all of p
func (t *TCPTransport) Send(p []byte) error {
	if t.conn == nil {
		return &TransportError{Op: "send", Err: ErrTransportClosed}
	}
	if _, err := t.conn.Write(p); err != nil {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

// Receive reads whatever is available without waiting for more
func (t *TCPTransport) Receive(p []byte) (int, error) {
	if t.conn == nil {
		return 0, &TransportError{Op: "receive", Err: ErrTransportClosed}
	}
	if len(p) == 0 {
		return 0, nil
	}
	if t.r.Buffered() > 0 {
		n, _ := t.r.Read(p)
		return n, nil
	}

	if err := t.conn.SetReadDeadline(time.Now().Add(readableWait)); err != nil {
		return 0, &TransportError{Op: "receive", Err: err}
	}
	n, err := t.r.Read(p)
	_ = t.conn.SetReadDeadline(time.Time{})

	switch {
	case n > 0:
		return n, nil
	case err == nil, isDeadline(err):
		return 0, nil
	default:
		return 0, &TransportError{Op: "receive", Err: err}
	}
}

// PollReadable reports whether a Receive would return data. A peer that has
// closed the stream counts as readable so that Receive can report it.
func (t *TCPTransport) PollReadable() (bool, error) {
	if t.conn == nil {
		return false, &TransportError{Op: "poll", Err: ErrTransportClosed}
	}
	if t.r.Buffered() > 0 {
		return true, nil
	}

	if err := t.conn.SetReadDeadline(time.Now().Add(readableWait)); err != nil {
		return false, &TransportError{Op: "poll", Err: err}
	}
	_, err := t.r.Peek(1)
	_ = t.conn.SetReadDeadline(time.Time{})

	switch {
	case err == nil, errors.Is(err, io.EOF):
		return true, nil
	case isDeadline(err):
		return false, nil
	default:
		return false, &TransportError{Op: "poll", Err: err}
	}
}

// Close closes the connection
func (t *TCPTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.r = nil
	if err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}

func isDeadline(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
