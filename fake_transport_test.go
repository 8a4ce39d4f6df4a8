package pop3

import (
	"errors"
	"sync"
	"time"
)

// chunk is data that becomes readable after a delay. The delay counts from
// the moment the previous chunk was fully consumed (or from the first poll).
type chunk struct {
	after time.Duration
	data  string
}

// scriptedTransport replays chunks with timing, one chunk per Receive at
// most, so tests control exactly how a response is split.
type scriptedTransport struct {
	mu sync.Mutex

	chunks  []chunk
	pos     int // offset into chunks[0].data
	readyAt time.Time

	sent       []string
	connectErr error
	sendErr    map[string]error
	pollErr    error
	recvErr    error
	connected  bool
	closeCalls int
}

var _ Transport = (*scriptedTransport)(nil)

func newScriptedTransport(chunks ...chunk) *scriptedTransport {
	return &scriptedTransport{chunks: chunks, sendErr: make(map[string]error)}
}

func (t *scriptedTransport) Connect(string, int) error {
	if t.connectErr != nil {
		return t.connectErr
	}
	t.connected = true
	return nil
}

func (t *scriptedTransport) Send(p []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return &TransportError{Op: "send", Err: ErrTransportClosed}
	}
	line := string(p)
	t.sent = append(t.sent, line)
	if err, ok := t.sendErr[line]; ok {
		return &TransportError{Op: "send", Err: err}
	}
	return nil
}

func (t *scriptedTransport) ready() bool {
	if len(t.chunks) == 0 {
		return false
	}
	if t.readyAt.IsZero() {
		t.readyAt = time.Now().Add(t.chunks[0].after)
	}
	return !time.Now().Before(t.readyAt)
}

func (t *scriptedTransport) PollReadable() (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pollErr != nil {
		return false, &TransportError{Op: "poll", Err: t.pollErr}
	}
	return t.ready(), nil
}

func (t *scriptedTransport) Receive(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.recvErr != nil {
		return 0, &TransportError{Op: "receive", Err: t.recvErr}
	}
	if !t.ready() {
		return 0, nil
	}

	data := t.chunks[0].data[t.pos:]
	n := copy(p, data)
	t.pos += n
	if t.pos == len(t.chunks[0].data) {
		t.chunks = t.chunks[1:]
		t.pos = 0
		t.readyAt = time.Time{}
	}
	return n, nil
}

func (t *scriptedTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closeCalls++
	t.connected = false
	return nil
}

func (t *scriptedTransport) Sent() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.sent...)
}

var errBrokenPipe = errors.New("broken pipe")
