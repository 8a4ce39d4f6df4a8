package pop3

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
)

type mockMessage struct {
	uid  string
	text string
}

// mockPOP3Server is a minimal in-process POP3 server for tests
type mockPOP3Server struct {
	listener  net.Listener
	address   string
	validUser string
	validPass string

	mu       sync.Mutex
	greeting string
	messages []mockMessage
	deleted  map[int]bool
	commands []string
	// overrides maps a command line to the raw response written instead
	overrides map[string]string
	// closeOn lists commands that make the server drop the connection
	closeOn map[string]bool
}

func newMockPOP3Server(t *testing.T, validUser, validPass string, messages ...mockMessage) *mockPOP3Server {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}

	s := &mockPOP3Server{
		listener:  listener,
		address:   listener.Addr().String(),
		validUser: validUser,
		validPass: validPass,
		greeting:  "+OK POP3 mock server ready\r\n",
		messages:  messages,
		deleted:   make(map[int]bool),
		overrides: make(map[string]string),
		closeOn:   make(map[string]bool),
	}
	t.Cleanup(s.Close)

	go s.serve()
	return s
}

func (s *mockPOP3Server) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConnection(conn)
	}
}

func (s *mockPOP3Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	s.mu.Lock()
	greeting := s.greeting
	s.mu.Unlock()
	writer.WriteString(greeting)
	writer.Flush()

	user := ""
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimRight(line, "\r\n")

		s.mu.Lock()
		s.commands = append(s.commands, line)
		override, overridden := s.overrides[line]
		closeNow := s.closeOn[line]
		s.mu.Unlock()

		if closeNow {
			return
		}
		if overridden {
			writer.WriteString(override)
			writer.Flush()
			continue
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		switch strings.ToUpper(parts[0]) {
		case "USER":
			if len(parts) < 2 {
				writer.WriteString("-ERR missing user\r\n")
				break
			}
			user = parts[1]
			writer.WriteString("+OK send PASS\r\n")
		case "PASS":
			if user == s.validUser && strings.TrimPrefix(line, "PASS ") == s.validPass {
				writer.WriteString("+OK logged in\r\n")
			} else {
				writer.WriteString("-ERR [AUTH] invalid credentials\r\n")
			}
		case "STAT":
			count, size := s.stat()
			writer.WriteString(fmt.Sprintf("+OK %d %d\r\n", count, size))
		case "LIST":
			writer.WriteString("+OK scan listing follows\r\n")
			s.each(func(n int, m mockMessage) {
				writer.WriteString(fmt.Sprintf("%d %d\r\n", n, len(m.text)))
			})
			writer.WriteString(".\r\n")
		case "UIDL":
			writer.WriteString("+OK unique-id listing follows\r\n")
			s.each(func(n int, m mockMessage) {
				writer.WriteString(fmt.Sprintf("%d %s\r\n", n, m.uid))
			})
			writer.WriteString(".\r\n")
		case "RETR", "TOP":
			m, ok := s.message(parts)
			if !ok {
				writer.WriteString("-ERR no such message\r\n")
				break
			}
			text := m.text
			if strings.ToUpper(parts[0]) == "TOP" {
				if i := strings.Index(text, "\r\n\r\n"); i >= 0 {
					text = text[:i+2]
				}
			}
			writer.WriteString(fmt.Sprintf("+OK %d octets\r\n", len(m.text)))
			writer.WriteString(dotStuff(text))
			writer.WriteString("\r\n.\r\n")
		case "DELE":
			if _, ok := s.message(parts); !ok {
				writer.WriteString("-ERR no such message\r\n")
				break
			}
			n, _ := strconv.Atoi(parts[1])
			s.mu.Lock()
			s.deleted[n] = true
			s.mu.Unlock()
			writer.WriteString("+OK message deleted\r\n")
		case "RSET":
			s.mu.Lock()
			s.deleted = make(map[int]bool)
			s.mu.Unlock()
			writer.WriteString("+OK\r\n")
		case "NOOP":
			writer.WriteString("+OK\r\n")
		case "QUIT":
			writer.WriteString("+OK bye\r\n")
			writer.Flush()
			return
		default:
			writer.WriteString("-ERR unknown command\r\n")
		}
		writer.Flush()
	}
}

func (s *mockPOP3Server) stat() (count int, size int) {
	s.each(func(_ int, m mockMessage) {
		count++
		size += len(m.text)
	})
	return count, size
}

func (s *mockPOP3Server) each(fn func(n int, m mockMessage)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, m := range s.messages {
		if !s.deleted[i+1] {
			fn(i+1, m)
		}
	}
}

func (s *mockPOP3Server) message(parts []string) (mockMessage, bool) {
	if len(parts) < 2 {
		return mockMessage{}, false
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return mockMessage{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || n > len(s.messages) || s.deleted[n] {
		return mockMessage{}, false
	}
	return s.messages[n-1], true
}

func (s *mockPOP3Server) override(command, response string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[command] = response
}

func (s *mockPOP3Server) setGreeting(greeting string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.greeting = greeting
}

func (s *mockPOP3Server) closeOnCommand(command string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeOn[command] = true
}

// Commands returns every command line received so far
func (s *mockPOP3Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Count returns how many times command was received
func (s *mockPOP3Server) Count(command string) int {
	n := 0
	for _, c := range s.Commands() {
		if c == command {
			n++
		}
	}
	return n
}

func (s *mockPOP3Server) Close() {
	s.listener.Close()
}

func (s *mockPOP3Server) GetHost() string {
	host, _, _ := net.SplitHostPort(s.address)
	return host
}

func (s *mockPOP3Server) GetPort() int {
	_, portStr, _ := net.SplitHostPort(s.address)
	port, _ := strconv.Atoi(portStr)
	return port
}

// dotStuff doubles the leading dot of every line that starts with one
func dotStuff(s string) string {
	lines := strings.Split(s, "\r\n")
	for i, line := range lines {
		if strings.HasPrefix(line, ".") {
			lines[i] = "." + line
		}
	}
	return strings.Join(lines, "\r\n")
}
