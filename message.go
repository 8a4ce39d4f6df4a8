package pop3

import (
	"bufio"
	"fmt"
	"strings"

	humanize "github.com/dustin/go-humanize"
	message "github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-message/textproto"
)

// headerSeparator divides the header from the body
const headerSeparator = "\r\n\r\n"

// Message is one message retrieved with RETR or TOP: the header, a blank
// line, and the body, exactly as sent by the server minus dot-stuffing.
type Message struct {
	text string
}

// NewMessage wraps raw message text
func NewMessage(text string) *Message {
	return &Message{text: text}
}

// Text returns the whole raw message
func (m *Message) Text() string {
	return m.text
}

// Len returns the size of the raw message in bytes
func (m *Message) Len() int {
	return len(m.text)
}

// Header returns the text before the first blank line, or all of the text
// when there is no blank line.
func (m *Message) Header() string {
	if i := strings.Index(m.text, headerSeparator); i >= 0 {
		return m.text[:i]
	}
	return m.text
}

// RawBody returns the text after the first blank line. ok is false when the
// message has no blank line and therefore no body at all.
func (m *Message) RawBody() (body string, ok bool) {
	i := strings.Index(m.text, headerSeparator)
	if i < 0 {
		return "", false
	}
	return m.text[i+len(headerSeparator):], true
}

// Body returns the text after the first blank line, or "" if there is none
func (m *Message) Body() string {
	body, _ := m.RawBody()
	return body
}

// HeaderItem returns the value of the named header field, matched without
// regard to case. occurrence selects among repeated fields, 0 being the
// first. Folded continuation lines are joined, tabs become spaces and the
// value is trimmed. "" means the field (or that occurrence of it) is absent.
func (m *Message) HeaderItem(name string, occurrence int) string {
	if occurrence < 0 {
		return ""
	}

	// the leading line break lets the first field match like the others
	header := nl + m.Header()
	upper := asciiUpper(header)
	find := nl + asciiUpper(name) + ":"

	var start int
	for from := 0; ; {
		i := strings.Index(upper[from:], find)
		if i < 0 {
			return ""
		}
		if occurrence == 0 {
			start = from + i + len(find)
			break
		}
		occurrence--
		from += i + len(find)
	}

	// a CRLF followed by SP or TAB folds the field onto the next line
	end := start
	for end < len(header) {
		if header[end] == '\r' && end+1 < len(header) && header[end+1] == '\n' {
			if end+2 >= len(header) || (header[end+2] != ' ' && header[end+2] != '\t') {
				break
			}
		}
		end++
	}

	value := strings.ReplaceAll(header[start:end], nl, "")
	value = strings.ReplaceAll(value, "\t", " ")
	return strings.TrimSpace(value)
}

// ReplyTo returns where a reply should go: Reply-To, else From, else Sender,
// else Return-Path.
func (m *Message) ReplyTo() string {
	for _, field := range []string{"Reply-To", "From", "Sender", "Return-Path"} {
		if v := m.HeaderItem(field, 0); v != "" {
			return v
		}
	}
	return ""
}

// Subject returns the Subject field
func (m *Message) Subject() string { return m.HeaderItem("Subject", 0) }

// From returns the From field
func (m *Message) From() string { return m.HeaderItem("From", 0) }

// Date returns the Date field
func (m *Message) Date() string { return m.HeaderItem("Date", 0) }

// ParsedHeader parses the header block into structured fields. Field values
// are left undecoded.
func (m *Message) ParsedHeader() (textproto.Header, error) {
	r := bufio.NewReader(strings.NewReader(m.Header() + headerSeparator))
	h, err := textproto.ReadHeader(r)
	if err != nil {
		return textproto.Header{}, fmt.Errorf("pop3 message header: %w", err)
	}
	return h, nil
}

// AddressList parses an address field such as From, To or Cc
func (m *Message) AddressList(name string) ([]*mail.Address, error) {
	h, err := m.ParsedHeader()
	if err != nil {
		return nil, err
	}
	mh := mail.Header{Header: message.Header{Header: h}}
	addrs, err := mh.AddressList(name)
	if err != nil {
		return nil, fmt.Errorf("pop3 message %s: %w", name, err)
	}
	return addrs, nil
}

// String returns a short human readable summary of the message
func (m *Message) String() string {
	s := strings.Builder{}
	if subject := m.Subject(); subject != "" {
		s.WriteString(fmt.Sprintf("Subject: %s\n", subject))
	}
	if from := m.From(); from != "" {
		s.WriteString(fmt.Sprintf("From: %s\n", from))
	}
	if date := m.Date(); date != "" {
		s.WriteString(fmt.Sprintf("Date: %s\n", date))
	}
	s.WriteString(fmt.Sprintf("Size: %s\n", humanize.Bytes(uint64(len(m.text)))))
	return s.String()
}

// asciiUpper upper-cases ASCII letters only, so byte offsets into the result
// stay valid for the input
func asciiUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'a' <= c && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

// unstuff removes the extra leading dot the server adds to body lines that
// begin with a dot
func unstuff(s string) string {
	if !strings.HasPrefix(s, ".") && !strings.Contains(s, "\n.") {
		return s
	}
	lines := strings.Split(s, nl)
	for i, line := range lines {
		if strings.HasPrefix(line, "..") {
			lines[i] = line[1:]
		}
	}
	return strings.Join(lines, nl)
}
