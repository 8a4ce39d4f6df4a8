package pop3

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

// Statistics sends STAT and returns the message count and the total mailbox
// size in bytes. The count is cached for List and UIDL.
func (s *Session) Statistics() (count int, totalSize uint64, err error) {
	resp, err := s.exec("STAT", "STAT", nl, statBufferSize, defaultGrowBy)
	if err != nil {
		return 0, 0, err
	}

	count, totalSize, err = parseStat(resp)
	if err != nil {
		return 0, 0, err
	}
	s.mailCount = count
	s.statCached = true
	s.highest = max(s.highest, count)
	return count, totalSize, nil
}

// ensureStat returns the highest message number of the session, sending STAT
// first if nothing is cached
func (s *Session) ensureStat() (int, error) {
	if !s.statCached {
		if _, _, err := s.Statistics(); err != nil {
			return 0, err
		}
	}
	return s.highest, nil
}

// List sends LIST and returns the size of every message; element 0 is
// message 1. STAT is sent first when no count is cached. Messages marked
// for deletion keep their slot with a size of 0.
func (s *Session) List() ([]uint64, error) {
	if err := s.requireConnected("list"); err != nil {
		return nil, err
	}
	highest, err := s.ensureStat()
	if err != nil {
		return nil, err
	}

	resp, err := s.exec("LIST", "LIST", multiLineTerminator, listRecordSize*highest+100, defaultGrowBy)
	if err != nil {
		return nil, err
	}
	sizes, err := parseList(resp, highest)
	if err != nil {
		s.debugLog("rejected LIST response", "error", err, "dump", spew.Sdump(resp))
		return nil, err
	}

	s.sizes = sizes
	return slices.Clone(sizes), nil
}

// UIDL sends UIDL and returns the unique id of every message; element 0 is
// message 1. Lines the server sends without an id are ignored, and messages
// marked for deletion keep an empty slot.
func (s *Session) UIDL() ([]string, error) {
	if err := s.requireConnected("uidl"); err != nil {
		return nil, err
	}
	highest, err := s.ensureStat()
	if err != nil {
		return nil, err
	}

	resp, err := s.exec("UIDL", "UIDL", multiLineTerminator, listRecordSize*highest+100, defaultGrowBy)
	if err != nil {
		return nil, err
	}
	ids, skipped := parseUIDL(resp, highest)
	if len(skipped) != 0 {
		s.debugLog("skipped malformed UIDL lines", "lines", skipped)
	}

	s.ids = ids
	return slices.Clone(ids), nil
}

// MessageSize returns the size of message n, sending LIST on first use
func (s *Session) MessageSize(n int) (uint64, error) {
	return s.listedSize("size", n)
}

// listedSize checks n against the cached listing, fetching it if needed
func (s *Session) listedSize(op string, n int) (uint64, error) {
	if err := s.requireConnected(op); err != nil {
		return 0, err
	}
	if s.sizes == nil {
		if _, err := s.List(); err != nil {
			return 0, err
		}
	}
	if err := checkMessageNumber(op, n, len(s.sizes)); err != nil {
		return 0, err
	}
	return s.sizes[n-1], nil
}

// MessageID returns the unique id of message n, sending UIDL on first use
func (s *Session) MessageID(n int) (string, error) {
	if err := s.requireConnected("uid"); err != nil {
		return "", err
	}
	if s.ids == nil {
		if _, err := s.UIDL(); err != nil {
			return "", err
		}
	}
	if err := checkMessageNumber("uid", n, len(s.ids)); err != nil {
		return "", err
	}
	return s.ids[n-1], nil
}

// Delete marks message n for deletion. The server removes it after QUIT.
//
// LIST is sent first if it has not been, as the message number is checked
// against the listing.
func (s *Session) Delete(n int) error {
	if _, err := s.listedSize("dele", n); err != nil {
		return err
	}
	_, err := s.exec("DELE", "DELE "+strconv.Itoa(n), nl, commandBufferSize, defaultGrowBy)
	return err
}

// Retrieve downloads message n with RETR
func (s *Session) Retrieve(n int) (*Message, error) {
	m := &Message{}
	if err := s.RetrieveInto(n, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RetrieveInto downloads message n with RETR and replaces the content of m.
// m is left untouched on failure.
func (s *Session) RetrieveInto(n int, m *Message) error {
	return s.fetch("RETR", "RETR "+strconv.Itoa(n), n, m)
}

// GetHeader downloads only the header of message n, using TOP n 0
func (s *Session) GetHeader(n int) (*Message, error) {
	return s.Top(n, 0)
}

// Top downloads the header of message n and the first lines of its body
func (s *Session) Top(n int, lines int) (*Message, error) {
	if lines < 0 {
		return nil, precondition("top", errNegativeLines, "%d", lines)
	}
	m := &Message{}
	if err := s.fetch("TOP", "TOP "+strconv.Itoa(n)+" "+strconv.Itoa(lines), n, m); err != nil {
		return nil, err
	}
	return m, nil
}

// fetch runs RETR or TOP and moves the message text into m
func (s *Session) fetch(name string, command string, n int, m *Message) error {
	size, err := s.listedSize(strings.ToLower(name), n)
	if err != nil {
		return err
	}

	initial := int(min(size, maxInitialCapacity)) + 100
	resp, err := s.exec(name, command, multiLineTerminator, initial, retrieveGrowBy)
	if err != nil {
		return err
	}

	// drop the status line
	text := ""
	if i := strings.Index(resp, nl); i >= 0 {
		text = resp[i+len(nl):]
	}
	m.text = unstuff(text)
	return nil
}

// Reset sends RSET, unmarking any messages marked for deletion
func (s *Session) Reset() error {
	_, err := s.exec("RSET", "RSET", nl, commandBufferSize, defaultGrowBy)
	return err
}

// Noop sends NOOP, which keeps the connection alive
func (s *Session) Noop() error {
	_, err := s.exec("NOOP", "NOOP", nl, commandBufferSize, defaultGrowBy)
	return err
}

var errNegativeLines = errors.New("negative line count")

func checkMessageNumber(op string, n int, count int) error {
	if n < 1 || n > count {
		return precondition(op, ErrMessageNumber, "%d not in [1, %d]", n, count)
	}
	return nil
}
