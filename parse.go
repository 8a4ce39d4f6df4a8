package pop3

import (
	"fmt"
	"strconv"
	"strings"
)

// parseStat reads "<count> <size>" following the status token
func parseStat(resp string) (count int, size uint64, err error) {
	tk := newTokenizer(firstLine(resp), whitespace)
	tk.Next() // +OK

	countTok, sizeTok := tk.Next(), tk.Next()
	count, err = strconv.Atoi(countTok)
	if err != nil || count < 0 {
		return 0, 0, &ProtocolError{Command: "STAT", Response: resp, Reason: fmt.Sprintf("malformed message count %q", countTok)}
	}
	size, err = strconv.ParseUint(sizeTok, 10, 64)
	if err != nil {
		return 0, 0, &ProtocolError{Command: "STAT", Response: resp, Reason: fmt.Sprintf("malformed mailbox size %q", sizeTok)}
	}
	return count, size, nil
}

// dataLines returns the lines of a multi-line response after the status
// line. The terminator has already been removed.
func dataLines(resp string) []string {
	i := strings.Index(resp, nl)
	if i < 0 {
		return nil
	}
	lines := strings.Split(resp[i+len(nl):], nl)
	out := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// parseList maps each "<num> <size>" line to sizes[num-1], for message
// numbers up to highest. Message numbers stay fixed for a session, so a
// number missing from the listing keeps a zero size.
func parseList(resp string, highest int) ([]uint64, error) {
	sizes := make([]uint64, highest)
	for _, line := range dataLines(resp) {
		tk := newTokenizer(line, whitespace)
		num, err := strconv.Atoi(tk.Next())
		if err != nil {
			return nil, &ProtocolError{Command: "LIST", Response: resp, Reason: fmt.Sprintf("malformed line %q", line)}
		}
		size, err := strconv.ParseUint(tk.Next(), 10, 64)
		if err != nil {
			return nil, &ProtocolError{Command: "LIST", Response: resp, Reason: fmt.Sprintf("malformed line %q", line)}
		}
		if num < 1 || num > highest {
			return nil, &ProtocolError{Command: "LIST", Response: resp, Reason: fmt.Sprintf("message %d outside 1..%d", num, highest)}
		}
		sizes[num-1] = size
	}
	return sizes, nil
}

// parseUIDL maps each "<num> <id>" line to ids[num-1], for message numbers
// up to highest. Lines without an id or with an unusable number are skipped.
func parseUIDL(resp string, highest int) (ids []string, skipped []string) {
	ids = make([]string, highest)
	for _, line := range dataLines(resp) {
		tk := newTokenizer(line, whitespace)
		num, err := strconv.Atoi(tk.Next())
		id := tk.Next()
		if err != nil || id == "" || num < 1 || num > highest {
			skipped = append(skipped, line)
			continue
		}
		ids[num-1] = id
	}
	return ids, skipped
}
