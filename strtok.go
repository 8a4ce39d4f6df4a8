package pop3

import "strings"

// whitespace separates the fields of STAT, LIST and UIDL responses
const whitespace = " \t"

// tokenizer walks the delimiter-separated fields of a response line, in the
// manner of C's strtok: runs of delimiters are skipped and "" means there are
// no tokens left.
type tokenizer struct {
	s      string
	i      int
	delims string
}

func newTokenizer(s string, delims string) *tokenizer {
	return &tokenizer{s: s, delims: delims}
}

// Next returns the next token, or "" once the input is exhausted
func (t *tokenizer) Next() string {
	for t.i < len(t.s) && strings.IndexByte(t.delims, t.s[t.i]) >= 0 {
		t.i++
	}
	start := t.i
	for t.i < len(t.s) && strings.IndexByte(t.delims, t.s[t.i]) < 0 {
		t.i++
	}
	return t.s[start:t.i]
}
