package pop3

import "time"

// Verbose outputs every command and its response with the POP3 server
var Verbose = false

// SkipResponses skips printing server responses in verbose mode
var SkipResponses = false

// DialTimeout defines how long to wait when establishing a new connection.
// Zero means no timeout.
var DialTimeout time.Duration

// IdleTimeout is the default idle timeout for new sessions. A read fails only
// when no data at all arrived for this long, so a slow but steady response
// never times out.
var IdleTimeout = 2 * time.Second

// PollInterval is how long the response reader sleeps when the transport has
// nothing to read.
var PollInterval = 250 * time.Millisecond

// MaxCredentialLength is the exclusive upper bound on USER and PASS arguments.
var MaxCredentialLength = 100

const (
	nl = "\r\n"

	// multiLineTerminator ends LIST, UIDL, RETR and TOP responses
	multiLineTerminator = "\r\n.\r\n"

	statusOK = "+OK"

	commandBufferSize = 1000
	statBufferSize    = 100
	defaultGrowBy     = 4096
	retrieveGrowBy    = 32000

	// maxInitialCapacity caps the first RETR/TOP buffer; a server-reported
	// size is only a hint
	maxInitialCapacity = 1 << 20

	// listRecordSize is the guessed size of one LIST/UIDL line, used only to
	// size the first read buffer
	listRecordSize = 14
)
