package pop3

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pop3_client_commands_total",
			Help: "POP3 commands issued, by command and result.",
		},
		[]string{"command", "result"},
	)

	responseBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pop3_client_response_bytes",
			Help:    "Size of complete POP3 responses read from the server.",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10),
		},
	)

	readTimeouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pop3_client_read_timeouts_total",
			Help: "Responses abandoned because the server went idle.",
		},
	)
)

// Result labels for commandsTotal
const (
	resultOK       = "ok"
	resultError    = "error"
	resultTimeout  = "timeout"
	resultProtocol = "protocol"
)

func observeCommand(command string, err error) {
	commandsTotal.WithLabelValues(command, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch err.(type) {
	case nil:
		return resultOK
	case *TimeoutError:
		return resultTimeout
	case *ProtocolError:
		return resultProtocol
	default:
		return resultError
	}
}
