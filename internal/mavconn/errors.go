package mavconn

import (
	"errors"

	"github.com/kstaniek/mavgw/internal/metrics"
)

// Sentinel errors used for wrapping so callers can classify via errors.Is.
var (
	ErrDial         = errors.New("mavconn: dial")
	ErrListen       = errors.New("mavconn: listen")
	ErrAccept       = errors.New("mavconn: accept")
	ErrRead         = errors.New("mavconn: read")
	ErrWrite        = errors.New("mavconn: write")
	ErrClosed       = errors.New("mavconn: connection closed")
	ErrAddrGrammar  = errors.New("mavconn: malformed address")
	ErrSingleServer = errors.New("mavconn: tcpin server already has a peer")

	// ErrShortDatagram is returned by a UDP Connection's Recv when an
	// inbound datagram is too small to hold any valid frame. The datagram
	// is discarded; it is never buffered against the next one.
	ErrShortDatagram = errors.New("mavconn: datagram too short for a frame")
)

// mapErrToMetric maps wrapped sentinel errors to metrics labels.
func mapErrToMetric(err error) string {
	switch {
	case errors.Is(err, ErrRead):
		return metrics.ErrConnRead
	case errors.Is(err, ErrWrite):
		return metrics.ErrConnWrite
	case errors.Is(err, ErrDial), errors.Is(err, ErrAccept), errors.Is(err, ErrListen):
		return metrics.ErrConnDial
	case errors.Is(err, ErrAddrGrammar):
		return metrics.ErrAddrGrammar
	default:
		return "other"
	}
}
