package mavconn

import (
	"context"
	"fmt"

	"github.com/kstaniek/mavgw/internal/frame"
)

// Dial opens a Connection from an address string (see ParseAddress for the
// grammar). ctx bounds dial/listen/accept only; the returned Connection
// outlives it until Close is called, except that background goroutines
// watching ctx will tear the transport down if it is cancelled.
func Dial(ctx context.Context, spec string, reg frame.Registry, opts ...Option) (Connection, error) {
	addr, err := ParseAddress(spec)
	if err != nil {
		return nil, err
	}
	switch addr.Scheme {
	case SchemeTCPOut:
		return dialTCPOut(ctx, addr, reg, opts)
	case SchemeTCPIn:
		return dialTCPIn(ctx, addr, reg, opts)
	case SchemeUDPIn:
		return dialUDPIn(ctx, addr, reg, opts)
	case SchemeUDPOut:
		return dialUDPOut(ctx, addr, reg, opts)
	case SchemeUDPBcast:
		return dialUDPBcast(ctx, addr, reg, opts)
	case SchemeSerial:
		port, err := openSerial(addr.Device, addr.Baud)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDial, err)
		}
		return newEndpoint(ctx, port, port, port, reg, opts), nil
	case SchemeFile:
		return dialFile(ctx, addr, reg, opts)
	default:
		return nil, fmt.Errorf("%w: unhandled scheme %q", ErrAddrGrammar, addr.Scheme)
	}
}
