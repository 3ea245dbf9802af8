package mavconn

import (
	"fmt"
	"strconv"
	"strings"
)

// Scheme identifies a connection transport, parsed from an address grammar:
// "scheme:host:port" for network transports, "serial:device:baud" for
// UART, "file:path" for a captured byte stream.
type Scheme string

const (
	SchemeTCPIn    Scheme = "tcpin"
	SchemeTCPOut   Scheme = "tcpout"
	SchemeUDPIn    Scheme = "udpin"
	SchemeUDPOut   Scheme = "udpout"
	SchemeUDPBcast Scheme = "udpbcast"
	SchemeSerial   Scheme = "serial"
	SchemeFile     Scheme = "file"
)

// Address is a parsed connection spec.
type Address struct {
	Scheme Scheme
	Host   string // network transports
	Port   int    // network transports
	Device string // serial: /dev/ttyUSB0 etc.
	Baud   int    // serial
	Path   string // file
}

// ParseAddress parses one of:
//
//	tcpin:host:port      listen on host:port, accept exactly one peer
//	tcpout:host:port     dial host:port
//	udpin:host:port      bind host:port, learn peer from first datagram
//	udpout:host:port     send to a fixed host:port
//	udpbcast:host:port   send to host:port with SO_BROADCAST set (alias: udpcast)
//	serial:device:baud   open a UART device at the given baud rate
//	file:path            read/write a plain file, for offline replay or capture
func ParseAddress(spec string) (Address, error) {
	parts := strings.SplitN(spec, ":", 3)
	if len(parts) < 2 {
		return Address{}, fmt.Errorf("%w: %q", ErrAddrGrammar, spec)
	}
	scheme := Scheme(strings.ToLower(parts[0]))
	if scheme == "udpcast" {
		scheme = SchemeUDPBcast
	}

	switch scheme {
	case SchemeTCPIn, SchemeTCPOut, SchemeUDPIn, SchemeUDPOut, SchemeUDPBcast:
		if len(parts) != 3 {
			return Address{}, fmt.Errorf("%w: %q needs host:port", ErrAddrGrammar, spec)
		}
		port, err := strconv.Atoi(parts[2])
		if err != nil {
			return Address{}, fmt.Errorf("%w: bad port in %q: %v", ErrAddrGrammar, spec, err)
		}
		return Address{Scheme: scheme, Host: parts[1], Port: port}, nil
	case SchemeSerial:
		if len(parts) != 3 {
			return Address{}, fmt.Errorf("%w: %q needs device:baud", ErrAddrGrammar, spec)
		}
		baud, err := strconv.Atoi(parts[2])
		if err != nil {
			return Address{}, fmt.Errorf("%w: bad baud in %q: %v", ErrAddrGrammar, spec, err)
		}
		return Address{Scheme: scheme, Device: parts[1], Baud: baud}, nil
	case SchemeFile:
		// file:path — path may itself contain colons (e.g. Windows drive letters),
		// so rejoin anything after the scheme.
		path := strings.TrimPrefix(spec, "file:")
		return Address{Scheme: scheme, Path: path}, nil
	default:
		return Address{}, fmt.Errorf("%w: unknown scheme %q", ErrAddrGrammar, parts[0])
	}
}

func (a Address) hostPort() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}
