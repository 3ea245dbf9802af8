// Package frame implements the MAVLink v1/v2 frame parser and writer: a
// resynchronising state machine that recovers from arbitrary byte noise,
// validates the per-message CRC, and handles the optional v2 signing
// trailer. It knows nothing about specific message payloads; callers
// supply a Registry to resolve crc_extra and declared payload lengths.
package frame

import "errors"

const (
	MagicV1 byte = 0xFE
	MagicV2 byte = 0xFD

	headerLenV1 = 6  // magic, len, seq, sys, comp, msgid
	headerLenV2 = 10 // magic, len, incompat, compat, seq, sys, comp, msgid(3)

	signatureLen = 13 // link_id(1) + timestamp(6) + sig(6)

	incompatSignedBit = 0x01
)

// Error taxonomy for recoverable-vs-terminal classification by callers.
var (
	ErrUnknownMessage  = errors.New("frame: unknown message id")
	ErrCRC             = errors.New("frame: crc mismatch")
	ErrIncompatFlags   = errors.New("frame: unsupported incompat flag bits")
	ErrSigningRejected = errors.New("frame: signature rejected")
	ErrCapacity        = errors.New("frame: capacity exceeded")
)

// Raw is a parsed v1 or v2 MAVLink frame with its optional signing trailer.
type Raw struct {
	Magic         byte
	IncompatFlags byte // v2 only
	CompatFlags   byte // v2 only
	Sequence      byte
	SystemID      byte
	ComponentID   byte
	MessageID     uint32 // 0..255 for v1, 0..2^24-1 for v2
	Payload       []byte
	Checksum      uint16

	Signed    bool
	LinkID    byte
	Timestamp uint64 // 48-bit, 10us units since 2015-01-01 UTC
	Signature [6]byte
}

// IsV2 reports whether the frame uses the v2 wire format.
func (r *Raw) IsV2() bool { return r.Magic == MagicV2 }

// Registry resolves per-message wire metadata needed to validate and decode
// a frame. Implemented by the generated dialect package.
type Registry interface {
	// CRCExtra returns the message's crc_extra byte, or ok=false if the
	// message id is not known to this registry.
	CRCExtra(msgID uint32) (extra byte, ok bool)
	// DeclaredLen returns the canonical (v1/wire) and extended (v2) payload
	// lengths for a known message id.
	DeclaredLen(msgID uint32) (wireLen, extLen int, ok bool)
}

// SignatureVerifier validates an inbound v2 signing trailer. Implemented by
// internal/signing.Context.
type SignatureVerifier interface {
	Verify(sysID, compID, linkID byte, timestamp uint64, sig [6]byte, signedContent []byte) error
}

// SignatureSigner produces an outbound v2 signing trailer. Implemented by
// internal/signing.Context.
type SignatureSigner interface {
	Sign(linkID byte, signedContent []byte) (timestamp uint64, sig [6]byte, err error)
}
