package frame

import (
	"github.com/kstaniek/mavgw/internal/crc"
)

// WriteRequest carries everything Write needs to serialise one frame.
type WriteRequest struct {
	V2          bool
	CompatFlags byte // v2 only, forwarded unchanged
	Sequence    byte
	SystemID    byte
	ComponentID byte
	MessageID   uint32
	// Payload is the already-serialised message body, zero-padded to the
	// message's declared wire length (v1) or extended length (v2).
	Payload []byte

	// LinkID selects the signing link when Signer is non-nil and V2 is
	// true; ignored otherwise.
	LinkID byte
	Signer SignatureSigner
}

// Write serialises req into a single contiguous frame: header, trimmed (v2)
// or full (v1) payload, little-endian CRC, and an optional 13-byte
// signature trailer. extra is the message's crc_extra byte.
func Write(req WriteRequest, extra byte) ([]byte, error) {
	payload := req.Payload
	if req.V2 {
		payload = trimTrailingZeros(payload)
	}
	if len(payload) > 255 {
		return nil, ErrCapacity
	}

	headerAfterMagicLen := headerLenV1 - 1
	if req.V2 {
		headerAfterMagicLen = headerLenV2 - 1
	}

	out := make([]byte, 0, 1+headerAfterMagicLen+len(payload)+2+signatureLen)
	if req.V2 {
		out = append(out, MagicV2)
	} else {
		out = append(out, MagicV1)
	}
	out = append(out, byte(len(payload)))
	var incompat byte
	if req.V2 {
		if req.Signer != nil {
			incompat |= incompatSignedBit
		}
		out = append(out, incompat, req.CompatFlags)
	}
	out = append(out, req.Sequence, req.SystemID, req.ComponentID)
	if req.V2 {
		out = append(out, byte(req.MessageID), byte(req.MessageID>>8), byte(req.MessageID>>16))
	} else {
		out = append(out, byte(req.MessageID))
	}
	out = append(out, payload...)

	header := out[1 : 1+headerAfterMagicLen]
	checksum := crc.Frame(header, payload, extra)
	out = append(out, byte(checksum), byte(checksum>>8))

	if req.V2 && req.Signer != nil {
		timestamp, sig, err := req.Signer.Sign(req.LinkID, out)
		if err != nil {
			return nil, err
		}
		out = append(out, req.LinkID,
			byte(timestamp), byte(timestamp>>8), byte(timestamp>>16),
			byte(timestamp>>24), byte(timestamp>>32), byte(timestamp>>40))
		out = append(out, sig[:]...)
	}

	return out, nil
}

// trimTrailingZeros drops trailing zero bytes from a v2 payload but always
// leaves at least one byte.
func trimTrailingZeros(payload []byte) []byte {
	n := len(payload)
	for n > 1 && payload[n-1] == 0 {
		n--
	}
	return payload[:n]
}
