package frame

import (
	"fmt"

	"github.com/kstaniek/mavgw/internal/crc"
	mavio "github.com/kstaniek/mavgw/internal/ioutil"
)

// Parser implements a resynchronising state machine: SeekMagic -> HeaderLen
// -> HeaderRest -> Payload -> Crc -> Signature? -> Deliver. Parser logic
// never suspends on its own; all blocking happens inside the underlying
// PeekReader.
type Parser struct {
	pr       *mavio.PeekReader
	reg      Registry
	verifier SignatureVerifier
}

// NewParser builds a Parser reading frames from pr, resolving message
// metadata via reg. verifier may be nil to accept unsigned v2 frames
// without validation (policy is the caller's responsibility via
// AllowUnsigned at the connection layer).
func NewParser(pr *mavio.PeekReader, reg Registry, verifier SignatureVerifier) *Parser {
	return &Parser{pr: pr, reg: reg, verifier: verifier}
}

// Next attempts to produce one frame. On a recoverable protocol error
// (ErrCRC, ErrUnknownMessage, ErrSigningRejected, ErrIncompatFlags) it
// returns (nil, err) having already advanced the stream past the bad data;
// the caller should call Next again to continue. An I/O error (including
// mavio.ErrUnexpectedEof) is returned unchanged and is not recoverable by
// retrying from the same reader state.
func (p *Parser) Next() (*Raw, error) {
	var magicByte byte
	for {
		b, err := p.pr.PeekExact(1)
		if err != nil {
			return nil, err
		}
		p.pr.Consume(1)
		if b[0] == MagicV1 || b[0] == MagicV2 {
			magicByte = b[0]
			break
		}
	}
	// magicByte is now accounted for in every recovery path below.

	isV2 := magicByte == MagicV2
	headerAfterMagicLen := headerLenV1 - 1
	if isV2 {
		headerAfterMagicLen = headerLenV2 - 1
	}

	hdr, err := p.pr.PeekExact(headerAfterMagicLen)
	if err != nil {
		return nil, err
	}

	payloadLen := int(hdr[0])
	var incompat, compat, seq, sys, comp byte
	var msgID uint32
	if isV2 {
		incompat, compat = hdr[1], hdr[2]
		seq, sys, comp = hdr[3], hdr[4], hdr[5]
		msgID = uint32(hdr[6]) | uint32(hdr[7])<<8 | uint32(hdr[8])<<16
		if incompat&^incompatSignedBit != 0 {
			// Unknown incompat bit: resync, one byte (the magic) already consumed.
			return nil, ErrIncompatFlags
		}
	} else {
		seq, sys, comp = hdr[1], hdr[2], hdr[3]
		msgID = uint32(hdr[4])
	}
	signed := isV2 && incompat&incompatSignedBit != 0

	total := headerAfterMagicLen + payloadLen + 2
	if signed {
		total += signatureLen
	}
	block, err := p.pr.PeekExact(total)
	if err != nil {
		return nil, err
	}
	payload := block[headerAfterMagicLen : headerAfterMagicLen+payloadLen]
	crcBytes := block[headerAfterMagicLen+payloadLen : headerAfterMagicLen+payloadLen+2]
	gotChecksum := uint16(crcBytes[0]) | uint16(crcBytes[1])<<8

	extra, ok := p.reg.CRCExtra(msgID)
	if !ok {
		// Unknown message: consume the whole frame (we trust the length
		// field here since we cannot validate CRC without crc_extra) to
		// stay synchronised: the length field is the only thing telling us
		// where this frame ends.
		p.pr.Consume(total)
		return nil, fmt.Errorf("%w: id=%d", ErrUnknownMessage, msgID)
	}

	wantChecksum := crc.Frame(hdr[:headerAfterMagicLen], payload, extra)
	if wantChecksum != gotChecksum {
		// CRC mismatch: advance only the single magic byte already
		// consumed above; leave the rest buffered for the next attempt
		// to reinterpret as noise.
		return nil, ErrCRC
	}

	raw := &Raw{
		Magic:         magicByte,
		IncompatFlags: incompat,
		CompatFlags:   compat,
		Sequence:      seq,
		SystemID:      sys,
		ComponentID:   comp,
		MessageID:     msgID,
		Payload:       append([]byte(nil), payload...),
		Checksum:      gotChecksum,
	}

	if signed {
		sigBlock := block[headerAfterMagicLen+payloadLen+2:]
		raw.Signed = true
		raw.LinkID = sigBlock[0]
		raw.Timestamp = uint64(sigBlock[1]) | uint64(sigBlock[2])<<8 | uint64(sigBlock[3])<<16 |
			uint64(sigBlock[4])<<24 | uint64(sigBlock[5])<<32 | uint64(sigBlock[6])<<40
		copy(raw.Signature[:], sigBlock[7:13])

		if p.verifier != nil {
			signedContent := make([]byte, 0, 1+headerAfterMagicLen+payloadLen+2+7)
			signedContent = append(signedContent, magicByte)
			signedContent = append(signedContent, hdr[:headerAfterMagicLen]...)
			signedContent = append(signedContent, payload...)
			signedContent = append(signedContent, crcBytes...)
			if err := p.verifier.Verify(sys, comp, raw.LinkID, raw.Timestamp, raw.Signature, signedContent); err != nil {
				p.pr.Consume(total)
				return nil, fmt.Errorf("%w: %v", ErrSigningRejected, err)
			}
		}
	}

	p.pr.Consume(total)
	return raw, nil
}

