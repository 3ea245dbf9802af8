package frame

import (
	"bytes"
	"errors"
	"testing"

	mavio "github.com/kstaniek/mavgw/internal/ioutil"
)

// TestMalformedCRCRecovers builds a valid frame, flips a single checksum
// byte, and checks the parser reports ErrCRC for it but still recovers the
// next frame on the same stream.
func TestMalformedCRCRecovers(t *testing.T) {
	reg := newFakeRegistry()
	bad, _ := Write(WriteRequest{V2: false, Sequence: 1, SystemID: 1, ComponentID: 1, MessageID: heartbeatID, Payload: heartbeatPayload()}, heartbeatExtra)
	bad[len(bad)-1] ^= 0xFF // corrupt the high checksum byte
	good, _ := Write(WriteRequest{V2: false, Sequence: 2, SystemID: 1, ComponentID: 1, MessageID: heartbeatID, Payload: heartbeatPayload()}, heartbeatExtra)

	stream := append(append([]byte{}, bad...), good...)
	p := NewParser(mavio.New(bytes.NewReader(stream), mavio.MinCapacity), reg, nil)

	if _, err := p.Next(); !errors.Is(err, ErrCRC) {
		t.Fatalf("expected ErrCRC, got %v", err)
	}
	got, err := p.Next()
	if err != nil {
		t.Fatalf("expected following good frame to survive, got %v", err)
	}
	if got.Sequence != 2 {
		t.Fatalf("sequence = %d, want 2", got.Sequence)
	}
}

// TestMalformedLengthByteTruncatesGracefully checks a length byte that
// claims more payload than actually follows yields ErrUnexpectedEof rather
// than reading out of bounds.
func TestMalformedLengthByteTruncatesGracefully(t *testing.T) {
	reg := newFakeRegistry()
	frame := []byte{MagicV1, 0xFF, 0, 1, 1, byte(heartbeatID), 1, 2, 3}
	p := NewParser(mavio.New(bytes.NewReader(frame), mavio.MinCapacity), reg, nil)
	if _, err := p.Next(); !errors.Is(err, mavio.ErrUnexpectedEof) {
		t.Fatalf("expected ErrUnexpectedEof, got %v", err)
	}
}

// TestMalformedSignatureRejected builds a signed frame and corrupts its
// signature byte, checking Verify rejects it and the parser reports
// ErrSigningRejected without panicking.
func TestMalformedSignatureRejected(t *testing.T) {
	reg := newFakeRegistry()
	wire, err := Write(WriteRequest{
		V2: true, Sequence: 1, SystemID: 1, ComponentID: 1,
		MessageID: heartbeatID, Payload: heartbeatPayload(),
		LinkID: 3, Signer: rejectingSigner{},
	}, heartbeatExtra)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	wire[len(wire)-1] ^= 0xFF // corrupt the last signature byte

	p := NewParser(mavio.New(bytes.NewReader(wire), mavio.MinCapacity), reg, alwaysRejectVerifier{})
	if _, err := p.Next(); !errors.Is(err, ErrSigningRejected) {
		t.Fatalf("expected ErrSigningRejected, got %v", err)
	}
}

type rejectingSigner struct{}

func (rejectingSigner) Sign(linkID byte, signedContent []byte) (uint64, [6]byte, error) {
	return 1, [6]byte{1, 2, 3, 4, 5, 6}, nil
}

type alwaysRejectVerifier struct{}

func (alwaysRejectVerifier) Verify(sysID, compID, linkID byte, timestamp uint64, sig [6]byte, signedContent []byte) error {
	return errors.New("rejected")
}
