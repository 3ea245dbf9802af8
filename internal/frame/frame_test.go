package frame

import (
	"bytes"
	"errors"
	"testing"

	mavio "github.com/kstaniek/mavgw/internal/ioutil"
)

// heartbeatID is the canonical MAVLink common-dialect HEARTBEAT message id.
const heartbeatID = 0
const heartbeatExtra = 50

type fakeRegistry struct {
	extra map[uint32]byte
	wire  map[uint32]int
	ext   map[uint32]int
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		extra: map[uint32]byte{heartbeatID: heartbeatExtra},
		wire:  map[uint32]int{heartbeatID: 9},
		ext:   map[uint32]int{heartbeatID: 9},
	}
}

func (f *fakeRegistry) CRCExtra(id uint32) (byte, bool) { v, ok := f.extra[id]; return v, ok }
func (f *fakeRegistry) DeclaredLen(id uint32) (int, int, bool) {
	return f.wire[id], f.ext[id], f.wire[id] != 0
}

func heartbeatPayload() []byte {
	// custom_mode(u32 LE)=0, type=1, autopilot=3, base_mode=0x81, system_status=4, mavlink_version=3
	return []byte{0, 0, 0, 0, 1, 3, 0x81, 4, 3}
}

// TestV1HeartbeatRoundTrip reproduces scenario S1.
func TestV1HeartbeatRoundTrip(t *testing.T) {
	reg := newFakeRegistry()
	wire, err := Write(WriteRequest{
		V2: false, Sequence: 0, SystemID: 1, ComponentID: 1,
		MessageID: heartbeatID, Payload: heartbeatPayload(),
	}, heartbeatExtra)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(wire) != 17 {
		t.Fatalf("len = %d, want 17", len(wire))
	}
	if !bytes.Equal(wire[:6], []byte{0xFE, 0x09, 0x00, 0x01, 0x01, 0x00}) {
		t.Fatalf("header = % X", wire[:6])
	}
	if wire[15] != 0x65 || wire[16] != 0x9D {
		t.Fatalf("crc = %02X %02X, want 65 9D", wire[15], wire[16])
	}

	p := NewParser(mavio.New(bytes.NewReader(wire), mavio.MinCapacity), reg, nil)
	got, err := p.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.MessageID != heartbeatID || got.SystemID != 1 || got.ComponentID != 1 {
		t.Fatalf("unexpected header: %+v", got)
	}
	if !bytes.Equal(got.Payload, heartbeatPayload()) {
		t.Fatalf("payload = % X", got.Payload)
	}
}

// TestV2Trimming reproduces scenario S2: a v2 HEARTBEAT whose last two
// fields (system_status, mavlink_version) are zero goes out with those two
// trailing zero bytes trimmed, and zero-padding to the declared length
// restores the original payload.
func TestV2Trimming(t *testing.T) {
	reg := newFakeRegistry()
	full := heartbeatPayload() // 9 bytes; its last byte (mavlink_version=3) is non-zero, so nothing would be trimmed
	// Force a trimmable tail: zero out mavlink_version and system_status so the writer trims them.
	trimmable := append([]byte(nil), full...)
	trimmable[7], trimmable[8] = 0, 0 // system_status, mavlink_version -> 0

	wire, err := Write(WriteRequest{
		V2: true, Sequence: 5, SystemID: 2, ComponentID: 3,
		MessageID: heartbeatID, Payload: trimmable,
	}, heartbeatExtra)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if wire[1] != 7 { // payload_len byte: 9 - 2 trailing zero bytes = 7
		t.Fatalf("payload_len = %d, want 7", wire[1])
	}

	p := NewParser(mavio.New(bytes.NewReader(wire), mavio.MinCapacity), reg, nil)
	got, err := p.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(got.Payload) != 7 {
		t.Fatalf("decoded payload len = %d, want 7 (padding is the registry's job)", len(got.Payload))
	}
	wireLen, _, _ := reg.DeclaredLen(heartbeatID)
	padded := make([]byte, wireLen)
	copy(padded, got.Payload)
	if !bytes.Equal(padded, trimmable) {
		t.Fatalf("zero-padded payload = % X, want % X", padded, trimmable)
	}
}

// TestResynchronisation reproduces scenario S3: noise bytes before two
// valid v2 frames, with a non-magic byte also separating them.
func TestResynchronisation(t *testing.T) {
	reg := newFakeRegistry()
	f1, _ := Write(WriteRequest{V2: true, Sequence: 1, SystemID: 1, ComponentID: 1, MessageID: heartbeatID, Payload: heartbeatPayload()}, heartbeatExtra)
	f2, _ := Write(WriteRequest{V2: true, Sequence: 2, SystemID: 1, ComponentID: 1, MessageID: heartbeatID, Payload: heartbeatPayload()}, heartbeatExtra)

	stream := []byte{0x00, 0x00, 0xFD}
	stream = append(stream, f1...)
	stream = append(stream, 0xAA)
	stream = append(stream, f2...)

	p := NewParser(mavio.New(bytes.NewReader(stream), mavio.MinCapacity), reg, nil)
	var frames []*Raw
	for len(frames) < 2 {
		got, err := p.Next()
		if err != nil {
			continue // noise/resync events are expected and non-fatal
		}
		frames = append(frames, got)
	}
	if frames[0].Sequence != 1 || frames[1].Sequence != 2 {
		t.Fatalf("unexpected sequences: %d, %d", frames[0].Sequence, frames[1].Sequence)
	}
}

// TestCRCCorruption reproduces scenario S4: a single flipped payload bit
// must yield one CrcError followed by the next valid frame, with no loss.
func TestCRCCorruption(t *testing.T) {
	reg := newFakeRegistry()
	bad, _ := Write(WriteRequest{V2: false, Sequence: 9, SystemID: 1, ComponentID: 1, MessageID: heartbeatID, Payload: heartbeatPayload()}, heartbeatExtra)
	bad[6] ^= 0x01 // flip a bit in the payload (offset 6 = first payload byte)
	good, _ := Write(WriteRequest{V2: false, Sequence: 10, SystemID: 1, ComponentID: 1, MessageID: heartbeatID, Payload: heartbeatPayload()}, heartbeatExtra)

	stream := append(append([]byte{}, bad...), good...)
	p := NewParser(mavio.New(bytes.NewReader(stream), mavio.MinCapacity), reg, nil)

	_, err := p.Next()
	if !errors.Is(err, ErrCRC) {
		t.Fatalf("expected ErrCRC, got %v", err)
	}
	got, err := p.Next()
	if err != nil {
		t.Fatalf("expected the good frame to survive, got err=%v", err)
	}
	if got.Sequence != 10 {
		t.Fatalf("expected sequence 10, got %d", got.Sequence)
	}
}

// TestUnknownIncompatBit reproduces scenario S6.
func TestUnknownIncompatBit(t *testing.T) {
	reg := newFakeRegistry()
	good, _ := Write(WriteRequest{V2: true, Sequence: 1, SystemID: 1, ComponentID: 1, MessageID: heartbeatID, Payload: heartbeatPayload()}, heartbeatExtra)
	bad := append([]byte(nil), good...)
	bad[2] = 0x02 // incompat_flags = 0x02, unknown bit

	stream := append(bad, good...)
	p := NewParser(mavio.New(bytes.NewReader(stream), mavio.MinCapacity), reg, nil)

	_, err := p.Next()
	if !errors.Is(err, ErrIncompatFlags) {
		t.Fatalf("expected ErrIncompatFlags, got %v", err)
	}
	got, err := p.Next()
	if err != nil {
		t.Fatalf("expected following good frame, got err=%v", err)
	}
	if got.Sequence != 1 {
		t.Fatalf("unexpected sequence %d", got.Sequence)
	}
}

func TestUnknownMessageID(t *testing.T) {
	reg := newFakeRegistry()
	wire, _ := Write(WriteRequest{V2: false, Sequence: 1, SystemID: 1, ComponentID: 1, MessageID: 250, Payload: []byte{1, 2, 3}}, 0xAB)
	p := NewParser(mavio.New(bytes.NewReader(wire), mavio.MinCapacity), reg, nil)
	_, err := p.Next()
	if !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("expected ErrUnknownMessage, got %v", err)
	}
}

func TestPrependedNoiseNeverLosesFrame(t *testing.T) {
	reg := newFakeRegistry()
	good, _ := Write(WriteRequest{V2: false, Sequence: 3, SystemID: 1, ComponentID: 1, MessageID: heartbeatID, Payload: heartbeatPayload()}, heartbeatExtra)
	for _, b := range []byte{0x00, 0x01, 0xAA, 0xFF, MagicV1, MagicV2} {
		stream := append([]byte{b}, good...)
		p := NewParser(mavio.New(bytes.NewReader(stream), mavio.MinCapacity), reg, nil)
		var found *Raw
		for i := 0; i < 3 && found == nil; i++ {
			got, err := p.Next()
			if err == nil {
				found = got
			}
		}
		if found == nil || found.Sequence != 3 {
			t.Fatalf("byte 0x%02X: frame lost", b)
		}
	}
}
