package signing

import (
	"bytes"
	"errors"
	"testing"
)

func testKey() []byte {
	k := make([]byte, KeyLen)
	for i := range k {
		k[i] = byte(i)
	}
	return k
}

func TestNewRejectsBadKeyLength(t *testing.T) {
	if _, err := New([]byte{1, 2, 3}); !errors.Is(err, ErrKeyLen) {
		t.Fatalf("expected ErrKeyLen, got %v", err)
	}
}

func TestSignThenVerifyRoundTrip(t *testing.T) {
	ctx, err := New(testKey())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	content := []byte{0xFD, 9, 1, 0, 1, 1, 1, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 0xAB, 0xCD}
	ts, sig, err := ctx.Sign(7, content)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if err := ctx.Verify(1, 1, 7, ts, sig, content); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerifyRejectsReplay(t *testing.T) {
	ctx, _ := New(testKey())
	content := []byte{1, 2, 3}
	ts, sig, _ := ctx.Sign(7, content)
	if err := ctx.Verify(1, 1, 7, ts, sig, content); err != nil {
		t.Fatalf("first Verify: %v", err)
	}
	if err := ctx.Verify(1, 1, 7, ts, sig, content); !errors.Is(err, ErrReplay) {
		t.Fatalf("expected ErrReplay on repeat timestamp, got %v", err)
	}

	ts2, sig2, _ := ctx.Sign(7, content)
	if ts2 <= ts {
		t.Fatalf("expected strictly increasing timestamp, got %d after %d", ts2, ts)
	}
	if err := ctx.Verify(1, 1, 7, ts2, sig2, content); err != nil {
		t.Fatalf("Verify with newer timestamp: %v", err)
	}

	// An older timestamp than the last accepted one must also be rejected.
	if err := ctx.Verify(1, 1, 7, ts, sig, content); !errors.Is(err, ErrReplay) {
		t.Fatalf("expected ErrReplay on stale timestamp, got %v", err)
	}
}

func TestVerifyRejectsBadDigest(t *testing.T) {
	ctx, _ := New(testKey())
	content := []byte{1, 2, 3}
	ts, sig, _ := ctx.Sign(7, content)
	sig[0] ^= 0xFF
	if err := ctx.Verify(1, 1, 7, ts, sig, content); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestUnknownLinkPolicy(t *testing.T) {
	content := []byte{1, 2, 3}

	strict, _ := New(testKey(), WithAcceptUnknownLink(false))
	ts, sig, _ := strict.Sign(9, content)
	if err := strict.Verify(1, 1, 9, ts, sig, content); !errors.Is(err, ErrUnknownLink) {
		t.Fatalf("expected ErrUnknownLink, got %v", err)
	}

	lenient, _ := New(testKey(), WithAcceptUnknownLink(true))
	ts, sig, _ = lenient.Sign(9, content)
	if err := lenient.Verify(1, 1, 9, ts, sig, content); err != nil {
		t.Fatalf("expected first-seen link to be accepted, got %v", err)
	}
}

func TestDifferentLinksDeriveDifferentDigests(t *testing.T) {
	ctx, _ := New(testKey())
	content := []byte{1, 2, 3}
	_, sigA, _ := ctx.Sign(1, content)
	_, sigB, _ := ctx.Sign(2, content)
	if bytes.Equal(sigA[:], sigB[:]) {
		t.Fatalf("expected distinct signatures per link_id")
	}
}

func TestAllowUnsignedPolicyExposed(t *testing.T) {
	ctx, _ := New(testKey(), WithAllowUnsigned(true))
	if !ctx.AllowUnsigned() {
		t.Fatalf("expected AllowUnsigned to reflect the configured option")
	}
}
