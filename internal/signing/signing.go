// Package signing implements the MAVLink v2 message-signing trailer:
// HKDF-derived per-link keys, truncated SHA-256 digests, and replay
// protection via a monotonic timestamp accepted per (sys, comp, link_id).
package signing

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/crypto/hkdf"
)

// KeyLen is the required length of the root secret.
const KeyLen = 32

// mavlinkEpoch is 2015-01-01 00:00:00 UTC, the origin for the 10us timestamp
// unit used on the wire.
var mavlinkEpoch = time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC)

var (
	ErrKeyLen           = errors.New("signing: key must be 32 bytes")
	ErrReplay           = errors.New("signing: timestamp not greater than last accepted")
	ErrUnknownLink      = errors.New("signing: unknown link and accept_unknown_link is disabled")
	ErrBadSignature     = errors.New("signing: digest mismatch")
)

type linkKey = [8]byte // (sysID, compID, linkID) packed as a map key

func packKey(sys, comp, link byte) linkKey { return linkKey{sys, comp, link} }

// Context holds one connection's signing state: the root secret, the
// outbound link id, and the replay-protection timestamp table.
type Context struct {
	mu sync.Mutex

	rootKey            [KeyLen]byte
	outboundLinkID     byte
	allowUnsigned      bool
	acceptUnknownLink  bool
	lastAccepted       map[linkKey]uint64
	outboundClock      uint64 // monotonic 10us counter, advanced on each Sign
}

// Option configures a Context at construction.
type Option func(*Context)

// WithOutboundLinkID sets the link_id used when signing outbound frames.
func WithOutboundLinkID(id byte) Option { return func(c *Context) { c.outboundLinkID = id } }

// WithAllowUnsigned permits unsigned v2 frames to pass verification
// (decided by the caller before invoking Verify; Context itself only
// exposes the policy bit via AllowUnsigned).
func WithAllowUnsigned(allow bool) Option { return func(c *Context) { c.allowUnsigned = allow } }

// WithAcceptUnknownLink controls whether the first frame seen on a
// previously-unseen (sys, comp, link_id) tuple is accepted (recording its
// timestamp) or rejected outright.
func WithAcceptUnknownLink(accept bool) Option { return func(c *Context) { c.acceptUnknownLink = accept } }

// New derives a Context from a 32-byte root secret. Per-link secrets are
// not derived eagerly; HKDF expansion happens per Sign/Verify call keyed by
// link_id, so compromising one link's derived key cannot be used to
// recover the root secret or another link's key.
func New(rootSecret []byte, opts ...Option) (*Context, error) {
	if len(rootSecret) != KeyLen {
		return nil, fmt.Errorf("%w: got %d", ErrKeyLen, len(rootSecret))
	}
	c := &Context{
		acceptUnknownLink: true,
		lastAccepted:      make(map[linkKey]uint64),
	}
	copy(c.rootKey[:], rootSecret)
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// AllowUnsigned reports the configured policy for accepting unsigned v2
// frames.
func (c *Context) AllowUnsigned() bool { return c.allowUnsigned }

func (c *Context) derive(linkID byte) [32]byte {
	h := hkdf.New(sha256.New, c.rootKey[:], []byte{linkID}, []byte("mavgw-signing-v1"))
	var sub [32]byte
	_, _ = h.Read(sub[:]) // hkdf.Reader never errors once constructed with a valid hash
	return sub
}

// digest is the single source of truth for what gets hashed: subKey,
// signedContent (header .. crc, never including link_id), link_id, then the
// timestamp. Sign and Verify must both go through this so they can never
// drift apart on what bytes participate.
func digest(subKey [32]byte, signedContent []byte, linkID byte, timestamp uint64) [6]byte {
	h := sha256.New()
	h.Write(subKey[:])
	h.Write(signedContent)
	h.Write([]byte{linkID})
	var ts [6]byte
	ts[0], ts[1], ts[2] = byte(timestamp), byte(timestamp>>8), byte(timestamp>>16)
	ts[3], ts[4], ts[5] = byte(timestamp>>24), byte(timestamp>>32), byte(timestamp>>40)
	h.Write(ts[:])
	sum := h.Sum(nil)
	var out [6]byte
	copy(out[:], sum[:6])
	return out
}

// Now10us returns the current time as 10us units since the MAVLink epoch,
// matching the wire timestamp unit.
func Now10us() uint64 {
	return uint64(time.Since(mavlinkEpoch).Microseconds() / 10)
}

// Sign allocates a strictly increasing timestamp and computes the 6-byte
// signature over signedContent (header .. crc, as assembled by the frame
// writer; digest adds link_id and the timestamp) for linkID, implementing
// frame.SignatureSigner.
func (c *Context) Sign(linkID byte, signedContent []byte) (timestamp uint64, sig [6]byte, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := Now10us()
	if now <= c.outboundClock {
		now = c.outboundClock + 1
	}
	c.outboundClock = now
	sub := c.derive(linkID)
	return now, digest(sub, signedContent, linkID, now), nil
}

// Verify implements frame.SignatureVerifier: it rejects replayed or
// out-of-order timestamps per (sys, comp, link_id) and checks the digest.
func (c *Context) Verify(sysID, compID, linkID byte, timestamp uint64, sig [6]byte, signedContent []byte) error {
	sub := c.derive(linkID)
	want := digest(sub, signedContent, linkID, timestamp)
	if want != sig {
		return ErrBadSignature
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	key := packKey(sysID, compID, linkID)
	last, known := c.lastAccepted[key]
	if !known {
		if !c.acceptUnknownLink {
			return ErrUnknownLink
		}
		c.lastAccepted[key] = timestamp
		return nil
	}
	if timestamp <= last {
		return ErrReplay
	}
	c.lastAccepted[key] = timestamp
	return nil
}

// OutboundLinkID returns the link id configured for outbound signing.
func (c *Context) OutboundLinkID() byte { return c.outboundLinkID }
