// Package dialect holds the generated MAVLink message registry: per-message
// wire metadata (crc_extra, declared lengths) and marshal/unmarshal
// closures, assembled by cmd/mavgen from XML dialect definitions and
// consumed by internal/frame via the Registry interface.
package dialect

import "fmt"

// MessageSpec describes one dialect message's wire shape. WireLen is the v1
// payload length; ExtLen is WireLen plus any extension fields that only
// exist on the v2 wire, and is the length Dialect.Decode zero-pads a
// trimmed v2 payload back to.
type MessageSpec struct {
	Name     string
	ID       uint32
	CRCExtra byte
	WireLen  int
	ExtLen   int

	// Decode parses a zero-padded wire-length-or-longer payload into a
	// message value, returned as `any` so Dialect stays independent of any
	// one generated package's concrete types.
	Decode func(payload []byte) (any, error)
	// Encode serialises a message value (as produced by Decode, or
	// hand-built by a caller) back into a wire payload, not yet trimmed or
	// padded.
	Encode func(msg any) ([]byte, error)
}

// Dialect is a set of message specs indexed by message id, implementing
// frame.Registry.
type Dialect struct {
	byID map[uint32]MessageSpec
}

// New returns an empty Dialect ready for Register calls.
func New() *Dialect {
	return &Dialect{byID: make(map[uint32]MessageSpec)}
}

// Register adds spec to the dialect. A later Register for the same ID
// overwrites the earlier one, matching the "last include wins" rule XML
// dialects use when two files declare the same message id (<include>
// resolution, applied at generation time at the latest of the two merges).
func (d *Dialect) Register(spec MessageSpec) {
	d.byID[spec.ID] = spec
}

// Merge combines multiple dialects into one, e.g. a common dialect plus a
// vendor extension. Later dialects take precedence on id collision.
func Merge(dialects ...*Dialect) *Dialect {
	out := New()
	for _, d := range dialects {
		for _, spec := range d.byID {
			out.Register(spec)
		}
	}
	return out
}

// CRCExtra implements frame.Registry.
func (d *Dialect) CRCExtra(id uint32) (byte, bool) {
	spec, ok := d.byID[id]
	return spec.CRCExtra, ok
}

// DeclaredLen implements frame.Registry.
func (d *Dialect) DeclaredLen(id uint32) (wireLen, extLen int, ok bool) {
	spec, ok := d.byID[id]
	return spec.WireLen, spec.ExtLen, ok
}

// Spec returns the full MessageSpec for id, or ok=false if unknown.
func (d *Dialect) Spec(id uint32) (MessageSpec, bool) {
	spec, ok := d.byID[id]
	return spec, ok
}

// Decode zero-pads payload to the message's declared extended length ExtLen (reversing
// v2's trailing-zero trimming on encode) and decodes it via the registered
// spec.
func (d *Dialect) Decode(id uint32, payload []byte) (any, error) {
	spec, ok := d.byID[id]
	if !ok {
		return nil, fmt.Errorf("dialect: unknown message id %d", id)
	}
	target := spec.ExtLen
	if len(payload) > target {
		target = len(payload)
	}
	padded := payload
	if len(payload) < target {
		padded = make([]byte, target)
		copy(padded, payload)
	}
	return spec.Decode(padded)
}

// EncodePayload serialises msg for message id, returning the full
// (untrimmed) wire payload.
func (d *Dialect) EncodePayload(id uint32, msg any) ([]byte, error) {
	spec, ok := d.byID[id]
	if !ok {
		return nil, fmt.Errorf("dialect: unknown message id %d", id)
	}
	return spec.Encode(msg)
}
