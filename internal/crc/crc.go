// Package crc implements the incremental CRC-16/MCRF4XX (X.25) checksum used
// to validate MAVLink frames, including the per-message "crc_extra" mix-in.
package crc

// CRC accumulates an X.25 CRC-16: polynomial 0x1021 reflected to 0x8408,
// initial value 0xFFFF, no final XOR. Zero value is not ready for use; call
// Init first.
type CRC struct {
	reg uint16
}

// Init resets the accumulator to its initial value.
func (c *CRC) Init() { c.reg = 0xFFFF }

// Update mixes one byte into the running checksum.
func (c *CRC) Update(b byte) {
	tmp := uint16(b) ^ (c.reg & 0xFF)
	tmp ^= tmp << 4
	tmp &= 0xFF
	c.reg = (c.reg >> 8) ^ (tmp << 8) ^ (tmp << 3) ^ (tmp >> 4)
}

// UpdateBytes mixes a run of bytes into the running checksum.
func (c *CRC) UpdateBytes(b []byte) {
	for _, v := range b {
		c.Update(v)
	}
}

// Digest returns the current 16-bit checksum value.
func (c *CRC) Digest() uint16 { return c.reg }

// Frame computes the full frame checksum: header bytes after the magic, the
// payload, and the message's crc_extra byte.
func Frame(headerAfterMagic, payload []byte, extra byte) uint16 {
	var c CRC
	c.Init()
	c.UpdateBytes(headerAfterMagic)
	c.UpdateBytes(payload)
	c.Update(extra)
	return c.Digest()
}

// ExtraByte computes a message's crc_extra from its CRC-16 signature: the
// generator feeds the message name, a space, each non-extension field's
// type name and field name, and array lengths; this folds the resulting
// 16-bit value into one byte as the reference implementation does.
func ExtraByte(signature []byte) byte {
	var c CRC
	c.Init()
	c.UpdateBytes(signature)
	d := c.Digest()
	return byte((d & 0xFF) ^ (d >> 8))
}
