// Package bitbuf implements a packed bit buffer holding one row of
// demodulated signal, with the bit-level operations decoders need: polarity
// inversion, pattern search and byte-aligned extraction from arbitrary bit
// offsets.
package bitbuf

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Buffer is a single row of bits packed MSB-first into bytes. The zero value
// is an empty buffer ready for use.
type Buffer struct {
	data []byte
	bits int
}

// New returns a buffer with capacity for at least n bits.
func New(n int) *Buffer {
	return &Buffer{data: make([]byte, 0, (n+7)>>3)}
}

// NewFromBytes returns a buffer containing a copy of b, len(b)*8 bits long.
func NewFromBytes(b []byte) *Buffer {
	buf := &Buffer{data: make([]byte, len(b)), bits: len(b) * 8}
	copy(buf.data, b)
	return buf
}

// Len returns the number of bits in the buffer.
func (b *Buffer) Len() int {
	return b.bits
}

// Bit returns the bit at position i as 0 or 1.
func (b *Buffer) Bit(i int) byte {
	return (b.data[i>>3] >> (7 - uint(i&7))) & 1
}

// Bytes returns the backing byte slice. Bits beyond Len in the final byte
// are zero.
func (b *Buffer) Bytes() []byte {
	return b.data[:(b.bits+7)>>3]
}

// AddBit appends a single bit. Any non-zero v is stored as 1.
func (b *Buffer) AddBit(v byte) {
	if b.bits&7 == 0 {
		b.data = append(b.data, 0)
	}
	if v != 0 {
		b.data[b.bits>>3] |= 1 << (7 - uint(b.bits&7))
	}
	b.bits++
}

// AddBytes appends each byte of p, MSB first.
func (b *Buffer) AddBytes(p []byte) {
	for _, v := range p {
		for i := 7; i >= 0; i-- {
			b.AddBit((v >> uint(i)) & 1)
		}
	}
}

// Invert flips every bit in place. Pad bits beyond Len are cleared so the
// packed representation stays canonical.
func (b *Buffer) Invert() {
	for i := range b.data {
		b.data[i] = ^b.data[i]
	}
	if pad := uint(b.bits & 7); pad != 0 {
		b.data[len(b.data)-1] &= 0xFF << (8 - pad)
	}
}

// ExtractBytes packs n bits starting at bit offset into a byte-aligned
// slice. The offset need not be byte-aligned.
func (b *Buffer) ExtractBytes(offset, n int) []byte {
	out := make([]byte, (n+7)>>3)

	if offset&7 == 0 {
		copy(out, b.data[offset>>3:])
		if pad := uint(n & 7); pad != 0 {
			out[len(out)-1] &= 0xFF << (8 - pad)
		}
		return out
	}

	for i := 0; i < n; i++ {
		out[i>>3] |= b.Bit(offset+i) << (7 - uint(i&7))
	}
	return out
}

// Search scans left to right for the first occurrence of pattern at or after
// start, comparing the leading patternBits bits of the MSB-first pattern.
// It returns the bit offset of the match, or false if the pattern does not
// occur before the buffer ends.
func (b *Buffer) Search(pattern []byte, patternBits, start int) (int, bool) {
	if max := len(pattern) * 8; patternBits > max {
		patternBits = max
	}

	for pos := start; pos+patternBits <= b.bits; pos++ {
		match := true
		for i := 0; i < patternBits; i++ {
			if b.Bit(pos+i) != (pattern[i>>3]>>(7-uint(i&7)))&1 {
				match = false
				break
			}
		}
		if match {
			return pos, true
		}
	}

	return 0, false
}

func (b *Buffer) String() string {
	return fmt.Sprintf("{%d}%02x", b.bits, b.Bytes())
}

// Parse reads one row of demodulated bits from its textual form: either a
// bare string of '0' and '1' characters (spaces ignored), or the compact
// "{bitlen}hexdigits" row dump format.
func Parse(s string) (*Buffer, error) {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return nil, errors.New("bitbuf: unterminated bit length")
		}

		n, err := strconv.Atoi(s[1:end])
		if err != nil || n < 0 {
			return nil, errors.Errorf("bitbuf: invalid bit length %q", s[1:end])
		}

		hex := s[end+1:]
		if len(hex)*4 < n {
			return nil, errors.Errorf("bitbuf: row %q shorter than declared %d bits", hex, n)
		}

		buf := New(n)
		for i := 0; i < n; i += 4 {
			nib, err := strconv.ParseUint(string(hex[i>>2]), 16, 8)
			if err != nil {
				return nil, errors.Wrap(err, "bitbuf: invalid hex digit")
			}
			for j := 3; j >= 0 && buf.bits < n; j-- {
				buf.AddBit(byte(nib>>uint(j)) & 1)
			}
		}
		return buf, nil
	}

	buf := New(len(s))
	for _, c := range s {
		switch c {
		case '0':
			buf.AddBit(0)
		case '1':
			buf.AddBit(1)
		case ' ', '\t':
		default:
			return nil, errors.Errorf("bitbuf: invalid bit character %q", c)
		}
	}
	return buf, nil
}
