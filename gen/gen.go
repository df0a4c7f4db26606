// Package gen builds synthetic AOK-5055 captures for testing: well-formed
// frames with randomized sensor fields, repeated on-air the way the station
// transmits them.
package gen

import (
	"crypto/rand"

	"github.com/wxdecode/rtlaok/bitbuf"
)

const FrameBytes = 12

var preamble = []byte{0xAA, 0xA5, 0x98}

// NewRandFrame returns a random well-formed frame: preamble in place and
// humidity within percent range. Remaining fields are unconstrained, the
// decoder performs no range validation on them.
func NewRandFrame() (frame []byte, err error) {
	frame = make([]byte, FrameBytes)
	if _, err = rand.Read(frame); err != nil {
		return nil, err
	}

	copy(frame, preamble)
	frame[6] %= 101

	return
}

// NewCapture packs lead zero bits followed by repeats copies of frame, then
// flips polarity to match what the demodulator hands the decoder. The
// trailing pause byte of each copy after the first is perturbed, as the
// station legitimately varies it between repeats.
func NewCapture(frame []byte, repeats, leadBits int) *bitbuf.Buffer {
	buf := bitbuf.New(leadBits + repeats*len(frame)*8)

	for i := 0; i < leadBits; i++ {
		buf.AddBit(0)
	}

	cp := make([]byte, len(frame))
	copy(cp, frame)
	for r := 0; r < repeats; r++ {
		if r > 0 {
			cp[len(cp)-1] ^= byte(r)
		}
		buf.AddBytes(cp)
	}

	buf.Invert()

	return buf
}
