// RTLAOK - A decoder for Renkforce AOK-5055 weather station transmissions.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package aok5055

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/wxdecode/rtlaok/bitbuf"
	"github.com/wxdecode/rtlaok/parse"
)

func init() {
	parse.Register("aok5055", NewParser)
}

const (
	// FrameBytes is one complete copy of the payload, preamble included.
	FrameBytes = 12
	FrameBits  = FrameBytes * 8

	// DefaultMinRepeats is the number of consecutive copies that must agree
	// byte for byte. The station transmits five; four gives a comfortable
	// margin against truncated capture windows.
	DefaultMinRepeats = 4
	minRepeatsFloor   = 3

	// PreambleBits may be relaxed down to this many bits for receivers
	// (RFM69 in particular) that clip the tail of the preamble.
	PreambleBits      = 24
	preambleBitsFloor = 22

	mmPerRainStep     = 0.75
	degPerCompassStep = 22.5

	// The rolling ID nibble is replaced by this sentinel when the
	// transmitter's battery runs low.
	batteryLowSentinel = 0xF
)

// The station keys OOK with the preamble at inverted polarity, so captures
// are flipped once before searching.
var preamble = []byte{0xAA, 0xA5, 0x98}

// Decode outcomes. All are expected results of a single attempt: the caller
// moves on to the next capture.
var (
	ErrPreambleNotFound = errors.New("aok5055: preamble not found")
	ErrInsufficientData = errors.New("aok5055: capture too short for repeat consensus")
	ErrRepeatMismatch   = errors.New("aok5055: repeated frames disagree")
)

type Parser struct {
	cfg parse.Config
}

func NewParser(opts parse.Options) (parse.Parser, error) {
	if opts.MinRepeats == 0 {
		opts.MinRepeats = DefaultMinRepeats
	}
	if opts.PreambleBits == 0 {
		opts.PreambleBits = PreambleBits
	}

	if opts.MinRepeats < minRepeatsFloor {
		return nil, fmt.Errorf("aok5055: minrepeats must be at least %d, got %d", minRepeatsFloor, opts.MinRepeats)
	}
	if opts.PreambleBits < preambleBitsFloor || opts.PreambleBits > PreambleBits {
		return nil, fmt.Errorf("aok5055: preamblebits must be %d..%d, got %d", preambleBitsFloor, PreambleBits, opts.PreambleBits)
	}

	return &Parser{
		cfg: parse.Config{
			Protocol:     "aok5055",
			Preamble:     fmt.Sprintf("%08b%08b%08b", preamble[0], preamble[1], preamble[2]),
			PreambleBits: opts.PreambleBits,
			FrameBits:    FrameBits,
			MinRepeats:   opts.MinRepeats,
		},
	}, nil
}

func (p *Parser) Cfg() parse.Config {
	return p.cfg
}

// Parse locates the preamble in one row of demodulated bits, checks that the
// required number of consecutive frame copies agree, and decodes the first
// copy's fields. The trailing byte of each frame is inter-frame padding and
// legitimately varies between copies, so it is excluded from the consensus
// check. Corrupted captures are rejected outright, never voted on.
func (p *Parser) Parse(buf *bitbuf.Buffer) (parse.Message, error) {
	buf.Invert()

	offset, ok := buf.Search(preamble, p.cfg.PreambleBits, 0)
	if !ok {
		return nil, ErrPreambleNotFound
	}

	if offset+p.cfg.MinRepeats*FrameBits > buf.Len() {
		return nil, ErrInsufficientData
	}

	frame := buf.ExtractBytes(offset, FrameBits)
	for repeat := 1; repeat < p.cfg.MinRepeats; repeat++ {
		next := buf.ExtractBytes(offset+repeat*FrameBits, FrameBits)
		if !bytes.Equal(frame[:FrameBytes-1], next[:FrameBytes-1]) {
			return nil, ErrRepeatMismatch
		}
	}

	return NewReading(frame), nil
}

// Reading is one decoded observation. A reading is only ever produced from a
// frame that passed repeat consensus; it is immutable after creation.
type Reading struct {
	Temperature float64   `xml:",attr"` // degrees Celsius, one decimal
	Humidity    int       `xml:",attr"` // percent
	RainMM      float64   `xml:",attr"` // cumulative since battery change
	WindSpeed   int       `xml:",attr"` // km/h
	WindDir     Direction `xml:",attr"`
	BatteryLow  bool      `xml:",attr"`

	// ID is the rolling identity nibble the station draws at each power
	// cycle. It carries no sensor information but distinguishes stations
	// until the battery is swapped.
	ID uint8 `xml:",attr"`

	raw [FrameBytes]byte
}

func NewReading(frame []byte) *Reading {
	var r Reading

	r.ID = frame[4] >> 4
	r.BatteryLow = r.ID == batteryLowSentinel
	r.Temperature = float64(int(frame[4]&0x0F)<<8|int(frame[5])) / 10
	r.Humidity = int(frame[6])
	r.RainMM = float64(int(frame[7])<<4|int(frame[8])>>4) * mmPerRainStep
	r.WindSpeed = int(frame[8]&0x0F)<<8 | int(frame[9])>>4
	r.WindDir = Direction(frame[9] & 0x0F)

	copy(r.raw[:], frame)

	return &r
}

func (r *Reading) MsgType() string {
	return "AOK5055"
}

func (r *Reading) SensorID() uint8 {
	return r.ID
}

// Raw returns the validated frame bytes, preamble included.
func (r *Reading) Raw() []byte {
	raw := make([]byte, FrameBytes)
	copy(raw, r.raw[:])
	return raw
}

func (r *Reading) battery() string {
	if r.BatteryLow {
		return "LOW"
	}
	return "OK"
}

func (r *Reading) String() string {
	return fmt.Sprintf("{Temperature:%.1fC Humidity:%d%% Wind:%dkm/h@%s(%.1f) Rain:%.2fmm Battery:%s Raw:%02x}",
		r.Temperature, r.Humidity, r.WindSpeed, r.WindDir, r.WindDir.Degrees(), r.RainMM, r.battery(), r.raw,
	)
}

func (r *Reading) Record() (rec []string) {
	rec = append(rec, strconv.FormatFloat(r.Temperature, 'f', 1, 64))
	rec = append(rec, strconv.Itoa(r.Humidity))
	rec = append(rec, strconv.Itoa(r.WindSpeed))
	rec = append(rec, r.WindDir.String())
	rec = append(rec, strconv.FormatFloat(r.WindDir.Degrees(), 'f', 1, 64))
	rec = append(rec, strconv.FormatFloat(r.RainMM, 'f', 2, 64))
	rec = append(rec, r.battery())
	rec = append(rec, fmt.Sprintf("%02x", r.raw))

	return
}

// Direction is a 16-point compass index packed into the low nibble of the
// frame's tenth byte.
type Direction uint8

// Compass labels as the station prints them, O for east.
var directionLabels = [16]string{
	"N", "NNO", "NO", "ONO",
	"O", "OSO", "SO", "SSO",
	"S", "SSW", "SWW", "SW",
	"W", "WNW", "NW", "NNW",
}

func (d Direction) String() string {
	return directionLabels[d&0x0F]
}

func (d Direction) Degrees() float64 {
	return float64(d&0x0F) * degPerCompassStep
}
