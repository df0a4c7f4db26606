package aok5055

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/wxdecode/rtlaok/bitbuf"
	"github.com/wxdecode/rtlaok/parse"
)

// Frame captured from a live station, every field hand-computed below.
var testFrame = []byte{
	0xAA, 0xA5, 0x98, // preamble
	0x0F, 0x00, 0x90, 0x53, 0x05, 0xE0, 0x2D, 0xA3,
	0x80, // inter-frame pause byte
}

// newCapture packs lead zero bits and repeated frame copies, then inverts
// polarity to mimic the station's on-air convention. Each copy's trailing
// byte is drawn from trailers when provided.
func newCapture(t *testing.T, frame []byte, repeats, leadBits int, trailers []byte) *bitbuf.Buffer {
	t.Helper()

	buf := bitbuf.New(leadBits + repeats*len(frame)*8)
	for i := 0; i < leadBits; i++ {
		buf.AddBit(0)
	}

	cp := make([]byte, len(frame))
	for r := 0; r < repeats; r++ {
		copy(cp, frame)
		if trailers != nil {
			cp[len(cp)-1] = trailers[r]
		}
		buf.AddBytes(cp)
	}

	buf.Invert()
	return buf
}

func newTestParser(t *testing.T, opts parse.Options) parse.Parser {
	t.Helper()

	p, err := NewParser(opts)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestDecodeFields(t *testing.T) {
	p := newTestParser(t, parse.Options{})

	msg, err := p.Parse(newCapture(t, testFrame, 4, 13, nil))
	if err != nil {
		t.Fatal(err)
	}

	r := msg.(*Reading)

	// temperature_raw = ((0x00 & 0x0F) << 8) | 0x90 = 144
	if r.Temperature != 14.4 {
		t.Errorf("Temperature: got %v, want 14.4", r.Temperature)
	}
	// humidity = 0x53
	if r.Humidity != 83 {
		t.Errorf("Humidity: got %d, want 83", r.Humidity)
	}
	// rain_steps = (0x05 << 4) | (0xE0 >> 4) = 94, 94 * 0.75 = 70.5
	if r.RainMM != 70.5 {
		t.Errorf("RainMM: got %v, want 70.5", r.RainMM)
	}
	// wind_speed = ((0xE0 & 0x0F) << 8) | (0x2D >> 4) = 2
	if r.WindSpeed != 2 {
		t.Errorf("WindSpeed: got %d, want 2", r.WindSpeed)
	}
	// direction index = 0x2D & 0x0F = 13
	if r.WindDir != 13 || r.WindDir.String() != "WNW" || r.WindDir.Degrees() != 292.5 {
		t.Errorf("WindDir: got %d %s %v, want 13 WNW 292.5", r.WindDir, r.WindDir, r.WindDir.Degrees())
	}
	// rolling id nibble = 0x00 >> 4
	if r.ID != 0 || r.BatteryLow {
		t.Errorf("ID/Battery: got %d %v, want 0 false", r.ID, r.BatteryLow)
	}
	if !bytes.Equal(msg.Raw(), testFrame) {
		t.Errorf("Raw: got %02x, want %02x", msg.Raw(), testFrame)
	}
}

func TestPreambleNotFound(t *testing.T) {
	p := newTestParser(t, parse.Options{})

	buf := bitbuf.New(0)
	for i := 0; i < 512; i++ {
		buf.AddBit(byte(i) & 1)
	}

	if _, err := p.Parse(buf); !errors.Is(err, ErrPreambleNotFound) {
		t.Fatalf("got %v, want ErrPreambleNotFound", err)
	}
}

func TestRepeatMismatch(t *testing.T) {
	p := newTestParser(t, parse.Options{})

	// Flip one bit in byte 3 of the third copy, well away from the excluded
	// trailing byte.
	buf := bitbuf.New(0)
	cp := make([]byte, FrameBytes)
	for r := 0; r < 4; r++ {
		copy(cp, testFrame)
		if r == 2 {
			cp[3] ^= 0x04
		}
		buf.AddBytes(cp)
	}
	buf.Invert()

	if _, err := p.Parse(buf); !errors.Is(err, ErrRepeatMismatch) {
		t.Fatalf("got %v, want ErrRepeatMismatch", err)
	}
}

func TestTrailingByteExcluded(t *testing.T) {
	p := newTestParser(t, parse.Options{})

	ref, err := p.Parse(newCapture(t, testFrame, 4, 0, nil))
	if err != nil {
		t.Fatal(err)
	}

	got, err := p.Parse(newCapture(t, testFrame, 4, 0, []byte{0x80, 0x13, 0xFE, 0x00}))
	if err != nil {
		t.Fatalf("distinct trailing bytes rejected: %v", err)
	}

	if !reflect.DeepEqual(got, ref) {
		t.Fatalf("reading differs: got %s, want %s", got, ref)
	}
}

func TestInsufficientData(t *testing.T) {
	p := newTestParser(t, parse.Options{})

	// Only 3 of the required 4 copies fit in the capture window.
	if _, err := p.Parse(newCapture(t, testFrame, 3, 9, nil)); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("got %v, want ErrInsufficientData", err)
	}
}

func TestDecodeIdempotent(t *testing.T) {
	p := newTestParser(t, parse.Options{})

	a, err := p.Parse(newCapture(t, testFrame, 4, 5, nil))
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Parse(newCapture(t, testFrame, 4, 5, nil))
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Fatalf("readings differ: %s vs %s", a, b)
	}
}

func TestBatterySentinel(t *testing.T) {
	for nibble := 0; nibble < 16; nibble++ {
		frame := make([]byte, FrameBytes)
		copy(frame, testFrame)
		frame[4] = byte(nibble)<<4 | frame[4]&0x0F

		r := NewReading(frame)
		if want := nibble == 0xF; r.BatteryLow != want {
			t.Errorf("nibble %X: BatteryLow = %v, want %v", nibble, r.BatteryLow, want)
		}
		if r.ID != uint8(nibble) {
			t.Errorf("nibble %X: ID = %d", nibble, r.ID)
		}
	}
}

func TestDirectionTable(t *testing.T) {
	want := []struct {
		label   string
		degrees float64
	}{
		{"N", 0}, {"NNO", 22.5}, {"NO", 45}, {"ONO", 67.5},
		{"O", 90}, {"OSO", 112.5}, {"SO", 135}, {"SSO", 157.5},
		{"S", 180}, {"SSW", 202.5}, {"SWW", 225}, {"SW", 247.5},
		{"W", 270}, {"WNW", 292.5}, {"NW", 315}, {"NNW", 337.5},
	}

	for idx, w := range want {
		d := Direction(idx)
		if d.String() != w.label || d.Degrees() != w.degrees {
			t.Errorf("index %d: got %s %v, want %s %v", idx, d, d.Degrees(), w.label, w.degrees)
		}
	}
}

func TestPreambleTolerance(t *testing.T) {
	p := newTestParser(t, parse.Options{PreambleBits: 22})

	// A receiver that clips the final two preamble bits still reports a row
	// containing the full repeated frames; the relaxed search must sync on
	// the leading 22 bits.
	if _, err := p.Parse(newCapture(t, testFrame, 4, 2, nil)); err != nil {
		t.Fatalf("22-bit sync failed: %v", err)
	}
}

func TestParserOptionValidation(t *testing.T) {
	for _, opts := range []parse.Options{
		{MinRepeats: 2},
		{PreambleBits: 21},
		{PreambleBits: 25},
	} {
		if _, err := NewParser(opts); err == nil {
			t.Errorf("NewParser(%+v): expected error", opts)
		}
	}

	p := newTestParser(t, parse.Options{MinRepeats: 3, PreambleBits: 23})
	cfg := p.Cfg()
	if cfg.MinRepeats != 3 || cfg.PreambleBits != 23 {
		t.Fatalf("Cfg: got %+v", cfg)
	}
}

func TestReadingRecord(t *testing.T) {
	r := NewReading(testFrame)

	want := []string{"14.4", "83", "2", "WNW", "292.5", "70.50", "OK", "aaa5980f00905305e02da380"}
	if got := r.Record(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Record: got %v, want %v", got, want)
	}

	if s := fmt.Sprint(r); s == "" {
		t.Fatal("empty String")
	}
}
