package gen

import (
	"bytes"
	"testing"

	"github.com/wxdecode/rtlaok/parse"

	_ "github.com/wxdecode/rtlaok/aok5055"
)

func TestNewRandFrame(t *testing.T) {
	for i := 0; i < 512; i++ {
		frame, err := NewRandFrame()
		if err != nil {
			t.Fatal(err)
		}

		if !bytes.Equal(frame[:3], preamble) {
			t.Fatalf("frame lacks preamble: %02x", frame)
		}
		if frame[6] > 100 {
			t.Fatalf("humidity out of range: %d", frame[6])
		}
	}
}

func TestCaptureDecodes(t *testing.T) {
	p, err := parse.NewParser("aok5055", parse.Options{})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 512; i++ {
		frame, err := NewRandFrame()
		if err != nil {
			t.Fatal(err)
		}

		// Repeats and lead jitter beyond the decoder's minimum requirements.
		buf := NewCapture(frame, 5, i%23)

		msg, err := p.Parse(buf)
		if err != nil {
			t.Fatalf("decode failed: %v (frame %02x)", err, frame)
		}
		if !bytes.Equal(msg.Raw(), frame) {
			t.Fatalf("raw frame mismatch: got %02x, want %02x", msg.Raw(), frame)
		}
	}
}
