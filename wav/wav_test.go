package wav

import (
	"testing"
)

// seekableBuffer is an in-memory io.WriteSeeker over a byte slice, since
// Writer needs to seek back and patch the RIFF/data chunk sizes.
type seekableBuffer struct {
	buf []byte
	pos int64
}

func (s *seekableBuffer) Write(p []byte) (int, error) {
	end := s.pos + int64(len(p))
	if end > int64(len(s.buf)) {
		grown := make([]byte, end)
		copy(grown, s.buf)
		s.buf = grown
	}
	copy(s.buf[s.pos:end], p)
	s.pos = end
	return len(p), nil
}

func (s *seekableBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		s.pos = offset
	case 1:
		s.pos += offset
	case 2:
		s.pos = int64(len(s.buf)) + offset
	}
	return s.pos, nil
}

func TestWriteFrameQuantizesAndClampsFloatSamples(t *testing.T) {
	sb := &seekableBuffer{}
	w, err := NewWriter(sb, 44100)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	left := []float32{0, 1, -1, 2, -2, 0.5}
	right := []float32{0, -1, 1, -2, 2, -0.5}
	if err := w.WriteFrame([][]float32{left, right}); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if _, err := w.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	data := sb.buf[44:] // past the 44-byte RIFF/fmt header
	if len(data) != len(left)*4 {
		t.Fatalf("data chunk length = %d, want %d", len(data), len(left)*4)
	}

	// bytes are interleaved [L0,R0,L1,R1,...], 2 bytes each.
	readSample := func(frame, ch int) int16 {
		i := frame*4 + ch*2
		return int16(uint16(data[i]) | uint16(data[i+1])<<8)
	}
	if readSample(0, 0) != 0 || readSample(0, 1) != 0 {
		t.Errorf("frame 0 = (%d, %d), want (0, 0)", readSample(0, 0), readSample(0, 1))
	}
	if readSample(1, 0) != 32767 {
		t.Errorf("frame 1 left = %d, want 32767", readSample(1, 0))
	}
	// clamp check: input 2.0/-2.0 must saturate to int16 range, not overflow.
	if readSample(3, 0) != 32767 {
		t.Errorf("clamped +2 left = %d, want 32767", readSample(3, 0))
	}
	if readSample(4, 0) != -32767 {
		t.Errorf("clamped -2 left = %d, want -32767", readSample(4, 0))
	}
}

func TestFloatToPCM16RoundTrip(t *testing.T) {
	cases := []struct {
		in   float32
		want int16
	}{
		{0, 0},
		{1, 32767},
		{-1, -32767},
		{3, 32767},
		{-3, -32767},
	}
	for _, c := range cases {
		got := floatToPCM16(c.in)
		if got != c.want {
			t.Errorf("floatToPCM16(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}
