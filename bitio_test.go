package chipsynth

import "testing"

func TestBitWriterReaderRoundTrip(t *testing.T) {
	var w bitWriter
	w.writeBits(6, 9)
	w.writeBit(true)
	w.writeBit(false)
	w.writeBits(12, 4095)

	r, err := newBitReaderFromBase64(w.toBase64())
	if err != nil {
		t.Fatal(err)
	}

	if v, err := r.readBits(6); err != nil || v != 9 {
		t.Errorf("readBits(6) = %d, %v; want 9, nil", v, err)
	}
	if b, err := r.readBit(); err != nil || b != true {
		t.Errorf("readBit() = %v, %v; want true, nil", b, err)
	}
	if b, err := r.readBit(); err != nil || b != false {
		t.Errorf("readBit() = %v, %v; want false, nil", b, err)
	}
	if v, err := r.readBits(12); err != nil || v != 4095 {
		t.Errorf("readBits(12) = %d, %v; want 4095, nil", v, err)
	}
}

func TestLongTailRoundTrip(t *testing.T) {
	values := []int{0, 1, 7, 8, 63, 64, 1000, 1 << 20}
	for _, v := range values {
		var w bitWriter
		w.writeLongTail(0, 3, v)

		r, err := newBitReaderFromBase64(w.toBase64())
		if err != nil {
			t.Fatal(err)
		}
		got, err := r.readLongTail(0, 3)
		if err != nil {
			t.Fatalf("readLongTail(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("long-tail round trip for %d got %d", v, got)
		}
	}
}

func TestSignedLongTailRoundTrip(t *testing.T) {
	values := []int{0, 1, -1, 12, -12, 500, -500}
	for _, v := range values {
		var w bitWriter
		w.writeSignedLongTail(v)

		r, err := newBitReaderFromBase64(w.toBase64())
		if err != nil {
			t.Fatal(err)
		}
		got, err := r.readSignedLongTail()
		if err != nil {
			t.Fatalf("readSignedLongTail(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("signed long-tail round trip for %d got %d", v, got)
		}
	}
}

func TestBitReaderRejectsUnknownSymbol(t *testing.T) {
	if _, err := newBitReaderFromBase64("abc!"); err != ErrMalformedSong {
		t.Errorf("expected ErrMalformedSong for unrecognized symbol, got %v", err)
	}
}

func TestBitReaderLegacyDotAcceptedAsDash(t *testing.T) {
	var w bitWriter
	w.writeBits(6, int(base64Lookup['-']))
	dash := w.toBase64()

	dotEncoded := string([]byte{'.'})
	rDash, err := newBitReaderFromBase64(dash)
	if err != nil {
		t.Fatal(err)
	}
	rDot, err := newBitReaderFromBase64(dotEncoded)
	if err != nil {
		t.Fatal(err)
	}

	vDash, _ := rDash.readBits(6)
	vDot, _ := rDot.readBits(6)
	if vDash != vDot {
		t.Errorf("'.' should decode identically to '-', got %d vs %d", vDot, vDash)
	}
}

func TestBitReaderRemaining(t *testing.T) {
	var w bitWriter
	w.writeBits(6, 1)
	w.writeBits(6, 2)

	r, err := newBitReaderFromBase64(w.toBase64())
	if err != nil {
		t.Fatal(err)
	}
	if r.remaining() != 12 {
		t.Errorf("expected 12 bits remaining, got %d", r.remaining())
	}
	r.readBits(6)
	if r.remaining() != 6 {
		t.Errorf("expected 6 bits remaining after reading one symbol, got %d", r.remaining())
	}
}
