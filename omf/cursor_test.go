package omf

import "testing"

// TestOmfIndexRoundTrip checks every index round trips through the
// minimal-form encoding, and the encoder never picks the 2-byte form
// when the 1-byte form would do.
func TestOmfIndexRoundTrip(t *testing.T) {
	for i := 0; i <= maxOmfIndex; i++ {
		e := &encoder{}
		e.omfIndex(OmfIndex(i))

		wantLen := 1
		if i >= 0x80 {
			wantLen = 2
		}
		if len(e.buf) != wantLen {
			t.Fatalf("omfIndex(%d) encoded to %d bytes, want %d", i, len(e.buf), wantLen)
		}

		got, err := newCursor(e.buf).omfIndex()
		if err != nil {
			t.Fatalf("omfIndex(%d): decode error: %v", i, err)
		}
		if int(got) != i {
			t.Fatalf("omfIndex(%d) round-tripped to %d", i, got)
		}
	}
}

func TestVarLenRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0x7F, 0x80, 0x81, 0xFF, 0x100, 0xFFFF, 0x10000, 0xFFFFFF, 0x1000000, 0xFFFFFFFF}
	for _, v := range values {
		e := &encoder{}
		e.varLen(v)
		got, err := newCursor(e.buf).varLen()
		if err != nil {
			t.Fatalf("varLen(%d): decode error: %v", v, err)
		}
		if got != v {
			t.Fatalf("varLen(%d) round-tripped to %d", v, got)
		}
	}
}

// TestVarLenMinimalForm checks the encoder never emits a wider marker
// than necessary.
func TestVarLenMinimalForm(t *testing.T) {
	cases := []struct {
		v        uint32
		wantLen  int
	}{
		{0, 1},
		{varlenMax1Byte, 1},
		{varlenMax1Byte + 1, 3},
		{0xFFFF, 3},
		{0x10000, 4},
		{0xFFFFFF, 4},
		{0x1000000, 5},
	}
	for _, c := range cases {
		e := &encoder{}
		e.varLen(c.v)
		if len(e.buf) != c.wantLen {
			t.Fatalf("varLen(%d) encoded to %d bytes, want %d", c.v, len(e.buf), c.wantLen)
		}
	}
}

func TestLpNameRoundTrip(t *testing.T) {
	names := []string{"", "a", "hello.c", "ALPHA"}
	for _, n := range names {
		e := &encoder{}
		e.lpName(n)
		got, err := newCursor(e.buf).lpName()
		if err != nil {
			t.Fatalf("lpName(%q): decode error: %v", n, err)
		}
		if got != n {
			t.Fatalf("lpName(%q) round-tripped to %q", n, got)
		}
	}
}
