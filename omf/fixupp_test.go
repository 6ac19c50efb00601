package omf

import "testing"

// TestScenarioFixuppThreadResolution covers a THREAD subrecord that
// defines Frame-thread 0 as F0:SEGDEF pointing at segment index 3; a
// following FIXUP subrecord resolves its frame from that thread and
// carries an explicit target with a displacement.
func TestScenarioFixuppThreadResolution(t *testing.T) {
	tb := newTables()
	for i := 0; i < 3; i++ {
		tb.addSegDef(segdefEntry{})
	}

	body := []byte{
		0x40, 0x03, // THREAD: D=1 (frame), Method=0 (SEGDEF), Thred=0, Index=3
		0xC4, 0x05, // FIXUP Locat: M=1, Location=1 (16-bit offset), data_record_offset=0x005
		0x80,       // Fix Data: F=1 (frame from thread 0), T=0, P=0, Targt=0 (explicit SEGDEF)
		0x01,       // explicit target datum: segdef #1
		0x34, 0x12, // target displacement 0x1234
	}
	f := frame{Type: RtFIXUPP, Body: body}

	rec, warnings, err := decodeFixupp(f, TisOmf86, tb)
	if err != nil {
		t.Fatalf("decodeFixupp: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("warnings = %v, want none", warnings)
	}
	fx := rec.(*FixuppRecord)
	if len(fx.Subrecords) != 2 {
		t.Fatalf("subrecords = %d, want 2", len(fx.Subrecords))
	}

	thread := fx.Subrecords[0].Thread
	if thread == nil || !thread.IsFrame || thread.Method != 0 || thread.Thred != 0 || thread.Index != 3 {
		t.Fatalf("thread = %#v, want {IsFrame:true Method:0 Thred:0 Index:3}", thread)
	}

	fixup := fx.Subrecords[1].Fixup
	if fixup == nil {
		t.Fatalf("subrecord[1] is not a FIXUP")
	}
	if !fixup.SegmentRelative || fixup.Location != LocOffset16 || fixup.DataRecordOffset != 0x005 {
		t.Fatalf("fixup locat = %#v", fixup)
	}
	if !fixup.FrameFromThread || fixup.FrameThread != 0 {
		t.Fatalf("fixup frame = %#v, want FrameFromThread(thread 0)", fixup)
	}
	if fixup.FrameMethod != FrameSegdef || !fixup.HasFrameDatum || fixup.FrameDatum != 3 {
		t.Fatalf("resolved frame = {method:%d datum:%d}, want {SEGDEF, 3} (from Frame-thread 0)", fixup.FrameMethod, fixup.FrameDatum)
	}
	if fixup.TargetFromThread {
		t.Fatalf("target should be explicit, not thread-derived")
	}
	if fixup.TargetMethod != TargetSegdef || fixup.TargetDatum != 1 {
		t.Fatalf("target = {method:%d datum:%d}, want {SEGDEF, 1}", fixup.TargetMethod, fixup.TargetDatum)
	}
	if !fixup.HasDisplacement || fixup.TargetDisplacement != 0x1234 {
		t.Fatalf("displacement = %#v, want 0x1234 present", fixup)
	}
}

// TestThreadSubrecordFrameNumberMethod exercises THREAD Method 3
// (FrameNum), which stores a raw 2-byte frame number rather than an
// OMF index.
func TestThreadSubrecordFrameNumberMethod(t *testing.T) {
	th := ThreadSubrecord{IsFrame: true, Thred: 1, Method: 3, Index: 0x1234, HasIndex: true}
	e := &encoder{}
	encodeThreadSubrecord(e, th)

	if len(e.buf) != 3 {
		t.Fatalf("encoded THREAD(method=3) is %d bytes, want 3 (tag + 2-byte numeric)", len(e.buf))
	}

	got, err := decodeThreadSubrecord(newCursor(e.buf))
	if err != nil {
		t.Fatalf("decodeThreadSubrecord: %v", err)
	}
	if got != th {
		t.Fatalf("round-tripped to %#v, want %#v", got, th)
	}
}

// TestThreadSubrecordNoIndexMethods covers Methods 4-7, which carry no
// index field at all.
func TestThreadSubrecordNoIndexMethods(t *testing.T) {
	for _, method := range []byte{4, 5, 6, 7} {
		th := ThreadSubrecord{IsFrame: false, Thred: 2, Method: method}
		e := &encoder{}
		encodeThreadSubrecord(e, th)
		if len(e.buf) != 1 {
			t.Fatalf("method %d: encoded to %d bytes, want 1 (tag only)", method, len(e.buf))
		}
		got, err := decodeThreadSubrecord(newCursor(e.buf))
		if err != nil {
			t.Fatalf("method %d: decode error: %v", method, err)
		}
		if got.HasIndex {
			t.Fatalf("method %d: HasIndex = true, want false", method)
		}
		if got.IsFrame != th.IsFrame || got.Method != th.Method || got.Thred != th.Thred {
			t.Fatalf("method %d: round-tripped to %#v", method, got)
		}
	}
}

// TestFixupTargetDisplacementPresence checks displacement presence is
// exactly TargetMethod < 4 (P == 0), including the T3/FrameNum case
// that a narrower "segdef/grpdef/extdef only" check would miss.
func TestFixupTargetDisplacementPresence(t *testing.T) {
	for method := byte(0); method < 8; method++ {
		tb := newTables()
		var fixDat byte
		fixDat |= 0x80       // F=1: frame from thread 0 (avoids an explicit frame datum read)
		fixDat |= (method & 0x3) << 0
		if method >= 4 {
			fixDat |= 0x04 // P bit
		}
		// target datum 0 ("not present") sidesteps checkDatumIndex's
		// table-membership check, which isn't the thing under test here.
		body := []byte{0x80, 0x00, fixDat, 0x00}
		if method < 4 {
			body = append(body, 0x00, 0x00) // displacement
		}
		f := frame{Type: RtFIXUPP, Body: body}

		rec, _, err := decodeFixupp(f, TisOmf86, tb)
		if err != nil {
			t.Fatalf("method %d: decodeFixupp: %v", method, err)
		}
		fixup := rec.(*FixuppRecord).Subrecords[0].Fixup
		want := method < 4
		if fixup.HasDisplacement != want {
			t.Fatalf("method %d: HasDisplacement = %v, want %v", method, fixup.HasDisplacement, want)
		}
	}
}

// TestFixupLocatRoundTrip checks every (b1, b2) Locat byte pair with
// b1's FIXUP bit set round trips through decodeFixupSubrecord and
// encodeFixupSubrecord of the M/Location/DataRecordOffset triple.
func TestFixupLocatRoundTrip(t *testing.T) {
	for raw := 0; raw <= 0xFFFF; raw++ {
		b1 := byte(0x80 | (raw >> 8)) // bit7 always set to mark a FIXUP subrecord
		b2 := byte(raw)

		// Fix Data 0x88: frame and target both from thread 0, P=0, so
		// only a 2-byte displacement follows.
		body := []byte{b1, b2, 0x88, 0x00, 0x00}
		got, err := decodeFixupSubrecord(newCursor(body), TisOmf86, false, newTables())
		if err != nil {
			t.Fatalf("raw=0x%04x: decode error: %v", raw, err)
		}

		e := &encoder{}
		encodeFixupSubrecord(e, got, false)

		if e.buf[0] != b1 || e.buf[1] != b2 {
			t.Fatalf("raw=0x%04x: round-tripped to (0x%02x,0x%02x), want (0x%02x,0x%02x)", raw, e.buf[0], e.buf[1], b1, b2)
		}
	}
}

// TestFixupSubrecordEncodeDecodeRoundTrip exercises the full
// encode/decode pair for a representative set of explicit (non-thread)
// FIXUP subrecords.
func TestFixupSubrecordEncodeDecodeRoundTrip(t *testing.T) {
	cases := []FixupSubrecord{
		{
			SegmentRelative: true, Location: LocOffset16, DataRecordOffset: 0x005,
			FrameMethod: FrameSegdef, HasFrameDatum: true, FrameDatum: 3,
			TargetMethod: TargetSegdef, HasTargetDatum: true, TargetDatum: 1,
			TargetDisplacement: 0x1234, HasDisplacement: true,
		},
		{
			SegmentRelative: false, Location: LocOffset32, DataRecordOffset: 0x3FF,
			FrameMethod: FrameLocation,
			TargetMethod: TargetExtdefNoDisp, HasTargetDatum: true, TargetDatum: 5,
		},
	}
	for i, c := range cases {
		// decodeFixupSubrecord validates resolved datums against the
		// module's tables, so give it enough SEGDEF/EXTDEF entries to
		// cover every datum index used above.
		tb := newTables()
		for j := 0; j < 5; j++ {
			tb.addSegDef(segdefEntry{})
			tb.addExtern(externEntry{})
		}

		e := &encoder{}
		encodeFixupSubrecord(e, c, false)
		got, err := decodeFixupSubrecord(newCursor(e.buf), TisOmf86, false, tb)
		if err != nil {
			t.Fatalf("case %d: decode error: %v", i, err)
		}
		if got != c {
			t.Fatalf("case %d: round-tripped to %#v, want %#v", i, got, c)
		}
	}
}
