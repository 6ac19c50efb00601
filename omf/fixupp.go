package omf

// Frame methods. F3 is invalid in TIS OMF 1.1; F4/F5 are
// relative to the data record's segment / the resolved target.
const (
	FrameSegdef byte = 0
	FrameGrpdef byte = 1
	FrameExtdef byte = 2
	FrameFrameNumber byte = 3 // invalid in TIS
	FrameLocation    byte = 4 // "same as data record's segment"
	FrameTarget      byte = 5 // "same as target"
)

// Target methods. T0-T3 carry a displacement (P=0); T4-T6
// are the same but with an implied zero displacement (P=1); T7 is
// undefined. Displacement presence is exactly TargetMethod < 4, i.e.
// P == 0, not merely T0-T2 (constants.py's TARGET_METHOD_NAMES lists
// T3 as "FrameNum", still P=0).
const (
	TargetSegdef       byte = 0
	TargetGrpdef       byte = 1
	TargetExtdef       byte = 2
	TargetFrameNumber  byte = 3
	TargetSegdefNoDisp byte = 4
	TargetGrpdefNoDisp byte = 5
	TargetExtdefNoDisp byte = 6
)

// FixupLocation is the 4-bit Location field of a FIXUP subrecord's
// Locat byte.
type FixupLocation byte

const (
	LocLowByte       FixupLocation = 0
	LocOffset16      FixupLocation = 1
	LocSelector16    FixupLocation = 2
	LocPointer1616   FixupLocation = 3
	LocHighByte      FixupLocation = 4
	LocLoaderOffset16 FixupLocation = 5
	LocOffset32      FixupLocation = 9
	LocPointer1632   FixupLocation = 11
	LocLoaderOffset32 FixupLocation = 13

	// PharLap Easy OMF-386 reassigns 5 and 6.
	LocPharlapOffset32  FixupLocation = 5
	LocPharlapPointer1632 FixupLocation = 6
)

// ThreadSubrecord is a THREAD subrecord: it (re)defines one of the
// four FRAME or four TARGET thread slots. Method 3
// (FrameNum) stores a raw 2-byte frame number rather than an OMF
// index; methods 4-7 carry no index at all (grounded on
// original_source's `handle_fixupp`: "if method_val == 3: idx =
// parse_numeric(2) elif method_val < 3: idx = parse_index()").
type ThreadSubrecord struct {
	IsFrame bool // D bit: true = FRAME thread, false = TARGET thread
	Thred   byte // 0-3
	Method  byte // 3 bits
	Index   OmfIndex // present iff Method <= 3
	HasIndex bool
}

// FixupSubrecord is a FIXUP subrecord: the bit-packed Locat/Fix Data
// layout, decoded into its resolved fields.
type FixupSubrecord struct {
	SegmentRelative bool // Locat M bit: true = segment-relative, false = self-relative
	Location        FixupLocation
	DataRecordOffset uint16 // 10 bits

	FrameMethod    byte
	FrameFromThread bool
	FrameThread    byte
	FrameDatum     OmfIndex
	HasFrameDatum  bool

	TargetMethod   byte // resolved 3-bit method
	TargetFromThread bool
	TargetThread   byte
	TargetDatum    OmfIndex
	HasTargetDatum bool

	TargetDisplacement uint32
	HasDisplacement    bool
}

// FixuppSubrecord is the tagged union of the two subrecord kinds.
type FixuppSubrecord struct {
	Thread *ThreadSubrecord
	Fixup  *FixupSubrecord
}

// FixuppRecord is FIXUPP (0x9C/0x9D): a sequence of THREAD/FIXUP
// subrecords.
type FixuppRecord struct {
	Is32       bool
	Subrecords []FixuppSubrecord

	// DataAnchorOffset is the file offset of the LEDATA/LIDATA/COMDAT
	// record this FIXUPP applies to, so the dumper can reproduce the
	// same grouping.
	DataAnchorOffset int
}

func (r *FixuppRecord) RecordType() RecordType {
	if r.Is32 {
		return RtFIXUPP32
	}
	return RtFIXUPP
}

func (r *FixuppRecord) encodeBody(v Variant) []byte {
	e := &encoder{}
	for _, sr := range r.Subrecords {
		if sr.Thread != nil {
			encodeThreadSubrecord(e, *sr.Thread)
		} else if sr.Fixup != nil {
			encodeFixupSubrecord(e, *sr.Fixup, r.Is32)
		}
	}
	return e.buf
}

func encodeThreadSubrecord(e *encoder, t ThreadSubrecord) {
	var b byte
	if t.IsFrame {
		b |= 0x40
	}
	b |= (t.Method & 0x7) << 2
	b |= t.Thred & 0x3
	e.u8(b)
	switch {
	case t.Method == 3:
		e.numeric(2, uint32(t.Index))
	case t.Method < 3:
		e.omfIndex(t.Index)
	}
}

func decodeThreadSubrecord(c *cursor) (ThreadSubrecord, error) {
	b, err := c.u8()
	if err != nil {
		return ThreadSubrecord{}, err
	}
	t := ThreadSubrecord{
		// D bit (0x40): 1 = FRAME thread, 0 = TARGET thread.
		IsFrame: b&0x40 != 0,
		Method:  (b >> 2) & 0x7,
		Thred:   b & 0x3,
	}
	switch {
	case t.Method == 3:
		idx, err := c.numeric(2)
		if err != nil {
			return ThreadSubrecord{}, err
		}
		t.Index = OmfIndex(idx)
		t.HasIndex = true
	case t.Method < 3:
		idx, err := c.omfIndex()
		if err != nil {
			return ThreadSubrecord{}, err
		}
		t.Index = idx
		t.HasIndex = true
	}
	return t, nil
}

func fixuppDispWidth(is32 bool) int {
	if is32 {
		return 4
	}
	return 2
}

func encodeFixupSubrecord(e *encoder, f FixupSubrecord, is32 bool) {
	var b1 byte = 0x80
	if f.SegmentRelative {
		b1 |= 0x40
	}
	b1 |= (byte(f.Location) & 0xF) << 2
	b1 |= byte(f.DataRecordOffset>>8) & 0x3
	e.u8(b1)
	e.u8(byte(f.DataRecordOffset))

	var fixDat byte
	if f.FrameFromThread {
		fixDat |= 0x80
		fixDat |= (f.FrameThread & 0x7) << 4
	} else {
		fixDat |= (f.FrameMethod & 0x7) << 4
	}
	if f.TargetFromThread {
		fixDat |= 0x08
		fixDat |= f.TargetThread & 0x3
	} else {
		p := (f.TargetMethod >> 2) & 1
		fixDat |= p << 2
		fixDat |= f.TargetMethod & 0x3
	}
	e.u8(fixDat)

	if !f.FrameFromThread && f.FrameMethod < 3 {
		e.omfIndex(f.FrameDatum)
	}
	if !f.TargetFromThread {
		e.omfIndex(f.TargetDatum)
	}
	if f.HasDisplacement {
		e.numeric(fixuppDispWidth(is32), f.TargetDisplacement)
	}
}

// decodeFixupSubrecord decodes one FIXUP subrecord, resolving any
// thread references from the thread slots on t; it only reads that
// state, which decodeFixupp updates as THREAD subrecords are seen.
func decodeFixupSubrecord(c *cursor, variant Variant, is32 bool, t *tables) (FixupSubrecord, error) {
	b1, err := c.u8()
	if err != nil {
		return FixupSubrecord{}, err
	}
	b2, err := c.u8()
	if err != nil {
		return FixupSubrecord{}, err
	}

	loc := FixupLocation((b1 >> 2) & 0xF)
	if loc == 5 && variant == EasyOmf386 {
		loc = LocPharlapOffset32
	} else if loc == 6 && variant == EasyOmf386 {
		loc = LocPharlapPointer1632
	}

	f := FixupSubrecord{
		SegmentRelative:  b1&0x40 != 0,
		Location:         loc,
		DataRecordOffset: (uint16(b1&0x3) << 8) | uint16(b2),
	}

	fixDat, err := c.u8()
	if err != nil {
		return FixupSubrecord{}, err
	}
	fBit := fixDat&0x80 != 0
	frameField := (fixDat >> 4) & 0x7
	tBit := fixDat&0x08 != 0
	pBit := (fixDat >> 2) & 1
	targtField := fixDat & 0x3

	if fBit {
		f.FrameFromThread = true
		f.FrameThread = frameField & 0x3
		slot := t.frameThreads[f.FrameThread]
		f.FrameMethod = slot.Method
		f.FrameDatum = slot.Datum
		f.HasFrameDatum = slot.Valid
	} else {
		f.FrameMethod = frameField
		if frameField < 3 {
			idx, err := c.omfIndex()
			if err != nil {
				return FixupSubrecord{}, err
			}
			f.FrameDatum = idx
			f.HasFrameDatum = true
		}
	}

	if tBit {
		f.TargetFromThread = true
		f.TargetThread = targtField
		slot := t.targetThreads[f.TargetThread]
		f.TargetMethod = (pBit << 2) | (slot.Method & 0x3)
		f.TargetDatum = slot.Datum
		f.HasTargetDatum = slot.Valid
	} else {
		f.TargetMethod = (pBit << 2) | targtField
		idx, err := c.omfIndex()
		if err != nil {
			return FixupSubrecord{}, err
		}
		f.TargetDatum = idx
		f.HasTargetDatum = true
	}

	if f.TargetMethod < 4 {
		disp, err := c.numeric(fixuppDispWidth(is32))
		if err != nil {
			return FixupSubrecord{}, err
		}
		f.TargetDisplacement = disp
		f.HasDisplacement = true
	}

	if err := checkDatumIndex("FIXUPP:frame", f.FrameMethod, f.FrameDatum, f.HasFrameDatum, t); err != nil {
		return FixupSubrecord{}, err
	}
	if err := checkDatumIndex("FIXUPP:target", f.TargetMethod&0x3, f.TargetDatum, f.HasTargetDatum, t); err != nil {
		return FixupSubrecord{}, err
	}

	return f, nil
}

// checkDatumIndex validates a resolved FRAME/TARGET datum against the
// Segdef/Grpdef/Extdef table the method that selected it points into
// (0=segdef, 1=grpdef, 2=extdef).
func checkDatumIndex(where string, method byte, datum OmfIndex, has bool, t *tables) error {
	if !has {
		return nil
	}
	switch method {
	case 0:
		return checkIndex(where, datum, len(t.segdefs)-1)
	case 1:
		return checkIndex(where, datum, len(t.grpdefs)-1)
	case 2:
		return checkIndex(where, datum, len(t.externs)-1)
	}
	return nil
}

// threadMethodWarning flags the frame/target thread method values
// TIS OMF 1.1 documents as invalid or undefined (F3/F6 invalid, F7
// undefined for FRAME threads, T7 undefined for TARGET threads).
// These are non-fatal: the value still decodes.
func threadMethodWarning(isFrame bool, method byte) (Warning, bool) {
	if isFrame {
		switch method {
		case 3, 6:
			return Warning{Kind: WarnReservedBitsNonzero, Where: "FIXUPP:thread", Detail: "invalid FRAME method"}, true
		case 7:
			return Warning{Kind: WarnReservedBitsNonzero, Where: "FIXUPP:thread", Detail: "undefined FRAME method"}, true
		}
		return Warning{}, false
	}
	if method == 7 {
		return Warning{Kind: WarnReservedBitsNonzero, Where: "FIXUPP:thread", Detail: "undefined TARGET method"}, true
	}
	return Warning{}, false
}

func decodeFixupp(f frame, variant Variant, t *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	r := &FixuppRecord{Is32: f.Type.is32(), DataAnchorOffset: t.lastDataAnchor}

	var warnings []Warning
	for c.remaining() > 0 {
		peek, ok := c.peek()
		if !ok {
			break
		}
		if peek&0x80 == 0 {
			th, err := decodeThreadSubrecord(c)
			if err != nil {
				return nil, nil, wrapError(ErrMalformedFixupp, "FIXUPP:thread", err)
			}
			if th.IsFrame {
				t.frameThreads[th.Thred] = threadSlot{Valid: true, Method: th.Method, Datum: th.Index}
			} else {
				t.targetThreads[th.Thred] = threadSlot{Valid: true, Method: th.Method, Datum: th.Index}
			}
			if w, ok := threadMethodWarning(th.IsFrame, th.Method); ok {
				warnings = append(warnings, w)
			}
			r.Subrecords = append(r.Subrecords, FixuppSubrecord{Thread: &th})
		} else {
			fx, err := decodeFixupSubrecord(c, variant, r.Is32, t)
			if err != nil {
				return nil, nil, wrapError(ErrMalformedFixupp, "FIXUPP:fixup", err)
			}
			r.Subrecords = append(r.Subrecords, FixuppSubrecord{Fixup: &fx})
		}
	}

	return r, warnings, nil
}

// FixupTarget is the MODEND Start-Address specifier: structurally a
// single simplified FIXUP subrecord with no thread indirection.
type FixupTarget struct {
	FrameMethod  byte
	P            bool
	TargetMethod byte
	FrameDatum   OmfIndex
	HasFrameDatum bool
	TargetDatum  OmfIndex
	TargetDisplacement uint32
	HasDisplacement    bool
}

func encodeFixupTarget(e *encoder, t FixupTarget, is32 bool) {
	var b byte
	b |= (t.FrameMethod & 0x7) << 4
	if t.P {
		b |= 0x04
	}
	b |= t.TargetMethod & 0x7
	e.u8(b)
	if t.FrameMethod < 3 {
		e.omfIndex(t.FrameDatum)
	}
	e.omfIndex(t.TargetDatum)
	if !t.P {
		e.numeric(fixuppDispWidth(is32), t.TargetDisplacement)
	}
}

func decodeFixupTarget(c *cursor, _ Variant, is32 bool) (FixupTarget, error) {
	b, err := c.u8()
	if err != nil {
		return FixupTarget{}, err
	}
	t := FixupTarget{
		FrameMethod:  (b >> 4) & 0x7,
		P:            b&0x04 != 0,
		TargetMethod: b & 0x7,
	}
	if t.FrameMethod < 3 {
		idx, err := c.omfIndex()
		if err != nil {
			return FixupTarget{}, err
		}
		t.FrameDatum = idx
		t.HasFrameDatum = true
	}
	idx, err := c.omfIndex()
	if err != nil {
		return FixupTarget{}, err
	}
	t.TargetDatum = idx
	if !t.P {
		disp, err := c.numeric(fixuppDispWidth(is32))
		if err != nil {
			return FixupTarget{}, err
		}
		t.TargetDisplacement = disp
		t.HasDisplacement = true
	}
	return t, nil
}
