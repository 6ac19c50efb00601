package omf

// ACBP byte field layout: Align in bits 7-5, Combine in
// bits 4-2, Big in bit 1, P (Use32 under the PharLap/MS 386
// extensions, reserved in plain TIS OMF 1.1) in bit 0.
const (
	segAlignShift   = 5
	segAlignMask    = 0x7
	segCombineShift = 2
	segCombineMask  = 0x7
	segBigBit       = 0x02
	segUse32Bit     = 0x01
)

// SegAlign is the SEGDEF A field.
type SegAlign byte

const (
	SegAlignAbsolute SegAlign = 0
	SegAlignByte     SegAlign = 1
	SegAlignWord     SegAlign = 2
	SegAlignPara     SegAlign = 3
	SegAlignPage     SegAlign = 4
	SegAlignDWord    SegAlign = 5
)

// SegCombine is the SEGDEF C field.
type SegCombine byte

const (
	SegCombinePrivate SegCombine = 0
	SegCombinePublic  SegCombine = 2
	SegCombineStack   SegCombine = 5
	SegCombineCommon  SegCombine = 6
)

// SegAccess is the PharLap Easy OMF-386 access byte's type field,
// present only when the module variant is EasyOmf386.
type SegAccess byte

const (
	SegAccessRead      SegAccess = 0
	SegAccessExecute   SegAccess = 1
	SegAccessReadWrite SegAccess = 2
)

// SegDefRecord is SEGDEF (0x98/0x99): describes one logical segment
// and appends it to the segment table.
type SegDefRecord struct {
	Is32 bool

	Align    SegAlign
	Combine  SegCombine
	Big      bool
	Use32    bool // P bit: only meaningful under PharLap/MS 386 extensions

	// Only present when Align == SegAlignAbsolute.
	AbsoluteFrame  uint16
	AbsoluteOffset byte

	Length uint32

	SegNameIndex OmfIndex
	ClassNameIndex OmfIndex
	OverlayNameIndex OmfIndex

	// Only present under EasyOmf386 when the record has a trailing byte.
	HasAccessByte bool
	AccessByte    byte
	Access        SegAccess
}

func (r *SegDefRecord) RecordType() RecordType {
	if r.Is32 {
		return RtSEGDEF32
	}
	return RtSEGDEF
}

func (r *SegDefRecord) encodeBody(v Variant) []byte {
	e := &encoder{}
	var acbp byte
	acbp |= (byte(r.Align) & segAlignMask) << segAlignShift
	acbp |= (byte(r.Combine) & segCombineMask) << segCombineShift
	if r.Big {
		acbp |= segBigBit
	}
	if r.Use32 {
		acbp |= segUse32Bit
	}
	e.u8(acbp)

	if r.Align == SegAlignAbsolute {
		e.numeric(2, uint32(r.AbsoluteFrame))
		e.u8(r.AbsoluteOffset)
	}

	width := offsetFieldWidth(v, r.Is32)
	length := r.Length
	e.numeric(width, length)

	e.omfIndex(r.SegNameIndex)
	e.omfIndex(r.ClassNameIndex)
	e.omfIndex(r.OverlayNameIndex)

	if v == EasyOmf386 && r.HasAccessByte {
		e.u8(r.AccessByte)
	}

	return e.buf
}

func decodeSegdef(f frame, variant Variant, t *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	r := &SegDefRecord{Is32: f.Type.is32()}

	acbp, err := c.u8()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "SEGDEF:acbp", err)
	}
	r.Align = SegAlign((acbp >> segAlignShift) & segAlignMask)
	r.Combine = SegCombine((acbp >> segCombineShift) & segCombineMask)
	r.Big = acbp&segBigBit != 0
	r.Use32 = acbp&segUse32Bit != 0

	if r.Align == SegAlignAbsolute {
		frameVal, err := c.numeric(2)
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "SEGDEF:frame", err)
		}
		r.AbsoluteFrame = uint16(frameVal)
		off, err := c.u8()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "SEGDEF:offset", err)
		}
		r.AbsoluteOffset = off
	}

	width := offsetFieldWidth(variant, r.Is32)
	length, err := c.numeric(width)
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "SEGDEF:length", err)
	}
	if r.Big && length == 0 {
		if r.Is32 {
			// A 32-bit Big segment's true length is exactly 4GiB
			// (4294967296), which doesn't fit in a uint32; Length
			// is left at 0 rather than storing a value that would
			// silently alias some other length. Big is the signal
			// to read as "4GiB", not Length itself.
			r.Length = 0
		} else {
			r.Length = 0x10000 // exactly 64KiB; fits since Length is uint32
		}
	} else {
		r.Length = length
	}

	segIdx, err := c.omfIndex()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "SEGDEF:segname", err)
	}
	clsIdx, err := c.omfIndex()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "SEGDEF:classname", err)
	}
	ovlIdx, err := c.omfIndex()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "SEGDEF:overlayname", err)
	}
	r.SegNameIndex = segIdx
	r.ClassNameIndex = clsIdx
	r.OverlayNameIndex = ovlIdx

	var warnings []Warning
	if c.remaining() >= 1 {
		if variant == EasyOmf386 {
			ab, err := c.u8()
			if err != nil {
				return nil, nil, wrapError(ErrTruncated, "SEGDEF:access", err)
			}
			r.HasAccessByte = true
			r.AccessByte = ab
			r.Access = SegAccess(ab & 0x3)
			r.Use32 = ab&0x4 != 0 // PharLap U bit is authoritative
		} else {
			warnings = append(warnings, Warning{Kind: WarnReservedBitsNonzero, Where: "SEGDEF", Detail: "trailing bytes outside EasyOmf386"})
		}
	}

	name, _ := t.lname(segIdx)
	t.addSegDef(segdefEntry{Name: name, Def: r})

	return r, warnings, nil
}

// GrpdefComponent is one entry of a GRPDEF component list: in TIS OMF
// 1.1 this is always a segment index (type byte 0xFF); the 0x80..0x82
// LIDATA-style forms some vendor linkers emit are preserved opaquely.
type GrpdefComponent struct {
	Type       byte // 0xFF for a segment component
	SegIndex   OmfIndex
	RawPayload []byte // raw remaining bytes for unrecognized component types
}

const grpdefComponentSegment = 0xFF

// GrpdefRecord is GRPDEF (0x9A): a group name and an ordered list of
// segment components.
type GrpdefRecord struct {
	GroupNameIndex OmfIndex
	Components     []GrpdefComponent
}

func (r *GrpdefRecord) RecordType() RecordType { return RtGRPDEF }

func (r *GrpdefRecord) encodeBody(Variant) []byte {
	e := &encoder{}
	e.omfIndex(r.GroupNameIndex)
	for _, comp := range r.Components {
		e.u8(comp.Type)
		if comp.Type == grpdefComponentSegment {
			e.omfIndex(comp.SegIndex)
		} else {
			e.bytes(comp.RawPayload)
		}
	}
	return e.buf
}

func decodeGrpdef(f frame, _ Variant, t *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	r := &GrpdefRecord{}

	grpIdx, err := c.omfIndex()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "GRPDEF:groupname", err)
	}
	r.GroupNameIndex = grpIdx

	var warnings []Warning
	for c.remaining() > 0 {
		typ, err := c.u8()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "GRPDEF:component", err)
		}
		comp := GrpdefComponent{Type: typ}
		if typ == grpdefComponentSegment {
			idx, err := c.omfIndex()
			if err != nil {
				return nil, nil, wrapError(ErrTruncated, "GRPDEF:segindex", err)
			}
			comp.SegIndex = idx
		} else {
			warnings = append(warnings, Warning{Kind: WarnUnsupportedGroupComponent, Where: "GRPDEF", Detail: recordTypeName(RecordType(typ))})
			rest, _ := c.bytesN(c.remaining())
			comp.RawPayload = rest
		}
		r.Components = append(r.Components, comp)
	}

	name, _ := t.lname(grpIdx)
	t.addGrpDef(name)

	return r, warnings, nil
}
