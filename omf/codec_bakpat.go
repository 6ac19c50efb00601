package omf

// BackpatchLocation is the BAKPAT/NBKPAT location-type byte. Value 2
// (DWord) is only valid in the 32-bit record form.
type BackpatchLocation byte

const (
	BackpatchByte  BackpatchLocation = 0
	BackpatchWord  BackpatchLocation = 1
	BackpatchDWord BackpatchLocation = 2
)

// BakpatEntry is one (segment, location, offset, value) patch in a
// BAKPAT record.
type BakpatEntry struct {
	SegmentIndex OmfIndex
	Location     BackpatchLocation
	Offset       uint32
	Value        uint32
}

// BakpatRecord is BAKPAT (0xB2/0xB3): backpatches addressed by
// segment index.
type BakpatRecord struct {
	Is32    bool
	Entries []BakpatEntry
}

func (r *BakpatRecord) RecordType() RecordType {
	if r.Is32 {
		return RtBAKPAT32
	}
	return RtBAKPAT
}

func (r *BakpatRecord) encodeBody(v Variant) []byte {
	e := &encoder{}
	width := offsetFieldWidth(v, r.Is32)
	for _, ent := range r.Entries {
		e.omfIndex(ent.SegmentIndex)
		e.u8(byte(ent.Location))
		e.numeric(width, ent.Offset)
		e.numeric(width, ent.Value)
	}
	return e.buf
}

func decodeBakpat(f frame, variant Variant, _ *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	r := &BakpatRecord{Is32: f.Type.is32()}
	width := offsetFieldWidth(variant, r.Is32)

	var warnings []Warning
	for c.remaining() > 0 {
		segIdx, err := c.omfIndex()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "BAKPAT:segment", err)
		}
		loc, err := c.u8()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "BAKPAT:location", err)
		}
		if loc == byte(BackpatchDWord) && !r.Is32 {
			warnings = append(warnings, Warning{Kind: WarnReservedBitsNonzero, Where: "BAKPAT", Detail: "DWord location in 16-bit record"})
		}
		offset, err := c.numeric(width)
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "BAKPAT:offset", err)
		}
		value, err := c.numeric(width)
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "BAKPAT:value", err)
		}
		r.Entries = append(r.Entries, BakpatEntry{SegmentIndex: segIdx, Location: BackpatchLocation(loc), Offset: offset, Value: value})
	}

	return r, warnings, nil
}

// NbkpatEntry is one named backpatch.
type NbkpatEntry struct {
	Location        BackpatchLocation
	SymbolNameIndex OmfIndex
	Offset          uint32
	Value           uint32
}

// NbkpatRecord is NBKPAT (0xC8/0xC9): the one record type in this
// format whose 16-vs-32-bit selection is inverted: 0xC8 is the 32-bit
// form, 0xC9 the 16-bit form.
type NbkpatRecord struct {
	Is32    bool
	Entries []NbkpatEntry
}

func (r *NbkpatRecord) RecordType() RecordType {
	if r.Is32 {
		return RtNBKPAT
	}
	return RtNBKPAT32
}

func (r *NbkpatRecord) encodeBody(v Variant) []byte {
	e := &encoder{}
	width := offsetFieldWidth(v, r.Is32)
	for _, ent := range r.Entries {
		e.u8(byte(ent.Location))
		e.omfIndex(ent.SymbolNameIndex)
		e.numeric(width, ent.Offset)
		e.numeric(width, ent.Value)
	}
	return e.buf
}

func decodeNbkpat(f frame, variant Variant, t *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	r := &NbkpatRecord{Is32: f.Type.is32()}
	width := offsetFieldWidth(variant, r.Is32)

	for c.remaining() > 0 {
		loc, err := c.u8()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "NBKPAT:location", err)
		}
		nameIdx, err := c.omfIndex()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "NBKPAT:symbol", err)
		}
		offset, err := c.numeric(width)
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "NBKPAT:offset", err)
		}
		value, err := c.numeric(width)
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "NBKPAT:value", err)
		}
		r.Entries = append(r.Entries, NbkpatEntry{Location: BackpatchLocation(loc), SymbolNameIndex: nameIdx, Offset: offset, Value: value})
		_, _ = t.lname(nameIdx)
	}

	return r, nil, nil
}

// LineEntry is one (line number, offset) pair shared by LINNUM and
// LINSYM. Line 0 marks the end of a function's range.
type LineEntry struct {
	Line   uint16
	Offset uint32
}

// LinnumRecord is LINNUM (0x94/0x95): source line numbers anchored to
// a base group/segment.
type LinnumRecord struct {
	Is32 bool

	BaseGroupIndex   OmfIndex
	BaseSegmentIndex OmfIndex
	Entries          []LineEntry
}

func (r *LinnumRecord) RecordType() RecordType {
	if r.Is32 {
		return RtLINNUM32
	}
	return RtLINNUM
}

func (r *LinnumRecord) encodeBody(v Variant) []byte {
	e := &encoder{}
	e.omfIndex(r.BaseGroupIndex)
	e.omfIndex(r.BaseSegmentIndex)
	width := offsetFieldWidth(v, r.Is32)
	for _, ent := range r.Entries {
		e.u16le(ent.Line)
		e.numeric(width, ent.Offset)
	}
	return e.buf
}

func decodeLinnum(f frame, variant Variant, t *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	r := &LinnumRecord{Is32: f.Type.is32()}

	grpIdx, err := c.omfIndex()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "LINNUM:basegroup", err)
	}
	segIdx, err := c.omfIndex()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "LINNUM:baseseg", err)
	}
	r.BaseGroupIndex = grpIdx
	r.BaseSegmentIndex = segIdx

	if err := checkIndex("LINNUM:basegroup", grpIdx, len(t.grpdefs)-1); err != nil {
		return nil, nil, err
	}
	if err := checkIndex("LINNUM:baseseg", segIdx, len(t.segdefs)-1); err != nil {
		return nil, nil, err
	}

	width := offsetFieldWidth(variant, r.Is32)
	entrySize := 2 + width
	var warnings []Warning
	for c.remaining() >= entrySize {
		line, err := c.u16le()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "LINNUM:line", err)
		}
		offset, err := c.numeric(width)
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "LINNUM:offset", err)
		}
		r.Entries = append(r.Entries, LineEntry{Line: line, Offset: offset})
	}
	if c.remaining() > 0 {
		warnings = append(warnings, Warning{Kind: WarnOversizedRecord, Where: "LINNUM", Detail: "trailing bytes"})
	}

	return r, warnings, nil
}

// LinsymRecord is LINSYM (0xC4/0xC5): source line numbers anchored to
// a COMDAT symbol rather than a segment.
type LinsymRecord struct {
	Is32         bool
	Continuation bool

	SymbolNameIndex OmfIndex
	Entries         []LineEntry
}

func (r *LinsymRecord) RecordType() RecordType {
	if r.Is32 {
		return RtLINSYM32
	}
	return RtLINSYM
}

func (r *LinsymRecord) encodeBody(v Variant) []byte {
	e := &encoder{}
	var flags byte
	if r.Continuation {
		flags |= comdatContinuation
	}
	e.u8(flags)
	e.omfIndex(r.SymbolNameIndex)
	width := offsetFieldWidth(v, r.Is32)
	for _, ent := range r.Entries {
		e.u16le(ent.Line)
		e.numeric(width, ent.Offset)
	}
	return e.buf
}

func decodeLinsym(f frame, variant Variant, t *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	r := &LinsymRecord{Is32: f.Type.is32()}

	flags, err := c.u8()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "LINSYM:flags", err)
	}
	r.Continuation = flags&comdatContinuation != 0

	nameIdx, err := c.omfIndex()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "LINSYM:symbol", err)
	}
	r.SymbolNameIndex = nameIdx
	_, _ = t.lname(nameIdx)

	width := offsetFieldWidth(variant, r.Is32)
	for c.remaining() > 0 {
		line, err := c.u16le()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "LINSYM:line", err)
		}
		offset, err := c.numeric(width)
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "LINSYM:offset", err)
		}
		r.Entries = append(r.Entries, LineEntry{Line: line, Offset: offset})
	}

	return r, nil, nil
}
