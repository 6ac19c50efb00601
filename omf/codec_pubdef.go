package omf

// PubdefSymbol is one (name, offset, type_index) triple in a PUBDEF
// body.
type PubdefSymbol struct {
	Name      string
	Offset    uint32
	TypeIndex OmfIndex
}

// PubdefRecord covers PUBDEF (0x90/0x91) and LPUBDEF (0xB6/0xB7): a
// base group/segment pair (or absolute frame, if BaseSegment is 0)
// followed by a run of public symbol definitions.
type PubdefRecord struct {
	Type    RecordType
	IsLocal bool

	BaseGroupIndex   OmfIndex
	BaseSegmentIndex OmfIndex
	// Only present when BaseSegmentIndex == 0.
	AbsoluteFrame uint16

	Symbols []PubdefSymbol
}

func (r *PubdefRecord) RecordType() RecordType { return r.Type }

func (r *PubdefRecord) is32() bool { return r.Type.is32() }

func (r *PubdefRecord) encodeBody(v Variant) []byte {
	e := &encoder{}
	e.omfIndex(r.BaseGroupIndex)
	e.omfIndex(r.BaseSegmentIndex)
	if r.BaseSegmentIndex == 0 {
		e.numeric(2, uint32(r.AbsoluteFrame))
	}
	width := offsetFieldWidth(v, r.is32())
	for _, s := range r.Symbols {
		e.lpName(s.Name)
		e.numeric(width, s.Offset)
		e.omfIndex(s.TypeIndex)
	}
	return e.buf
}

func decodePubdef(f frame, variant Variant, t *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	r := &PubdefRecord{
		Type:    f.Type,
		IsLocal: f.Type == RtLPUBDEF || f.Type == RtLPUBDEF32,
	}

	grpIdx, err := c.omfIndex()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "PUBDEF:basegroup", err)
	}
	segIdx, err := c.omfIndex()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "PUBDEF:baseseg", err)
	}
	r.BaseGroupIndex = grpIdx
	r.BaseSegmentIndex = segIdx

	if err := checkIndex("PUBDEF:basegroup", grpIdx, len(t.grpdefs)-1); err != nil {
		return nil, nil, err
	}
	if err := checkIndex("PUBDEF:baseseg", segIdx, len(t.segdefs)-1); err != nil {
		return nil, nil, err
	}

	if segIdx == 0 {
		frameVal, err := c.numeric(2)
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "PUBDEF:frame", err)
		}
		r.AbsoluteFrame = uint16(frameVal)
	}

	width := offsetFieldWidth(variant, r.is32())
	for c.remaining() > 0 {
		name, err := c.lpName()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "PUBDEF:name", err)
		}
		offset, err := c.numeric(width)
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "PUBDEF:offset", err)
		}
		typeIdx, err := c.omfIndex()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "PUBDEF:type", err)
		}
		r.Symbols = append(r.Symbols, PubdefSymbol{Name: name, Offset: offset, TypeIndex: typeIdx})
	}

	return r, nil, nil
}

// ComdefDataType is the COMDEF entry's data-type byte.
type ComdefDataType byte

const (
	ComdefFar         ComdefDataType = 0x61
	ComdefNear        ComdefDataType = 0x62
	comdefBorlandMax  ComdefDataType = 0x5F
)

// ComdefEntry is one communal variable definition. For ComdefFar,
// NumElements and ElementSize are both populated and Length is their
// product; for every other data type only Length is populated.
type ComdefEntry struct {
	Name      string
	TypeIndex OmfIndex
	DataType  ComdefDataType

	NumElements uint32
	ElementSize uint32

	Length uint32
}

// ComdefRecord covers COMDEF (0xB0) and LCOMDEF (0xB8): a run of
// communal variable definitions, each appended to the extern table.
type ComdefRecord struct {
	IsLocal bool
	Entries []ComdefEntry
}

func (r *ComdefRecord) RecordType() RecordType {
	if r.IsLocal {
		return RtLCOMDEF
	}
	return RtCOMDEF
}

func (r *ComdefRecord) encodeBody(Variant) []byte {
	e := &encoder{}
	for _, ent := range r.Entries {
		e.lpName(ent.Name)
		e.omfIndex(ent.TypeIndex)
		e.u8(byte(ent.DataType))
		if ent.DataType == ComdefFar {
			e.varLen(ent.NumElements)
			e.varLen(ent.ElementSize)
		} else {
			e.varLen(ent.Length)
		}
	}
	return e.buf
}

func decodeComdef(f frame, _ Variant, t *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	r := &ComdefRecord{IsLocal: f.Type == RtLCOMDEF}

	for c.remaining() > 0 {
		name, err := c.lpName()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "COMDEF:name", err)
		}
		typeIdx, err := c.omfIndex()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "COMDEF:type", err)
		}
		dtByte, err := c.u8()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "COMDEF:datatype", err)
		}
		ent := ComdefEntry{Name: name, TypeIndex: typeIdx, DataType: ComdefDataType(dtByte)}

		switch ent.DataType {
		case ComdefFar:
			n, err := c.varLen()
			if err != nil {
				return nil, nil, wrapError(ErrTruncated, "COMDEF:numelements", err)
			}
			sz, err := c.varLen()
			if err != nil {
				return nil, nil, wrapError(ErrTruncated, "COMDEF:elementsize", err)
			}
			ent.NumElements = n
			ent.ElementSize = sz
			ent.Length = n * sz
		default:
			length, err := c.varLen()
			if err != nil {
				return nil, nil, wrapError(ErrTruncated, "COMDEF:length", err)
			}
			ent.Length = length
		}

		r.Entries = append(r.Entries, ent)
		t.addExtern(externEntry{Name: name, IsLocal: r.IsLocal, IsComm: true})
	}

	return r, nil, nil
}
