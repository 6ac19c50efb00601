package omf

// COMDAT flags byte bits.
const (
	comdatContinuation = 0x01
	comdatIterated     = 0x02
	comdatLocal        = 0x04
	comdatDataInCode   = 0x08
)

// ComdatSelection is the COMDAT attribute byte's selection field.
type ComdatSelection byte

const (
	ComdatSelectNoMatch   ComdatSelection = 0
	ComdatSelectPickAny   ComdatSelection = 1
	ComdatSelectSameSize  ComdatSelection = 2
	ComdatSelectExactMatch ComdatSelection = 3
)

// ComdatAllocation is the COMDAT attribute byte's allocation field.
// Explicit (0) carries a base group/segment pair, followed by a 2-byte
// absolute frame only when both indices are 0 (PUBDEF, by contrast,
// reads its frame whenever the segment index is 0); the others are
// implicit segments.
type ComdatAllocation byte

const (
	ComdatAllocExplicit ComdatAllocation = 0
	ComdatAllocFarCode  ComdatAllocation = 1
	ComdatAllocFarData  ComdatAllocation = 2
	ComdatAllocCode32   ComdatAllocation = 3
	ComdatAllocData32   ComdatAllocation = 4
)

// ComdatAlign mirrors SegAlign's encoding, one byte wide here instead
// of packed into an ACBP field.
type ComdatAlign byte

// ComdatRecord is COMDAT (0xC2/0xC3): an initialized communal data
// definition, optionally continued from a prior COMDAT of the same
// name and optionally iterated.
type ComdatRecord struct {
	Is32 bool

	Continuation bool
	Iterated     bool
	Local        bool
	DataInCode   bool

	Selection  ComdatSelection
	Allocation ComdatAllocation
	Align      ComdatAlign

	EnumeratedOffset uint32
	TypeIndex        OmfIndex

	// Only present when Allocation == ComdatAllocExplicit.
	BaseGroupIndex   OmfIndex
	BaseSegmentIndex OmfIndex
	AbsoluteFrame    uint16

	SymbolNameIndex OmfIndex

	// Exactly one of Data or Blocks is populated, selected by Iterated.
	Data   []byte
	Blocks []LidataBlock
}

func (r *ComdatRecord) RecordType() RecordType {
	if r.Is32 {
		return RtCOMDAT32
	}
	return RtCOMDAT
}

func (r *ComdatRecord) encodeBody(v Variant) []byte {
	e := &encoder{}

	var flags byte
	if r.Continuation {
		flags |= comdatContinuation
	}
	if r.Iterated {
		flags |= comdatIterated
	}
	if r.Local {
		flags |= comdatLocal
	}
	if r.DataInCode {
		flags |= comdatDataInCode
	}
	e.u8(flags)

	attrib := (byte(r.Selection) << 4) | byte(r.Allocation)
	e.u8(attrib)
	e.u8(byte(r.Align))

	e.numeric(offsetFieldWidth(v, r.Is32), r.EnumeratedOffset)
	e.omfIndex(r.TypeIndex)

	if r.Allocation == ComdatAllocExplicit {
		e.omfIndex(r.BaseGroupIndex)
		e.omfIndex(r.BaseSegmentIndex)
		if r.BaseSegmentIndex == 0 && r.BaseGroupIndex == 0 {
			e.numeric(2, uint32(r.AbsoluteFrame))
		}
	}

	e.omfIndex(r.SymbolNameIndex)

	if r.Iterated {
		repeatWidth := lidataRepeatWidth(v, r.Is32)
		for _, blk := range r.Blocks {
			encodeLidataBlock(e, blk, repeatWidth)
		}
	} else {
		e.bytes(r.Data)
	}

	return e.buf
}

func decodeComdat(f frame, variant Variant, t *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	r := &ComdatRecord{Is32: f.Type.is32()}

	flags, err := c.u8()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "COMDAT:flags", err)
	}
	r.Continuation = flags&comdatContinuation != 0
	r.Iterated = flags&comdatIterated != 0
	r.Local = flags&comdatLocal != 0
	r.DataInCode = flags&comdatDataInCode != 0

	attrib, err := c.u8()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "COMDAT:attrib", err)
	}
	r.Selection = ComdatSelection((attrib >> 4) & 0xF)
	r.Allocation = ComdatAllocation(attrib & 0xF)

	align, err := c.u8()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "COMDAT:align", err)
	}
	r.Align = ComdatAlign(align)

	offset, err := c.numeric(offsetFieldWidth(variant, r.Is32))
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "COMDAT:offset", err)
	}
	r.EnumeratedOffset = offset

	typeIdx, err := c.omfIndex()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "COMDAT:type", err)
	}
	r.TypeIndex = typeIdx

	if r.Allocation == ComdatAllocExplicit {
		grpIdx, err := c.omfIndex()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "COMDAT:basegroup", err)
		}
		segIdx, err := c.omfIndex()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "COMDAT:baseseg", err)
		}
		r.BaseGroupIndex = grpIdx
		r.BaseSegmentIndex = segIdx
		if err := checkIndex("COMDAT:basegroup", grpIdx, len(t.grpdefs)-1); err != nil {
			return nil, nil, err
		}
		if err := checkIndex("COMDAT:baseseg", segIdx, len(t.segdefs)-1); err != nil {
			return nil, nil, err
		}
		if segIdx == 0 && grpIdx == 0 {
			frameVal, err := c.numeric(2)
			if err != nil {
				return nil, nil, wrapError(ErrTruncated, "COMDAT:frame", err)
			}
			r.AbsoluteFrame = uint16(frameVal)
		}
	}

	nameIdx, err := c.omfIndex()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "COMDAT:symbol", err)
	}
	r.SymbolNameIndex = nameIdx

	if r.Iterated {
		repeatWidth := lidataRepeatWidth(variant, r.Is32)
		for c.remaining() > 0 {
			blk, err := decodeLidataBlock(c, repeatWidth)
			if err != nil {
				return nil, nil, wrapError(ErrTruncated, "COMDAT:block", err)
			}
			r.Blocks = append(r.Blocks, blk)
		}
	} else {
		data, _ := c.bytesN(c.remaining())
		r.Data = data
	}

	t.lastDataAnchor = f.Offset

	return r, nil, nil
}
