package omf

// LedataRecord is LEDATA (0xA0/0xA1): a contiguous run of enumerated
// data bytes at a segment offset.
type LedataRecord struct {
	Is32 bool

	SegmentIndex OmfIndex
	Offset       uint32
	Data         []byte
}

func (r *LedataRecord) RecordType() RecordType {
	if r.Is32 {
		return RtLEDATA32
	}
	return RtLEDATA
}

func (r *LedataRecord) encodeBody(v Variant) []byte {
	e := &encoder{}
	e.omfIndex(r.SegmentIndex)
	e.numeric(offsetFieldWidth(v, r.Is32), r.Offset)
	e.bytes(r.Data)
	return e.buf
}

func decodeLedata(f frame, variant Variant, t *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	r := &LedataRecord{Is32: f.Type.is32()}

	segIdx, err := c.omfIndex()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "LEDATA:segment", err)
	}
	r.SegmentIndex = segIdx
	if err := checkIndex("LEDATA:segment", segIdx, len(t.segdefs)-1); err != nil {
		return nil, nil, err
	}

	offset, err := c.numeric(offsetFieldWidth(variant, r.Is32))
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "LEDATA:offset", err)
	}
	r.Offset = offset

	data, _ := c.bytesN(c.remaining())
	r.Data = data

	t.lastDataAnchor = f.Offset

	return r, nil, nil
}

// LidataBlock is one repeat/block-count node of an LIDATA iterated
// data tree. Exactly one of Content or Nested is
// populated: BlockCount == 0 means a literal Content run, repeated
// RepeatCount times; BlockCount > 0 means Nested holds that many
// child blocks, the whole group repeated RepeatCount times.
type LidataBlock struct {
	RepeatCount uint32
	BlockCount  uint16

	Content []byte
	Nested  []LidataBlock
}

// LidataRecord is LIDATA (0xA2/0xA3): a segment/offset anchor
// followed by a sequence of iterated data blocks.
type LidataRecord struct {
	Is32 bool

	SegmentIndex OmfIndex
	Offset       uint32
	Blocks       []LidataBlock
}

func (r *LidataRecord) RecordType() RecordType {
	if r.Is32 {
		return RtLIDATA32
	}
	return RtLIDATA
}

func (r *LidataRecord) encodeBody(v Variant) []byte {
	e := &encoder{}
	e.omfIndex(r.SegmentIndex)
	e.numeric(offsetFieldWidth(v, r.Is32), r.Offset)
	repeatWidth := lidataRepeatWidth(v, r.Is32)
	for _, blk := range r.Blocks {
		encodeLidataBlock(e, blk, repeatWidth)
	}
	return e.buf
}

func encodeLidataBlock(e *encoder, blk LidataBlock, repeatWidth int) {
	e.numeric(repeatWidth, blk.RepeatCount)
	e.u16le(blk.BlockCount)
	if blk.BlockCount == 0 {
		e.u8(byte(len(blk.Content)))
		e.bytes(blk.Content)
	} else {
		for _, nested := range blk.Nested {
			encodeLidataBlock(e, nested, repeatWidth)
		}
	}
}

func decodeLidataBlock(c *cursor, repeatWidth int) (LidataBlock, error) {
	repeatCount, err := c.numeric(repeatWidth)
	if err != nil {
		return LidataBlock{}, err
	}
	blockCount, err := c.u16le()
	if err != nil {
		return LidataBlock{}, err
	}
	blk := LidataBlock{RepeatCount: repeatCount, BlockCount: blockCount}

	if blockCount == 0 {
		n, err := c.u8()
		if err != nil {
			return LidataBlock{}, err
		}
		content, err := c.bytesN(int(n))
		if err != nil {
			return LidataBlock{}, err
		}
		blk.Content = content
		return blk, nil
	}

	for i := 0; i < int(blockCount); i++ {
		nested, err := decodeLidataBlock(c, repeatWidth)
		if err != nil {
			return LidataBlock{}, err
		}
		blk.Nested = append(blk.Nested, nested)
	}
	return blk, nil
}

func decodeLidata(f frame, variant Variant, t *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	r := &LidataRecord{Is32: f.Type.is32()}

	segIdx, err := c.omfIndex()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "LIDATA:segment", err)
	}
	r.SegmentIndex = segIdx
	if err := checkIndex("LIDATA:segment", segIdx, len(t.segdefs)-1); err != nil {
		return nil, nil, err
	}

	offset, err := c.numeric(offsetFieldWidth(variant, r.Is32))
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "LIDATA:offset", err)
	}
	r.Offset = offset

	repeatWidth := lidataRepeatWidth(variant, r.Is32)
	for c.remaining() > 0 {
		blk, err := decodeLidataBlock(c, repeatWidth)
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "LIDATA:block", err)
		}
		r.Blocks = append(r.Blocks, blk)
	}

	t.lastDataAnchor = f.Offset

	return r, nil, nil
}
