package omf

// frame is one (type, length, body, checksum) triple as read off the
// wire, before body decoding.
type frame struct {
	Type     RecordType
	Length   uint16 // as stored on the wire (body length + 1)
	Body     []byte // length-1 bytes: the body, excluding the checksum
	Checksum byte
	Offset   int // file offset of the Type byte, for diagnostics
}

// maxStandardRecordLength is the per-record maximum; LEDATA/LIDATA
// data blocks, library headers and COMDAT are exempt.
const maxStandardRecordLength = 1024

var recordsExemptFromSizeLimit = map[RecordType]bool{
	RtLEDATA: true, RtLEDATA32: true,
	RtLIDATA: true, RtLIDATA32: true,
	RtCOMDAT: true, RtCOMDAT32: true,
	RtLibraryHeader: true,
}

// readFrame reads one frame starting at c.pos. warn is invoked (if
// non-nil) for BadChecksum/OversizedRecord diagnostics; frame reading
// itself never fails on those, only on truncation.
func readFrame(c *cursor, warn func(Warning)) (frame, error) {
	start := c.pos
	rt, err := c.u8()
	if err != nil {
		return frame{}, wrapError(ErrTruncated, "frame:type", err)
	}
	length, err := c.u16le()
	if err != nil {
		return frame{}, wrapError(ErrTruncated, "frame:length", err)
	}
	if length == 0 {
		return frame{}, newError(ErrTruncated, "frame:zero-length")
	}
	bodyLen := int(length) - 1
	body, err := c.bytesN(bodyLen)
	if err != nil {
		return frame{}, wrapError(ErrTruncated, "frame:body", err)
	}
	checksum, err := c.u8()
	if err != nil {
		return frame{}, wrapError(ErrTruncated, "frame:checksum", err)
	}

	f := frame{Type: RecordType(rt), Length: length, Body: body, Checksum: checksum, Offset: start}

	if warn != nil {
		if checksum != 0 {
			sum := rt + byte(length) + byte(length>>8)
			for _, b := range body {
				sum += b
			}
			sum += checksum
			if sum != 0 {
				warn(Warning{Kind: WarnBadChecksum, Where: recordTypeName(f.Type)})
			}
		}
		if int(length) > maxStandardRecordLength && !recordsExemptFromSizeLimit[f.Type] {
			warn(Warning{Kind: WarnOversizedRecord, Where: recordTypeName(f.Type)})
		}
	}

	return f, nil
}

// writeFrame renders a frame back to bytes, computing a conforming
// checksum: the sum of every byte in the frame mod 256 is always 0.
func writeFrame(rt RecordType, body []byte) []byte {
	length := uint16(len(body) + 1)
	e := &encoder{}
	e.u8(byte(rt))
	e.u16le(length)
	e.bytes(body)

	var sum byte
	for _, b := range e.buf {
		sum += b
	}
	checksum := byte(0) - sum
	e.u8(checksum)
	return e.buf
}

// moduleState is the record-framer state machine.
type moduleState int

const (
	stateIdle moduleState = iota
	stateInModule
)
