package omf

// detectModuleVariant runs the ordered variant-detection rules over a
// single module's byte range, without decoding record bodies beyond
// the COMENT type/class/payload needed to tell variants apart.
func detectModuleVariant(data []byte) (Variant, error) {
	c := newCursor(data)
	first := true
	sawLinkPassSeparator := false

	for c.remaining() > 0 {
		f, err := readFrame(c, nil)
		if err != nil {
			return TisOmf86, err
		}

		if first {
			first = false
			if f.Type == RtTHEADR || f.Type == RtLHEADR {
				if v, ok := peekEasyOmf386(c, data); ok {
					return v, nil
				}
			}
		}

		if f.Type == RtCOMENT && len(f.Body) >= 2 {
			class := f.Body[1]
			if class == CommentClassLinkPassSep {
				sawLinkPassSeparator = true
			}
			if class == CommentClassNewOmfExtension && !sawLinkPassSeparator {
				return OmfWithMsExt, nil
			}
		}

		if f.Type == RtMODEND || f.Type == RtMODEND32 {
			break
		}
	}

	return TisOmf86, nil
}

// peekEasyOmf386 looks at the record immediately following the one the
// cursor just consumed (i.e. the second record of the module) to see
// whether it is the Easy OMF-386 marker COMENT, without disturbing c.
func peekEasyOmf386(c *cursor, data []byte) (Variant, bool) {
	probe := &cursor{data: data, pos: c.pos}
	f, err := readFrame(probe, nil)
	if err != nil {
		return TisOmf86, false
	}
	if f.Type != RtCOMENT || len(f.Body) < 2 {
		return TisOmf86, false
	}
	class := f.Body[1]
	if class != CommentClassEasyOmf {
		return TisOmf86, false
	}
	payload := f.Body[2:]
	if string(payload) == "80386" {
		return EasyOmf386, true
	}
	return TisOmf86, false
}

// offsetFieldWidth returns the width, in bytes, of offset/displacement
// /length fields for a record of the given 16-vs-32-bit-ness under
// variant. Easy OMF-386 always uses 4 bytes regardless of record type.
func offsetFieldWidth(variant Variant, is32 bool) int {
	if variant == EasyOmf386 {
		return 4
	}
	if is32 {
		return 4
	}
	return 2
}

// lidataRepeatWidth returns the width of an LIDATA/COMDAT repeat-count
// field. Easy OMF-386 keeps this at 2 bytes even for the 32-bit record
// type, the one field its "always 4 bytes" rule does not touch.
func lidataRepeatWidth(variant Variant, is32 bool) int {
	if variant == EasyOmf386 {
		return 2
	}
	if is32 {
		return 4
	}
	return 2
}

// isLibraryHeader reports whether data begins with a library header
// and, if so, returns its page size.
func isLibraryHeader(data []byte) (pageSize int, ok bool) {
	if len(data) < 3 || data[0] != byte(RtLibraryHeader) {
		return 0, false
	}
	length := int(data[1]) | int(data[2])<<8
	pageSize = length + 3
	if pageSize < 16 || pageSize > 32768 {
		return 0, false
	}
	if pageSize&(pageSize-1) != 0 {
		return 0, false
	}
	return pageSize, true
}
