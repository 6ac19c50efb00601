package omf

// Module is one parsed OMF object module: a THEADR/LHEADR through its
// matching MODEND, decoded into an ordered Record slice plus the
// warnings collected along the way.
type Module struct {
	Variant  Variant
	Records  []Record
	Warnings []Warning
}

type decodeFunc func(f frame, variant Variant, t *tables) (Record, []Warning, error)

// decoders dispatches on the raw record-type byte. Obsolete and
// not-otherwise-recognized types fall through to decodeOpaque via the
// zero value lookup in ParseModule.
var decoders = map[RecordType]decodeFunc{
	RtTHEADR: decodeTheadr,
	RtLHEADR: decodeTheadr,

	RtMODEND:   decodeModend,
	RtMODEND32: decodeModend,

	RtEXTDEF:  decodeExtdef,
	RtLEXTDEF: decodeExtdef,
	RtCEXTDEF: decodeExtdef,

	RtLNAMES:  decodeLnames,
	RtLLNAMES: decodeLnames,

	RtSEGDEF:   decodeSegdef,
	RtSEGDEF32: decodeSegdef,
	RtGRPDEF:   decodeGrpdef,

	RtFIXUPP:   decodeFixuppDispatch,
	RtFIXUPP32: decodeFixuppDispatch,

	RtPUBDEF:    decodePubdef,
	RtPUBDEF32:  decodePubdef,
	RtLPUBDEF:   decodePubdef,
	RtLPUBDEF32: decodePubdef,

	RtCOMDEF:  decodeComdef,
	RtLCOMDEF: decodeComdef,

	RtLEDATA:   decodeLedata,
	RtLEDATA32: decodeLedata,
	RtLIDATA:   decodeLidata,
	RtLIDATA32: decodeLidata,

	RtCOMDAT:   decodeComdat,
	RtCOMDAT32: decodeComdat,

	RtBAKPAT:   decodeBakpat,
	RtBAKPAT32: decodeBakpat,
	RtNBKPAT:   decodeNbkpat,
	RtNBKPAT32: decodeNbkpat,

	RtLINNUM:   decodeLinnum,
	RtLINNUM32: decodeLinnum,
	RtLINSYM:   decodeLinsym,
	RtLINSYM32: decodeLinsym,

	RtALIAS:   decodeAlias,
	RtVERNUM:  decodeVernum,
	RtVENDEXT: decodeVendext,
	RtCOMENT:  decodeComent,
}

// decodeFixuppDispatch forwards to decodeFixupp, whose signature
// already matches decodeFunc.
func decodeFixuppDispatch(f frame, variant Variant, t *tables) (Record, []Warning, error) {
	return decodeFixupp(f, variant, t)
}

// ParseModule decodes a single module (THEADR/LHEADR .. MODEND) from
// the front of data. It returns the module and the number of bytes
// consumed, so ParseLibrary can advance past it.
func ParseModule(data []byte) (*Module, int, error) {
	variant, err := detectModuleVariant(data)
	if err != nil {
		return nil, 0, err
	}

	m := &Module{Variant: variant}
	t := newTables()
	c := newCursor(data)
	state := stateIdle

	for c.remaining() > 0 {
		f, err := readFrame(c, func(w Warning) { m.Warnings = append(m.Warnings, w) })
		if err != nil {
			return nil, c.pos, err
		}

		if state == stateIdle && f.Type != RtTHEADR && f.Type != RtLHEADR {
			return nil, c.pos, newError(ErrUnexpectedRecordType, "module:first-record")
		}
		if state == stateInModule && (f.Type == RtTHEADR || f.Type == RtLHEADR) {
			return nil, c.pos, newError(ErrUnexpectedRecordType, "module:repeated-header")
		}
		state = stateInModule

		dec := decoders[f.Type]
		if dec == nil {
			dec = decodeOpaque
		}

		rec, warnings, err := dec(f, variant, t)
		if err != nil {
			return nil, c.pos, err
		}
		m.Records = append(m.Records, rec)
		m.Warnings = append(m.Warnings, warnings...)

		if f.Type == RtMODEND || f.Type == RtMODEND32 {
			state = stateIdle
			break
		}
	}

	return m, c.pos, nil
}

// DumpModule renders m back to its wire form. Byte-exact round trip
// requires m.Records to be exactly what ParseModule produced, with
// any edits preserving table and index consistency.
func DumpModule(m *Module) []byte {
	var out []byte
	for _, rec := range m.Records {
		body := rec.encodeBody(m.Variant)
		out = append(out, writeFrame(rec.RecordType(), body)...)
	}
	return out
}
