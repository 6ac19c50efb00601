package omf

// TheadrRecord is THEADR (0x80) or LHEADR (0x82): a single
// length-prefixed translator/module name.
type TheadrRecord struct {
	Type RecordType // RtTHEADR or RtLHEADR
	Name string
}

func (r *TheadrRecord) RecordType() RecordType { return r.Type }

func (r *TheadrRecord) encodeBody(Variant) []byte {
	e := &encoder{}
	e.lpName(r.Name)
	return e.buf
}

func decodeTheadr(f frame, _ Variant, _ *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	name, err := c.lpName()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "THEADR", err)
	}
	return &TheadrRecord{Type: f.Type, Name: name}, nil, nil
}

// ModendRecord is MODEND (0x8A/0x8B): module-type bits, and, if Start
// is set, a FIXUP-subrecord-shaped target specifier.
type ModendRecord struct {
	Is32 bool

	Main  bool
	Start bool
	Rel   bool // relocatable vs absolute start target

	// Only meaningful when Start is true.
	Target *FixupTarget
}

func (r *ModendRecord) RecordType() RecordType {
	if r.Is32 {
		return RtMODEND32
	}
	return RtMODEND
}

func (r *ModendRecord) encodeBody(v Variant) []byte {
	e := &encoder{}
	var b byte
	if r.Main {
		b |= 0x80
	}
	if r.Start {
		b |= 0x40
	}
	if r.Rel {
		b |= 0x01
	}
	e.u8(b)
	if r.Start && r.Target != nil {
		encodeFixupTarget(e, *r.Target, r.Is32)
	}
	return e.buf
}

func decodeModend(f frame, variant Variant, t *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	b, err := c.u8()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "MODEND", err)
	}
	r := &ModendRecord{
		Is32:  f.Type.is32(),
		Main:  b&0x80 != 0,
		Start: b&0x40 != 0,
		Rel:   b&0x01 != 0,
	}
	if r.Start {
		target, err := decodeFixupTarget(c, variant, r.Is32)
		if err != nil {
			return nil, nil, wrapError(ErrMalformedFixupp, "MODEND:target", err)
		}
		r.Target = &target
	}
	return r, nil, nil
}

// ExtdefRecord covers EXTDEF (0x8C), LEXTDEF (0xB4) and CEXTDEF
// (0xBC): a list of (name, type_index) appended to the extern table.
// For CEXTDEF, Name is resolved from an LNAME index and NameIndex
// carries the raw index for byte-exact dump.
type ExtdefRecord struct {
	Type    RecordType // RtEXTDEF, RtLEXTDEF or RtCEXTDEF
	Entries []ExtdefEntry
}

type ExtdefEntry struct {
	Name      string
	NameIndex OmfIndex // only meaningful for CEXTDEF
	TypeIndex OmfIndex
}

func (r *ExtdefRecord) RecordType() RecordType { return r.Type }

func (r *ExtdefRecord) encodeBody(Variant) []byte {
	e := &encoder{}
	for _, ent := range r.Entries {
		if r.Type == RtCEXTDEF {
			e.omfIndex(ent.NameIndex)
		} else {
			e.lpName(ent.Name)
		}
		e.omfIndex(ent.TypeIndex)
	}
	return e.buf
}

func decodeExtdef(f frame, _ Variant, t *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	r := &ExtdefRecord{Type: f.Type}
	isLocal := f.Type == RtLEXTDEF
	for c.remaining() > 0 {
		var ent ExtdefEntry
		if f.Type == RtCEXTDEF {
			idx, err := c.omfIndex()
			if err != nil {
				return nil, nil, wrapError(ErrTruncated, "CEXTDEF:name", err)
			}
			ent.NameIndex = idx
			ent.Name, _ = t.lname(idx)
		} else {
			name, err := c.lpName()
			if err != nil {
				return nil, nil, wrapError(ErrTruncated, "EXTDEF:name", err)
			}
			ent.Name = name
		}
		typeIdx, err := c.omfIndex()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "EXTDEF:type", err)
		}
		ent.TypeIndex = typeIdx
		r.Entries = append(r.Entries, ent)
		t.addExtern(externEntry{Name: ent.Name, IsLocal: isLocal, FromLName: f.Type == RtCEXTDEF})
	}
	return r, nil, nil
}

// LnamesRecord covers LNAMES (0x96) and LLNAMES (0xCA): a run of
// length-prefixed names appended to the name table.
type LnamesRecord struct {
	Type  RecordType
	Names []string
}

func (r *LnamesRecord) RecordType() RecordType { return r.Type }

func (r *LnamesRecord) encodeBody(Variant) []byte {
	e := &encoder{}
	for _, n := range r.Names {
		e.lpName(n)
	}
	return e.buf
}

func decodeLnames(f frame, _ Variant, t *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	r := &LnamesRecord{Type: f.Type}
	for c.remaining() > 0 {
		name, err := c.lpName()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "LNAMES", err)
		}
		r.Names = append(r.Names, name)
		t.addLName(name)
	}
	return r, nil, nil
}

// AliasRecord is ALIAS (0xC6): repeated (alias_name, substitute_name)
// pairs.
type AliasRecord struct {
	Aliases []AliasEntry
}

type AliasEntry struct {
	Alias      string
	Substitute string
}

func (r *AliasRecord) RecordType() RecordType { return RtALIAS }

func (r *AliasRecord) encodeBody(Variant) []byte {
	e := &encoder{}
	for _, a := range r.Aliases {
		e.lpName(a.Alias)
		e.lpName(a.Substitute)
	}
	return e.buf
}

func decodeAlias(f frame, _ Variant, _ *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	r := &AliasRecord{}
	for c.remaining() > 0 {
		alias, err := c.lpName()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "ALIAS:alias", err)
		}
		subst, err := c.lpName()
		if err != nil {
			return nil, nil, wrapError(ErrTruncated, "ALIAS:substitute", err)
		}
		r.Aliases = append(r.Aliases, AliasEntry{Alias: alias, Substitute: subst})
	}
	return r, nil, nil
}

// VernumRecord is VERNUM (0xCC): a dot-separated version string
// "TIS.vendor.vendorversion".
type VernumRecord struct {
	Version string
}

func (r *VernumRecord) RecordType() RecordType { return RtVERNUM }

func (r *VernumRecord) encodeBody(Variant) []byte {
	e := &encoder{}
	e.lpName(r.Version)
	return e.buf
}

func decodeVernum(f frame, _ Variant, _ *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	v, err := c.lpName()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "VERNUM", err)
	}
	var warnings []Warning
	if parts := splitVersion(v); len(parts) >= 3 && parts[1] != "0" {
		warnings = append(warnings, Warning{Kind: WarnUnknownVendorExtension, Where: "VERNUM", Detail: parts[1]})
	}
	return &VernumRecord{Version: v}, warnings, nil
}

func splitVersion(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// VendextRecord is VENDEXT (0xCE): a vendor number and opaque payload.
type VendextRecord struct {
	VendorNumber uint16
	Extension    []byte
}

func (r *VendextRecord) RecordType() RecordType { return RtVENDEXT }

func (r *VendextRecord) encodeBody(Variant) []byte {
	e := &encoder{}
	e.u16le(r.VendorNumber)
	e.bytes(r.Extension)
	return e.buf
}

func decodeVendext(f frame, _ Variant, _ *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	num, err := c.u16le()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "VENDEXT", err)
	}
	ext, _ := c.bytesN(c.remaining())
	return &VendextRecord{VendorNumber: num, Extension: ext}, nil, nil
}

// OpaqueRecord is the catch-all for record types this repo recognizes
// by type byte only and preserves verbatim: obsolete Appendix-3/Intel
// library records, and any other byte-for-byte passthrough.
type OpaqueRecord struct {
	Type RecordType
	Raw  []byte
}

func (r *OpaqueRecord) RecordType() RecordType { return r.Type }

func (r *OpaqueRecord) encodeBody(Variant) []byte {
	return append([]byte(nil), r.Raw...)
}

func decodeOpaque(f frame, _ Variant, _ *tables) (Record, []Warning, error) {
	return &OpaqueRecord{Type: f.Type, Raw: append([]byte(nil), f.Body...)}, nil, nil
}
