package omf

import "fmt"

// COMENT flags byte bits.
const (
	comentNoPurge = 0x40
	comentNoList  = 0x80
)

// Comment class bytes this repo recognizes by name. Every class keeps
// its payload on CommentRecord; only 0xA0 and 0xFE get a decoded field
// beyond it.
const (
	CommentClassTranslator      = 0x00
	CommentClassIntelCopyright  = 0x01
	CommentClassMemoryModel     = 0x9D
	CommentClassDefaultLibSearch = 0x9F
	CommentClassOmfExtensions   = 0xA0
	CommentClassNewOmfExtension = 0xA1
	CommentClassLinkPassSep     = 0xA2
	CommentClassLibMod          = 0xA3
	CommentClassExeStr          = 0xA4
	CommentClassIncErr          = 0xA6
	CommentClassNoPad           = 0xA7
	CommentClassWkExt           = 0xA8
	CommentClassLzExt           = 0xA9
	CommentClassEasyOmf         = 0xAA
	CommentClassComment         = 0xDA
	CommentClassCompiler        = 0xDB
	CommentClassDate            = 0xDC
	CommentClassTimestamp       = 0xDD
	CommentClassUser            = 0xDF
	CommentClassBorlandDependency = 0xE9
	CommentClassWatcomDisasm    = 0xFD
	CommentClassWatcomLinkerDirective = 0xFE // layout undocumented; see DESIGN.md
	CommentClassCommandLine     = 0xFF
)

// CommentA0Subtype is the selector byte of a class-0xA0 OMF Extension
// comment.
type CommentA0Subtype byte

const (
	A0Impdef              CommentA0Subtype = 0x01
	A0Expdef              CommentA0Subtype = 0x02
	A0Incdef              CommentA0Subtype = 0x03
	A0ProtectedMemoryLibrary CommentA0Subtype = 0x04
	A0Lnkdir              CommentA0Subtype = 0x05
	A0BigEndian           CommentA0Subtype = 0x06
	A0Precomp             CommentA0Subtype = 0x07
)

// WatcomLinkerDirectiveCode is the selector byte of a class-0xFE
// Watcom/Microsoft linker-directive comment. No byte layout for any of
// these sub-types survives in the retrieved reference decoder, so only
// the selector byte itself is decoded (see DESIGN.md); everything past
// it stays in Payload.
type WatcomLinkerDirectiveCode byte

const (
	WatcomDirectiveDefaultLib    WatcomLinkerDirectiveCode = 'D'
	WatcomDirectiveLibrary       WatcomLinkerDirectiveCode = 'L'
	WatcomDirectiveOption        WatcomLinkerDirectiveCode = 'O'
	WatcomDirectiveUser          WatcomLinkerDirectiveCode = 'U'
	WatcomDirectiveVersion       WatcomLinkerDirectiveCode = 'V'
	WatcomDirectivePragma        WatcomLinkerDirectiveCode = 'P'
	WatcomDirectiveRuntime       WatcomLinkerDirectiveCode = 'R'
	WatcomDirectiveSeven         WatcomLinkerDirectiveCode = '7'
	WatcomDirectiveFar           WatcomLinkerDirectiveCode = 'F'
	WatcomDirectiveType          WatcomLinkerDirectiveCode = 'T'
)

// CommentRecord is COMENT (0x88): a flags byte, a class byte, and a
// class-specific payload. Every class is preserved
// byte-exact in Payload; classes this repo recognizes additionally
// get a decoded view in one of the optional typed fields.
type CommentRecord struct {
	NoPurge bool
	NoList  bool
	Class   byte
	Payload []byte

	// Populated only when Class == CommentClassOmfExtensions.
	A0Subtype    CommentA0Subtype
	HasA0Subtype bool

	// Populated only when Class == CommentClassWatcomLinkerDirective.
	WatcomDirective    WatcomLinkerDirectiveCode
	HasWatcomDirective bool
}

func (r *CommentRecord) RecordType() RecordType { return RtCOMENT }

func (r *CommentRecord) encodeBody(Variant) []byte {
	e := &encoder{}
	var flags byte
	if r.NoPurge {
		flags |= comentNoPurge
	}
	if r.NoList {
		flags |= comentNoList
	}
	e.u8(flags)
	e.u8(r.Class)
	e.bytes(r.Payload)
	return e.buf
}

func decodeComent(f frame, _ Variant, _ *tables) (Record, []Warning, error) {
	c := newCursor(f.Body)
	flags, err := c.u8()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "COMENT:flags", err)
	}
	class, err := c.u8()
	if err != nil {
		return nil, nil, wrapError(ErrTruncated, "COMENT:class", err)
	}
	payload, _ := c.bytesN(c.remaining())

	r := &CommentRecord{
		NoPurge: flags&comentNoPurge != 0,
		NoList:  flags&comentNoList != 0,
		Class:   class,
		Payload: payload,
	}

	var warnings []Warning
	switch class {
	case CommentClassOmfExtensions:
		if len(payload) >= 1 {
			r.A0Subtype = CommentA0Subtype(payload[0])
			r.HasA0Subtype = true
		}
	case CommentClassWatcomLinkerDirective:
		// Only the sub-type selector byte is decoded; the rest of the
		// Watcom/MS linker-directive payload is kept opaque since no
		// reference decoder for it survives.
		if len(payload) >= 1 {
			r.WatcomDirective = WatcomLinkerDirectiveCode(payload[0])
			r.HasWatcomDirective = true
		}
		warnings = append(warnings, Warning{Kind: WarnUnknownCommentSubtype, Where: "COMENT", Detail: "0xFE"})
	case CommentClassWatcomDisasm:
		warnings = append(warnings, Warning{Kind: WarnUnknownCommentSubtype, Where: "COMENT", Detail: "0xFD"})
	default:
		if name, known := commentClassNames[class]; known {
			_ = name
		} else {
			warnings = append(warnings, Warning{Kind: WarnUnknownVendorExtension, Where: "COMENT", Detail: fmt.Sprintf("class 0x%02X", class)})
		}
	}

	return r, warnings, nil
}

var commentClassNames = map[byte]string{
	CommentClassTranslator:       "Translator",
	CommentClassIntelCopyright:   "Intel Copyright",
	CommentClassMemoryModel:      "Memory Model",
	CommentClassDefaultLibSearch: "Default Library Search",
	CommentClassOmfExtensions:    "OMF Extensions",
	CommentClassNewOmfExtension:  "New OMF Extension",
	CommentClassLinkPassSep:      "Link Pass Separator",
	CommentClassLibMod:           "LIBMOD",
	CommentClassExeStr:           "EXESTR",
	CommentClassIncErr:           "INCERR",
	CommentClassNoPad:            "NOPAD",
	CommentClassWkExt:            "WKEXT",
	CommentClassLzExt:            "LZEXT",
	CommentClassEasyOmf:          "Easy OMF",
	CommentClassComment:          "Comment",
	CommentClassCompiler:         "Compiler",
	CommentClassDate:             "Date",
	CommentClassTimestamp:        "Timestamp",
	CommentClassUser:             "User",
	CommentClassBorlandDependency: "Dependency File (Borland)",
	CommentClassWatcomDisasm:     "Watcom Disassembler Directive",
	CommentClassWatcomLinkerDirective: "Watcom/MS Linker Directive",
	CommentClassCommandLine:      "Command Line (QuickC)",
}
