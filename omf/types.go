package omf

// RecordType is the raw record-type byte read off the wire. Its least
// significant bit selects the 16-bit vs 32-bit encoding for each
// record type's numeric fields — NBKPAT is the one documented
// exception (see codec_bakpat.go).
type RecordType byte

const (
	RtRHEADR  RecordType = 0x6E // obsolete, preserved opaque
	RtREGINT  RecordType = 0x70
	RtREDATA  RecordType = 0x72
	RtRIDATA  RecordType = 0x74
	RtOVLDEF  RecordType = 0x76
	RtENDREC  RecordType = 0x78
	RtBLKDEF  RecordType = 0x7A
	RtBLKEND  RecordType = 0x7C
	RtDEBSYM  RecordType = 0x7E

	RtTHEADR RecordType = 0x80
	RtLHEADR RecordType = 0x82
	RtPEDATA RecordType = 0x84 // obsolete
	RtPIDATA RecordType = 0x86 // obsolete
	RtCOMENT RecordType = 0x88
	RtMODEND RecordType = 0x8A
	RtMODEND32 RecordType = 0x8B
	RtEXTDEF RecordType = 0x8C
	RtTYPDEF RecordType = 0x8E // obsolete, preserved opaque

	RtPUBDEF   RecordType = 0x90
	RtPUBDEF32 RecordType = 0x91
	RtLOCSYM   RecordType = 0x92 // obsolete
	RtLINNUM   RecordType = 0x94
	RtLINNUM32 RecordType = 0x95
	RtLNAMES   RecordType = 0x96
	RtSEGDEF   RecordType = 0x98
	RtSEGDEF32 RecordType = 0x99
	RtGRPDEF   RecordType = 0x9A
	RtFIXUPP   RecordType = 0x9C
	RtFIXUPP32 RecordType = 0x9D

	RtLEDATA   RecordType = 0xA0
	RtLEDATA32 RecordType = 0xA1
	RtLIDATA   RecordType = 0xA2
	RtLIDATA32 RecordType = 0xA3

	RtLIBHED RecordType = 0xA4 // obsolete Intel library record (distinct
	RtLIBNAM RecordType = 0xA6 // namespace from COMENT sub-classes of the
	RtLIBLOC RecordType = 0xA8 // same hex value)
	RtLIBDIC RecordType = 0xAA

	RtCOMDEF   RecordType = 0xB0
	RtBAKPAT   RecordType = 0xB2
	RtBAKPAT32 RecordType = 0xB3
	RtLEXTDEF  RecordType = 0xB4
	RtLPUBDEF   RecordType = 0xB6
	RtLPUBDEF32 RecordType = 0xB7
	RtLCOMDEF   RecordType = 0xB8
	RtCEXTDEF   RecordType = 0xBC

	RtCOMDAT   RecordType = 0xC2
	RtCOMDAT32 RecordType = 0xC3
	RtLINSYM   RecordType = 0xC4
	RtLINSYM32 RecordType = 0xC5
	RtALIAS    RecordType = 0xC6
	RtNBKPAT   RecordType = 0xC8 // 32-bit form; see codec_bakpat.go
	RtNBKPAT32 RecordType = 0xC9 // 16-bit form; inverted LSB rule
	RtLLNAMES  RecordType = 0xCA
	RtVERNUM   RecordType = 0xCC
	RtVENDEXT  RecordType = 0xCE

	RtLibraryHeader RecordType = 0xF0
	RtLibraryEnd    RecordType = 0xF1
	RtExtendedDict  RecordType = 0xF2
)

// obsoleteRecordTypes are recognized by type byte and preserved
// verbatim; their fields are never interpreted.
var obsoleteRecordTypes = map[RecordType]bool{
	RtRHEADR: true, RtREGINT: true, RtREDATA: true, RtRIDATA: true,
	RtOVLDEF: true, RtENDREC: true, RtBLKDEF: true, RtBLKEND: true,
	RtDEBSYM: true, RtPEDATA: true, RtPIDATA: true, RtTYPDEF: true,
	RtLOCSYM: true, RtLIBHED: true, RtLIBNAM: true, RtLIBLOC: true,
	RtLIBDIC: true,
}

// is32 reports the dual-form width selected by a record's type byte,
// honoring the NBKPAT inversion.
func (rt RecordType) is32() bool {
	if rt == RtNBKPAT {
		return true
	}
	if rt == RtNBKPAT32 {
		return false
	}
	return rt&1 == 1
}

func (rt RecordType) widthBytes() int {
	if rt.is32() {
		return 4
	}
	return 2
}

// Record is the tagged-union interface every decoded record kind
// implements. Concrete types live alongside their codec.
type Record interface {
	RecordType() RecordType
	// encodeBody renders the record body (everything between the
	// length field and the checksum byte) for the given variant.
	encodeBody(v Variant) []byte
}

// Variant is the file-level OMF dialect.
type Variant int

const (
	TisOmf86 Variant = iota
	EasyOmf386
	OmfWithMsExt
)

func (v Variant) String() string {
	switch v {
	case TisOmf86:
		return "TisOmf86"
	case EasyOmf386:
		return "EasyOmf386"
	case OmfWithMsExt:
		return "OmfWithMsExt"
	default:
		return "Unknown"
	}
}
