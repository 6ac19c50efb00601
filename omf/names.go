package omf

import "fmt"

// recordTypeNames mirrors the RECORD_NAMES table from the TIS OMF 1.1
// appendix, plus the vendor extensions this package decodes; used
// only for diagnostics, never for dispatch.
var recordTypeNames = map[RecordType]string{
	RtRHEADR: "RHEADR", RtREGINT: "REGINT", RtREDATA: "REDATA",
	RtRIDATA: "RIDATA", RtOVLDEF: "OVLDEF", RtENDREC: "ENDREC",
	RtBLKDEF: "BLKDEF", RtBLKEND: "BLKEND", RtDEBSYM: "DEBSYM",

	RtTHEADR: "THEADR", RtLHEADR: "LHEADR", RtPEDATA: "PEDATA",
	RtPIDATA: "PIDATA", RtCOMENT: "COMENT", RtMODEND: "MODEND",
	RtMODEND32: "MODEND32", RtEXTDEF: "EXTDEF", RtTYPDEF: "TYPDEF",

	RtPUBDEF: "PUBDEF", RtPUBDEF32: "PUBDEF32", RtLOCSYM: "LOCSYM",
	RtLINNUM: "LINNUM", RtLINNUM32: "LINNUM32", RtLNAMES: "LNAMES",
	RtSEGDEF: "SEGDEF", RtSEGDEF32: "SEGDEF32", RtGRPDEF: "GRPDEF",
	RtFIXUPP: "FIXUPP", RtFIXUPP32: "FIXUPP32",

	RtLEDATA: "LEDATA", RtLEDATA32: "LEDATA32", RtLIDATA: "LIDATA",
	RtLIDATA32: "LIDATA32",

	RtLIBHED: "LIBHED", RtLIBNAM: "LIBNAM", RtLIBLOC: "LIBLOC",
	RtLIBDIC: "LIBDIC",

	RtCOMDEF: "COMDEF", RtBAKPAT: "BAKPAT", RtBAKPAT32: "BAKPAT32",
	RtLEXTDEF: "LEXTDEF", RtLPUBDEF: "LPUBDEF", RtLPUBDEF32: "LPUBDEF32",
	RtLCOMDEF: "LCOMDEF", RtCEXTDEF: "CEXTDEF",

	RtCOMDAT: "COMDAT", RtCOMDAT32: "COMDAT32", RtLINSYM: "LINSYM",
	RtLINSYM32: "LINSYM32", RtALIAS: "ALIAS", RtNBKPAT: "NBKPAT",
	RtNBKPAT32: "NBKPAT32", RtLLNAMES: "LLNAMES", RtVERNUM: "VERNUM",
	RtVENDEXT: "VENDEXT",

	RtLibraryHeader: "LIBHDR", RtLibraryEnd: "LIBEND",
	RtExtendedDict: "EXTENDED-DICT",
}

func recordTypeName(rt RecordType) string {
	if n, ok := recordTypeNames[rt]; ok {
		return n
	}
	return fmt.Sprintf("RecordType(0x%02X)", byte(rt))
}

func (rt RecordType) String() string { return recordTypeName(rt) }
