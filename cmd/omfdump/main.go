package main

import (
	"fmt"
	"io"
	"os"

	"github.com/relomf/omf/omf"
)

func dumpModule(data []byte) {
	mod, consumed, err := omf.ParseModule(data)
	check(err)

	fmt.Printf("variant = %s\n", mod.Variant)
	for i, rec := range mod.Records {
		fmt.Printf("%4d: %s\n", i, recordSummary(rec))
	}
	for _, w := range mod.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if consumed < len(data) {
		fmt.Printf("trailing bytes: %d\n", len(data)-consumed)
	}
}

func recordSummary(rec omf.Record) string {
	switch r := rec.(type) {
	case *omf.TheadrRecord:
		return fmt.Sprintf("%s %q", r.RecordType(), r.Name)
	case *omf.LnamesRecord:
		return fmt.Sprintf("%s %v", r.RecordType(), r.Names)
	case *omf.SegDefRecord:
		return fmt.Sprintf("SEGDEF align=%d combine=%d length=%d", r.Align, r.Combine, r.Length)
	case *omf.LedataRecord:
		return fmt.Sprintf("LEDATA seg=%d off=%d len=%d", r.SegmentIndex, r.Offset, len(r.Data))
	case *omf.ModendRecord:
		return fmt.Sprintf("MODEND main=%v start=%v", r.Main, r.Start)
	default:
		return fmt.Sprintf("%T", rec)
	}
}

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Usage: omfdump file.obj\n")
		return
	}

	data := loadBinary(os.Args[1])
	dumpModule(data)
}

func loadBinary(path string) []byte {
	f, err := os.Open(path)
	check(err)
	d, err := io.ReadAll(f)
	f.Close()
	check(err)
	return d
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}
