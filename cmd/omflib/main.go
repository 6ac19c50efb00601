package main

import (
	"fmt"
	"io"
	"os"

	"github.com/relomf/omf/omf"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Printf("Usage: omflib file.lib\n")
		return
	}

	data := loadBinary(os.Args[1])

	lib, err := omf.ParseLibrary(data)
	check(err)

	fmt.Printf("page_size = %d\n", lib.PageSize)
	fmt.Printf("case_sensitive = %v\n", lib.CaseSensitive)
	fmt.Printf("modules = %d\n", len(lib.Modules))
	for _, m := range lib.Modules {
		fmt.Printf("  page %4d: %d records, variant=%s\n", m.PageIndex, len(m.Module.Records), m.Module.Variant)
	}
	fmt.Printf("dictionary entries = %d\n", len(lib.Dictionary))
	for name, page := range lib.Dictionary {
		fmt.Printf("  %q -> page %d\n", name, page)
	}
	for _, w := range lib.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
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
