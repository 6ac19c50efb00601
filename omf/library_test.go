package omf

import (
	"context"
	"testing"
)

// TestIsLibraryHeaderPageSizeRange checks page sizes are powers of two
// in [16, 32768]; anything else is rejected.
func TestIsLibraryHeaderPageSizeRange(t *testing.T) {
	valid := []int{16, 32, 64, 128, 256, 512, 1024, 16384, 32768}
	for _, ps := range valid {
		data := buildTestLibrary(t, ps, nil)
		got, ok := isLibraryHeader(data)
		if !ok || got != ps {
			t.Fatalf("pageSize=%d: isLibraryHeader = (%d,%v), want (%d,true)", ps, got, ok, ps)
		}
	}

	// 8 is a power of two but below the minimum page size of 16.
	e := &encoder{}
	for len(e.buf) < 8-4 {
		e.u8(0)
	}
	data := writeFrame(RtLibraryHeader, e.buf)
	if _, ok := isLibraryHeader(data); ok {
		t.Fatalf("pageSize=8: isLibraryHeader = ok, want rejected (below floor)")
	}

	// 48 is in range but not a power of two.
	e2 := &encoder{}
	for len(e2.buf) < 48-4 {
		e2.u8(0)
	}
	data2 := writeFrame(RtLibraryHeader, e2.buf)
	if _, ok := isLibraryHeader(data2); ok {
		t.Fatalf("pageSize=48: isLibraryHeader = ok, want rejected (not a power of two)")
	}
}

// TestIsLibraryHeaderRejectsNonLibrary checks a plain module (starting
// with THEADR, not LIBHDR) is not mistaken for a library container.
func TestIsLibraryHeaderRejectsNonLibrary(t *testing.T) {
	data := writeFrame(RtTHEADR, (&TheadrRecord{Type: RtTHEADR, Name: "a.c"}).encodeBody(TisOmf86))
	if _, ok := isLibraryHeader(data); ok {
		t.Fatalf("isLibraryHeader(THEADR-first data) = ok, want false")
	}
}

// TestParseLibraryNoDictionary exercises the dictOffset == 0 path: a
// library with no dictionary must still walk every module and stop
// cleanly at LIBEND, rather than terminating the scan immediately
// because `pos < dictOffset` is vacuously false.
func TestParseLibraryNoDictionary(t *testing.T) {
	modA := append(
		writeFrame(RtTHEADR, (&TheadrRecord{Type: RtTHEADR, Name: "a.c"}).encodeBody(TisOmf86)),
		writeFrame(RtMODEND, (&ModendRecord{}).encodeBody(TisOmf86))...)
	modB := append(
		writeFrame(RtTHEADR, (&TheadrRecord{Type: RtTHEADR, Name: "b.c"}).encodeBody(TisOmf86)),
		writeFrame(RtMODEND, (&ModendRecord{}).encodeBody(TisOmf86))...)

	const pageSize = 32
	data := buildTestLibrary(t, pageSize, [][]byte{modA, modB})

	lib, err := ParseLibrary(data)
	if err != nil {
		t.Fatalf("ParseLibrary: %v", err)
	}
	if lib.PageSize != pageSize {
		t.Fatalf("PageSize = %d, want %d", lib.PageSize, pageSize)
	}
	if len(lib.Modules) != 2 {
		t.Fatalf("Modules = %d, want 2", len(lib.Modules))
	}
	names := []string{
		lib.Modules[0].Module.Records[0].(*TheadrRecord).Name,
		lib.Modules[1].Module.Records[0].(*TheadrRecord).Name,
	}
	if names[0] != "a.c" || names[1] != "b.c" {
		t.Fatalf("module names = %v, want [a.c b.c]", names)
	}
	if lib.Modules[0].PageIndex != 1 {
		t.Fatalf("Modules[0].PageIndex = %d, want 1", lib.Modules[0].PageIndex)
	}
	if len(lib.Dictionary) != 0 {
		t.Fatalf("Dictionary = %v, want empty (no dictionary present)", lib.Dictionary)
	}
}

// TestParseParallelMatchesParseLibrary checks ParseParallel's
// concurrent module decode against the same library ParseLibrary
// handles sequentially.
func TestParseParallelMatchesParseLibrary(t *testing.T) {
	modA := append(
		writeFrame(RtTHEADR, (&TheadrRecord{Type: RtTHEADR, Name: "a.c"}).encodeBody(TisOmf86)),
		writeFrame(RtMODEND, (&ModendRecord{}).encodeBody(TisOmf86))...)
	modB := append(
		writeFrame(RtTHEADR, (&TheadrRecord{Type: RtTHEADR, Name: "b.c"}).encodeBody(TisOmf86)),
		writeFrame(RtMODEND, (&ModendRecord{}).encodeBody(TisOmf86))...)

	const pageSize = 32
	data := buildTestLibrary(t, pageSize, [][]byte{modA, modB})

	seq, err := ParseLibrary(data)
	if err != nil {
		t.Fatalf("ParseLibrary: %v", err)
	}
	par, err := ParseParallel(context.Background(), data)
	if err != nil {
		t.Fatalf("ParseParallel: %v", err)
	}

	if len(seq.Modules) != len(par.Modules) {
		t.Fatalf("module count mismatch: sequential %d, parallel %d", len(seq.Modules), len(par.Modules))
	}
	for i := range seq.Modules {
		sName := seq.Modules[i].Module.Records[0].(*TheadrRecord).Name
		pName := par.Modules[i].Module.Records[0].(*TheadrRecord).Name
		if sName != pName {
			t.Fatalf("module %d name mismatch: sequential %q, parallel %q", i, sName, pName)
		}
		if seq.Modules[i].PageIndex != par.Modules[i].PageIndex {
			t.Fatalf("module %d page index mismatch: sequential %d, parallel %d", i, seq.Modules[i].PageIndex, par.Modules[i].PageIndex)
		}
	}
}

// TestParseLibraryDictionary exercises parseLibraryDictionary end to
// end: a single dictionary block with one populated bucket resolving
// to a name and page.
func TestParseLibraryDictionary(t *testing.T) {
	mod := append(
		writeFrame(RtTHEADR, (&TheadrRecord{Type: RtTHEADR, Name: "a.c"}).encodeBody(TisOmf86)),
		writeFrame(RtMODEND, (&ModendRecord{}).encodeBody(TisOmf86))...)

	const pageSize = 32
	lib := buildTestLibrary(t, pageSize, [][]byte{mod})

	// buildTestLibrary already appended LIBEND; splice a dictionary
	// block in before it instead of reusing that trailing page.
	base := lib[:len(lib)-len(writeFrame(RtLibraryEnd, nil))]

	block := make([]byte, libraryDictBlockSize)
	const name = "ALPHA"
	const entryOffset = 40 // arbitrary slot past the 37 bucket bytes
	block[entryOffset] = byte(len(name))
	copy(block[entryOffset+1:], name)
	pageOfModule := 1
	block[entryOffset+1+len(name)] = byte(pageOfModule)
	block[entryOffset+1+len(name)+1] = byte(pageOfModule >> 8)
	_, bucket := dictionaryBucket(name, 1)
	block[bucket] = byte(entryOffset / 2)

	dictOffset := len(base)
	full := append(append([]byte{}, base...), block...)
	full = append(full, writeFrame(RtLibraryEnd, nil)...)

	// Patch the header's dictionary offset/block-count fields so
	// ParseLibrary knows where to look.
	hdrBody := make([]byte, pageSize-4)
	e := &encoder{}
	e.u32le(uint32(dictOffset))
	e.u16le(1)
	e.u8(0)
	copy(hdrBody, e.buf)
	hdrFrame := writeFrame(RtLibraryHeader, hdrBody)
	copy(full, hdrFrame)

	lib2, err := ParseLibrary(full)
	if err != nil {
		t.Fatalf("ParseLibrary: %v", err)
	}
	page, ok := lib2.Dictionary[name]
	if !ok {
		t.Fatalf("Dictionary[%q] missing, got %v", name, lib2.Dictionary)
	}
	if page != pageOfModule {
		t.Fatalf("Dictionary[%q] = %d, want %d", name, page, pageOfModule)
	}

	lookedUp, ok := lib2.Lookup(name)
	if !ok {
		t.Fatalf("Lookup(%q) = not found, want page %d", name, pageOfModule)
	}
	if lookedUp != pageOfModule {
		t.Fatalf("Lookup(%q) = %d, want %d", name, lookedUp, pageOfModule)
	}
	if _, ok := lib2.Lookup("NOSUCHNAME"); ok {
		t.Fatalf("Lookup(%q) = found, want not found", "NOSUCHNAME")
	}
}

// TestLibraryLookupProbing checks Lookup probes past an occupied
// starting bucket to the next one (bucketX + bucketD) rather than
// concluding the name is absent, and that it still reports a genuine
// miss once an actually-empty bucket is reached.
func TestLibraryLookupProbing(t *testing.T) {
	const name = "BETA"
	const blockCount = 1
	h := computeLibraryDictHash(name, blockCount)

	block := make([]byte, libraryDictBlockSize)

	dummy := "OTHER"
	const dummyOffset = 60
	block[dummyOffset] = byte(len(dummy))
	copy(block[dummyOffset+1:], dummy)
	block[dummyOffset+1+len(dummy)] = 9
	block[dummyOffset+1+len(dummy)+1] = 0
	block[h.bucketX] = byte(dummyOffset / 2)

	nextBucket := (h.bucketX + h.bucketD) % libraryDictBucketsPerBlock
	const realOffset = 100
	const page = 7
	block[realOffset] = byte(len(name))
	copy(block[realOffset+1:], name)
	block[realOffset+1+len(name)] = byte(page)
	block[realOffset+1+len(name)+1] = byte(page >> 8)
	block[nextBucket] = byte(realOffset / 2)

	lib := &Library{dictData: block, dictBlockCount: blockCount}
	got, ok := lib.Lookup(name)
	if !ok {
		t.Fatalf("Lookup(%q) = not found, want page %d", name, page)
	}
	if got != page {
		t.Fatalf("Lookup(%q) = %d, want %d", name, got, page)
	}

	if _, ok := lib.Lookup("ABSENT"); ok {
		t.Fatalf("Lookup(%q) = found, want not found", "ABSENT")
	}
}

// TestDictionaryBucketStable checks dictionaryBucket is a pure
// function of (name, blockCount): the same inputs always resolve to
// the same (block, bucket) pair, which the dictionary format requires
// for lookups to find what insertion wrote.
func TestDictionaryBucketStable(t *testing.T) {
	for _, name := range []string{"ALPHA", "main", "_start", "x"} {
		b1, k1 := dictionaryBucket(name, 4)
		b2, k2 := dictionaryBucket(name, 4)
		if b1 != b2 || k1 != k2 {
			t.Fatalf("dictionaryBucket(%q) not stable: (%d,%d) vs (%d,%d)", name, b1, k1, b2, k2)
		}
		if k1 < 0 || k1 >= libraryDictBucketsPerBlock {
			t.Fatalf("dictionaryBucket(%q) bucket %d out of range [0,%d)", name, k1, libraryDictBucketsPerBlock)
		}
	}
}
