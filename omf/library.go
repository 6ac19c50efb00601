package omf

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const libraryDictBlockSize = 512
const libraryDictBucketsPerBlock = 37

// LibraryModule is one module's placement inside a library's page
// grid, alongside its decoded contents.
type LibraryModule struct {
	PageIndex int
	Module    *Module
}

// Library is a parsed .LIB container: a page-aligned run of object
// modules terminated by LIBEND, plus a two-level hashed dictionary for
// fast name lookup.
type Library struct {
	PageSize   int
	CaseSensitive bool
	Modules    []LibraryModule
	Dictionary map[string]int // symbol/module name -> page index
	Warnings   []Warning

	// dictData/dictBlockCount retain the raw dictionary bytes so
	// Lookup can walk the hash/probe sequence against the actual
	// block layout instead of the flattened map, which loses the
	// "full block" markers the probe needs to know when to stop.
	dictData       []byte
	dictBlockCount int
}

// ParseLibrary decodes a full library container.
func ParseLibrary(data []byte) (*Library, error) {
	pageSize, ok := isLibraryHeader(data)
	if !ok {
		return nil, newError(ErrInvalidLibraryHeader, "library:header")
	}

	c := newCursor(data)
	f, err := readFrame(c, nil)
	if err != nil {
		return nil, wrapError(ErrInvalidLibraryHeader, "library:header", err)
	}
	hc := newCursor(f.Body)
	dictOffset, err := hc.u32le()
	if err != nil {
		return nil, wrapError(ErrInvalidLibraryHeader, "library:dictoffset", err)
	}
	dictBlocks, err := hc.u16le()
	if err != nil {
		return nil, wrapError(ErrInvalidLibraryHeader, "library:dictblocks", err)
	}
	flags, err := hc.u8()
	if err != nil {
		flags = 0
	}

	lib := &Library{
		PageSize:      pageSize,
		CaseSensitive: flags&0x01 != 0,
		Dictionary:    make(map[string]int),
	}

	pageIndex := 1
	pos := pageSize
	var firstVariant Variant
	haveVariant := false

	for pos < len(data) && (dictOffset == 0 || pos < int(dictOffset)) {
		if data[pos] == byte(RtLibraryEnd) {
			break
		}
		mod, consumed, err := ParseModule(data[pos:])
		if err != nil {
			return nil, err
		}
		if haveVariant && mod.Variant != firstVariant {
			return nil, newError(ErrMixedVariantLibrary, "library:variant")
		}
		firstVariant = mod.Variant
		haveVariant = true

		lib.Modules = append(lib.Modules, LibraryModule{PageIndex: pageIndex, Module: mod})
		lib.Warnings = append(lib.Warnings, mod.Warnings...)

		pagesUsed := (consumed + pageSize - 1) / pageSize
		if pagesUsed < 1 {
			pagesUsed = 1
		}
		pos += pagesUsed * pageSize
		pageIndex += pagesUsed
	}

	if int(dictOffset) > 0 && int(dictOffset) < len(data) {
		dict, warnings := parseLibraryDictionary(data, int(dictOffset), int(dictBlocks))
		lib.Dictionary = dict
		lib.Warnings = append(lib.Warnings, warnings...)
		lib.dictData = data[dictOffset:]
		lib.dictBlockCount = int(dictBlocks)
	}

	return lib, nil
}

// ParseParallel is functionally equivalent to ParseLibrary but decodes
// each module's record stream concurrently via an errgroup, since
// modules don't share mutable state once the page grid is walked.
// Dictionary parsing stays on the calling goroutine.
func ParseParallel(ctx context.Context, data []byte) (*Library, error) {
	pageSize, ok := isLibraryHeader(data)
	if !ok {
		return nil, newError(ErrInvalidLibraryHeader, "library:header")
	}

	c := newCursor(data)
	f, err := readFrame(c, nil)
	if err != nil {
		return nil, wrapError(ErrInvalidLibraryHeader, "library:header", err)
	}
	hc := newCursor(f.Body)
	dictOffset, _ := hc.u32le()
	dictBlocks, _ := hc.u16le()
	flags, _ := hc.u8()

	lib := &Library{
		PageSize:      pageSize,
		CaseSensitive: flags&0x01 != 0,
		Dictionary:    make(map[string]int),
	}

	type span struct {
		pageIndex int
		data      []byte
	}
	var spans []span
	pageIndex := 1
	pos := pageSize
	for pos < len(data) && (dictOffset == 0 || pos < int(dictOffset)) {
		if data[pos] == byte(RtLibraryEnd) {
			break
		}
		modBytes := data[pos:]
		_, consumed, err := ParseModule(modBytes)
		if err != nil {
			return nil, err
		}
		pagesUsed := (consumed + pageSize - 1) / pageSize
		if pagesUsed < 1 {
			pagesUsed = 1
		}
		spans = append(spans, span{pageIndex: pageIndex, data: modBytes[:consumed]})
		pos += pagesUsed * pageSize
		pageIndex += pagesUsed
	}

	results := make([]LibraryModule, len(spans))
	g, _ := errgroup.WithContext(ctx)
	for i, sp := range spans {
		i, sp := i, sp
		g.Go(func() error {
			mod, _, err := ParseModule(sp.data)
			if err != nil {
				return err
			}
			results[i] = LibraryModule{PageIndex: sp.pageIndex, Module: mod}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, m := range results {
		if i > 0 && m.Module.Variant != results[0].Module.Variant {
			return nil, newError(ErrMixedVariantLibrary, "library:variant")
		}
	}
	lib.Modules = results
	for _, m := range results {
		lib.Warnings = append(lib.Warnings, m.Module.Warnings...)
	}

	if int(dictOffset) > 0 && int(dictOffset) < len(data) {
		dict, warnings := parseLibraryDictionary(data, int(dictOffset), int(dictBlocks))
		lib.Dictionary = dict
		lib.Warnings = append(lib.Warnings, warnings...)
		lib.dictData = data[dictOffset:]
		lib.dictBlockCount = int(dictBlocks)
	}

	return lib, nil
}

func parseLibraryDictionary(data []byte, dictOffset, dictBlocks int) (map[string]int, []Warning) {
	dict := make(map[string]int)
	var warnings []Warning

	for block := 0; block < dictBlocks; block++ {
		blockStart := dictOffset + block*libraryDictBlockSize
		if blockStart+libraryDictBlockSize > len(data) {
			warnings = append(warnings, Warning{Kind: WarnCorruptDictionary, Where: "library:dictionary", Detail: "truncated block"})
			break
		}
		blockData := data[blockStart : blockStart+libraryDictBlockSize]
		buckets := blockData[:libraryDictBucketsPerBlock]

		for _, bucketVal := range buckets {
			if bucketVal == 0 {
				continue
			}
			entryOffset := int(bucketVal) * 2
			if entryOffset >= libraryDictBlockSize {
				warnings = append(warnings, Warning{Kind: WarnCorruptDictionary, Where: "library:dictionary", Detail: "bucket out of range"})
				continue
			}
			sLen := int(blockData[entryOffset])
			if sLen == 0 || entryOffset+1+sLen+2 > libraryDictBlockSize {
				warnings = append(warnings, Warning{Kind: WarnCorruptDictionary, Where: "library:dictionary", Detail: "entry out of range"})
				continue
			}
			name := string(blockData[entryOffset+1 : entryOffset+1+sLen])
			pageOffset := entryOffset + 1 + sLen
			page := int(blockData[pageOffset]) | int(blockData[pageOffset+1])<<8
			dict[name] = page
		}
	}

	return dict, warnings
}

func rotl16(x uint16, n uint) uint16 {
	return (x << n) | (x >> (16 - n))
}

func rotr16(x uint16, n uint) uint16 {
	return (x >> n) | (x << (16 - n))
}

// libraryDictHash is the four-value name hash the Microsoft librarian
// dictionary uses: a starting (blockX, bucketX) position plus
// (blockD, bucketD) probe strides, derived by scanning the name from
// both ends at once and folding each character into a rotating
// accumulator.
type libraryDictHash struct {
	blockX, blockD   int
	bucketX, bucketD int
}

// computeLibraryDictHash hashes name against a dictionary of nblocks
// blocks. Both ends of the name are consumed in lockstep: the
// trailing character feeds bucketX/blockD, the leading character
// feeds blockX/bucketD, lowercased (|0x20) the same way for every
// byte including non-letters.
func computeLibraryDictHash(name string, nblocks int) libraryDictHash {
	blockX := uint16(len(name)) | 0x20
	var blockD uint16
	var bucketX uint16
	bucketD := blockX

	i, j := 0, len(name)-1
	for i <= j {
		back := uint16(name[j] | 0x20)
		j--
		bucketX = rotr16(bucketX, 2) ^ back
		blockD = rotl16(blockD, 2) ^ back
		if i > j {
			break
		}
		front := uint16(name[i] | 0x20)
		i++
		blockX = rotl16(blockX, 2) ^ front
		bucketD = rotr16(bucketD, 2) ^ front
	}

	if nblocks < 1 {
		nblocks = 1
	}
	h := libraryDictHash{
		blockX:  int(blockX) % nblocks,
		bucketX: int(bucketX) % libraryDictBucketsPerBlock,
	}
	h.blockD = int(blockD) % nblocks
	if h.blockD == 0 {
		h.blockD = 1
	}
	h.bucketD = int(bucketD) % libraryDictBucketsPerBlock
	if h.bucketD == 0 {
		h.bucketD = 1
	}
	return h
}

// dictionaryBucket returns the (block, bucket) a name's dictionary
// entry is expected to start probing from in a dictionary of the
// given block count.
func dictionaryBucket(name string, blockCount int) (block int, bucket int) {
	h := computeLibraryDictHash(name, blockCount)
	return h.blockX, h.bucketX
}

// Lookup resolves name through the dictionary's hash and probe
// sequence rather than the flattened Dictionary map, reproducing the
// librarian's own search order: within a block, buckets are visited
// bucketX, bucketX+bucketD, ... (mod 37) until an occupied bucket
// names a match, an empty bucket proves the name absent, or all 37
// buckets have been visited; a block flagged full (its free-space
// byte is 0xFF) is skipped without visiting its buckets at all,
// since insertion would have moved on past it too.
func (lib *Library) Lookup(name string) (page int, ok bool) {
	if lib.dictBlockCount <= 0 || len(lib.dictData) == 0 {
		return 0, false
	}
	h := computeLibraryDictHash(name, lib.dictBlockCount)
	block := h.blockX

	for visited := 0; visited < lib.dictBlockCount; visited++ {
		start := block * libraryDictBlockSize
		if start+libraryDictBlockSize > len(lib.dictData) {
			return 0, false
		}
		blockData := lib.dictData[start : start+libraryDictBlockSize]
		full := blockData[libraryDictBucketsPerBlock] == 0xFF

		if !full {
			bucket := h.bucketX
			for b := 0; b < libraryDictBucketsPerBlock; b++ {
				slot := blockData[bucket]
				if slot == 0 {
					return 0, false
				}
				entryOffset := int(slot) * 2
				if entryOffset+1 < libraryDictBlockSize {
					sLen := int(blockData[entryOffset])
					if entryOffset+1+sLen+2 <= libraryDictBlockSize {
						entryName := string(blockData[entryOffset+1 : entryOffset+1+sLen])
						if entryName == name {
							pageOffset := entryOffset + 1 + sLen
							page = int(blockData[pageOffset]) | int(blockData[pageOffset+1])<<8
							return page, true
						}
					}
				}
				bucket = (bucket + h.bucketD) % libraryDictBucketsPerBlock
			}
		}

		block = (block + h.blockD) % lib.dictBlockCount
	}
	return 0, false
}
