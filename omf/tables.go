package omf

// nameTable, segmentTable, groupTable and externTable are the
// module-scoped, 1-indexed, append-only ordered collections tracked
// while decoding a module. Index 0 always means "not present"; tables
// are created empty when a module begins and frozen at MODEND.

type lnameEntry struct {
	Name string
}

type segdefEntry struct {
	Name  string // resolved LNAME text, kept for convenience/diagnostics
	Def   *SegDefRecord
}

type grpdefEntry struct {
	Name string
}

// externEntry is jointly populated by EXTDEF, COMDEF, LEXTDEF,
// LCOMDEF and CEXTDEF in file order.
type externEntry struct {
	Name     string
	IsLocal  bool
	IsComm   bool
	FromLName bool // CEXTDEF: Name is resolved from an LNAME index
}

// threadSlot is one of the four FRAME or four TARGET thread slots the
// FIXUPP engine persists across every FIXUPP record of a module until
// redefined.
type threadSlot struct {
	Valid  bool
	Method byte
	Datum  OmfIndex
}

type tables struct {
	lnames  []lnameEntry // 1-indexed: lnames[0] is a sentinel
	segdefs []segdefEntry
	grpdefs []grpdefEntry
	externs []externEntry

	frameThreads  [4]threadSlot
	targetThreads [4]threadSlot

	// lastDataAnchor is the file offset of the most recently decoded
	// LEDATA/LIDATA/COMDAT record, so FIXUPP can be re-associated with
	// its data-bearing anchor on dump.
	lastDataAnchor int
}

func newTables() *tables {
	return &tables{
		lnames:  make([]lnameEntry, 1),
		segdefs: make([]segdefEntry, 1),
		grpdefs: make([]grpdefEntry, 1),
		externs: make([]externEntry, 1),
	}
}

func (t *tables) addLName(name string) OmfIndex {
	t.lnames = append(t.lnames, lnameEntry{Name: name})
	return OmfIndex(len(t.lnames) - 1)
}

func (t *tables) addSegDef(e segdefEntry) OmfIndex {
	t.segdefs = append(t.segdefs, e)
	return OmfIndex(len(t.segdefs) - 1)
}

func (t *tables) addGrpDef(name string) OmfIndex {
	t.grpdefs = append(t.grpdefs, grpdefEntry{Name: name})
	return OmfIndex(len(t.grpdefs) - 1)
}

func (t *tables) addExtern(e externEntry) OmfIndex {
	t.externs = append(t.externs, e)
	return OmfIndex(len(t.externs) - 1)
}

func (t *tables) lname(i OmfIndex) (string, bool) {
	if int(i) <= 0 || int(i) >= len(t.lnames) {
		return "", false
	}
	return t.lnames[i].Name, true
}

func (t *tables) segdef(i OmfIndex) (segdefEntry, bool) {
	if int(i) <= 0 || int(i) >= len(t.segdefs) {
		return segdefEntry{}, false
	}
	return t.segdefs[i], true
}

func (t *tables) grpdef(i OmfIndex) (grpdefEntry, bool) {
	if int(i) <= 0 || int(i) >= len(t.grpdefs) {
		return grpdefEntry{}, false
	}
	return t.grpdefs[i], true
}

func (t *tables) extern(i OmfIndex) (externEntry, bool) {
	if int(i) <= 0 || int(i) >= len(t.externs) {
		return externEntry{}, false
	}
	return t.externs[i], true
}

// checkIndex enforces that references resolve only to entries already
// defined earlier in file order. maxValid is the table's current
// highest valid index (len-1).
func checkIndex(kind string, value OmfIndex, maxValid int) error {
	if value == 0 {
		return nil
	}
	if int(value) > maxValid {
		return &Error{
			Kind:  ErrDanglingIndex,
			Where: kind,
		}
	}
	return nil
}
