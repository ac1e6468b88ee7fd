package smartmodule

import "fmt"

// APIVersion is the wire protocol version shared by host and guest.
const APIVersion int16 = 17

// Versions at which envelope fields were introduced.
const (
	VersionParams     int16 = 13
	VersionJoinRecord int16 = 16
	VersionTimestamp  int16 = 17
)

// Names of the guest exports and the host import.
const (
	ExportAlloc   = "alloc"
	ExportDealloc = "dealloc"
	ExportMemory  = "memory"

	ImportModule      = "env"
	ImportCopyRecords = "copy_records"
)

// Kind tags a SmartModule variant.
type Kind int8

const (
	KindFilter Kind = iota
	KindMap
	KindArrayMap
	KindFilterMap
	KindJoin
)

var kindNames = [...]string{
	KindFilter:    "filter",
	KindMap:       "map",
	KindArrayMap:  "array_map",
	KindFilterMap: "filter_map",
	KindJoin:      "join",
}

// Kinds lists every supported variant in tag order.
func Kinds() []Kind {
	return []Kind{KindFilter, KindMap, KindArrayMap, KindFilterMap, KindJoin}
}

// Valid reports whether k is a known variant tag.
func (k Kind) Valid() bool {
	return k >= KindFilter && k <= KindJoin
}

// Export returns the name of the guest export implementing k.
func (k Kind) Export() string {
	return k.String()
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", int8(k))
	}
	return kindNames[k]
}

// ParseKind resolves an export name to its variant.
func ParseKind(name string) (Kind, bool) {
	for _, k := range Kinds() {
		if kindNames[k] == name {
			return k, true
		}
	}
	return 0, false
}
