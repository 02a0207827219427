package hub

import (
	"fmt"
	"strings"
)

// StructureKind is the directory topology of a bepress export.
type StructureKind string

// Known export topologies.
const (
	StructureJournal StructureKind = "journal"
	StructureSeries  StructureKind = "series"
	StructureEvents  StructureKind = "events"
	StructureBooks   StructureKind = "books"
)

// StructureKinds lists every supported topology.
var StructureKinds = []StructureKind{StructureJournal, StructureSeries, StructureEvents, StructureBooks}

// ParseStructureKind validates a structure name.
func ParseStructureKind(s string) (StructureKind, error) {
	k := StructureKind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range StructureKinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown structure %q (want one of journal, series, events, books)", s)
}

// IssuePlacement is the volume/issue/collection a document belongs to,
// derived from where its metadata sits in the export tree.
type IssuePlacement struct {
	Kind   StructureKind
	Volume *int
	Issue  *int
	Year   *int
	Title  string
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
