// Package services defines the blocked-service data model shared by the
// source loader, the on-disk index and the reconciler.
//
// A Record is kept as an ordered list of fields exactly as declared in the
// source artifact, so that serializing it back to a definition file preserves
// every field and the order in which the upstream build emitted them.
package services

import (
	"github.com/goccy/go-yaml"
	"golang.org/x/text/unicode/norm"
)

// Record is one declared blocked service.
type Record struct {
	// ID is the unique service identifier, also the definition file base name.
	ID string

	// Fields holds the complete record, including "id", in document order.
	Fields yaml.MapSlice

	// Raw is the record's JSON text as it appeared in the source artifact.
	Raw string
}

// Field returns the value of the named field and whether it was present.
func (r Record) Field(key string) (any, bool) {
	for _, item := range r.Fields {
		if k, ok := item.Key.(string); ok && k == key {
			return item.Value, true
		}
	}
	return nil, false
}

// Declared is the ordered set of records read from the source artifact.
type Declared []Record

// IDs returns the record identifiers in declaration order.
func (d Declared) IDs() []string {
	ids := make([]string, len(d))
	for i, r := range d {
		ids[i] = r.ID
	}
	return ids
}

// Descriptor is the lightweight view of one definition file already on disk.
type Descriptor struct {
	ID      string
	File    string
	Content map[string]any
}

// Index maps service identifiers to the definition files present on disk.
type Index map[string]Descriptor

// Has reports whether a definition for id is present.
func (idx Index) Has(id string) bool {
	_, ok := idx[id]
	return ok
}

// Missing returns the declared records without an entry in the index,
// preserving declaration order. Identifiers are compared in NFC form.
func Missing(declared Declared, index Index) Declared {
	var missing Declared
	for _, r := range declared {
		if !index.Has(norm.NFC.String(r.ID)) {
			missing = append(missing, r)
		}
	}
	return missing
}

// FileName returns the definition file name for id.
func FileName(id, ext string) string {
	return id + ext
}
