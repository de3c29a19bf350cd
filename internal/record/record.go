// Package record defines the in-memory record representation shared by the
// storage gateway, the record store, and the aggregation engine.
package record

// Record is one entity: an identifier, a display name, and the raw textual
// values of the schema's numeric fields. Values stay as text until the
// aggregation engine parses them.
type Record struct {
	ID     string
	Name   string
	Fields map[string]string
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	fields := make(map[string]string, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Record{ID: r.ID, Name: r.Name, Fields: fields}
}

// Set is an insertion-ordered sequence of records. A set is materialized in
// full by one storage read, lives for the duration of one operation, and is
// never shared across requests.
type Set []Record

// IndexOf returns the position of the record with the given identifier,
// or -1 when absent.
func (s Set) IndexOf(id string) int {
	for i := range s {
		if s[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the set.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for i := range s {
		out[i] = s[i].Clone()
	}
	return out
}
