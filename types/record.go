package types

import "time"

// Record is one fetched entity instance (an issue, item, stock transaction,
// unit or user). Records are immutable snapshots taken from the collaborator:
// pipeline stages never modify a record in place, they derive new slices.
type Record struct {
	// ID is the stable unique identifier assigned by the collaborator
	ID string `json:"id"`

	// Fields maps field name to a scalar value: string, number, bool,
	// time.Time or nil. Absent keys and nil values both read as null.
	Fields map[string]interface{} `json:"fields"`

	// CreatedAt is the creation timestamp reported by the collaborator
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the last modification timestamp
	UpdatedAt time.Time `json:"updated_at"`
}

// Get returns the named value. The identity and timestamp columns resolve
// from the struct itself, everything else from the Fields map.
func (r Record) Get(name string) (interface{}, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "created_at":
		return r.CreatedAt, true
	case "updated_at":
		return r.UpdatedAt, true
	}
	v, ok := r.Fields[name]
	return v, ok
}

// Clone returns a copy of the record with its own Fields map.
func (r Record) Clone() Record {
	fields := make(map[string]interface{}, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return Record{
		ID:        r.ID,
		Fields:    fields,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
