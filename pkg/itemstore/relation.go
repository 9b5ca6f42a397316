package itemstore

import (
	"bytes"
	"encoding/json"
)

// ID is an item identifier. The store returns numeric ids for some
// collections and uuid strings for others; both decode into the same string
// form so downstream code never branches on shape.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// Relation is a reference field that may arrive as a bare identifier or as an
// expanded nested object, depending on the field projection of the query that
// produced it. It is resolved once at the decode boundary; callers check
// Resolved instead of branching on JSON shape.
type Relation[T any] struct {
	ID    ID
	Value *T
}

// Ref builds an unresolved relation pointing at id, for write payloads.
func Ref[T any](id ID) Relation[T] {
	return Relation[T]{ID: id}
}

func (r Relation[T]) Resolved() bool { return r.Value != nil }

func (r *Relation[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*r = Relation[T]{}
		return nil
	}
	if trimmed[0] == '{' {
		var v T
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return err
		}
		r.Value = &v
		// keep the id available even in expanded form
		var probe struct {
			ID ID `json:"id"`
		}
		if err := json.Unmarshal(trimmed, &probe); err == nil {
			r.ID = probe.ID
		}
		return nil
	}
	return json.Unmarshal(trimmed, &r.ID)
}

func (r Relation[T]) MarshalJSON() ([]byte, error) {
	if r.Value != nil {
		return json.Marshal(r.Value)
	}
	if r.ID == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(r.ID))
}
