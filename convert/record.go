// Package convert runs mapping documents against source data, producing
// normalized field-value records.
package convert

import (
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Value is one produced field value. Exactly one of Value and ID is set:
// URI-typed values carry an identifier, everything else a literal.
type Value struct {
	// Type is the datatype, e.g. "literal", "uri", "customvocab:12".
	Type string

	// Value is the literal text.
	Value string

	// ID is the identifier for uri-shaped values.
	ID string

	// Language is an optional language tag.
	Language string

	// IsPublic is tri-state visibility carried over from the map entry.
	IsPublic *bool
}

// Record is the output of one conversion: destination field to ordered value
// list. Entries targeting the same field append, never overwrite, and
// duplicates are preserved for downstream review.
type Record struct {
	fields []string
	values map[string][]Value
}

// NewRecord creates an empty record.
func NewRecord() *Record {
	return &Record{values: make(map[string][]Value)}
}

// Add appends a value to a field, keeping first-seen field order.
func (r *Record) Add(field string, v Value) {
	if _, ok := r.values[field]; !ok {
		r.fields = append(r.fields, field)
	}
	r.values[field] = append(r.values[field], v)
}

// Fields returns the field names in first-seen order.
func (r *Record) Fields() []string {
	return r.fields
}

// Values returns the ordered values of a field.
func (r *Record) Values(field string) []Value {
	return r.values[field]
}

// Len returns the number of populated fields.
func (r *Record) Len() int {
	return len(r.fields)
}

// Map renders the record in the interchange shape: field to list of
// {"type", "@value"/"@id", "@language", "is_public"} objects.
func (r *Record) Map() map[string]any {
	out := make(map[string]any, len(r.fields))
	for _, field := range r.fields {
		items := make([]any, 0, len(r.values[field]))
		for _, v := range r.values[field] {
			item := map[string]any{"type": v.Type}
			if v.ID != "" {
				item["@id"] = v.ID
			} else {
				item["@value"] = v.Value
			}
			if v.Language != "" {
				item["@language"] = v.Language
			}
			if v.IsPublic != nil {
				item["is_public"] = *v.IsPublic
			}
			items = append(items, item)
		}
		out[field] = items
	}
	return out
}

// Proto renders the record as a protobuf Struct.
func (r *Record) Proto() (*structpb.Struct, error) {
	return structpb.NewStruct(r.Map())
}

// JSON serializes the record through its protobuf form.
func (r *Record) JSON() ([]byte, error) {
	s, err := r.Proto()
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(s)
}
