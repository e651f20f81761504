// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the data structures shared across refmerge stages:
// tag definitions, bibliographic records, their tabular projection, and
// stage configuration.
package types

// Field is one tag of a Record together with its values in source order.
// Single-valued tags hold at most one value; the terminator tag holds none.
type Field struct {
	Code   string   `json:"code" yaml:"code"`
	Values []string `json:"values" yaml:"values"`
}

// Record is an ordered mapping from tag code to values. The first populated
// field is always the type-of-reference tag and the last field is always the
// terminator tag with no values. Repeated multi-valued tags accumulate one
// value per occurrence; repeated single-valued tags keep the last occurrence.
type Record struct {
	Fields []Field `json:"fields" yaml:"fields"`
}

// Get returns the values stored for code, or nil if the record has no such
// field.
func (r *Record) Get(code string) []string {
	for i := range r.Fields {
		if r.Fields[i].Code == code {
			return r.Fields[i].Values
		}
	}
	return nil
}

// Has reports whether the record contains a field for code.
func (r *Record) Has(code string) bool {
	for i := range r.Fields {
		if r.Fields[i].Code == code {
			return true
		}
	}
	return false
}

// Append adds value to the field for code, creating the field at the end of
// the record if it does not exist yet. Used for multi-valued tags.
func (r *Record) Append(code, value string) {
	for i := range r.Fields {
		if r.Fields[i].Code == code {
			r.Fields[i].Values = append(r.Fields[i].Values, value)
			return
		}
	}
	r.Fields = append(r.Fields, Field{Code: code, Values: []string{value}})
}

// Set replaces the values of the field for code with the single value,
// creating the field at the end of the record if needed. Used for
// single-valued tags, where a repeated occurrence overwrites (last wins).
func (r *Record) Set(code, value string) {
	for i := range r.Fields {
		if r.Fields[i].Code == code {
			r.Fields[i].Values = []string{value}
			return
		}
	}
	r.Fields = append(r.Fields, Field{Code: code, Values: []string{value}})
}

// Terminate appends the terminator field with no values. The caller is
// responsible for calling it exactly once, after all other fields.
func (r *Record) Terminate(code string) {
	r.Fields = append(r.Fields, Field{Code: code})
}

// Equal reports whether two records have identical fields, codes and values
// alike, in identical order.
func (r *Record) Equal(other *Record) bool {
	if len(r.Fields) != len(other.Fields) {
		return false
	}
	for i := range r.Fields {
		a, b := r.Fields[i], other.Fields[i]
		if a.Code != b.Code || len(a.Values) != len(b.Values) {
			return false
		}
		for j := range a.Values {
			if a.Values[j] != b.Values[j] {
				return false
			}
		}
	}
	return true
}

// Row is the flattened tabular projection of one Record: one cell per tag
// code defined in the standards, multi-valued tags delimiter-joined. Tags
// missing from the record appear as empty strings; tags missing from the
// standards do not appear at all.
type Row map[string]string
