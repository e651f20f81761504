// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TagDefinition describes one tag from the tag-standards table.
type TagDefinition struct {
	// Code is the tag identifier, e.g. "AU".
	Code string `json:"code" yaml:"code"`

	// Label is the human-readable name of the tag, e.g. "Author".
	Label string `json:"label" yaml:"label"`

	// Order is the tag's ascending emission position. Orders are unique
	// across the table.
	Order int `json:"order" yaml:"order"`

	// Notes is the free-text multiplicity note from the standards table.
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`

	// MultiValued is derived from Notes: true when the note contains the
	// configured marker substring, false otherwise.
	MultiValued bool `json:"multi_valued" yaml:"multi_valued"`
}
