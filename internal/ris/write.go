// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ris

import (
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/refmerge/internal/standards"
	"github.com/pdiddy/refmerge/pkg/types"
)

// EncodingError reports a value that cannot be serialized safely under the
// NewlineFail policy.
type EncodingError struct {
	Code   string
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("ris: tag %s: %s", e.Code, e.Reason)
}

// WriteStats holds counts from one Write call.
type WriteStats struct {
	// Written is the number of records serialized.
	Written int
	// Stripped counts values whose line breaks were flattened to spaces.
	Stripped int
	// Dropped counts values omitted under the NewlineDrop policy.
	Dropped int
}

var newlineFlattener = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Write serializes records to w: the first tag on the opening line, then
// one line per populated value in standards order, multi-valued tags one
// line per value, then any pass-through tags in record order, and the
// terminator last with an empty value. A value containing a line break is
// handled per policy: NewlineStrip (the default) flattens it, NewlineDrop
// omits it, NewlineFail aborts with an EncodingError.
func Write(w io.Writer, records []types.Record, std *standards.Standards, policy types.NewlinePolicy) (WriteStats, error) {
	if policy == "" {
		policy = types.NewlineStrip
	}

	var stats WriteStats
	first := std.FirstTag()
	terminator := std.Terminator()

	emit := func(code, value string) error {
		if strings.ContainsAny(value, "\r\n") {
			switch policy {
			case types.NewlineDrop:
				stats.Dropped++
				return nil
			case types.NewlineFail:
				return &EncodingError{Code: code, Reason: "value contains a line break"}
			default:
				value = newlineFlattener.Replace(value)
				stats.Stripped++
			}
		}
		_, err := fmt.Fprintf(w, "%s  - %s\n", code, value)
		return err
	}

	for i := range records {
		rec := &records[i]

		opening := ""
		if v := rec.Get(first); len(v) > 0 {
			opening = v[0]
		}
		if err := emit(first, opening); err != nil {
			return stats, err
		}

		for _, def := range std.Definitions() {
			if def.Code == first || def.Code == terminator {
				continue
			}
			for _, value := range rec.Get(def.Code) {
				if value == "" {
					continue
				}
				if err := emit(def.Code, value); err != nil {
					return stats, err
				}
			}
		}

		// Pass-through tags the standards table does not know, in the
		// order the record holds them.
		for _, f := range rec.Fields {
			if std.Known(f.Code) || f.Code == terminator {
				continue
			}
			for _, value := range f.Values {
				if value == "" {
					continue
				}
				if err := emit(f.Code, value); err != nil {
					return stats, err
				}
			}
		}

		if err := emit(terminator, ""); err != nil {
			return stats, err
		}
		stats.Written++
	}

	return stats, nil
}
