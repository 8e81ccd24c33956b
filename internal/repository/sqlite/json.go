package sqlite

import (
	"encoding/json"
	"fmt"
)

// JSON COLUMNS:
// Participants, key points, action items, sections and the like are ordered
// lists that are always read and written together with their parent record
// and never queried on their own (participant lookup uses json_each). One TEXT
// column holding a JSON array keeps their order and avoids a join per read.

// encoder encodes several JSON columns for one statement and remembers the
// first failure, so call sites can build the argument list in one go and
// check once.
type encoder struct {
	err error
}

// array encodes a slice; nil becomes "[]" so the column never holds "null".
func (e *encoder) array(v any) string {
	return e.encode(v, "[]")
}

// object encodes a struct; nil becomes "{}".
func (e *encoder) object(v any) string {
	return e.encode(v, "{}")
}

func (e *encoder) encode(v any, empty string) string {
	if e.err != nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		e.err = fmt.Errorf("encoding json column: %w", err)
		return ""
	}
	if string(b) == "null" {
		return empty
	}
	return string(b)
}

// decoder is the read-side twin of encoder.
type decoder struct {
	err error
}

func (d *decoder) decode(raw string, dst any) {
	if d.err != nil || raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		d.err = fmt.Errorf("decoding json column: %w", err)
	}
}
