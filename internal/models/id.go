package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID is the canonical form of an external identifier. Upstream systems emit
// assessment and course identifiers as either JSON strings or numbers; both
// decode to the same decimal string so lookups never branch on the source type.
type ID string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = CanonicalID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number: %w", err)
	}
	*id = canonicalNumber(n)
	return nil
}

// String returns the canonical identifier.
func (id ID) String() string {
	return string(id)
}

// Empty reports whether the identifier is unset.
func (id ID) Empty() bool {
	return id == ""
}

// CanonicalID is the canonical form of an identifier received as text.
func CanonicalID(raw string) ID {
	return ID(strings.TrimSpace(raw))
}

// canonicalNumber renders integral numbers without exponent or fraction so
// 12, 12.0 and 1.2e1 all become "12".
func canonicalNumber(n json.Number) ID {
	if i, err := n.Int64(); err == nil {
		return ID(strconv.FormatInt(i, 10))
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return ID(strconv.FormatInt(int64(f), 10))
	}
	return ID(n.String())
}
