package shopapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is an identifier the API sends either as a JSON number or a string.
type ID string

// UnmarshalJSON accepts 42, "42" and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("shopapi: id %s is neither a number nor a string", b)
		}
		*id = ID(n.String())
		return nil
	}
}

// String returns the ID as text.
func (id ID) String() string { return string(id) }
