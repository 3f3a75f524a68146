// Package schema defines guessed column types and the widening type
// inference used on sampled rows.
package schema

import "encoding/json"

// Column type kinds. Timestamp columns additionally carry a layout.
const (
	TypeString    = "string"
	TypeBoolean   = "boolean"
	TypeLong      = "long"
	TypeDouble    = "double"
	TypeTimestamp = "timestamp"
)

// ColumnType is a tagged type variant. Two ColumnTypes are equal only when
// both the kind and (for timestamps) the layout match; the header heuristic
// relies on that.
type ColumnType struct {
	Kind   string
	Format string // time.Parse layout; set only for timestamp columns
}

// String renders the type for reports: "timestamp(2006-01-02)" or the kind.
func (t ColumnType) String() string {
	if t.Kind == TypeTimestamp && t.Format != "" {
		return t.Kind + "(" + t.Format + ")"
	}
	return t.Kind
}

// Column pairs a name with its guessed type.
type Column struct {
	Name string
	Type ColumnType
}

// Schema is an ordered column list.
type Schema []Column

// MarshalJSON emits the external column shape: {"name","type"} plus
// "format" for timestamp columns.
func (c Column) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"name": c.Name,
		"type": c.Type.Kind,
	}
	if c.Type.Kind == TypeTimestamp && c.Type.Format != "" {
		out["format"] = c.Type.Format
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the same shape back.
func (c *Column) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name   string `json:"name"`
		Type   string `json:"type"`
		Format string `json:"format"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	c.Name = raw.Name
	c.Type = ColumnType{Kind: raw.Type, Format: raw.Format}
	return nil
}

// Equal compares two type lists element-wise.
func Equal(a, b []ColumnType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
