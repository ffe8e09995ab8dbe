package dataset

import (
	"bytes"
	"encoding/json"
)

// Kind identifies the scalar type of a cell value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a single scalar cell of a result row.
type Value struct {
	kind Kind
	text string
	b    bool
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, text: s} }

// Number returns a numeric value. The number keeps its textual form so
// integers beyond float64 precision survive unchanged.
func Number(n json.Number) Value { return Value{kind: KindNumber, text: n.String()} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind returns the value's scalar kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the raw text of the value; empty for null.
func (v Value) Text() string {
	switch v.kind {
	case KindString, KindNumber:
		return v.text
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// Display returns the value as shown in result grids.
func (v Value) Display() string {
	if v.kind == KindNull {
		return "NULL"
	}
	return v.Text()
}

// MarshalJSON encodes the value back to its JSON scalar form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.text)
	case KindNumber:
		return []byte(v.text), nil
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// Record is a result row: a mapping from column name to value that
// remembers the key order it was decoded in.
type Record struct {
	keys   []string
	values map[string]Value
}

// NewRecord builds a record from parallel key and value slices.
func NewRecord(keys []string, values []Value) Record {
	var r Record
	for i, k := range keys {
		v := Null()
		if i < len(values) {
			v = values[i]
		}
		r.Set(k, v)
	}
	return r
}

// Set stores a value. A key that is already present keeps its position.
func (r *Record) Set(key string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Keys returns the column names in their original order.
func (r Record) Keys() []string {
	return r.keys
}

// Get reads a value by column name.
func (r Record) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Len returns the number of columns in the record.
func (r Record) Len() int {
	return len(r.keys)
}

// MarshalJSON preserves column order unlike map marshaling.
func (r Record) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, k := range r.keys {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		val, err := r.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// Payload is the decoded response of the remote query engine.
type Payload struct {
	Rows    []Record
	Types   []string
	Error   bool
	Message string
}

// Columns returns the key set of the first row, or nil when there are no rows.
func (p *Payload) Columns() []string {
	if p == nil || len(p.Rows) == 0 {
		return nil
	}
	return p.Rows[0].Keys()
}
