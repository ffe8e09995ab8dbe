package dataset

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePayload_DoubleEncodedData(t *testing.T) {
	body := `{
		"data": "[{\"name\":\"alice\",\"age\":30,\"active\":true,\"note\":null},{\"age\":41,\"name\":\"bob\",\"active\":false,\"note\":\"x\"}]",
		"error": false,
		"message": "",
		"dtypes": ["VARCHAR", "BIGINT", "BOOLEAN", "VARCHAR"]
	}`

	p, err := DecodePayload([]byte(body))
	require.NoError(t, err)

	require.Len(t, p.Rows, 2)
	assert.Equal(t, []string{"name", "age", "active", "note"}, p.Columns())
	assert.Equal(t, []string{"VARCHAR", "BIGINT", "BOOLEAN", "VARCHAR"}, p.Types)
	assert.False(t, p.Error)

	// second row keeps its own key order but is read by name
	assert.Equal(t, []string{"age", "name", "active", "note"}, p.Rows[1].Keys())
	name, ok := p.Rows[1].Get("name")
	require.True(t, ok)
	assert.Equal(t, KindString, name.Kind())
	assert.Equal(t, "bob", name.Text())

	age, _ := p.Rows[0].Get("age")
	assert.Equal(t, KindNumber, age.Kind())
	assert.Equal(t, "30", age.Text())

	note, _ := p.Rows[0].Get("note")
	assert.True(t, note.IsNull())
	assert.Equal(t, "NULL", note.Display())
	assert.Equal(t, "", note.Text())

	active, _ := p.Rows[1].Get("active")
	assert.Equal(t, "false", active.Text())
}

func TestDecodePayload_InlineData(t *testing.T) {
	body := `{"data": [{"b": 1.5, "a": "z"}], "error": false, "message": "ok", "dtypes": ["DOUBLE", "VARCHAR"]}`

	p, err := DecodePayload([]byte(body))
	require.NoError(t, err)
	require.Len(t, p.Rows, 1)
	assert.Equal(t, []string{"b", "a"}, p.Columns())
	assert.Equal(t, "ok", p.Message)
}

func TestDecodePayload_EmptyData(t *testing.T) {
	cases := map[string]string{
		"missing":        `{"error": false, "message": ""}`,
		"null":           `{"data": null}`,
		"empty string":   `{"data": ""}`,
		"encoded null":   `{"data": "null"}`,
		"empty array":    `{"data": "[]"}`,
		"inline array":   `{"data": []}`,
		"server error":   `{"data": "[]", "error": true, "message": "Parser Error"}`,
		"null dtypes ok": `{"data": "[]", "dtypes": null}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			p, err := DecodePayload([]byte(body))
			require.NoError(t, err)
			assert.Empty(t, p.Rows)
			assert.Nil(t, p.Columns())
		})
	}
}

func TestDecodePayload_ServerError(t *testing.T) {
	p, err := DecodePayload([]byte(`{"data": "[]", "error": true, "message": "Catalog Error: column x not found", "dtypes": []}`))
	require.NoError(t, err)
	assert.True(t, p.Error)
	assert.Equal(t, "Catalog Error: column x not found", p.Message)
}

func TestDecodePayload_ShortDTypesIsNotFatal(t *testing.T) {
	p, err := DecodePayload([]byte(`{"data": [{"a": 1, "b": 2, "c": 3}], "dtypes": ["INTEGER"]}`))
	require.NoError(t, err)
	assert.Len(t, p.Columns(), 3)
	assert.Equal(t, []string{"INTEGER"}, p.Types)
}

func TestDecodePayload_Invalid(t *testing.T) {
	cases := map[string]string{
		"not json":          `<html>bad gateway</html>`,
		"data not array":    `{"data": "{\"a\": 1}"}`,
		"row not object":    `{"data": "[1, 2]"}`,
		"nested value":      `{"data": "[{\"a\": {\"b\": 1}}]"}`,
		"nested array":      `{"data": [{"a": [1, 2]}]}`,
		"broken inner json": `{"data": "[{\"a\": 1"}`,
		"trailing data":     `{"data": "[] []"}`,
		"dtypes not string": `{"data": "[]", "dtypes": [1]}`,
		"data number":       `{"data": 5}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodePayload([]byte(body))
			require.Error(t, err)
			var decodeErr *DecodeError
			assert.ErrorAs(t, err, &decodeErr)
		})
	}
}

func TestRecord_MarshalJSONKeepsOrder(t *testing.T) {
	rec := NewRecord(
		[]string{"z", "a", "m", "n"},
		[]Value{String("x\"y"), Number(json.Number("12")), Bool(true), Null()},
	)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"z":"x\"y","a":12,"m":true,"n":null}`, string(out))
}

func TestRecord_SetKeepsFirstPosition(t *testing.T) {
	var rec Record
	rec.Set("a", String("1"))
	rec.Set("b", String("2"))
	rec.Set("a", String("3"))

	assert.Equal(t, []string{"a", "b"}, rec.Keys())
	v, _ := rec.Get("a")
	assert.Equal(t, "3", v.Text())
	assert.Equal(t, 2, rec.Len())
}
