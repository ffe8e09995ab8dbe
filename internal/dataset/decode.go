package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("dataset")

// DecodeError reports a response body that does not match the engine's
// response schema.
type DecodeError struct {
	Field string
	Cause error
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("decode payload: %v", e.Cause)
	}
	return fmt.Sprintf("decode payload %s: %v", e.Field, e.Cause)
}

func (e *DecodeError) Unwrap() error {
	return e.Cause
}

type wirePayload struct {
	Data    json.RawMessage `json:"data"`
	Error   bool            `json:"error"`
	Message string          `json:"message"`
	DTypes  []string        `json:"dtypes"`
}

// DecodePayload validates and decodes a response body of the form
//
//	{"data": ..., "error": bool, "message": string, "dtypes": [string]}
//
// where data is an array of flat row objects, either inline or encoded as a
// JSON string.
func DecodePayload(body []byte) (*Payload, error) {
	var wire wirePayload
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, &DecodeError{Cause: err}
	}

	rows, err := decodeRows(wire.Data)
	if err != nil {
		return nil, &DecodeError{Field: "data", Cause: err}
	}

	p := &Payload{
		Rows:    rows,
		Types:   wire.DTypes,
		Error:   wire.Error,
		Message: wire.Message,
	}

	if cols := len(p.Columns()); len(p.Types) < cols {
		log.Warningf("dtypes cover %d of %d columns", len(p.Types), cols)
	}

	return p, nil
}

func decodeRows(raw json.RawMessage) ([]Record, error) {
	raw = bytes.TrimSpace(raw)
	if isEmptyJSON(raw) {
		return nil, nil
	}

	// The engine usually sends the rows as a JSON document inside a string.
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, err
		}
		raw = bytes.TrimSpace([]byte(inner))
		if isEmptyJSON(raw) {
			return nil, nil
		}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	if err := expectDelim(dec, '['); err != nil {
		return nil, err
	}

	var rows []Record
	for dec.More() {
		rec, err := decodeRecord(dec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", len(rows), err)
		}
		rows = append(rows, rec)
	}

	if err := expectDelim(dec, ']'); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after rows")
	}

	return rows, nil
}

func decodeRecord(dec *json.Decoder) (Record, error) {
	var rec Record
	if err := expectDelim(dec, '{'); err != nil {
		return rec, err
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return rec, err
		}
		key, ok := tok.(string)
		if !ok {
			return rec, fmt.Errorf("unexpected key %v", tok)
		}

		tok, err = dec.Token()
		if err != nil {
			return rec, err
		}

		switch v := tok.(type) {
		case nil:
			rec.Set(key, Null())
		case string:
			rec.Set(key, String(v))
		case json.Number:
			rec.Set(key, Number(v))
		case bool:
			rec.Set(key, Bool(v))
		default:
			return rec, fmt.Errorf("column %q: nested values are not supported", key)
		}
	}

	return rec, expectDelim(dec, '}')
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func isEmptyJSON(raw []byte) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
