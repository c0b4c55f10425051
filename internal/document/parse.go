package document

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"github.com/tidwall/jsonc"
)

// ErrMalformed is returned when the input is not a JSON object.
var ErrMalformed = errors.New("document: not a valid JSON object")

var bom = []byte("\xef\xbb\xbf")

// Parse decodes data into an ordered object. Keys keep the order they appear
// in the input. A leading byte order mark, comments and trailing commas are
// accepted, as tsc and npm accept them; comments are not preserved.
func Parse(data []byte) (*Object, error) {
	data = jsonc.ToJSON(bytes.TrimPrefix(data, bom))
	if !gjson.ValidBytes(data) {
		return nil, ErrMalformed
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return nil, fmt.Errorf("%w: top level is %s", ErrMalformed, res.Type)
	}
	return fromResult(res).(*Object), nil
}

// ReadFile reads and parses the JSON object stored at path. Errors from the
// file system are returned unwrapped so callers can test os.ErrNotExist.
func ReadFile(path string) (*Object, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	obj, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obj, nil
}

func fromResult(r gjson.Result) Value {
	switch {
	case r.IsObject():
		obj := NewObject()
		r.ForEach(func(key, value gjson.Result) bool {
			obj.Set(key.String(), fromResult(value))
			return true
		})
		return obj
	case r.IsArray():
		arr := Array{}
		r.ForEach(func(_, value gjson.Result) bool {
			arr = append(arr, fromResult(value))
			return true
		})
		return arr
	}

	switch r.Type {
	case gjson.String:
		return String(r.String())
	case gjson.Number:
		return Number(r.Raw)
	case gjson.True:
		return Bool(true)
	case gjson.False:
		return Bool(false)
	default:
		return Null{}
	}
}
