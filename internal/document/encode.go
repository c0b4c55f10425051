package document

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tidwall/pretty"
)

var prettyOptions = &pretty.Options{
	Width:    0,
	Prefix:   "",
	Indent:   "  ",
	SortKeys: false,
}

// Encode renders v as JSON indented with two spaces and terminated by a
// newline. Object keys are written in their stored order.
func Encode(v Value) []byte {
	var buf bytes.Buffer
	writeValue(&buf, v)
	return pretty.PrettyOptions(buf.Bytes(), prettyOptions)
}

// Compact renders v on a single line.
func Compact(v Value) string {
	var buf bytes.Buffer
	writeValue(&buf, v)
	return buf.String()
}

func writeValue(buf *bytes.Buffer, v Value) {
	switch t := v.(type) {
	case *Object:
		buf.WriteByte('{')
		for i, k := range t.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, k)
			buf.WriteByte(':')
			child, _ := t.Get(k)
			writeValue(buf, child)
		}
		buf.WriteByte('}')
	case Array:
		buf.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeValue(buf, item)
		}
		buf.WriteByte(']')
	case String:
		writeString(buf, string(t))
	case Number:
		buf.WriteString(string(t))
	case Bool:
		if t {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case Null, nil:
		buf.WriteString("null")
	default:
		panic(fmt.Sprintf("document: unknown value %T", v))
	}
}

// writeString quotes s without the HTML escaping encoding/json applies by
// default, so scripts such as "a && b" stay readable.
func writeString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
}
