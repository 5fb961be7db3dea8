package pact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FormatValue renders a decoded JSON value the way it appears in diagnostics:
// strings verbatim, numbers by their literal, nil as null and structures as
// compact JSON.
func FormatValue(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return "null"
	case string:
		return value
	case json.Number:
		return value.String()
	case float64:
		return strconv.FormatFloat(value, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	case int:
		return strconv.Itoa(value)
	case map[string]interface{}, []interface{}:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(value); err != nil {
			return fmt.Sprint(value)
		}
		return string(bytes.TrimRight(buf.Bytes(), "\n"))
	default:
		return fmt.Sprint(value)
	}
}
