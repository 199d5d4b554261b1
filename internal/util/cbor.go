package util

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// RenderCBOR decodes raw CBOR and renders it as single-line JSON. Byte
// strings are shown in diagnostic notation (h'..') and tags as objects.
func RenderCBOR(raw []byte) (string, error) {
	if len(raw) == 0 {
		return "null", nil
	}
	var decoded any
	if err := cbor.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode cbor: %w", err)
	}
	out, err := json.Marshal(toJSONValue(decoded))
	if err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return string(out), nil
}

func toJSONValue(value any) any {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = toJSONValue(elem)
		}
		return out
	case map[any]any:
		// encoding/json sorts the string keys
		out := make(map[string]any, len(v))
		for key, val := range v {
			out[stringifyKey(key)] = toJSONValue(val)
		}
		return out
	case []byte:
		return fmt.Sprintf("h'%x'", v)
	case cbor.Tag:
		return map[string]any{
			"_cborTag": v.Number,
			"content":  toJSONValue(v.Content),
		}
	default:
		return v
	}
}

func stringifyKey(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case []byte:
		return fmt.Sprintf("h'%x'", k)
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprint(k)
	}
}
