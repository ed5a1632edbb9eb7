package services

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/token"
)

// encodeOptions keep restored files close to hand-authored ones: two-space
// indent, sequences indented under their key, single-quoted strings.
// The encoder never folds long scalars, so rules stay on one line.
var encodeOptions = []yaml.EncodeOption{
	yaml.Indent(2),
	yaml.IndentSequence(true),
	yaml.UseSingleQuote(true),
}

// Encode serializes the full record as a YAML definition document.
// The output depends only on the record, so encoding the same record twice
// yields identical bytes. Output that would not decode back to the record
// is an error.
func Encode(r Record) ([]byte, error) {
	out, err := yaml.MarshalWithOptions(quoteAmbiguous(r.Fields), encodeOptions...)
	if err != nil {
		return nil, err
	}

	var decoded any
	if err := yaml.Unmarshal(out, &decoded); err != nil {
		return nil, fmt.Errorf("service %s: encoded definition does not parse: %w", r.ID, err)
	}
	if !reflect.DeepEqual(readBackForm(r.Fields), readBackForm(decoded)) {
		return nil, fmt.Errorf("service %s: encoded definition does not read back as the declared record", r.ID)
	}

	return out, nil
}

// quoted is a string that reads back as another type when written plain,
// such as ".inf" or ".nan".
type quoted string

// MarshalYAML implements yaml.BytesMarshaler.
func (q quoted) MarshalYAML() ([]byte, error) {
	return []byte("'" + strings.ReplaceAll(string(q), "'", "''") + "'"), nil
}

// quoteAmbiguous wraps string values the encoder would leave unquoted even
// though they decode as a non-string scalar.
func quoteAmbiguous(v any) any {
	switch v := v.(type) {
	case yaml.MapSlice:
		out := make(yaml.MapSlice, len(v))
		for i, item := range v {
			out[i] = yaml.MapItem{Key: item.Key, Value: quoteAmbiguous(item.Value)}
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = quoteAmbiguous(item)
		}
		return out
	case string:
		if !token.IsNeedQuoted(v) && token.New(v, v, &token.Position{}).Type != token.StringType {
			return quoted(v)
		}
		return v
	default:
		return v
	}
}

// readBackForm maps a record and its decoded form onto the same shapes:
// mappings become map[string]any and every number becomes float64.
func readBackForm(v any) any {
	switch v := v.(type) {
	case yaml.MapSlice:
		out := make(map[string]any, len(v))
		for _, item := range v {
			out[fmt.Sprint(item.Key)] = readBackForm(item.Value)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = readBackForm(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = readBackForm(item)
		}
		return out
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case float64:
		return v
	case quoted:
		return string(v)
	default:
		return v
	}
}
