// Package source loads the declared blocked services from the JSON artifact
// produced by the upstream build.
//
// The artifact is authoritative: if the services field is absent or is not an
// array, loading fails with a ShapeError instead of yielding an empty set, so
// a broken build can never be mistaken for "no blocked services".
package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/afero"
	"github.com/tidwall/gjson"

	"github.com/nonomal/HostlistsRegistry/pkg/constants"
	"github.com/nonomal/HostlistsRegistry/pkg/errors"
	"github.com/nonomal/HostlistsRegistry/pkg/services"
)

// Loader reads declared services from a source artifact.
type Loader struct {
	fs    afero.Fs
	field string
}

// Option configures a Loader.
type Option func(*Loader)

// WithFS sets the filesystem the artifact is read from.
func WithFS(fs afero.Fs) Option {
	return func(l *Loader) {
		l.fs = fs
	}
}

// WithField sets the top-level JSON field holding the records.
func WithField(field string) Option {
	return func(l *Loader) {
		if field != "" {
			l.field = field
		}
	}
}

// New creates a Loader reading from the OS filesystem by default.
func New(opts ...Option) *Loader {
	l := &Loader{
		fs:    afero.NewOsFs(),
		field: constants.BlockedServicesField,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Field returns the JSON field the loader extracts.
func (l *Loader) Field() string {
	return l.field
}

// Load reads path and returns its declared services in document order.
func (l *Loader) Load(path string) (services.Declared, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, errors.NewLoadError(path, err)
	}
	return l.Parse(path, data)
}

// Parse extracts declared services from artifact content. path is only used
// in error messages.
func (l *Loader) Parse(path string, data []byte) (services.Declared, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.NewLoadError(path, errors.NewParseError("json", path, "invalid JSON document", nil))
	}

	list := gjson.GetBytes(data, gjson.Escape(l.field))
	if !list.IsArray() {
		return nil, errors.NewShapeError(path, l.field, kind(list), "expected an array of service records")
	}

	declared := services.Declared{}
	var shapeErr error
	index := 0
	list.ForEach(func(_, value gjson.Result) bool {
		record, err := l.record(path, index, value)
		if err != nil {
			shapeErr = err
			return false
		}
		declared = append(declared, record)
		index++
		return true
	})
	if shapeErr != nil {
		return nil, shapeErr
	}

	return declared, nil
}

// record converts one array element into a services.Record.
func (l *Loader) record(path string, index int, value gjson.Result) (services.Record, error) {
	if !value.IsObject() {
		return services.Record{}, errors.NewRecordShapeError(path, l.field, index, kind(value), "expected a service object")
	}

	id := lastMember(value, constants.IDField)
	if id.Type != gjson.String {
		return services.Record{}, errors.NewRecordShapeError(path, l.field, index, kind(id), "expected a string id")
	}
	if err := validateID(id.Str); err != nil {
		return services.Record{}, errors.NewRecordShapeError(path, l.field, index, strconv.Quote(id.Str), err.Error())
	}

	fields, err := convert(value)
	if err != nil {
		return services.Record{}, errors.NewRecordShapeError(path, l.field, index, "", err.Error())
	}

	return services.Record{
		ID:     id.Str,
		Fields: fields.(yaml.MapSlice),
		Raw:    value.Raw,
	}, nil
}

// validateID rejects identifiers that cannot be used as a plain file name.
func validateID(id string) error {
	switch {
	case id == "":
		return errors.New("id must not be empty")
	case id == "." || id == "..":
		return errors.New("id must not be a relative path element")
	case strings.ContainsAny(id, `/\`):
		return errors.New("id must not contain a path separator")
	case strings.ContainsRune(id, 0):
		return errors.New("id must not contain NUL")
	}
	return nil
}

// convert turns a JSON value into the ordered representation the YAML
// encoder consumes. Objects become yaml.MapSlice to keep key order.
func convert(v gjson.Result) (any, error) {
	switch v.Type {
	case gjson.Null:
		return nil, nil
	case gjson.True:
		return true, nil
	case gjson.False:
		return false, nil
	case gjson.String:
		return v.Str, nil
	case gjson.Number:
		return parseNumber(v.Raw)
	}

	var err error
	if v.IsArray() {
		items := []any{}
		v.ForEach(func(_, item gjson.Result) bool {
			var converted any
			converted, err = convert(item)
			items = append(items, converted)
			return err == nil
		})
		return items, err
	}

	// A repeated key keeps its first position and its last value.
	fields := yaml.MapSlice{}
	positions := map[string]int{}
	v.ForEach(func(key, item gjson.Result) bool {
		var converted any
		converted, err = convert(item)
		if pos, ok := positions[key.Str]; ok {
			fields[pos].Value = converted
			return err == nil
		}
		positions[key.Str] = len(fields)
		fields = append(fields, yaml.MapItem{Key: key.Str, Value: converted})
		return err == nil
	})
	return fields, err
}

// lastMember returns the last occurrence of key in object, matching the
// value convert keeps for a repeated key.
func lastMember(object gjson.Result, key string) gjson.Result {
	var found gjson.Result
	object.ForEach(func(k, item gjson.Result) bool {
		if k.Str == key {
			found = item
		}
		return true
	})
	return found
}

// parseNumber keeps integers exact and falls back to float64. Numbers
// beyond float64 range are rejected since no definition file can hold them.
func parseNumber(raw string) (any, error) {
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i, nil
	}
	if u, err := strconv.ParseUint(raw, 10, 64); err == nil {
		return u, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("number %s is out of range for a definition file", raw)
		}
		return nil, fmt.Errorf("number %s: %w", raw, err)
	}
	return f, nil
}

// kind names the JSON type of a value for error messages.
func kind(v gjson.Result) string {
	if !v.Exists() {
		return "nothing"
	}
	switch v.Type {
	case gjson.Null:
		return "null"
	case gjson.True, gjson.False:
		return "boolean"
	case gjson.Number:
		return "number"
	case gjson.String:
		return "string"
	}
	if v.IsArray() {
		return "array"
	}
	return "object"
}
