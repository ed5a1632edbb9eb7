package services_test

import (
	"strings"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nonomal/HostlistsRegistry/pkg/services"
)

func record(id string, fields ...yaml.MapItem) services.Record {
	return services.Record{
		ID:     id,
		Fields: append(yaml.MapSlice{{Key: "id", Value: id}}, fields...),
	}
}

func TestMissing(t *testing.T) {
	declared := services.Declared{record("a"), record("b"), record("c"), record("d")}
	index := services.Index{
		"b": {ID: "b", File: "b.yml"},
		"x": {ID: "x", File: "x.yml"},
	}

	missing := services.Missing(declared, index)
	assert.Equal(t, []string{"a", "c", "d"}, missing.IDs())
}

func TestMissingNothing(t *testing.T) {
	declared := services.Declared{record("a")}
	index := services.Index{"a": {ID: "a"}}

	assert.Empty(t, services.Missing(declared, index))
	assert.Empty(t, services.Missing(nil, index))
}

func TestMissingComparesNormalizedIDs(t *testing.T) {
	declared := services.Declared{record("e\u0301")}
	index := services.Index{"\u00e9": {ID: "\u00e9"}}

	assert.Empty(t, services.Missing(declared, index))
}

func TestRecordField(t *testing.T) {
	r := record("svc", yaml.MapItem{Key: "name", Value: "Service"})

	v, ok := r.Field("name")
	assert.True(t, ok)
	assert.Equal(t, "Service", v)

	_, ok = r.Field("rules")
	assert.False(t, ok)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "youtube.yml", services.FileName("youtube", ".yml"))
}

func TestEncode(t *testing.T) {
	t.Run("simple record", func(t *testing.T) {
		out, err := services.Encode(record("svc2", yaml.MapItem{Key: "name", Value: "Y"}))
		require.NoError(t, err)
		assert.Equal(t, "id: svc2\nname: Y\n", string(out))
	})

	t.Run("keeps field order", func(t *testing.T) {
		out, err := services.Encode(record("z",
			yaml.MapItem{Key: "name", Value: "Z"},
			yaml.MapItem{Key: "group", Value: "cdn"},
			yaml.MapItem{Key: "aaa", Value: int64(1)},
		))
		require.NoError(t, err)

		text := string(out)
		assert.Less(t, strings.Index(text, "name:"), strings.Index(text, "group:"))
		assert.Less(t, strings.Index(text, "group:"), strings.Index(text, "aaa:"))
	})

	t.Run("does not wrap long lines", func(t *testing.T) {
		long := strings.Repeat("very-long-rule-segment.", 40)
		out, err := services.Encode(record("long", yaml.MapItem{Key: "rules", Value: []any{long}}))
		require.NoError(t, err)

		var found bool
		for _, line := range strings.Split(string(out), "\n") {
			if strings.Contains(line, long) {
				found = true
			}
		}
		assert.True(t, found, "long value must stay on a single line:\n%s", out)
	})

	t.Run("deterministic", func(t *testing.T) {
		r := record("svc", yaml.MapItem{Key: "rules", Value: []any{"||a.com^", "||b.com^"}})
		first, err := services.Encode(r)
		require.NoError(t, err)
		second, err := services.Encode(r)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("round trip", func(t *testing.T) {
		r := record("svc",
			yaml.MapItem{Key: "name", Value: "Service"},
			yaml.MapItem{Key: "rules", Value: []any{"||a.com^", "||b.com^$important"}},
			yaml.MapItem{Key: "meta", Value: yaml.MapSlice{{Key: "n", Value: int64(3)}, {Key: "ok", Value: true}}},
		)
		out, err := services.Encode(r)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal(out, &decoded))
		assert.Equal(t, "svc", decoded["id"])
		assert.Equal(t, "Service", decoded["name"])
		assert.Equal(t, []any{"||a.com^", "||b.com^$important"}, decoded["rules"])
		meta, ok := decoded["meta"].(map[string]any)
		require.True(t, ok)
		assert.EqualValues(t, 3, meta["n"])
		assert.Equal(t, true, meta["ok"])
	})
	t.Run("quotes strings that read back as numbers", func(t *testing.T) {
		r := record(".inf",
			yaml.MapItem{Key: "name", Value: ".nan"},
			yaml.MapItem{Key: "rules", Value: []any{"-.Inf", "||a.com^"}},
			yaml.MapItem{Key: "enabled", Value: "true"},
		)
		out, err := services.Encode(r)
		require.NoError(t, err)
		assert.Contains(t, string(out), "id: '.inf'")

		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal(out, &decoded))
		assert.Equal(t, ".inf", decoded["id"])
		assert.Equal(t, ".nan", decoded["name"])
		assert.Equal(t, []any{"-.Inf", "||a.com^"}, decoded["rules"])
		assert.Equal(t, "true", decoded["enabled"])
	})

	t.Run("rejects output that reads back differently", func(t *testing.T) {
		r := record("svc", yaml.MapItem{Key: "meta", Value: struct{ Name string }{"x"}})
		out, err := services.Encode(r)
		require.Error(t, err)
		assert.Nil(t, out)
		assert.Contains(t, err.Error(), "svc")
	})
}
