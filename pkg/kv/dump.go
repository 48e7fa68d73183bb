package kv

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	kverrors "github.com/matzehuels/kvtools/pkg/errors"
)

// Dump renders a store in the given format. Keys are emitted in sorted
// order. With pretty set, JSON output is indented by two spaces; otherwise
// it is a single line as produced by [CompactJSON].
func Dump(s Store, f Format, pretty bool) (string, error) {
	if s == nil {
		s = Store{}
	}

	switch f {
	case FormatJSON:
		if !pretty {
			return CompactJSON(map[string]any(s))
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]any(s)); err != nil {
			return "", kverrors.Wrap(kverrors.ErrCodeInvalidFormat, err, "encode json")
		}
		return strings.TrimRight(buf.String(), "\n"), nil

	case FormatKV:
		lines := make([]string, 0, len(s))
		for _, k := range s.Keys() {
			lines = append(lines, k+"="+FormatValue(s[k]))
		}
		return strings.Join(lines, "\n"), nil

	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(plain(map[string]any(s))); err != nil {
			return "", kverrors.Wrap(kverrors.ErrCodeInvalidFormat, err, "encode toml")
		}
		return strings.TrimRight(buf.String(), "\n"), nil

	case FormatYAML:
		out, err := yaml.Marshal(plain(map[string]any(s)))
		if err != nil {
			return "", kverrors.Wrap(kverrors.ErrCodeInvalidFormat, err, "encode yaml")
		}
		return strings.TrimRight(string(out), "\n"), nil

	default:
		return "", kverrors.New(kverrors.ErrCodeInvalidFormat, "unknown format to write: %s", f)
	}
}

// plain converts json.Number values to int64 or float64 and drops nil map
// entries, which TOML cannot represent.
func plain(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			if item == nil {
				continue
			}
			out[k] = plain(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plain(item)
		}
		return out
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return t
	}
}
