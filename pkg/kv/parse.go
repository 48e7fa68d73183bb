package kv

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	kverrors "github.com/matzehuels/kvtools/pkg/errors"
)

// Store is a flat string-keyed mapping. Values are whatever the source
// format produced: strings for kv text, json.Number for JSON numbers,
// nested maps and slices for structured values.
type Store map[string]any

// Keys returns the store's keys in sorted order.
func (s Store) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Format names an inline text format.
type Format string

// Supported formats.
const (
	FormatAuto Format = "auto"
	FormatJSON Format = "json"
	FormatKV   Format = "kv"
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Formats lists every concrete format, in display order.
var Formats = []Format{FormatJSON, FormatKV, FormatTOML, FormatYAML}

// ParseFormat converts a user-supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatJSON, FormatKV, FormatTOML, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", kverrors.New(kverrors.ErrCodeInvalidFormat, "unknown format: %s", s)
	}
}

// kvLine matches "key = value" and "key: value" lines.
var kvLine = regexp.MustCompile(`^\s*([^=:#]+)\s*[:=]\s*(.*)\s*$`)

// Detect guesses the format of text. Text wrapped in braces or brackets is
// JSON, anything else is kv.
func Detect(text string) Format {
	text = strings.TrimSpace(text)
	if (strings.HasPrefix(text, "{") && strings.HasSuffix(text, "}")) ||
		(strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]")) {
		return FormatJSON
	}
	return FormatKV
}

// Parse converts inline text into a Store.
//
// With [FormatAuto] the format is chosen by [Detect]. Empty text yields an
// empty store for every format. The top level of JSON, TOML and YAML input
// must be a mapping.
func Parse(text string, f Format) (Store, error) {
	text = strings.TrimSpace(text)
	if f == "" || f == FormatAuto {
		f = Detect(text)
	}

	switch f {
	case FormatJSON:
		return parseJSON(text)
	case FormatKV:
		return parseKV(text)
	case FormatTOML:
		return parseTOML(text)
	case FormatYAML:
		return parseYAML(text)
	default:
		return nil, kverrors.New(kverrors.ErrCodeInvalidFormat, "unknown format: %s", f)
	}
}

func parseJSON(text string) (Store, error) {
	if text == "" {
		return Store{}, nil
	}
	obj, err := DecodeObject(strings.NewReader(text))
	if err != nil {
		return nil, kverrors.Wrap(kverrors.ErrCodeInvalidFormat, err, "json")
	}
	return obj, nil
}

func parseKV(text string) (Store, error) {
	out := Store{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := kvLine.FindStringSubmatch(line)
		if m == nil {
			return nil, kverrors.New(kverrors.ErrCodeInvalidFormat, "not a valid kv line: %s", line)
		}
		out[strings.TrimSpace(m[1])] = strings.TrimSpace(m[2])
	}
	return out, nil
}

func parseTOML(text string) (Store, error) {
	var m map[string]any
	if _, err := toml.Decode(text, &m); err != nil {
		return nil, kverrors.Wrap(kverrors.ErrCodeInvalidFormat, err, "toml")
	}
	if m == nil {
		return Store{}, nil
	}
	return Store(m), nil
}

func parseYAML(text string) (Store, error) {
	if text == "" {
		return Store{}, nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return nil, kverrors.Wrap(kverrors.ErrCodeInvalidFormat, err, "yaml")
	}
	switch t := v.(type) {
	case nil:
		return Store{}, nil
	case map[string]any:
		return Store(t), nil
	default:
		return nil, kverrors.New(kverrors.ErrCodeInvalidFormat, "yaml document is not a mapping")
	}
}

// ErrNotObject is returned by [DecodeObject] when the document is valid JSON
// whose top-level value is not an object.
var ErrNotObject = errors.New("not an object")

// DecodeObject decodes a single JSON object from r. Numbers are kept as
// json.Number so their literal text survives. Trailing data after the
// object is an error.
func DecodeObject(r io.Reader) (Store, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, ErrNotObject
	}
	return Store(obj), nil
}

// DecodeRawObject is [DecodeObject] but leaves each top-level value as raw
// JSON, so nested objects keep their document key order. Render values
// with [FormatRaw].
func DecodeRawObject(r io.Reader) (map[string]json.RawMessage, error) {
	dec := json.NewDecoder(r)

	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after top-level value")
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, ErrNotObject
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, err
	}
	return obj, nil
}
