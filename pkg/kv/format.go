package kv

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// FormatValue renders a store value as display text.
//
// Strings are returned verbatim, numbers keep their literal form, booleans
// render as "true"/"false" and nil renders as "". Objects and arrays are
// rendered with [CompactJSON]; Go maps carry no order, so object keys come
// out sorted. Use [FormatRaw] to keep document order.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case map[string]any, []any, []map[string]any:
		s, err := CompactJSON(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return s
	default:
		return fmt.Sprint(t)
	}
}

// FormatRaw renders a raw JSON value like [FormatValue], except that
// objects keep the key order of the document.
func FormatRaw(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '{', '[':
		s, err := compactRaw(raw)
		if err != nil {
			return string(raw)
		}
		return s
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return string(raw)
		}
		return s
	case 'n':
		return ""
	default:
		// numbers and booleans keep their literal text
		return string(raw)
	}
}

// compactRaw re-emits raw JSON token by token with the separators used by
// [CompactJSON].
func compactRaw(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	type level struct {
		object bool
		n      int
	}
	var (
		sb    strings.Builder
		stack []level
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if d, ok := tok.(json.Delim); ok && (d == '}' || d == ']') {
			stack = stack[:len(stack)-1]
			sb.WriteByte(byte(d))
			continue
		}

		if len(stack) > 0 {
			top := &stack[len(stack)-1]
			switch {
			case top.object && top.n%2 == 1:
				sb.WriteString(": ")
			case top.n > 0:
				sb.WriteString(", ")
			}
			top.n++
		}

		switch t := tok.(type) {
		case json.Delim:
			sb.WriteByte(byte(t))
			stack = append(stack, level{object: t == '{'})
		case json.Number:
			sb.WriteString(t.String())
		default:
			if err := writeScalar(&sb, t); err != nil {
				return "", err
			}
		}
	}
	return sb.String(), nil
}

// CompactJSON encodes v on a single line with ", " and ": " separators,
// sorted object keys and without escaping non-ASCII or HTML characters.
//
//	CompactJSON(map[string]any{"b": 2, "a": []any{1, "x"}}) // {"a": [1, "x"], "b": 2}
func CompactJSON(v any) (string, error) {
	var sb strings.Builder
	if err := writeCompact(&sb, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeCompact(sb *strings.Builder, v any) error {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := writeScalar(sb, k); err != nil {
				return err
			}
			sb.WriteString(": ")
			if err := writeCompact(sb, t[k]); err != nil {
				return err
			}
		}
		sb.WriteByte('}')
	case []any:
		sb.WriteByte('[')
		for i, item := range t {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := writeCompact(sb, item); err != nil {
				return err
			}
		}
		sb.WriteByte(']')
	case []map[string]any:
		items := make([]any, len(t))
		for i := range t {
			items[i] = t[i]
		}
		return writeCompact(sb, items)
	case json.Number:
		sb.WriteString(t.String())
	default:
		return writeScalar(sb, t)
	}
	return nil
}

func writeScalar(sb *strings.Builder, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	sb.Write(bytes.TrimRight(buf.Bytes(), "\n"))
	return nil
}
