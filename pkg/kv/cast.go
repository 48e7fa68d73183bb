package kv

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	kverrors "github.com/matzehuels/kvtools/pkg/errors"
)

// Type is the target type of a cast.
type Type string

// Supported cast targets.
const (
	TypeString Type = "string"
	TypeInt    Type = "int"
	TypeFloat  Type = "float"
	TypeBool   Type = "bool"
)

// Types lists the cast targets in display order.
var Types = []Type{TypeString, TypeInt, TypeFloat, TypeBool}

// ParseType returns the named type. Unknown names fall back to TypeString.
func ParseType(s string) Type {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeInt, TypeFloat, TypeBool:
		return t
	default:
		return TypeString
	}
}

// truthy holds the strings that cast to true.
var truthy = map[string]bool{"1": true, "true": true, "yes": true, "y": true, "on": true}

// Value is the typed result of a cast. Only the field matching Type is set.
type Value struct {
	Type  Type
	Str   string
	Int   int64
	Float float64
	Bool  bool
}

// String renders the value the way graph outputs display it.
func (v Value) String() string {
	switch v.Type {
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return formatFloat(v.Float)
	case TypeBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// Cast converts a store value to t.
//
// Integer casts of fractional numbers truncate toward zero; integer casts of
// strings require an integer literal. Bool casts never fail: the value's
// text, trimmed and lowercased, is true when it is one of
// 1, true, yes, y, on.
func Cast(v any, t Type) (Value, error) {
	switch t {
	case TypeInt:
		i, err := toInt(v)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: TypeInt, Int: i}, nil
	case TypeFloat:
		f, err := toFloat(v)
		if err != nil {
			return Value{}, err
		}
		return Value{Type: TypeFloat, Float: f}, nil
	case TypeBool:
		s := strings.ToLower(strings.TrimSpace(FormatValue(v)))
		return Value{Type: TypeBool, Bool: truthy[s]}, nil
	default:
		return Value{Type: TypeString, Str: FormatValue(v)}, nil
	}
}

// Lookup fetches key (trimmed) from s and casts it to t. A missing key uses
// def instead. When the stored value cannot be cast, def is cast instead;
// if that fails too the error is returned.
func Lookup(s Store, key, def string, t Type) (Value, error) {
	raw, ok := s[strings.TrimSpace(key)]
	if !ok {
		raw = def
	}

	v, err := Cast(raw, t)
	if err == nil {
		return v, nil
	}
	v, err = Cast(def, t)
	if err != nil {
		return Value{}, kverrors.Wrap(kverrors.ErrCodeInvalidInput, err, "default %q is not a valid %s", def, t)
	}
	return v, nil
}

func toInt(v any) (int64, error) {
	switch t := v.(type) {
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, kverrors.New(kverrors.ErrCodeInvalidInput, "invalid int: %q", t)
		}
		return i, nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return 0, kverrors.New(kverrors.ErrCodeInvalidInput, "invalid int: %q", t.String())
		}
		return truncate(f)
	case float64:
		return truncate(t)
	case int:
		return int64(t), nil
	case int64:
		return t, nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, kverrors.New(kverrors.ErrCodeInvalidInput, "cannot cast %T to int", v)
	}
}

func truncate(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0, kverrors.New(kverrors.ErrCodeInvalidInput, "cannot cast %v to int", f)
	}
	return int64(math.Trunc(f)), nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, kverrors.New(kverrors.ErrCodeInvalidInput, "invalid float: %q", t)
		}
		return f, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, kverrors.New(kverrors.ErrCodeInvalidInput, "invalid float: %q", t.String())
		}
		return f, nil
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case bool:
		if t {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, kverrors.New(kverrors.ErrCodeInvalidInput, "cannot cast %T to float", v)
	}
}

// formatFloat renders f with a decimal point for integral values and
// switches to exponent form for very large or very small magnitudes.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
