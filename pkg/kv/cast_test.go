package kv

import (
	"encoding/json"
	"testing"
)

func TestCast(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		typ     Type
		want    string
		wantErr bool
	}{
		{"string from string", "Tom", TypeString, "Tom", false},
		{"string from nil", nil, TypeString, "", false},
		{"string from number", json.Number("1.50"), TypeString, "1.50", false},
		{"string from object", map[string]any{"a": json.Number("1")}, TypeString, `{"a": 1}`, false},

		{"int from string", " 42 ", TypeInt, "42", false},
		{"int from negative", "-7", TypeInt, "-7", false},
		{"int from json int", json.Number("3"), TypeInt, "3", false},
		{"int truncates json float", json.Number("3.9"), TypeInt, "3", false},
		{"int truncates float", -2.5, TypeInt, "-2", false},
		{"int from bool", true, TypeInt, "1", false},
		{"int from fractional string", "1.5", TypeInt, "", true},
		{"int from word", "many", TypeInt, "", true},
		{"int from nil", nil, TypeInt, "", true},

		{"float from string", "0.5", TypeFloat, "0.5", false},
		{"float integral", "2", TypeFloat, "2.0", false},
		{"float from json", json.Number("7.25"), TypeFloat, "7.25", false},
		{"float large", "1e20", TypeFloat, "1e+20", false},
		{"float small", "0.00001", TypeFloat, "1e-05", false},
		{"float from word", "abc", TypeFloat, "", true},

		{"bool true", "true", TypeBool, "true", false},
		{"bool yes", " YES ", TypeBool, "true", false},
		{"bool y", "y", TypeBool, "true", false},
		{"bool on", "on", TypeBool, "true", false},
		{"bool one", json.Number("1"), TypeBool, "true", false},
		{"bool native", true, TypeBool, "true", false},
		{"bool no", "no", TypeBool, "false", false},
		{"bool garbage", "maybe", TypeBool, "false", false},
		{"bool nil", nil, TypeBool, "false", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cast(tt.value, tt.typ)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Cast(%v, %s) error = %v, wantErr %v", tt.value, tt.typ, err, tt.wantErr)
			}
			if err == nil && got.String() != tt.want {
				t.Errorf("Cast(%v, %s) = %q, want %q", tt.value, tt.typ, got.String(), tt.want)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	s := Store{"steps": "20", "cfg": "high", "name": "Tom"}

	tests := []struct {
		name    string
		key     string
		def     string
		typ     Type
		want    string
		wantErr bool
	}{
		{"present", "steps", "0", TypeInt, "20", false},
		{"trimmed key", "  steps ", "0", TypeInt, "20", false},
		{"missing uses default", "seed", "7", TypeInt, "7", false},
		{"bad value uses default", "cfg", "4.5", TypeFloat, "4.5", false},
		{"bad value and bad default", "cfg", "nope", TypeFloat, "", true},
		{"string", "name", "", TypeString, "Tom", false},
		{"missing string", "other", "", TypeString, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Lookup(s, tt.key, tt.def, tt.typ)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Lookup() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got.String() != tt.want {
				t.Errorf("Lookup() = %q, want %q", got.String(), tt.want)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	tests := map[string]Type{
		"int":     TypeInt,
		"FLOAT":   TypeFloat,
		"bool":    TypeBool,
		"string":  TypeString,
		"complex": TypeString,
		"":        TypeString,
	}
	for input, want := range tests {
		if got := ParseType(input); got != want {
			t.Errorf("ParseType(%q) = %q, want %q", input, got, want)
		}
	}
}
