// Package kv parses, renders and casts flat key/value stores.
//
// A [Store] is the mapping graph nodes pass between each other. It is built
// from inline text typed into a node, or loaded from a registry file.
//
// # Formats
//
// [Parse] understands four formats:
//
//   - kv: one "key=value" or "key: value" per line, "#" comments
//   - json: a single JSON object
//   - toml: a TOML document
//   - yaml: a YAML mapping
//
// [FormatAuto] picks JSON when the text is wrapped in braces or brackets and
// kv otherwise:
//
//	s, err := kv.Parse("speaker=Tom\nlang=de", kv.FormatAuto)
//	// s["speaker"] == "Tom"
//
// # Casting
//
// [Lookup] fetches a value and casts it to string, int, float or bool,
// falling back to a default when the key is missing or the cast fails:
//
//	v, err := kv.Lookup(s, "steps", "20", kv.TypeInt)
//	fmt.Println(v) // 20
package kv
