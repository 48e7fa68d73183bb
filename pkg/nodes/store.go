package nodes

import (
	"context"
	"strings"

	"github.com/matzehuels/kvtools/pkg/kv"
	"github.com/matzehuels/kvtools/pkg/registry"
)

// LoadInline parses text typed into the node into a store.
type LoadInline struct{}

func (LoadInline) Name() string        { return "KVLoadInline" }
func (LoadInline) DisplayName() string { return "KV Load Inline" }
func (LoadInline) Category() string    { return Category }

func (LoadInline) Inputs() []Port {
	return []Port{
		{
			Name:        "data",
			Type:        TypeString,
			Multiline:   true,
			Placeholder: "{\n  \"speaker\": \"Tom\",\n  \"lang\": \"de\"\n}\n# or:\n# speaker=Tom\n# lang=de",
		},
		{Name: "format", Type: TypeChoice, Optional: true, Default: string(kv.FormatAuto), Choices: formatChoices(true)},
	}
}

func (LoadInline) Outputs() []Port {
	return []Port{{Name: "store", Type: TypeKV}}
}

func (LoadInline) Execute(_ context.Context, in Values) (Values, error) {
	f, err := kv.ParseFormat(stringInput(in, "format"))
	if err != nil {
		return nil, err
	}
	store, err := kv.Parse(stringInput(in, "data"), f)
	if err != nil {
		return nil, err
	}
	return Values{"store": store}, nil
}

// LoadFromRegistry loads a whole store file from the registry root.
type LoadFromRegistry struct {
	reader *registry.Reader
}

// NewLoadFromRegistry creates the node over reader.
func NewLoadFromRegistry(reader *registry.Reader) *LoadFromRegistry {
	return &LoadFromRegistry{reader: reader}
}

func (*LoadFromRegistry) Name() string        { return "KVLoadFromRegistry" }
func (*LoadFromRegistry) DisplayName() string { return "KV Load from Registry" }
func (*LoadFromRegistry) Category() string    { return Category }

// Inputs lists the store files present right now, or (none).
func (n *LoadFromRegistry) Inputs() []Port {
	choices, err := n.reader.StoreNames()
	if err != nil || len(choices) == 0 {
		choices = []string{NoneChoice}
	}
	return []Port{{Name: "file_name", Type: TypeChoice, Default: choices[0], Choices: choices}}
}

func (*LoadFromRegistry) Outputs() []Port {
	return []Port{
		{Name: "store", Type: TypeKV},
		{Name: "path", Type: TypeString},
	}
}

func (n *LoadFromRegistry) Execute(ctx context.Context, in Values) (Values, error) {
	name := strings.TrimSpace(stringInput(in, "file_name"))
	if name == "" || name == NoneChoice {
		return Values{"store": kv.Store{}, "path": ""}, nil
	}
	store, path, err := n.reader.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return Values{"store": store, "path": path}, nil
}

// Get looks up one key of a store and casts it.
type Get struct{}

func (Get) Name() string        { return "KVGet" }
func (Get) DisplayName() string { return "KV Get Value" }
func (Get) Category() string    { return Category }

func (Get) Inputs() []Port {
	types := make([]string, len(kv.Types))
	for i, t := range kv.Types {
		types[i] = string(t)
	}
	return []Port{
		{Name: "store", Type: TypeKV},
		{Name: "key", Type: TypeString, Default: "", Placeholder: "set via dropdown"},
		{Name: "default", Type: TypeString, Default: ""},
		{Name: "as_type", Type: TypeChoice, Default: string(kv.TypeString), Choices: types},
		{Name: "keys_hint", Type: TypeString, Optional: true, Multiline: true, Default: ""},
	}
}

func (Get) Outputs() []Port {
	return []Port{
		{Name: "value", Type: TypeString},
		{Name: "keys", Type: TypeString},
	}
}

// Execute returns the value as text and the store's sorted keys joined by
// newlines. keys_hint is only read by the UI.
func (Get) Execute(_ context.Context, in Values) (Values, error) {
	store, err := storeInput(in, "store")
	if err != nil {
		return nil, err
	}
	v, err := kv.Lookup(store, stringInput(in, "key"), stringInput(in, "default"), kv.ParseType(stringInput(in, "as_type")))
	if err != nil {
		return nil, err
	}
	return Values{"value": v.String(), "keys": strings.Join(store.Keys(), "\n")}, nil
}

// Dump renders a store back to text in one of the inline formats.
type Dump struct{}

func (Dump) Name() string        { return "KVDump" }
func (Dump) DisplayName() string { return "KV Dump to Text" }
func (Dump) Category() string    { return Category }

func (Dump) Inputs() []Port {
	return []Port{
		{Name: "store", Type: TypeKV},
		{Name: "format", Type: TypeChoice, Default: string(kv.FormatJSON), Choices: formatChoices(false)},
		{Name: "pretty", Type: TypeBool, Optional: true, Default: true},
	}
}

func (Dump) Outputs() []Port {
	return []Port{{Name: "text", Type: TypeString}}
}

func (Dump) Execute(_ context.Context, in Values) (Values, error) {
	store, err := storeInput(in, "store")
	if err != nil {
		return nil, err
	}
	f, err := kv.ParseFormat(stringInput(in, "format"))
	if err != nil {
		return nil, err
	}
	if f == kv.FormatAuto {
		f = kv.FormatJSON
	}
	text, err := kv.Dump(store, f, boolInput(in, "pretty", true))
	if err != nil {
		return nil, err
	}
	return Values{"text": text}, nil
}

func formatChoices(withAuto bool) []string {
	var out []string
	if withAuto {
		out = append(out, string(kv.FormatAuto))
	}
	for _, f := range kv.Formats {
		out = append(out, string(f))
	}
	return out
}
