package nodes

import (
	"context"
	"fmt"
	"sort"

	kverrors "github.com/matzehuels/kvtools/pkg/errors"
	"github.com/matzehuels/kvtools/pkg/kv"
)

// Category groups every kvtools node in the host's node menu.
const Category = "Utils/KV"

// NoneChoice is offered by choice inputs that have nothing to choose from.
const NoneChoice = "(none)"

// Port types understood by the host.
const (
	TypeKV     = "KV"
	TypeString = "STRING"
	TypeBool   = "BOOLEAN"
	TypeImage  = "IMAGE"
	TypeChoice = "CHOICE"
)

// Port describes one input or output socket of a node.
type Port struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Optional    bool     `json:"optional,omitempty"`
	Default     any      `json:"default,omitempty"`
	Choices     []string `json:"choices,omitempty"`
	Multiline   bool     `json:"multiline,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
}

// Values carries named port values into and out of a node.
type Values map[string]any

// Node is one graph node exposed to the host.
type Node interface {
	// Name is the stable class name the host stores in saved graphs.
	Name() string
	DisplayName() string
	Category() string
	Inputs() []Port
	Outputs() []Port
	Execute(ctx context.Context, in Values) (Values, error)
}

// Descriptor is the JSON description of a node in a manifest.
type Descriptor struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Category    string `json:"category"`
	Inputs      []Port `json:"inputs"`
	Outputs     []Port `json:"outputs"`
}

// Describe returns the manifest entry for n.
func Describe(n Node) Descriptor {
	return Descriptor{
		Name:        n.Name(),
		DisplayName: n.DisplayName(),
		Category:    n.Category(),
		Inputs:      n.Inputs(),
		Outputs:     n.Outputs(),
	}
}

// Registry maps class names to nodes.
type Registry struct {
	nodes map[string]Node
}

// NewRegistry creates a registry holding nodes. Later nodes replace
// earlier ones with the same name.
func NewRegistry(nodes ...Node) *Registry {
	r := &Registry{nodes: make(map[string]Node, len(nodes))}
	for _, n := range nodes {
		r.Register(n)
	}
	return r
}

// Register adds or replaces n.
func (r *Registry) Register(n Node) {
	r.nodes[n.Name()] = n
}

// Get returns the node with the given class name.
func (r *Registry) Get(name string) (Node, bool) {
	n, ok := r.nodes[name]
	return n, ok
}

// Names returns the registered class names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Manifest describes every registered node, sorted by class name.
func (r *Registry) Manifest() []Descriptor {
	names := r.Names()
	descs := make([]Descriptor, 0, len(names))
	for _, name := range names {
		descs = append(descs, Describe(r.nodes[name]))
	}
	return descs
}

// Execute runs the named node. Unknown names are a NOT_FOUND error.
func (r *Registry) Execute(ctx context.Context, name string, in Values) (Values, error) {
	n, ok := r.Get(name)
	if !ok {
		return nil, kverrors.New(kverrors.ErrCodeNotFound, "unknown node: %s", name)
	}
	if in == nil {
		in = Values{}
	}
	return n.Execute(ctx, in)
}

// stringInput returns the named input as a string. Missing and nil inputs
// are "". Non-string values use their display text.
func stringInput(in Values, name string) string {
	switch v := in[name].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return kv.FormatValue(v)
	}
}

// boolInput returns the named input as a bool, defaulting to def.
func boolInput(in Values, name string, def bool) bool {
	switch v := in[name].(type) {
	case bool:
		return v
	case nil:
		return def
	default:
		b, _ := kv.Cast(v, kv.TypeBool)
		return b.Bool
	}
}

// storeInput returns the named input as a store.
func storeInput(in Values, name string) (kv.Store, error) {
	switch v := in[name].(type) {
	case kv.Store:
		return v, nil
	case map[string]any:
		return kv.Store(v), nil
	default:
		return nil, kverrors.New(kverrors.ErrCodeInvalidInput, "%s is not a KV store (got %s)", name, typeName(v))
	}
}

func typeName(v any) string {
	if v == nil {
		return "nothing"
	}
	return fmt.Sprintf("%T", v)
}
