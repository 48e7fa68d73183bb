package nodes

import "github.com/matzehuels/kvtools/pkg/registry"

// Default returns a registry holding every kvtools node, reading from and
// resolving against cfg.
func Default(cfg registry.Config) *Registry {
	resolver := registry.NewResolver(cfg)
	return NewRegistry(
		LoadInline{},
		NewLoadFromRegistry(registry.NewReader(cfg)),
		Get{},
		Dump{},
		NewImagePathFromRegistry(resolver),
		NewPreviewImageFromRegistry(resolver),
	)
}
