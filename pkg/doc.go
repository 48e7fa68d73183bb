// Package pkg provides the core libraries for kvtools.
//
// # Overview
//
// kvtools lets a node-graph host read key/value data from inline text or
// from a registry of JSON store files, and resolve store keys to image
// files, without ever touching a path outside the registry root. The pkg
// directory is organized into:
//
//  1. [registry] - Sanitizing, scanning, index publishing, safe reads and
//     image resolution
//  2. [kv] - Inline KV text formats, value formatting and casting
//  3. [nodes] - Graph node adapters and their manifest
//  4. [errors] - Structured error codes shared by every layer
//  5. [observability] - Hooks for scan, publish, resolve and HTTP events
//  6. [buildinfo] - Version information set at build time
//
// # Architecture
//
//	custom_kv_stores/*.json
//	         ↓
//	    [registry] Scanner → Index → FileIndexStore / RedisIndexStore
//	         ↓
//	    [registry] Reader / Resolver (sandboxed to the root)
//	         ↓
//	    [nodes] graph nodes, internal/server HTTP endpoints
//
// # Quick Start
//
//	cfg, err := registry.NewConfig("", "")
//	if err != nil {
//	    return err
//	}
//
//	value, err := registry.NewReader(cfg).ReadValue(ctx, "characters.json", "alice")
//	path, err := registry.NewResolver(cfg).ResolveImage(ctx, "characters.json", "alice", "png")
//
// [registry]: https://pkg.go.dev/github.com/matzehuels/kvtools/pkg/registry
// [kv]: https://pkg.go.dev/github.com/matzehuels/kvtools/pkg/kv
// [nodes]: https://pkg.go.dev/github.com/matzehuels/kvtools/pkg/nodes
// [errors]: https://pkg.go.dev/github.com/matzehuels/kvtools/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/kvtools/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/kvtools/pkg/buildinfo
package pkg
