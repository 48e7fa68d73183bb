// Package nodes adapts the registry and the inline KV helpers to a
// node-graph host.
//
// Each [Node] declares typed input and output ports and executes on a
// [Values] map. [Default] wires every kvtools node to one registry
// configuration; [Registry.Manifest] describes them for the host UI.
//
//	reg := nodes.Default(cfg)
//	out, err := reg.Execute(ctx, "KVGet", nodes.Values{
//	    "store":   store,
//	    "key":     "speaker",
//	    "as_type": "string",
//	})
package nodes
