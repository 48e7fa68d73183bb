// Package registry indexes and reads key/value store files from a sandboxed
// root directory.
//
// # Layout
//
// A registry lives in one root directory (by default ./custom_kv_stores):
//
//	custom_kv_stores/
//	    characters.json          store file: a JSON object
//	    styles.json
//	    images/
//	        characters/
//	            alice.png        image for key "alice" of characters.json
//	            bob.webp
//
// # Components
//
//   - [SanitizeName] turns any user string into a safe single path segment.
//   - [Scanner] lists the root and builds an [Index] of store files and keys.
//   - [FileIndexStore] and [RedisIndexStore] publish the index for a UI.
//   - [Resolver] maps a store reference and key to an image under images/.
//   - [Reader] reads one value from a store file.
//
// # Sandboxing
//
// Every path the package opens is canonicalized (symlinks resolved) and
// checked to be the root or a descendant of it. A path that escapes is
// reported with the FORBIDDEN error code, never as not-found. Sanitizing
// names is an extra layer on top of that check.
//
// # Usage
//
//	cfg, err := registry.NewConfig("", "")
//	if err != nil {
//	    return err
//	}
//
//	res, written, err := registry.Refresh(ctx, registry.NewScanner(cfg), registry.NewFileIndexStore(cfg.IndexPath))
//
//	path, err := registry.NewResolver(cfg).ResolveImage(ctx, "characters.json", "alice", "png")
//	switch {
//	case errors.Is(err, errors.ErrCodeForbidden):
//	    // reject
//	case errors.IsNotFound(err):
//	    // path still tells where it looked
//	}
package registry
