package errors

import (
	"strings"
	"unicode"
)

// maxReferenceLength bounds store references and keys accepted from callers.
const maxReferenceLength = 1024

// ValidateReference checks a caller-supplied store reference or key.
//
// References are sanitized and sandbox-checked later, so only these are
// rejected here:
//   - No empty (or whitespace-only) values
//   - No null bytes or other control characters
//   - Maximum length of 1024 bytes
func ValidateReference(kind, value string) error {
	if strings.TrimSpace(value) == "" {
		return New(ErrCodeInvalidReference, "%s cannot be empty", kind)
	}

	if len(value) > maxReferenceLength {
		return New(ErrCodeInvalidReference, "%s too long (max %d characters)", kind, maxReferenceLength)
	}

	for _, r := range value {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidReference, "%s contains invalid control characters", kind)
		}
	}

	return nil
}

// ValidateStoreKey checks a key looked up in a store. Any JSON object key is
// acceptable, including whitespace-only and very long ones; only empty keys
// and keys with control characters are rejected.
func ValidateStoreKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidReference, "key cannot be empty")
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidReference, "key contains invalid control characters")
		}
	}
	return nil
}

// ValidateStoreFileName validates the name of a store file under the root.
// It must be a bare base name ending in ".json"; directory components are
// rejected rather than silently stripped.
func ValidateStoreFileName(name string) error {
	if err := ValidateReference("file name", name); err != nil {
		return err
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidReference, "file name cannot contain path separators")
	}

	if name == "." || name == ".." {
		return New(ErrCodeInvalidReference, "file name cannot be a directory reference")
	}

	if !HasJSONExt(name) {
		return New(ErrCodeInvalidReference, "file name must end in .json: %q", name)
	}

	return nil
}

// HasJSONExt reports whether name ends in ".json", ignoring case.
func HasJSONExt(name string) bool {
	return len(name) > len(".json") && strings.EqualFold(name[len(name)-len(".json"):], ".json")
}
