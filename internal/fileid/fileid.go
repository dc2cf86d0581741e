// Package fileid derives deterministic binder ids from file paths, used for binder
// exports that carry no id of their own.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

const prefix = "file:"

// BinderID returns a stable binder id for the given absolute path.
// Same path always yields the same id, so re-importing a file updates the same binder
// and removing it from a watched directory deletes it.
func BinderID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:16])
}

// IsFileID reports whether id was produced by BinderID.
func IsFileID(id string) bool {
	return strings.HasPrefix(id, prefix) && len(id) == len(prefix)+32
}
