package badger

import (
	"encoding/binary"

	"github.com/auditforge/workspacefs/pkg/vfs"
)

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so prefixed keys organize the two data
// types that share one database into namespaces.
//
// Data Type     Prefix   Key Format           Value Type
// =========================================================
// File Content  "c:"     c:<ino uint64 BE>    raw bytes
// Snapshots     "s:"     s:<name>             raw bytes (JSON)
//
// Content keys encode the inode big-endian so a prefix scan over "c:"
// yields inodes in ascending numeric order.
const (
	prefixContent  = "c:"
	prefixSnapshot = "s:"
)

// keyContent generates the key for an inode's content.
func keyContent(ino vfs.Ino) []byte {
	key := make([]byte, len(prefixContent)+8)
	copy(key, prefixContent)
	binary.BigEndian.PutUint64(key[len(prefixContent):], uint64(ino))
	return key
}

// inoFromContentKey parses a content key. ok is false for foreign keys.
func inoFromContentKey(key []byte) (vfs.Ino, bool) {
	if len(key) != len(prefixContent)+8 || string(key[:len(prefixContent)]) != prefixContent {
		return 0, false
	}
	return vfs.Ino(binary.BigEndian.Uint64(key[len(prefixContent):])), true
}

// keySnapshot generates the key for a named snapshot.
func keySnapshot(name string) []byte {
	return []byte(prefixSnapshot + name)
}
