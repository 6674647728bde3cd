// Package vfs implements the in-memory workspace filesystem tree.
//
// The tree is a hierarchy of directories and files keyed by path. Every entry
// carries an InodeMeta whose Ino is stable across renames and unique for the
// lifetime of the tree. File bytes are not stored here: they live in a
// content store addressed by Ino (see pkg/store/content).
//
// The package is deliberately free of locking. Callers that share a Tree
// between goroutines (pkg/filesystem) serialize access themselves.
package vfs

import (
	"encoding/json"
	"math"
	"time"
)

// Ino is the identity of a filesystem entry.
//
// It is a distinct type so that inode numbers cannot be mixed up with sizes,
// modes or timestamps at compile time.
type Ino uint64

// FileType distinguishes files from directories.
type FileType string

const (
	FileTypeFile FileType = "file"
	FileTypeDir  FileType = "dir"
)

// DefaultMode is the permission-like mode given to new entries (0o777).
// The mode is stored and round-tripped but never enforced.
const DefaultMode uint32 = 0o777

// InodeMeta holds the stat-like attributes of a filesystem entry.
//
// The JSON field names are the persisted shape and must not change: older
// snapshots are decoded through CoerceInodeMeta.
type InodeMeta struct {
	Ino     Ino      `json:"ino"`
	Type    FileType `json:"type"`
	Mode    uint32   `json:"mode"`
	MtimeMs int64    `json:"mtimeMs"`
	// Size is the byte length of the committed content. Always 0 for
	// directories.
	Size int64 `json:"size"`
}

// IsDir reports whether the metadata describes a directory.
func (m InodeMeta) IsDir() bool { return m.Type == FileTypeDir }

// IsFile reports whether the metadata describes a file.
func (m InodeMeta) IsFile() bool { return m.Type == FileTypeFile }

// NewFileMeta returns metadata for a freshly created, empty file.
func NewFileMeta(ino Ino, now time.Time) InodeMeta {
	return InodeMeta{Ino: ino, Type: FileTypeFile, Mode: DefaultMode, MtimeMs: now.UnixMilli()}
}

// NewDirMeta returns metadata for a freshly created directory.
func NewDirMeta(ino Ino, now time.Time) InodeMeta {
	return InodeMeta{Ino: ino, Type: FileTypeDir, Mode: DefaultMode, MtimeMs: now.UnixMilli()}
}

// nowFunc is replaced in tests that need stable timestamps.
var nowFunc = time.Now

// CoerceInodeMeta converts a loosely typed, JSON-decoded value into InodeMeta.
//
// The value must be an object with a numeric "ino" and a "type" of "file" or
// "dir"; anything else is rejected with ok=false. Missing or non-numeric
// "mode", "mtimeMs" and "size" fall back to DefaultMode, the current time and
// 0. This is the only place where persisted metadata is normalized.
func CoerceInodeMeta(v any) (meta InodeMeta, ok bool) {
	switch m := v.(type) {
	case InodeMeta:
		return m, m.Type == FileTypeFile || m.Type == FileTypeDir
	case *InodeMeta:
		if m == nil {
			return InodeMeta{}, false
		}
		return CoerceInodeMeta(*m)
	case map[string]any:
		return coerceObject(m)
	default:
		return InodeMeta{}, false
	}
}

func coerceObject(obj map[string]any) (InodeMeta, bool) {
	ino, ok := asNumber(obj["ino"])
	if !ok || ino < 0 || ino != math.Trunc(ino) {
		return InodeMeta{}, false
	}

	typ, _ := obj["type"].(string)
	if typ != string(FileTypeFile) && typ != string(FileTypeDir) {
		return InodeMeta{}, false
	}

	meta := InodeMeta{
		Ino:     Ino(ino),
		Type:    FileType(typ),
		Mode:    DefaultMode,
		MtimeMs: nowFunc().UnixMilli(),
	}
	if mode, ok := asNumber(obj["mode"]); ok && mode >= 0 {
		meta.Mode = uint32(mode)
	}
	if mtime, ok := asNumber(obj["mtimeMs"]); ok {
		meta.MtimeMs = int64(mtime)
	}
	if size, ok := asNumber(obj["size"]); ok && size >= 0 {
		meta.Size = int64(size)
	}
	if meta.Type == FileTypeDir {
		meta.Size = 0
	}
	return meta, true
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
