package vfs

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoerceInodeMeta(t *testing.T) {
	fixed := time.UnixMilli(1234)
	nowFunc = func() time.Time { return fixed }
	defer func() { nowFunc = time.Now }()

	tests := []struct {
		name   string
		in     any
		want   InodeMeta
		wantOK bool
	}{
		{
			name:   "complete file",
			in:     map[string]any{"ino": 7.0, "type": "file", "mode": 420.0, "mtimeMs": 99.0, "size": 13.0},
			want:   InodeMeta{Ino: 7, Type: FileTypeFile, Mode: 420, MtimeMs: 99, Size: 13},
			wantOK: true,
		},
		{
			name:   "legacy without optional fields",
			in:     map[string]any{"ino": 3.0, "type": "dir"},
			want:   InodeMeta{Ino: 3, Type: FileTypeDir, Mode: DefaultMode, MtimeMs: 1234},
			wantOK: true,
		},
		{
			name:   "non numeric optional fields fall back",
			in:     map[string]any{"ino": json.Number("5"), "type": "file", "mode": "rw", "size": "big"},
			want:   InodeMeta{Ino: 5, Type: FileTypeFile, Mode: DefaultMode, MtimeMs: 1234},
			wantOK: true,
		},
		{name: "missing ino", in: map[string]any{"type": "file"}},
		{name: "string ino", in: map[string]any{"ino": "1", "type": "file"}},
		{name: "fractional ino", in: map[string]any{"ino": 1.5, "type": "file"}},
		{name: "unknown type", in: map[string]any{"ino": 1.0, "type": "symlink"}},
		{name: "not an object", in: []any{1.0}},
		{name: "nil", in: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceInodeMeta(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNewMeta(t *testing.T) {
	now := time.UnixMilli(5000)
	f := NewFileMeta(9, now)
	assert.Equal(t, InodeMeta{Ino: 9, Type: FileTypeFile, Mode: 0o777, MtimeMs: 5000}, f)
	assert.True(t, NewDirMeta(1, now).IsDir())
}
