package testing

import (
	"testing"

	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/auditforge/workspacefs/pkg/vfs"
	"github.com/stretchr/testify/require"
)

func mustWrite(t *testing.T, store content.Store, ino vfs.Ino, data []byte) {
	t.Helper()
	require.NoError(t, store.Write(testContext(), ino, data))
}

func mustRead(t *testing.T, store content.Store, ino vfs.Ino) []byte {
	t.Helper()
	data, err := store.Read(testContext(), ino)
	require.NoError(t, err)
	return data
}
