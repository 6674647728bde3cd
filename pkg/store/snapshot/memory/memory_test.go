package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SaveLoad(t *testing.T) {
	store := New()
	ctx := context.Background()

	_, ok, err := store.Load(ctx, "workspace")
	require.NoError(t, err)
	assert.False(t, ok)

	payload := []byte(`{"nextIno":2}`)
	require.NoError(t, store.Save(ctx, "workspace", payload))
	payload[0] = 'X'

	data, ok, err := store.Load(ctx, "workspace")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"nextIno":2}`, string(data))
}
