package memory

import (
	"context"
	"testing"

	"github.com/auditforge/workspacefs/pkg/store/content"
	storetesting "github.com/auditforge/workspacefs/pkg/store/content/testing"
	"github.com/stretchr/testify/require"
)

func TestMemoryContentStore(t *testing.T) {
	suite := &storetesting.StoreTestSuite{
		NewStore: func(t *testing.T) content.Store {
			store, err := NewMemoryContentStore(context.Background())
			require.NoError(t, err)
			return store
		},
	}
	suite.Run(t)
}

func TestNewMemoryContentStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryContentStore(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
