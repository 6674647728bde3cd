package testing

import (
	"testing"

	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStatsTests executes tests for stores implementing content.StatsProvider.
func (suite *StoreTestSuite) RunStatsTests(t *testing.T) {
	t.Run("GetStorageStats", suite.testGetStorageStats)
}

func (suite *StoreTestSuite) testGetStorageStats(t *testing.T) {
	store := suite.NewStore(t)
	provider, ok := store.(content.StatsProvider)
	if !ok {
		t.Skip("Store does not implement content.StatsProvider")
	}

	mustWrite(t, store, 30, []byte("1234"))
	mustWrite(t, store, 31, []byte("12345678"))

	stats, err := provider.GetStorageStats(testContext())
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.ContentCount)
	assert.Equal(t, uint64(12), stats.UsedSize)
	assert.Equal(t, uint64(6), stats.AverageSize)
}
