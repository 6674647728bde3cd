package testing

import (
	"testing"

	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/auditforge/workspacefs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunListTests executes tests for stores implementing content.Lister.
func (suite *StoreTestSuite) RunListTests(t *testing.T) {
	t.Run("List_Empty", suite.testListEmpty)
	t.Run("List_AfterWritesAndDeletes", suite.testListAfterWrites)
}

func (suite *StoreTestSuite) lister(t *testing.T) content.Lister {
	lister, ok := suite.NewStore(t).(content.Lister)
	if !ok {
		t.Skip("Store does not implement content.Lister")
	}
	return lister
}

func (suite *StoreTestSuite) testListEmpty(t *testing.T) {
	lister := suite.lister(t)

	inos, err := lister.List(testContext())
	require.NoError(t, err)
	assert.Empty(t, inos)
}

func (suite *StoreTestSuite) testListAfterWrites(t *testing.T) {
	lister := suite.lister(t)
	store := lister.(content.Store)

	mustWrite(t, store, 20, []byte("a"))
	mustWrite(t, store, 21, []byte("b"))
	mustWrite(t, store, 22, []byte("c"))
	require.NoError(t, store.Delete(testContext(), 21))

	inos, err := lister.List(testContext())
	require.NoError(t, err)
	assert.ElementsMatch(t, []vfs.Ino{20, 22}, inos)
}
