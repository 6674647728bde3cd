package testing

import (
	"fmt"
	"sync"
	"testing"

	"github.com/auditforge/workspacefs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunWriteTests executes overwrite and isolation tests.
func (suite *StoreTestSuite) RunWriteTests(t *testing.T) {
	t.Run("Write_ReplacesWholeValue", suite.testWriteReplaces)
	t.Run("Write_IsolatedByIno", suite.testWriteIsolated)
	t.Run("Write_Concurrent", suite.testWriteConcurrent)
}

func (suite *StoreTestSuite) testWriteReplaces(t *testing.T) {
	store := suite.NewStore(t)

	mustWrite(t, store, 10, []byte("a much longer first value"))
	mustWrite(t, store, 10, []byte("short"))
	assert.Equal(t, []byte("short"), mustRead(t, store, 10))
}

func (suite *StoreTestSuite) testWriteIsolated(t *testing.T) {
	store := suite.NewStore(t)

	mustWrite(t, store, 11, []byte("eleven"))
	mustWrite(t, store, 12, []byte("twelve"))
	require.NoError(t, store.Delete(testContext(), 11))

	assert.Empty(t, mustRead(t, store, 11))
	assert.Equal(t, []byte("twelve"), mustRead(t, store, 12))
}

func (suite *StoreTestSuite) testWriteConcurrent(t *testing.T) {
	store := suite.NewStore(t)

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ino := vfs.Ino(100 + i)
			if err := store.Write(testContext(), ino, []byte(fmt.Sprintf("worker-%d", i))); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	for i := 0; i < workers; i++ {
		assert.Equal(t, []byte(fmt.Sprintf("worker-%d", i)), mustRead(t, store, vfs.Ino(100+i)))
	}
}
