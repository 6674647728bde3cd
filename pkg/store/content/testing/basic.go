package testing

import (
	"bytes"
	"testing"

	"github.com/auditforge/workspacefs/pkg/store/content"
	"github.com/auditforge/workspacefs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunBasicTests executes the read/write/delete contract tests.
func (suite *StoreTestSuite) RunBasicTests(t *testing.T) {
	t.Run("Read_NeverWritten", suite.testReadNeverWritten)
	t.Run("Read_AfterWrite", suite.testReadAfterWrite)
	t.Run("Read_EmptyContent", suite.testReadEmpty)
	t.Run("Read_LargeContent", suite.testReadLarge)
	t.Run("Read_ReturnsCopy", suite.testReadReturnsCopy)
	t.Run("Delete_RemovesContent", suite.testDeleteRemovesContent)
	t.Run("Delete_Idempotent", suite.testDeleteIdempotent)
	t.Run("Text_RoundTrip", suite.testTextRoundTrip)
}

func (suite *StoreTestSuite) testReadNeverWritten(t *testing.T) {
	store := suite.NewStore(t)

	data := mustRead(t, store, vfs.Ino(404))
	assert.Empty(t, data)
}

func (suite *StoreTestSuite) testReadAfterWrite(t *testing.T) {
	store := suite.NewStore(t)

	mustWrite(t, store, 2, []byte("Hello, World!"))
	assert.Equal(t, []byte("Hello, World!"), mustRead(t, store, 2))
}

func (suite *StoreTestSuite) testReadEmpty(t *testing.T) {
	store := suite.NewStore(t)

	mustWrite(t, store, 3, []byte{})
	assert.Empty(t, mustRead(t, store, 3))
}

func (suite *StoreTestSuite) testReadLarge(t *testing.T) {
	store := suite.NewStore(t)

	large := bytes.Repeat([]byte("0123456789abcdef"), 64*1024)
	mustWrite(t, store, 4, large)
	assert.Equal(t, large, mustRead(t, store, 4))
}

func (suite *StoreTestSuite) testReadReturnsCopy(t *testing.T) {
	store := suite.NewStore(t)

	original := []byte("immutable")
	mustWrite(t, store, 5, original)
	original[0] = 'X'

	first := mustRead(t, store, 5)
	assert.Equal(t, []byte("immutable"), first)

	first[0] = 'Y'
	assert.Equal(t, []byte("immutable"), mustRead(t, store, 5))
}

func (suite *StoreTestSuite) testDeleteRemovesContent(t *testing.T) {
	store := suite.NewStore(t)

	mustWrite(t, store, 6, []byte("doomed"))
	require.NoError(t, store.Delete(testContext(), 6))
	assert.Empty(t, mustRead(t, store, 6))
}

func (suite *StoreTestSuite) testDeleteIdempotent(t *testing.T) {
	store := suite.NewStore(t)

	require.NoError(t, store.Delete(testContext(), 7))
	require.NoError(t, store.Delete(testContext(), 7))
}

func (suite *StoreTestSuite) testTextRoundTrip(t *testing.T) {
	store := suite.NewStore(t)
	ctx := testContext()

	require.NoError(t, content.WriteText(ctx, store, 8, "contract A {} // ✓"))
	text, err := content.ReadText(ctx, store, 8)
	require.NoError(t, err)
	assert.Equal(t, "contract A {} // ✓", text)
}
