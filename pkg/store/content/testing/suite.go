// Package testing provides a reusable contract test suite for content.Store
// implementations.
package testing

import (
	"context"
	"testing"

	"github.com/auditforge/workspacefs/pkg/store/content"
)

// StoreTestSuite is a comprehensive test suite for content.Store
// implementations. It tests the interface contract, not implementation
// details, making it reusable across backends (memory, badger, filesystem,
// S3).
//
// Usage:
//
//	func TestMyStore(t *testing.T) {
//	    suite := &storetesting.StoreTestSuite{
//	        NewStore: func(t *testing.T) content.Store {
//	            return mystore.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh, empty Store for each test. Backends that
	// hold resources register cleanup on t.
	NewStore func(t *testing.T) content.Store
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("BasicOperations", suite.RunBasicTests)
	t.Run("WriteOperations", suite.RunWriteTests)
	t.Run("Listing", suite.RunListTests)
	t.Run("Statistics", suite.RunStatsTests)
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}
