package testutil

import (
	"testing"

	"minicloud/internal/storage"
)

// NewTestStore creates a DiskStore rooted in a temp directory that is
// removed when the test completes.
func NewTestStore(t *testing.T) *storage.DiskStore {
	t.Helper()

	store, err := storage.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create disk store: %v", err)
	}
	return store
}
