package testsupport

import (
	"testing"

	"renamer/internal/config"
	"renamer/internal/settings"
)

// MustOpenSettings opens the settings store for the given config and fails
// the test when it cannot. The store closes automatically when the test
// ends.
func MustOpenSettings(t testing.TB, cfg *config.Config) *settings.Store {
	t.Helper()

	store, err := settings.Open(cfg)
	if err != nil {
		t.Fatalf("open settings store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
