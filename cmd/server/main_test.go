package main

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	notifstore "agrifund/internal/notification/store"
	"agrifund/internal/platform/config"
	regstore "agrifund/internal/registry/store"
)

// A backend selected without its connection settings degrades to memory
// stores instead of handing nil handles to the store layer.
func TestBuildStoresFallsBackWithoutConnectionConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	backends := []config.StoreBackend{
		config.BackendMemory,
		config.BackendRedis,
		config.BackendPostgres,
	}
	for _, backend := range backends {
		t.Run(string(backend), func(t *testing.T) {
			notif, reg, closeStores, err := buildStores(config.Server{StoreBackend: backend}, logger)
			require.NoError(t, err)
			defer closeStores()

			assert.IsType(t, &notifstore.InMemory{}, notif)
			assert.IsType(t, &regstore.InMemory{}, reg)
		})
	}
}
