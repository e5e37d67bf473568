// Package app_test contains unit tests for the app package.
package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicgrid/planportal-crawler/internal/app"
	"github.com/civicgrid/planportal-crawler/internal/config"
	"github.com/civicgrid/planportal-crawler/internal/logging"
	"github.com/civicgrid/planportal-crawler/internal/storage/memory"
	"github.com/civicgrid/planportal-crawler/internal/store"
)

func TestMain(m *testing.M) {
	logging.InitLogger(true)
	m.Run()
}

func memoryConfig() config.Config {
	return config.Config{
		Portal: config.PortalConfig{
			BaseURL:        "https://planningapps.example.gov.uk",
			Council:        "Leeds",
			TimeoutSeconds: 30,
			ResultsPerPage: 100,
		},
		Store:   config.StoreConfig{Provider: "memory"},
		Storage: config.StorageConfig{Provider: "memory"},
	}
}

func TestNew_MemoryProviders(t *testing.T) {
	a, err := app.New(context.Background(), memoryConfig())
	require.NoError(t, err)
	require.NotNil(t, a)

	assert.NotNil(t, a.Logger())
	assert.NotNil(t, a.Registry())
	assert.IsType(t, &memory.BlobStore{}, a.Blobs())
	assert.IsType(t, &store.MemoryStore{}, a.Store())
	assert.Equal(t, "Leeds", a.Config().Portal.Council)

	a.Close(context.Background())
}

func TestNew_ConfigErrors(t *testing.T) {
	testCases := []struct {
		name          string
		mutate        func(*config.Config)
		expectedError string
	}{
		{
			name:          "unknown storage provider",
			mutate:        func(c *config.Config) { c.Storage.Provider = "unknown" },
			expectedError: "unknown storage provider: unknown",
		},
		{
			name:          "unknown store provider",
			mutate:        func(c *config.Config) { c.Store.Provider = "unknown" },
			expectedError: "unknown store provider: unknown",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := memoryConfig()
			tc.mutate(&cfg)

			_, err := app.New(context.Background(), cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedError)
		})
	}
}
