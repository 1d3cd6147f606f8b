package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hupe1980/genmesh/config"
	"github.com/hupe1980/genmesh/core"
	"github.com/hupe1980/genmesh/logging"
	"github.com/hupe1980/genmesh/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildModel(t *testing.T) {
	for _, provider := range []string{config.ProviderOllama, config.ProviderOpenAI, config.ProviderAnthropic} {
		t.Run(provider, func(t *testing.T) {
			m, err := buildModel(config.ExpanderConfig{Provider: provider, Model: "m1", APIKey: "k"})
			require.NoError(t, err)
			assert.Equal(t, provider, m.Info().Provider)
			assert.Equal(t, "m1", m.Info().Name)
		})
	}

	_, err := buildModel(config.ExpanderConfig{Provider: "unknown"})
	assert.Error(t, err)
}

func TestBuildLedger(t *testing.T) {
	dir := t.TempDir()

	ledger, err := buildLedger(config.StorageConfig{LedgerBackend: config.LedgerJSON, LedgerPath: filepath.Join(dir, "l.json")}, logging.NoOpLogger{})
	require.NoError(t, err)
	assert.IsType(t, &memory.JSONFileStore{}, ledger)

	ledger, err = buildLedger(config.StorageConfig{LedgerBackend: config.LedgerSQLite, LedgerPath: filepath.Join(dir, "l.db")}, logging.NoOpLogger{})
	require.NoError(t, err)
	require.IsType(t, &memory.SQLiteStore{}, ledger)
	assert.NoError(t, ledger.(*memory.SQLiteStore).Close())
}

func TestBuildLogger(t *testing.T) {
	for _, backend := range []string{config.LogBackendSlog, config.LogBackendZap} {
		logger, sync, err := buildLogger(config.LogConfig{Level: "debug", Format: "json", Backend: backend})
		require.NoError(t, err)
		assert.NotNil(t, logger)
		sync()
	}
}

func TestEndpointResolver(t *testing.T) {
	assert.Equal(t, "https://abc/execution", endpointResolver("")("abc"))
	assert.Equal(t, "http://gw.local/apps/abc/run", endpointResolver("http://gw.local/apps/{id}/run")("abc"))
}

func TestBuildMesh_ProvisionsUsers(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Storage.ArtifactDir = filepath.Join(dir, "generatedImages")
	cfg.Storage.LedgerPath = filepath.Join(dir, "long_term_memory.json")
	cfg.Users = map[string]core.UserConfig{"alice": {AppIDs: []string{"tti"}}}

	mesh, err := buildMesh(cfg, logging.NoOpLogger{})
	require.NoError(t, err)
	defer mesh.Close()

	got, ok := mesh.Registry().Get("alice")
	require.True(t, ok)
	assert.Equal(t, []string{"tti"}, got.AppIDs)

	records, err := mesh.LongTermMemory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
