package di

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/goaleval/internal/config"
	"github.com/aristath/goaleval/internal/modules/tickerrisk"
)

func testConfig(t *testing.T, backend string) *config.Config {
	return &config.Config{
		DataDir: t.TempDir(),
		Simulation: config.SimulationConfig{
			NumPaths:  100,
			BlockSize: 6,
		},
		TickerRisk: config.TickerRiskConfig{
			CacheBackend: backend,
			CacheTTL:     30 * 24 * time.Hour,
			OpenAIModel:  "gpt-4o-mini",
			RatePerSec:   1,
		},
		HistoryYears:        5,
		HistoryCacheTTL:     time.Hour,
		AllocationTolerance: 1,
	}
}

func TestWire(t *testing.T) {
	container, err := Wire(testConfig(t, config.CacheBackendFile), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { container.Close() })

	assert.NotNil(t, container.CacheDB)
	assert.NotNil(t, container.ClientDataRepo)
	assert.NotNil(t, container.TickerValidator)
	assert.NotNil(t, container.HistoryProvider)
	assert.NotNil(t, container.EvaluationService)
	assert.Nil(t, container.Classifier)
	assert.IsType(t, &tickerrisk.FileStore{}, container.TickerStore)

	require.NotNil(t, container.Jobs)
	require.NotNil(t, container.Scheduler)
	assert.NoError(t, container.Scheduler.RunNow(container.Jobs.ClientDataCleanup.Name()))
	assert.NoError(t, container.Scheduler.RunNow(container.Jobs.TickerRiskCleanup.Name()))
}

func TestWire_StoreBackends(t *testing.T) {
	tests := []struct {
		backend string
		want    tickerrisk.Store
	}{
		{config.CacheBackendFile, &tickerrisk.FileStore{}},
		{config.CacheBackendSQLite, &tickerrisk.SQLiteStore{}},
		{config.CacheBackendMemory, &tickerrisk.MemoryStore{}},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			container, err := Wire(testConfig(t, tt.backend), zerolog.Nop())
			require.NoError(t, err)
			defer container.Close()

			assert.IsType(t, tt.want, container.TickerStore)
		})
	}
}

func TestWire_WithClassifier(t *testing.T) {
	cfg := testConfig(t, config.CacheBackendMemory)
	cfg.TickerRisk.OpenAIAPIKey = "sk-test"

	container, err := Wire(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer container.Close()

	assert.IsType(t, &tickerrisk.OpenAIClassifier{}, container.Classifier)
}

func TestWire_UnknownBackend(t *testing.T) {
	_, err := Wire(testConfig(t, "redis"), zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown ticker cache backend")
}

func TestRegisterJobs_NilContainer(t *testing.T) {
	_, err := RegisterJobs(nil, testConfig(t, config.CacheBackendMemory), zerolog.Nop())
	assert.Error(t, err)
}
