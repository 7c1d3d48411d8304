package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chitieu/internal/apiclient"
	"chitieu/internal/config"
	"chitieu/internal/core"
	"chitieu/internal/metrics"
)

func rulesConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataBackend:    config.BackendMemory,
		Parser:         config.ParserRules,
		ParseCacheSize: 8,
		ParseCacheTTL:  time.Minute,
	}
}

func TestBuildParseServices_RulesAreCached(t *testing.T) {
	reg := prometheus.NewRegistry()
	svc, err := BuildParseServices(context.Background(), rulesConfig(t), nil, metrics.New(reg))
	require.NoError(t, err)
	assert.Equal(t, config.ParserRules, svc.Name)
	assert.Nil(t, svc.Chat)

	c, err := svc.Parser.Parse(context.Background(), "phở bò 45k")
	require.NoError(t, err)
	assert.True(t, c.Amount.Equal(core.NewMoney(45000)))
	assert.Equal(t, core.Expense, c.Type)

	_, err = svc.Parser.Parse(context.Background(), "Phở  bò 45k")
	require.NoError(t, err)
	stats := svc.Cache.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, 1, stats.Size)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "chitieu_cache_hits_total")
}

func TestBuildParseServices_KeywordFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keywords.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - category: education\n    type: expense\n    keywords: [học phí]\n"), 0o600))

	cfg := rulesConfig(t)
	cfg.KeywordsFile = path
	svc, err := BuildParseServices(context.Background(), cfg, nil, metrics.New(nil))
	require.NoError(t, err)

	c, err := svc.Parser.Parse(context.Background(), "học phí 2tr")
	require.NoError(t, err)
	assert.Equal(t, "education", c.Category)

	cfg.KeywordsFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = BuildParseServices(context.Background(), cfg, nil, metrics.New(nil))
	assert.Error(t, err)
}

func TestBuildParseServices_RemoteWins(t *testing.T) {
	client, err := apiclient.New("http://localhost:3001/api")
	require.NoError(t, err)

	cfg := rulesConfig(t)
	cfg.DataBackend = config.BackendRemote
	svc, err := BuildParseServices(context.Background(), cfg, client, metrics.New(nil))
	require.NoError(t, err)
	assert.Equal(t, "remote", svc.Name)
	assert.Same(t, client, svc.Chat)
}

func TestSetupLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	logger := SetupLogger("worker")
	assert.Equal(t, "worker", logger.Component())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))

	t.Setenv("LOG_LEVEL", "chatty")
	logger = SetupLogger("worker")
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestOpenBackend(t *testing.T) {
	cfg := &config.Config{DataBackend: config.BackendSQLite, SQLiteDBPath: filepath.Join(t.TempDir(), "chitieu.db")}
	res, err := OpenBackend(context.Background(), SetupLogger("test"), cfg)
	require.NoError(t, err)
	require.NotNil(t, res.SQLite)
	assert.NoError(t, res.Close())

	cfg.DataBackend = "sheets"
	_, err = OpenBackend(context.Background(), SetupLogger("test"), cfg)
	assert.Error(t, err)
}

func TestServeMetricsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- ServeMetrics(ctx, SetupLogger("test"), "127.0.0.1:0", prometheus.NewRegistry()) }()

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("ServeMetrics did not return")
	}
}
