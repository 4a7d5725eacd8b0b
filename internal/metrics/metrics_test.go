package metrics_test

import (
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/sleepctl/internal/logger"
	"codeberg.org/mutker/sleepctl/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(iteration int, cause string, before, after int64) *metrics.CycleRecord {
	return &metrics.CycleRecord{
		RecordedAt:  time.Now(),
		Iteration:   iteration,
		WakeupUS:    3_000_000,
		BeforeUS:    before,
		AfterUS:     after,
		Cause:       cause,
		NativeCause: cause,
	}
}

func countRows(t *testing.T, path string) int {
	t.Helper()

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM cycles").Scan(&n))

	return n
}

func TestDisabledIsNoop(t *testing.T) {
	c, err := metrics.NewService(metrics.DefaultConfig(), logger.New(io.Discard))
	require.NoError(t, err)

	require.NoError(t, c.Record(context.Background(), record(1, "timer", 0, 1)))
	s, err := c.Summary(context.Background())
	require.NoError(t, err)
	assert.Zero(t, s.Cycles)
	require.NoError(t, c.Close())
}

func TestInvalidConfig(t *testing.T) {
	_, err := metrics.NewService(metrics.Config{Enabled: true}, logger.New(io.Discard))
	require.Error(t, err)
}

func TestRecordAndSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycles.db")
	cfg := metrics.Config{DBPath: path, Enabled: true, BatchSize: 2, BatchTimeout: 60}

	c, err := metrics.NewService(cfg, logger.New(io.Discard))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Record(ctx, record(1, "timer", 1_000_000, 4_000_001)))
	require.NoError(t, c.Record(ctx, record(2, "other", 4_000_001, 4_500_001)))
	require.NoError(t, c.Record(ctx, record(3, "timer", 4_500_001, 7_500_001)))

	s, err := c.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Cycles)
	assert.Equal(t, 2, s.TimerWakes)
	assert.Equal(t, 1, s.OtherWakes)
	assert.InDelta(t, (3000.0+500.0+3000.0)/3, s.AvgSleptMs, 0.01)
	assert.False(t, s.FirstCycleAt.IsZero())

	require.NoError(t, c.Close())
	assert.Equal(t, 3, countRows(t, path))
}

func TestCloseFlushesBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cycles.db")
	cfg := metrics.Config{DBPath: path, Enabled: true, BatchSize: 100, BatchTimeout: 60}

	c, err := metrics.NewService(cfg, logger.New(io.Discard))
	require.NoError(t, err)

	require.NoError(t, c.Record(context.Background(), record(1, "timer", 0, 3_000_000)))
	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "Close must be idempotent")

	assert.Equal(t, 1, countRows(t, path))
}

func TestRejectsNilAndCancelled(t *testing.T) {
	cfg := metrics.Config{DBPath: filepath.Join(t.TempDir(), "cycles.db"), Enabled: true, BatchSize: 1}

	c, err := metrics.NewService(cfg, logger.New(io.Discard))
	require.NoError(t, err)
	defer c.Close()

	assert.Error(t, c.Record(context.Background(), nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.Record(ctx, record(1, "timer", 0, 1)))
}

func TestSchemaMismatchBacksUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cycles.db")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE schema_versions (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL);
		INSERT INTO schema_versions VALUES (99, datetime('now'));
		CREATE TABLE cycles (legacy TEXT);`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	repo, err := metrics.NewRepository(metrics.Config{DBPath: path, BatchSize: 1}, logger.New(io.Discard))
	require.NoError(t, err)
	require.NoError(t, repo.Record(record(1, "timer", 0, 3_000_000)))
	require.NoError(t, repo.Close())

	backups, err := os.ReadDir(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Contains(t, backups[0].Name(), "cycles_v99_")

	assert.Equal(t, 1, countRows(t, path))
}

func TestCheckConstraintRejectsBackwardsClock(t *testing.T) {
	cfg := metrics.Config{DBPath: filepath.Join(t.TempDir(), "cycles.db"), BatchSize: 1}

	repo, err := metrics.NewRepository(cfg, logger.New(io.Discard))
	require.NoError(t, err)
	defer repo.Close()

	assert.Error(t, repo.Record(record(1, "timer", 10, 5)))
	// The failed batch is dropped, later records still land.
	assert.NoError(t, repo.Record(record(2, "timer", 10, 20)))
}
