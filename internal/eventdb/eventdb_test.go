package eventdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-event-monitor/internal/types"
)

func testPaths(t *testing.T) (string, string) {
	dir := t.TempDir()
	return filepath.Join(dir, "events.db"), filepath.Join(dir, "events.db.bak")
}

func sampleEvent(symbol, date string, typ types.EventType, magnitude float64) types.DetectedEvent {
	return types.DetectedEvent{
		Symbol:      symbol,
		Date:        date,
		Type:        typ,
		Description: "test event",
		Magnitude:   magnitude,
		Sentiment:   0.25,
		Impact:      3,
		Source:      "unit-test",
		URL:         "https://example.com/a",
		Timestamp:   1700000000,
	}
}

func TestOpenEmpty(t *testing.T) {
	path, backup := testPaths(t)

	db, err := Open(path, backup)
	require.NoError(t, err)
	defer db.Close()

	assert.Empty(t, db.Load())

	// The empty snapshot is materialized so later writes only rename.
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestAppendAndReload(t *testing.T) {
	path, backup := testPaths(t)

	db, err := Open(path, backup)
	require.NoError(t, err)

	ev := sampleEvent("AAPL", "2024-03-01", types.PriceJump, 0.07)
	stored, changed, err := db.Append(ev)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, uint64(1), stored.ID)
	require.NoError(t, db.Close())

	db2, err := Open(path, backup)
	require.NoError(t, err)
	defer db2.Close()

	got := db2.Load()
	require.Len(t, got, 1)
	assert.Equal(t, uint64(1), got[0].ID)
	assert.Equal(t, "AAPL", got[0].Symbol)
	assert.Equal(t, "2024-03-01", got[0].Date)
	assert.Equal(t, types.PriceJump, got[0].Type)
	assert.Equal(t, "test event", got[0].Description)
	assert.Equal(t, 0.07, got[0].Magnitude)
	assert.Equal(t, float32(0.25), got[0].Sentiment)
	assert.Equal(t, int8(3), got[0].Impact)
	assert.Equal(t, "unit-test", got[0].Source)
	assert.Equal(t, "https://example.com/a", got[0].URL)
	assert.Equal(t, int64(1700000000), got[0].Timestamp)
}

func TestDedupKeepsLargerMagnitude(t *testing.T) {
	path, backup := testPaths(t)
	db, err := Open(path, backup)
	require.NoError(t, err)
	defer db.Close()

	_, changed, err := db.Append(sampleEvent("TCS", "2024-03-01", types.PriceJump, 0.05))
	require.NoError(t, err)
	assert.True(t, changed)

	// Smaller magnitude on the same key: dropped.
	stored, changed, err := db.Append(sampleEvent("TCS", "2024-03-01", types.PriceJump, 0.03))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 0.05, stored.Magnitude)

	// Equal magnitude: the first record wins.
	_, changed, err = db.Append(sampleEvent("TCS", "2024-03-01", types.PriceJump, 0.05))
	require.NoError(t, err)
	assert.False(t, changed)

	// Strictly larger |magnitude| replaces in place, keeping the ID.
	stored, changed, err = db.Append(sampleEvent("TCS", "2024-03-01", types.PriceJump, -0.08))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, uint64(1), stored.ID)
	assert.Equal(t, -0.08, stored.Magnitude)

	assert.Len(t, db.Load(), 1)
}

func TestDedupKeyIncludesType(t *testing.T) {
	path, backup := testPaths(t)
	db, err := Open(path, backup)
	require.NoError(t, err)
	defer db.Close()

	_, _, err = db.Append(sampleEvent("TCS", "2024-03-01", types.PriceJump, 0.07))
	require.NoError(t, err)
	_, changed, err := db.Append(sampleEvent("TCS", "2024-03-01", types.VolumeSpike, 3.5))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, db.Load(), 2)
}

func TestAppendRejectsOverlongSymbol(t *testing.T) {
	path, backup := testPaths(t)
	db, err := Open(path, backup)
	require.NoError(t, err)
	defer db.Close()

	// The on-disk symbol field is fixed width; storing this event would
	// silently truncate the symbol and break the reload round trip.
	_, _, err = db.Append(sampleEvent("VERYLONGSYMBOLNAME20", "2024-03-01", types.PriceJump, 0.07))
	require.ErrorIs(t, err, types.ErrParse)
	assert.Empty(t, db.Load())

	_, err = db.AppendBatch(context.Background(), []types.DetectedEvent{
		sampleEvent("AAPL", "2024-03-01", types.PriceJump, 0.07),
		sampleEvent("VERYLONGSYMBOLNAME20", "2024-03-01", types.PriceJump, 0.07),
	})
	require.ErrorIs(t, err, types.ErrParse)
	assert.Empty(t, db.Load(), "a rejected batch must not change the database")
}

func TestAppendBatch(t *testing.T) {
	path, backup := testPaths(t)
	db, err := Open(path, backup)
	require.NoError(t, err)
	defer db.Close()

	evs := []types.DetectedEvent{
		sampleEvent("AAPL", "2024-03-01", types.PriceJump, 0.07),
		sampleEvent("TCS", "2024-03-01", types.VolumeSpike, 3.5),
		sampleEvent("AAPL", "2024-03-01", types.PriceJump, 0.02), // duplicate, smaller
	}
	changed, err := db.AppendBatch(context.Background(), evs)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)
	assert.Len(t, db.Load(), 2)
}

func TestAppendBatchCancellation(t *testing.T) {
	path, backup := testPaths(t)
	db, err := Open(path, backup)
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = db.AppendBatch(ctx, []types.DetectedEvent{
		sampleEvent("AAPL", "2024-03-01", types.PriceJump, 0.07),
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, db.Load(), "a cancelled batch must not change the database")
}

func TestBackupPromotion(t *testing.T) {
	path, backup := testPaths(t)
	db, err := Open(path, backup)
	require.NoError(t, err)

	_, _, err = db.Append(sampleEvent("AAPL", "2024-03-01", types.PriceJump, 0.07))
	require.NoError(t, err)
	_, _, err = db.Append(sampleEvent("TCS", "2024-03-02", types.PriceDrop, -0.06))
	require.NoError(t, err)
	_, _, err = db.Append(sampleEvent("INFY", "2024-03-03", types.VolumeSpike, 3.4))
	require.NoError(t, err)
	require.NoError(t, db.Backup())
	require.NoError(t, db.Close())

	// Corrupt the primary: truncate to the header only, losing all records.
	require.NoError(t, os.Truncate(path, 20))

	db2, err := Open(path, backup)
	require.NoError(t, err)
	defer db2.Close()

	got := db2.Load()
	require.Len(t, got, 3)
	assert.Equal(t, "AAPL", got[0].Symbol)
	assert.Equal(t, "TCS", got[1].Symbol)
	assert.Equal(t, "INFY", got[2].Symbol)

	// The backup was promoted back over the primary.
	events, err := readEvents(path)
	require.NoError(t, err)
	assert.Len(t, events, 3)
}

func TestBackupPromotionOnBadRecordChecksum(t *testing.T) {
	path, backup := testPaths(t)
	db, err := Open(path, backup)
	require.NoError(t, err)

	_, _, err = db.Append(sampleEvent("AAPL", "2024-03-01", types.PriceJump, 0.07))
	require.NoError(t, err)
	require.NoError(t, db.Backup())
	require.NoError(t, db.Close())

	// Flip a byte inside the record body.
	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	buf[len(buf)-6] ^= 0xFF
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	db2, err := Open(path, backup)
	require.NoError(t, err)
	defer db2.Close()
	assert.Len(t, db2.Load(), 1)
}

func TestBothCorrupt(t *testing.T) {
	path, backup := testPaths(t)
	require.NoError(t, os.WriteFile(path, []byte("garbage garbage garbage"), 0o644))
	require.NoError(t, os.WriteFile(backup, []byte("more garbage here too"), 0o644))

	_, err := Open(path, backup)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestCorruptPrimaryNoBackup(t *testing.T) {
	path, backup := testPaths(t)
	require.NoError(t, os.WriteFile(path, []byte("garbage garbage garbage"), 0o644))

	_, err := Open(path, backup)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestFindByDateRange(t *testing.T) {
	path, backup := testPaths(t)
	db, err := Open(path, backup)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.AppendBatch(context.Background(), []types.DetectedEvent{
		sampleEvent("A", "2024-01-15", types.PriceJump, 0.06),
		sampleEvent("B", "2024-02-15", types.PriceJump, 0.06),
		sampleEvent("C", "2024-03-15", types.PriceJump, 0.06),
	})
	require.NoError(t, err)

	got := db.FindByDateRange("2024-02-01", "2024-03-01")
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].Symbol)

	// to is exclusive.
	got = db.FindByDateRange("2024-01-15", "2024-02-15")
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Symbol)

	// Empty to leaves the upper end unbounded.
	got = db.FindByDateRange("2024-02-01", "")
	assert.Len(t, got, 2)
}

func TestFindByType(t *testing.T) {
	path, backup := testPaths(t)
	db, err := Open(path, backup)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.AppendBatch(context.Background(), []types.DetectedEvent{
		sampleEvent("A", "2024-01-15", types.PriceJump, 0.06),
		sampleEvent("B", "2024-02-15", types.VolumeSpike, 4.0),
		sampleEvent("C", "2024-03-15", types.PriceJump, 0.09),
	})
	require.NoError(t, err)

	got := db.FindByType(types.PriceJump)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Symbol)
	assert.Equal(t, "C", got[1].Symbol)
}

func TestStats(t *testing.T) {
	path, backup := testPaths(t)
	db, err := Open(path, backup)
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	_, err = db.AppendBatch(context.Background(), []types.DetectedEvent{
		sampleEvent("A", "2022-06-01", types.PriceJump, 0.06),  // older than a year
		sampleEvent("B", "2024-01-10", types.VolumeSpike, 4.0), // within the year
		sampleEvent("C", "2024-06-01", types.PriceJump, 0.09),  // within the month
	})
	require.NoError(t, err)

	st := db.Stats(now)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.PerType[types.PriceJump])
	assert.Equal(t, 1, st.PerType[types.VolumeSpike])
	assert.Equal(t, 1, st.LastMonthCount)
	assert.Equal(t, 2, st.LastYearCount)
	assert.Equal(t, "2022-06-01", st.OldestDate)
	assert.Equal(t, "2024-06-01", st.NewestDate)
}

func TestLongStringsRoundTrip(t *testing.T) {
	path, backup := testPaths(t)
	db, err := Open(path, backup)
	require.NoError(t, err)

	ev := sampleEvent("AAPL", "2024-03-01", types.EarningsAnnouncement, 0.9)
	for len(ev.Description) < 5000 {
		ev.Description += " quarterly results exceeded consensus estimates"
	}
	_, _, err = db.Append(ev)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db2, err := Open(path, backup)
	require.NoError(t, err)
	defer db2.Close()

	got := db2.Load()
	require.Len(t, got, 1)
	assert.Equal(t, ev.Description, got[0].Description)
}
