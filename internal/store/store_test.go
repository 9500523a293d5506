package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supertypeai/sgx-buyback-pipeline/internal/filing"
	"github.com/supertypeai/sgx-buyback-pipeline/internal/review"
)

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func openTest(t *testing.T, c *clock) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "filings.db"), WithClock(c.now))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func testItem(symbol, url, name string, number, price float64) review.Item {
	return review.Item{
		Symbol: symbol,
		URL:    url,
		TransactionRecord: filing.TransactionRecord{
			ShareholderName: s(name),
			TransactionType: s("buy"),
			TransactionDate: s("2024-11-07"),
			NumberOfStock:   f(number),
			Value:           f(number * price),
			PricePerShare:   f(price),
			SharesBefore:    f(1000),
			SharesAfter:     f(1000 + number),
			SharesAfterPct:  f(0.0123),
		},
		HolderType: review.Insider,
	}
}

func TestStore_SaveAndList(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2024, 11, 8, 9, 0, 0, 0, time.UTC)}
	st := openTest(t, c)

	n, err := st.Save(ctx, "run-1", []review.Item{
		testItem("A12", "https://example.com/a.pdf", "Tan Ah Kow", 500, 1.5),
		testItem("B34", "https://example.com/b.pdf", "Alpha Pte Ltd", 200, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	rows, err := st.List(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = st.List(ctx, Query{Symbol: "A12"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	got := rows[0]
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "Tan Ah Kow", *got.ShareholderName)
	assert.Equal(t, 500.0, *got.NumberOfStock)
	assert.Equal(t, 750.0, *got.Value)
	assert.Equal(t, 0.0123, *got.SharesAfterPct)
	assert.Nil(t, got.SharesBeforePct)
	assert.Nil(t, got.TransferParties)
	assert.Equal(t, review.Insider, got.HolderType)
	assert.Equal(t, c.t, got.UpdatedAt)
}

func TestStore_Upsert(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2024, 11, 8, 9, 0, 0, 0, time.UTC)}
	st := openTest(t, c)

	first := testItem("A12", "https://example.com/a.pdf", "Tan Ah Kow", 500, 1.5)
	_, err := st.Save(ctx, "run-1", []review.Item{first})
	require.NoError(t, err)

	c.t = c.t.Add(24 * time.Hour)
	again := first
	again.PricePerShare = f(1.6)
	again.Value = f(800)
	_, err = st.Save(ctx, "run-2", []review.Item{again})
	require.NoError(t, err)

	rows, err := st.List(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "run-2", rows[0].RunID)
	assert.Equal(t, 1.6, *rows[0].PricePerShare)
	assert.Equal(t, c.t, rows[0].UpdatedAt)

	other := testItem("A12", "https://example.com/a.pdf", "Tan Ah Kow", 300, 1.5)
	_, err = st.Save(ctx, "run-2", []review.Item{other})
	require.NoError(t, err)

	rows, err = st.List(ctx, Query{Limit: 10})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	n, err := st.Save(ctx, "run-3", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecordKey(t *testing.T) {
	a := testItem("A12", "u", "Tan Ah Kow", 500, 1.5)
	b := testItem("A12", "u", "Tan Ah Kow", 500, 9.9)
	c := testItem("A12", "u", "Tan Ah Kow", 501, 1.5)

	assert.Equal(t, RecordKey(a), RecordKey(b))
	assert.NotEqual(t, RecordKey(a), RecordKey(c))

	a.ShareholderName = nil
	assert.NotEqual(t, RecordKey(a), RecordKey(b))
}

func TestStore_SeenURLs(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2024, 11, 8, 9, 0, 0, 0, time.UTC)
	c := &clock{t: day.Add(-48 * time.Hour)}
	st := openTest(t, c)

	require.NoError(t, st.MarkProcessed(ctx, "run-0", "https://links.sgx.com/old", StatusExtracted))

	c.t = day
	require.NoError(t, st.MarkProcessed(ctx, "run-1", "https://links.sgx.com/a", StatusExtracted))
	require.NoError(t, st.MarkProcessed(ctx, "run-1", "https://links.sgx.com/b", StatusExcluded))
	require.NoError(t, st.MarkProcessed(ctx, "run-1", "https://links.sgx.com/c", StatusFailed))

	seen, err := st.SeenURLs(ctx, day.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{
		"https://links.sgx.com/a": true,
		"https://links.sgx.com/b": true,
	}, seen)

	// a later success replaces the failure
	require.NoError(t, st.MarkProcessed(ctx, "run-2", "https://links.sgx.com/c", StatusExtracted))
	seen, err = st.SeenURLs(ctx, day.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.True(t, seen["https://links.sgx.com/c"])
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "filings.db"))
	assert.Error(t, err)
}
