package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokzlo13/ringclock/internal/db"
)

func openLedger(t *testing.T) *Ledger {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "ledger.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return New(database.DB)
}

func TestLedger_AppendRecent(t *testing.T) {
	l := openLedger(t)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, l.Append(Entry{Device: "hall", Outcome: "effect", Timestamp: base, Hour: 9}))
	require.NoError(t, l.Append(Entry{Device: "desk", Outcome: "hands", Timestamp: base.Add(time.Second), Hour: 9}))
	require.NoError(t, l.Append(Entry{Device: "hall", Outcome: "hands", Timestamp: base.Add(time.Minute), Hour: 9, Minute: 1, Error: "device unreachable"}))

	all, err := l.Recent("", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "hall", all[0].Device)
	assert.Equal(t, 1, all[0].Minute)
	assert.Equal(t, "device unreachable", all[0].Error)

	hall, err := l.Recent("hall", 10)
	require.NoError(t, err)
	require.Len(t, hall, 2)
	assert.Equal(t, "effect", hall[1].Outcome)
	assert.Equal(t, base, hall[1].Timestamp)

	limited, err := l.Recent("", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestLedger_DeleteOlderThan(t *testing.T) {
	l := openLedger(t)

	require.NoError(t, l.Append(Entry{Device: "hall", Outcome: "hands", Timestamp: time.Now().Add(-48 * time.Hour)}))
	require.NoError(t, l.Append(Entry{Device: "hall", Outcome: "hands"}))

	deleted, err := l.DeleteOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	left, err := l.Recent("", 10)
	require.NoError(t, err)
	assert.Len(t, left, 1)
}
