// Package ledger provides an append-only delivery history for ringclock.
// It supports auditing of what each device was sent and when.
package ledger

import (
	"database/sql"
	"time"
)

// Entry represents a single update attempt in the ledger
type Entry struct {
	ID        int64     `json:"id"`
	Device    string    `json:"device"`
	Outcome   string    `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
	Hour      int       `json:"hour"`
	Minute    int       `json:"minute"`
	Error     string    `json:"error,omitempty"`
}

// Ledger provides append-only delivery logging
type Ledger struct {
	db *sql.DB
}

// New creates a new Ledger using the provided database connection
func New(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Append adds a new entry to the ledger. A zero Timestamp means now.
func (l *Ledger) Append(e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	_, err := l.db.Exec(`
		INSERT INTO delivery_ledger (device, outcome, timestamp, hour, minute, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.Device, e.Outcome, e.Timestamp.UTC().Unix(), e.Hour, e.Minute, e.Error)

	return err
}

// Recent returns the newest entries, optionally filtered by device
func (l *Ledger) Recent(device string, limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, device, outcome, timestamp, hour, minute, error
		FROM delivery_ledger
		WHERE ? = '' OR device = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, device, device, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return l.scanEntries(rows)
}

// DeleteOlderThan removes entries older than the specified duration (retention policy)
func (l *Ledger) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	result, err := l.db.Exec(`
		DELETE FROM delivery_ledger WHERE timestamp < ?
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (l *Ledger) scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var errStr sql.NullString
		var timestamp int64

		err := rows.Scan(
			&entry.ID, &entry.Device, &entry.Outcome, &timestamp, &entry.Hour, &entry.Minute, &errStr,
		)
		if err != nil {
			return nil, err
		}

		entry.Timestamp = time.Unix(timestamp, 0).UTC()
		if errStr.Valid {
			entry.Error = errStr.String
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
