// Package storage persists device info between runs.
package storage

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/ringclock/internal/device"
)

// InfoCache provides persistent storage for WLED device info with a TTL
type InfoCache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewInfoCache creates a new info cache backed by SQLite. Entries older than
// ttl are treated as missing.
func NewInfoCache(db *sql.DB, ttl time.Duration) *InfoCache {
	return &InfoCache{db: db, ttl: ttl, now: time.Now}
}

// Get retrieves cached info by device address
func (c *InfoCache) Get(address string) (*device.Info, bool) {
	var info device.Info
	var fetchedAt int64
	err := c.db.QueryRow(`
		SELECT led_count, max_segments, effect_count, fetched_at
		FROM device_info
		WHERE address = ?
	`, address).Scan(&info.LedCount, &info.MaxSegments, &info.EffectCount, &fetchedAt)

	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("address", address).Msg("Failed to read device info cache")
		return nil, false
	}

	if age := c.now().Sub(time.Unix(fetchedAt, 0)); age > c.ttl {
		log.Debug().Str("address", address).Dur("age", age).Msg("Device info cache expired")
		return nil, false
	}

	log.Debug().Str("address", address).Int("leds", info.LedCount).Int("maxseg", info.MaxSegments).Msg("Device info cache hit")
	return &info, true
}

// Put stores device info
func (c *InfoCache) Put(address string, info device.Info) error {
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO device_info (address, led_count, max_segments, effect_count, fetched_at)
		VALUES (?, ?, ?, ?, ?)
	`, address, info.LedCount, info.MaxSegments, info.EffectCount, c.now().Unix())

	if err != nil {
		log.Warn().Err(err).Str("address", address).Msg("Failed to write device info cache")
		return err
	}

	log.Info().Str("address", address).Int("leds", info.LedCount).Int("maxseg", info.MaxSegments).Msg("Device info cached")
	return nil
}

// Clear removes every cached entry and returns how many were removed
func (c *InfoCache) Clear() (int64, error) {
	res, err := c.db.Exec(`DELETE FROM device_info`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
