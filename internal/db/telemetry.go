package db

import (
	"time"

	"eve-starmap/internal/graph"
)

// FetchRecord is one telemetry poll outcome.
type FetchRecord struct {
	ID         int64  `json:"id"`
	Timestamp  string `json:"timestamp"`
	Systems    int    `json:"systems"`
	ShipKills  int    `json:"ship_kills"`
	ShipJumps  int    `json:"ship_jumps"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// SaveTelemetry replaces the stored counter snapshot.
func (d *DB) SaveTelemetry(stats map[int32]graph.Telemetry, fetchedAt time.Time) error {
	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM system_telemetry"); err != nil {
		tx.Rollback()
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO system_telemetry
		(system_id, npc_kills, pod_kills, ship_kills, ship_jumps, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	ts := fetchedAt.UTC().Format(time.RFC3339)
	for id, t := range stats {
		if _, err := stmt.Exec(id, t.NPCKills, t.PodKills, t.ShipKills, t.ShipJumps, ts); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// LoadTelemetry returns the stored snapshot and when it was fetched. The time
// is zero when nothing is stored.
func (d *DB) LoadTelemetry() (map[int32]graph.Telemetry, time.Time) {
	out := make(map[int32]graph.Telemetry)
	rows, err := d.sql.Query(`SELECT system_id, npc_kills, pod_kills, ship_kills, ship_jumps, fetched_at
		FROM system_telemetry`)
	if err != nil {
		return out, time.Time{}
	}
	defer rows.Close()

	var fetched time.Time
	for rows.Next() {
		var (
			id int32
			t  graph.Telemetry
			ts string
		)
		if err := rows.Scan(&id, &t.NPCKills, &t.PodKills, &t.ShipKills, &t.ShipJumps, &ts); err != nil {
			continue
		}
		out[id] = t
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil && parsed.After(fetched) {
			fetched = parsed
		}
	}
	return out, fetched
}

// InsertFetch records a telemetry poll and returns its ID.
func (d *DB) InsertFetch(rec FetchRecord) int64 {
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	result, err := d.sql.Exec(
		`INSERT INTO telemetry_history (timestamp, systems, ship_kills, ship_jumps, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.Timestamp, rec.Systems, rec.ShipKills, rec.ShipJumps, rec.DurationMs, rec.Error,
	)
	if err != nil {
		return 0
	}
	id, _ := result.LastInsertId()
	return id
}

// GetFetchHistory returns the last N telemetry polls (newest first).
func (d *DB) GetFetchHistory(limit int) []FetchRecord {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.Query(
		`SELECT id, timestamp, systems, ship_kills, ship_jumps, duration_ms, error
		 FROM telemetry_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return []FetchRecord{}
	}
	defer rows.Close()

	var out []FetchRecord
	for rows.Next() {
		var r FetchRecord
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Systems, &r.ShipKills, &r.ShipJumps, &r.DurationMs, &r.Error); err != nil {
			continue
		}
		out = append(out, r)
	}
	if out == nil {
		return []FetchRecord{}
	}
	return out
}
