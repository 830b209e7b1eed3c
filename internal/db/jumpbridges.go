package db

import (
	"strings"
	"time"

	"eve-starmap/internal/graph"
)

// pairKey identifies a bridge regardless of direction.
func pairKey(from, to string) string {
	a, b := strings.ToLower(strings.TrimSpace(from)), strings.ToLower(strings.TrimSpace(to))
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// GetJumpBridges returns all stored jump bridges, oldest first.
func (d *DB) GetJumpBridges() []graph.JumpBridge {
	rows, err := d.sql.Query("SELECT id, from_system, to_system FROM jump_bridges ORDER BY id")
	if err != nil {
		return []graph.JumpBridge{}
	}
	defer rows.Close()

	var out []graph.JumpBridge
	for rows.Next() {
		var jb graph.JumpBridge
		if err := rows.Scan(&jb.ID, &jb.From, &jb.To); err != nil {
			continue
		}
		out = append(out, jb)
	}
	if out == nil {
		return []graph.JumpBridge{}
	}
	return out
}

// AddJumpBridge inserts a bridge. Returns the new ID and true, or 0 and false
// if the same pair (in either direction) already exists.
func (d *DB) AddJumpBridge(from, to string) (int64, bool) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	res, err := d.sql.Exec(
		`INSERT OR IGNORE INTO jump_bridges (from_system, to_system, pair_key, added_at)
		 VALUES (?, ?, ?, ?)`,
		from, to, pairKey(from, to), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, false
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, false
	}
	id, _ := res.LastInsertId()
	return id, true
}

// DeleteJumpBridge removes a bridge by ID. Returns false if it did not exist.
func (d *DB) DeleteJumpBridge(id int64) bool {
	res, err := d.sql.Exec("DELETE FROM jump_bridges WHERE id = ?", id)
	if err != nil {
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}
