package esi

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"eve-starmap/internal/graph"
)

// SystemKills mirrors one entry of /universe/system_kills/.
type SystemKills struct {
	SystemID  int32 `json:"system_id"`
	NPCKills  int   `json:"npc_kills"`
	PodKills  int   `json:"pod_kills"`
	ShipKills int   `json:"ship_kills"`
}

// SystemJumps mirrors one entry of /universe/system_jumps/.
type SystemJumps struct {
	SystemID  int32 `json:"system_id"`
	ShipJumps int   `json:"ship_jumps"`
}

// Snapshot is one merged telemetry fetch. Systems with no activity are absent.
type Snapshot struct {
	Stats     map[int32]graph.Telemetry
	FetchedAt time.Time
}

// FetchSystemKills fetches last-hour kill counts for every system with activity.
func (c *Client) FetchSystemKills(ctx context.Context) ([]SystemKills, error) {
	var out []SystemKills
	if err := c.getCached(ctx, c.url("/universe/system_kills/"), &out); err != nil {
		return nil, fmt.Errorf("system kills: %w", err)
	}
	return out, nil
}

// FetchSystemJumps fetches last-hour jump counts for every system with activity.
func (c *Client) FetchSystemJumps(ctx context.Context) ([]SystemJumps, error) {
	var out []SystemJumps
	if err := c.getCached(ctx, c.url("/universe/system_jumps/"), &out); err != nil {
		return nil, fmt.Errorf("system jumps: %w", err)
	}
	return out, nil
}

// FetchTelemetry fetches kills and jumps in parallel and merges them per system.
func (c *Client) FetchTelemetry(ctx context.Context) (*Snapshot, error) {
	var (
		kills []SystemKills
		jumps []SystemJumps
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		kills, err = c.FetchSystemKills(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		jumps, err = c.FetchSystemJumps(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Snapshot{Stats: Merge(kills, jumps), FetchedAt: time.Now().UTC()}, nil
}

// Merge combines the two ESI lists into one counter set per system.
func Merge(kills []SystemKills, jumps []SystemJumps) map[int32]graph.Telemetry {
	stats := make(map[int32]graph.Telemetry, len(kills)+len(jumps))
	for _, k := range kills {
		t := stats[k.SystemID]
		t.NPCKills = k.NPCKills
		t.PodKills = k.PodKills
		t.ShipKills = k.ShipKills
		stats[k.SystemID] = t
	}
	for _, j := range jumps {
		t := stats[j.SystemID]
		t.ShipJumps = j.ShipJumps
		stats[j.SystemID] = t
	}
	return stats
}
