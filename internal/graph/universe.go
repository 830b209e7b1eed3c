package graph

import (
	"math"
	"strings"
)

// Vec3 is a position in galaxy space (metres).
type Vec3 struct {
	X, Y, Z float64
}

// Telemetry holds the per-hour activity counters published by ESI for one system.
type Telemetry struct {
	NPCKills  int `json:"npc_kills"`
	PodKills  int `json:"pod_kills"`
	ShipKills int `json:"ship_kills"`
	ShipJumps int `json:"ship_jumps"`
}

// System is a solar system. Identity fields are set once at load; Stats is
// overwritten by the telemetry feed between refresh ticks.
type System struct {
	ID              int32
	Name            string
	Position        Vec3
	RegionID        int32
	ConstellationID int32
	Security        float64 // 0.0 (null) to 1.0 (highsec)
	Stats           Telemetry
}

// Region is a named group of constellations with a representative position
// used to place its label.
type Region struct {
	ID          int32
	Name        string
	Position    Vec3
	HasPosition bool
}

// JumpBridge is a player-declared long-range link between two named systems.
type JumpBridge struct {
	ID   int64  `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Universe holds the adjacency list of solar systems connected by stargates,
// plus positions, region/constellation membership and jump bridges.
type Universe struct {
	// Adj maps systemID -> list of neighboring systemIDs (directed, as listed by the SDE)
	Adj map[int32][]int32
	// SystemRegion maps systemID -> regionID
	SystemRegion map[int32]int32

	systems    []*System // load order
	byID       map[int32]*System
	byName     map[string]*System // lowercase name
	regions    []*Region
	regionByID map[int32]*Region
	bridges    []JumpBridge
}

// NewUniverse creates an empty Universe with initialized maps.
func NewUniverse() *Universe {
	return &Universe{
		Adj:          make(map[int32][]int32),
		SystemRegion: make(map[int32]int32),
		byID:         make(map[int32]*System),
		byName:       make(map[string]*System),
		regionByID:   make(map[int32]*Region),
	}
}

// AddSystem registers a system. A second system with the same ID replaces the first
// in the lookup maps but keeps the original load-order slot.
func (u *Universe) AddSystem(s *System) {
	if prev, ok := u.byID[s.ID]; ok {
		for i, existing := range u.systems {
			if existing == prev {
				u.systems[i] = s
				break
			}
		}
		delete(u.byName, strings.ToLower(prev.Name))
	} else {
		u.systems = append(u.systems, s)
	}
	u.byID[s.ID] = s
	u.byName[strings.ToLower(s.Name)] = s
	u.SystemRegion[s.ID] = s.RegionID
}

// AddRegion registers a region.
func (u *Universe) AddRegion(r *Region) {
	if _, ok := u.regionByID[r.ID]; !ok {
		u.regions = append(u.regions, r)
	}
	u.regionByID[r.ID] = r
}

// AddGate adds a directed stargate connection. The SDE lists each gate from both
// ends, so a normal two-way connection arrives as two calls.
func (u *Universe) AddGate(fromSystem, toSystem int32) {
	u.Adj[fromSystem] = append(u.Adj[fromSystem], toSystem)
}

// SetJumpBridges replaces the jump bridge list.
func (u *Universe) SetJumpBridges(bridges []JumpBridge) {
	u.bridges = append(u.bridges[:0:0], bridges...)
}

// PlaceRegions gives every region without an SDE position the centroid of its
// systems. Regions with no systems stay at the origin.
func (u *Universe) PlaceRegions() {
	type acc struct {
		sum Vec3
		n   int
	}
	sums := make(map[int32]*acc)
	for _, s := range u.systems {
		a := sums[s.RegionID]
		if a == nil {
			a = &acc{}
			sums[s.RegionID] = a
		}
		a.sum.X += s.Position.X
		a.sum.Y += s.Position.Y
		a.sum.Z += s.Position.Z
		a.n++
	}
	for _, r := range u.regions {
		if r.HasPosition {
			continue
		}
		if a := sums[r.ID]; a != nil && a.n > 0 {
			n := float64(a.n)
			r.Position = Vec3{X: a.sum.X / n, Y: a.sum.Y / n, Z: a.sum.Z / n}
			r.HasPosition = true
		}
	}
}

// Systems returns all systems in load order. The slice must not be modified.
func (u *Universe) Systems() []*System { return u.systems }

// Regions returns all regions in load order.
func (u *Universe) Regions() []*Region { return u.regions }

// JumpBridges returns the current jump bridge list.
func (u *Universe) JumpBridges() []JumpBridge { return u.bridges }

// Jumps returns the directed gate neighbours of a system.
func (u *Universe) Jumps(systemID int32) []int32 { return u.Adj[systemID] }

// SystemByID looks a system up by ID.
func (u *Universe) SystemByID(id int32) (*System, bool) {
	s, ok := u.byID[id]
	return s, ok
}

// System looks a system up by name, case-insensitively.
func (u *Universe) System(name string) (*System, bool) {
	s, ok := u.byName[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// Region looks a region up by ID.
func (u *Universe) Region(id int32) (*Region, bool) {
	r, ok := u.regionByID[id]
	return r, ok
}

// Distance returns the straight-line distance in metres between two named systems,
// or -1 if either name is unknown.
func (u *Universe) Distance(from, to string) float64 {
	a, ok := u.System(from)
	if !ok {
		return -1
	}
	b, ok := u.System(to)
	if !ok {
		return -1
	}
	dx := a.Position.X - b.Position.X
	dy := a.Position.Y - b.Position.Y
	dz := a.Position.Z - b.Position.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// ApplyTelemetry overwrites every system's counters. Systems absent from stats
// are reset to zero: ESI omits systems with no activity. Returns the number of
// systems that received a non-zero entry.
func (u *Universe) ApplyTelemetry(stats map[int32]Telemetry) int {
	updated := 0
	for _, s := range u.systems {
		t, ok := stats[s.ID]
		s.Stats = t
		if ok {
			updated++
		}
	}
	return updated
}

// Telemetry returns a copy of all non-zero counters keyed by system ID.
func (u *Universe) Telemetry() map[int32]Telemetry {
	out := make(map[int32]Telemetry)
	for _, s := range u.systems {
		if s.Stats != (Telemetry{}) {
			out[s.ID] = s.Stats
		}
	}
	return out
}

// SystemNames returns all system names in load order (for autocomplete).
func (u *Universe) SystemNames() []string {
	names := make([]string, len(u.systems))
	for i, s := range u.systems {
		names[i] = s.Name
	}
	return names
}
