package mapview

import "eve-starmap/internal/graph"

// GraphProvider is the read-only view of the universe the engine draws from.
// graph.Universe satisfies it.
type GraphProvider interface {
	// Systems returns every system in a stable order.
	Systems() []*graph.System
	SystemByID(id int32) (*graph.System, bool)
	System(name string) (*graph.System, bool)
	// Jumps returns the directed gate neighbours of a system. Entries may name
	// systems the provider does not know.
	Jumps(systemID int32) []int32
	JumpBridges() []graph.JumpBridge
	Regions() []*graph.Region
	// Distance returns metres between two named systems, negative if unknown.
	Distance(from, to string) float64
}
