package mapview

import "eve-starmap/internal/graph"

// Link is an undirected gate connection between two distinct systems.
type Link struct {
	From *graph.System
	To   *graph.System
}

// LinkSet is the deduplicated link list plus a count of jumps that were
// dropped because they pointed at unknown systems or back at their origin.
type LinkSet struct {
	Links   []Link
	Skipped int
}

type linkKey struct {
	lo, hi int32
}

func keyOf(a, b int32) linkKey {
	if a > b {
		a, b = b, a
	}
	return linkKey{lo: a, hi: b}
}

// DedupLinks folds the provider's directed jumps into one Link per unordered
// system pair, keeping the order in which pairs are first seen.
func DedupLinks(p GraphProvider) LinkSet {
	var out LinkSet
	seen := make(map[linkKey]struct{})
	for _, sys := range p.Systems() {
		for _, toID := range p.Jumps(sys.ID) {
			if toID == sys.ID {
				out.Skipped++
				continue
			}
			to, ok := p.SystemByID(toID)
			if !ok {
				out.Skipped++
				continue
			}
			k := keyOf(sys.ID, toID)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out.Links = append(out.Links, Link{From: sys, To: to})
		}
	}
	return out
}

// crossesBoundary reports whether a link leaves its region or constellation.
func (l Link) crossesBoundary() bool {
	return l.From.RegionID != l.To.RegionID || l.From.ConstellationID != l.To.ConstellationID
}
