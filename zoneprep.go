package main

import (
	"github.com/edaniels/golog"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// SimplifyZones runs Douglas-Peucker over every zone outline. epsilon is in
// degrees; zero or negative disables simplification. A zone whose outline
// would collapse below a valid ring keeps its original geometry.
func SimplifyZones(zones []Zone, epsilon float64) []Zone {
	if epsilon <= 0 {
		return zones
	}
	simplifier := simplify.DouglasPeucker(epsilon)
	out := make([]Zone, 0, len(zones))
	for _, z := range zones {
		geom := simplifier.Polygon(z.Geometry.Clone())
		if len(geom) == 0 || len(geom[0]) < 4 {
			out = append(out, z)
			continue
		}
		out = append(out, Zone{Name: z.Name, Geometry: geom})
	}
	return out
}

// PruneContainedZones drops zones whose outline lies entirely inside another
// zone; they cannot change the rasterized map. A bound check gates the
// per-vertex containment test.
func PruneContainedZones(zones []Zone, logger golog.Logger) []Zone {
	if len(zones) <= 1 {
		return zones
	}

	contained := make([]bool, len(zones))
	for i := range zones {
		if contained[i] {
			continue
		}
		for j := range zones {
			if i == j || contained[j] {
				continue
			}
			if zoneContainedIn(zones[i], zones[j]) {
				contained[i] = true
				break
			}
			if zoneContainedIn(zones[j], zones[i]) {
				contained[j] = true
			}
		}
	}

	out := make([]Zone, 0, len(zones))
	for i, z := range zones {
		if !contained[i] {
			out = append(out, z)
		}
	}
	if removed := len(zones) - len(out); removed > 0 {
		logger.Infof("   pruned %d zones contained in larger zones", removed)
	}
	return out
}

// zoneContainedIn reports whether every outer-ring vertex of a lies inside
// b's polygon.
func zoneContainedIn(a, b Zone) bool {
	if len(a.Geometry) == 0 || len(b.Geometry) == 0 {
		return false
	}
	ab, bb := a.Geometry.Bound(), b.Geometry.Bound()
	if !bb.Contains(ab.Min) || !bb.Contains(ab.Max) {
		return false
	}
	for _, p := range a.Geometry[0] {
		if !planar.PolygonContains(b.Geometry, p) {
			return false
		}
	}
	return true
}
