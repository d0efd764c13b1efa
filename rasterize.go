package main

import (
	"time"

	"github.com/edaniels/golog"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Netherlands bounding box (approximate) — the default planning region.
const (
	NetherlandsMinLat = 50.75 // South (Limburg)
	NetherlandsMaxLat = 53.55 // North (Groningen)
	NetherlandsMinLon = 3.36  // West (North Sea coast)
	NetherlandsMaxLon = 7.23  // East (German border)
)

// CostmapConfig describes how the planning region is rasterized.
type CostmapConfig struct {
	Bound           orb.Bound
	Resolution      float64 // degrees per cell
	LethalCost      byte
	InflationFactor float64
	InflationRadius int  // cells; 0 disables inflation
	Outline         bool // stamp the map border lethal
}

// BuildCostmap rasterizes the no-fly zones into a fresh costmap: every cell
// whose center lies inside a zone is stamped lethal, free cells near lethal
// ones get inscribed cost out to InflationRadius, and the border is
// outlined. Zones are clipped against the region through the R-tree first,
// so zone files covering a wider area than the map stay cheap.
func BuildCostmap(zones []Zone, cfg CostmapConfig, logger golog.Logger) *Costmap {
	startTime := time.Now()
	m := NewCostmap(cfg.Bound, cfg.Resolution, cfg.LethalCost, cfg.InflationFactor)
	logger.Infof("🗺️  rasterizing %d no-fly zones into %dx%d cells (%.4f°/cell)...",
		len(zones), m.Width, m.Height, cfg.Resolution)

	candidates := NewZoneIndex(zones).Query(cfg.Bound)

	stamped := 0
	for _, z := range candidates {
		zb := z.Geometry.Bound()
		x0 := clamp(int((zb.Min.Lon()-m.Origin.Lon())/m.Resolution), 0, m.Width-1)
		x1 := clamp(int((zb.Max.Lon()-m.Origin.Lon())/m.Resolution)+1, 0, m.Width-1)
		y0 := clamp(int((zb.Min.Lat()-m.Origin.Lat())/m.Resolution), 0, m.Height-1)
		y1 := clamp(int((zb.Max.Lat()-m.Origin.Lat())/m.Resolution)+1, 0, m.Height-1)

		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				if m.Cost(x, y) == CostLethal {
					continue
				}
				if planar.PolygonContains(z.Geometry, m.MapToWorld(Cell{X: x, Y: y})) {
					m.SetCost(x, y, CostLethal)
					stamped++
				}
			}
		}
	}

	inflated := 0
	if cfg.InflationRadius > 0 {
		inflated = m.inflate(cfg.InflationRadius)
	}
	if cfg.Outline {
		m.Outline()
	}

	logger.Infof("   ✅ costmap built: %d lethal cells, %d inflated, %d zones in region",
		stamped, inflated, len(candidates))
	logger.Infof("   ⏱️  build time: %.2f seconds", time.Since(startTime).Seconds())
	return m
}

// inflate stamps inscribed cost on cells within radius (Chebyshev) of a
// lethal cell. Lethal cells are collected first so freshly inflated cells do
// not cascade.
func (m *Costmap) inflate(radius int) int {
	var lethal []Cell
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Cost(x, y) == CostLethal {
				lethal = append(lethal, Cell{X: x, Y: y})
			}
		}
	}

	count := 0
	for _, c := range lethal {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				x, y := c.X+dx, c.Y+dy
				if m.InBounds(x, y) && m.Cost(x, y) < CostInscribed {
					m.SetCost(x, y, CostInscribed)
					count++
				}
			}
		}
	}
	return count
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
