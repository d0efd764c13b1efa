package main

import (
	"encoding/json"
	"math"
	"os"

	"github.com/edaniels/golog"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

// Cost conventions on the usual occupancy byte scale.
const (
	CostFree      byte = 0
	CostInscribed byte = 253
	CostLethal    byte = 254
)

// Costmap is a rasterized occupancy grid over a lon/lat region. Cells are
// row-major (index = y*Width + x) with cell (0, 0) at the region's minimum
// corner. A built costmap is treated as read-only while planning; rebuilds
// swap in a fresh instance.
type Costmap struct {
	Width           int       `json:"width"`
	Height          int       `json:"height"`
	Resolution      float64   `json:"resolution"` // degrees per cell
	Origin          orb.Point `json:"origin"`     // lon/lat of the (0,0) cell corner
	LethalCost      byte      `json:"lethalCost"`
	InflationFactor float64   `json:"inflationFactor"`
	Cells           []byte    `json:"cells"`
}

// NewCostmap allocates an all-free costmap covering bound at the given
// resolution.
func NewCostmap(bound orb.Bound, resolution float64, lethalCost byte, inflationFactor float64) *Costmap {
	width := int(math.Ceil((bound.Max.Lon() - bound.Min.Lon()) / resolution))
	height := int(math.Ceil((bound.Max.Lat() - bound.Min.Lat()) / resolution))
	return &Costmap{
		Width:           width,
		Height:          height,
		Resolution:      resolution,
		Origin:          bound.Min,
		LethalCost:      lethalCost,
		InflationFactor: inflationFactor,
		Cells:           make([]byte, width*height),
	}
}

// Size implements CostGrid.
func (m *Costmap) Size() (int, int) { return m.Width, m.Height }

// Cost implements CostGrid. Valid only for in-bounds coordinates.
func (m *Costmap) Cost(x, y int) byte { return m.Cells[y*m.Width+x] }

// ObstacleThreshold implements CostGrid.
func (m *Costmap) ObstacleThreshold() float64 {
	return float64(m.LethalCost) * m.InflationFactor
}

func (m *Costmap) SetCost(x, y int, cost byte) { m.Cells[y*m.Width+x] = cost }

func (m *Costmap) InBounds(x, y int) bool {
	return x >= 0 && x < m.Width && y >= 0 && y < m.Height
}

// Obstacle reports whether the in-bounds cell is at or above the threshold.
func (m *Costmap) Obstacle(x, y int) bool {
	return float64(m.Cost(x, y)) >= m.ObstacleThreshold()
}

// ObstacleCount returns the number of cells at or above the threshold.
func (m *Costmap) ObstacleCount() int {
	count := 0
	threshold := m.ObstacleThreshold()
	for _, c := range m.Cells {
		if float64(c) >= threshold {
			count++
		}
	}
	return count
}

// Bound returns the lon/lat region the grid covers.
func (m *Costmap) Bound() orb.Bound {
	return orb.Bound{
		Min: m.Origin,
		Max: orb.Point{
			m.Origin.Lon() + float64(m.Width)*m.Resolution,
			m.Origin.Lat() + float64(m.Height)*m.Resolution,
		},
	}
}

// WorldToMap floors a lon/lat point into the cell containing it. The second
// return is false when the point falls outside the grid.
func (m *Costmap) WorldToMap(p orb.Point) (Cell, bool) {
	if p.Lon() < m.Origin.Lon() || p.Lat() < m.Origin.Lat() {
		return Cell{}, false
	}
	c := Cell{
		X: int((p.Lon() - m.Origin.Lon()) / m.Resolution),
		Y: int((p.Lat() - m.Origin.Lat()) / m.Resolution),
	}
	if !m.InBounds(c.X, c.Y) {
		return Cell{}, false
	}
	return c, true
}

// MapToWorld returns the lon/lat center of a cell.
func (m *Costmap) MapToWorld(c Cell) orb.Point {
	return orb.Point{
		m.Origin.Lon() + (float64(c.X)+0.5)*m.Resolution,
		m.Origin.Lat() + (float64(c.Y)+0.5)*m.Resolution,
	}
}

// Outline stamps lethal cost along all four borders so no plan crosses the
// map edge.
func (m *Costmap) Outline() {
	for x := 0; x < m.Width; x++ {
		m.SetCost(x, 0, CostLethal)
		m.SetCost(x, m.Height-1, CostLethal)
	}
	for y := 0; y < m.Height; y++ {
		m.SetCost(0, y, CostLethal)
		m.SetCost(m.Width-1, y, CostLethal)
	}
}

// NearestFree scans expanding rings around c and returns the first
// non-obstacle cell within radius, c itself when it is already free. Used to
// snap a blocked start or goal before planning.
func (m *Costmap) NearestFree(c Cell, radius int) (Cell, bool) {
	if m.InBounds(c.X, c.Y) && !m.Obstacle(c.X, c.Y) {
		return c, true
	}
	for r := 1; r <= radius; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if max(abs(dx), abs(dy)) != r {
					continue // interior of the ring was covered by smaller r
				}
				x, y := c.X+dx, c.Y+dy
				if m.InBounds(x, y) && !m.Obstacle(x, y) {
					return Cell{X: x, Y: y}, true
				}
			}
		}
	}
	return Cell{}, false
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// SaveCostmap writes the costmap to a JSON file. Cells serialize as base64.
func SaveCostmap(m *Costmap, path string, logger golog.Logger) error {
	data, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, "marshaling costmap")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	logger.Infof("💾 costmap saved to %s (%d bytes)", path, len(data))
	return nil
}

// LoadCostmap reads a previously saved costmap.
func LoadCostmap(path string, logger golog.Logger) (*Costmap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	var m Costmap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if len(m.Cells) != m.Width*m.Height {
		return nil, errors.Errorf("costmap %s has %d cells, want %d", path, len(m.Cells), m.Width*m.Height)
	}
	logger.Infof("📂 costmap loaded from %s: %dx%d cells", path, m.Width, m.Height)
	return &m, nil
}
