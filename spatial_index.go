package main

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
)

// zoneEntry wraps a zone for R-tree storage.
type zoneEntry struct {
	zone Zone
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (e *zoneEntry) Bounds() rtreego.Rect { return e.rect }

// ZoneIndex answers bounding-box queries over the loaded no-fly zones.
type ZoneIndex struct {
	tree *rtreego.Rtree
}

// NewZoneIndex builds an R-tree over the zones' bounding boxes.
func NewZoneIndex(zones []Zone) *ZoneIndex {
	tree := rtreego.NewTree(2, 25, 50) // 2D, min 25, max 50 entries per node
	for _, z := range zones {
		rect, err := rectFromBound(z.Geometry.Bound())
		if err != nil {
			continue
		}
		tree.Insert(&zoneEntry{zone: z, rect: rect})
	}
	return &ZoneIndex{tree: tree}
}

// Query returns the zones whose bounding boxes intersect b.
func (zi *ZoneIndex) Query(b orb.Bound) []Zone {
	rect, err := rectFromBound(b)
	if err != nil {
		return nil
	}
	results := zi.tree.SearchIntersect(rect)
	zones := make([]Zone, 0, len(results))
	for _, item := range results {
		zones = append(zones, item.(*zoneEntry).zone)
	}
	return zones
}

// rectFromBound converts an orb bound to an rtreego rect. Degenerate bounds
// get a tiny positive extent, which rtreego requires.
func rectFromBound(b orb.Bound) (rtreego.Rect, error) {
	const minExtent = 1e-9
	w := b.Max.Lon() - b.Min.Lon()
	h := b.Max.Lat() - b.Min.Lat()
	if w < minExtent {
		w = minExtent
	}
	if h < minExtent {
		h = minExtent
	}
	return rtreego.NewRect(rtreego.Point{b.Min.Lon(), b.Min.Lat()}, []float64{w, h})
}
