package main

import (
	"os"
	"path/filepath"

	"github.com/edaniels/golog"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Zone is one no-fly polygon in lon/lat. Only outer rings are kept; a hole
// inside a no-fly zone is still no-fly.
type Zone struct {
	Name     string
	Geometry orb.Polygon
}

// LoadZones reads every *.geojson file in dir and collects the polygons of
// all their features. A file that fails to read or parse is skipped and its
// error accumulated; the remaining files still load.
func LoadZones(dir string, logger golog.Logger) ([]Zone, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.geojson"))
	if err != nil {
		return nil, errors.Wrapf(err, "globbing %s", dir)
	}

	logger.Infof("loading no-fly zones from %d GeoJSON files in %s", len(files), dir)

	var zones []Zone
	var errs error
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Warnf("⚠️  skipping %s: %v", filepath.Base(file), err)
			errs = multierr.Append(errs, errors.Wrapf(err, "reading %s", file))
			continue
		}
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			logger.Warnf("⚠️  skipping %s: %v", filepath.Base(file), err)
			errs = multierr.Append(errs, errors.Wrapf(err, "parsing %s", file))
			continue
		}

		count := 0
		for _, f := range fc.Features {
			name := f.Properties.MustString("name", filepath.Base(file))
			switch g := f.Geometry.(type) {
			case orb.Polygon:
				if len(g) > 0 {
					zones = append(zones, Zone{Name: name, Geometry: orb.Polygon{g[0]}})
					count++
				}
			case orb.MultiPolygon:
				for _, poly := range g {
					if len(poly) > 0 {
						zones = append(zones, Zone{Name: name, Geometry: orb.Polygon{poly[0]}})
						count++
					}
				}
			}
		}
		logger.Infof("   ✅ loaded %d zones from %s", count, filepath.Base(file))
	}

	logger.Infof("total no-fly zones loaded: %d", len(zones))
	return zones, errs
}
