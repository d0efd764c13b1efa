package main

import (
	"net/http"
	"os"

	_ "net/http/pprof"

	"github.com/edaniels/golog"
	"github.com/paulmach/orb"
	"github.com/rs/cors"
	"github.com/urfave/cli/v2"
)

func main() {
	logger := golog.NewDevelopmentLogger("grid-planner")

	app := &cli.App{
		Name:  "grid-planner",
		Usage: "jump point search route planning over rasterized no-fly zones",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":8080",
				Usage:   "listen address",
				EnvVars: []string{"GRID_PLANNER_ADDR"},
			},
			&cli.StringFlag{
				Name:    "zones-dir",
				Value:   "nfz-polygons",
				Usage:   "directory of *.geojson no-fly zone files",
				EnvVars: []string{"GRID_PLANNER_ZONES_DIR"},
			},
			&cli.StringFlag{
				Name:    "costmap-file",
				Usage:   "load a previously saved costmap; rebuilt and saved here when missing",
				EnvVars: []string{"GRID_PLANNER_COSTMAP_FILE"},
			},
			&cli.Float64Flag{
				Name:  "min-lon",
				Value: NetherlandsMinLon,
				Usage: "west edge of the planning region",
			},
			&cli.Float64Flag{
				Name:  "min-lat",
				Value: NetherlandsMinLat,
				Usage: "south edge of the planning region",
			},
			&cli.Float64Flag{
				Name:  "max-lon",
				Value: NetherlandsMaxLon,
				Usage: "east edge of the planning region",
			},
			&cli.Float64Flag{
				Name:  "max-lat",
				Value: NetherlandsMaxLat,
				Usage: "north edge of the planning region",
			},
			&cli.Float64Flag{
				Name:  "resolution",
				Value: 0.005,
				Usage: "degrees per grid cell",
			},
			&cli.IntFlag{
				Name:  "lethal-cost",
				Value: int(CostInscribed),
				Usage: "cost at which a cell counts as an obstacle",
			},
			&cli.Float64Flag{
				Name:  "inflation-factor",
				Value: 1.0,
				Usage: "multiplier applied to lethal-cost for the obstacle threshold",
			},
			&cli.IntFlag{
				Name:  "inflation-radius",
				Value: 1,
				Usage: "inflate obstacles by this many cells (0 disables)",
			},
			&cli.BoolFlag{
				Name:  "outline",
				Value: true,
				Usage: "stamp the map border as lethal",
			},
			&cli.Float64Flag{
				Name:  "simplify-epsilon",
				Value: 0.0002,
				Usage: "Douglas-Peucker tolerance for zone outlines in degrees (0 disables)",
			},
			&cli.IntFlag{
				Name:  "tolerance",
				Value: 3,
				Usage: "cells searched around a blocked start/goal",
			},
			&cli.BoolFlag{
				Name:    "watch",
				Value:   true,
				Usage:   "rebuild the costmap when zone files change",
				EnvVars: []string{"GRID_PLANNER_WATCH"},
			},
			&cli.StringFlag{
				Name:  "pprof-addr",
				Usage: "optional pprof listen address, e.g. localhost:6060",
			},
		},
		Action: func(c *cli.Context) error {
			cfg := CostmapConfig{
				Bound: orb.Bound{
					Min: orb.Point{c.Float64("min-lon"), c.Float64("min-lat")},
					Max: orb.Point{c.Float64("max-lon"), c.Float64("max-lat")},
				},
				Resolution:      c.Float64("resolution"),
				LethalCost:      byte(c.Int("lethal-cost")),
				InflationFactor: c.Float64("inflation-factor"),
				InflationRadius: c.Int("inflation-radius"),
				Outline:         c.Bool("outline"),
			}
			s := newPlanServer(logger, c.String("zones-dir"), c.Float64("simplify-epsilon"), c.Int("tolerance"), cfg)

			if file := c.String("costmap-file"); file != "" {
				if m, err := LoadCostmap(file, logger); err == nil {
					s.setCostmap(m)
				} else {
					logger.Infof("no saved costmap (%v), rasterizing from zones", err)
				}
			}
			if s.snapshot() == nil {
				if err := s.rebuild(); err != nil {
					return err
				}
				if file := c.String("costmap-file"); file != "" {
					if err := SaveCostmap(s.snapshot(), file, logger); err != nil {
						logger.Warnf("⚠️  failed to save costmap: %v", err)
					}
				}
			}

			if c.Bool("watch") {
				watcher, err := watchZones(s, logger)
				if err != nil {
					logger.Warnf("⚠️  zones watcher unavailable: %v", err)
				} else {
					defer watcher.Close()
				}
			}

			if pprofAddr := c.String("pprof-addr"); pprofAddr != "" {
				go func() {
					logger.Infof("pprof listening on %s", pprofAddr)
					logger.Warn(http.ListenAndServe(pprofAddr, nil))
				}()
			}

			handler := cors.New(cors.Options{
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
				AllowedHeaders: []string{"*"},
			}).Handler(s.routes())

			addr := c.String("addr")
			logger.Infof("🚀 grid-planner listening on %s", addr)
			return http.ListenAndServe(addr, handler)
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal(err)
	}
}
