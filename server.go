package main

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/edaniels/golog"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// WorldPoint is a lon/lat pair on the wire (x = lon, y = lat).
type WorldPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PlanRequest struct {
	Start           WorldPoint `json:"start"`
	End             WorldPoint `json:"end"`
	IncludeExpanded bool       `json:"includeExpanded,omitempty"`
}

type PlanResponse struct {
	RequestID      string       `json:"requestId"`
	Success        bool         `json:"success"`
	Message        string       `json:"message,omitempty"`
	Path           []WorldPoint `json:"path"`
	DistanceMeters float64      `json:"distanceMeters,omitempty"`
	Expanded       []WorldPoint `json:"expanded,omitempty"`
}

// planServer owns the shared costmap. The map is swapped wholesale on
// rebuild; handlers snapshot the pointer and plan without holding the lock,
// so concurrent requests never race on grid state.
type planServer struct {
	logger golog.Logger

	zonesDir        string
	simplifyEpsilon float64
	tolerance       int // cells searched around a blocked start/goal
	mapCfg          CostmapConfig

	mu      sync.RWMutex
	costmap *Costmap
}

func newPlanServer(logger golog.Logger, zonesDir string, simplifyEpsilon float64, tolerance int, mapCfg CostmapConfig) *planServer {
	return &planServer{
		logger:          logger,
		zonesDir:        zonesDir,
		simplifyEpsilon: simplifyEpsilon,
		tolerance:       tolerance,
		mapCfg:          mapCfg,
	}
}

func (s *planServer) snapshot() *Costmap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.costmap
}

func (s *planServer) setCostmap(m *Costmap) {
	s.mu.Lock()
	s.costmap = m
	s.mu.Unlock()
}

// rebuild reloads the zone files and swaps in a freshly rasterized costmap.
func (s *planServer) rebuild() error {
	zones, err := LoadZones(s.zonesDir, s.logger)
	if zones == nil && err != nil {
		return err
	}
	if err != nil {
		s.logger.Warnf("⚠️  some zone files failed to load: %v", err)
	}

	zones = SimplifyZones(zones, s.simplifyEpsilon)
	zones = PruneContainedZones(zones, s.logger)
	s.setCostmap(BuildCostmap(zones, s.mapCfg, s.logger))
	return nil
}

func (s *planServer) routes() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/plan", s.planHandler).Methods(http.MethodPost)
	api.HandleFunc("/costmap", s.costmapHandler).Methods(http.MethodGet)
	api.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/zones/reload", s.reloadHandler).Methods(http.MethodPost)
	return r
}

// POST /api/plan — plan a route between two lon/lat points.
func (s *planServer) planHandler(w http.ResponseWriter, r *http.Request) {
	reqID := uuid.NewString()
	logger := s.logger.With("request_id", reqID)

	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warnf("❌ invalid plan request body: %v", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	logger.Infof("📍 plan request: start=(%.6f, %.6f) end=(%.6f, %.6f)",
		req.Start.X, req.Start.Y, req.End.X, req.End.Y)

	m := s.snapshot()
	if m == nil {
		logger.Warn("❌ costmap not built yet")
		http.Error(w, "costmap not built yet", http.StatusServiceUnavailable)
		return
	}

	resp := PlanResponse{RequestID: reqID, Path: []WorldPoint{}}

	start, ok := m.WorldToMap(orb.Point{req.Start.X, req.Start.Y})
	if !ok {
		resp.Message = "start is outside the planning region"
		logger.Infof("❌ %s", resp.Message)
		writeJSON(w, http.StatusOK, resp)
		return
	}
	end, ok := m.WorldToMap(orb.Point{req.End.X, req.End.Y})
	if !ok {
		resp.Message = "goal is outside the planning region"
		logger.Infof("❌ %s", resp.Message)
		writeJSON(w, http.StatusOK, resp)
		return
	}

	start, ok = m.NearestFree(start, s.tolerance)
	if !ok {
		resp.Message = "start is blocked and no free cell was found within tolerance"
		logger.Infof("❌ %s", resp.Message)
		writeJSON(w, http.StatusOK, resp)
		return
	}
	end, ok = m.NearestFree(end, s.tolerance)
	if !ok {
		resp.Message = "goal is blocked and no free cell was found within tolerance"
		logger.Infof("❌ %s", resp.Message)
		writeJSON(w, http.StatusOK, resp)
		return
	}

	path, expanded, found := PlanPath(m, start, end)
	resp.Success = found
	if !found {
		resp.Message = "no path found"
		logger.Infof("❌ no path found (%d nodes expanded)", len(expanded))
		writeJSON(w, http.StatusOK, resp)
		return
	}

	var prev orb.Point
	for i, c := range path {
		p := m.MapToWorld(c)
		resp.Path = append(resp.Path, WorldPoint{X: p.Lon(), Y: p.Lat()})
		if i > 0 {
			resp.DistanceMeters += geo.Distance(prev, p)
		}
		prev = p
	}
	if req.IncludeExpanded {
		for _, c := range expanded {
			p := m.MapToWorld(c)
			resp.Expanded = append(resp.Expanded, WorldPoint{X: p.Lon(), Y: p.Lat()})
		}
	}

	logger.Infof("✅ path found: %d cells, %.0f m, %d nodes expanded",
		len(path), resp.DistanceMeters, len(expanded))
	writeJSON(w, http.StatusOK, resp)
}

// GET /api/costmap — grid dimensions, georeference, and raw cells for
// external visualization.
func (s *planServer) costmapHandler(w http.ResponseWriter, r *http.Request) {
	m := s.snapshot()
	if m == nil {
		http.Error(w, "costmap not built yet", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"width":           m.Width,
		"height":          m.Height,
		"resolution":      m.Resolution,
		"origin":          WorldPoint{X: m.Origin.Lon(), Y: m.Origin.Lat()},
		"lethalCost":      m.LethalCost,
		"inflationFactor": m.InflationFactor,
		"obstacleCells":   m.ObstacleCount(),
		"cells":           m.Cells,
	})
}

// GET /api/health — readiness plus a costmap summary.
func (s *planServer) healthHandler(w http.ResponseWriter, r *http.Request) {
	m := s.snapshot()

	status := "ready"
	if m == nil {
		status = "waiting for costmap"
	}
	summary := map[string]interface{}{
		"status":     status,
		"hasCostmap": m != nil,
	}
	if m != nil {
		summary["width"] = m.Width
		summary["height"] = m.Height
		summary["obstacleCells"] = m.ObstacleCount()
	}
	writeJSON(w, http.StatusOK, summary)
}

// POST /api/zones/reload — reload zone files and rebuild the costmap.
func (s *planServer) reloadHandler(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("🔄 zone reload requested")

	if err := s.rebuild(); err != nil {
		s.logger.Errorf("❌ rebuild failed: %v", err)
		http.Error(w, "rebuild failed", http.StatusInternalServerError)
		return
	}

	m := s.snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"width":         m.Width,
		"height":        m.Height,
		"obstacleCells": m.ObstacleCount(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}
