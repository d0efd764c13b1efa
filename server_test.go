package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"
)

func testServer(t *testing.T, zonesDir string) *planServer {
	t.Helper()
	cfg := CostmapConfig{
		Bound:           testBound(), // (4.0, 51.0) to (4.5, 51.5), 10x10 at 0.05°
		Resolution:      0.05,
		LethalCost:      CostInscribed,
		InflationFactor: 1.0,
		Outline:         true,
	}
	return newPlanServer(golog.NewTestLogger(t), zonesDir, 0, 3, cfg)
}

func postJSON(t *testing.T, router http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	test.That(t, err, test.ShouldBeNil)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPlanHandler(t *testing.T) {
	s := testServer(t, t.TempDir())
	test.That(t, s.rebuild(), test.ShouldBeNil)
	router := s.routes()

	w := postJSON(t, router, "/api/plan", PlanRequest{
		Start: WorldPoint{X: 4.12, Y: 51.12},
		End:   WorldPoint{X: 4.38, Y: 51.38},
	})
	test.That(t, w.Code, test.ShouldEqual, http.StatusOK)

	var resp PlanResponse
	test.That(t, json.Unmarshal(w.Body.Bytes(), &resp), test.ShouldBeNil)
	test.That(t, resp.Success, test.ShouldBeTrue)
	test.That(t, resp.RequestID, test.ShouldNotBeEmpty)
	test.That(t, len(resp.Path), test.ShouldBeGreaterThan, 1)
	test.That(t, resp.DistanceMeters, test.ShouldBeGreaterThan, 0.0)
	test.That(t, resp.Expanded, test.ShouldHaveLength, 0)

	first, last := resp.Path[0], resp.Path[len(resp.Path)-1]
	test.That(t, first.X, test.ShouldAlmostEqual, 4.125, 0.026)
	test.That(t, first.Y, test.ShouldAlmostEqual, 51.125, 0.026)
	test.That(t, last.X, test.ShouldAlmostEqual, 4.375, 0.026)
	test.That(t, last.Y, test.ShouldAlmostEqual, 51.375, 0.026)
}

func TestPlanHandlerIncludeExpanded(t *testing.T) {
	s := testServer(t, t.TempDir())
	test.That(t, s.rebuild(), test.ShouldBeNil)

	w := postJSON(t, s.routes(), "/api/plan", PlanRequest{
		Start:           WorldPoint{X: 4.12, Y: 51.12},
		End:             WorldPoint{X: 4.38, Y: 51.38},
		IncludeExpanded: true,
	})
	test.That(t, w.Code, test.ShouldEqual, http.StatusOK)

	var resp PlanResponse
	test.That(t, json.Unmarshal(w.Body.Bytes(), &resp), test.ShouldBeNil)
	test.That(t, resp.Success, test.ShouldBeTrue)
	test.That(t, len(resp.Expanded), test.ShouldBeGreaterThan, 0)
}

func TestPlanHandlerOutsideRegion(t *testing.T) {
	s := testServer(t, t.TempDir())
	test.That(t, s.rebuild(), test.ShouldBeNil)

	w := postJSON(t, s.routes(), "/api/plan", PlanRequest{
		Start: WorldPoint{X: 10.0, Y: 55.0},
		End:   WorldPoint{X: 4.38, Y: 51.38},
	})
	test.That(t, w.Code, test.ShouldEqual, http.StatusOK)

	var resp PlanResponse
	test.That(t, json.Unmarshal(w.Body.Bytes(), &resp), test.ShouldBeNil)
	test.That(t, resp.Success, test.ShouldBeFalse)
	test.That(t, resp.Message, test.ShouldContainSubstring, "outside")
	test.That(t, resp.Path, test.ShouldHaveLength, 0)
}

func TestPlanHandlerBadBody(t *testing.T) {
	s := testServer(t, t.TempDir())
	test.That(t, s.rebuild(), test.ShouldBeNil)

	req := httptest.NewRequest(http.MethodPost, "/api/plan", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	s.routes().ServeHTTP(w, req)
	test.That(t, w.Code, test.ShouldEqual, http.StatusBadRequest)
}

func TestPlanHandlerNoCostmap(t *testing.T) {
	s := testServer(t, t.TempDir())

	w := postJSON(t, s.routes(), "/api/plan", PlanRequest{
		Start: WorldPoint{X: 4.12, Y: 51.12},
		End:   WorldPoint{X: 4.38, Y: 51.38},
	})
	test.That(t, w.Code, test.ShouldEqual, http.StatusServiceUnavailable)
}

func TestHealthHandler(t *testing.T) {
	s := testServer(t, t.TempDir())
	router := s.routes()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	test.That(t, w.Code, test.ShouldEqual, http.StatusOK)

	var body map[string]interface{}
	test.That(t, json.Unmarshal(w.Body.Bytes(), &body), test.ShouldBeNil)
	test.That(t, body["status"], test.ShouldEqual, "waiting for costmap")
	test.That(t, body["hasCostmap"], test.ShouldBeFalse)

	test.That(t, s.rebuild(), test.ShouldBeNil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	test.That(t, json.Unmarshal(w.Body.Bytes(), &body), test.ShouldBeNil)
	test.That(t, body["status"], test.ShouldEqual, "ready")
	test.That(t, body["width"], test.ShouldEqual, 10)
}

func TestCostmapHandler(t *testing.T) {
	s := testServer(t, t.TempDir())
	test.That(t, s.rebuild(), test.ShouldBeNil)

	req := httptest.NewRequest(http.MethodGet, "/api/costmap", nil)
	w := httptest.NewRecorder()
	s.routes().ServeHTTP(w, req)
	test.That(t, w.Code, test.ShouldEqual, http.StatusOK)

	var body map[string]interface{}
	test.That(t, json.Unmarshal(w.Body.Bytes(), &body), test.ShouldBeNil)
	test.That(t, body["width"], test.ShouldEqual, 10)
	test.That(t, body["height"], test.ShouldEqual, 10)
	// the outline alone blocks the 36 border cells
	test.That(t, body["obstacleCells"], test.ShouldEqual, 36)
	test.That(t, body["cells"], test.ShouldNotBeNil)
}

func TestReloadHandler(t *testing.T) {
	dir := t.TempDir()
	s := testServer(t, dir)
	test.That(t, s.rebuild(), test.ShouldBeNil)
	before := s.snapshot()
	test.That(t, before.ObstacleCount(), test.ShouldEqual, 36)

	// drop a zone file and reload; the new costmap picks it up
	writeZoneFile(t, dir, "zone.geojson", `{
	  "type": "FeatureCollection",
	  "features": [{
	    "type": "Feature",
	    "properties": {"name": "block"},
	    "geometry": {
	      "type": "Polygon",
	      "coordinates": [[[4.2, 51.2], [4.3, 51.2], [4.3, 51.3], [4.2, 51.3], [4.2, 51.2]]]
	    }
	  }]
	}`)

	w := postJSON(t, s.routes(), "/api/zones/reload", struct{}{})
	test.That(t, w.Code, test.ShouldEqual, http.StatusOK)

	after := s.snapshot()
	test.That(t, after, test.ShouldNotEqual, before)
	test.That(t, after.ObstacleCount(), test.ShouldBeGreaterThan, 36)
}
