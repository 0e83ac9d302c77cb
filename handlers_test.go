package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server
	registry *HazardRegistry
	provider *fakeProvider
}

func newTestServer(t *testing.T, history HistoryReader, recorder RouteRecorder) *testServer {
	t.Helper()
	provider := &fakeProvider{}
	planner, registry, metrics := newTestPlanner(t, provider, recorder)
	srv := httptest.NewServer(NewServer(planner, registry, history, metrics, nil))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, registry: registry, provider: provider}
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestRouteEndpoint(t *testing.T) {
	ts := newTestServer(t, nil, nil)
	sq := squareHazard("sq", pune, 500)
	_, err := ts.registry.Add(sq)
	require.NoError(t, err)
	ts.provider.route = func(call int, wps []orb.Point) (Route, error) {
		if call == 0 {
			return baselineThroughSquare(wps), nil
		}
		return straightRoute(wps...), nil
	}

	resp := ts.do(t, http.MethodPost, "/route", PlanRequest{Start: westOfSquare, End: eastOfSquare})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var body map[string]interface{}
	decodeBody(t, resp, &body)
	assert.Equal(t, true, body["avoidanceResolved"])
	assert.Equal(t, 3.0, body["distanceKm"])
	assert.Equal(t, 90.0, body["durationSeconds"])
	assert.Equal(t, "accepted", body["state"])
	assert.Equal(t, []interface{}{"sq"}, body["intersectingHazards"])
	assert.Len(t, body["route"], 3)
	assert.Contains(t, body, "waypoint")

	first := body["route"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, westOfSquare.Lat, first["lat"])
	assert.Equal(t, westOfSquare.Lng, first["lng"])
}

func TestRouteEndpointErrors(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	resp := ts.do(t, http.MethodPost, "/route", `{"start":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/route", PlanRequest{Start: LatLng{Lat: 100}, End: eastOfSquare})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ts.provider.route = func(int, []orb.Point) (Route, error) {
		return Route{}, ErrProviderUnavailable
	}
	resp = ts.do(t, http.MethodPost, "/route", PlanRequest{Start: westOfSquare, End: eastOfSquare})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Contains(t, body["error"], "routing provider unavailable")

	resp = ts.do(t, http.MethodGet, "/route", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHazardEndpoints(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	resp := ts.do(t, http.MethodGet, "/hazards", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []Hazard
	decodeBody(t, resp, &list)
	assert.Empty(t, list)

	resp = ts.do(t, http.MethodPost, "/hazards", NewCircleHazard(pune, 200))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created Hazard
	decodeBody(t, resp, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, KindCircle, created.Kind)

	updated := squareHazard("", pune, 300)
	updated.Style.DisasterType = "flood"
	resp = ts.do(t, http.MethodPut, "/hazards/"+created.ID, updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got Hazard
	decodeBody(t, resp, &got)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, KindPolygon, got.Kind)
	assert.Equal(t, "flood", got.Style.DisasterType)

	resp = ts.do(t, http.MethodGet, "/hazards/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/hazards/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Zero(t, ts.registry.Len())

	resp = ts.do(t, http.MethodDelete, "/hazards/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, "/hazards/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = ts.do(t, http.MethodPut, "/hazards/nope", updated)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/hazards", Hazard{Kind: KindPolygon, Ring: []LatLng{pune}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryEndpoint(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		ts := newTestServer(t, nil, nil)
		resp := ts.do(t, http.MethodGet, "/routes/history", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("enabled", func(t *testing.T) {
		store := openTestStore(t)
		ts := newTestServer(t, store, store)

		for i := 0; i < 3; i++ {
			resp := ts.do(t, http.MethodPost, "/route", PlanRequest{Start: westOfSquare, End: eastOfSquare})
			require.Equal(t, http.StatusOK, resp.StatusCode)
		}

		resp := ts.do(t, http.MethodGet, "/routes/history?limit=2", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var records []HistoryRecord
		decodeBody(t, resp, &records)
		assert.Len(t, records, 2)

		resp = ts.do(t, http.MethodGet, "/routes/history?limit=abc", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestMiscEndpoints(t *testing.T) {
	ts := newTestServer(t, nil, nil)

	resp := ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]interface{}
	decodeBody(t, resp, &health)
	assert.Equal(t, "ready", health["status"])
	assert.Equal(t, false, health["history"])

	resp = ts.do(t, http.MethodGet, "/disasters", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var disasters []DisasterType
	decodeBody(t, resp, &disasters)
	assert.Len(t, disasters, len(disasterCatalog))

	resp = ts.do(t, http.MethodPost, "/route", PlanRequest{Start: westOfSquare, End: eastOfSquare})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(buf.String(), "routing_attempts_total"))

	resp = ts.do(t, http.MethodOptions, "/hazards/anything", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(ErrSuperseded))
	assert.Equal(t, http.StatusBadGateway, statusFor(ErrMalformedResponse))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
