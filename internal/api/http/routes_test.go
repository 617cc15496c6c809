package httpapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/race-weather/internal/racecontrol"
	"github.com/i474232898/race-weather/internal/route"
	"github.com/i474232898/race-weather/internal/weather"
)

const twoPointGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="race-weather-test" xmlns="http://www.topografix.com/GPX/1/1">
  <trk><trkseg>
    <trkpt lat="50.4370" lon="5.9710"></trkpt>
    <trkpt lat="50.4400" lon="5.9800"></trkpt>
  </trkseg></trk>
</gpx>`

var home = weather.Location{Name: "Zandvoort", Lat: 52.387, Lon: 4.54}

type fakeDashboard struct {
	pointLoc  weather.Location
	points    []route.RoutePoint
	stepKm    float64
	routeErr  error
	scanCalls int
}

func (d *fakeDashboard) Point(_ context.Context, loc weather.Location) racecontrol.PointReport {
	d.pointLoc = loc
	return racecontrol.PointReport{Location: loc, Status: racecontrol.StatusOK}
}

func (d *fakeDashboard) Rally(_ context.Context, points []route.RoutePoint, stepKm float64) (racecontrol.RallyReport, error) {
	d.points, d.stepKm = points, stepKm
	if d.routeErr != nil {
		return racecontrol.RallyReport{}, d.routeErr
	}
	return racecontrol.RallyReport{StepKm: stepKm, Counts: map[racecontrol.Status]int{}}, nil
}

func (d *fakeDashboard) StageScan(_ context.Context, points []route.RoutePoint, stepKm float64) (racecontrol.ScanReport, error) {
	d.scanCalls++
	d.points, d.stepKm = points, stepKm
	return racecontrol.ScanReport{StepKm: stepKm, Preset: "simplified"}, nil
}

type fakePurger struct {
	calls int
	err   error
}

func (p *fakePurger) Purge(context.Context) error {
	p.calls++
	return p.err
}

type fakeGeocoder struct {
	err error
}

func (g fakeGeocoder) Geocode(_ context.Context, city, country string) (weather.Location, error) {
	if g.err != nil {
		return weather.Location{}, g.err
	}
	return weather.Location{Name: city + ", " + country, Lat: 50.44, Lon: 5.97}, nil
}

func newTestApp(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, deps)
	return app
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	body := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("decode body %q: %v", raw, err)
		}
	}
	return resp.StatusCode, body
}

func uploadRequest(t *testing.T, path, gpx string, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if gpx != "" {
		part, err := w.CreateFormFile("file", "stage.gpx")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(gpx)); err != nil {
			t.Fatalf("write gpx: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestPointLocationResolution(t *testing.T) {
	dash := &fakeDashboard{}
	app := newTestApp(Deps{Dashboard: dash, Home: home, DefaultStepKm: 5})

	code, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/point", nil))
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if dash.pointLoc != home {
		t.Fatalf("expected home location, got %+v", dash.pointLoc)
	}

	code, body := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/point?lat=50.437&lon=5.971", nil))
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if dash.pointLoc.Lat != 50.437 || dash.pointLoc.Lon != 5.971 {
		t.Fatalf("unexpected coordinates %+v", dash.pointLoc)
	}
	if body["status"] != string(racecontrol.StatusOK) {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestPointRejectsBadQuery(t *testing.T) {
	app := newTestApp(Deps{Dashboard: &fakeDashboard{}, Home: home})

	for _, path := range []string{
		"/api/v1/point?lat=abc&lon=4",
		"/api/v1/point?lat=52&lon=xyz",
		"/api/v1/point?lat=91&lon=4",
		"/api/v1/point?lat=52&lon=-181",
		"/api/v1/point?lat=52",
		"/api/v1/point?city=Spa&country=BE",
	} {
		code, body := do(t, app, httptest.NewRequest(http.MethodGet, path, nil))
		if code != http.StatusBadRequest {
			t.Fatalf("%s: expected status %d, got %d", path, http.StatusBadRequest, code)
		}
		if body["error"] != true {
			t.Fatalf("%s: expected error envelope, got %v", path, body)
		}
	}
}

func TestPointGeocodesCity(t *testing.T) {
	dash := &fakeDashboard{}
	app := newTestApp(Deps{Dashboard: dash, Geocoder: fakeGeocoder{}, Home: home})

	code, _ := do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/point?city=Spa&country=BE", nil))
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if dash.pointLoc.Name != "Spa, BE" {
		t.Fatalf("unexpected location %+v", dash.pointLoc)
	}

	app = newTestApp(Deps{Dashboard: dash, Geocoder: fakeGeocoder{err: weather.ErrNetwork}, Home: home})
	code, _ = do(t, app, httptest.NewRequest(http.MethodGet, "/api/v1/point?city=Spa", nil))
	if code != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, code)
	}
}

func TestRallyUpload(t *testing.T) {
	dash := &fakeDashboard{}
	app := newTestApp(Deps{Dashboard: dash, Home: home, DefaultStepKm: 5})

	code, body := do(t, app, uploadRequest(t, "/api/v1/rally", twoPointGPX, map[string]string{"step_km": "2.5"}))
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d (%v)", http.StatusOK, code, body)
	}
	if len(dash.points) != 2 || dash.stepKm != 2.5 {
		t.Fatalf("unexpected call: %d points, step %v", len(dash.points), dash.stepKm)
	}

	// Missing step_km falls back to the configured default.
	code, _ = do(t, app, uploadRequest(t, "/api/v1/rally", twoPointGPX, nil))
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if dash.stepKm != 5 {
		t.Fatalf("expected default step 5, got %v", dash.stepKm)
	}
}

func TestRallyUploadErrors(t *testing.T) {
	dash := &fakeDashboard{}
	app := newTestApp(Deps{Dashboard: dash, Home: home, DefaultStepKm: 5})

	cases := []struct {
		name   string
		gpx    string
		fields map[string]string
	}{
		{name: "missing file", fields: map[string]string{"step_km": "5"}},
		{name: "bad gpx", gpx: "<gpx><trk>"},
		{name: "zero step", gpx: twoPointGPX, fields: map[string]string{"step_km": "0"}},
		{name: "negative step", gpx: twoPointGPX, fields: map[string]string{"step_km": "-3"}},
		{name: "non-numeric step", gpx: twoPointGPX, fields: map[string]string{"step_km": "five"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := do(t, app, uploadRequest(t, "/api/v1/rally", tc.gpx, tc.fields))
			if code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d (%v)", http.StatusBadRequest, code, body)
			}
		})
	}
	if dash.points != nil {
		t.Fatalf("dashboard should not be called on invalid uploads")
	}

	dash.routeErr = errors.New("boom")
	code, body := do(t, app, uploadRequest(t, "/api/v1/rally", twoPointGPX, nil))
	if code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, code)
	}
	if body["message"] != "failed to build route report" {
		t.Fatalf("internal error leaked: %v", body)
	}
}

func TestStageScanUpload(t *testing.T) {
	dash := &fakeDashboard{}
	app := newTestApp(Deps{Dashboard: dash, Home: home, DefaultStepKm: 5})

	code, body := do(t, app, uploadRequest(t, "/api/v1/stage-scan", twoPointGPX, map[string]string{"step_km": "1"}))
	if code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, code)
	}
	if dash.scanCalls != 1 || body["preset"] != "simplified" {
		t.Fatalf("unexpected scan result %v", body)
	}
}

func TestRefreshPurgesCache(t *testing.T) {
	purger := &fakePurger{}
	app := newTestApp(Deps{Dashboard: &fakeDashboard{}, Cache: purger, Home: home})

	code, body := do(t, app, httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))
	if code != http.StatusOK || body["status"] != "purged" || purger.calls != 1 {
		t.Fatalf("unexpected refresh result: %d %v (calls %d)", code, body, purger.calls)
	}

	purger.err = errors.New("redis down")
	code, _ = do(t, app, httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil))
	if code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, code)
	}
}
