package weather

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const sampleBody = `{
  "current_condition": [{
    "temp_C": "24",
    "humidity": "78",
    "windspeedKmph": "18",
    "weatherDesc": [{"value": "Light rain"}]
  }]
}`

func newTestService(url string, now func() time.Time) *WeatherServiceImpl {
	return &WeatherServiceImpl{
		BaseURL:  url,
		CacheTTL: 30 * time.Minute,
		Client:   &http.Client{Timeout: time.Second},
		Now:      now,
		log:      zap.NewNop(),
		cache:    make(map[string]cacheEntry),
	}
}

func TestGetWeather(t *testing.T) {
	var hits int32
	var gotPath, gotFormat string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		gotPath = r.URL.Path
		gotFormat = r.URL.Query().Get("format")
		w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(srv.URL, func() time.Time { return now })

	report, err := svc.GetWeather(context.Background(), "Pune")
	if err != nil {
		t.Fatalf("GetWeather() error = %v", err)
	}
	if gotPath != "/Pune" || gotFormat != "j1" {
		t.Errorf("requested %s format=%s", gotPath, gotFormat)
	}
	if report.Temperature != 24 || report.Humidity != 78 || report.Condition != "Light rain" || report.Sample {
		t.Errorf("unexpected report %+v", report)
	}
	if math.Abs(report.WindSpeed-5) > 1e-9 {
		t.Errorf("WindSpeed = %v, want 5 m/s", report.WindSpeed)
	}

	if _, err := svc.GetWeather(context.Background(), "pune"); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("expected cached second lookup, got %d upstream hits", hits)
	}

	now = now.Add(31 * time.Minute)
	if _, err := svc.GetWeather(context.Background(), "Pune"); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Errorf("expected refresh after TTL, got %d upstream hits", hits)
	}
}

func TestGetWeatherFallsBackToSample(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{name: "Server Error", handler: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}},
		{name: "Bad JSON", handler: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>"))
		}},
		{name: "No Current Condition", handler: func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"current_condition": []}`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				tt.handler(w, r)
			}))
			defer srv.Close()

			svc := newTestService(srv.URL, time.Now)
			report, err := svc.GetWeather(context.Background(), "")
			if err != nil {
				t.Fatalf("GetWeather() error = %v", err)
			}
			if !report.Sample || report.City != DefaultCity || report.Humidity != 65 || report.WindSpeed != 3 {
				t.Errorf("unexpected fallback %+v", report)
			}

			_, _ = svc.GetWeather(context.Background(), "")
			if atomic.LoadInt32(&hits) != 2 {
				t.Errorf("sample data should not be cached, got %d hits", hits)
			}
		})
	}
}

func TestGetWeatherMissingDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"current_condition":[{"temp_C":"10","humidity":"x","windspeedKmph":"0"}]}`))
	}))
	defer srv.Close()

	report, err := newTestService(srv.URL, time.Now).GetWeather(context.Background(), "Oslo")
	if err != nil {
		t.Fatal(err)
	}
	if report.Condition != "Unknown" || report.Humidity != 0 || report.Sample {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestWeatherRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	app := fiber.New()
	NewWeatherApi(NewWeatherController(newTestService(srv.URL, time.Now))).Setup(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/weather/New%20York", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.City != "New York" || report.Temperature != 24 {
		t.Errorf("unexpected report %+v", report)
	}
}
