package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go-dashboard/internal/config"

	"go.uber.org/zap"
)

var ErrUnrecognizedFormat = errors.New("weather data format not recognized")

type WeatherService interface {
	GetWeather(ctx context.Context, city string) (*Report, error)
}

type cacheEntry struct {
	report  *Report
	expires time.Time
}

type WeatherServiceImpl struct {
	BaseURL  string
	CacheTTL time.Duration
	Client   *http.Client
	Now      func() time.Time
	log      *zap.Logger

	mu    sync.Mutex
	cache map[string]cacheEntry
}

func NewWeatherService(cfg *config.Config, log *zap.Logger) WeatherService {
	return &WeatherServiceImpl{
		BaseURL:  cfg.WeatherBaseURL,
		CacheTTL: cfg.WeatherCacheTTL,
		Client:   &http.Client{Timeout: 10 * time.Second},
		Now:      time.Now,
		log:      log,
		cache:    make(map[string]cacheEntry),
	}
}

// GetWeather returns the cached report for city or fetches a fresh one.
// Upstream failures are logged and answered with sample data, which is
// not cached so the next request retries.
func (s *WeatherServiceImpl) GetWeather(ctx context.Context, city string) (*Report, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		city = DefaultCity
	}
	key := strings.ToLower(city)
	now := s.Now()

	s.mu.Lock()
	if e, ok := s.cache[key]; ok && now.Before(e.expires) {
		s.mu.Unlock()
		return e.report, nil
	}
	s.mu.Unlock()

	report, err := s.fetch(ctx, city)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.log.Warn("Weather lookup failed, serving sample data", zap.String("city", city), zap.Error(err))
		return SampleReport(city, now), nil
	}

	s.mu.Lock()
	s.cache[key] = cacheEntry{report: report, expires: now.Add(s.CacheTTL)}
	s.mu.Unlock()
	return report, nil
}

func (s *WeatherServiceImpl) fetch(ctx context.Context, city string) (*Report, error) {
	endpoint := strings.TrimRight(s.BaseURL, "/") + "/" + url.PathEscape(city) + "?format=j1"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather: upstream status %d", resp.StatusCode)
	}

	var body wttrResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("weather: decode response: %w", err)
	}
	if len(body.CurrentCondition) == 0 {
		return nil, ErrUnrecognizedFormat
	}
	current := body.CurrentCondition[0]

	temp, err := strconv.ParseFloat(current.TempC, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: temp_C %q", ErrUnrecognizedFormat, current.TempC)
	}
	humidity, _ := strconv.Atoi(current.Humidity)
	windKmph, _ := strconv.ParseFloat(current.WindspeedKmph, 64)

	condition := "Unknown"
	if len(current.WeatherDesc) > 0 && current.WeatherDesc[0].Value != "" {
		condition = current.WeatherDesc[0].Value
	}

	return &Report{
		City:        city,
		Temperature: temp,
		Condition:   condition,
		Humidity:    humidity,
		WindSpeed:   windKmph / 3.6,
		FetchedAt:   s.Now(),
	}, nil
}
