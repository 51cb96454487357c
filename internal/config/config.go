package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory    = "memory"
	StoreMongo     = "mongo"
	StoreFirestore = "firestore"
)

type Config struct {
	Port           string
	JWTSecret      string
	SkipAuth       bool
	Environment    string
	AppId          string
	AllowedOrigins string

	StoreDriver string // memory, mongo or firestore
	MongoURI    string
	DBName      string

	FirebaseProjectID       string
	FirebaseCredentialsPath string

	CanvasWidth  float64
	CanvasHeight float64

	SyncDebounce       time.Duration
	SyncEchoWindow     time.Duration
	PresenceHeartbeat  time.Duration
	PresenceSweep      time.Duration
	PresenceStaleAfter time.Duration

	WeatherBaseURL  string
	WeatherCacheTTL time.Duration

	// Inbound websocket messages per second allowed for one session.
	SessionMessageRate  float64
	SessionMessageBurst int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", "secret"),
		SkipAuth:       getEnv("SKIP_AUTH", "false") == "true",
		Environment:    getEnv("ENVIRONMENT", "development"),
		AppId:          getEnv("APP_ID", "go-dashboard"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000, http://localhost:5173"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreMemory)),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "go-dashboard"),

		FirebaseProjectID:       getEnv("FIREBASE_PROJECT_ID", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),

		WeatherBaseURL: getEnv("WEATHER_BASE_URL", "https://wttr.in"),
	}

	var err error
	if cfg.CanvasWidth, err = getFloat("CANVAS_WIDTH", 1200); err != nil {
		return nil, err
	}
	if cfg.CanvasHeight, err = getFloat("CANVAS_HEIGHT", 800); err != nil {
		return nil, err
	}
	if cfg.SyncDebounce, err = getDuration("SYNC_DEBOUNCE", 300*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.SyncEchoWindow, err = getDuration("SYNC_ECHO_WINDOW", 2*time.Second); err != nil {
		return nil, err
	}
	if cfg.PresenceHeartbeat, err = getDuration("PRESENCE_HEARTBEAT", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.PresenceSweep, err = getDuration("PRESENCE_SWEEP", 2*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PresenceStaleAfter, err = getDuration("PRESENCE_STALE_AFTER", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.WeatherCacheTTL, err = getDuration("WEATHER_CACHE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SessionMessageRate, err = getFloat("SESSION_MESSAGE_RATE", 50); err != nil {
		return nil, err
	}
	burst, err := getFloat("SESSION_MESSAGE_BURST", 100)
	if err != nil {
		return nil, err
	}
	cfg.SessionMessageBurst = int(burst)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the loaded values can run the server.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StoreMongo:
		if c.MongoURI == "" || c.DBName == "" {
			return fmt.Errorf("config: MONGO_URI and DB_NAME are required for the mongo store")
		}
	case StoreFirestore:
		if c.FirebaseProjectID == "" {
			return fmt.Errorf("config: FIREBASE_PROJECT_ID is required for the firestore store")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.CanvasWidth <= 0 || c.CanvasHeight <= 0 {
		return fmt.Errorf("config: canvas size must be positive, got %vx%v", c.CanvasWidth, c.CanvasHeight)
	}
	if c.SyncDebounce <= 0 || c.SyncEchoWindow <= 0 {
		return fmt.Errorf("config: sync debounce and echo window must be positive")
	}
	if c.PresenceHeartbeat <= 0 || c.PresenceSweep <= 0 || c.PresenceStaleAfter <= 0 {
		return fmt.Errorf("config: presence intervals must be positive")
	}
	if c.SessionMessageRate <= 0 || c.SessionMessageBurst <= 0 {
		return fmt.Errorf("config: session message rate and burst must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getFloat(key string, fallback float64) (float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return v, nil
}
