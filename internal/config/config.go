package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/kelvins/geocoder"
)

// AppConfig is the bridge configuration, read from the environment.
type AppConfig struct {
	// Latitude/Longitude locate the nearest weather station.
	Latitude  float64
	Longitude float64

	// Timeframe bounds the precipitation forecast window in minutes (5-120).
	Timeframe int

	// ScheduleOK/ScheduleNOK control rescheduling after a successful and a
	// failed refresh respectively.
	ScheduleOK  time.Duration
	ScheduleNOK time.Duration

	// In-memory store retention.
	StoreMaxHistory int           // max number of snapshots (0 = unlimited)
	StoreMaxAge     time.Duration // max age of snapshots (0 = unlimited)

	// Home Assistant publishing target. Empty HomeAssistantURL disables
	// publishing; entities still track state for the local API.
	HomeAssistantURL   string
	HomeAssistantToken string

	// SensorName prefixes published entity IDs.
	SensorName string

	// MemoryBaseURL is the agent-memory server for the conversation flow.
	MemoryBaseURL string

	HTTPTimeout time.Duration
	Port        string
}

// Load reads configuration from environment with sensible defaults. The
// caller is expected to have loaded any .env file already.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	lat, lon, err := loadCoordinates()
	if err != nil {
		return nil, err
	}
	cfg.Latitude = lat
	cfg.Longitude = lon

	cfg.Timeframe = getenvInt("BR_TIMEFRAME", 60)
	if cfg.Timeframe < 5 || cfg.Timeframe > 120 {
		return nil, fmt.Errorf("BR_TIMEFRAME must be between 5 and 120 minutes")
	}

	// Schedule intervals: 10 minutes after success, 2 after failure.
	cfg.ScheduleOK, err = getenvDuration("SCHEDULE_OK", "10m")
	if err != nil {
		return nil, err
	}
	cfg.ScheduleNOK, err = getenvDuration("SCHEDULE_NOK", "2m")
	if err != nil {
		return nil, err
	}

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 144) // roughly 24h at 10-minute intervals
	cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h")
	if err != nil {
		return nil, err
	}

	cfg.HomeAssistantURL = os.Getenv("HA_URL")
	cfg.HomeAssistantToken = os.Getenv("HA_TOKEN")
	cfg.SensorName = getenvDefault("SENSOR_NAME", "buienradar")
	cfg.MemoryBaseURL = os.Getenv("MEMORY_BASE_URL")

	cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

// loadCoordinates reads BR_LATITUDE/BR_LONGITUDE, falling back to geocoding
// BR_CITY/BR_COUNTRY when coordinates are not set directly.
func loadCoordinates() (float64, float64, error) {
	latStr := os.Getenv("BR_LATITUDE")
	lonStr := os.Getenv("BR_LONGITUDE")

	if latStr != "" && lonStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid BR_LATITUDE: %w", err)
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid BR_LONGITUDE: %w", err)
		}
		return lat, lon, nil
	}

	city := os.Getenv("BR_CITY")
	if city == "" {
		return 0, 0, fmt.Errorf("either BR_LATITUDE/BR_LONGITUDE or BR_CITY must be set")
	}

	geocoder.ApiKey = os.Getenv("GEOCODER_API_KEY")
	if geocoder.ApiKey == "" {
		return 0, 0, fmt.Errorf("GEOCODER_API_KEY is required to resolve BR_CITY")
	}

	location, err := geocoder.Geocoding(geocoder.Address{
		City:    city,
		Country: getenvDefault("BR_COUNTRY", "Netherlands"),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("geocoding %q failed: %w", city, err)
	}
	return location.Latitude, location.Longitude, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
