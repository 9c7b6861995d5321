package buienradar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const (
	defaultFeedURL = "https://data.buienradar.nl/2.0/feed/json"
	defaultRainURL = "https://gpsgadget.buienradar.nl/data/raintext"
)

// Client fetches the buienradar feed and normalizes it into a Snapshot.
type Client struct {
	latitude  float64
	longitude float64
	timeframe int // minutes of precipitation forecast to cover

	feedURL string
	rainURL string
	client  *http.Client
	backoff backoffConfig
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

// NewClient creates a feed client for the given coordinates. The timeframe
// (minutes) bounds the precipitation forecast window.
func NewClient(client *http.Client, latitude, longitude float64, timeframe int) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "buienradar",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &Client{
		latitude:  latitude,
		longitude: longitude,
		timeframe: timeframe,
		feedURL:   defaultFeedURL,
		rainURL:   defaultRainURL,
		client:    client,
		backoff: backoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		circuit: cb,
		now:     time.Now,
	}
}

type stationMeasurement struct {
	StationID            int      `json:"stationid"`
	StationName          string   `json:"stationname"`
	Lat                  float64  `json:"lat"`
	Lon                  float64  `json:"lon"`
	Timestamp            string   `json:"timestamp"`
	IconURL              string   `json:"iconurl"`
	WindDirection        string   `json:"winddirection"`
	Temperature          *float64 `json:"temperature"`
	GroundTemperature    *float64 `json:"groundtemperature"`
	FeelTemperature      *float64 `json:"feeltemperature"`
	WindGusts            *float64 `json:"windgusts"`
	WindSpeed            *float64 `json:"windspeed"`
	WindSpeedBft         *float64 `json:"windspeedBft"`
	Humidity             *float64 `json:"humidity"`
	Precipitation        *float64 `json:"precipitation"`
	SunPower             *float64 `json:"sunpower"`
	RainFallLast24Hour   *float64 `json:"rainFallLast24Hour"`
	RainFallLastHour     *float64 `json:"rainFallLastHour"`
	WindDirectionDegrees *float64 `json:"winddirectiondegrees"`
	AirPressure          *float64 `json:"airpressure"`
	Visibility           *float64 `json:"visibility"`
}

type fiveDayForecast struct {
	Day            string   `json:"day"`
	MinTemperature string   `json:"mintemperature"`
	MaxTemperature string   `json:"maxtemperature"`
	MMRainMin      *float64 `json:"mmRainMin"`
	MMRainMax      *float64 `json:"mmRainMax"`
	RainChance     *float64 `json:"rainChance"`
	SunChance      *float64 `json:"sunChance"`
	WindDirection  string   `json:"windDirection"`
	Wind           *float64 `json:"wind"`
	IconURL        string   `json:"iconurl"`
}

type feedPayload struct {
	Actual struct {
		StationMeasurements []stationMeasurement `json:"stationmeasurements"`
	} `json:"actual"`
	Forecast struct {
		FiveDayForecast []fiveDayForecast `json:"fivedayforecast"`
	} `json:"forecast"`
}

// Fetch retrieves the feed and the precipitation forecast and builds a
// Snapshot. A failing precipitation fetch degrades to a snapshot without
// one; a failing feed fetch is an error.
func (c *Client) Fetch(ctx context.Context) (*Snapshot, error) {
	resp, err := c.get(ctx, c.feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer resp.Body.Close()

	var payload feedPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	station := nearestStation(payload.Actual.StationMeasurements, c.latitude, c.longitude)
	if station == nil {
		return nil, fmt.Errorf("no station measurements in feed")
	}

	snapshot := snapshotFromStation(station)
	snapshot.Forecast = forecastDays(payload.Forecast.FiveDayForecast)

	if pf, err := c.fetchPrecipitation(ctx); err != nil {
		log.Printf("buienradar: precipitation forecast unavailable: %v", err)
	} else {
		snapshot.PrecipitationForecast = pf
	}

	return snapshot, nil
}

func (c *Client) fetchPrecipitation(ctx context.Context) (*PrecipitationForecast, error) {
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(c.latitude, 'f', 2, 64))
	values.Set("lon", strconv.FormatFloat(c.longitude, 'f', 2, 64))

	resp, err := c.get(ctx, c.rainURL+"?"+values.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return parseRainText(string(body), c.timeframe, c.now()), nil
}

// nearestStation picks the station closest to the given coordinates that
// actually carries a measurement.
func nearestStation(stations []stationMeasurement, lat, lon float64) *stationMeasurement {
	var best *stationMeasurement
	bestDist := math.MaxFloat64

	for i := range stations {
		s := &stations[i]
		if s.Timestamp == "" {
			continue
		}
		d := haversine(lat, lon, s.Lat, s.Lon)
		if d < bestDist {
			bestDist = d
			best = s
		}
	}
	return best
}

// haversine returns the great-circle distance between two points in km.
func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371.0

	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func snapshotFromStation(s *stationMeasurement) *Snapshot {
	scalars := make(map[string]any)

	putFloat := func(key string, v *float64) {
		if v != nil {
			scalars[key] = *v
		}
	}

	putFloat("temperature", s.Temperature)
	putFloat("groundtemperature", s.GroundTemperature)
	putFloat("feeltemperature", s.FeelTemperature)
	putFloat("humidity", s.Humidity)
	putFloat("windspeed", s.WindSpeed)
	putFloat("windgust", s.WindGusts)
	putFloat("windforce", s.WindSpeedBft)
	putFloat("windazimuth", s.WindDirectionDegrees)
	putFloat("pressure", s.AirPressure)
	putFloat("visibility", s.Visibility)
	putFloat("precipitation", s.Precipitation)
	putFloat("irradiance", s.SunPower)
	putFloat("rainlast24hour", s.RainFallLast24Hour)
	putFloat("rainlasthour", s.RainFallLastHour)

	if s.StationName != "" {
		scalars["stationname"] = s.StationName
	}
	if s.WindDirection != "" {
		scalars["winddirection"] = s.WindDirection
	}
	if s.AirPressure != nil {
		if code, name, nameNL := barometerForecast(*s.AirPressure); code > 0 {
			scalars["barometerfc"] = float64(code)
			scalars["barometerfcname"] = name
			scalars["barometerfcnamenl"] = nameNL
		}
	}

	return &Snapshot{
		Measured:    parseFeedTime(s.Timestamp),
		StationName: s.StationName,
		Attribution: Attribution,
		Scalars:     scalars,
		Condition:   conditionFromIcon(s.IconURL),
	}
}

func forecastDays(days []fiveDayForecast) []ForecastDay {
	if len(days) > 5 {
		days = days[:5]
	}

	out := make([]ForecastDay, 0, len(days))
	for _, d := range days {
		scalars := make(map[string]any)

		if v, ok := parseFeedNumber(d.MaxTemperature); ok {
			scalars["temperature"] = v
		}
		if v, ok := parseFeedNumber(d.MinTemperature); ok {
			scalars["mintemp"] = v
		}
		if d.MMRainMax != nil {
			scalars["rain"] = *d.MMRainMax
			scalars["maxrain"] = *d.MMRainMax
		}
		if d.MMRainMin != nil {
			scalars["minrain"] = *d.MMRainMin
		}
		if d.RainChance != nil {
			scalars["rainchance"] = *d.RainChance
		}
		if d.SunChance != nil {
			scalars["sunchance"] = *d.SunChance
		}
		if d.Wind != nil {
			scalars["windforce"] = *d.Wind
			if ms, ok := beaufortToMS(int(*d.Wind)); ok {
				scalars["windspeed"] = ms // m/s, converted by the dispatcher
			}
		}
		if d.WindDirection != "" {
			scalars["winddirection"] = strings.ToUpper(d.WindDirection)
			if az, ok := compassAzimuth(d.WindDirection); ok {
				scalars["windazimuth"] = az
			}
		}

		out = append(out, ForecastDay{
			Day:       parseFeedTime(d.Day),
			Scalars:   scalars,
			Condition: conditionFromIcon(d.IconURL),
		})
	}
	return out
}

// parseFeedTime handles the feed's local timestamps with or without zone info.
func parseFeedTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

// parseFeedNumber parses forecast temperatures, which arrive as strings and
// occasionally as a "min/max" pair; the first value wins.
func parseFeedNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// beaufortToMS maps wind force (Bft) to a representative speed in m/s.
func beaufortToMS(bft int) (float64, bool) {
	speeds := map[int]float64{
		0: 0.1, 1: 0.8, 2: 2.4, 3: 4.3, 4: 6.7, 5: 9.3, 6: 12.3,
		7: 15.5, 8: 18.9, 9: 22.6, 10: 26.4, 11: 30.5, 12: 32.6,
	}
	v, ok := speeds[bft]
	return v, ok
}

// compassAzimuth maps a Dutch compass point to degrees.
func compassAzimuth(dir string) (float64, bool) {
	points := map[string]float64{
		"n": 0, "nno": 22.5, "no": 45, "ono": 67.5,
		"o": 90, "ozo": 112.5, "zo": 135, "zzo": 157.5,
		"z": 180, "zzw": 202.5, "zw": 225, "wzw": 247.5,
		"w": 270, "wnw": 292.5, "nw": 315, "nnw": 337.5,
	}
	v, ok := points[strings.ToLower(dir)]
	return v, ok
}
