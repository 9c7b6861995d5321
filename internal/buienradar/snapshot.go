package buienradar

import (
	"time"
)

// Attribution is attached to every published scalar sensor state.
const Attribution = "Data provided by buienradar.nl"

// Condition describes the weather condition derived from the feed's icon code.
type Condition struct {
	// Code is the single-letter buienradar icon code ("a".."z").
	Code string `json:"condcode"`
	// Condition is the normalized condition ("clear", "rainy", ...).
	Condition string `json:"condition"`
	// Detailed is the more specific condition ("partlycloudy-light-rain", ...).
	Detailed string `json:"detailed"`
	// Exact and ExactNL are the exact English and Dutch descriptions.
	Exact   string `json:"exact"`
	ExactNL string `json:"exact_nl"`
	// Image is the URL of the condition icon.
	Image string `json:"image,omitempty"`
}

// PrecipitationForecast summarizes expected rain over the configured timeframe.
type PrecipitationForecast struct {
	// Timeframe is the covered period in minutes.
	Timeframe int `json:"timeframe"`
	// Average is the mean precipitation in mm/h. Nil when no rain data was
	// available for the timeframe.
	Average *float64 `json:"average,omitempty"`
	// Total is the expected precipitation depth in mm.
	Total *float64 `json:"total,omitempty"`
}

// ForecastDay is one day of the five-day forecast, shaped like a reduced
// snapshot: scalar fields keyed by sensor key plus a condition.
type ForecastDay struct {
	Day       time.Time      `json:"day"`
	Scalars   map[string]any `json:"scalars"`
	Condition *Condition     `json:"condition,omitempty"`
}

// Snapshot is the immutable, point-in-time measurement document produced by
// the feed client. All fields are optional: absent scalar keys and nil
// sub-documents mean "no value", never an error.
type Snapshot struct {
	// Measured is the station measurement timestamp. The zero value means
	// the feed did not carry one. It is the dispatcher's freshness key.
	Measured    time.Time `json:"measured"`
	StationName string    `json:"stationname,omitempty"`
	Attribution string    `json:"attribution,omitempty"`

	// Scalars holds the top-level measurement fields keyed by sensor key
	// (temperature, humidity, windspeed, ...). Values are float64 or string.
	// Wind speeds are in m/s and visibility in meters; unit conversion is
	// the dispatcher's responsibility.
	Scalars map[string]any `json:"scalars"`

	Condition             *Condition             `json:"condition,omitempty"`
	PrecipitationForecast *PrecipitationForecast `json:"precipitation_forecast,omitempty"`

	// Forecast holds up to five daily forecasts ordered by day ascending.
	Forecast []ForecastDay `json:"forecast,omitempty"`
}

// Scalar returns the named top-level scalar, or (nil, false) when absent.
func (s *Snapshot) Scalar(key string) (any, bool) {
	v, ok := s.Scalars[key]
	return v, ok
}

// Scalar returns the named forecast-day scalar, or (nil, false) when absent.
func (d *ForecastDay) Scalar(key string) (any, bool) {
	v, ok := d.Scalars[key]
	return v, ok
}
