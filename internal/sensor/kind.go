package sensor

import (
	"strconv"
	"strings"
)

// Category tells the dispatcher how to extract and convert a sensor's value.
type Category int

const (
	// CategoryScalar reads the key verbatim from the top-level snapshot.
	CategoryScalar Category = iota
	// CategoryWindSpeed converts a current-day m/s reading to km/h.
	CategoryWindSpeed
	// CategoryVisibility converts meters to kilometers.
	CategoryVisibility
	// CategoryCondition reads the current-day condition sub-document.
	CategoryCondition
	// CategoryPrecipitation reads a field of the nested precipitation forecast.
	CategoryPrecipitation
	// CategoryForecastScalar reads a field verbatim from a forecast day.
	CategoryForecastScalar
	// CategoryForecastWindSpeed converts a forecast-day m/s reading to km/h.
	CategoryForecastWindSpeed
	// CategoryForecastCondition reads a forecast day's condition sub-document.
	CategoryForecastCondition
)

// Kind is the classification of a sensor key, computed once per Spec at
// table construction so the dispatcher never re-derives it from string
// inspection on the update path.
type Kind struct {
	Category Category
	// Day is the zero-based forecast day for forecast categories, -1 otherwise.
	Day int
	// Field is the resolved field name: the base key with any day suffix
	// stripped, the condition sub-key, or the precipitation-forecast field.
	Field string
}

const precipitationPrefix = "precipitation_forecast"

// classify derives the Kind of a sensor key. Priority order matches the
// dispatcher contract: day suffix first, then the current-day special cases,
// with everything else a plain scalar.
func classify(key string) Kind {
	if base, day, ok := splitForecastKey(key); ok {
		switch {
		case base == "symbol" || strings.HasPrefix(base, "condition"):
			return Kind{Category: CategoryForecastCondition, Day: day, Field: base}
		case strings.HasPrefix(base, "windspeed"):
			return Kind{Category: CategoryForecastWindSpeed, Day: day, Field: base}
		default:
			return Kind{Category: CategoryForecastScalar, Day: day, Field: base}
		}
	}

	switch {
	// Only the bare symbol/condition sensors read the condition
	// sub-document; conditioncode and friends stay plain scalars.
	case key == "symbol" || key == "condition":
		return Kind{Category: CategoryCondition, Day: -1, Field: key}
	case strings.HasPrefix(key, precipitationPrefix):
		field := strings.TrimPrefix(key, precipitationPrefix+"_")
		return Kind{Category: CategoryPrecipitation, Day: -1, Field: field}
	case key == "windspeed" || key == "windgust":
		return Kind{Category: CategoryWindSpeed, Day: -1, Field: key}
	case key == "visibility":
		return Kind{Category: CategoryVisibility, Day: -1, Field: key}
	default:
		return Kind{Category: CategoryScalar, Day: -1, Field: key}
	}
}

// splitForecastKey recognizes the "_1d".."_5d" suffix and returns the base
// key and the zero-based day index.
func splitForecastKey(key string) (base string, day int, ok bool) {
	if len(key) < 4 || !strings.HasSuffix(key, "d") || key[len(key)-3] != '_' {
		return "", 0, false
	}
	n, err := strconv.Atoi(key[len(key)-2 : len(key)-1])
	if err != nil || n < 1 || n > 5 {
		return "", 0, false
	}
	return key[:len(key)-3], n - 1, true
}
