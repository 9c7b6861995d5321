package sensor

import (
	"fmt"

	"github.com/pegah-mashcool/buienradar-bridge/internal/buienradar"
)

// DeviceClass is the semantic class published with a sensor state.
type DeviceClass string

const (
	DeviceClassNone                   DeviceClass = ""
	DeviceClassTemperature            DeviceClass = "temperature"
	DeviceClassHumidity               DeviceClass = "humidity"
	DeviceClassWindSpeed              DeviceClass = "wind_speed"
	DeviceClassPressure               DeviceClass = "pressure"
	DeviceClassDistance               DeviceClass = "distance"
	DeviceClassPrecipitation          DeviceClass = "precipitation"
	DeviceClassPrecipitationIntensity DeviceClass = "precipitation_intensity"
	DeviceClassIrradiance             DeviceClass = "irradiance"
	DeviceClassEnum                   DeviceClass = "enum"
)

// Units of measurement.
const (
	UnitCelsius  = "°C"
	UnitPercent  = "%"
	UnitKmH      = "km/h"
	UnitBeaufort = "Bft"
	UnitDegree   = "°"
	UnitHPa      = "hPa"
	UnitKm       = "km"
	UnitMmH      = "mm/h"
	UnitMm       = "mm"
	UnitWm2      = "W/m²"
)

const (
	iconCompass      = "mdi:compass-outline"
	iconGauge        = "mdi:gauge"
	iconWindy        = "mdi:weather-windy"
	iconPouring      = "mdi:weather-pouring"
	iconPartlyCloudy = "mdi:weather-partly-cloudy"
	iconWaterPercent = "mdi:water-percent"
)

// Spec is the static, immutable descriptor of one sensor kind.
type Spec struct {
	Key         string
	Unit        string
	DeviceClass DeviceClass
	// Options is the fixed set of allowed values for enumerated-state
	// sensors; nil for everything else.
	Options []string
	Icon    string

	kind Kind
}

// Kind returns the classification computed at table construction.
func (s *Spec) Kind() Kind { return s.kind }

func newSpec(key, unit string, class DeviceClass, icon string, options []string) Spec {
	return Spec{
		Key:         key,
		Unit:        unit,
		DeviceClass: class,
		Options:     options,
		Icon:        icon,
		kind:        classify(key),
	}
}

var specs = buildSpecs()

// Specs returns the full sensor table. The returned slice and its entries
// are shared and must not be mutated.
func Specs() []Spec { return specs }

// SpecByKey returns the spec for a key, or nil when unknown.
func SpecByKey(key string) *Spec {
	for i := range specs {
		if specs[i].Key == key {
			return &specs[i]
		}
	}
	return nil
}

func buildSpecs() []Spec {
	out := []Spec{
		newSpec("stationname", "", DeviceClassNone, "", nil),
		newSpec("barometerfc", "", DeviceClassNone, iconGauge, nil),
		newSpec("barometerfcname", "", DeviceClassNone, iconGauge, nil),
		newSpec("barometerfcnamenl", "", DeviceClassNone, iconGauge, nil),
		newSpec("condition", "", DeviceClassEnum, "", buienradar.StateConditions),
		newSpec("conditioncode", "", DeviceClassEnum, "", buienradar.StateConditionCodes),
		newSpec("conditiondetailed", "", DeviceClassEnum, "", buienradar.StateDetailedConditions),
		newSpec("conditionexact", "", DeviceClassNone, "", nil),
		newSpec("symbol", "", DeviceClassNone, "", nil),
		newSpec("feeltemperature", UnitCelsius, DeviceClassTemperature, "", nil),
		newSpec("humidity", UnitPercent, DeviceClassHumidity, iconWaterPercent, nil),
		newSpec("temperature", UnitCelsius, DeviceClassTemperature, "", nil),
		newSpec("groundtemperature", UnitCelsius, DeviceClassTemperature, "", nil),
		newSpec("windspeed", UnitKmH, DeviceClassWindSpeed, "", nil),
		newSpec("windforce", UnitBeaufort, DeviceClassNone, iconWindy, nil),
		newSpec("winddirection", "", DeviceClassNone, iconCompass, nil),
		newSpec("windazimuth", UnitDegree, DeviceClassNone, iconCompass, nil),
		newSpec("pressure", UnitHPa, DeviceClassPressure, iconGauge, nil),
		newSpec("visibility", UnitKm, DeviceClassDistance, "", nil),
		newSpec("windgust", UnitKmH, DeviceClassWindSpeed, "", nil),
		newSpec("precipitation", UnitMmH, DeviceClassPrecipitationIntensity, "", nil),
		newSpec("irradiance", UnitWm2, DeviceClassIrradiance, "", nil),
		newSpec("precipitation_forecast_average", UnitMmH, DeviceClassPrecipitationIntensity, "", nil),
		newSpec("precipitation_forecast_total", UnitMm, DeviceClassPrecipitation, "", nil),
		newSpec("rainlast24hour", UnitMm, DeviceClassPrecipitation, "", nil),
		newSpec("rainlasthour", UnitMm, DeviceClassPrecipitation, "", nil),
	}

	// Per-day variants of the forecastable sensors, cf. the "_1d".."_5d"
	// keys handled by the dispatcher.
	forecastable := []struct {
		key     string
		unit    string
		class   DeviceClass
		icon    string
		options []string
	}{
		{"temperature", UnitCelsius, DeviceClassTemperature, "", nil},
		{"mintemp", UnitCelsius, DeviceClassTemperature, "", nil},
		{"rain", UnitMm, DeviceClassPrecipitation, "", nil},
		{"minrain", UnitMm, DeviceClassPrecipitation, "", nil},
		{"maxrain", UnitMm, DeviceClassPrecipitation, "", nil},
		{"rainchance", UnitPercent, DeviceClassNone, iconPouring, nil},
		{"sunchance", UnitPercent, DeviceClassNone, iconPartlyCloudy, nil},
		{"windforce", UnitBeaufort, DeviceClassNone, iconWindy, nil},
		{"windspeed", UnitKmH, DeviceClassWindSpeed, "", nil},
		{"winddirection", "", DeviceClassNone, iconCompass, nil},
		{"windazimuth", UnitDegree, DeviceClassNone, iconCompass, nil},
		{"condition", "", DeviceClassEnum, "", buienradar.StateConditions},
		{"conditioncode", "", DeviceClassEnum, "", buienradar.StateConditionCodes},
		{"conditiondetailed", "", DeviceClassEnum, "", buienradar.StateDetailedConditions},
		{"conditionexact", "", DeviceClassNone, "", nil},
		{"symbol", "", DeviceClassNone, "", nil},
	}

	for _, f := range forecastable {
		for day := 1; day <= 5; day++ {
			key := fmt.Sprintf("%s_%dd", f.key, day)
			out = append(out, newSpec(key, f.unit, f.class, f.icon, f.options))
		}
	}

	return out
}
