package sensor

import (
	"log"

	"github.com/pegah-mashcool/buienradar-bridge/internal/buienradar"
	"github.com/pegah-mashcool/buienradar-bridge/internal/common"
)

// Attribute labels attached to plain scalar sensors.
const (
	attrAttribution = "attribution"
	attrStationName = "Stationname"
	attrMeasured    = "Measured"
)

const measuredLayout = "Mon Jan  2 15:04:05 2006"

// Load updates the state from the snapshot according to the spec's kind and
// reports whether the caller should push a state-change notification.
//
// A snapshot whose Measured timestamp equals the previously recorded one is
// a no-op. Absent fields load as unset values, never errors; the only
// expected failure is a forecast day beyond the snapshot's forecast, which
// is logged and skipped for that sensor alone.
func Load(snapshot *buienradar.Snapshot, spec *Spec, state *State) bool {
	if snapshot == nil {
		return false
	}

	// Freshness gate: the measured timestamp is the sole change key for
	// everything except condition/symbol sensors.
	if state.Measured.Equal(snapshot.Measured) {
		return false
	}
	state.Measured = snapshot.Measured

	k := spec.Kind()
	switch k.Category {
	case CategoryForecastCondition:
		day, ok := forecastDay(snapshot, k.Day)
		if !ok {
			return false
		}
		return loadCondition(day.Condition, k.Field, state)

	case CategoryForecastWindSpeed:
		day, ok := forecastDay(snapshot, k.Day)
		if !ok {
			return false
		}
		v, present := day.Scalar(k.Field)
		loadWindSpeed(state, v, present)
		return true

	case CategoryForecastScalar:
		day, ok := forecastDay(snapshot, k.Day)
		if !ok {
			return false
		}
		v, present := day.Scalar(k.Field)
		setValue(state, v, present)
		return true

	case CategoryCondition:
		return loadCondition(snapshot.Condition, k.Field, state)

	case CategoryPrecipitation:
		loadPrecipitation(state, snapshot.PrecipitationForecast, k.Field)
		return true

	case CategoryWindSpeed:
		v, present := snapshot.Scalar(spec.Key)
		loadWindSpeed(state, v, present)
		return true

	case CategoryVisibility:
		v, present := snapshot.Scalar(spec.Key)
		if f, isNum := asFloat(v, present); isNum {
			state.Value = common.Round1(f / 1000)
		} else {
			state.Value = nil
		}
		return true

	default: // CategoryScalar
		v, present := snapshot.Scalar(spec.Key)
		setValue(state, v, present)

		attrs := map[string]any{
			attrAttribution: snapshot.Attribution,
			attrStationName: snapshot.StationName,
		}
		if !state.Measured.IsZero() {
			attrs[attrMeasured] = state.Measured.Local().Format(measuredLayout)
		}
		state.Attributes = attrs
		return true
	}
}

// loadCondition applies the secondary change-detection layer specific to
// condition/symbol sensors: the selected text or the image reference must
// actually differ, a fresh measurement alone is not enough.
func loadCondition(cond *buienradar.Condition, field string, state *State) bool {
	if cond == nil {
		return false
	}

	newValue := conditionValue(cond, field)
	if newValue != state.Value || cond.Image != state.EntityPicture {
		state.Value = newValue
		state.EntityPicture = cond.Image
		return true
	}
	return false
}

func conditionValue(cond *buienradar.Condition, field string) any {
	switch field {
	case "symbol":
		return cond.ExactNL
	case "condition":
		return cond.Condition
	case "conditioncode":
		return cond.Code
	case "conditiondetailed":
		return cond.Detailed
	case "conditionexact":
		return cond.Exact
	}
	return nil
}

// loadWindSpeed stores a m/s reading as km/h rounded to one decimal.
// An absent or non-numeric reading stores unset; the conversion is always
// skipped in that case.
func loadWindSpeed(state *State, v any, present bool) {
	if f, isNum := asFloat(v, present); isNum {
		state.Value = common.Round1(f * 3.6)
	} else {
		state.Value = nil
	}
}

func loadPrecipitation(state *State, pf *buienradar.PrecipitationForecast, field string) {
	if pf == nil {
		state.Value = nil
		state.Timeframe = 0
		return
	}

	state.Timeframe = pf.Timeframe
	switch field {
	case "average":
		setFloatPtr(state, pf.Average)
	case "total":
		setFloatPtr(state, pf.Total)
	default:
		state.Value = nil
	}
}

func forecastDay(snapshot *buienradar.Snapshot, day int) (*buienradar.ForecastDay, bool) {
	if day < 0 || day >= len(snapshot.Forecast) {
		log.Printf("dispatcher: no forecast for day=%d", day)
		return nil, false
	}
	return &snapshot.Forecast[day], true
}

func setValue(state *State, v any, present bool) {
	if present {
		state.Value = v
	} else {
		state.Value = nil
	}
}

func setFloatPtr(state *State, v *float64) {
	if v != nil {
		state.Value = *v
	} else {
		state.Value = nil
	}
}

func asFloat(v any, present bool) (float64, bool) {
	if !present {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}
