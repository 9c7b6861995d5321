package buienradar

import (
	"path"
	"sort"
	"strings"
)

// Normalized condition states as published by condition sensors.
const (
	StateClear        = "clear"
	StateCloudy       = "cloudy"
	StateFog          = "fog"
	StateLightning    = "lightning"
	StatePartlyCloudy = "partlycloudy"
	StateRainy        = "rainy"
	StateSnowy        = "snowy"
)

// conditionTable maps the buienradar icon code to condition info. The image
// URL is filled in per snapshot from the feed.
var conditionTable = map[string]Condition{
	"a": {Code: "a", Condition: StateClear, Detailed: "clear", Exact: "Almost fully sunny", ExactNL: "Zonnig"},
	"b": {Code: "b", Condition: StatePartlyCloudy, Detailed: "partlycloudy", Exact: "Mix of clear and medium or low clouds", ExactNL: "Mix van opklaringen en middelbare of lage bewolking"},
	"c": {Code: "c", Condition: StateCloudy, Detailed: "cloudy", Exact: "Heavily clouded", ExactNL: "Zwaar bewolkt"},
	"d": {Code: "d", Condition: StatePartlyCloudy, Detailed: "partlycloudy-fog", Exact: "Clearing with local mist or fog", ExactNL: "Opklaringen en plaatselijk nevel of mist"},
	"f": {Code: "f", Condition: StatePartlyCloudy, Detailed: "partlycloudy-light-rain", Exact: "Alternatingly cloudy with some light rain", ExactNL: "Half bewolkt met lichte regen"},
	"g": {Code: "g", Condition: StateLightning, Detailed: "partlycloudy-lightning", Exact: "Alternatingly cloudy with local thunderstorms", ExactNL: "Kans op enkele onweersbuien"},
	"h": {Code: "h", Condition: StateRainy, Detailed: "rainy", Exact: "Cloudy with occasional rain", ExactNL: "Bewolkt met af en toe regen"},
	"i": {Code: "i", Condition: StatePartlyCloudy, Detailed: "partlycloudy-light-snow", Exact: "Alternatingly cloudy with light snowfall", ExactNL: "Half bewolkt met lichte sneeuwval"},
	"j": {Code: "j", Condition: StatePartlyCloudy, Detailed: "partlycloudy", Exact: "Mix of clear and high clouds", ExactNL: "Mix van opklaringen en hoge bewolking"},
	"k": {Code: "k", Condition: StatePartlyCloudy, Detailed: "partlycloudy-light-rain", Exact: "Mix of clear and clouds with some light rain", ExactNL: "Mix van opklaringen en buien"},
	"l": {Code: "l", Condition: StateRainy, Detailed: "rainy", Exact: "Heavily clouded with rain", ExactNL: "Zwaar bewolkt met regen"},
	"m": {Code: "m", Condition: StateRainy, Detailed: "light-rain", Exact: "Heavily clouded with some light rain", ExactNL: "Zwaar bewolkt met lichte regen"},
	"n": {Code: "n", Condition: StateFog, Detailed: "fog", Exact: "Clearing after mist or fog", ExactNL: "Opklaring na mist"},
	"o": {Code: "o", Condition: StatePartlyCloudy, Detailed: "partlycloudy", Exact: "Partly cloudy", ExactNL: "Half bewolkt"},
	"p": {Code: "p", Condition: StateCloudy, Detailed: "cloudy", Exact: "Mostly cloudy", ExactNL: "Vrijwel onbewolkt"},
	"q": {Code: "q", Condition: StateRainy, Detailed: "rainy", Exact: "Heavily clouded with rain and thunder", ExactNL: "Zwaar bewolkt en regen"},
	"r": {Code: "r", Condition: StatePartlyCloudy, Detailed: "partlycloudy", Exact: "Partly cloudy with little chance of rain", ExactNL: "Half tot zwaar bewolkt"},
	"s": {Code: "s", Condition: StateLightning, Detailed: "lightning", Exact: "Clear with local heavy thunderstorms", ExactNL: "Kans op zware onweersbuien"},
	"t": {Code: "t", Condition: StateSnowy, Detailed: "snowy", Exact: "Heavy snowfall", ExactNL: "Zware sneeuwval"},
	"u": {Code: "u", Condition: StateSnowy, Detailed: "partlycloudy-light-snow", Exact: "Mix of clear and clouds with some light snow", ExactNL: "Mix van opklaringen en lichte sneeuwval"},
	"v": {Code: "v", Condition: StateSnowy, Detailed: "light-snow", Exact: "Heavily clouded with light snowfall", ExactNL: "Zwaar bewolkt met lichte sneeuwval"},
	"w": {Code: "w", Condition: StateSnowy, Detailed: "snowy-rainy", Exact: "Mix of rain and snow", ExactNL: "Mix van regen en sneeuwval"},
}

// StateConditions enumerates the allowed values of condition sensors.
var StateConditions = []string{
	StateClear, StateCloudy, StateFog, StateLightning,
	StatePartlyCloudy, StateRainy, StateSnowy,
}

// StateConditionCodes and StateDetailedConditions enumerate the allowed
// values of conditioncode and conditiondetailed sensors.
var (
	StateConditionCodes     []string
	StateDetailedConditions []string
)

func init() {
	seen := map[string]bool{}
	for _, c := range conditionTable {
		StateConditionCodes = append(StateConditionCodes, c.Code)
		if !seen[c.Detailed] {
			seen[c.Detailed] = true
			StateDetailedConditions = append(StateDetailedConditions, c.Detailed)
		}
	}
	sort.Strings(StateConditionCodes)
	sort.Strings(StateDetailedConditions)
}

// conditionFromIcon resolves the condition info for a feed icon URL such as
// "https://www.buienradar.nl/resources/images/icons/weather/30x30/cc.png".
// Night variants double the code letter; only the first letter matters.
func conditionFromIcon(iconURL string) *Condition {
	if iconURL == "" {
		return nil
	}
	name := strings.TrimSuffix(path.Base(iconURL), path.Ext(iconURL))
	if name == "" {
		return nil
	}
	code := strings.ToLower(name[:1])
	c, ok := conditionTable[code]
	if !ok {
		return nil
	}
	c.Image = iconURL
	return &c
}

// barometerForecast maps air pressure (hPa) onto the buienradar barometer
// forecast: a code 1..7 plus English and Dutch names.
func barometerForecast(hPa float64) (code int, name, nameNL string) {
	switch {
	case hPa <= 0:
		return 0, "", ""
	case hPa < 974:
		return 1, "Thunderstorms", "Onweer"
	case hPa < 990:
		return 2, "Stormy", "Storm"
	case hPa < 1002:
		return 3, "Rain", "Regen"
	case hPa < 1010:
		return 4, "Cloudy", "Bewolkt"
	case hPa < 1022:
		return 5, "Unstable", "Wisselvallig"
	case hPa < 1035:
		return 6, "Stable", "Stabiel"
	default:
		return 7, "Very dry", "Zeer droog"
	}
}
