package buienradar

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pegah-mashcool/buienradar-bridge/internal/common"
)

// parseRainText parses the raintext endpoint output into a precipitation
// forecast over the given timeframe (minutes, starting at now).
//
// Each line reads "077|21:30": an intensity value 0..255 and a local HH:MM
// slot in 5-minute steps. A value v > 0 translates to 10^((v-109)/32) mm/h.
func parseRainText(text string, timeframe int, now time.Time) *PrecipitationForecast {
	pf := &PrecipitationForecast{Timeframe: timeframe}

	end := now.Add(time.Duration(timeframe) * time.Minute)
	var total float64
	var slots int

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		value, at, ok := parseRainLine(line, now)
		if !ok {
			continue
		}
		// Include the slot covering now, exclude everything past the window.
		if at.Before(now.Add(-5*time.Minute)) || !at.Before(end) {
			continue
		}

		slots++
		if value > 0 {
			total += math.Pow(10, (float64(value)-109)/32)
		}
	}

	if slots == 0 {
		return pf
	}

	average := total / float64(slots)
	pf.Average = &average
	depth := common.Round1(average / 60 * float64(timeframe))
	pf.Total = &depth
	return pf
}

func parseRainLine(line string, now time.Time) (value int, at time.Time, ok bool) {
	parts := strings.SplitN(line, "|", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, false
	}

	value, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, time.Time{}, false
	}

	clock, err := time.Parse("15:04", strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, time.Time{}, false
	}

	at = time.Date(now.Year(), now.Month(), now.Day(),
		clock.Hour(), clock.Minute(), 0, 0, now.Location())

	// Slots shortly after midnight belong to the next day.
	if at.Before(now.Add(-2 * time.Hour)) {
		at = at.AddDate(0, 0, 1)
	}
	return value, at, true
}
