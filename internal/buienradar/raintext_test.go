package buienradar

import (
	"math"
	"testing"
	"time"
)

func TestParseRainTextIntensity(t *testing.T) {
	now := time.Date(2025, 5, 1, 21, 30, 0, 0, time.UTC)

	// A single slot at value 77 inside the window.
	pf := parseRainText("077|21:30\n", 30, now)
	if pf.Timeframe != 30 {
		t.Fatalf("timeframe = %d, want 30", pf.Timeframe)
	}
	if pf.Average == nil || pf.Total == nil {
		t.Fatal("expected average and total to be set")
	}

	want := math.Pow(10, (77.0-109)/32)
	if math.Abs(*pf.Average-want) > 1e-9 {
		t.Errorf("average = %f, want %f", *pf.Average, want)
	}
}

func TestParseRainTextWindowBounds(t *testing.T) {
	now := time.Date(2025, 5, 1, 21, 30, 0, 0, time.UTC)

	// Only the 21:30 and 21:55 slots fall inside a 30-minute window;
	// 22:00 is the exclusive end and 21:20 is already past.
	text := "100|21:20\n100|21:30\n100|21:55\n100|22:00\n"
	pf := parseRainText(text, 30, now)
	if pf.Average == nil {
		t.Fatal("expected an average")
	}

	perSlot := math.Pow(10, (100.0-109)/32)
	want := 2 * perSlot / 2 // two in-window slots, both rainy
	if math.Abs(*pf.Average-want) > 1e-9 {
		t.Errorf("average = %f, want %f", *pf.Average, want)
	}
}

func TestParseRainTextDryForecast(t *testing.T) {
	now := time.Date(2025, 5, 1, 21, 30, 0, 0, time.UTC)

	pf := parseRainText("000|21:30\n000|21:35\n", 60, now)
	if pf.Average == nil || *pf.Average != 0 {
		t.Fatalf("expected zero average, got %v", pf.Average)
	}
	if pf.Total == nil || *pf.Total != 0 {
		t.Fatalf("expected zero total, got %v", pf.Total)
	}
}

func TestParseRainTextEmpty(t *testing.T) {
	now := time.Date(2025, 5, 1, 21, 30, 0, 0, time.UTC)

	pf := parseRainText("", 60, now)
	if pf.Average != nil || pf.Total != nil {
		t.Fatal("expected unset average and total without any slots")
	}
	if pf.Timeframe != 60 {
		t.Fatalf("timeframe = %d, want 60", pf.Timeframe)
	}
}

func TestParseRainLinePastMidnight(t *testing.T) {
	now := time.Date(2025, 5, 1, 23, 50, 0, 0, time.UTC)

	_, at, ok := parseRainLine("050|00:10", now)
	if !ok {
		t.Fatal("expected a valid line")
	}
	if at.Day() != 2 {
		t.Fatalf("expected slot rolled to the next day, got %v", at)
	}
}

func TestParseRainLineMalformed(t *testing.T) {
	now := time.Now()
	for _, line := range []string{"garbage", "x|21:30", "100|2130", "100|"} {
		if _, _, ok := parseRainLine(line, now); ok {
			t.Errorf("line %q should not parse", line)
		}
	}
}
