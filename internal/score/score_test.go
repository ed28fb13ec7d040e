package score

import (
	"testing"

	"github.com/supdatta/verbiq/internal/model"
)

func TestGradeBoundaries(t *testing.T) {
	cases := []struct {
		score string
		grade string
		label string
	}{
		{"0", "F", "TRY AGAIN"},
		{"49", "F", "TRY AGAIN"},
		{"50", "D", "FAIR"},
		{"59", "D", "FAIR"},
		{"60", "C", "GOOD"},
		{"69", "C", "GOOD"},
		{"70", "B", "GREAT"},
		{"79", "B", "GREAT"},
		{"80", "A", "EXCELLENT"},
		{"89", "A", "EXCELLENT"},
		{"90", "S", "LEGENDARY"},
		{"100", "S", "LEGENDARY"},
		{"not a number", "F", "TRY AGAIN"},
	}
	for _, tc := range cases {
		got := Grade(tc.score, "")
		if got.Grade != tc.grade || got.Label != tc.label {
			t.Fatalf("Grade(%q) = %+v, want %s/%s", tc.score, got, tc.grade, tc.label)
		}
	}
}

func TestGradeMonotonic(t *testing.T) {
	rank := map[string]int{"F": 1, "D": 2, "C": 3, "B": 4, "A": 5, "S": 6}
	prev := 0
	for c := 0; c <= 100; c++ {
		got := Grade(intToScore(c), "")
		if rank[got.Grade] < prev {
			t.Fatalf("grade rank decreased at confidence %d: %s", c, got.Grade)
		}
		prev = rank[got.Grade]
	}
}

func intToScore(n int) string {
	digits := ""
	if n == 0 {
		return "0"
	}
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}

func TestServerGradePrecedence(t *testing.T) {
	got := Grade("10", "S")
	if got.Grade != "S" || got.Label != "LEGENDARY" {
		t.Fatalf("server grade should win verbatim, got %+v", got)
	}
	got = Grade("95", "F")
	if got.Grade != "F" || got.Label != "TRY AGAIN" {
		t.Fatalf("server grade should win verbatim, got %+v", got)
	}
	got = Grade("95", "Z")
	if got.Grade != "Z" || got.Label != "COMPLETE" {
		t.Fatalf("unknown server grade should fall back to COMPLETE, got %+v", got)
	}
}

func TestScoreValue(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"85", 85},
		{"85%", 85},
		{" 92 ", 92},
		{"85.5", 85},
		{"", 0},
		{"abc", 0},
		{"%", 0},
	}
	for _, tc := range cases {
		if got := ScoreValue(tc.in); got != tc.want {
			t.Fatalf("ScoreValue(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestDetailedMetricsFallback(t *testing.T) {
	res := model.AnalysisResult{ConfidenceScore: "85", PauseRatio: "20%"}
	metrics := DetailedMetrics(res)
	want := map[string]int{
		"Voice Clarity": 90,
		"Pacing":        80,
		"Tone Match":    80,
		"Engagement":    95,
	}
	for _, m := range metrics {
		if m.Value != want[m.Label] {
			t.Fatalf("%s = %d, want %d", m.Label, m.Value, want[m.Label])
		}
	}
}

func TestDetailedMetricsClamping(t *testing.T) {
	res := model.AnalysisResult{ConfidenceScore: "98", PauseRatio: "0"}
	for _, m := range DetailedMetrics(res) {
		if m.Value < 0 || m.Value > 100 {
			t.Fatalf("%s = %d outside [0,100]", m.Label, m.Value)
		}
	}
}

func TestDetailedMetricsToneFloor(t *testing.T) {
	res := model.AnalysisResult{ConfidenceScore: "3"}
	for _, m := range DetailedMetrics(res) {
		if m.Label == "Tone Match" && m.Value != 50 {
			t.Fatalf("Tone Match = %d, want floor 50", m.Value)
		}
	}
}

func TestDetailedMetricsServerValues(t *testing.T) {
	res := model.AnalysisResult{
		ConfidenceScore: "10",
		Metrics:         &model.Metrics{Clarity: 88, Pacing: 60, ToneMatch: 150, Engagement: 72},
	}
	metrics := DetailedMetrics(res)
	want := map[string]int{
		"Voice Clarity": 88,
		"Pacing":        60,
		"Tone Match":    100, // clamped
		"Engagement":    72,
	}
	for _, m := range metrics {
		if m.Value != want[m.Label] {
			t.Fatalf("%s = %d, want %d", m.Label, m.Value, want[m.Label])
		}
		if m.Label == "Pacing" && m.Trend != TrendDown {
			t.Fatalf("Pacing at 60 should trend down, got %s", m.Trend)
		}
	}
}

func TestPacingTrend(t *testing.T) {
	up := DetailedMetrics(model.AnalysisResult{ConfidenceScore: "85", PauseRatio: "10"})
	for _, m := range up {
		if m.Label == "Pacing" && m.Trend != TrendUp {
			t.Fatalf("Pacing at %d should trend up", m.Value)
		}
	}
	down := DetailedMetrics(model.AnalysisResult{ConfidenceScore: "85", PauseRatio: "40"})
	for _, m := range down {
		if m.Label == "Pacing" && m.Trend != TrendDown {
			t.Fatalf("Pacing at %d should trend down", m.Value)
		}
	}
}
