// Package score turns raw analysis responses into display-ready grades and
// metrics. Everything here is pure and deterministic.
package score

import (
	"math"
	"strconv"
	"strings"

	"github.com/supdatta/verbiq/internal/model"
)

// GradeInfo pairs a letter grade with its display label.
type GradeInfo struct {
	Grade string
	Label string
}

// Trend directions for metric indicators.
const (
	TrendUp   = "up"
	TrendDown = "down"
)

var gradeLabels = map[string]string{
	"S": "LEGENDARY",
	"A": "EXCELLENT",
	"B": "GREAT",
	"C": "GOOD",
	"D": "FAIR",
	"F": "TRY AGAIN",
}

// unknownGradeLabel covers server grades outside the letter table.
const unknownGradeLabel = "COMPLETE"

// Grade resolves the letter grade for a result. A backend-supplied grade wins
// verbatim, even when it disagrees with the confidence score; otherwise the
// score is bucketed at 50/60/70/80/90.
func Grade(confidenceScore, serverGrade string) GradeInfo {
	if serverGrade != "" {
		label, ok := gradeLabels[serverGrade]
		if !ok {
			label = unknownGradeLabel
		}
		return GradeInfo{Grade: serverGrade, Label: label}
	}
	n := ScoreValue(confidenceScore)
	switch {
	case n >= 90:
		return GradeInfo{Grade: "S", Label: gradeLabels["S"]}
	case n >= 80:
		return GradeInfo{Grade: "A", Label: gradeLabels["A"]}
	case n >= 70:
		return GradeInfo{Grade: "B", Label: gradeLabels["B"]}
	case n >= 60:
		return GradeInfo{Grade: "C", Label: gradeLabels["C"]}
	case n >= 50:
		return GradeInfo{Grade: "D", Label: gradeLabels["D"]}
	default:
		return GradeInfo{Grade: "F", Label: gradeLabels["F"]}
	}
}

// ScoreValue parses a numeric score string, tolerating a trailing "%" and
// trailing fraction digits. Non-numeric input yields 0.
func ScoreValue(s string) int {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// Metric is one display-ready delivery metric.
type Metric struct {
	Label string
	Value int
	Trend string
}

// DetailedMetrics returns the four delivery metrics for a result. Backend
// metrics are used verbatim when present. Otherwise the values are
// approximated from the confidence score and pause ratio; the approximations
// are display heuristics, not measurements, and are clamped to [0,100].
func DetailedMetrics(res model.AnalysisResult) []Metric {
	confidence := ScoreValue(res.ConfidenceScore)
	pause := ScoreValue(res.PauseRatio)

	clarity := clamp(confidence + 5)
	pacing := clamp(100 - pause)
	tone := confidence - 5
	if tone <= 0 {
		tone = 50
	}
	tone = clamp(tone)
	engagement := clamp(confidence + 10)

	if res.Metrics != nil {
		clarity = clamp(round(res.Metrics.Clarity))
		pacing = clamp(round(res.Metrics.Pacing))
		tone = clamp(round(res.Metrics.ToneMatch))
		engagement = clamp(round(res.Metrics.Engagement))
	}

	pacingTrend := TrendDown
	if pacing > 70 {
		pacingTrend = TrendUp
	}

	return []Metric{
		{Label: "Voice Clarity", Value: clarity, Trend: TrendUp},
		{Label: "Pacing", Value: pacing, Trend: pacingTrend},
		{Label: "Tone Match", Value: tone, Trend: TrendUp},
		{Label: "Engagement", Value: engagement, Trend: TrendUp},
	}
}

func clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func round(v float64) int {
	return int(math.Round(v))
}
