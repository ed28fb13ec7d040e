package historyui

import (
	"strings"
	"testing"
)

func TestSparklineEmpty(t *testing.T) {
	if got := sparkline(nil); got != "" {
		t.Fatalf("sparkline(nil) = %q, want empty", got)
	}
}

func TestSparklineFlat(t *testing.T) {
	got := sparkline([]float64{70, 70, 70})
	if len(got) != 3 {
		t.Fatalf("length = %d, want 3", len(got))
	}
	if strings.Count(got, string(got[0])) != 3 {
		t.Fatalf("flat series should render a uniform line, got %q", got)
	}
}

func TestSparklineExtremes(t *testing.T) {
	got := sparkline([]float64{0, 100})
	if len(got) != 2 {
		t.Fatalf("length = %d, want 2", len(got))
	}
	if got[0] != sparkChars[0] {
		t.Fatalf("minimum should map to the lowest glyph, got %q", got[0])
	}
	if got[1] != sparkChars[len(sparkChars)-1] {
		t.Fatalf("maximum should map to the highest glyph, got %q", got[1])
	}
}

func TestSparklineMonotonic(t *testing.T) {
	got := sparkline([]float64{10, 30, 50, 70, 90})
	for i := 1; i < len(got); i++ {
		if strings.IndexByte(sparkChars, got[i]) < strings.IndexByte(sparkChars, got[i-1]) {
			t.Fatalf("rising series should never dip: %q", got)
		}
	}
}
