package report

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestPlotScatter(t *testing.T) {
	var buf bytes.Buffer
	err := PlotScatter(&buf, "Test Scatter", "volume", []ScatterSeries{
		{Name: "A", Points: []Point{{X: 0, Y: 0}, {X: 10, Y: 100}}},
		{Name: "B", Points: []Point{{X: 5, Y: 50}}},
		{Name: "C"},
	}, 20, 4, false)
	if err != nil {
		t.Fatalf("PlotScatter failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Test Scatter") {
		t.Fatalf("expected title in output")
	}
	if !strings.Contains(out, "Legend:") || !strings.Contains(out, "C [red] (0)") {
		t.Fatalf("expected legend with empty series in output:\n%s", out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1+4+2+1 {
		t.Fatalf("expected 8 lines of output, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[1], "100 │ ") || !strings.HasPrefix(lines[4], "  0 │ ") {
		t.Fatalf("unexpected y axis labels:\n%s", out)
	}
	// top-right and bottom-left corners carry the extreme points
	top := []rune(lines[1])
	if top[len(top)-1] == brailleFromMask(0) {
		t.Fatalf("expected a dot in the top-right cell:\n%s", out)
	}
	bottom := []rune(lines[4])
	if bottom[utf8.RuneCountInString("  0 │ ")] == brailleFromMask(0) {
		t.Fatalf("expected a dot in the bottom-left cell:\n%s", out)
	}
}

func TestPlotScatterNoPoints(t *testing.T) {
	var buf bytes.Buffer
	if err := PlotScatter(&buf, "Empty", "x", []ScatterSeries{{Name: "A"}}, 20, 4, false); err != nil {
		t.Fatalf("PlotScatter failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("expected no output without points, got %q", buf.String())
	}
}

func TestRenderScatterSinglePoint(t *testing.T) {
	var buf bytes.Buffer
	records := sampleSegmented()[:1]
	if err := RenderScatter(&buf, records, 40, 4, false); err != nil {
		t.Fatalf("RenderScatter failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Fast & Consistent [green] (1)") {
		t.Fatalf("expected fast tier in legend:\n%s", buf.String())
	}
}

func TestPlotWidthFor(t *testing.T) {
	axisWidth := len(formatAxis(100)) + displayWidth(axisSeparator)
	if got := PlotWidthFor(80); got != 80-axisWidth {
		t.Fatalf("expected width %d, got %d", 80-axisWidth, got)
	}
	if got := PlotWidthFor(0); got != minPlotWidth {
		t.Fatalf("expected min width %d, got %d", minPlotWidth, got)
	}
}
