package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
)

// Point is one scatter sample.
type Point struct {
	X float64
	Y float64
}

// ScatterSeries is a named group of points drawn in one colour.
type ScatterSeries struct {
	Name   string
	Points []Point
}

type ansiColor struct {
	name string
	code string
}

type axisRange struct {
	min float64
	max float64
}

const (
	defaultPlotHeight   = 12
	minPlotWidth        = 10
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var colorPalette = []ansiColor{
	{name: "green", code: "\x1b[32m"},
	{name: "yellow", code: "\x1b[33m"},
	{name: "red", code: "\x1b[31m"},
	{name: "cyan", code: "\x1b[36m"},
	{name: "magenta", code: "\x1b[35m"},
}

// RenderScatter plots weighted volume against total fluency, one colour per tier.
func RenderScatter(w io.Writer, records []model.SegmentedRecord, totalWidth, height int, forceColor bool) error {
	series := make([]ScatterSeries, 0, len(model.Tiers))
	for _, tier := range model.Tiers {
		s := ScatterSeries{Name: string(tier)}
		for _, r := range records {
			if r.Tier == tier {
				s.Points = append(s.Points, Point{X: r.WeightedVolume, Y: r.TotalFluency})
			}
		}
		series = append(series, s)
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotScatter(w, "Weighted Volume vs Total Fluency", "weighted volume", series, width, height, forceColor)
}

// PlotScatter renders points on a braille canvas. Series keep their palette
// slot even when empty so colours stay stable across periods.
func PlotScatter(w io.Writer, title, xLabel string, series []ScatterSeries, width, height int, forceColor bool) error {
	xr, yr, ok := scatterBounds(series)
	if !ok {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = autoPlotWidth()
	}
	if width < minPlotWidth {
		width = minPlotWidth
	}

	seriesCells := make([][][]uint8, len(series))
	for si, s := range series {
		seriesCells[si] = makeCells(height, width)
		for _, p := range s.Points {
			px := scaleToDots(p.X, xr, width*2)
			py := height*4 - 1 - scaleToDots(p.Y, yr, height*4)
			setBrailleDot(seriesCells[si], px, py)
		}
	}

	useColor := shouldUseColor(w, forceColor)
	axisLabels := makeAxisLabels(height, yr)
	leftAxisWidth := 0
	for _, label := range axisLabels {
		if len(label) > leftAxisWidth {
			leftAxisWidth = len(label)
		}
	}

	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(fmt.Sprintf("%*s%s", leftAxisWidth, axisLabels[y], axisSeparator))
		for x := 0; x < width; x++ {
			mask, colorIdx := composeCell(seriesCells, x, y)
			ch := brailleFromMask(mask)
			if useColor && colorIdx >= 0 {
				row.WriteString(colorPalette[colorIdx%len(colorPalette)].code)
				row.WriteRune(ch)
				row.WriteString(colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	indent := strings.Repeat(" ", leftAxisWidth+displayWidth(axisSeparator))
	minLabel := formatAxis(xr.min)
	maxLabel := formatAxis(xr.max)
	gap := width - len(minLabel) - len(maxLabel)
	if gap < 1 {
		gap = 1
	}
	if _, err := fmt.Fprintf(w, "%s%s%s%s\n", indent, minLabel, strings.Repeat(" ", gap), maxLabel); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%sx: %s, y: total fluency\n", indent, xLabel); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, renderLegend(series, useColor)); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func scatterBounds(series []ScatterSeries) (axisRange, axisRange, bool) {
	xr := axisRange{min: math.Inf(1), max: math.Inf(-1)}
	yr := axisRange{min: math.Inf(1), max: math.Inf(-1)}
	found := false
	for _, s := range series {
		for _, p := range s.Points {
			found = true
			xr.min = math.Min(xr.min, p.X)
			xr.max = math.Max(xr.max, p.X)
			yr.min = math.Min(yr.min, p.Y)
			yr.max = math.Max(yr.max, p.Y)
		}
	}
	if !found {
		return xr, yr, false
	}
	for _, r := range []*axisRange{&xr, &yr} {
		if math.Abs(r.max-r.min) < 1e-9 {
			r.min--
			r.max++
		}
	}
	return xr, yr, true
}

func scaleToDots(v float64, r axisRange, dots int) int {
	if dots <= 1 {
		return 0
	}
	pos := (v - r.min) / (r.max - r.min)
	d := int(math.Round(pos * float64(dots-1)))
	if d < 0 {
		d = 0
	}
	if d >= dots {
		d = dots - 1
	}
	return d
}

func formatAxis(v float64) string {
	return fmt.Sprintf("%.0f", v)
}

func autoPlotWidth() int {
	return PlotWidthFor(terminalWidth())
}

// PlotWidthFor computes a plot width that fits within the total available width.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	axisWidth := len(formatAxis(100)) + displayWidth(axisSeparator)
	plotWidth := totalWidth - axisWidth
	if plotWidth < minPlotWidth {
		plotWidth = minPlotWidth
	}
	return plotWidth
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func makeAxisLabels(height int, yr axisRange) []string {
	labels := make([]string, height)
	if height <= 0 {
		return labels
	}
	labels[0] = formatAxis(yr.max)
	if height > 2 {
		labels[height/2] = formatAxis((yr.max + yr.min) / 2)
	}
	if height > 1 {
		labels[height-1] = formatAxis(yr.min)
	}
	return labels
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := 0; y < height; y++ {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func composeCell(seriesCells [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	colorIdx := -1
	for i, cells := range seriesCells {
		if y < 0 || y >= len(cells) {
			continue
		}
		if x < 0 || x >= len(cells[y]) {
			continue
		}
		cellMask := cells[y][x]
		if cellMask == 0 {
			continue
		}
		if colorIdx == -1 {
			colorIdx = i
		}
		mask |= cellMask
	}
	return mask, colorIdx
}

func renderLegend(series []ScatterSeries, useColor bool) string {
	parts := make([]string, 0, len(series))
	marker := brailleFromMask(0xFF)
	for i, s := range series {
		label := fmt.Sprintf("%c %s (%d)", marker, s.Name, len(s.Points))
		if useColor {
			label = colorPalette[i%len(colorPalette)].code + label + colorReset
		} else {
			label = fmt.Sprintf("%c %s [%s] (%d)", marker, s.Name, colorPalette[i%len(colorPalette)].name, len(s.Points))
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func setBrailleDot(cells [][]uint8, x, y int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(cells) {
		return
	}
	if cellX >= len(cells[cellY]) {
		return
	}
	cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
}

func brailleDotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}
