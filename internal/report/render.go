// Package report runs the segmentation pipeline and renders its results.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
)

const distributionBarWidth = 30

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

func formatVerses(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatJuz renders a juz list for display, "-" when empty.
func FormatJuz(juz []int) string {
	if len(juz) == 0 {
		return "-"
	}
	return strings.Join(lo.Map(juz, func(n int, _ int) string { return strconv.Itoa(n) }), ", ")
}

// RenderRecords prints the raw records of a period.
func RenderRecords(w io.Writer, p model.Period, records []model.WeeklyRecord) error {
	if _, err := fmt.Fprintf(w, "Records: %s\n", p); err != nil {
		return err
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records found.")
		return err
	}
	headers := []string{"Name", "Verses", "Category", "Juz", "Attendance", "Submission", "Review", "Recitation", "Total Fluency"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Name,
			formatVerses(r.VerseCount),
			string(r.Category),
			FormatJuz(r.Juz),
			strconv.Itoa(r.Attendance),
			strconv.Itoa(r.SubmissionFluency),
			strconv.Itoa(r.ReviewFluency),
			strconv.Itoa(r.RecitationFluency),
			fmt.Sprintf("%.2f", r.TotalFluency),
		})
	}
	rightAlign := map[int]bool{1: true, 4: true, 5: true, 6: true, 7: true, 8: true}
	return writeLines(w, formatTable(headers, rows, rightAlign))
}

// RenderSegmented prints the segmentation result table for staff.
func RenderSegmented(w io.Writer, records []model.SegmentedRecord) error {
	if _, err := fmt.Fprintln(w, "Segmentation"); err != nil {
		return err
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records found.")
		return err
	}
	headers := []string{"Name", "Verses", "Category", "Weighted Volume", "Attendance", "Total Fluency", "Tier"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Name,
			formatVerses(r.VerseCount),
			string(r.Category),
			fmt.Sprintf("%.2f", r.WeightedVolume),
			strconv.Itoa(r.Attendance),
			fmt.Sprintf("%.2f", r.TotalFluency),
			string(r.Tier),
		})
	}
	rightAlign := map[int]bool{1: true, 3: true, 4: true, 5: true}
	return writeLines(w, formatTable(headers, rows, rightAlign))
}

// RenderGuardian prints the reduced view shared with guardians.
func RenderGuardian(w io.Writer, records []model.SegmentedRecord) error {
	if _, err := fmt.Fprintln(w, "Student Progress"); err != nil {
		return err
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records found.")
		return err
	}
	headers := []string{"Name", "Juz", "Attendance", "Tier"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{r.Name, FormatJuz(r.Juz), strconv.Itoa(r.Attendance), string(r.Tier)})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{2: true}))
}

// TierStats holds per-tier means for the summary table.
type TierStats struct {
	model.TierCount
	Share         float64
	AvgVolume     float64
	AvgFluency    float64
	AvgAttendance float64
}

// BuildTierStats combines tier counts with per-tier means.
func BuildTierStats(records []model.SegmentedRecord, counts []model.TierCount) []TierStats {
	total := len(records)
	return lo.Map(counts, func(tc model.TierCount, _ int) TierStats {
		st := TierStats{TierCount: tc}
		if tc.Count == 0 {
			return st
		}
		members := lo.Filter(records, func(r model.SegmentedRecord, _ int) bool { return r.Tier == tc.Tier })
		n := float64(len(members))
		st.Share = float64(tc.Count) / float64(total)
		st.AvgVolume = lo.SumBy(members, func(r model.SegmentedRecord) float64 { return r.WeightedVolume }) / n
		st.AvgFluency = lo.SumBy(members, func(r model.SegmentedRecord) float64 { return r.TotalFluency }) / n
		st.AvgAttendance = lo.SumBy(members, func(r model.SegmentedRecord) float64 { return float64(r.Attendance) }) / n
		return st
	})
}

// RenderSummary prints the per-tier summary table.
func RenderSummary(w io.Writer, records []model.SegmentedRecord, counts []model.TierCount) error {
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Students: %d\n", len(records)); err != nil {
		return err
	}
	headers := []string{"Tier", "Students", "Share", "Avg Volume", "Avg Fluency", "Avg Attendance"}
	rows := make([][]string, 0, len(counts))
	for _, st := range BuildTierStats(records, counts) {
		rows = append(rows, []string{
			string(st.Tier),
			strconv.Itoa(st.Count),
			fmt.Sprintf("%.1f%%", st.Share*100),
			fmt.Sprintf("%.2f", st.AvgVolume),
			fmt.Sprintf("%.2f", st.AvgFluency),
			fmt.Sprintf("%.2f", st.AvgAttendance),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}
	return writeLines(w, formatTable(headers, rows, rightAlign))
}

// RenderDistribution prints one proportional bar per tier.
func RenderDistribution(w io.Writer, counts []model.TierCount) error {
	if _, err := fmt.Fprintln(w, "Distribution"); err != nil {
		return err
	}
	total := lo.SumBy(counts, func(tc model.TierCount) int { return tc.Count })
	labelWidth := 0
	for _, tc := range counts {
		if width := displayWidth(string(tc.Tier)); width > labelWidth {
			labelWidth = width
		}
	}
	for _, tc := range counts {
		share := 0.0
		if total > 0 {
			share = float64(tc.Count) / float64(total)
		}
		filled := int(share*distributionBarWidth + 0.5)
		bar := strings.Repeat("█", filled) + strings.Repeat("░", distributionBarWidth-filled)
		if _, err := fmt.Fprintf(w, "%s  %s %5.1f%% (%d)\n", padCell(string(tc.Tier), labelWidth, false), bar, share*100, tc.Count); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderPeriods prints stored periods with their record counts.
func RenderPeriods(w io.Writer, periods []model.PeriodCount) error {
	if len(periods) == 0 {
		_, err := fmt.Fprintln(w, "No periods found.")
		return err
	}
	rows := make([][]string, 0, len(periods))
	for _, pc := range periods {
		rows = append(rows, []string{pc.Period.String(), strconv.Itoa(pc.Count)})
	}
	return writeLines(w, formatTable([]string{"Period", "Records"}, rows, map[int]bool{1: true}))
}
