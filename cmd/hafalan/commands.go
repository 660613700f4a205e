package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/config"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/dashboard"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/form"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/report"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/segment"
)

const plotHeight = 12

var (
	addName       string
	addVerses     float64
	addCategory   string
	addJuz        []int
	addAttendance int
	addSubmission int
	addReview     int
	addRecitation int

	reportPlot  bool
	reportColor bool

	exportOut string
)

func runDashboardCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	m := dashboard.NewModel(a.svc, a.period, dashboardGuardian)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run dashboard: %w", err)
	}
	return nil
}

func newInputCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "input",
		Short: "Enter weekly records in a form",
		Args:  cobra.NoArgs,
		RunE:  runInputCmd,
	}
}

func runInputCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	m := form.NewModel(a.svc, a.table, a.table.Scheme, a.period)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run form: %w", err)
	}
	if m.Saved() > 0 {
		logErrf("Saved %d record(s).\n", m.Saved())
	}
	return nil
}

func newAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or replace one weekly record",
		Args:  cobra.NoArgs,
		RunE:  runAddCmd,
	}
	cmd.Flags().StringVar(&addName, "name", "", "student name")
	cmd.Flags().Float64Var(&addVerses, "verses", 0, "verse count (ignored with the juz scheme)")
	cmd.Flags().StringVar(&addCategory, "category", string(model.CategoryShort), "verse category (short, medium or long)")
	cmd.Flags().IntSliceVar(&addJuz, "juz", nil, "juz numbers, e.g. --juz 29,30")
	cmd.Flags().IntVar(&addAttendance, "attendance", 0, "attendance days (0-3)")
	cmd.Flags().IntVar(&addSubmission, "submission", 0, "submission fluency (0-100)")
	cmd.Flags().IntVar(&addReview, "review", 0, "review fluency (0-100)")
	cmd.Flags().IntVar(&addRecitation, "recitation", 0, "recitation fluency (0-100)")
	return cmd
}

func runAddCmd(cmd *cobra.Command, _ []string) error {
	category, err := model.ParseCategory(addCategory)
	if err != nil {
		return err
	}
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rec := model.WeeklyRecord{
		Name:              addName,
		VerseCount:        addVerses,
		Category:          category,
		Juz:               addJuz,
		Attendance:        addAttendance,
		SubmissionFluency: addSubmission,
		ReviewFluency:     addReview,
		RecitationFluency: addRecitation,
		Period:            a.period,
	}
	if err := a.table.ResolveVolume(&rec); err != nil {
		return fmt.Errorf("failed to compute verse count: %w", err)
	}
	saved, err := a.svc.Submit(cmd.Context(), rec)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s for %s (total fluency %.2f)\n", saved.Name, saved.Period, saved.TotalFluency)
	return writeErr(err)
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the records of a period",
		Args:  cobra.NoArgs,
		RunE:  runListCmd,
	}
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.svc.Records(cmd.Context(), a.period)
	if err != nil {
		return err
	}
	return writeErr(report.RenderRecords(cmd.OutOrStdout(), a.period, records))
}

func addReportFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&reportPlot, "plot", true, "include the scatter plot")
	cmd.Flags().BoolVar(&reportColor, "color", false, "force coloured plot output")
}

func newSegmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Segment a period and print the staff report",
		Args:  cobra.NoArgs,
		RunE:  runSegmentCmd,
	}
	addReportFlags(cmd)
	return cmd
}

func runSegmentCmd(cmd *cobra.Command, _ []string) error {
	return runReport(cmd, false)
}

func newGuardianCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guardian",
		Short: "Print the guardian report of a period",
		Args:  cobra.NoArgs,
		RunE:  runGuardianCmd,
	}
	addReportFlags(cmd)
	return cmd
}

func runGuardianCmd(cmd *cobra.Command, _ []string) error {
	return runReport(cmd, true)
}

func runReport(cmd *cobra.Command, guardian bool) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	res, err := a.svc.Segment(cmd.Context(), a.period)
	if errors.Is(err, segment.ErrInsufficientData) {
		return writeErr(insufficientNotice(out, a.period))
	}
	if err != nil {
		return err
	}
	return writeErr(writeReport(out, res, guardian, reportPlot, reportColor))
}

func insufficientNotice(w io.Writer, p model.Period) error {
	_, err := fmt.Fprintf(w, "Not enough records to segment %s yet (need at least %d).\n", p, segment.MinRecords)
	return err
}

// writeReport prints the segmentation result. The guardian view omits the
// staff-only columns and the tier averages.
func writeReport(w io.Writer, res report.Result, guardian, plot, color bool) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", res.Period); err != nil {
		return err
	}
	if guardian {
		if err := report.RenderGuardian(w, res.Records); err != nil {
			return err
		}
	} else {
		if err := report.RenderSegmented(w, res.Records); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
		if err := report.RenderSummary(w, res.Records, res.Summary); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	if err := report.RenderDistribution(w, res.Summary); err != nil {
		return err
	}
	if !plot {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	return report.RenderScatter(w, res.Records, 0, plotHeight, color)
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the segmented records of a period (.xlsx or .csv)",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: data dir, xlsx)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.Segment(cmd.Context(), a.period)
	if errors.Is(err, segment.ErrInsufficientData) {
		return writeErr(insufficientNotice(cmd.OutOrStdout(), a.period))
	}
	if err != nil {
		return err
	}
	path := exportOut
	if path == "" {
		path = defaultExportPath(a.period)
	}
	if err := report.Export(path, res.Records); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d record(s) to %s\n", len(res.Records), path)
	return writeErr(err)
}

func defaultExportPath(p model.Period) string {
	name := fmt.Sprintf("hafalan-%d-%s-w%d.xlsx", p.Year, strings.ToLower(p.Month), p.Week)
	return filepath.Join(config.DefaultExportDir(), name)
}

func newPeriodsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "periods",
		Short: "List stored periods with record counts",
		Args:  cobra.NoArgs,
		RunE:  runPeriodsCmd,
	}
}

func runPeriodsCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	periods, err := a.svc.Periods(cmd.Context())
	if err != nil {
		return err
	}
	return writeErr(report.RenderPeriods(cmd.OutOrStdout(), periods))
}

func writeErr(err error) error {
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
