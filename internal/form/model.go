// Package form provides the Bubble Tea record entry form.
package form

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/weights"
)

// Submitter stores one weekly record.
type Submitter interface {
	Submit(ctx context.Context, rec model.WeeklyRecord) (model.WeeklyRecord, error)
}

// VolumeResolver fills derived volume fields before a record is submitted.
type VolumeResolver interface {
	ResolveVolume(rec *model.WeeklyRecord) error
}

type fieldKey int

const (
	fieldName fieldKey = iota
	fieldVerses
	fieldCategory
	fieldJuz
	fieldAttendance
	fieldSubmission
	fieldReview
	fieldRecitation
	fieldWeek
	fieldMonth
	fieldYear
)

var fieldPrompts = map[fieldKey]string{
	fieldName:       "Name",
	fieldVerses:     "Verse count",
	fieldCategory:   "Category (Short/Medium/Long)",
	fieldJuz:        "Juz (e.g. 29, 30)",
	fieldAttendance: "Attendance (0-3)",
	fieldSubmission: "Submission fluency (0-100)",
	fieldReview:     "Review fluency (0-100)",
	fieldRecitation: "Recitation fluency (0-100)",
	fieldWeek:       "Week (1-5)",
	fieldMonth:      "Month",
	fieldYear:       "Year",
}

var (
	titleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	focusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#3A9A6E"))
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type field struct {
	key   fieldKey
	input textinput.Model
}

// Model implements the Bubble Tea entry form.
type Model struct {
	submitter Submitter
	resolver  VolumeResolver
	scheme    weights.Scheme

	fields []field
	focus  int
	errs   map[fieldKey]string

	status    string
	statusErr bool
	saved     int

	width  int
	height int
}

// NewModel constructs an entry form prefilled with period p. Under the juz
// scheme the verse count field is replaced by the resolver.
func NewModel(submitter Submitter, resolver VolumeResolver, scheme weights.Scheme, p model.Period) *Model {
	m := &Model{
		submitter: submitter,
		resolver:  resolver,
		scheme:    scheme,
		errs:      map[fieldKey]string{},
	}
	keys := []fieldKey{fieldName}
	if scheme != weights.SchemeJuz {
		keys = append(keys, fieldVerses)
	}
	keys = append(keys, fieldCategory, fieldJuz, fieldAttendance, fieldSubmission,
		fieldReview, fieldRecitation, fieldWeek, fieldMonth, fieldYear)
	for _, k := range keys {
		m.fields = append(m.fields, field{key: k, input: newInput()})
	}
	m.setValue(fieldCategory, string(model.CategoryShort))
	m.setValue(fieldWeek, strconv.Itoa(p.Week))
	m.setValue(fieldMonth, p.Month)
	m.setValue(fieldYear, strconv.Itoa(p.Year))
	m.setFocus(0)
	return m
}

func newInput() textinput.Model {
	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 64
	input.Width = 32
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

// Saved returns the number of records stored through the form.
func (m *Model) Saved() int {
	return m.saved
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyTab, tea.KeyDown:
			return m, m.setFocus(m.focus + 1)
		case tea.KeyShiftTab, tea.KeyUp:
			return m, m.setFocus(m.focus - 1)
		case tea.KeyEnter:
			return m, m.save()
		}
		var cmd tea.Cmd
		m.fields[m.focus].input, cmd = m.fields[m.focus].input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	labelWidth := 0
	for _, f := range m.fields {
		labelWidth = max(labelWidth, lipgloss.Width(fieldPrompts[f.key]))
	}
	lines := []string{titleStyle.Render("Weekly memorization record"), ""}
	for i, f := range m.fields {
		label := fieldPrompts[f.key]
		label += strings.Repeat(" ", labelWidth-lipgloss.Width(label))
		marker := "  "
		style := labelStyle
		if i == m.focus {
			marker = "> "
			style = focusStyle
		}
		lines = append(lines, marker+style.Render(label)+"  "+f.input.View())
		if msg, ok := m.errs[f.key]; ok {
			lines = append(lines, strings.Repeat(" ", labelWidth+4)+errorStyle.Render(msg))
		}
	}
	if m.scheme == weights.SchemeJuz {
		lines = append(lines, "", labelStyle.Render("Verse count is computed from the selected juz."))
	}
	if m.status != "" {
		lines = append(lines, "")
		style := successStyle
		if m.statusErr {
			style = errorStyle
		}
		for _, line := range wrapText(m.status, m.width) {
			lines = append(lines, style.Render(line))
		}
	}
	lines = append(lines, "", footerStyle.Render(fmt.Sprintf("tab/shift+tab: move  enter: save  esc: quit  saved: %d", m.saved)))
	return strings.Join(lines, "\n")
}

func (m *Model) setFocus(idx int) tea.Cmd {
	count := len(m.fields)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.focus = idx
	var cmd tea.Cmd
	for i := range m.fields {
		if i == m.focus {
			cmd = m.fields[i].input.Focus()
		} else {
			m.fields[i].input.Blur()
		}
	}
	return cmd
}

func (m *Model) fieldIndex(k fieldKey) int {
	for i, f := range m.fields {
		if f.key == k {
			return i
		}
	}
	return -1
}

func (m *Model) value(k fieldKey) string {
	idx := m.fieldIndex(k)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(m.fields[idx].input.Value())
}

func (m *Model) setValue(k fieldKey, v string) {
	if idx := m.fieldIndex(k); idx >= 0 {
		m.fields[idx].input.SetValue(v)
	}
}

func (m *Model) save() tea.Cmd {
	rec, ok := m.parse()
	if !ok {
		m.status = "Fix the highlighted fields."
		m.statusErr = true
		return nil
	}
	if m.resolver != nil {
		if err := m.resolver.ResolveVolume(&rec); err != nil {
			m.errs[fieldJuz] = err.Error()
			m.status = "Fix the highlighted fields."
			m.statusErr = true
			return nil
		}
	}
	saved, err := m.submitter.Submit(context.Background(), rec)
	if err != nil {
		m.statusErr = true
		if errors.Is(err, model.ErrInvalidRecord) {
			m.status = err.Error()
		} else {
			m.status = fmt.Sprintf("failed to save record: %v", err)
		}
		return nil
	}
	m.saved++
	m.statusErr = false
	m.status = fmt.Sprintf("Saved %s for %s (verses %s, total fluency %.2f).",
		saved.Name, saved.Period, strconv.FormatFloat(saved.VerseCount, 'f', -1, 64), saved.TotalFluency)
	m.clear()
	return m.setFocus(0)
}

// parse reads every field into a record and records per-field errors.
func (m *Model) parse() (model.WeeklyRecord, bool) {
	m.errs = map[fieldKey]string{}
	rec := model.WeeklyRecord{Name: m.value(fieldName)}
	if rec.Name == "" {
		m.errs[fieldName] = "name is required"
	}
	if m.fieldIndex(fieldVerses) >= 0 {
		v, err := strconv.ParseFloat(m.value(fieldVerses), 64)
		if err != nil || v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			m.errs[fieldVerses] = "enter a non-negative number"
		}
		rec.VerseCount = v
	}
	category, err := model.ParseCategory(m.value(fieldCategory))
	if err != nil {
		m.errs[fieldCategory] = err.Error()
	}
	rec.Category = category
	juz, err := parseJuz(m.value(fieldJuz))
	if err != nil {
		m.errs[fieldJuz] = err.Error()
	}
	rec.Juz = juz
	rec.Attendance = m.parseInt(fieldAttendance, 0, 3)
	rec.SubmissionFluency = m.parseInt(fieldSubmission, 0, 100)
	rec.ReviewFluency = m.parseInt(fieldReview, 0, 100)
	rec.RecitationFluency = m.parseInt(fieldRecitation, 0, 100)
	rec.Period.Week = m.parseInt(fieldWeek, 1, 5)
	month, err := model.ParseMonth(m.value(fieldMonth))
	if err != nil {
		m.errs[fieldMonth] = err.Error()
	}
	rec.Period.Month = month
	rec.Period.Year = m.parseInt(fieldYear, 2000, 2100)
	return rec, len(m.errs) == 0
}

func (m *Model) parseInt(k fieldKey, lo, hi int) int {
	v, err := strconv.Atoi(m.value(k))
	if err != nil || v < lo || v > hi {
		m.errs[k] = fmt.Sprintf("enter a whole number %d-%d", lo, hi)
	}
	return v
}

// clear resets the per-student fields and keeps the period.
func (m *Model) clear() {
	for i := range m.fields {
		switch m.fields[i].key {
		case fieldWeek, fieldMonth, fieldYear:
			continue
		case fieldCategory:
			m.fields[i].input.SetValue(string(model.CategoryShort))
		default:
			m.fields[i].input.SetValue("")
		}
	}
	m.errs = map[fieldKey]string{}
}

func parseJuz(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 30 {
			return nil, fmt.Errorf("juz must be numbers 1-30, got %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}
