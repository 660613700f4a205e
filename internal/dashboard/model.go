// Package dashboard provides the Bubble Tea segmentation dashboard.
package dashboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/report"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/segment"
)

const (
	tabOverview = iota
	tabRecords
	tabScatter
)

const (
	plotHeight   = 12
	defaultWidth = 80
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3A9A6E"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0B040"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Source produces the segmentation of a period.
type Source interface {
	Segment(ctx context.Context, p model.Period) (report.Result, error)
}

// Model implements the Bubble Tea dashboard.
type Model struct {
	source   Source
	period   model.Period
	guardian bool

	result report.Result
	notice string
	errMsg string

	tabs      []string
	activeTab int
	viewports []viewport.Model
	records   table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a dashboard for period p. Guardian mode hides the staff
// columns.
func NewModel(source Source, p model.Period, guardian bool) *Model {
	m := &Model{
		source:   source,
		period:   p,
		guardian: guardian,
		tabs:     []string{"Overview", "Records", "Scatter"},
	}
	m.initInputs()
	m.records = buildRecordTable(nil, guardian, defaultWidth, 10)
	m.initViewports()
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		if m.activeTab == tabRecords {
			m.records.Focus()
		} else {
			m.records.Blur()
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "r":
			m.refresh()
			m.updateLayout()
			return m, nil
		case "/":
			return m.startFilter()
		case "g", "home":
			if m.activeTab == tabRecords {
				m.records.GotoTop()
			} else {
				m.viewports[m.activeTab].GotoTop()
			}
			return m, nil
		case "G", "end":
			if m.activeTab == tabRecords {
				m.records.GotoBottom()
			} else {
				m.viewports[m.activeTab].GotoBottom()
			}
			return m, nil
		default:
			if m.activeTab == tabRecords {
				var cmd tea.Cmd
				m.records, cmd = m.records.Update(msg)
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(bodyHeight), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) initViewports() {
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Week (1-5): "),
		newFilterInput("Month: "),
		newFilterInput("Year: "),
	}
	m.setInputsFromPeriod()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.CharLimit = 0
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) setInputsFromPeriod() {
	m.filterInputs[0].SetValue(strconv.Itoa(m.period.Week))
	m.filterInputs[1].SetValue(m.period.Month)
	m.filterInputs[2].SetValue(strconv.Itoa(m.period.Year))
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if !m.filterMode && m.errMsg != "" {
		footerHeight++
	}
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, vpHeight, _ := m.layoutHeights()
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = vpHeight
	}
	m.records.SetWidth(m.width)
	m.records.SetHeight(maxInt(1, vpHeight-1))
	for i := range m.filterInputs {
		promptWidth := lipgloss.Width(m.filterInputs[i].Prompt)
		m.filterInputs[i].Width = maxInt(10, m.width-promptWidth-2)
	}
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabRecords {
		m.records.Focus()
	} else {
		m.records.Blur()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	view := "staff"
	if m.guardian {
		view = "guardian"
	}
	summary := fmt.Sprintf("Period: %s  records=%d  view=%s", m.period, len(m.result.Records), view)
	if m.result.Cached {
		summary += "  (cached)"
	}
	return tabs + "\n" + padLines(headerStyle.Render(truncateLine(summary, m.width)), m.width)
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Period: /  Reload: r  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Period (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody(height int) string {
	if m.filterMode {
		return fitLines(m.renderFilterForm(), m.width, height)
	}
	if m.notice != "" {
		return fitLines(noticeStyle.Render(m.notice), m.width, height)
	}
	if m.activeTab == tabRecords {
		if len(m.result.Records) == 0 {
			return fitLines("No records found.", m.width, height)
		}
		return fitLines(tableMutedStyle.Render(m.records.View()), m.width, height)
	}
	return fitLines(m.viewports[m.activeTab].View(), m.width, height)
}

func (m *Model) refresh() {
	m.notice = ""
	m.errMsg = ""
	res, err := m.source.Segment(context.Background(), m.period)
	switch {
	case errors.Is(err, segment.ErrInsufficientData):
		m.result = report.Result{Period: m.period}
		m.notice = fmt.Sprintf("Not enough records to segment %s yet (need at least %d).", m.period, segment.MinRecords)
	case err != nil:
		m.result = report.Result{Period: m.period}
		m.errMsg = err.Error()
	default:
		m.result = res
	}
	cols, rows := buildRecordTableData(m.result.Records, m.guardian)
	m.records.SetRows(nil)
	m.records.SetColumns(cols)
	m.records.SetRows(rows)
	m.records.GotoTop()
	m.renderTabContents()
}

func (m *Model) renderTabContents() {
	if m.errMsg != "" {
		for i := range m.viewports {
			m.viewports[i].SetContent("Failed to load segmentation.")
		}
		return
	}
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}
	m.viewports[tabOverview].SetContent(renderOverview(m.result, width))
	m.viewports[tabScatter].SetContent(renderScatter(m.result.Records, width))
}

func renderOverview(res report.Result, width int) string {
	if len(res.Records) == 0 {
		return "No records found."
	}
	cards := make([]string, 0, len(res.Summary)+1)
	cards = append(cards, metricCard("Students", strconv.Itoa(len(res.Records))))
	for _, st := range report.BuildTierStats(res.Records, res.Summary) {
		cards = append(cards, metricCard(string(st.Tier), fmt.Sprintf("%d (%.0f%%)", st.Count, st.Share*100)))
	}
	var summary string
	if width < 80 {
		summary = strings.Join(cards, "\n")
	} else {
		summary = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	var buf bytes.Buffer
	if err := report.RenderDistribution(&buf, res.Summary); err != nil {
		return fmt.Sprintf("Failed to render distribution: %v", err)
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderScatter(records []model.SegmentedRecord, width int) string {
	if len(records) == 0 {
		return "No records found."
	}
	var buf bytes.Buffer
	if err := report.RenderScatter(&buf, records, width, plotHeight, true); err != nil {
		return fmt.Sprintf("Failed to render scatter: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func buildRecordTable(records []model.SegmentedRecord, guardian bool, width, height int) table.Model {
	cols, rows := buildRecordTableData(records, guardian)
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, height-1)),
	)
	t.SetWidth(width)
	t.SetStyles(recordTableStyles())
	return t
}

func buildRecordTableData(records []model.SegmentedRecord, guardian bool) ([]table.Column, []table.Row) {
	if guardian {
		cols := []table.Column{
			{Title: "Name", Width: 24},
			{Title: "Juz", Width: 12},
			{Title: "Attendance", Width: 10},
			{Title: "Tier", Width: 18},
		}
		rows := make([]table.Row, 0, len(records))
		for _, r := range records {
			rows = append(rows, table.Row{r.Name, report.FormatJuz(r.Juz), strconv.Itoa(r.Attendance), string(r.Tier)})
		}
		return cols, rows
	}
	cols := []table.Column{
		{Title: "Name", Width: 20},
		{Title: "Verses", Width: 7},
		{Title: "Category", Width: 8},
		{Title: "Weighted", Width: 9},
		{Title: "Attend.", Width: 7},
		{Title: "Fluency", Width: 7},
		{Title: "Tier", Width: 18},
	}
	rows := make([]table.Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, table.Row{
			r.Name,
			strconv.FormatFloat(r.VerseCount, 'f', -1, 64),
			string(r.Category),
			fmt.Sprintf("%.2f", r.WeightedVolume),
			strconv.Itoa(r.Attendance),
			fmt.Sprintf("%.2f", r.TotalFluency),
			string(r.Tier),
		})
	}
	return cols, rows
}

func recordTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

func (m *Model) startFilter() (tea.Model, tea.Cmd) {
	m.filterMode = true
	m.filterError = ""
	m.setInputsFromPeriod()
	return m, m.setFilterIndex(0)
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return m, nil
	case tea.KeyEnter:
		p, err := m.parseFilter()
		if err != nil {
			m.filterError = err.Error()
			return m, nil
		}
		m.period = p
		m.filterMode = false
		m.filterError = ""
		m.refresh()
		m.updateLayout()
		return m, nil
	case tea.KeyTab:
		return m, m.setFilterIndex(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m, m.setFilterIndex(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return m, cmd
}

func (m *Model) setFilterIndex(idx int) tea.Cmd {
	count := len(m.filterInputs)
	if idx < 0 {
		idx = count - 1
	}
	if idx >= count {
		idx = 0
	}
	m.filterIndex = idx
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i == m.filterIndex {
			cmd = m.filterInputs[i].Focus()
		} else {
			m.filterInputs[i].Blur()
		}
	}
	return cmd
}

func (m *Model) parseFilter() (model.Period, error) {
	week, err := strconv.Atoi(strings.TrimSpace(m.filterInputs[0].Value()))
	if err != nil || week < 1 || week > 5 {
		return model.Period{}, fmt.Errorf("invalid week (use 1-5)")
	}
	month, err := model.ParseMonth(m.filterInputs[1].Value())
	if err != nil {
		return model.Period{}, err
	}
	year, err := strconv.Atoi(strings.TrimSpace(m.filterInputs[2].Value()))
	if err != nil || year < 2000 || year > 2100 {
		return model.Period{}, fmt.Errorf("invalid year (use 2000-2100)")
	}
	return model.Period{Week: week, Month: month, Year: year}, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
