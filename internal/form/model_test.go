package form

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/weights"
)

var testPeriod = model.Period{Week: 2, Month: "Maret", Year: 2025}

type fakeSubmitter struct {
	records []model.WeeklyRecord
	err     error
}

func (f *fakeSubmitter) Submit(_ context.Context, rec model.WeeklyRecord) (model.WeeklyRecord, error) {
	if f.err != nil {
		return rec, f.err
	}
	rec.Normalize()
	f.records = append(f.records, rec)
	return rec, nil
}

func fill(m *Model, values map[fieldKey]string) {
	for k, v := range values {
		m.setValue(k, v)
	}
}

func validValues() map[fieldKey]string {
	return map[fieldKey]string{
		fieldName:       "Ahmad",
		fieldVerses:     "12",
		fieldCategory:   "sedang",
		fieldJuz:        "29, 30",
		fieldAttendance: "3",
		fieldSubmission: "80",
		fieldReview:     "90",
		fieldRecitation: "100",
	}
}

func enter(m *Model) {
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

func TestSaveSubmitsAndClears(t *testing.T) {
	sub := &fakeSubmitter{}
	m := NewModel(sub, weights.Default(), weights.SchemeCategory, testPeriod)
	fill(m, validValues())
	enter(m)

	if len(sub.records) != 1 {
		t.Fatalf("expected one submitted record, status %q errs %v", m.status, m.errs)
	}
	rec := sub.records[0]
	if rec.Name != "Ahmad" || rec.VerseCount != 12 || rec.Category != model.CategoryMedium {
		t.Fatalf("unexpected record %+v", rec)
	}
	if len(rec.Juz) != 2 || rec.Juz[0] != 29 || rec.Juz[1] != 30 {
		t.Fatalf("unexpected juz %v", rec.Juz)
	}
	if rec.Period != testPeriod || rec.TotalFluency != 90 {
		t.Fatalf("unexpected period or fluency %+v", rec)
	}
	if m.statusErr || !strings.Contains(m.status, "Saved Ahmad") {
		t.Fatalf("expected success status, got %q", m.status)
	}
	if m.value(fieldName) != "" || m.value(fieldJuz) != "" || m.value(fieldCategory) != "Short" {
		t.Fatalf("expected student fields to be cleared")
	}
	if m.value(fieldWeek) != "2" || m.value(fieldMonth) != "Maret" || m.value(fieldYear) != "2025" {
		t.Fatalf("expected period to be kept")
	}
	if m.focus != 0 || m.Saved() != 1 {
		t.Fatalf("expected focus reset and saved count, got %d / %d", m.focus, m.Saved())
	}
}

func TestSaveShowsFieldErrors(t *testing.T) {
	sub := &fakeSubmitter{}
	m := NewModel(sub, weights.Default(), weights.SchemeCategory, testPeriod)
	values := validValues()
	values[fieldName] = "  "
	values[fieldAttendance] = "4"
	values[fieldJuz] = "31"
	values[fieldCategory] = "huge"
	fill(m, values)
	enter(m)

	if len(sub.records) != 0 {
		t.Fatalf("invalid input must not be submitted")
	}
	for _, k := range []fieldKey{fieldName, fieldAttendance, fieldJuz, fieldCategory} {
		if _, ok := m.errs[k]; !ok {
			t.Fatalf("expected error for %s, got %v", fieldPrompts[k], m.errs)
		}
	}
	if !m.statusErr {
		t.Fatalf("expected error status")
	}
	out := m.View()
	if !strings.Contains(out, "enter a whole number 0-3") {
		t.Fatalf("expected inline attendance error:\n%s", out)
	}
	if m.value(fieldSubmission) != "80" {
		t.Fatalf("fields must be kept after a failed save")
	}
}

func TestSaveRejectsNonFiniteVerses(t *testing.T) {
	for _, verses := range []string{"Inf", "+Inf", "-Inf", "NaN", "1e400"} {
		sub := &fakeSubmitter{}
		m := NewModel(sub, weights.Default(), weights.SchemeCategory, testPeriod)
		values := validValues()
		values[fieldVerses] = verses
		fill(m, values)
		enter(m)

		if len(sub.records) != 0 {
			t.Fatalf("verse count %q must not be submitted", verses)
		}
		if _, ok := m.errs[fieldVerses]; !ok {
			t.Fatalf("expected verse count error for %q, got %v", verses, m.errs)
		}
	}
}

func TestSaveReportsSubmitError(t *testing.T) {
	sub := &fakeSubmitter{err: fmt.Errorf("%w: name cannot be blank", model.ErrInvalidRecord)}
	m := NewModel(sub, weights.Default(), weights.SchemeCategory, testPeriod)
	fill(m, validValues())
	enter(m)
	if !m.statusErr || !strings.Contains(m.status, "invalid record") {
		t.Fatalf("expected validation status, got %q", m.status)
	}
	if m.value(fieldName) != "Ahmad" {
		t.Fatalf("fields must be kept after a failed save")
	}
}

func TestJuzSchemeComputesVolume(t *testing.T) {
	sub := &fakeSubmitter{}
	table := weights.Default()
	table.Scheme = weights.SchemeJuz
	m := NewModel(sub, table, weights.SchemeJuz, testPeriod)
	if m.fieldIndex(fieldVerses) != -1 {
		t.Fatalf("verse count field must be hidden under the juz scheme")
	}
	values := validValues()
	values[fieldJuz] = "30"
	fill(m, values)
	enter(m)
	if len(sub.records) != 1 || sub.records[0].VerseCount != 564 {
		t.Fatalf("expected juz volume 564, got %+v (status %q)", sub.records, m.status)
	}

	fill(m, validValues())
	m.setValue(fieldJuz, "")
	enter(m)
	if len(sub.records) != 1 {
		t.Fatalf("record without juz must not be submitted")
	}
	if _, ok := m.errs[fieldJuz]; !ok {
		t.Fatalf("expected juz error, got %v", m.errs)
	}
}

func TestFocusWraps(t *testing.T) {
	m := NewModel(&fakeSubmitter{}, nil, weights.SchemeCategory, testPeriod)
	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.focus != len(m.fields)-1 {
		t.Fatalf("expected focus on last field, got %d", m.focus)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != 0 {
		t.Fatalf("expected focus on first field, got %d", m.focus)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Zaid")})
	if m.value(fieldName) != "Zaid" {
		t.Fatalf("expected typed name, got %q", m.value(fieldName))
	}
}

func TestWrapText(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  []string
	}{
		{"short", 10, []string{"short"}},
		{"aaa bbb ccc", 7, []string{"aaa", "bbb ccc"}},
		{"abcdefgh", 3, []string{"abc", "def", "gh"}},
		{"any", 0, []string{"any"}},
	}
	for _, tc := range cases {
		got := wrapText(tc.in, tc.width)
		if strings.Join(got, "|") != strings.Join(tc.want, "|") {
			t.Fatalf("wrapText(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}
