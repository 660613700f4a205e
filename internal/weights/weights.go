// Package weights holds the difficulty weight table for memorization volume.
package weights

import (
	"errors"
	"fmt"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
)

var (
	// ErrUndefinedCategory is returned for a category missing from the table.
	ErrUndefinedCategory = errors.New("undefined verse category")
	// ErrUnknownJuz is returned for a juz number outside 1-30.
	ErrUnknownJuz = errors.New("unknown juz")
)

// Scheme selects how the raw verse count of a record is entered.
type Scheme string

const (
	// SchemeCategory takes the verse count as typed by staff.
	SchemeCategory Scheme = "category"
	// SchemeJuz derives the verse count from the selected juz.
	SchemeJuz Scheme = "juz"
)

// ParseScheme validates a scheme name. Empty means SchemeCategory.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case "", SchemeCategory:
		return SchemeCategory, nil
	case SchemeJuz:
		return SchemeJuz, nil
	default:
		return "", fmt.Errorf("unknown weight scheme %q (use category or juz)", s)
	}
}

// Difficulty is the difficulty tier of a juz.
type Difficulty string

const (
	Easy   Difficulty = "Mudah"
	Medium Difficulty = "Sedang"
	Hard   Difficulty = "Sulit"
)

// JuzEntry describes one juz.
type JuzEntry struct {
	Difficulty Difficulty
	Verses     int
}

var difficultyWeights = map[Difficulty]float64{
	Easy:   1.0,
	Medium: 1.5,
	Hard:   2.0,
}

var defaultJuz = [30]JuzEntry{
	{Hard, 148}, {Medium, 111}, {Medium, 126}, {Medium, 131}, {Medium, 123},
	{Medium, 110}, {Medium, 149}, {Medium, 142}, {Medium, 159}, {Medium, 127},
	{Medium, 151}, {Medium, 170}, {Medium, 154}, {Hard, 227}, {Medium, 185},
	{Medium, 269}, {Medium, 190}, {Medium, 202}, {Hard, 339}, {Medium, 171},
	{Medium, 178}, {Medium, 169}, {Hard, 357}, {Medium, 175}, {Hard, 246},
	{Medium, 195}, {Hard, 399}, {Medium, 137}, {Hard, 431}, {Easy, 564},
}

// Table maps verse categories and juz to difficulty multipliers.
type Table struct {
	Scheme     Scheme
	categories map[model.Category]float64
	juz        [30]JuzEntry
}

// Default returns the standard table: Short=1.0, Medium=1.5, Long=2.0.
func Default() *Table {
	return &Table{
		Scheme: SchemeCategory,
		categories: map[model.Category]float64{
			model.CategoryShort:  1.0,
			model.CategoryMedium: 1.5,
			model.CategoryLong:   2.0,
		},
		juz: defaultJuz,
	}
}

// SetWeight overrides the multiplier of a category.
func (t *Table) SetWeight(c model.Category, w float64) error {
	if w <= 0 {
		return fmt.Errorf("weight for %s must be > 0", c)
	}
	t.categories[c] = w
	return nil
}

// Weight returns the multiplier of a category.
func (t *Table) Weight(c model.Category) (float64, error) {
	w, ok := t.categories[c]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUndefinedCategory, c)
	}
	return w, nil
}

// Juz returns the entry for a juz number.
func (t *Table) Juz(n int) (JuzEntry, error) {
	if n < 1 || n > len(t.juz) {
		return JuzEntry{}, fmt.Errorf("%w: %d", ErrUnknownJuz, n)
	}
	return t.juz[n-1], nil
}

// JuzVolume sums the verse counts of the given juz, each multiplied by its
// difficulty weight.
func (t *Table) JuzVolume(juz []int) (float64, error) {
	var total float64
	for _, n := range juz {
		entry, err := t.Juz(n)
		if err != nil {
			return 0, err
		}
		total += float64(entry.Verses) * difficultyWeights[entry.Difficulty]
	}
	return total, nil
}

// ResolveVolume fills the verse count of rec from its juz list when the table
// uses SchemeJuz. Under SchemeCategory rec is left untouched.
func (t *Table) ResolveVolume(rec *model.WeeklyRecord) error {
	if t.Scheme != SchemeJuz {
		return nil
	}
	if len(rec.Juz) == 0 {
		return fmt.Errorf("%w: no juz selected", ErrUnknownJuz)
	}
	volume, err := t.JuzVolume(rec.Juz)
	if err != nil {
		return err
	}
	rec.VerseCount = volume
	return nil
}
