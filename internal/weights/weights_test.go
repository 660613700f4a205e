package weights

import (
	"errors"
	"testing"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
)

func TestDefaultWeights(t *testing.T) {
	table := Default()
	for c, want := range map[model.Category]float64{
		model.CategoryShort:  1.0,
		model.CategoryMedium: 1.5,
		model.CategoryLong:   2.0,
	} {
		got, err := table.Weight(c)
		if err != nil {
			t.Fatalf("Weight(%s): %v", c, err)
		}
		if got != want {
			t.Fatalf("Weight(%s) = %v, want %v", c, got, want)
		}
	}
	if _, err := table.Weight("Huge"); !errors.Is(err, ErrUndefinedCategory) {
		t.Fatalf("expected ErrUndefinedCategory, got %v", err)
	}
}

func TestSetWeight(t *testing.T) {
	table := Default()
	if err := table.SetWeight(model.CategoryLong, 3); err != nil {
		t.Fatalf("SetWeight: %v", err)
	}
	if got, _ := table.Weight(model.CategoryLong); got != 3 {
		t.Fatalf("expected overridden weight 3, got %v", got)
	}
	if err := table.SetWeight(model.CategoryShort, 0); err == nil {
		t.Fatalf("expected error for non-positive weight")
	}
}

func TestJuzVolume(t *testing.T) {
	table := Default()
	// juz 1: hard 148 -> 296, juz 2: medium 111 -> 166.5, juz 30: easy 564 -> 564
	got, err := table.JuzVolume([]int{1, 2, 30})
	if err != nil {
		t.Fatalf("JuzVolume: %v", err)
	}
	if got != 296+166.5+564 {
		t.Fatalf("unexpected juz volume %v", got)
	}
	if got, _ := table.JuzVolume(nil); got != 0 {
		t.Fatalf("expected zero volume for no juz, got %v", got)
	}
	if _, err := table.JuzVolume([]int{0}); !errors.Is(err, ErrUnknownJuz) {
		t.Fatalf("expected ErrUnknownJuz, got %v", err)
	}
}

func TestParseScheme(t *testing.T) {
	if s, err := ParseScheme(""); err != nil || s != SchemeCategory {
		t.Fatalf("expected default category scheme, got %q %v", s, err)
	}
	if s, err := ParseScheme("juz"); err != nil || s != SchemeJuz {
		t.Fatalf("expected juz scheme, got %q %v", s, err)
	}
	if _, err := ParseScheme("surah"); err == nil {
		t.Fatalf("expected error for unknown scheme")
	}
}

func TestResolveVolume(t *testing.T) {
	table := Default()
	rec := model.WeeklyRecord{VerseCount: 7, Juz: []int{30}}
	if err := table.ResolveVolume(&rec); err != nil || rec.VerseCount != 7 {
		t.Fatalf("category scheme must keep verse count, got %v / %v", rec.VerseCount, err)
	}

	table.Scheme = SchemeJuz
	if err := table.ResolveVolume(&rec); err != nil {
		t.Fatalf("ResolveVolume: %v", err)
	}
	if rec.VerseCount != 564 {
		t.Fatalf("expected juz 30 volume 564, got %v", rec.VerseCount)
	}
	empty := model.WeeklyRecord{}
	if err := table.ResolveVolume(&empty); !errors.Is(err, ErrUnknownJuz) {
		t.Fatalf("expected ErrUnknownJuz without juz, got %v", err)
	}
}
