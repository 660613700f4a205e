// Package model defines shared data structures.
package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Category is the verse-length category of a submission.
type Category string

const (
	CategoryShort  Category = "Short"
	CategoryMedium Category = "Medium"
	CategoryLong   Category = "Long"
)

// Categories lists the categories in form order.
var Categories = []Category{CategoryShort, CategoryMedium, CategoryLong}

// ParseCategory accepts English or Indonesian category names.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short", "pendek":
		return CategoryShort, nil
	case "medium", "sedang":
		return CategoryMedium, nil
	case "long", "panjang":
		return CategoryLong, nil
	default:
		return "", fmt.Errorf("unknown verse category %q (use short, medium or long)", s)
	}
}

// Months holds the canonical month names used in period keys.
var Months = []string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

var englishMonths = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// ParseMonth accepts an Indonesian or English month name or a number 1-12
// and returns the canonical month name.
func ParseMonth(s string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return "", fmt.Errorf("month must not be empty")
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n < 1 || n > 12 {
			return "", fmt.Errorf("month %d out of range 1-12", n)
		}
		return Months[n-1], nil
	}
	for i, m := range Months {
		if strings.ToLower(m) == v || englishMonths[i] == v {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown month %q", s)
}

// Period identifies a weekly reporting period.
type Period struct {
	Week  int    `json:"week" bson:"week" validate:"min=1,max=5"`
	Month string `json:"month" bson:"month" validate:"required,month"`
	Year  int    `json:"year" bson:"year" validate:"min=2000,max=2100"`
}

// String renders the period the way staff read it.
func (p Period) String() string {
	return fmt.Sprintf("Minggu ke-%d %s %d", p.Week, p.Month, p.Year)
}

// CurrentPeriod returns the period containing t.
func CurrentPeriod(t time.Time) Period {
	return Period{
		Week:  (t.Day()-1)/7 + 1,
		Month: Months[int(t.Month())-1],
		Year:  t.Year(),
	}
}

// PeriodCount pairs a period with the number of stored records.
type PeriodCount struct {
	Period Period
	Count  int
}

// WeeklyRecord is one student's submission for one period.
type WeeklyRecord struct {
	Name              string    `json:"name" bson:"name" validate:"notblank"`
	VerseCount        float64   `json:"verse_count" bson:"verse_count" validate:"finite,min=0"`
	Category          Category  `json:"category" bson:"category" validate:"required,oneof=Short Medium Long"`
	Juz               []int     `json:"juz,omitempty" bson:"juz,omitempty" validate:"dive,min=1,max=30"`
	Attendance        int       `json:"attendance" bson:"attendance" validate:"min=0,max=3"`
	SubmissionFluency int       `json:"submission_fluency" bson:"submission_fluency" validate:"min=0,max=100"`
	ReviewFluency     int       `json:"review_fluency" bson:"review_fluency" validate:"min=0,max=100"`
	RecitationFluency int       `json:"recitation_fluency" bson:"recitation_fluency" validate:"min=0,max=100"`
	TotalFluency      float64   `json:"total_fluency" bson:"total_fluency"`
	Period            Period    `json:"period" bson:"period"`
	UpdatedAt         time.Time `json:"updated_at" bson:"updated_at"`
}

// Normalize recomputes derived fields. Total fluency is never taken from input.
func (r *WeeklyRecord) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.TotalFluency = TotalFluency(r.SubmissionFluency, r.ReviewFluency, r.RecitationFluency)
}

// TotalFluency is the mean of the three fluency scores rounded to 2 decimals.
func TotalFluency(submission, review, recitation int) float64 {
	mean := float64(submission+review+recitation) / 3
	return math.Round(mean*100) / 100
}

// Tier is the label attached to a segmented group.
type Tier string

const (
	TierFast   Tier = "Fast & Consistent"
	TierGood   Tier = "Good Enough"
	TierGuided Tier = "Needs Guidance"
)

// Tiers lists the labels by rank, best first.
var Tiers = []Tier{TierFast, TierGood, TierGuided}

// SegmentedRecord is a record enriched with its segmentation result.
type SegmentedRecord struct {
	WeeklyRecord   `bson:",inline"`
	WeightedVolume float64 `json:"weighted_volume" bson:"weighted_volume"`
	Cluster        int     `json:"cluster" bson:"cluster"`
	Tier           Tier    `json:"tier" bson:"tier"`
}

// TierCount is the number of records carrying a tier.
type TierCount struct {
	Tier  Tier
	Count int
}
