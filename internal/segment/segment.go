// Package segment groups the students of one period into ranked tiers.
package segment

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
)

// ErrInsufficientData is returned when a period has too few records to
// segment.
var ErrInsufficientData = errors.New("insufficient data for segmentation")

const (
	// MinRecords is the smallest record count Segment accepts.
	MinRecords = 2

	defaultSeed     = 42
	defaultRestarts = 10
	defaultMaxIter  = 300
)

// Options tunes the k-means run. Zero values fall back to the defaults.
type Options struct {
	Seed     int64
	Restarts int
	MaxIter  int
}

// DefaultOptions returns seed 42, 10 restarts and 300 iterations.
func DefaultOptions() Options {
	return Options{Seed: defaultSeed, Restarts: defaultRestarts, MaxIter: defaultMaxIter}
}

func (o Options) withDefaults() Options {
	if o.Restarts <= 0 {
		o.Restarts = defaultRestarts
	}
	if o.MaxIter <= 0 {
		o.MaxIter = defaultMaxIter
	}
	return o
}

// Weighter resolves the difficulty multiplier of a category.
type Weighter interface {
	Weight(model.Category) (float64, error)
}

// WeightedVolume is the raw verse count scaled by its difficulty weight.
func WeightedVolume(raw, weight float64) float64 {
	return raw * weight
}

// Segmenter assigns every record of a period to one of the tiers.
type Segmenter struct {
	Weights Weighter
	Options Options
}

// Fingerprint identifies the configuration that determines Segment's output:
// the category weights followed by seed, restarts and iteration limit.
// Segmentations with different fingerprints must not be reused for each other.
func (s Segmenter) Fingerprint() string {
	parts := make([]string, 0, len(model.Categories)+3)
	for _, c := range model.Categories {
		w, err := s.Weights.Weight(c)
		if err != nil {
			parts = append(parts, "x")
			continue
		}
		parts = append(parts, strconv.FormatFloat(w, 'g', -1, 64))
	}
	opts := s.Options.withDefaults()
	parts = append(parts,
		strconv.FormatInt(opts.Seed, 10),
		strconv.Itoa(opts.Restarts),
		strconv.Itoa(opts.MaxIter),
	)
	return strings.Join(parts, "|")
}

// Segment computes weighted volume for each record, clusters the records on
// standardized (weighted volume, total fluency, attendance) and labels the
// clusters by mean weighted volume, highest first. The output keeps the input
// order and every input field.
func (s Segmenter) Segment(records []model.WeeklyRecord) ([]model.SegmentedRecord, error) {
	if len(records) < MinRecords {
		return nil, fmt.Errorf("%w: %d record(s), need at least %d", ErrInsufficientData, len(records), MinRecords)
	}

	out := make([]model.SegmentedRecord, len(records))
	features := make([][]float64, len(records))
	for i, rec := range records {
		w, err := s.Weights.Weight(rec.Category)
		if err != nil {
			return nil, fmt.Errorf("failed to weight record %q: %w", rec.Name, err)
		}
		wv := WeightedVolume(rec.VerseCount, w)
		out[i] = model.SegmentedRecord{WeeklyRecord: rec, WeightedVolume: wv}
		features[i] = []float64{wv, rec.TotalFluency, float64(rec.Attendance)}
	}

	k := len(model.Tiers)
	fit := NewKMeans(k, s.Options).Fit(Standardize(features))
	tiers := rankClusters(out, fit.Labels, k)
	for i := range out {
		out[i].Cluster = fit.Labels[i]
		out[i].Tier = tiers[fit.Labels[i]]
	}
	return out, nil
}

// rankClusters maps cluster ids to tiers by mean weighted volume, descending,
// lower id first on ties. The lowest non-empty cluster always gets the last
// tier; empty clusters take the tiers left in between, so with only two
// occupied clusters the middle tier stays empty. A single occupied cluster
// gets the first tier.
func rankClusters(records []model.SegmentedRecord, labels []int, k int) []model.Tier {
	sums := make([]float64, k)
	counts := make([]int, k)
	for i, rec := range records {
		sums[labels[i]] += rec.WeightedVolume
		counts[labels[i]]++
	}
	var occupied, empty []int
	for id := 0; id < k; id++ {
		if counts[id] == 0 {
			empty = append(empty, id)
			continue
		}
		occupied = append(occupied, id)
	}
	sort.SliceStable(occupied, func(a, b int) bool {
		return sums[occupied[a]]/float64(counts[occupied[a]]) > sums[occupied[b]]/float64(counts[occupied[b]])
	})
	order := append([]int{}, occupied...)
	if n := len(occupied); n > 1 {
		order = append(append(order[:n-1:n-1], empty...), occupied[n-1])
	} else {
		order = append(order, empty...)
	}
	tiers := make([]model.Tier, k)
	for rank, id := range order {
		tiers[id] = model.Tiers[rank]
	}
	return tiers
}
