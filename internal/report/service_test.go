package report

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/segment"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/store"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/weights"
)

type cacheKey struct {
	fingerprint string
	period      model.Period
}

type memoryCache struct {
	entries        map[cacheKey][]model.SegmentedRecord
	invalidated    []model.Period
	invalidatedAll int
	gets           int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[cacheKey][]model.SegmentedRecord{}}
}

func (c *memoryCache) Get(_ context.Context, fingerprint string, p model.Period) ([]model.SegmentedRecord, bool, error) {
	c.gets++
	records, ok := c.entries[cacheKey{fingerprint, p}]
	return records, ok, nil
}

func (c *memoryCache) Set(_ context.Context, fingerprint string, p model.Period, records []model.SegmentedRecord) error {
	c.entries[cacheKey{fingerprint, p}] = records
	return nil
}

func (c *memoryCache) Invalidate(_ context.Context, p model.Period) error {
	c.invalidated = append(c.invalidated, p)
	for k := range c.entries {
		if k.period == p {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *memoryCache) InvalidateAll(context.Context) error {
	c.invalidatedAll++
	c.entries = map[cacheKey][]model.SegmentedRecord{}
	return nil
}

func (c *memoryCache) Close() error { return nil }

func newTestService(t *testing.T, mode store.KeyMode) (*Service, *memoryCache) {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "hafalan.db"), mode)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	c := newMemoryCache()
	return &Service{
		Store:     st,
		Cache:     c,
		Segmenter: segment.Segmenter{Weights: weights.Default(), Options: segment.DefaultOptions()},
		KeyMode:   mode,
		Now:       func() time.Time { return time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC) },
	}, c
}

func input(name string, verses float64, attendance, fluency int) model.WeeklyRecord {
	return model.WeeklyRecord{
		Name:              name,
		VerseCount:        verses,
		Category:          model.CategoryMedium,
		Attendance:        attendance,
		SubmissionFluency: fluency,
		ReviewFluency:     fluency,
		RecitationFluency: fluency,
		TotalFluency:      1,
		Period:            testPeriod,
	}
}

func TestServiceSubmitNormalizesAndInvalidates(t *testing.T) {
	svc, c := newTestService(t, store.KeyByPeriod)
	ctx := context.Background()

	saved, err := svc.Submit(ctx, input(" Ahmad ", 10, 3, 80))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if saved.Name != "Ahmad" || saved.TotalFluency != 80 {
		t.Fatalf("expected normalized record, got %+v", saved)
	}
	if len(c.invalidated) != 1 || c.invalidated[0] != testPeriod || c.invalidatedAll != 0 {
		t.Fatalf("expected period invalidation, got %+v / %d", c.invalidated, c.invalidatedAll)
	}
	records, err := svc.Records(ctx, testPeriod)
	if err != nil {
		t.Fatalf("Records: %v", err)
	}
	if len(records) != 1 || records[0].TotalFluency != 80 || !records[0].UpdatedAt.Equal(svc.Now()) {
		t.Fatalf("unexpected stored records %+v", records)
	}
}

func TestServiceSubmitRejectsInvalid(t *testing.T) {
	svc, c := newTestService(t, store.KeyByPeriod)
	bad := input("Ahmad", 10, 5, 80)
	if _, err := svc.Submit(context.Background(), bad); !errors.Is(err, model.ErrInvalidRecord) {
		t.Fatalf("expected ErrInvalidRecord, got %v", err)
	}
	if len(c.invalidated) != 0 {
		t.Fatalf("expected no invalidation for rejected input")
	}
}

func TestServiceSubmitByNameInvalidatesAll(t *testing.T) {
	svc, c := newTestService(t, store.KeyByName)
	if _, err := svc.Submit(context.Background(), input("Ahmad", 10, 3, 80)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if c.invalidatedAll != 1 || len(c.invalidated) != 0 {
		t.Fatalf("expected full invalidation in name mode, got %d / %+v", c.invalidatedAll, c.invalidated)
	}
}

func TestServiceSegment(t *testing.T) {
	svc, c := newTestService(t, store.KeyByPeriod)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, input("Ahmad", 10, 3, 80)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Segment(ctx, testPeriod); !errors.Is(err, segment.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	for _, rec := range []model.WeeklyRecord{
		input("Budi", 300, 3, 90),
		input("Citra", 320, 3, 92),
		input("Dewi", 150, 2, 75),
	} {
		if _, err := svc.Submit(ctx, rec); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	res, err := svc.Segment(ctx, testPeriod)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if res.Cached || len(res.Records) != 4 {
		t.Fatalf("unexpected result %+v", res)
	}
	total := 0
	for _, tc := range res.Summary {
		total += tc.Count
	}
	if total != 4 {
		t.Fatalf("expected summary to cover 4 records, got %d", total)
	}
	if res.Records[0].Name != "Ahmad" || res.Records[0].Tier != model.TierGuided {
		t.Fatalf("expected Ahmad to need guidance, got %+v", res.Records[0])
	}
	if res.Records[0].WeightedVolume != 15 {
		t.Fatalf("expected medium weighting, got %v", res.Records[0].WeightedVolume)
	}

	again, err := svc.Segment(ctx, testPeriod)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if !again.Cached || len(again.Records) != 4 {
		t.Fatalf("expected cached result, got %+v", again)
	}
	if c.gets != 3 {
		t.Fatalf("expected 3 cache lookups, got %d", c.gets)
	}
}

func TestServiceWithoutCacheOrLogger(t *testing.T) {
	svc, _ := newTestService(t, store.KeyByPeriod)
	svc.Cache = nil
	ctx := context.Background()
	for _, rec := range []model.WeeklyRecord{input("A", 1, 1, 50), input("B", 100, 3, 90)} {
		if _, err := svc.Submit(ctx, rec); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	res, err := svc.Segment(ctx, testPeriod)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if res.Cached {
		t.Fatalf("expected uncached result")
	}
	periods, err := svc.Periods(ctx)
	if err != nil {
		t.Fatalf("Periods: %v", err)
	}
	if len(periods) != 1 || periods[0].Count != 2 {
		t.Fatalf("unexpected periods %+v", periods)
	}
}

func TestServiceSegmentCacheFollowsConfiguration(t *testing.T) {
	svc, c := newTestService(t, store.KeyByPeriod)
	ctx := context.Background()
	for _, rec := range []model.WeeklyRecord{
		{Name: "A", VerseCount: 100, Category: model.CategoryShort, Attendance: 3, SubmissionFluency: 80, ReviewFluency: 80, RecitationFluency: 80, Period: testPeriod},
		{Name: "B", VerseCount: 60, Category: model.CategoryLong, Attendance: 3, SubmissionFluency: 80, ReviewFluency: 80, RecitationFluency: 80, Period: testPeriod},
		{Name: "C", VerseCount: 10, Category: model.CategoryShort, Attendance: 3, SubmissionFluency: 80, ReviewFluency: 80, RecitationFluency: 80, Period: testPeriod},
	} {
		if _, err := svc.Submit(ctx, rec); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	first, err := svc.Segment(ctx, testPeriod)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if first.Records[1].WeightedVolume != 120 {
		t.Fatalf("expected long weighting for B, got %v", first.Records[1].WeightedVolume)
	}

	table := weights.Default()
	if err := table.SetWeight(model.CategoryLong, 1); err != nil {
		t.Fatalf("SetWeight: %v", err)
	}
	svc.Segmenter.Weights = table
	second, err := svc.Segment(ctx, testPeriod)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if second.Cached {
		t.Fatalf("result cached under other weights must not be reused")
	}
	if second.Records[1].WeightedVolume != 60 {
		t.Fatalf("expected B weighted with the new table, got %v", second.Records[1].WeightedVolume)
	}

	svc.Segmenter.Options.Seed = 7
	third, err := svc.Segment(ctx, testPeriod)
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if third.Cached {
		t.Fatalf("result cached under another seed must not be reused")
	}
	if len(c.entries) != 3 {
		t.Fatalf("expected one cache entry per configuration, got %d", len(c.entries))
	}

	if _, err := svc.Submit(ctx, input("D", 5, 1, 40)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(c.entries) != 0 {
		t.Fatalf("expected submit to drop the period under every configuration, got %d", len(c.entries))
	}
}
