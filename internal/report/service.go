package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/cache"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/segment"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/store"
)

// Result is the segmentation of one period.
type Result struct {
	Period  model.Period
	Records []model.SegmentedRecord
	Summary []model.TierCount
	Cached  bool
}

// Service ties the record store, the cache and the segmenter together.
type Service struct {
	Store     store.RecordStore
	Cache     cache.SegmentCache
	Segmenter segment.Segmenter
	KeyMode   store.KeyMode
	Logger    logrus.FieldLogger
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Service) segmentCache() cache.SegmentCache {
	if s.Cache == nil {
		return cache.Noop{}
	}
	return s.Cache
}

func (s *Service) logger() logrus.FieldLogger {
	if s.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return s.Logger
}

// Submit validates rec, recomputes its total fluency and upserts it.
func (s *Service) Submit(ctx context.Context, rec model.WeeklyRecord) (model.WeeklyRecord, error) {
	rec.Normalize()
	if err := model.ValidateRecord(rec); err != nil {
		return rec, err
	}
	rec.UpdatedAt = s.now()
	if err := s.Store.UpsertRecord(ctx, rec); err != nil {
		return rec, fmt.Errorf("failed to save record: %w", err)
	}
	log := s.logger().WithFields(logrus.Fields{"name": rec.Name, "period": rec.Period.String()})
	log.Debug("record saved")

	var err error
	if s.KeyMode == store.KeyByName {
		err = s.segmentCache().InvalidateAll(ctx)
	} else {
		err = s.segmentCache().Invalidate(ctx, rec.Period)
	}
	if err != nil {
		log.WithError(err).Warn("failed to invalidate segmentation cache")
	}
	return rec, nil
}

// Records returns a snapshot of the records of p.
func (s *Service) Records(ctx context.Context, p model.Period) ([]model.WeeklyRecord, error) {
	records, err := s.Store.FetchPeriod(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}
	return records, nil
}

// Periods lists stored periods with their record counts.
func (s *Service) Periods(ctx context.Context) ([]model.PeriodCount, error) {
	periods, err := s.Store.ListPeriods(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	return periods, nil
}

// Segment segments the records of p. A period with fewer than two records
// yields segment.ErrInsufficientData. Cached results are only reused for the
// same segmenter fingerprint.
func (s *Service) Segment(ctx context.Context, p model.Period) (Result, error) {
	fingerprint := s.Segmenter.Fingerprint()
	log := s.logger().WithFields(logrus.Fields{"period": p.String(), "fingerprint": fingerprint})
	c := s.segmentCache()
	if cached, ok, err := c.Get(ctx, fingerprint, p); err != nil {
		log.WithError(err).Warn("failed to read segmentation cache")
	} else if ok {
		log.Debug("segmentation cache hit")
		return Result{Period: p, Records: cached, Summary: segment.Summarize(cached), Cached: true}, nil
	}

	records, err := s.Records(ctx, p)
	if err != nil {
		return Result{}, err
	}
	segmented, err := s.Segmenter.Segment(records)
	if err != nil {
		return Result{Period: p}, err
	}
	log.WithField("records", len(segmented)).Info("period segmented")
	if err := c.Set(ctx, fingerprint, p, segmented); err != nil {
		log.WithError(err).Warn("failed to write segmentation cache")
	}
	return Result{Period: p, Records: segmented, Summary: segment.Summarize(segmented)}, nil
}
