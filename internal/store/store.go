// Package store persists weekly records per period.
package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
)

// RecordStore is the persistence boundary for weekly records.
type RecordStore interface {
	// FetchPeriod returns a snapshot of every record of the period, ordered by name.
	FetchPeriod(ctx context.Context, p model.Period) ([]model.WeeklyRecord, error)
	// UpsertRecord inserts the record or replaces the one with the same key.
	UpsertRecord(ctx context.Context, rec model.WeeklyRecord) error
	// ListPeriods returns every period with its record count, newest first.
	ListPeriods(ctx context.Context) ([]model.PeriodCount, error)
	Close() error
}

// KeyMode decides which records replace each other on upsert.
type KeyMode string

const (
	// KeyByPeriod keys a record by name, week, month and year.
	KeyByPeriod KeyMode = "period"
	// KeyByName keys a record by name only. A later submission for the same
	// name overwrites the earlier one even when it belongs to another period,
	// so a student only ever appears in the period of their latest submission.
	KeyByName KeyMode = "name"
)

// ParseKeyMode validates a key mode. Empty means KeyByPeriod.
func ParseKeyMode(s string) (KeyMode, error) {
	switch KeyMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeyByPeriod:
		return KeyByPeriod, nil
	case KeyByName:
		return KeyByName, nil
	default:
		return "", fmt.Errorf("unknown key mode %q (use period or name)", s)
	}
}

// DocKey returns the storage key of a record under the given mode.
func DocKey(mode KeyMode, rec model.WeeklyRecord) string {
	name := strings.TrimSpace(rec.Name)
	if mode == KeyByName {
		return name
	}
	return strings.Join([]string{
		name,
		strconv.Itoa(rec.Period.Week),
		rec.Period.Month,
		strconv.Itoa(rec.Period.Year),
	}, "|")
}

// Driver names a storage backend.
type Driver string

const (
	DriverSQLite Driver = "sqlite"
	DriverMongo  Driver = "mongo"
)

// Config selects and configures a backend.
type Config struct {
	Driver        Driver
	Path          string
	MongoURI      string
	MongoDatabase string
	KeyMode       KeyMode
}

// Open opens the configured backend.
func Open(ctx context.Context, cfg Config) (RecordStore, error) {
	switch cfg.Driver {
	case "", DriverSQLite:
		return OpenSQLite(cfg.Path, cfg.KeyMode)
	case DriverMongo:
		return OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.KeyMode)
	default:
		return nil, fmt.Errorf("unknown store driver %q (use sqlite or mongo)", cfg.Driver)
	}
}

func monthIndex(month string) int {
	for i, m := range model.Months {
		if m == month {
			return i
		}
	}
	return -1
}

// sortPeriods orders periods newest first.
func sortPeriods(periods []model.PeriodCount) {
	sort.SliceStable(periods, func(i, j int) bool {
		a, b := periods[i].Period, periods[j].Period
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if ma, mb := monthIndex(a.Month), monthIndex(b.Month); ma != mb {
			return ma > mb
		}
		return a.Week > b.Week
	})
}
