package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
)

const (
	defaultMongoDatabase = "hafalan"
	recordsCollection    = "weekly_records"
	mongoPingTimeout     = 5 * time.Second
)

// Mongo stores records as documents keyed by DocKey.
type Mongo struct {
	client  *mongo.Client
	records *mongo.Collection
	mode    KeyMode
}

type recordDocument struct {
	ID                 string `bson:"_id"`
	model.WeeklyRecord `bson:",inline"`
}

type periodGroup struct {
	ID    model.Period `bson:"_id"`
	Count int          `bson:"count"`
}

// OpenMongo connects to uri and prepares the records collection.
func OpenMongo(ctx context.Context, uri, database string, mode KeyMode) (*Mongo, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo store requires a connection uri")
	}
	if database == "" {
		database = defaultMongoDatabase
	}
	if mode == "" {
		mode = KeyByPeriod
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, mongoPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		if derr := client.Disconnect(ctx); derr != nil {
			// Best-effort disconnect on ping failure.
			_ = derr
		}
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	m := &Mongo{
		client:  client,
		records: client.Database(database).Collection(recordsCollection),
		mode:    mode,
	}
	if _, err := m.records.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: periodIndexKeys()}); err != nil {
		if derr := client.Disconnect(ctx); derr != nil {
			// Best-effort disconnect on index failure.
			_ = derr
		}
		return nil, fmt.Errorf("failed to create period index: %w", err)
	}
	return m, nil
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

// UpsertRecord replaces the document with the same key, inserting it if absent.
func (m *Mongo) UpsertRecord(ctx context.Context, rec model.WeeklyRecord) error {
	doc := newRecordDocument(m.mode, rec)
	opts := options.Replace().SetUpsert(true)
	if _, err := m.records.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return fmt.Errorf("failed to upsert record %q: %w", rec.Name, err)
	}
	return nil
}

// FetchPeriod returns the records of p ordered by name.
func (m *Mongo) FetchPeriod(ctx context.Context, p model.Period) ([]model.WeeklyRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.records.Find(ctx, periodFilter(p), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	var docs []recordDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode records: %w", err)
	}
	records := make([]model.WeeklyRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.WeeklyRecord)
	}
	return records, nil
}

// ListPeriods returns every stored period with its record count.
func (m *Mongo) ListPeriods(ctx context.Context) ([]model.PeriodCount, error) {
	cur, err := m.records.Aggregate(ctx, periodPipeline())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate periods: %w", err)
	}
	var groups []periodGroup
	if err := cur.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode periods: %w", err)
	}
	periods := make([]model.PeriodCount, 0, len(groups))
	for _, g := range groups {
		periods = append(periods, model.PeriodCount{Period: g.ID, Count: g.Count})
	}
	sortPeriods(periods)
	return periods, nil
}

func newRecordDocument(mode KeyMode, rec model.WeeklyRecord) recordDocument {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	return recordDocument{ID: DocKey(mode, rec), WeeklyRecord: rec}
}

func periodFilter(p model.Period) bson.D {
	return bson.D{
		{Key: "period.week", Value: p.Week},
		{Key: "period.month", Value: p.Month},
		{Key: "period.year", Value: p.Year},
	}
}

func periodIndexKeys() bson.D {
	return bson.D{
		{Key: "period.year", Value: 1},
		{Key: "period.month", Value: 1},
		{Key: "period.week", Value: 1},
	}
}

func periodPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$period"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}
