package mongodb

import (
	"context"
	"errors"
	"time"

	"Polis/internal/economy/app"
	"Polis/internal/economy/app/model"
	"Polis/modules/kit/errx"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const defaultTickCollectionName = "tick_runs"

const (
	OpRecordTick  = "repo.tick.Record"
	OpRecentTicks = "repo.tick.Recent"
)

var errNilCollection = errors.New("mongodb tick collection is nil")

// tickDoc 是 tick_runs 集合的文档，_id 取 snowflake 运行编号，天然按时间有序。
type tickDoc struct {
	RunID              int64     `bson:"_id"`
	Trigger            string    `bson:"trigger"`
	Now                time.Time `bson:"now"`
	BuildingsFinalized int       `bson:"buildings_finalized"`
	CitiesUpdated      int       `bson:"cities_updated"`
	CitiesScanned      int       `bson:"cities_scanned"`
	Failures           int       `bson:"failures"`
	ElapsedMs          int64     `bson:"elapsed_ms"`
}

func toDoc(r model.TickReport) tickDoc {
	return tickDoc{
		RunID:              r.RunID,
		Trigger:            string(r.Trigger),
		Now:                r.Now.UTC(),
		BuildingsFinalized: r.BuildingsFinalized,
		CitiesUpdated:      r.CitiesUpdated,
		CitiesScanned:      r.CitiesScanned,
		Failures:           r.Failures,
		ElapsedMs:          r.Elapsed.Milliseconds(),
	}
}

func fromDoc(d tickDoc) model.TickReport {
	return model.TickReport{
		RunID:              d.RunID,
		Trigger:            model.Trigger(d.Trigger),
		Now:                d.Now.UTC(),
		BuildingsFinalized: d.BuildingsFinalized,
		CitiesUpdated:      d.CitiesUpdated,
		CitiesScanned:      d.CitiesScanned,
		Failures:           d.Failures,
		Elapsed:            time.Duration(d.ElapsedMs) * time.Millisecond,
	}
}

type TickJournal struct {
	coll *mongo.Collection
}

var _ app.TickJournal = (*TickJournal)(nil)

func NewTickJournal(db *mongo.Database) *TickJournal {
	if db == nil {
		return &TickJournal{}
	}
	return &TickJournal{coll: db.Collection(defaultTickCollectionName)}
}

func (j *TickJournal) Record(ctx context.Context, r model.TickReport) error {
	if j == nil || j.coll == nil {
		return errx.ErrUnavailable.WithData("op", OpRecordTick).WithCause(errNilCollection)
	}
	doc := toDoc(r)
	_, err := j.coll.ReplaceOne(ctx, bson.M{"_id": doc.RunID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return errx.ErrUnavailable.WithDataMap(map[string]any{"op": OpRecordTick, "run_id": r.RunID}).WithCause(err)
	}
	return nil
}

func (j *TickJournal) Recent(ctx context.Context, limit int) ([]model.TickReport, error) {
	if j == nil || j.coll == nil {
		return nil, errx.ErrUnavailable.WithData("op", OpRecentTicks).WithCause(errNilCollection)
	}
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(limit))
	cur, err := j.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errx.ErrUnavailable.WithData("op", OpRecentTicks).WithCause(err)
	}
	var docs []tickDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errx.ErrUnavailable.WithData("op", OpRecentTicks).WithCause(err)
	}
	out := make([]model.TickReport, 0, len(docs))
	for _, d := range docs {
		out = append(out, fromDoc(d))
	}
	return out, nil
}
