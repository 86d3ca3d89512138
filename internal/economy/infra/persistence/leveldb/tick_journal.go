package leveldb

import (
	"context"
	"encoding/binary"
	"encoding/json"

	"Polis/internal/economy/app"
	"Polis/internal/economy/app/model"
	"Polis/modules/kit/errx"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

const (
	OpRecordTick  = "repo.tick.Record"
	OpRecentTicks = "repo.tick.Recent"
)

var tickPrefix = []byte("tick/")

// TickJournal 把 tick 结果写进本地 leveldb，键是 "tick/" 加大端序的运行编号，
// 按键逆序遍历即为最近的若干次。
type TickJournal struct {
	*leveldb.DB
}

var _ app.TickJournal = (*TickJournal)(nil)

func OpenTickJournal(path string) (*TickJournal, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errx.ErrUnavailable.WithData("path", path).WithCause(err)
	}
	return &TickJournal{DB: db}, nil
}

// NewTickJournal 用给定的 storage 打开，测试里传 storage.NewMemStorage()。
func NewTickJournal(stor storage.Storage) (*TickJournal, error) {
	db, err := leveldb.Open(stor, nil)
	if err != nil {
		return nil, errx.ErrUnavailable.WithCause(err)
	}
	return &TickJournal{DB: db}, nil
}

func tickKey(runID int64) []byte {
	k := make([]byte, len(tickPrefix)+8)
	copy(k, tickPrefix)
	binary.BigEndian.PutUint64(k[len(tickPrefix):], uint64(runID))
	return k
}

func (j *TickJournal) Record(ctx context.Context, r model.TickReport) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return errx.ErrInternal.WithData("op", OpRecordTick).WithCause(err)
	}
	if err := j.Put(tickKey(r.RunID), raw, nil); err != nil {
		return errx.ErrUnavailable.WithDataMap(map[string]any{"op": OpRecordTick, "run_id": r.RunID}).WithCause(err)
	}
	return nil
}

func (j *TickJournal) Recent(ctx context.Context, limit int) ([]model.TickReport, error) {
	if limit <= 0 {
		limit = 20
	}
	it := j.NewIterator(util.BytesPrefix(tickPrefix), nil)
	defer it.Release()

	out := make([]model.TickReport, 0, limit)
	for ok := it.Last(); ok && len(out) < limit; ok = it.Prev() {
		if err := ctx.Err(); err != nil {
			return nil, errx.ErrTimeout.WithData("op", OpRecentTicks).WithCause(err)
		}
		var r model.TickReport
		if err := json.Unmarshal(it.Value(), &r); err != nil {
			return nil, errx.ErrInternal.WithDataMap(map[string]any{"op": OpRecentTicks, "key": string(it.Key())}).WithCause(err)
		}
		out = append(out, r)
	}
	if err := it.Error(); err != nil {
		return nil, errx.ErrUnavailable.WithData("op", OpRecentTicks).WithCause(err)
	}
	return out, nil
}
