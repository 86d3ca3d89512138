package leveldb

import (
	"context"
	"testing"
	"time"

	"Polis/internal/economy/app/model"

	"github.com/syndtr/goleveldb/leveldb/storage"
)

func openMem(t *testing.T) *TickJournal {
	t.Helper()
	j, err := NewTickJournal(storage.NewMemStorage())
	if err != nil {
		t.Fatalf("NewTickJournal err=%v", err)
	}
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestTickJournal_按运行编号逆序返回最近记录(t *testing.T) {
	ctx := context.Background()
	j := openMem(t)
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	// 256 与 1 的小端字节序相反，用来确认键按大端序排列
	for _, id := range []int64{1, 256, 3, 2} {
		r := model.TickReport{RunID: id, Trigger: model.TriggerScheduler, Now: now.Add(time.Duration(id) * time.Second), CitiesScanned: int(id)}
		if err := j.Record(ctx, r); err != nil {
			t.Fatalf("Record err=%v", err)
		}
	}

	got, err := j.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent err=%v", err)
	}
	if len(got) != 3 || got[0].RunID != 256 || got[1].RunID != 3 || got[2].RunID != 2 {
		t.Fatalf("期望 256,3,2, got=%+v", got)
	}
	if got[0].CitiesScanned != 256 || !got[0].Now.Equal(now.Add(256*time.Second)) {
		t.Fatalf("期望字段原样读回, got=%+v", got[0])
	}
}

func TestTickJournal_同一编号覆盖写入(t *testing.T) {
	ctx := context.Background()
	j := openMem(t)
	_ = j.Record(ctx, model.TickReport{RunID: 7, Failures: 1})
	_ = j.Record(ctx, model.TickReport{RunID: 7, Failures: 0, BuildingsFinalized: 2})

	got, err := j.Recent(ctx, 0)
	if err != nil || len(got) != 1 {
		t.Fatalf("期望只有 1 条, got=%+v err=%v", got, err)
	}
	if got[0].BuildingsFinalized != 2 || got[0].Failures != 0 {
		t.Fatalf("期望后写入的覆盖, got=%+v", got[0])
	}
}

func TestTickJournal_空库返回空列表(t *testing.T) {
	got, err := openMem(t).Recent(context.Background(), 5)
	if err != nil || len(got) != 0 {
		t.Fatalf("期望空列表, got=%+v err=%v", got, err)
	}
}
