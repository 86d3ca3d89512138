package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"Polis/internal/economy/app/model"
	"Polis/modules/kit/errx"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestTickDoc_字段映射(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.FixedZone("CST", 8*3600))
	r := model.TickReport{
		RunID: 42, Trigger: model.TriggerScheduler, Now: now,
		BuildingsFinalized: 3, CitiesUpdated: 7, CitiesScanned: 9, Failures: 1,
		Elapsed: 1500 * time.Millisecond,
	}
	raw, err := bson.Marshal(toDoc(r))
	if err != nil {
		t.Fatalf("bson.Marshal err=%v", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		t.Fatalf("bson.Unmarshal err=%v", err)
	}
	if m["_id"] != int64(42) || m["elapsed_ms"] != int64(1500) || m["trigger"] != "scheduler" {
		t.Fatalf("期望 _id/elapsed_ms/trigger 字段, got=%v", m)
	}

	var d tickDoc
	if err := bson.Unmarshal(raw, &d); err != nil {
		t.Fatalf("bson.Unmarshal err=%v", err)
	}
	back := fromDoc(d)
	if back.Now.Location() != time.UTC || !back.Now.Equal(now) || back.Elapsed != r.Elapsed || back.CitiesScanned != 9 {
		t.Fatalf("期望还原为 UTC 且数值一致, got=%+v", back)
	}
}

func TestTickJournal_未配置集合时返回系统错误(t *testing.T) {
	j := NewTickJournal(nil)
	if err := j.Record(context.Background(), model.TickReport{RunID: 1}); !errors.Is(err, errx.ErrUnavailable) {
		t.Fatalf("期望 ErrUnavailable, got=%v", err)
	}
	if _, err := j.Recent(context.Background(), 5); !errors.Is(err, errNilCollection) {
		t.Fatalf("期望保留 cause, got=%v", err)
	}
}
