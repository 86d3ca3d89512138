package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"Polis/internal/economy/app/model"
	levelstore "Polis/internal/economy/infra/persistence/leveldb"
	"Polis/internal/shared/serverconfig"
)

func TestOpenJournal_未配置时不记录(t *testing.T) {
	j, closeFn, err := OpenJournal(serverconfig.Config{}, nil)
	if err != nil || j != nil {
		t.Fatalf("期望返回 nil journal, got=%v err=%v", j, err)
	}
	closeFn()
}

func TestOpenJournal_配置leveldb路径时落本地(t *testing.T) {
	cfg := serverconfig.Config{LevelDB: serverconfig.LevelDBConfig{Path: filepath.Join(t.TempDir(), "ticks")}}
	j, closeFn, err := OpenJournal(cfg, nil)
	if err != nil {
		t.Fatalf("OpenJournal err=%v", err)
	}
	defer closeFn()
	if _, ok := j.(*levelstore.TickJournal); !ok {
		t.Fatalf("期望 leveldb 实现, got=%T", j)
	}
	if err := j.Record(context.Background(), model.TickReport{RunID: 1}); err != nil {
		t.Fatalf("Record err=%v", err)
	}
	got, err := j.Recent(context.Background(), 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("期望读回 1 条, got=%v err=%v", got, err)
	}
}
