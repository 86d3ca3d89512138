package app_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"Polis/internal/economy/app"
	"Polis/internal/economy/app/model"
	"Polis/internal/economy/domain"
	"Polis/internal/economy/infra/persistence/memory"
	"Polis/internal/shared/gameconfig/building"
	"Polis/modules/kit/logx"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	events []model.Event
}

func (n *recordingNotifier) Publish(ctx context.Context, ev model.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) Events() []model.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]model.Event(nil), n.events...)
}

type memJournal struct {
	mu      sync.Mutex
	records []model.TickReport
}

func (j *memJournal) Record(ctx context.Context, r model.TickReport) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.records = append(j.records, r)
	return nil
}

func (j *memJournal) Recent(ctx context.Context, limit int) ([]model.TickReport, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]model.TickReport(nil), j.records...), nil
}

type fixture struct {
	store   *memory.Store
	econ    *app.EconomyService
	ticks   *app.TickService
	notes   *recordingNotifier
	journal *memJournal
	now     time.Time
	seq     atomic.Int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), notes: &recordingNotifier{}, journal: &memJournal{}, now: t0}
	ids := func() string { return fmt.Sprintf("id-%04d", f.seq.Add(1)) }
	settings := app.DefaultSettings()
	f.ticks = app.NewTickService(f.store, building.Default(), settings, logx.Nop(),
		app.WithNotifier(f.notes), app.WithJournal(f.journal), app.WithTickIDGen(ids))
	f.econ = app.NewEconomyService(f.store, building.Default(), settings, logx.Nop(), f.ticks,
		app.WithClock(func() time.Time { return f.now }), app.WithIDGen(ids))
	return f
}

// addCity 建一座城市，bs 里的建筑按 type:level 给出。
func (f *fixture) addCity(t *testing.T, owner string, bal domain.Resources, levels map[building.Type]int) *domain.City {
	t.Helper()
	ctx := context.Background()
	c := &domain.City{
		ID:                 fmt.Sprintf("city-%04d", f.seq.Add(1)),
		OwnerID:            owner,
		Name:               owner + "-city",
		PopulationCapacity: 100,
		LastResourceUpdate: f.now,
	}
	c.SetBalance(bal)
	if err := f.store.CreateCity(ctx, c); err != nil {
		t.Fatalf("CreateCity err=%v", err)
	}
	for typ, lv := range levels {
		b := &domain.Building{ID: fmt.Sprintf("b-%s-%s", c.ID, typ), CityID: c.ID, Type: typ, Level: lv}
		if err := f.store.SaveBuilding(ctx, b); err != nil {
			t.Fatalf("SaveBuilding err=%v", err)
		}
	}
	return c
}

func (f *fixture) mustCity(t *testing.T, id string) *domain.City {
	t.Helper()
	c, err := f.store.GetCity(context.Background(), id)
	if err != nil {
		t.Fatalf("GetCity err=%v", err)
	}
	return c
}

func (f *fixture) mustEntry(t *testing.T, id string) domain.QueueEntry {
	t.Helper()
	e, ok := f.store.Entry(id)
	if !ok {
		t.Fatalf("队列项 %s 不存在", id)
	}
	return e
}

func (f *fixture) buildings(t *testing.T, cityID string) []domain.Building {
	t.Helper()
	bs, err := f.store.ListBuildings(context.Background(), cityID)
	if err != nil {
		t.Fatalf("ListBuildings err=%v", err)
	}
	return bs
}
