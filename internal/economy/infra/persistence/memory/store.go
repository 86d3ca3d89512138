package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"Polis/internal/economy/app"
	"Polis/internal/economy/domain"
	"Polis/modules/kit/errx"
)

type state struct {
	cities    map[string]domain.City
	buildings map[string]domain.Building
	entries   map[string]domain.QueueEntry
}

func newState() *state {
	return &state{
		cities:    make(map[string]domain.City),
		buildings: make(map[string]domain.Building),
		entries:   make(map[string]domain.QueueEntry),
	}
}

func (st *state) clone() *state {
	out := newState()
	for k, v := range st.cities {
		out.cities[k] = v
	}
	for k, v := range st.buildings {
		out.buildings[k] = v
	}
	for k, v := range st.entries {
		if v.CompletedAt != nil {
			t := *v.CompletedAt
			v.CompletedAt = &t
		}
		out.entries[k] = v
	}
	return out
}

// Store 是进程内实现。事务持有全局锁串行执行，失败时整体恢复到事务前的快照。
type Store struct {
	mu   *sync.Mutex
	st   **state
	inTx bool
}

var _ app.Store = (*Store)(nil)

func NewStore() *Store {
	st := newState()
	return &Store{mu: &sync.Mutex{}, st: &st}
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *Store) data() *state {
	return *s.st
}

func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context, tx app.Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data().clone()
	tx := &Store{mu: s.mu, st: s.st, inTx: true}
	if err := fn(ctx, tx); err != nil {
		*s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) GetCity(ctx context.Context, cityID string) (*domain.City, error) {
	defer s.lock()()
	c, ok := s.data().cities[cityID]
	if !ok {
		return nil, domain.ErrCityNotFound.WithData("city_id", cityID)
	}
	return &c, nil
}

func (s *Store) LockCity(ctx context.Context, cityID string) (*domain.City, error) {
	if !s.inTx {
		return nil, errx.ErrInternal.WithData("op", "LockCity outside transaction")
	}
	return s.GetCity(ctx, cityID)
}

func (s *Store) ListCityIDs(ctx context.Context) ([]string, error) {
	defer s.lock()()
	ids := make([]string, 0, len(s.data().cities))
	for id := range s.data().cities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) ListCitiesByOwner(ctx context.Context, ownerID string) ([]domain.City, error) {
	defer s.lock()()
	var out []domain.City
	for _, c := range s.data().cities {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateCity(ctx context.Context, c *domain.City) error {
	defer s.lock()()
	if _, ok := s.data().cities[c.ID]; ok {
		return errx.ErrConflict.WithData("city_id", c.ID)
	}
	s.data().cities[c.ID] = *c
	return nil
}

func (s *Store) SaveCity(ctx context.Context, c *domain.City) error {
	defer s.lock()()
	if _, ok := s.data().cities[c.ID]; !ok {
		return domain.ErrCityNotFound.WithData("city_id", c.ID)
	}
	s.data().cities[c.ID] = *c
	return nil
}

func (s *Store) SaveAccrual(ctx context.Context, c *domain.City, prev domain.AccrualBasis) (bool, error) {
	defer s.lock()()
	cur, ok := s.data().cities[c.ID]
	if !ok || !prev.Matches(&cur) {
		return false, nil
	}
	cur.Wood, cur.Stone, cur.Silver = c.Wood, c.Stone, c.Silver
	cur.LastResourceUpdate = c.LastResourceUpdate
	s.data().cities[c.ID] = cur
	return true, nil
}

func (s *Store) ListBuildings(ctx context.Context, cityID string) ([]domain.Building, error) {
	defer s.lock()()
	var out []domain.Building
	for _, b := range s.data().buildings {
		if b.CityID == cityID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

// SaveBuilding 按 id 覆盖；同城同类型已有另一座时报冲突，对应数据库的唯一索引。
func (s *Store) SaveBuilding(ctx context.Context, b *domain.Building) error {
	defer s.lock()()
	for id, cur := range s.data().buildings {
		if id != b.ID && cur.CityID == b.CityID && cur.Type == b.Type {
			return errx.ErrConflict.WithDataMap(map[string]any{"city_id": b.CityID, "building_type": string(b.Type)})
		}
	}
	s.data().buildings[b.ID] = *b
	return nil
}

func (s *Store) InsertEntry(ctx context.Context, e *domain.QueueEntry) error {
	defer s.lock()()
	if _, ok := s.data().entries[e.ID]; ok {
		return errx.ErrConflict.WithData("entry_id", e.ID)
	}
	s.data().entries[e.ID] = *e
	return nil
}

func (s *Store) ListOpenEntries(ctx context.Context, cityID string) ([]domain.QueueEntry, error) {
	return s.filterEntries(func(e domain.QueueEntry) bool {
		return e.CityID == cityID && e.Open()
	}), nil
}

func (s *Store) ListOpenEntriesByCities(ctx context.Context, cityIDs []string) ([]domain.QueueEntry, error) {
	want := make(map[string]struct{}, len(cityIDs))
	for _, id := range cityIDs {
		want[id] = struct{}{}
	}
	return s.filterEntries(func(e domain.QueueEntry) bool {
		_, ok := want[e.CityID]
		return ok && e.Open()
	}), nil
}

func (s *Store) ListDueEntries(ctx context.Context, now time.Time) ([]domain.QueueEntry, error) {
	out := s.filterEntries(func(e domain.QueueEntry) bool {
		return e.Due(now)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletesAt.Before(out[j].CompletesAt) })
	return out, nil
}

func (s *Store) ListCompletedSince(ctx context.Context, cityID string, since time.Time) ([]domain.QueueEntry, error) {
	return s.filterEntries(func(e domain.QueueEntry) bool {
		return e.CityID == cityID && e.Status == domain.StatusCompleted &&
			e.CompletedAt != nil && !e.CompletedAt.Before(since)
	}), nil
}

func (s *Store) TransitionEntry(ctx context.Context, e *domain.QueueEntry, from domain.Status) (bool, error) {
	defer s.lock()()
	cur, ok := s.data().entries[e.ID]
	if !ok || cur.Status != from {
		return false, nil
	}
	cur.Status = e.Status
	cur.StartedAt = e.StartedAt
	cur.CompletesAt = e.CompletesAt
	cur.CompletedAt = e.CompletedAt
	s.data().entries[e.ID] = cur
	return true, nil
}

// Entry 按 id 读取队列项，测试断言用。
func (s *Store) Entry(id string) (domain.QueueEntry, bool) {
	defer s.lock()()
	e, ok := s.data().entries[id]
	return e, ok
}

func (s *Store) filterEntries(keep func(domain.QueueEntry) bool) []domain.QueueEntry {
	defer s.lock()()
	var out []domain.QueueEntry
	for _, e := range s.data().entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	domain.SortQueue(out)
	return out
}
