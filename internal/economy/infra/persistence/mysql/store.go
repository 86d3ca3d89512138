package mysql

import (
	"context"
	"errors"
	"time"

	"Polis/internal/economy/app"
	"Polis/internal/economy/domain"
	"Polis/modules/kit/errx"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	OpGetCity           = "repo.economy.GetCity"
	OpLockCity          = "repo.economy.LockCity"
	OpListCityIDs       = "repo.economy.ListCityIDs"
	OpListCitiesByOwner = "repo.economy.ListCitiesByOwner"
	OpCreateCity        = "repo.economy.CreateCity"
	OpSaveCity          = "repo.economy.SaveCity"
	OpSaveAccrual       = "repo.economy.SaveAccrual"
	OpListBuildings     = "repo.economy.ListBuildings"
	OpSaveBuilding      = "repo.economy.SaveBuilding"
	OpInsertEntry       = "repo.economy.InsertEntry"
	OpListEntries       = "repo.economy.ListEntries"
	OpTransitionEntry   = "repo.economy.TransitionEntry"
)

var openStatuses = []domain.Status{domain.StatusPending, domain.StatusInProgress}

// Store 是 gorm 实现。时间统一转成 UTC 并截到毫秒，与 datetime(3) 列一致，
// 乐观写入的等值比较才可靠。
type Store struct {
	db *gorm.DB
}

var _ app.Store = (*Store)(nil)

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// AutoMigrate 建表，只在开发环境或测试里用。
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.City{}, &domain.Building{}, &domain.QueueEntry{})
}

func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context, tx app.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, s.WithTx(tx))
	})
}

func (s *Store) GetCity(ctx context.Context, cityID string) (*domain.City, error) {
	var c domain.City
	err := s.db.WithContext(ctx).Where("id = ?", cityID).First(&c).Error
	return cityResult(&c, err, OpGetCity, cityID)
}

func (s *Store) LockCity(ctx context.Context, cityID string) (*domain.City, error) {
	var c domain.City
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", cityID).
		First(&c).Error
	return cityResult(&c, err, OpLockCity, cityID)
}

func cityResult(c *domain.City, err error, op, cityID string) (*domain.City, error) {
	switch {
	case err == nil:
		c.LastResourceUpdate = c.LastResourceUpdate.UTC()
		return c, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, domain.ErrCityNotFound.WithData("city_id", cityID)
	default:
		return nil, wrap(op, err, map[string]any{"city_id": cityID})
	}
}

func (s *Store) ListCityIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&domain.City{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, wrap(OpListCityIDs, err, nil)
	}
	return ids, nil
}

func (s *Store) ListCitiesByOwner(ctx context.Context, ownerID string) ([]domain.City, error) {
	var out []domain.City
	if err := s.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("id").Find(&out).Error; err != nil {
		return nil, wrap(OpListCitiesByOwner, err, map[string]any{"owner_id": ownerID})
	}
	for i := range out {
		out[i].LastResourceUpdate = out[i].LastResourceUpdate.UTC()
	}
	return out, nil
}

func (s *Store) CreateCity(ctx context.Context, c *domain.City) error {
	m := *c
	m.LastResourceUpdate = dbTime(m.LastResourceUpdate)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return wrap(OpCreateCity, err, map[string]any{"city_id": c.ID})
	}
	return nil
}

// SaveCity 写库存、产量、人口与结算时间，只在持有城市行锁的事务里调用。
func (s *Store) SaveCity(ctx context.Context, c *domain.City) error {
	res := s.db.WithContext(ctx).Model(&domain.City{}).Where("id = ?", c.ID).Updates(map[string]any{
		"wood":                 c.Wood,
		"stone":                c.Stone,
		"silver":               c.Silver,
		"wood_rate":            c.WoodRate,
		"stone_rate":           c.StoneRate,
		"silver_rate":          c.SilverRate,
		"population_capacity":  c.PopulationCapacity,
		"population_used":      c.PopulationUsed,
		"last_resource_update": dbTime(c.LastResourceUpdate),
	})
	if res.Error != nil {
		return wrap(OpSaveCity, res.Error, map[string]any{"city_id": c.ID})
	}
	return nil
}

func (s *Store) SaveAccrual(ctx context.Context, c *domain.City, prev domain.AccrualBasis) (bool, error) {
	res := s.db.WithContext(ctx).Model(&domain.City{}).
		Where("id = ? AND last_resource_update = ?", c.ID, dbTime(prev.At)).
		Where("wood = ? AND stone = ? AND silver = ?", prev.Balance.Wood, prev.Balance.Stone, prev.Balance.Silver).
		Where("wood_rate = ? AND stone_rate = ? AND silver_rate = ?", prev.Rates.Wood, prev.Rates.Stone, prev.Rates.Silver).
		Updates(map[string]any{
			"wood":                 c.Wood,
			"stone":                c.Stone,
			"silver":               c.Silver,
			"last_resource_update": dbTime(c.LastResourceUpdate),
		})
	if res.Error != nil {
		return false, wrap(OpSaveAccrual, res.Error, map[string]any{"city_id": c.ID})
	}
	return res.RowsAffected == 1, nil
}

func (s *Store) ListBuildings(ctx context.Context, cityID string) ([]domain.Building, error) {
	var out []domain.Building
	if err := s.db.WithContext(ctx).Where("city_id = ?", cityID).Order("type").Find(&out).Error; err != nil {
		return nil, wrap(OpListBuildings, err, map[string]any{"city_id": cityID})
	}
	return out, nil
}

func (s *Store) SaveBuilding(ctx context.Context, b *domain.Building) error {
	if err := s.db.WithContext(ctx).Save(b).Error; err != nil {
		return wrap(OpSaveBuilding, err, map[string]any{"city_id": b.CityID, "building_type": string(b.Type)})
	}
	return nil
}

func (s *Store) InsertEntry(ctx context.Context, e *domain.QueueEntry) error {
	m := normalizeEntry(*e)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return wrap(OpInsertEntry, err, map[string]any{"entry_id": e.ID, "city_id": e.CityID})
	}
	return nil
}

func (s *Store) ListOpenEntries(ctx context.Context, cityID string) ([]domain.QueueEntry, error) {
	return s.listEntries(ctx, "started_at, created_at, id",
		"city_id = ? AND status IN ?", cityID, openStatuses)
}

func (s *Store) ListOpenEntriesByCities(ctx context.Context, cityIDs []string) ([]domain.QueueEntry, error) {
	if len(cityIDs) == 0 {
		return nil, nil
	}
	return s.listEntries(ctx, "completes_at, id",
		"city_id IN ? AND status IN ?", cityIDs, openStatuses)
}

func (s *Store) ListDueEntries(ctx context.Context, now time.Time) ([]domain.QueueEntry, error) {
	return s.listEntries(ctx, "completes_at, id",
		"status = ? AND completes_at <= ?", domain.StatusInProgress, dbTime(now))
}

func (s *Store) ListCompletedSince(ctx context.Context, cityID string, since time.Time) ([]domain.QueueEntry, error) {
	return s.listEntries(ctx, "completed_at DESC, id",
		"city_id = ? AND status = ? AND completed_at >= ?", cityID, domain.StatusCompleted, dbTime(since))
}

func (s *Store) listEntries(ctx context.Context, order string, query string, args ...any) ([]domain.QueueEntry, error) {
	var out []domain.QueueEntry
	if err := s.db.WithContext(ctx).Where(query, args...).Order(order).Find(&out).Error; err != nil {
		return nil, wrap(OpListEntries, err, map[string]any{"query": query})
	}
	for i := range out {
		out[i] = utcEntry(out[i])
	}
	return out, nil
}

// TransitionEntry 以 status 为条件更新，并发 tick 里只有一个能命中。
func (s *Store) TransitionEntry(ctx context.Context, e *domain.QueueEntry, from domain.Status) (bool, error) {
	m := normalizeEntry(*e)
	res := s.db.WithContext(ctx).Model(&domain.QueueEntry{}).
		Where("id = ? AND status = ?", e.ID, from).
		Updates(map[string]any{
			"status":       m.Status,
			"started_at":   m.StartedAt,
			"completes_at": m.CompletesAt,
			"completed_at": m.CompletedAt,
		})
	if res.Error != nil {
		return false, wrap(OpTransitionEntry, res.Error, map[string]any{"entry_id": e.ID, "from": string(from)})
	}
	return res.RowsAffected == 1, nil
}

func wrap(op string, err error, data map[string]any) error {
	e := errx.ErrUnavailable.WithData("op", op)
	if len(data) != 0 {
		e = e.WithDataMap(data)
	}
	return e.WithCause(err)
}

func dbTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func normalizeEntry(e domain.QueueEntry) domain.QueueEntry {
	e.StartedAt = dbTime(e.StartedAt)
	e.CompletesAt = dbTime(e.CompletesAt)
	if !e.CreatedAt.IsZero() {
		e.CreatedAt = dbTime(e.CreatedAt)
	}
	if e.CompletedAt != nil {
		t := dbTime(*e.CompletedAt)
		e.CompletedAt = &t
	}
	return e
}

func utcEntry(e domain.QueueEntry) domain.QueueEntry {
	e.StartedAt = e.StartedAt.UTC()
	e.CompletesAt = e.CompletesAt.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	if e.CompletedAt != nil {
		t := e.CompletedAt.UTC()
		e.CompletedAt = &t
	}
	return e
}
