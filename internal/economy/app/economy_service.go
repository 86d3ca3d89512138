package app

import (
	"context"
	"fmt"
	"time"

	"Polis/internal/economy/app/model"
	"Polis/internal/economy/domain"
	"Polis/internal/shared/gameconfig/building"
	"Polis/internal/shared/utils"
	"Polis/modules/kit/errx"
	"Polis/modules/kit/logx"

	"go.uber.org/zap"
)

// EconomyService 处理玩家侧的入队与查询。
type EconomyService struct {
	store    Store
	catalog  *building.Catalog
	settings Settings
	log      logx.Logger
	ticks    TickRunner
	now      Clock
	newID    IDGen
}

type Option func(*EconomyService)

func WithClock(c Clock) Option {
	return func(s *EconomyService) { s.now = c }
}

func WithIDGen(g IDGen) Option {
	return func(s *EconomyService) { s.newID = g }
}

// NewEconomyService 里 ticks 可以为空，此时 CheckDue 只报告是否到期。
func NewEconomyService(store Store, catalog *building.Catalog, settings Settings, log logx.Logger, ticks TickRunner, opts ...Option) *EconomyService {
	if log == nil {
		log = logx.Nop()
	}
	s := &EconomyService{
		store:    store,
		catalog:  catalog,
		settings: settings,
		log:      log,
		ticks:    ticks,
		now:      utcClock,
		newID:    utils.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *EconomyService) Settings() Settings {
	return s.settings
}

func (s *EconomyService) EnqueueBuild(ctx context.Context, callerID, cityID string, t building.Type) (*model.EnqueueResult, error) {
	if t == "" {
		return nil, ErrReqParamERR.WithData("field", "building_type")
	}
	return s.enqueue(ctx, callerID, cityID, domain.Order{Action: domain.ActionBuild, Type: t})
}

func (s *EconomyService) EnqueueUpgrade(ctx context.Context, callerID, cityID, buildingID string) (*model.EnqueueResult, error) {
	if buildingID == "" {
		return nil, ErrReqParamERR.WithData("field", "building_id")
	}
	return s.enqueue(ctx, callerID, cityID, domain.Order{Action: domain.ActionUpgrade, BuildingID: buildingID})
}

// enqueue 在锁住城市行的事务里先结算资源，再做准入判断、扣费、写入队列项。
func (s *EconomyService) enqueue(ctx context.Context, callerID, cityID string, o domain.Order) (*model.EnqueueResult, error) {
	now := s.now()
	var (
		entry    *domain.QueueEntry
		position int
		balance  domain.Resources
	)
	err := s.store.Transaction(ctx, func(ctx context.Context, tx Store) error {
		city, err := tx.LockCity(ctx, cityID)
		if err != nil {
			return err
		}
		if !city.OwnedBy(callerID) {
			return domain.ErrCityNotFound.WithData("city_id", cityID)
		}
		city.Accrue(now, s.settings.Accrual)

		bs, err := tx.ListBuildings(ctx, cityID)
		if err != nil {
			return err
		}
		open, err := tx.ListOpenEntries(ctx, cityID)
		if err != nil {
			return err
		}
		st := domain.CityState{City: city, Buildings: bs, Open: open}
		e, err := domain.Admit(s.catalog, st, o, now, s.settings.Admission, s.newID())
		if err != nil {
			return err
		}
		if err := tx.SaveCity(ctx, city); err != nil {
			return err
		}
		if err := tx.InsertEntry(ctx, e); err != nil {
			return err
		}
		entry, position, balance = e, len(open)+1, city.Balance()
		return nil
	})
	if err != nil {
		if errx.IsBiz(err) {
			return nil, err
		}
		return nil, ErrUnavailable.WithReason(ReasonAdmissionTxFail).WithData("city_id", cityID).WithCause(err)
	}

	item := model.NewQueueItem(*entry, now)
	item.Position = position
	s.log.WithContext(ctx).Info("building queued",
		zap.String("city_id", cityID),
		zap.String("entry_id", entry.ID),
		zap.String("building_type", string(entry.BuildingType)),
		zap.String("status", string(entry.Status)),
		zap.Int("position", position),
	)
	return &model.EnqueueResult{
		Entry:    item,
		Position: position,
		Message:  s.queuedMessage(entry, position),
		Balance:  balance,
	}, nil
}

func (s *EconomyService) queuedMessage(e *domain.QueueEntry, position int) string {
	name := string(e.BuildingType)
	if def, err := s.catalog.Get(e.BuildingType); err == nil {
		name = def.Name
	}
	verb := "建造"
	if e.Action == domain.ActionUpgrade {
		verb = fmt.Sprintf("升级到 %d 级", e.TargetLevel)
	}
	if e.Status == domain.StatusInProgress {
		return fmt.Sprintf("%s开始%s", name, verb)
	}
	return fmt.Sprintf("%s%s已加入队列，排在第 %d 位", name, verb, position)
}

// Authorize 检查城市归属，别人的城市与不存在的城市返回同一个错误。
func (s *EconomyService) Authorize(ctx context.Context, callerID, cityID string) error {
	_, err := s.ownedCity(ctx, callerID, cityID)
	return err
}

func (s *EconomyService) ownedCity(ctx context.Context, callerID, cityID string) (*domain.City, error) {
	city, err := s.store.GetCity(ctx, cityID)
	if err != nil {
		return nil, sysErr(ReasonCityRepoUnavailable, err)
	}
	if !city.OwnedBy(callerID) {
		return nil, domain.ErrCityNotFound.WithData("city_id", cityID)
	}
	return city, nil
}

// accrueAndSave 结算并乐观写入，被并发写抢先时重新读取。
func (s *EconomyService) accrueAndSave(ctx context.Context, city *domain.City, now time.Time) (*domain.City, error) {
	prev := city.Basis()
	if !city.Accrue(now, s.settings.Accrual) {
		return city, nil
	}
	ok, err := s.store.SaveAccrual(ctx, city, prev)
	if err != nil {
		return nil, ErrUnavailable.WithReason(ReasonAccrualWriteFail).WithData("city_id", city.ID).WithCause(err)
	}
	if ok {
		return city, nil
	}
	fresh, err := s.store.GetCity(ctx, city.ID)
	if err != nil {
		return nil, sysErr(ReasonCityRepoUnavailable, err)
	}
	return fresh, nil
}
