package app

import (
	"context"
	"errors"
	"time"

	"Polis/internal/economy/app/model"
	"Polis/internal/economy/domain"
	"Polis/internal/shared/gameconfig/building"
	"Polis/internal/shared/utils"
	"Polis/modules/kit/errx"
	"Polis/modules/kit/logx"
	"Polis/modules/kit/tracex"

	"go.uber.org/zap"
)

// TickService 推进游戏时间：结算到期队列项，再给所有城市结算资源。
//
// RunTick 可以重复、并发、延迟调用：队列项的状态迁移以 status 为条件，
// 同一项只会被一次 tick 结算。
type TickService struct {
	store    Store
	catalog  *building.Catalog
	settings Settings
	log      logx.Logger
	notifier Notifier
	journal  TickJournal
	runIDs   *utils.Snowflake
	newID    IDGen
}

type TickOption func(*TickService)

func WithNotifier(n Notifier) TickOption {
	return func(s *TickService) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithJournal(j TickJournal) TickOption {
	return func(s *TickService) { s.journal = j }
}

func WithRunIDs(sf *utils.Snowflake) TickOption {
	return func(s *TickService) { s.runIDs = sf }
}

func WithTickIDGen(g IDGen) TickOption {
	return func(s *TickService) { s.newID = g }
}

func NewTickService(store Store, catalog *building.Catalog, settings Settings, log logx.Logger, opts ...TickOption) *TickService {
	if log == nil {
		log = logx.Nop()
	}
	s := &TickService{
		store:    store,
		catalog:  catalog,
		settings: settings,
		log:      log,
		notifier: nopNotifier{},
		newID:    utils.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.runIDs == nil {
		s.runIDs, _ = utils.NewSnowflake(0)
	}
	return s
}

func (s *TickService) Journal() TickJournal {
	return s.journal
}

// RunTick 分两步：
//  1. 结算 now 之前到期的 in_progress 项（快照在结算前取，新激活的项留到下一次 tick）
//  2. 给所有城市结算资源
//
// 单个队列项或城市失败只记日志并计入 Failures，不影响其他项。
func (s *TickService) RunTick(ctx context.Context, now time.Time, trigger model.Trigger) (model.TickReport, error) {
	now = now.UTC()
	started := time.Now()
	report := model.TickReport{RunID: s.runIDs.NextID(), Trigger: trigger, Now: now}

	ctx = tracex.Ensure(ctx, "tick")
	log := s.log.With(zap.Int64("tick_run_id", report.RunID), zap.String("trigger", string(trigger)))

	due, err := s.store.ListDueEntries(ctx, now)
	if err != nil {
		return s.finish(ctx, log, report, started, sysErr(ReasonQueueRepoUnavailable, err))
	}
	for _, e := range due {
		if err := ctx.Err(); err != nil {
			return s.finish(ctx, log, report, started, errx.ErrTimeout.WithCause(err))
		}
		res, err := s.finalize(ctx, e, now)
		switch {
		case err == nil:
			report.BuildingsFinalized++
			s.publish(ctx, res, now)
		case errors.Is(err, domain.ErrStaleTransition):
			log.WithContext(ctx).Debug("queue entry already finalized", zap.String("entry_id", e.ID))
		default:
			report.Failures++
			logx.Report(ctx, log, "tick.finalize", err, zap.String("entry_id", e.ID), zap.String("city_id", e.CityID))
		}
	}

	ids, err := s.store.ListCityIDs(ctx)
	if err != nil {
		return s.finish(ctx, log, report, started, sysErr(ReasonCityRepoUnavailable, err))
	}
	report.CitiesScanned = len(ids)
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return s.finish(ctx, log, report, started, errx.ErrTimeout.WithCause(err))
		}
		ok, err := s.accrue(ctx, id, now)
		if err != nil {
			report.Failures++
			logx.Report(ctx, log, "tick.accrue", err, zap.String("city_id", id))
			continue
		}
		if ok {
			report.CitiesUpdated++
		}
	}
	return s.finish(ctx, log, report, started, nil)
}

func (s *TickService) finish(ctx context.Context, log logx.Logger, report model.TickReport, started time.Time, runErr error) (model.TickReport, error) {
	report.Elapsed = time.Since(started)
	if s.journal != nil {
		if err := s.journal.Record(ctx, report); err != nil {
			logx.Report(ctx, log, "tick.journal",
				ErrUnavailable.WithReason(ReasonTickJournalWriteFail).WithCause(err))
		}
	}
	if runErr != nil {
		logx.Report(ctx, log, "tick.run", runErr)
		return report, runErr
	}
	log.WithContext(ctx).Info("tick finished",
		zap.Int("buildings_finalized", report.BuildingsFinalized),
		zap.Int("cities_updated", report.CitiesUpdated),
		zap.Int("cities_scanned", report.CitiesScanned),
		zap.Int("failures", report.Failures),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}

type finalized struct {
	entry     domain.QueueEntry
	building  domain.Building
	rates     domain.Resources
	activated *domain.QueueEntry
}

// finalize 在一个事务里完成：标记完成、落建筑效果、重算产量、激活下一个 pending。
func (s *TickService) finalize(ctx context.Context, due domain.QueueEntry, now time.Time) (*finalized, error) {
	var out finalized
	err := s.store.Transaction(ctx, func(ctx context.Context, tx Store) error {
		city, err := tx.LockCity(ctx, due.CityID)
		if err != nil {
			return err
		}

		entry := due
		entry.Complete(now)
		ok, err := tx.TransitionEntry(ctx, &entry, domain.StatusInProgress)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrStaleTransition.WithData("entry_id", due.ID)
		}

		bs, err := tx.ListBuildings(ctx, city.ID)
		if err != nil {
			return err
		}
		b, _, err := domain.ApplyCompletion(&entry, domain.FindByType(bs, entry.BuildingType), s.newID(), now)
		if err != nil {
			return err
		}
		if err := tx.SaveBuilding(ctx, b); err != nil {
			return err
		}

		// 先按旧产量结算到 now，再换成新产量。
		city.Accrue(now, s.settings.Accrual)
		city.ApplyProduction(domain.ComputeProduction(s.catalog, domain.ReplaceBuilding(bs, *b), s.settings.BasePopulation))
		if err := tx.SaveCity(ctx, city); err != nil {
			return err
		}

		open, err := tx.ListOpenEntries(ctx, city.ID)
		if err != nil {
			return err
		}
		if next := domain.NextPending(open); next != nil {
			n := *next
			n.Activate(now)
			ok, err := tx.TransitionEntry(ctx, &n, domain.StatusPending)
			if err != nil {
				return err
			}
			if !ok {
				return domain.ErrStaleTransition.WithData("entry_id", n.ID)
			}
			out.activated = &n
		}

		out.entry, out.building, out.rates = entry, *b, city.Rates()
		return nil
	})
	if err != nil {
		if errx.IsBiz(err) {
			return nil, err
		}
		return nil, ErrUnavailable.WithReason(ReasonFinalizeTxFail).WithDataMap(map[string]any{
			"entry_id": due.ID,
			"city_id":  due.CityID,
		}).WithCause(err)
	}
	return &out, nil
}

// accrue 以读到的库存、产量与结算时间做乐观写入，被入队或结算事务抢先时跳过，下次 tick 再结算。
func (s *TickService) accrue(ctx context.Context, cityID string, now time.Time) (bool, error) {
	city, err := s.store.GetCity(ctx, cityID)
	if err != nil {
		if errors.Is(err, domain.ErrCityNotFound) {
			return false, nil
		}
		return false, sysErr(ReasonCityRepoUnavailable, err)
	}
	prev := city.Basis()
	if !city.Accrue(now, s.settings.Accrual) {
		return false, nil
	}
	ok, err := s.store.SaveAccrual(ctx, city, prev)
	if err != nil {
		return false, ErrUnavailable.WithReason(ReasonAccrualWriteFail).WithData("city_id", cityID).WithCause(err)
	}
	return ok, nil
}

func (s *TickService) publish(ctx context.Context, r *finalized, now time.Time) {
	bv := model.BuildingView{ID: r.building.ID, Type: string(r.building.Type), Level: r.building.Level}
	if def, err := s.catalog.Get(r.building.Type); err == nil {
		bv.Name = def.Name
	}
	s.notifier.Publish(ctx, model.Event{
		Type:     model.EventBuildingCompleted,
		CityID:   r.entry.CityID,
		Entry:    model.NewQueueItem(r.entry, now),
		Building: &bv,
		Rates:    r.rates,
		At:       now,
	})
	if r.activated != nil {
		s.notifier.Publish(ctx, model.Event{
			Type:   model.EventQueueStarted,
			CityID: r.activated.CityID,
			Entry:  model.NewQueueItem(*r.activated, now),
			Rates:  r.rates,
			At:     now,
		})
	}
}
