package app

import (
	"context"
	"time"

	"Polis/internal/economy/app/model"
	"Polis/internal/economy/domain"
)

// Store 是经济域的事务性存储。
//
// 约定：
// - 找不到时返回 domain 的 NotFound 哨兵，其余错误视为系统错误
// - 时间一律按 UTC 读写
type Store interface {
	// Transaction 在一个工作单元里执行 fn，fn 返回错误时整体回滚。
	Transaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	GetCity(ctx context.Context, cityID string) (*domain.City, error)
	// LockCity 读取并锁住城市行，只能在 Transaction 内调用。
	LockCity(ctx context.Context, cityID string) (*domain.City, error)
	ListCityIDs(ctx context.Context) ([]string, error)
	ListCitiesByOwner(ctx context.Context, ownerID string) ([]domain.City, error)
	CreateCity(ctx context.Context, c *domain.City) error
	SaveCity(ctx context.Context, c *domain.City) error
	// SaveAccrual 只在库存、产量与 last_resource_update 都仍等于 prev 时写入，返回是否写入。
	// 入队扣费可能不推进结算时间，只比较时间会把扣费覆盖掉。
	SaveAccrual(ctx context.Context, c *domain.City, prev domain.AccrualBasis) (bool, error)

	ListBuildings(ctx context.Context, cityID string) ([]domain.Building, error)
	SaveBuilding(ctx context.Context, b *domain.Building) error

	InsertEntry(ctx context.Context, e *domain.QueueEntry) error
	// ListOpenEntries 返回城市内 pending 与 in_progress 的队列项。
	ListOpenEntries(ctx context.Context, cityID string) ([]domain.QueueEntry, error)
	ListOpenEntriesByCities(ctx context.Context, cityIDs []string) ([]domain.QueueEntry, error)
	// ListDueEntries 返回所有 completes_at <= now 的 in_progress 项。
	ListDueEntries(ctx context.Context, now time.Time) ([]domain.QueueEntry, error)
	ListCompletedSince(ctx context.Context, cityID string, since time.Time) ([]domain.QueueEntry, error)
	// TransitionEntry 以 status = from 为条件更新队列项，返回是否命中。
	TransitionEntry(ctx context.Context, e *domain.QueueEntry, from domain.Status) (bool, error)
}

// Notifier 在事务提交后推送城市事件，推送失败不影响业务结果。
type Notifier interface {
	Publish(ctx context.Context, ev model.Event)
}

// TickJournal 记录每次 tick 的结果，供排障与运维查询。
type TickJournal interface {
	Record(ctx context.Context, r model.TickReport) error
	Recent(ctx context.Context, limit int) ([]model.TickReport, error)
}

// TickRunner 是 tick 的执行入口，调度器与 CheckDue 都依赖它。
type TickRunner interface {
	RunTick(ctx context.Context, now time.Time, trigger model.Trigger) (model.TickReport, error)
}

type Clock func() time.Time

type IDGen func() string

type nopNotifier struct{}

func (nopNotifier) Publish(context.Context, model.Event) {}
