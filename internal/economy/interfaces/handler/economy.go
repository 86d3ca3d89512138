package handler

import (
	"context"

	"Polis/internal/economy/app"
	"Polis/internal/economy/app/model"
	"Polis/modules/kit/logx"
)

// SchedulerStatus 由进程内调度器提供；独立 worker 部署时为空。
type SchedulerStatus interface {
	Status(ctx context.Context) (model.SchedulerStatus, error)
}

// Economy 汇总接口层需要的应用服务，HTTP 与 WS 共用。
type Economy struct {
	Econ      *app.EconomyService
	Ticks     app.TickRunner
	Journal   app.TickJournal
	Scheduler SchedulerStatus
	Log       logx.Logger
}
