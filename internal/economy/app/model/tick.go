package model

import (
	"time"

	"Polis/internal/economy/domain"
)

// Trigger 标记 tick 的发起方。
type Trigger string

const (
	TriggerScheduler Trigger = "scheduler"
	TriggerManual    Trigger = "manual"
	TriggerCheck     Trigger = "check"
	TriggerCLI       Trigger = "cli"
)

// TickReport 是一次 tick 的结果，tick 日志按它落库。
type TickReport struct {
	RunID              int64         `json:"run_id"`
	Trigger            Trigger       `json:"trigger"`
	Now                time.Time     `json:"now"`
	BuildingsFinalized int           `json:"buildings_finalized"`
	// CitiesUpdated 只统计实际写入了结算的城市，CitiesScanned 是扫描到的全部城市。
	CitiesUpdated      int           `json:"cities_updated"`
	CitiesScanned      int           `json:"cities_scanned"`
	Failures           int           `json:"failures"`
	Elapsed            time.Duration `json:"elapsed_ns"`
}

type EventType string

const (
	EventBuildingCompleted EventType = "building_completed"
	EventQueueStarted      EventType = "queue_started"
)

// Event 是推送给城市订阅者的消息。
type Event struct {
	Type     EventType        `json:"type"`
	CityID   string           `json:"city_id"`
	Entry    QueueItem        `json:"entry"`
	Building *BuildingView    `json:"building,omitempty"`
	Rates    domain.Resources `json:"rates"`
	At       time.Time        `json:"at"`
}

// SchedulerStatus 是进程内 tick 调度器的运行状态。
type SchedulerStatus struct {
	Running    bool          `json:"running"`
	Interval   time.Duration `json:"interval_ns"`
	StartedAt  time.Time     `json:"started_at"`
	TickCount  int64         `json:"tick_count"`
	Skipped    int64         `json:"skipped"`
	Failed     int64         `json:"failed"`
	LastReport *TickReport   `json:"last_report,omitempty"`
	LastError  string        `json:"last_error,omitempty"`
}
