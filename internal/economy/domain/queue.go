package domain

import (
	"sort"
	"time"

	"Polis/internal/shared/gameconfig/building"
)

type Action string

const (
	ActionBuild   Action = "build"
	ActionUpgrade Action = "upgrade"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// QueueEntry 是一条建造/升级指令。花费与耗时在入队时快照，之后不变。
//
// 状态只会 pending -> in_progress -> completed 单向推进。
type QueueEntry struct {
	ID              string        `gorm:"column:id;type:varchar(36);primaryKey;comment:队列项ID" json:"id"`
	CityID          string        `gorm:"column:city_id;type:varchar(36);index:idx_queue_city_status,priority:1;not null;comment:所属城市" json:"city_id"`
	BuildingType    building.Type `gorm:"column:building_type;type:varchar(32);not null;comment:建筑类型" json:"building_type"`
	Action          Action        `gorm:"column:action;type:varchar(16);not null;comment:build/upgrade" json:"action"`
	TargetLevel     int           `gorm:"column:target_level;not null;comment:目标等级" json:"target_level"`
	CostWood        int64         `gorm:"column:cost_wood;not null;comment:木材花费快照" json:"cost_wood"`
	CostStone       int64         `gorm:"column:cost_stone;not null;comment:石料花费快照" json:"cost_stone"`
	CostSilver      int64         `gorm:"column:cost_silver;not null;comment:白银花费快照" json:"cost_silver"`
	DurationSeconds int64         `gorm:"column:duration_seconds;not null;comment:耗时快照(秒)" json:"duration_seconds"`
	StartedAt       time.Time     `gorm:"column:started_at;not null;comment:开始时间(pending 时为预计)" json:"started_at"`
	CompletesAt     time.Time     `gorm:"column:completes_at;index:idx_queue_due,priority:2;not null;comment:完成时间(pending 时为预计)" json:"completes_at"`
	Status          Status        `gorm:"column:status;type:varchar(16);index:idx_queue_city_status,priority:2;index:idx_queue_due,priority:1;not null;comment:状态" json:"status"`
	CompletedAt     *time.Time    `gorm:"column:completed_at;comment:实际完成时间" json:"completed_at,omitempty"`
	CreatedAt       time.Time     `gorm:"column:created_at;autoCreateTime;comment:入队时间" json:"created_at"`
}

func (QueueEntry) TableName() string {
	return "city_build_queue"
}

func (e *QueueEntry) Cost() Resources {
	return Resources{Wood: e.CostWood, Stone: e.CostStone, Silver: e.CostSilver}
}

func (e *QueueEntry) Duration() time.Duration {
	return time.Duration(e.DurationSeconds) * time.Second
}

func (e *QueueEntry) Open() bool {
	return e.Status == StatusPending || e.Status == StatusInProgress
}

// Due 判断 in_progress 项在 now 时是否已到期。
func (e *QueueEntry) Due(now time.Time) bool {
	return e.Status == StatusInProgress && !e.CompletesAt.After(now)
}

// Activate 把 pending 项转为 in_progress，按存储的耗时从 now 重新计时。
func (e *QueueEntry) Activate(now time.Time) {
	e.Status = StatusInProgress
	e.StartedAt = now
	e.CompletesAt = now.Add(e.Duration())
}

// Complete 标记完成，完成时间取 tick 的 now 而不是 CompletesAt。
func (e *QueueEntry) Complete(now time.Time) {
	e.Status = StatusCompleted
	t := now
	e.CompletedAt = &t
}

// SortQueue 按开始时间排序，相同时按入队时间、再按 id，保证 FIFO 稳定。
func SortQueue(entries []QueueEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return queueLess(&entries[i], &entries[j])
	})
}

// ActiveEntry 返回 in_progress 项，没有时返回 nil。
func ActiveEntry(entries []QueueEntry) *QueueEntry {
	for i := range entries {
		if entries[i].Status == StatusInProgress {
			return &entries[i]
		}
	}
	return nil
}

// NextPending 返回最早的 pending 项。
func NextPending(entries []QueueEntry) *QueueEntry {
	var next *QueueEntry
	for i := range entries {
		e := &entries[i]
		if e.Status != StatusPending {
			continue
		}
		if next == nil || queueLess(e, next) {
			next = e
		}
	}
	return next
}

func queueLess(a, b *QueueEntry) bool {
	if !a.StartedAt.Equal(b.StartedAt) {
		return a.StartedAt.Before(b.StartedAt)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}
