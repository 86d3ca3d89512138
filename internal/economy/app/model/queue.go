package model

import (
	"time"

	"Polis/internal/economy/domain"
)

// QueueItem 是对外的队列项。pending 项的时间是预计值，Estimated 为 true。
type QueueItem struct {
	ID               string           `json:"id"`
	CityID           string           `json:"city_id"`
	CityName         string           `json:"city_name,omitempty"`
	BuildingType     string           `json:"building_type"`
	Action           string           `json:"action"`
	TargetLevel      int              `json:"target_level"`
	Cost             domain.Resources `json:"cost"`
	DurationSeconds  int64            `json:"duration_seconds"`
	StartedAt        time.Time        `json:"started_at"`
	CompletesAt      time.Time        `json:"completes_at"`
	Status           string           `json:"status"`
	Estimated        bool             `json:"estimated"`
	Position         int              `json:"position,omitempty"`
	RemainingSeconds int64            `json:"remaining_seconds"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
}

type QueueStatus struct {
	CityID   string      `json:"city_id"`
	Capacity int         `json:"capacity"`
	Occupied int         `json:"occupied"`
	Entries  []QueueItem `json:"entries"`
}

// EnqueueResult 是入队成功的回执。
type EnqueueResult struct {
	Entry    QueueItem        `json:"entry"`
	Position int              `json:"position"`
	Message  string           `json:"message"`
	Balance  domain.Resources `json:"balance"`
}

// DueCheck 是 CheckDue 的结果，Due 为 false 时 Report 为空。
type DueCheck struct {
	Due    bool        `json:"due"`
	Report *TickReport `json:"report,omitempty"`
}

func NewQueueItem(e domain.QueueEntry, now time.Time) QueueItem {
	item := QueueItem{
		ID:              e.ID,
		CityID:          e.CityID,
		BuildingType:    string(e.BuildingType),
		Action:          string(e.Action),
		TargetLevel:     e.TargetLevel,
		Cost:            e.Cost(),
		DurationSeconds: e.DurationSeconds,
		StartedAt:       e.StartedAt,
		CompletesAt:     e.CompletesAt,
		Status:          string(e.Status),
		Estimated:       e.Status == domain.StatusPending,
		CompletedAt:     e.CompletedAt,
	}
	if e.Open() {
		if left := int64(e.CompletesAt.Sub(now) / time.Second); left > 0 {
			item.RemainingSeconds = left
		}
	}
	return item
}
