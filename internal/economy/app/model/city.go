package model

import (
	"time"

	"Polis/internal/economy/domain"
)

type BuildingView struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// CityView 是结算后的城市快照，产量按每小时计。
type CityView struct {
	ID                 string           `json:"id"`
	Name               string           `json:"name"`
	Resources          domain.Resources `json:"resources"`
	Rates              domain.Resources `json:"rates"`
	ResourceCap        int64            `json:"resource_cap"`
	PopulationCapacity int64            `json:"population_capacity"`
	PopulationUsed     int64            `json:"population_used"`
	LastResourceUpdate time.Time        `json:"last_resource_update"`
	Buildings          []BuildingView   `json:"buildings"`
	Queue              QueueStatus      `json:"queue"`
}
