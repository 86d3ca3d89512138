package domain

import (
	"time"

	"Polis/internal/shared/gameconfig/building"
)

// Building 每个城市每种类型最多一座。
type Building struct {
	ID        string        `gorm:"column:id;type:varchar(36);primaryKey;comment:建筑ID" json:"id"`
	CityID    string        `gorm:"column:city_id;type:varchar(36);uniqueIndex:uk_city_type,priority:1;not null;comment:所属城市" json:"city_id"`
	Type      building.Type `gorm:"column:type;type:varchar(32);uniqueIndex:uk_city_type,priority:2;not null;comment:建筑类型" json:"type"`
	Level     int           `gorm:"column:level;not null;default:1;comment:等级" json:"level"`
	CreatedAt time.Time     `gorm:"column:created_at;autoCreateTime;comment:创建时间" json:"created_at"`
	UpdatedAt time.Time     `gorm:"column:updated_at;autoUpdateTime;comment:更新时间" json:"updated_at"`
}

func (Building) TableName() string {
	return "city_building"
}

// FindByType 在建筑列表里按类型查找。
func FindByType(bs []Building, t building.Type) *Building {
	for i := range bs {
		if bs[i].Type == t {
			return &bs[i]
		}
	}
	return nil
}

func FindByID(bs []Building, id string) *Building {
	for i := range bs {
		if bs[i].ID == id {
			return &bs[i]
		}
	}
	return nil
}
