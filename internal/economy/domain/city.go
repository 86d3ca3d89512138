package domain

import "time"

type City struct {
	ID                 string    `gorm:"column:id;type:varchar(36);primaryKey;comment:城市ID" json:"id"`
	OwnerID            string    `gorm:"column:owner_id;type:varchar(64);index:idx_city_owner;not null;comment:城主用户ID" json:"owner_id"`
	Name               string    `gorm:"column:name;type:varchar(64);comment:城市名" json:"name"`
	Wood               int64     `gorm:"column:wood;not null;default:0;comment:木材" json:"wood"`
	Stone              int64     `gorm:"column:stone;not null;default:0;comment:石料" json:"stone"`
	Silver             int64     `gorm:"column:silver;not null;default:0;comment:白银" json:"silver"`
	WoodRate           int64     `gorm:"column:wood_rate;not null;default:0;comment:木材每小时产量" json:"wood_rate"`
	StoneRate          int64     `gorm:"column:stone_rate;not null;default:0;comment:石料每小时产量" json:"stone_rate"`
	SilverRate         int64     `gorm:"column:silver_rate;not null;default:0;comment:白银每小时产量" json:"silver_rate"`
	PopulationCapacity int64     `gorm:"column:population_capacity;not null;default:100;comment:人口上限" json:"population_capacity"`
	PopulationUsed     int64     `gorm:"column:population_used;not null;default:0;comment:已用人口" json:"population_used"`
	LastResourceUpdate time.Time `gorm:"column:last_resource_update;not null;comment:上次结算资源时间" json:"last_resource_update"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime;comment:创建时间" json:"created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime;comment:更新时间" json:"updated_at"`
}

func (City) TableName() string {
	return "city"
}

func (c *City) Balance() Resources {
	return Resources{Wood: c.Wood, Stone: c.Stone, Silver: c.Silver}
}

func (c *City) SetBalance(r Resources) {
	c.Wood, c.Stone, c.Silver = r.Wood, r.Stone, r.Silver
}

func (c *City) Rates() Resources {
	return Resources{Wood: c.WoodRate, Stone: c.StoneRate, Silver: c.SilverRate}
}

// ApplyProduction 覆盖产量与人口上限，调用方保证 p 来自完整的建筑集合。
func (c *City) ApplyProduction(p Production) {
	c.WoodRate, c.StoneRate, c.SilverRate = p.Rates.Wood, p.Rates.Stone, p.Rates.Silver
	c.PopulationCapacity = p.PopulationCapacity
}

// AccrualBasis 是乐观结算读到的城市状态，写回时余额、产量、结算时间都要原样未变。
type AccrualBasis struct {
	Balance Resources
	Rates   Resources
	At      time.Time
}

func (c *City) Basis() AccrualBasis {
	return AccrualBasis{Balance: c.Balance(), Rates: c.Rates(), At: c.LastResourceUpdate}
}

// Matches 报告 c 是否仍处于 b 记录的状态。
func (b AccrualBasis) Matches(c *City) bool {
	return c != nil && c.Balance() == b.Balance && c.Rates() == b.Rates && c.LastResourceUpdate.Equal(b.At)
}

func (c *City) OwnedBy(userID string) bool {
	return c != nil && userID != "" && c.OwnerID == userID
}
