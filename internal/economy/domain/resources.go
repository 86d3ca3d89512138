package domain

import "Polis/internal/shared/gameconfig/building"

// Resources 是三种资源的整数数量，既表示库存也表示花费与每小时产量。
type Resources struct {
	Wood   int64 `json:"wood"`
	Stone  int64 `json:"stone"`
	Silver int64 `json:"silver"`
}

func FromCost(c building.Cost) Resources {
	return Resources{Wood: c.Wood, Stone: c.Stone, Silver: c.Silver}
}

// Covers 判断库存是否足够支付 cost。
func (r Resources) Covers(cost Resources) bool {
	return r.Wood >= cost.Wood && r.Stone >= cost.Stone && r.Silver >= cost.Silver
}

func (r Resources) Sub(cost Resources) Resources {
	return Resources{Wood: r.Wood - cost.Wood, Stone: r.Stone - cost.Stone, Silver: r.Silver - cost.Silver}
}

// Shortfall 返回每种资源还差多少，不缺的记 0。
func (r Resources) Shortfall(cost Resources) Resources {
	return Resources{
		Wood:   max(0, cost.Wood-r.Wood),
		Stone:  max(0, cost.Stone-r.Stone),
		Silver: max(0, cost.Silver-r.Silver),
	}
}

func (r Resources) Get(res building.Resource) int64 {
	switch res {
	case building.ResourceWood:
		return r.Wood
	case building.ResourceStone:
		return r.Stone
	case building.ResourceSilver:
		return r.Silver
	}
	return 0
}

// Add 按资源种类累加，未知资源忽略。
func (r *Resources) Add(res building.Resource, v int64) {
	switch res {
	case building.ResourceWood:
		r.Wood += v
	case building.ResourceStone:
		r.Stone += v
	case building.ResourceSilver:
		r.Silver += v
	}
}
