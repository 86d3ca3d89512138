package domain

import "Polis/internal/shared/gameconfig/building"

// Production 是由建筑集合推导出的产量与人口上限。
type Production struct {
	Rates              Resources
	PopulationCapacity int64
}

// ComputeProduction 从完整的建筑集合重新计算，不做增量。
// 配置表里已下线的类型跳过，只统计产量与人口两类效果。
func ComputeProduction(cat *building.Catalog, buildings []Building, basePopulation int64) Production {
	p := Production{PopulationCapacity: basePopulation}
	for _, b := range buildings {
		effects, err := cat.EffectsAt(b.Type, b.Level)
		if err != nil {
			continue
		}
		for _, e := range effects {
			switch e.Kind {
			case building.EffectResourceProduction:
				p.Rates.Add(e.Resource, e.Value)
			case building.EffectPopulationIncrease:
				p.PopulationCapacity += e.Value
			}
		}
	}
	return p
}
