package domain

import (
	"time"

	"Polis/internal/shared/gameconfig/building"
	"Polis/modules/kit/errx"
)

// Order 是一次入队请求。upgrade 以 BuildingID 定位，build 以 Type 定位。
type Order struct {
	Action     Action
	Type       building.Type
	BuildingID string
}

// CityState 是准入判断需要的城市快照，调用方在锁住城市行之后读取。
type CityState struct {
	City      *City
	Buildings []Building
	// Open 只包含 pending 与 in_progress。
	Open []QueueEntry
}

// AdmissionPolicy 是准入参数，队列容量由配置传入。
type AdmissionPolicy struct {
	QueueCapacity int
}

// Admit 依次检查：
//  1. build 时建筑不存在；upgrade 时建筑存在且未满级
//  2. 同类型没有未完成的队列项
//  3. 未完成项数量小于容量
//  4. build 时前置建筑满足；已建成的建筑升级不再检查前置
//  5. 资源足够支付目标等级花费
//
// 第一个失败即返回。成功时扣除 City 库存并返回新队列项，写库由调用方在同一事务里完成。
func Admit(cat *building.Catalog, st CityState, o Order, now time.Time, p AdmissionPolicy, id string) (*QueueEntry, error) {
	target, def, err := resolveTarget(cat, st, &o)
	if err != nil {
		return nil, err
	}

	for _, e := range st.Open {
		if e.BuildingType == o.Type {
			return nil, ErrAlreadyQueued.WithDataMap(map[string]any{
				"building_type": string(o.Type),
				"entry_id":      e.ID,
			})
		}
	}

	if len(st.Open) >= p.QueueCapacity {
		return nil, ErrQueueFull.WithDataMap(map[string]any{
			"capacity": p.QueueCapacity,
			"occupied": len(st.Open),
		})
	}

	if o.Action == ActionBuild {
		if missing := missingRequirements(def, st.Buildings); len(missing) > 0 {
			return nil, ErrPrereqNotMet.WithData("missing", missing)
		}
	}

	cost := FromCost(def.CostAt(target))
	balance := st.City.Balance()
	if !balance.Covers(cost) {
		return nil, ErrInsufficientResources.WithDataMap(map[string]any{
			"required":  cost,
			"available": balance,
			"shortfall": balance.Shortfall(cost),
		})
	}

	entry := &QueueEntry{
		ID:              id,
		CityID:          st.City.ID,
		BuildingType:    o.Type,
		Action:          o.Action,
		TargetLevel:     target,
		CostWood:        cost.Wood,
		CostStone:       cost.Stone,
		CostSilver:      cost.Silver,
		DurationSeconds: def.DurationAt(target),
		CreatedAt:       now,
	}
	if ActiveEntry(st.Open) == nil {
		entry.Activate(now)
	} else {
		// pending 的时间只是预计值，激活时按实际时间重算。
		entry.Status = StatusPending
		entry.StartedAt = queueTail(st.Open)
		entry.CompletesAt = entry.StartedAt.Add(entry.Duration())
	}
	st.City.SetBalance(balance.Sub(cost))
	return entry, nil
}

func resolveTarget(cat *building.Catalog, st CityState, o *Order) (int, *building.Definition, error) {
	switch o.Action {
	case ActionBuild:
		def, err := cat.Get(o.Type)
		if err != nil {
			return 0, nil, err
		}
		if b := FindByType(st.Buildings, o.Type); b != nil {
			return 0, nil, ErrAlreadyExists.WithDataMap(map[string]any{
				"building_type": string(o.Type),
				"building_id":   b.ID,
			})
		}
		return 1, def, nil
	case ActionUpgrade:
		b := FindByID(st.Buildings, o.BuildingID)
		if b == nil {
			return 0, nil, ErrBuildingNotFound.WithData("building_id", o.BuildingID)
		}
		o.Type = b.Type
		def, err := cat.Get(b.Type)
		if err != nil {
			return 0, nil, err
		}
		if b.Level >= def.MaxLevel {
			return 0, nil, ErrMaxLevelReached.WithDataMap(map[string]any{
				"building_type": string(b.Type),
				"max_level":     def.MaxLevel,
			})
		}
		return b.Level + 1, def, nil
	default:
		return 0, nil, errx.ErrReqParamERR.WithData("action", string(o.Action))
	}
}

// MissingRequirement 描述一条未满足的前置条件。
type MissingRequirement struct {
	Type     building.Type `json:"type"`
	Required int           `json:"required"`
	Current  int           `json:"current"`
}

func missingRequirements(def *building.Definition, bs []Building) []MissingRequirement {
	var out []MissingRequirement
	for _, r := range def.Requirements {
		current := 0
		if b := FindByType(bs, r.Type); b != nil {
			current = b.Level
		}
		if current < r.Level {
			out = append(out, MissingRequirement{Type: r.Type, Required: r.Level, Current: current})
		}
	}
	return out
}

// queueTail 返回队列里最晚的预计完成时间。只有一项 in_progress 时就是它的完成时间。
func queueTail(open []QueueEntry) time.Time {
	var tail time.Time
	for _, e := range open {
		if e.CompletesAt.After(tail) {
			tail = e.CompletesAt
		}
	}
	return tail
}
