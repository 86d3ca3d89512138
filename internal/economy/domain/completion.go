package domain

import "time"

// ApplyCompletion 把到期队列项的效果落到建筑上：
// build 新建 1 级建筑，upgrade 把等级设为目标等级。
// 返回需要保存的建筑；created 为 true 表示新建。
func ApplyCompletion(e *QueueEntry, existing *Building, newID string, now time.Time) (b *Building, created bool, err error) {
	switch e.Action {
	case ActionBuild:
		if existing != nil {
			return nil, false, ErrAlreadyExists.WithDataMap(map[string]any{
				"entry_id":    e.ID,
				"building_id": existing.ID,
			})
		}
		return &Building{
			ID:        newID,
			CityID:    e.CityID,
			Type:      e.BuildingType,
			Level:     1,
			CreatedAt: now,
			UpdatedAt: now,
		}, true, nil
	case ActionUpgrade:
		if existing == nil {
			return nil, false, ErrBuildingNotFound.WithDataMap(map[string]any{
				"entry_id":      e.ID,
				"building_type": string(e.BuildingType),
			})
		}
		next := *existing
		next.Level = e.TargetLevel
		next.UpdatedAt = now
		return &next, false, nil
	default:
		return nil, false, ErrStaleTransition.WithData("action", string(e.Action))
	}
}

// ReplaceBuilding 返回用 b 替换或追加后的建筑列表，用于重算产量。
func ReplaceBuilding(bs []Building, b Building) []Building {
	out := make([]Building, 0, len(bs)+1)
	replaced := false
	for _, cur := range bs {
		if cur.Type == b.Type {
			out = append(out, b)
			replaced = true
			continue
		}
		out = append(out, cur)
	}
	if !replaced {
		out = append(out, b)
	}
	return out
}
