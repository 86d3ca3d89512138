package domain

import (
	"errors"
	"testing"
	"time"

	"Polis/internal/shared/gameconfig/building"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func richCity() *City {
	return &City{ID: "c1", OwnerID: "u1", Wood: 10_000, Stone: 10_000, Silver: 10_000, LastResourceUpdate: t0}
}

func senateAt(level int) Building {
	return Building{ID: "b-senate", CityID: "c1", Type: "senate", Level: level}
}

var policy2 = AdmissionPolicy{QueueCapacity: 2}

func TestAdmit_空队列直接开工并扣费(t *testing.T) {
	city := richCity()
	st := CityState{City: city, Buildings: []Building{senateAt(1)}}

	e, err := Admit(building.Default(), st, Order{Action: ActionBuild, Type: "timber_camp"}, t0, policy2, "q1")
	if err != nil {
		t.Fatalf("Admit err=%v", err)
	}
	if e.Status != StatusInProgress || !e.StartedAt.Equal(t0) || !e.CompletesAt.Equal(t0.Add(300*time.Second)) {
		t.Fatalf("期望立即开工 300s, got=%+v", e)
	}
	if e.TargetLevel != 1 || e.Cost() != (Resources{Wood: 100, Stone: 50}) {
		t.Fatalf("期望目标 1 级、花费快照 100/50/0, got level=%d cost=%+v", e.TargetLevel, e.Cost())
	}
	if city.Wood != 9_900 || city.Stone != 9_950 || city.Silver != 10_000 {
		t.Fatalf("期望库存被扣减, got=%+v", city.Balance())
	}
}

func TestAdmit_已有进行中时排到队尾(t *testing.T) {
	active := QueueEntry{ID: "q1", CityID: "c1", BuildingType: "timber_camp", Status: StatusInProgress,
		StartedAt: t0, CompletesAt: t0.Add(300 * time.Second), DurationSeconds: 300}
	st := CityState{City: richCity(), Buildings: []Building{senateAt(1)}, Open: []QueueEntry{active}}

	e, err := Admit(building.Default(), st, Order{Action: ActionBuild, Type: "quarry"}, t0.Add(10*time.Second), policy2, "q2")
	if err != nil {
		t.Fatalf("Admit err=%v", err)
	}
	if e.Status != StatusPending {
		t.Fatalf("期望 pending, got=%s", e.Status)
	}
	if !e.StartedAt.Equal(active.CompletesAt) || !e.CompletesAt.Equal(active.CompletesAt.Add(300*time.Second)) {
		t.Fatalf("期望预计时间接在进行中项之后, got start=%v end=%v", e.StartedAt, e.CompletesAt)
	}
}

func TestAdmit_前置条件按顺序检查(t *testing.T) {
	cat := building.Default()
	timber := QueueEntry{ID: "q1", BuildingType: "timber_camp", Status: StatusInProgress, CompletesAt: t0.Add(time.Minute)}
	quarry := QueueEntry{ID: "q2", BuildingType: "quarry", Status: StatusPending, CompletesAt: t0.Add(2 * time.Minute)}

	cases := []struct {
		name  string
		state CityState
		order Order
		want  error
	}{
		{
			name:  "已存在优先于已排队",
			state: CityState{City: richCity(), Buildings: []Building{senateAt(1), {ID: "b2", Type: "timber_camp", Level: 1}}, Open: []QueueEntry{timber}},
			order: Order{Action: ActionBuild, Type: "timber_camp"},
			want:  ErrAlreadyExists,
		},
		{
			name:  "已排队优先于队列满",
			state: CityState{City: richCity(), Buildings: []Building{senateAt(1)}, Open: []QueueEntry{timber, quarry}},
			order: Order{Action: ActionBuild, Type: "quarry"},
			want:  ErrAlreadyQueued,
		},
		{
			name:  "队列满优先于前置不足",
			state: CityState{City: richCity(), Buildings: []Building{senateAt(1)}, Open: []QueueEntry{timber, quarry}},
			order: Order{Action: ActionBuild, Type: "barracks"},
			want:  ErrQueueFull,
		},
		{
			name:  "前置不足优先于资源不足",
			state: CityState{City: &City{ID: "c1"}, Buildings: []Building{senateAt(1)}},
			order: Order{Action: ActionBuild, Type: "silver_mine"},
			want:  ErrPrereqNotMet,
		},
		{
			name:  "资源不足",
			state: CityState{City: &City{ID: "c1", Wood: 99, Stone: 50}, Buildings: []Building{senateAt(1)}},
			order: Order{Action: ActionBuild, Type: "timber_camp"},
			want:  ErrInsufficientResources,
		},
		{
			name:  "未知类型",
			state: CityState{City: richCity()},
			order: Order{Action: ActionBuild, Type: "castle"},
			want:  ErrInvalidType,
		},
		{
			name:  "升级不存在的建筑",
			state: CityState{City: richCity(), Buildings: []Building{senateAt(1)}},
			order: Order{Action: ActionUpgrade, BuildingID: "missing"},
			want:  ErrBuildingNotFound,
		},
		{
			name:  "满级不能升级",
			state: CityState{City: richCity(), Buildings: []Building{senateAt(30)}},
			order: Order{Action: ActionUpgrade, BuildingID: "b-senate"},
			want:  ErrMaxLevelReached,
		},
	}
	for _, tc := range cases {
		before := tc.state.City.Balance()
		_, err := Admit(cat, tc.state, tc.order, t0, policy2, "new")
		if !errors.Is(err, tc.want) {
			t.Fatalf("%s: 期望 %v, got=%v", tc.name, tc.want, err)
		}
		if tc.state.City.Balance() != before {
			t.Fatalf("%s: 期望拒绝时不扣费", tc.name)
		}
	}
}

func TestAdmit_升级目标等级与花费(t *testing.T) {
	city := richCity()
	st := CityState{City: city, Buildings: []Building{senateAt(1)}}
	e, err := Admit(building.Default(), st, Order{Action: ActionUpgrade, BuildingID: "b-senate"}, t0, policy2, "q1")
	if err != nil {
		t.Fatalf("Admit err=%v", err)
	}
	if e.BuildingType != "senate" || e.TargetLevel != 2 {
		t.Fatalf("期望 senate 升到 2 级, got=%s L%d", e.BuildingType, e.TargetLevel)
	}
	if e.Cost() != (Resources{Wood: 189, Stone: 252}) || e.DurationSeconds != 756 {
		t.Fatalf("期望 L2 花费 189/252 耗时 756s, got=%+v %ds", e.Cost(), e.DurationSeconds)
	}
}

func TestAdmit_升级不检查前置建筑(t *testing.T) {
	// silver_mine 需要 senate 2 级，城里 senate 只有 1 级。
	mine := Building{ID: "b-mine", Type: "silver_mine", Level: 1}
	st := CityState{City: richCity(), Buildings: []Building{senateAt(1), mine}}
	e, err := Admit(building.Default(), st, Order{Action: ActionUpgrade, BuildingID: "b-mine"}, t0, policy2, "q1")
	if err != nil {
		t.Fatalf("期望升级不受前置限制, err=%v", err)
	}
	if e.BuildingType != "silver_mine" || e.TargetLevel != 2 || e.Status != StatusInProgress {
		t.Fatalf("期望 silver_mine 升到 2 级并开工, got=%+v", e)
	}
}

func TestAdmit_资源不足时带上缺口(t *testing.T) {
	st := CityState{City: &City{ID: "c1", Wood: 99, Stone: 50}, Buildings: []Building{senateAt(1)}}
	_, err := Admit(building.Default(), st, Order{Action: ActionBuild, Type: "timber_camp"}, t0, policy2, "q")
	var de *Error
	if !errors.As(err, &de) {
		t.Fatalf("期望领域错误, got=%v", err)
	}
	if got := de.Data()["shortfall"]; got != (Resources{Wood: 1}) {
		t.Fatalf("期望缺口 wood=1, got=%v", got)
	}
}

func TestAdmit_容量可配置(t *testing.T) {
	active := QueueEntry{ID: "q1", BuildingType: "timber_camp", Status: StatusInProgress, CompletesAt: t0.Add(time.Minute)}
	st := CityState{City: richCity(), Buildings: []Building{senateAt(1)}, Open: []QueueEntry{active}}
	if _, err := Admit(building.Default(), st, Order{Action: ActionBuild, Type: "quarry"}, t0, AdmissionPolicy{QueueCapacity: 1}, "q2"); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("期望容量 1 时拒绝第二项, got=%v", err)
	}
}
