package building

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_内置表包含全部建筑(t *testing.T) {
	c := Default()
	want := []Type{"senate", "timber_camp", "quarry", "silver_mine", "farm", "barracks", "harbor", "academy", "temple", "wall", "warehouse"}
	all := c.All()
	if len(all) != len(want) {
		t.Fatalf("期望 %d 种建筑, got=%d", len(want), len(all))
	}
	for i, d := range all {
		if d.Type != want[i] {
			t.Fatalf("第 %d 项期望 %s, got=%s", i, want[i], d.Type)
		}
	}
}

func TestCostAt_按1点26倍增长并向下取整(t *testing.T) {
	c := Default()
	cases := []struct {
		level int
		want  Cost
	}{
		{1, Cost{Wood: 150, Stone: 200}},
		{2, Cost{Wood: 189, Stone: 252}},
		{3, Cost{Wood: 238, Stone: 317}},
	}
	for _, tc := range cases {
		got, err := c.CostAt("senate", tc.level)
		if err != nil {
			t.Fatalf("CostAt err=%v", err)
		}
		if got != tc.want {
			t.Fatalf("senate L%d 期望 %+v, got=%+v", tc.level, tc.want, got)
		}
	}
}

func TestDurationAt_与花费同曲线(t *testing.T) {
	c := Default()
	d1, _ := c.DurationAt("timber_camp", 1)
	d2, _ := c.DurationAt("timber_camp", 2)
	if d1 != 300*time.Second {
		t.Fatalf("期望 L1=300s, got=%v", d1)
	}
	if d2 != 378*time.Second {
		t.Fatalf("期望 L2=floor(300*1.26)=378s, got=%v", d2)
	}
}

func TestEffectsAt_按1点2倍增长(t *testing.T) {
	c := Default()
	e1, _ := c.EffectsAt("timber_camp", 1)
	e2, _ := c.EffectsAt("timber_camp", 2)
	e3, _ := c.EffectsAt("timber_camp", 3)
	if e1[0].Value != 100 || e2[0].Value != 120 || e3[0].Value != 144 {
		t.Fatalf("期望 100/120/144, got=%d/%d/%d", e1[0].Value, e2[0].Value, e3[0].Value)
	}
	if e1[0].Resource != ResourceWood || e1[0].Kind != EffectResourceProduction {
		t.Fatalf("效果类型不符合预期: %+v", e1[0])
	}
	d, _ := c.Get("timber_camp")
	if d.Effects[0].Value != 100 {
		t.Fatalf("期望计算不修改原定义, got=%d", d.Effects[0].Value)
	}
}

func TestEffectsAt_乘幂结果不向上取整(t *testing.T) {
	// 1000 * 1.2^3 在双精度下是 1727.9999999999998。
	e4, err := Default().EffectsAt("warehouse", 4)
	if err != nil {
		t.Fatalf("EffectsAt err=%v", err)
	}
	if e4[0].Kind != EffectStorageIncrease || e4[0].Value != 1727 {
		t.Fatalf("期望 warehouse L4 storage=1727, got=%+v", e4[0])
	}
	if f := scale(1.2, 4); f != 1.7279999999999998 {
		t.Fatalf("期望 1.2^3=1.7279999999999998, got=%v", f)
	}
	if f := scale(1.26, 2); f != 1.26 {
		t.Fatalf("期望 1.26^1 原样返回, got=%v", f)
	}
}

func TestGet_未知类型(t *testing.T) {
	_, err := Default().Get("castle")
	if !errors.Is(err, ErrUnknownBuildingType) {
		t.Fatalf("期望 ErrUnknownBuildingType, got=%v", err)
	}
}

func TestParse_校验前置条件(t *testing.T) {
	raw := `{"cost_multiplier":1.26,"effect_multiplier":1.2,"list":[
		{"type":"a","max_level":3,"base_time":10,"requirements":[{"type":"b","level":1}]}]}`
	if _, err := Parse([]byte(raw)); err == nil {
		t.Fatalf("期望引用未知类型时报错")
	}
	dup := `{"cost_multiplier":1.26,"effect_multiplier":1.2,"list":[
		{"type":"a","max_level":3,"base_time":10},{"type":"a","max_level":3,"base_time":10}]}`
	if _, err := Parse([]byte(dup)); err == nil {
		t.Fatalf("期望重复类型时报错")
	}
}

func TestLoad_外部文件覆盖内置表(t *testing.T) {
	path := filepath.Join(t.TempDir(), "b.json")
	raw := `{"title":"mini","cost_multiplier":2,"effect_multiplier":2,"list":[
		{"type":"hut","max_level":2,"base_cost":{"wood":10},"base_time":5,"effects":[{"kind":"population_increase","value":3}]}]}`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if c.Title() != "mini" || len(c.All()) != 1 {
		t.Fatalf("期望只有 hut, got=%v", c.All())
	}
	cost, _ := c.CostAt("hut", 2)
	if cost.Wood != 20 {
		t.Fatalf("期望 L2 wood=20, got=%d", cost.Wood)
	}
	if Default().Has("hut") {
		t.Fatalf("期望内置表不受影响")
	}
}
