package building

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"os"
	"sync"
	"time"

	"Polis/modules/kit/errx"
)

type Type string

type Category string

const (
	CategoryEssential  Category = "essential"
	CategoryProduction Category = "production"
	CategoryMilitary   Category = "military"
	CategoryDefensive  Category = "defensive"
)

type EffectKind string

const (
	EffectResourceProduction EffectKind = "resource_production"
	EffectPopulationIncrease EffectKind = "population_increase"
	EffectStorageIncrease    EffectKind = "storage_increase"
	EffectDefenseBonus       EffectKind = "defense_bonus"
)

type Resource string

const (
	ResourceWood   Resource = "wood"
	ResourceStone  Resource = "stone"
	ResourceSilver Resource = "silver"
)

const CodeUnknownBuildingType errx.Code = "BUILDING_UNKNOWN_TYPE"

var ErrUnknownBuildingType = errx.NewBiz(CodeUnknownBuildingType, "未知的建筑类型")

type Cost struct {
	Wood   int64 `json:"wood"`
	Stone  int64 `json:"stone"`
	Silver int64 `json:"silver"`
}

type Requirement struct {
	Type  Type `json:"type"`
	Level int  `json:"level"`
}

type Effect struct {
	Kind     EffectKind `json:"kind"`
	Resource Resource   `json:"resource,omitempty"`
	Value    int64      `json:"value"`
}

type Definition struct {
	Type         Type          `json:"type"`
	Name         string        `json:"name"`
	Des          string        `json:"des"`
	Category     Category      `json:"category"`
	MaxLevel     int           `json:"max_level"`
	BaseCost     Cost          `json:"base_cost"`
	BaseTime     int64         `json:"base_time"` // 秒
	Requirements []Requirement `json:"requirements"`
	Effects      []Effect      `json:"effects"`

	costMultiplier   float64
	effectMultiplier float64
}

// CostAt 返回升到 level 级的花费：floor(base * 1.26^(level-1))。
func (d *Definition) CostAt(level int) Cost {
	f := scale(d.costMultiplier, level)
	return Cost{
		Wood:   scaleFloor(d.BaseCost.Wood, f),
		Stone:  scaleFloor(d.BaseCost.Stone, f),
		Silver: scaleFloor(d.BaseCost.Silver, f),
	}
}

// DurationAt 返回升到 level 级的建造秒数，曲线与花费相同。
func (d *Definition) DurationAt(level int) int64 {
	return scaleFloor(d.BaseTime, scale(d.costMultiplier, level))
}

// EffectsAt 返回 level 级的效果：floor(value * 1.2^(level-1))。
func (d *Definition) EffectsAt(level int) []Effect {
	f := scale(d.effectMultiplier, level)
	out := make([]Effect, 0, len(d.Effects))
	for _, e := range d.Effects {
		e.Value = scaleFloor(e.Value, f)
		out = append(out, e)
	}
	return out
}

// scale 返回 multiplier^(level-1)：先按精确乘积计算，再一次舍入到最近的 float64。
// math.Pow 在个别整数次幂上差一个 ulp，例如 1.2^3 得到 1.728，向下取整后会多 1。
func scale(multiplier float64, level int) float64 {
	if level < 1 {
		level = 1
	}
	n := level - 1
	prec := uint(53 * (n + 1))
	m := new(big.Float).SetPrec(prec).SetFloat64(multiplier)
	f := new(big.Float).SetPrec(prec).SetInt64(1)
	for i := 0; i < n; i++ {
		f.Mul(f, m)
	}
	v, _ := f.Float64()
	return v
}

func scaleFloor(base int64, factor float64) int64 {
	return int64(math.Floor(float64(base) * factor))
}

type catalogFile struct {
	Title            string       `json:"title"`
	CostMultiplier   float64      `json:"cost_multiplier"`
	EffectMultiplier float64      `json:"effect_multiplier"`
	List             []Definition `json:"list"`
}

// Catalog 是只读的建筑配置表，加载后不再修改，可并发读。
type Catalog struct {
	title string
	order []Type
	defs  map[Type]*Definition
}

//go:embed buildings.json
var defaultRaw []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default 返回内置配置表。
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(defaultRaw)
		if err != nil {
			panic(fmt.Errorf("load building catalog failed: %w", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load 读取外部配置表；path 为空时用内置表。
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load building catalog failed: read %q: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var f catalogFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unmarshal building catalog: %w", err)
	}
	if f.CostMultiplier <= 0 || f.EffectMultiplier <= 0 {
		return nil, fmt.Errorf("building catalog multipliers must be positive: cost=%v effect=%v", f.CostMultiplier, f.EffectMultiplier)
	}

	c := &Catalog{
		title: f.Title,
		order: make([]Type, 0, len(f.List)),
		defs:  make(map[Type]*Definition, len(f.List)),
	}
	for i := range f.List {
		d := f.List[i]
		if d.Type == "" {
			return nil, fmt.Errorf("building catalog entry %d has empty type", i)
		}
		if _, dup := c.defs[d.Type]; dup {
			return nil, fmt.Errorf("duplicate building type %q", d.Type)
		}
		if d.MaxLevel < 1 || d.BaseTime <= 0 {
			return nil, fmt.Errorf("building %q: max_level and base_time must be positive", d.Type)
		}
		d.costMultiplier = f.CostMultiplier
		d.effectMultiplier = f.EffectMultiplier
		c.defs[d.Type] = &d
		c.order = append(c.order, d.Type)
	}
	// 前置条件必须指向表内类型，且等级不超过该类型上限。
	for _, t := range c.order {
		for _, r := range c.defs[t].Requirements {
			dep, ok := c.defs[r.Type]
			if !ok {
				return nil, fmt.Errorf("building %q requires unknown type %q", t, r.Type)
			}
			if r.Level < 1 || r.Level > dep.MaxLevel {
				return nil, fmt.Errorf("building %q requires %q level %d out of range", t, r.Type, r.Level)
			}
		}
	}
	return c, nil
}

func (c *Catalog) Title() string {
	return c.title
}

func (c *Catalog) Get(t Type) (*Definition, error) {
	if c == nil {
		return nil, ErrUnknownBuildingType.WithData("type", string(t))
	}
	d, ok := c.defs[t]
	if !ok {
		return nil, ErrUnknownBuildingType.WithData("type", string(t))
	}
	return d, nil
}

func (c *Catalog) Has(t Type) bool {
	_, err := c.Get(t)
	return err == nil
}

func (c *Catalog) CostAt(t Type, level int) (Cost, error) {
	d, err := c.Get(t)
	if err != nil {
		return Cost{}, err
	}
	return d.CostAt(level), nil
}

func (c *Catalog) DurationAt(t Type, level int) (time.Duration, error) {
	d, err := c.Get(t)
	if err != nil {
		return 0, err
	}
	return time.Duration(d.DurationAt(level)) * time.Second, nil
}

func (c *Catalog) EffectsAt(t Type, level int) ([]Effect, error) {
	d, err := c.Get(t)
	if err != nil {
		return nil, err
	}
	return d.EffectsAt(level), nil
}

// All 按配置文件顺序返回全部定义。
func (c *Catalog) All() []*Definition {
	out := make([]*Definition, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, c.defs[t])
	}
	return out
}
