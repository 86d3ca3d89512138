package domain

import (
	"math"
	"time"
)

// AccrualPolicy 控制资源结算。
type AccrualPolicy struct {
	// MinInterval 之内的间隔不结算，避免频繁写库。
	MinInterval time.Duration
	// Cap 是每种资源的库存上限。
	Cap int64
}

// Accrue 把 last..now 之间的产出加到库存上：
// new = min(Cap, floor(old + rate * hours))。
// 返回 false 表示间隔太短或时钟倒退，City 不变。
func (c *City) Accrue(now time.Time, p AccrualPolicy) bool {
	elapsed := now.Sub(c.LastResourceUpdate)
	if elapsed <= 0 || elapsed < p.MinInterval {
		return false
	}
	hours := elapsed.Seconds() / 3600
	c.Wood = accrueOne(c.Wood, c.WoodRate, hours, p.Cap)
	c.Stone = accrueOne(c.Stone, c.StoneRate, hours, p.Cap)
	c.Silver = accrueOne(c.Silver, c.SilverRate, hours, p.Cap)
	c.LastResourceUpdate = now
	return true
}

func accrueOne(balance, rate int64, hours float64, limit int64) int64 {
	// 已经在上限及以上时不动，库存只会因为扣费而减少。
	if balance >= limit {
		return balance
	}
	next := int64(math.Floor(float64(balance) + float64(rate)*hours))
	if next > limit {
		return limit
	}
	if next < balance {
		return balance
	}
	return next
}
