package app

import (
	"time"

	"Polis/internal/economy/domain"
	"Polis/internal/shared/serverconfig"
)

// Settings 是经济域的运行参数。
type Settings struct {
	Admission        domain.AdmissionPolicy
	Accrual          domain.AccrualPolicy
	BasePopulation   int64
	CompletionWindow time.Duration
}

func SettingsFrom(c serverconfig.EconomyConfig) Settings {
	c = c.WithDefaults()
	return Settings{
		Admission:        domain.AdmissionPolicy{QueueCapacity: c.QueueCapacity},
		Accrual:          domain.AccrualPolicy{MinInterval: c.AccrualMinInterval, Cap: c.ResourceCap},
		BasePopulation:   c.BasePopulation,
		CompletionWindow: c.CompletionWindow,
	}
}

// DefaultSettings 等价于空配置补默认值。
func DefaultSettings() Settings {
	return SettingsFrom(serverconfig.EconomyConfig{})
}

func utcClock() time.Time {
	return time.Now().UTC()
}
