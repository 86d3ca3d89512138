package serverconfig

import (
	"net/url"
	"os"
	"sync/atomic"
	"time"

	"Polis/internal/shared/config"

	"github.com/joho/godotenv"
)

const defaultConfigRelPath = "configs/conf.yml"

var (
	Conf    Config
	current atomic.Pointer[Config]
	hooks   []func(Config)
)

// Load 先读 .env（可选），再读 configs/conf.yml；POLIS_* 环境变量覆盖文件。
func Load() {
	LoadFrom(os.Getenv("POLIS_CONFIG"))
}

func LoadFrom(path string) {
	_ = godotenv.Load()
	if path == "" {
		path = defaultConfigRelPath
	}
	config.MustLoad(path, &Conf, publish)
	publish()
	// 环境变量优先；未设置时回填配置中的 jwt_secret，兼容本地开发。
	if os.Getenv("JWT_SECRET") == "" && Conf.JWTSecret != "" {
		_ = os.Setenv("JWT_SECRET", Conf.JWTSecret)
	}
}

// OnReload 注册配置热更新回调。
func OnReload(fn func(Config)) {
	hooks = append(hooks, fn)
}

// Current 返回最近一次成功解码的配置快照。
func Current() Config {
	if c := current.Load(); c != nil {
		return *c
	}
	return Conf
}

const redacted = "******"

// Redacted 返回可以写日志的副本：密钥、tick 口令与数据库密码被遮盖，Mongo URI 去掉密码。
func (c Config) Redacted() Config {
	mask := func(v string) string {
		if v == "" {
			return ""
		}
		return redacted
	}
	c.JWTSecret = mask(c.JWTSecret)
	c.TickToken = mask(c.TickToken)
	c.MySQL.Password = mask(c.MySQL.Password)
	if c.MongoDB.URI != "" {
		if u, err := url.Parse(c.MongoDB.URI); err == nil {
			c.MongoDB.URI = u.Redacted()
		} else {
			c.MongoDB.URI = redacted
		}
	}
	return c
}

func publish() {
	snapshot := Conf
	snapshot.Economy = snapshot.Economy.WithDefaults()
	current.Store(&snapshot)
	for _, fn := range hooks {
		fn(snapshot)
	}
}

const (
	DefaultQueueCapacity      = 2
	DefaultTickInterval       = 60 * time.Second
	DefaultAccrualMinInterval = 36 * time.Second
	DefaultResourceCap        = int64(999_999_999)
	DefaultBasePopulation     = int64(100)
	DefaultCompletionWindow   = 5 * time.Minute
)

// WithDefaults 给未配置的经济参数补默认值。
func (c EconomyConfig) WithDefaults() EconomyConfig {
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = DefaultQueueCapacity
	}
	if c.TickInterval <= 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.AccrualMinInterval <= 0 {
		c.AccrualMinInterval = DefaultAccrualMinInterval
	}
	if c.ResourceCap <= 0 {
		c.ResourceCap = DefaultResourceCap
	}
	if c.BasePopulation <= 0 {
		c.BasePopulation = DefaultBasePopulation
	}
	if c.CompletionWindow <= 0 {
		c.CompletionWindow = DefaultCompletionWindow
	}
	return c
}
