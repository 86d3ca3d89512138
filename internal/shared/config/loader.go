package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// mu 保护热更新时对 out 的并发写。
var mu sync.Mutex

func load(configPath string, out any, onChange ...func()) error {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", configPath, err)
	}
	bindEnvKeys(v)
	if err := decode(v, out); err != nil {
		return err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		// 解码失败时保留旧配置。
		if err := decode(v, out); err != nil {
			return
		}
		for _, fn := range onChange {
			fn()
		}
	})
	v.WatchConfig()
	return nil
}

func decode(v *viper.Viper, out any) error {
	mu.Lock()
	defer mu.Unlock()
	err := v.Unmarshal(out, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return fmt.Errorf("viper unmarshal config: %w", err)
	}
	return nil
}

// bindEnvKeys 让 AutomaticEnv 对 Unmarshal 生效：viper 只对已知 key 查环境变量。
func bindEnvKeys(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		_ = v.BindEnv(key)
	}
}
