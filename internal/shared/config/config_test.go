package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type sample struct {
	Economy struct {
		QueueCapacity int           `mapstructure:"queue_capacity"`
		TickInterval  time.Duration `mapstructure:"tick_interval"`
	} `mapstructure:"economy"`
	Name string `mapstructure:"name"`
}

const sampleYAML = `
name: polis
economy:
  queue_capacity: 2
  tick_interval: 60s
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "conf.yml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_解析yaml与时长(t *testing.T) {
	var out sample
	if err := Load(writeSample(t), &out); err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if out.Name != "polis" || out.Economy.QueueCapacity != 2 {
		t.Fatalf("解析结果不符合预期: %+v", out)
	}
	if out.Economy.TickInterval != time.Minute {
		t.Fatalf("期望 tick_interval=1m, got=%v", out.Economy.TickInterval)
	}
}

func TestLoad_环境变量覆盖文件(t *testing.T) {
	t.Setenv("POLIS_ECONOMY_QUEUE_CAPACITY", "5")
	var out sample
	if err := Load(writeSample(t), &out); err != nil {
		t.Fatalf("Load err=%v", err)
	}
	if out.Economy.QueueCapacity != 5 {
		t.Fatalf("期望环境变量覆盖为 5, got=%d", out.Economy.QueueCapacity)
	}
}

func TestResolve_向上查找相对路径(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "configs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "configs", "conf.yml"), []byte(sampleYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "cmd", "economy")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(nested)

	got, err := Resolve("configs/conf.yml")
	if err != nil {
		t.Fatalf("Resolve err=%v", err)
	}
	if filepath.Base(filepath.Dir(got)) != "configs" {
		t.Fatalf("期望找到 configs/conf.yml, got=%s", got)
	}
}

func TestResolve_文件不存在返回错误(t *testing.T) {
	if _, err := Resolve(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatalf("期望文件不存在时返回错误")
	}
}
