package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnvPrefix 是环境变量覆盖配置时的前缀，例如 POLIS_MYSQL_HOST。
const EnvPrefix = "POLIS"

// Load 读取配置文件到 out，并在文件变更时重新解码。
//
// 约定：
// 1) cfgName 为绝对路径时直接使用；
// 2) 相对路径先按当前目录解析，不存在则从当前目录向上查找同名相对路径。
func Load(cfgName string, out any, onChange ...func()) error {
	path, err := Resolve(cfgName)
	if err != nil {
		return err
	}
	return load(path, out, onChange...)
}

// MustLoad 与 Load 相同，失败时 panic，给 main 用。
func MustLoad(cfgName string, out any, onChange ...func()) {
	if err := Load(cfgName, out, onChange...); err != nil {
		panic(err)
	}
}

func Resolve(cfgName string) (string, error) {
	if cfgName == "" {
		return "", fmt.Errorf("config file name is empty")
	}
	if filepath.IsAbs(cfgName) {
		if !fileExist(cfgName) {
			return "", fmt.Errorf("config file not exist, configPath=%v", cfgName)
		}
		return cfgName, nil
	}
	curDir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return findUpward(curDir, cfgName)
}

func findUpward(startDir, rel string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, rel)
		if fileExist(candidate) {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("config file not exist, searched %s from: %s", rel, startDir)
		}
		dir = parent
	}
}

func fileExist(fileName string) bool {
	_, err := os.Stat(fileName)
	return err == nil
}
