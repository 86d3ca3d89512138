package main

import (
	"fmt"
	"os"

	"Polis/internal/economy/bootstrap"
	"Polis/internal/shared/logs"
	"Polis/internal/shared/serverconfig"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "polisctl",
	Short: "Operator tool for the Polis economy: ticks, queues, catalog and local seeding",
}

var titleColor = color.New(color.FgCyan, color.Bold)

// openDeps 读配置并打开存储，日志只写 stderr 级别的错误。
func openDeps() (*bootstrap.Deps, serverconfig.Config, error) {
	serverconfig.LoadFrom(configPath)
	if err := logs.Init("polisctl", serverconfig.Conf.Log); err != nil {
		return nil, serverconfig.Config{}, err
	}
	cfg := serverconfig.Current()
	deps, err := bootstrap.Open(cfg, logs.Logger())
	if err != nil {
		return nil, cfg, fmt.Errorf("bootstrap economy: %w", err)
	}
	return deps, cfg, nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (default configs/conf.yml)")
	rootCmd.AddCommand(tickCmd, ticksCmd, catalogCmd, queueCmd, seedCmd, tokenCmd, healthCmd)
	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
