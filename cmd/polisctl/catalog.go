package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"Polis/internal/shared/gameconfig/building"
	"Polis/internal/shared/serverconfig"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	catalogFile   string
	catalogLevels bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [type]",
	Short: "Show the building catalog, or the per-level table of one building",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := catalogFile
		if path == "" {
			serverconfig.LoadFrom(configPath)
			path = serverconfig.Current().Economy.CatalogFile
		}
		catalog, err := building.Load(path)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			def, err := catalog.Get(building.Type(args[0]))
			if err != nil {
				return fmt.Errorf("%w: %s", err, args[0])
			}
			_, _ = titleColor.Printf("%s (%s)\n", def.Name, def.Type)
			renderLevels(os.Stdout, def)
			return nil
		}
		_, _ = titleColor.Println(catalog.Title())
		renderCatalog(os.Stdout, catalog)
		if catalogLevels {
			for _, def := range catalog.All() {
				_, _ = titleColor.Printf("\n%s (%s)\n", def.Name, def.Type)
				renderLevels(os.Stdout, def)
			}
		}
		return nil
	},
}

func init() {
	catalogCmd.Flags().StringVarP(&catalogFile, "file", "f", "", "catalog json file (default: economy.catalog_file or built-in)")
	catalogCmd.Flags().BoolVar(&catalogLevels, "levels", false, "also print per-level cost, time and effects")
}

func renderCatalog(w io.Writer, catalog *building.Catalog) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Type", "Name", "Category", "Max", "Base Cost", "Base Time", "Requires"}),
	)
	for _, def := range catalog.All() {
		_ = table.Append([]string{
			string(def.Type),
			def.Name,
			string(def.Category),
			strconv.Itoa(def.MaxLevel),
			formatCost(def.BaseCost),
			strconv.FormatInt(def.BaseTime, 10) + "s",
			formatRequirements(def.Requirements),
		})
	}
	_ = table.Render()
}

func renderLevels(w io.Writer, def *building.Definition) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Level", "Cost", "Time", "Effects"}),
	)
	for lv := 1; lv <= def.MaxLevel; lv++ {
		_ = table.Append([]string{
			strconv.Itoa(lv),
			formatCost(def.CostAt(lv)),
			strconv.FormatInt(def.DurationAt(lv), 10) + "s",
			formatEffects(def.EffectsAt(lv)),
		})
	}
	_ = table.Render()
}

func formatCost(c building.Cost) string {
	return fmt.Sprintf("W%d S%d Ag%d", c.Wood, c.Stone, c.Silver)
}

func formatRequirements(reqs []building.Requirement) string {
	if len(reqs) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(reqs))
	for _, r := range reqs {
		parts = append(parts, fmt.Sprintf("%s>=%d", r.Type, r.Level))
	}
	return strings.Join(parts, ", ")
}

func formatEffects(effects []building.Effect) string {
	if len(effects) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(effects))
	for _, e := range effects {
		if e.Resource != "" {
			parts = append(parts, fmt.Sprintf("%s:%s+%d", e.Kind, e.Resource, e.Value))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s+%d", e.Kind, e.Value))
	}
	return strings.Join(parts, ", ")
}
