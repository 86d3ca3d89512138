package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"Polis/internal/economy/app/model"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	ownerID  string
	cityName string
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "List the active build queue across all cities of an owner",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ownerID == "" {
			return fmt.Errorf("--owner is required")
		}
		deps, _, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		ticks, err := deps.TickService()
		if err != nil {
			return err
		}
		items, err := deps.EconomyService(ticks).ListActiveQueue(cmd.Context(), ownerID)
		if err != nil {
			return err
		}
		_, _ = titleColor.Printf("Active queue of %s (%d)\n", ownerID, len(items))
		renderQueue(os.Stdout, items)
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Found a starter city for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		if ownerID == "" {
			return fmt.Errorf("--owner is required")
		}
		deps, _, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		ticks, err := deps.TickService()
		if err != nil {
			return err
		}
		name := cityName
		if name == "" {
			name = ownerID + "'s polis"
		}
		view, err := deps.EconomyService(ticks).FoundStarterCity(cmd.Context(), ownerID, name)
		if err != nil {
			return err
		}
		color.Green("City %s founded: %s", view.Name, view.ID)
		return nil
	},
}

func init() {
	queueCmd.Flags().StringVarP(&ownerID, "owner", "o", "", "owner (player) id")
	seedCmd.Flags().StringVarP(&ownerID, "owner", "o", "", "owner (player) id")
	seedCmd.Flags().StringVarP(&cityName, "name", "n", "", "city name")
}

func renderQueue(w io.Writer, items []model.QueueItem) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"City", "Building", "Action", "Level", "Status", "Completes", "Remaining"}),
	)
	for _, it := range items {
		status := it.Status
		if it.Estimated {
			status += " (est.)"
		}
		city := it.CityID
		if it.CityName != "" {
			city = it.CityName
		}
		_ = table.Append([]string{
			city,
			it.BuildingType,
			it.Action,
			strconv.Itoa(it.TargetLevel),
			status,
			it.CompletesAt.UTC().Format(time.RFC3339),
			(time.Duration(it.RemainingSeconds) * time.Second).String(),
		})
	}
	_ = table.Render()
}
