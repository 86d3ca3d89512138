package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"Polis/internal/economy/app/model"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var ticksLimit int

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run one economy tick now",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, _, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		ticks, err := deps.TickService()
		if err != nil {
			return err
		}
		report, err := ticks.RunTick(cmd.Context(), time.Now().UTC(), model.TriggerCLI)
		if err != nil {
			return err
		}
		_, _ = titleColor.Println("Tick finished")
		renderTicks(os.Stdout, []model.TickReport{report})
		return nil
	},
}

var ticksCmd = &cobra.Command{
	Use:   "ticks",
	Short: "List recent tick runs from the tick journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, _, err := openDeps()
		if err != nil {
			return err
		}
		defer deps.Close()
		if deps.Journal == nil {
			return fmt.Errorf("tick journal is not configured (set mongodb.uri or leveldb.path)")
		}
		reports, err := deps.Journal.Recent(cmd.Context(), ticksLimit)
		if err != nil {
			return err
		}
		_, _ = titleColor.Printf("Recent ticks (%d)\n", len(reports))
		renderTicks(os.Stdout, reports)
		return nil
	},
}

func init() {
	ticksCmd.Flags().IntVarP(&ticksLimit, "limit", "n", 20, "number of runs to show")
}

func renderTicks(w io.Writer, reports []model.TickReport) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Run", "Trigger", "Now", "Finalized", "Updated", "Scanned", "Failures", "Elapsed"}),
	)
	for _, r := range reports {
		_ = table.Append([]string{
			strconv.FormatInt(r.RunID, 10),
			string(r.Trigger),
			r.Now.UTC().Format(time.RFC3339),
			strconv.Itoa(r.BuildingsFinalized),
			strconv.Itoa(r.CitiesUpdated),
			strconv.Itoa(r.CitiesScanned),
			strconv.Itoa(r.Failures),
			r.Elapsed.Round(time.Millisecond).String(),
		})
	}
	_ = table.Render()
}
