package seeds

import (
	"context"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/MrHbogart/NousNews-Backend/cmd/common"
)

// listCommand returns the seeds list command.
func listCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all crawl seeds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), *cfgFile)
		},
	}
}

func runList(ctx context.Context, cfgFile string) error {
	app, err := common.Bootstrap(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer app.Close()

	seeds, err := app.Seeds.List(ctx)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"URL", "Active", "Last Fetched", "Last Error"})
	for _, seed := range seeds {
		lastFetched := ""
		if seed.LastFetchedAt != nil {
			lastFetched = seed.LastFetchedAt.UTC().Format(time.RFC3339)
		}
		t.AppendRow(table.Row{seed.URL, seed.IsActive, lastFetched, seed.LastError})
	}

	t.Render()
	return nil
}
