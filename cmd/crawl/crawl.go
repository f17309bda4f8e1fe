// Package crawl implements the one-shot crawl command: execute a single run
// synchronously and print its summary.
package crawl

import (
	"context"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/MrHbogart/NousNews-Backend/cmd/common"
	"github.com/MrHbogart/NousNews-Backend/internal/database"
	"github.com/MrHbogart/NousNews-Backend/internal/domain"
)

// Command returns the crawl command.
func Command(cfgFile *string) *cobra.Command {
	var objective string
	var noLLM bool

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Execute a single crawl run and wait for it to finish",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), *cfgFile, objective, !noLLM)
		},
	}

	cmd.Flags().StringVar(&objective, "objective", "", "free-form objective passed to the extraction prompt")
	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "skip LLM extraction, use heuristics only")

	return cmd
}

func run(ctx context.Context, cfgFile, objective string, useLLM bool) error {
	app, err := common.Bootstrap(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer app.Close()

	crawlRun, err := app.Runs.Create(ctx, database.CreateParams{
		Objective:       objective,
		UseLLMFiltering: useLLM,
	})
	if err != nil {
		return err
	}

	engine, err := app.EngineFactory()(ctx)
	if err != nil {
		return err
	}

	finished, runErr := engine.Run(ctx, crawlRun)
	if finished != nil {
		renderSummary(finished)
	}

	return runErr
}

// renderSummary prints the run counters as a table.
func renderSummary(run *domain.CrawlRun) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Run", "Status", "Pages", "Articles", "Queued", "Error"})
	t.AppendRow(table.Row{
		run.ID,
		run.Status,
		run.PagesProcessed,
		run.ArticlesCreated,
		run.QueuedURLs,
		run.LastError,
	})

	t.Render()
}
