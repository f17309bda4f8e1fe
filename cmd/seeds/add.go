package seeds

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MrHbogart/NousNews-Backend/cmd/common"
)

// addCommand returns the seeds add command. With no arguments it installs
// the default seed set and deactivates any active seed outside it.
func addCommand(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "add [url...]",
		Short: "Add crawl seeds, reactivating existing ones",
		Long: `Add crawl seeds by URL. Existing seeds are reactivated rather than
duplicated. Without arguments the default financial-news seed set is
installed and active seeds outside it are deactivated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(cmd.Context(), *cfgFile, args)
		},
	}
}

func runAdd(ctx context.Context, cfgFile string, urls []string) error {
	app, err := common.Bootstrap(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer app.Close()

	reconcile := len(urls) == 0
	if reconcile {
		urls = DefaultSeedURLs
	}

	cfg, err := app.Configs.Get(ctx)
	if err != nil {
		return err
	}

	created, existing := 0, 0
	for _, url := range urls {
		seed, wasCreated, seedErr := app.Seeds.GetOrCreate(ctx, url, &cfg.ID)
		if seedErr != nil {
			return seedErr
		}
		if wasCreated {
			created++
			continue
		}

		existing++
		if !seed.IsActive {
			if activeErr := app.Seeds.SetActive(ctx, seed.ID, true); activeErr != nil {
				return activeErr
			}
		}
	}

	deactivated := 0
	if reconcile {
		deactivated, err = app.Seeds.DeactivateAllExcept(ctx, urls)
		if err != nil {
			return err
		}
	}

	fmt.Printf("Seeds added. created=%d existing=%d deactivated=%d\n", created, existing, deactivated)
	return nil
}
