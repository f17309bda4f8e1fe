// Package serve implements the HTTP server command. It hosts the admin API
// and, when a schedule is configured, triggers crawl runs on a cron.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/MrHbogart/NousNews-Backend/cmd/common"
	"github.com/MrHbogart/NousNews-Backend/internal/api"
)

const shutdownTimeout = 30 * time.Second

// Command returns the serve command.
func Command(cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the crawler HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), *cfgFile)
		},
	}
}

func run(ctx context.Context, cfgFile string) error {
	app, err := common.Bootstrap(ctx, cfgFile)
	if err != nil {
		return err
	}
	defer app.Close()

	supervisor := app.Supervisor()
	router := api.SetupRouter(api.Handlers{
		Supervisor: supervisor,
		Configs:    app.Configs,
		Seeds:      app.Seeds,
		Articles:   app.Articles,
		Logger:     app.Logger,
	}, app.Config.Server.APIToken)

	server := api.NewServer(app.Config.Server.Address, router)
	server.ReadTimeout = app.Config.Server.ReadTimeout
	server.WriteTimeout = app.Config.Server.WriteTimeout
	server.IdleTimeout = app.Config.Server.IdleTimeout

	var scheduler *cron.Cron
	if schedule := app.Config.Crawler.Schedule; schedule != "" {
		scheduler = cron.New()
		if _, cronErr := scheduler.AddFunc(schedule, func() {
			if !supervisor.StartAsync("") {
				app.Logger.Warn("scheduled run skipped, previous run still active")
			}
		}); cronErr != nil {
			return fmt.Errorf("invalid crawl schedule %q: %w", schedule, cronErr)
		}
		scheduler.Start()
		app.Logger.Info("crawl schedule active", "schedule", schedule)
	}

	errCh := make(chan error, 1)
	go func() {
		app.Logger.Info("HTTP server listening", "address", app.Config.Server.Address)
		if serveErr := server.ListenAndServe(); !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
			return
		}
		errCh <- nil
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case serveErr := <-errCh:
		return serveErr
	case sig := <-stop:
		app.Logger.Info("shutting down", "signal", sig.String())
	}

	if scheduler != nil {
		scheduler.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		return fmt.Errorf("server shutdown: %w", shutdownErr)
	}

	return nil
}
