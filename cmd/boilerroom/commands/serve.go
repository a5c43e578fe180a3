package commands

import (
	"boilerroom-backend/internal/api"
	"boilerroom-backend/internal/components/chrono"
	"boilerroom-backend/internal/enrichment"
	"boilerroom-backend/lib/serviceutil"
	"boilerroom-backend/lib/telemetry"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

const report_serve_cronjob = "serve.cronjob"

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the http api, and runs the cronjob on a schedule if one is configured.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		err := telemetry.SetupFromEnv(ctx, "boilerroom")
		if err != nil {
			serviceutil.Fatal("failed to setup telemetry", err)
		}
		defer telemetry.Shutdown(context.Background())
		telemetry.InstrumentPerfStats(ctx)

		d := setup()
		defer d.Close()

		err = d.store.Ping(ctx)
		if err != nil {
			serviceutil.Fatal("failed to reach database", err)
		}

		if d.config.Server.Cron != "" {
			clock, err := chrono.NewStandardImpl(d.config.Server.Timezone)
			if err != nil {
				serviceutil.Fatal("failed to load timezone", err)
			}
			cron := chrono.NewStandardCron(d.tel, clock)
			err = cron.Cron(d.config.Server.Cron, func() {
				runCtx, cancel := context.WithTimeout(ctx, time.Hour)
				defer cancel()
				_, err := d.service.RunCronjob(runCtx)
				if errors.Is(err, enrichment.ErrCronjobRunning) {
					d.tel.ReportWarning(report_serve_cronjob, "skipped, a run started over http is in progress")
					return
				}
				if err != nil {
					d.tel.ReportBroken(report_serve_cronjob, err)
				}
			})
			if err != nil {
				serviceutil.Fatal("failed to schedule cronjob", err)
			}
			defer func() {
				<-cron.Stop().Done()
			}()
			slog.Info("scheduled cronjob", "spec", d.config.Server.Cron)
		}

		server := api.NewServer(d.service, d.store, api.Options{
			RenderStatusUrl:   d.config.Server.RenderStatusUrl,
			AllowedOrigins:    d.config.Server.AllowedOrigins,
			RequestsPerMinute: d.config.Server.RequestsPerMinute,
		}, d.tel)

		err = serviceutil.StartHttpServer(ctx, d.config.Server.Port, server.Handler())
		if err != nil {
			serviceutil.Fatal("failed to start http server", err)
		}
	},
}
