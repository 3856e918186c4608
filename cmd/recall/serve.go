package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tablemind/recall/internal/cron"
	"github.com/tablemind/recall/internal/gateway"
	"github.com/tablemind/recall/internal/memory"
	"github.com/tablemind/recall/internal/privacy"
	"github.com/tablemind/recall/internal/telemetry"
	sqlitestore "github.com/tablemind/recall/modules/memory/sqlite"
	"github.com/tablemind/recall/modules/provider/openai"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the memory engine with the admin gateway and maintenance jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			gate := privacy.NewGate()
			logger := buildLogger(cfg.Logging, gate)
			ctx := cmd.Context()

			shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Config{
				OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
				ServiceName:  cfg.Telemetry.ServiceName,
				Insecure:     cfg.Telemetry.Insecure,
			}, logger)
			if err != nil {
				return err
			}

			store, err := sqlitestore.Open(ctx, cfg.Store, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			prov, err := openai.New(cfg.Provider, logger)
			if err != nil {
				return err
			}

			metrics := gateway.NewMetrics()
			opts := []memory.Option{
				memory.WithLogger(logger),
				memory.WithRecorder(metrics),
				memory.WithInjectionLimit(cfg.Memory.InjectionLimit),
			}
			if cfg.Memory.TokenBudget > 0 {
				opts = append(opts, memory.WithTokenBudget(
					cfg.Memory.TokenBudget,
					memory.NewCharEstimator(cfg.Memory.CharsPerToken),
				))
			}
			engine := memory.NewEngine(store, memory.NewLLMExtractor(prov, logger), gate, opts...)

			var gw *gateway.Gateway
			if cfg.Gateway.Listen != "" {
				gw, err = gateway.New(gateway.Config{
					Listen:    cfg.Gateway.Listen,
					AuthToken: cfg.Gateway.AuthToken,
				}, store, engine, prov, metrics, logger)
				if err != nil {
					return err
				}
				if err := gw.Start(); err != nil {
					return err
				}
			} else {
				logger.Warn("gateway disabled, no listen address configured")
			}

			scheduler := cron.NewScheduler(logger)
			if err := scheduler.RegisterJob(&cron.StoreMaintenanceJob{
				Store:        store,
				Logger:       logger,
				ScheduleExpr: cfg.Maintenance.Schedule,
			}); err != nil {
				return err
			}
			if err := scheduler.Start(); err != nil {
				return err
			}

			logger.Info("recall started",
				"version", version,
				"model", cfg.Provider.Model,
				"facts", store.Len(),
			)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)
			sig := <-sigCh
			logger.Info("shutdown signal received", "signal", sig.String())

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			if gw != nil {
				if err := gw.Stop(shutdownCtx); err != nil {
					logger.Error("gateway shutdown error", "error", err)
				}
			}
			if err := scheduler.Stop(shutdownCtx); err != nil {
				logger.Error("scheduler shutdown error", "error", err)
			}
			if err := shutdownTelemetry(shutdownCtx); err != nil {
				logger.Error("telemetry shutdown error", "error", err)
			}

			logger.Info("shutdown complete")
			return nil
		},
	}
}
