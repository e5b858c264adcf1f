package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/runixer/botapi/internal/app"
	"github.com/runixer/botapi/internal/config"
	"github.com/runixer/botapi/internal/logging"
)

const defaultConfigPath = "configs/config.yaml"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "echobot",
		Short:         "Telegram echo bot driven by long polling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.LoadEnv(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringP("config", "c", defaultConfigPath, "path to config file")

	root.AddCommand(
		newRunCmd(),
		newHealthcheckCmd(),
		newVersionCmd(),
		newConfigCmd(),
	)
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start polling and serve /healthz and /metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer logger.Close()
			slog.SetDefault(logger.Logger)
			logger.Info("Starting echobot", "version", Version)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			services, err := app.Setup(ctx, logger.Logger, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := services.Close(); err != nil {
					logger.Error("failed to close services", "error", err)
				}
			}()

			if err := services.Run(ctx); err != nil {
				return err
			}
			logger.Info("Shutdown complete")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "echobot", Version)
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(config.DefaultConfigBytes())
			return err
		},
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// commandContext gives commands a context when Execute was called without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
