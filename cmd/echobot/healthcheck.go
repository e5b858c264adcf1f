package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/runixer/botapi/internal/config"
)

func newHealthcheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe /healthz of a running echobot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, _ := cmd.Flags().GetString("host")
			// A broken config should not stop the probe: the env var or the
			// default port may still point at the running process.
			port := config.DefaultListenPort
			if cfg, err := loadConfig(cmd); err == nil && cfg.Server.ListenPort != "" {
				port = cfg.Server.ListenPort
			}
			return probe(cmd, fmt.Sprintf("http://%s:%s/healthz", host, port))
		},
	}
	cmd.Flags().String("host", "localhost", "host the bot listens on")
	return cmd
}

func probe(cmd *cobra.Command, url string) error {
	req, err := http.NewRequestWithContext(commandContext(cmd), http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck returned status: %d", resp.StatusCode)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return nil
}
