package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/avi-assistant/avicore/kernel"
	"github.com/avi-assistant/avicore/transport"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the engine and its Connect ingress",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "Listen address, e.g. :7070 (overrides config)")
	cmd.Flags().String("nlu", "", "NLU endpoint URL (overrides config)")

	rootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Transport.Addr = addr
	}
	if nlu, _ := cmd.Flags().GetString("nlu"); nlu != "" {
		cfg.NLU.URL = nlu
	}

	logger := newLogger()
	k, err := kernel.New(cfg, kernel.WithLogger(logger))
	if err != nil {
		return err
	}
	defer k.Close()

	var services []func(context.Context) error
	if cfg.Transport.Addr != "" {
		services = append(services, transport.NewServer(cfg.Transport.Addr, k, logger).Serve)
	} else {
		logger.Warn("no transport address configured, only running background tasks")
	}

	return k.Run(cmd.Context(), services...)
}
