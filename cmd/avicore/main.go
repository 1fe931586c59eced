// Command avicore runs the conversation engine of an assistant node and
// talks to a running one.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avi-assistant/avicore/kernel"
	"github.com/avi-assistant/avicore/observability"
)

var (
	configFile string
	skillsPath string
	memoryPath string
	remoteURL  string
	observers  string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "avicore",
	Short:         "Conversation state and intent dispatch for an assistant node",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config JSON file")
	rootCmd.PersistentFlags().StringVar(&skillsPath, "skills", "", "Skills directory (overrides config)")
	rootCmd.PersistentFlags().StringVar(&memoryPath, "memory", "", "Context persistence directory (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&remoteURL, "remote", "r", "", "Talk to a running node at this URL instead of starting one")
	rootCmd.PersistentFlags().StringVar(&observers, "observer", "",
		fmt.Sprintf("Comma-separated event observers, from %s (overrides config)", strings.Join(observability.ObserverNames(), ", ")))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging to stderr")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// loadConfig reads --config when given, then applies flag overrides.
func loadConfig() (*kernel.Config, error) {
	cfg := kernel.DefaultConfig()
	if configFile != "" {
		loaded, err := kernel.LoadConfig(configFile)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}

	if skillsPath != "" {
		cfg.Skills.Path = skillsPath
	}
	if memoryPath != "" {
		cfg.Memory.Path = memoryPath
	}
	if observers != "" {
		cfg.Observer = observers
	}
	return &cfg, nil
}
