package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/avi-assistant/avicore/memory"
	"github.com/avi-assistant/avicore/transport"
)

// contextBackend is either a running node or the local persisted store.
type contextBackend interface {
	Get(ctx context.Context, scope, key string) (json.RawMessage, error)
	Set(ctx context.Context, entry transport.ContextEntry) error
	Remove(ctx context.Context, scope, key string) error
	Sweep(ctx context.Context) error
	Close() error
}

func init() {
	contextCmd := &cobra.Command{
		Use:   "context",
		Short: "Inspect and edit conversation context",
	}
	contextCmd.PersistentFlags().StringP("scope", "s", "global", `Scope: "global" or "skill_<name>"`)

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Print a context value as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: withBackend(func(cmd *cobra.Command, b contextBackend, scope string, args []string) error {
			raw, err := b.Get(cmd.Context(), scope, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(raw))
			return nil
		}),
	}

	set := &cobra.Command{
		Use:   "set <key> <json-value>",
		Short: "Store a context value",
		Args:  cobra.ExactArgs(2),
		RunE: withBackend(func(cmd *cobra.Command, b contextBackend, scope string, args []string) error {
			var value any
			if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
				value = args[1]
			}
			ttl, _ := cmd.Flags().GetString("ttl")
			persistent, _ := cmd.Flags().GetBool("persistent")
			return b.Set(cmd.Context(), transport.ContextEntry{
				ContextKey: transport.ContextKey{Scope: scope, Key: args[0]},
				Value:      value,
				TTL:        ttl,
				Persistent: persistent,
			})
		}),
	}
	set.Flags().String("ttl", "", "Time to live, e.g. 30m, 24h, 7d")
	set.Flags().BoolP("persistent", "p", false, "Also write the value to the persistent tier")

	rm := &cobra.Command{
		Use:   "rm <key>",
		Short: "Delete the persisted copy of a context value",
		Args:  cobra.ExactArgs(1),
		RunE: withBackend(func(cmd *cobra.Command, b contextBackend, scope string, args []string) error {
			return b.Remove(cmd.Context(), scope, args[0])
		}),
	}

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Drop expired context values",
		Args:  cobra.NoArgs,
		RunE: withBackend(func(cmd *cobra.Command, b contextBackend, _ string, _ []string) error {
			return b.Sweep(cmd.Context())
		}),
	}

	contextCmd.AddCommand(get, set, rm, sweep)
	rootCmd.AddCommand(contextCmd)
}

func withBackend(fn func(*cobra.Command, contextBackend, string, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		scope, _ := cmd.Flags().GetString("scope")
		b, err := openContextBackend()
		if err != nil {
			return err
		}
		defer b.Close()
		return fn(cmd, b, scope, args)
	}
}

func openContextBackend() (contextBackend, error) {
	if remoteURL != "" {
		return remoteContext{transport.NewClient(nil, remoteURL)}, nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Memory.Path == "" {
		return nil, fmt.Errorf("no context persistence configured; use --memory or --remote")
	}
	p, err := memory.NewPersister(&cfg.Memory)
	if err != nil {
		return nil, err
	}
	return localContext{memory.NewContextStore(p, memory.WithLogger(newLogger()))}, nil
}

type remoteContext struct {
	client *transport.Client
}

func (r remoteContext) Get(ctx context.Context, scope, key string) (json.RawMessage, error) {
	return r.client.GetContext(ctx, scope, key)
}

func (r remoteContext) Set(ctx context.Context, entry transport.ContextEntry) error {
	return r.client.SetContext(ctx, entry)
}

func (r remoteContext) Remove(ctx context.Context, scope, key string) error {
	return r.client.RemoveContext(ctx, scope, key)
}

func (r remoteContext) Sweep(ctx context.Context) error {
	return r.client.SweepContext(ctx)
}

func (remoteContext) Close() error { return nil }

// localContext works on the persistent tier only; values a running node
// holds in memory are not visible.
type localContext struct {
	store *memory.ContextStore
}

func (l localContext) Get(ctx context.Context, scope, key string) (json.RawMessage, error) {
	s, err := parseScope(scope)
	if err != nil {
		return nil, err
	}
	raw, ok := l.store.Get(ctx, s, key)
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", memory.ErrKeyNotFound, scope, key)
	}
	return raw, nil
}

func (l localContext) Set(ctx context.Context, entry transport.ContextEntry) error {
	s, err := parseScope(entry.Scope)
	if err != nil {
		return err
	}
	var ttl *time.Duration
	if entry.TTL != "" {
		d, err := memory.ParseTTL(entry.TTL)
		if err != nil {
			return err
		}
		ttl = &d
	}
	l.store.Set(ctx, s, entry.Key, entry.Value, ttl, true)
	return nil
}

func (l localContext) Remove(ctx context.Context, scope, key string) error {
	s, err := parseScope(scope)
	if err != nil {
		return err
	}
	l.store.Remove(ctx, s, key)
	return nil
}

func (l localContext) Sweep(ctx context.Context) error {
	l.store.CleanupExpired(ctx)
	return nil
}

func (l localContext) Close() error {
	return l.store.Close()
}

func parseScope(key string) (memory.Scope, error) {
	s, ok := memory.ParseScope(key)
	if !ok {
		return memory.Scope{}, fmt.Errorf("unknown scope %q", key)
	}
	return s, nil
}
