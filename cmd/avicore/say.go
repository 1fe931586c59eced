package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avi-assistant/avicore/kernel"
	"github.com/avi-assistant/avicore/speech"
	"github.com/avi-assistant/avicore/transport"
)

func init() {
	say := &cobra.Command{
		Use:   "say <text>",
		Short: "Process one utterance and print the outcome",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSay,
	}

	chat := &cobra.Command{
		Use:   "chat",
		Short: "Talk to a local engine line by line on stdin",
		Args:  cobra.NoArgs,
		RunE:  runChat,
	}

	for _, cmd := range []*cobra.Command{say, chat} {
		cmd.Flags().String("nlu", "", "NLU endpoint URL (overrides config)")
		rootCmd.AddCommand(cmd)
	}
}

func runSay(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")

	if remoteURL != "" {
		out, err := transport.NewClient(nil, remoteURL).ProcessText(cmd.Context(), text)
		if err != nil {
			return err
		}
		return printJSON(out)
	}

	k, err := localKernel(cmd)
	if err != nil {
		return err
	}
	defer k.Close()

	res, err := k.HandleUtterance(cmd.Context(), text)
	if err != nil {
		return err
	}
	k.Replies().Wait()
	return printJSON(transport.ResultOutcome(res))
}

func runChat(cmd *cobra.Command, _ []string) error {
	k, err := localKernel(cmd)
	if err != nil {
		return err
	}
	defer k.Close()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	fmt.Fprint(cmd.OutOrStdout(), "you> ")
	for scanner.Scan() {
		if text := strings.TrimSpace(scanner.Text()); text != "" {
			if _, err := k.HandleUtterance(cmd.Context(), text); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			}
			k.Replies().Wait()
		}
		if cmd.Context().Err() != nil {
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), "you> ")
	}
	return scanner.Err()
}

func localKernel(cmd *cobra.Command) (*kernel.Kernel, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if nlu, _ := cmd.Flags().GetString("nlu"); nlu != "" {
		cfg.NLU.URL = nlu
	}
	return kernel.New(cfg,
		kernel.WithLogger(newLogger()),
		kernel.WithSpeaker(speech.NewWriterSpeaker(cmd.OutOrStdout(), "avi> ")),
	)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
