package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/avi-assistant/avicore/skills"
	"github.com/avi-assistant/avicore/transport"
)

func init() {
	skillsCmd := &cobra.Command{
		Use:   "skills",
		Short: "Inspect installed skills",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List skills and their load status",
		Args:  cobra.NoArgs,
		RunE:  runSkillsList,
	}

	skillsCmd.AddCommand(list)
	rootCmd.AddCommand(skillsCmd)
}

func runSkillsList(cmd *cobra.Command, _ []string) error {
	var infos []transport.SkillInfo

	if remoteURL != "" {
		list, err := transport.NewClient(nil, remoteURL).ListSkills(cmd.Context())
		if err != nil {
			return err
		}
		infos = list
	} else {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		reg, err := skills.Load(cmd.Context(), cfg.Skills.Path,
			skills.WithLoadLogger(newLogger()),
			skills.WithConcurrency(cfg.Skills.Concurrency),
		)
		if err != nil {
			return err
		}
		for _, s := range reg.List() {
			info := transport.SkillInfo{ID: s.ID, Name: s.Manifest.Name, Status: s.Status.String()}
			if s.Err != nil {
				info.Error = s.Err.Error()
			}
			infos = append(infos, info)
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTATUS\tERROR")
	for _, s := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Status, s.Error)
	}
	return w.Flush()
}
