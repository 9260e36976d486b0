package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Harshitk-cp/mnemo/internal/buildconfig"
	"github.com/Harshitk-cp/mnemo/internal/config"
	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/Harshitk-cp/mnemo/internal/service"
	"github.com/spf13/cobra"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRememberCmd(opts *rootOptions) *cobra.Command {
	var (
		emotion    string
		importance int
		category   string
		tags       []string
		autoLink   bool
	)

	cmd := &cobra.Command{
		Use:   "remember <content>",
		Short: "Save a memory",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(cmd.Context(), opts.logger)
			if err != nil {
				return err
			}
			defer eng.Close()

			in := service.SaveInput{
				Content:    strings.Join(args, " "),
				Emotion:    domain.Emotion(emotion),
				Importance: importance,
				Category:   domain.Category(category),
				Tags:       tags,
			}
			var m *domain.Memory
			if autoLink {
				m, err = eng.deps.Memories.SaveWithAutoLink(cmd.Context(), in, config.LinkThreshold(), config.MaxAutoLinks())
			} else {
				m, err = eng.deps.Memories.Save(cmd.Context(), in)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), m)
		},
	}

	cmd.Flags().StringVar(&emotion, "emotion", string(domain.EmotionNeutral), "emotion tag")
	cmd.Flags().IntVar(&importance, "importance", domain.DefaultImportance, "importance from 1 to 5")
	cmd.Flags().StringVar(&category, "category", string(domain.CategoryDaily), "category tag")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "free-form tag, repeatable")
	cmd.Flags().BoolVar(&autoLink, "auto-link", false, "link to similar existing memories")
	return cmd
}

func newRecallCmd(opts *rootOptions) *cobra.Command {
	var (
		k          int
		chainDepth int
	)

	cmd := &cobra.Command{
		Use:   "recall <context>",
		Short: "Recall the memories most relevant to a context",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(cmd.Context(), opts.logger)
			if err != nil {
				return err
			}
			defer eng.Close()

			cue := strings.Join(args, " ")
			if chainDepth > 0 {
				chained, err := eng.deps.Memories.RecallWithChain(cmd.Context(), cue, k, chainDepth)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), chained)
			}
			results, err := eng.deps.Memories.Recall(cmd.Context(), cue, k)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().IntVarP(&k, "count", "k", service.DefaultRecallResults, "number of results")
	cmd.Flags().IntVar(&chainDepth, "chain-depth", 0, "also follow similarity links this many hops")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print memory statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(cmd.Context(), opts.logger)
			if err != nil {
				return err
			}
			defer eng.Close()

			stats, err := eng.deps.Memories.GetStats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), buildconfig.String())
			return err
		},
	}
}
