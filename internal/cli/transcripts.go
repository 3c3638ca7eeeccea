package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	clierrors "github.com/randalmurphal/scrumsim/errors"
	"github.com/randalmurphal/scrumsim/internal/output"
	"github.com/randalmurphal/scrumsim/transcript"
)

func NewTranscriptsCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transcripts",
		Aliases: []string{"history"},
		Short:   "Browse archived meetings",
	}
	cmd.AddCommand(newTranscriptsListCmd(deps))
	cmd.AddCommand(newTranscriptsShowCmd(deps))
	cmd.AddCommand(newTranscriptsExportCmd(deps))
	cmd.AddCommand(newTranscriptsSearchCmd(deps))
	cmd.AddCommand(newTranscriptsDeleteCmd(deps))
	return cmd
}

func (d *Dependencies) openArchive(cmd *cobra.Command) (*transcript.FileStore, error) {
	settings, err := d.settings(cmd)
	if err != nil {
		return nil, err
	}
	store, err := d.archive(settings)
	if err != nil {
		return nil, fmt.Errorf("open meeting archive: %w", err)
	}
	return store, nil
}

func newTranscriptsListCmd(deps *Dependencies) *cobra.Command {
	var scriptID, status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived meetings, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.openArchive(cmd)
			if err != nil {
				return err
			}
			metas, err := store.List(transcript.ListFilter{
				ScriptID: scriptID,
				Status:   transcript.Status(status),
				Limit:    limit,
			})
			if err != nil {
				return err
			}
			return transcript.NewViewer(deps.Interactive).FormatMetaList(deps.Out, metas)
		},
	}

	cmd.Flags().StringVar(&scriptID, "script", "", "Only meetings of this script")
	cmd.Flags().StringVar(&status, "status", "", "Only meetings with this status (completed, canceled, failed, running)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum meetings to list (0 for all)")
	return cmd
}

func newTranscriptsShowCmd(deps *Dependencies) *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Show an archived meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.openArchive(cmd)
			if err != nil {
				return err
			}
			m, err := store.Load(args[0])
			if err != nil {
				return clierrors.WrapArchiveError(err, args[0])
			}

			viewer := transcript.NewViewer(deps.Interactive)
			if summary {
				return viewer.ViewSummary(deps.Out, m)
			}
			return viewer.ViewFull(deps.Out, m)
		},
	}

	cmd.Flags().BoolVar(&summary, "summary", false, "Show only the header and counts")
	return cmd
}

func newTranscriptsExportCmd(deps *Dependencies) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <session-id>",
		Short: "Export an archived meeting as Markdown or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.openArchive(cmd)
			if err != nil {
				return err
			}
			m, err := store.Load(args[0])
			if err != nil {
				return clierrors.WrapArchiveError(err, args[0])
			}

			viewer := transcript.NewViewer(false)
			switch strings.ToLower(format) {
			case "md", "markdown":
				return viewer.ExportMarkdown(deps.Out, m)
			case "json":
				return viewer.ExportJSON(deps.Out, m)
			default:
				return fmt.Errorf("unknown export format %q (want md or json)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "md", "Output format: md or json")
	return cmd
}

func newTranscriptsSearchCmd(deps *Dependencies) *cobra.Command {
	var opts transcript.SearchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search archived transcripts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.openArchive(cmd)
			if err != nil {
				return err
			}
			results, err := transcript.NewSearcher(store).Search(args[0], opts)
			if err != nil {
				return err
			}

			formatter := output.NewFormatter(deps.Out)
			if len(results) == 0 {
				formatter.Info(fmt.Sprintf("No lines match %q", args[0]))
				return nil
			}
			for _, r := range results {
				formatter.SearchResult(r)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.CaseSensitive, "case-sensitive", "c", false, "Match case")
	cmd.Flags().StringVar(&opts.Speaker, "speaker", "", "Only lines by this speaker")
	cmd.Flags().StringVar(&opts.ScriptID, "script", "", "Only meetings of this script")
	cmd.Flags().IntVarP(&opts.MaxResults, "limit", "n", 50, "Maximum results (0 for all)")
	return cmd
}

func newTranscriptsDeleteCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete an archived meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := deps.openArchive(cmd)
			if err != nil {
				return err
			}
			if _, err := store.LoadMetadata(args[0]); err != nil {
				return clierrors.WrapArchiveError(err, args[0])
			}
			if err := store.Delete(args[0]); err != nil {
				return clierrors.WrapArchiveError(err, args[0])
			}
			output.NewFormatter(deps.Out).Success("Deleted " + args[0])
			return nil
		},
	}
}
