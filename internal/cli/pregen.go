package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/scrumsim"
	clierrors "github.com/randalmurphal/scrumsim/errors"
	"github.com/randalmurphal/scrumsim/internal/output"
)

func NewPregenCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "pregen <script>",
		Short: "Pre-generate and cache the audio of a script",
		Long:  "Ask the speech gateway for every line of a script that is not cached yet and store the clips, so later plays need no network.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := deps.settings(cmd)
			if err != nil {
				return err
			}
			svc, err := deps.services(cmd, settings, deps.Err)
			if err != nil {
				return err
			}
			doc, err := svc.Scripts.Load(args[0])
			if err != nil {
				return clierrors.WrapScriptError(err, args[0])
			}

			formatter := output.NewFormatter(deps.Out)
			formatter.Info(fmt.Sprintf("Caching %s in %s", doc.Script.Title(), svc.Cache.Dir()))

			sum, err := svc.Pregenerate(cmd.Context(), doc, formatter.Pregen)
			if errors.Is(err, scrumsim.ErrNoSource) {
				return &clierrors.CLIError{
					Err:        err,
					Message:    "The speech gateway is not configured",
					Suggestion: "Set synth_url and synth_api_key (or synth_jwt_secret) with 'scrumsim config set'.",
				}
			}
			if err != nil {
				return clierrors.WrapServiceError(err, "speech gateway", settings.SynthURL)
			}

			formatter.PregenSummary(sum)
			if sum.Failed > 0 {
				formatter.Warning("Some lines could not be generated; they will fall back to local synthesis or silence")
			}
			return nil
		},
	}
}
