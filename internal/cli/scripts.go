package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	clierrors "github.com/randalmurphal/scrumsim/errors"
	"github.com/randalmurphal/scrumsim/internal/output"
	"github.com/randalmurphal/scrumsim/script"
)

func NewScriptsCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scripts",
		Short: "List and check meeting scripts",
	}
	cmd.AddCommand(newScriptsListCmd(deps))
	cmd.AddCommand(newScriptsCheckCmd(deps))
	return cmd
}

func newScriptsListCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := deps.settings(cmd)
			if err != nil {
				return err
			}
			loader := deps.loader(settings)
			names, err := loader.List()
			if err != nil {
				return err
			}

			formatter := output.NewFormatter(deps.Out)
			if len(names) == 0 {
				formatter.Info("No scripts found")
				return nil
			}
			for _, name := range names {
				doc, err := loader.Load(name)
				if err != nil {
					formatter.Warning(fmt.Sprintf("%s: %v", name, err))
					continue
				}
				formatter.ScriptListItem(name, doc.Script.Title(), doc.Script.Len())
			}
			return nil
		},
	}
}

func newScriptsCheckCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "check [script...]",
		Short: "Validate scripts (all when none are named)",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := deps.settings(cmd)
			if err != nil {
				return err
			}
			loader := deps.loader(settings)

			names := args
			if len(names) == 0 {
				if names, err = loader.List(); err != nil {
					return err
				}
			}

			formatter := output.NewFormatter(deps.Out)
			bad := checkScripts(loader, names, formatter)
			if bad > 0 {
				return fmt.Errorf("%d of %d scripts have problems", bad, len(names))
			}
			return nil
		},
	}
}

// checkScripts loads and validates each named script, returning how many
// failed.
func checkScripts(loader *script.Loader, names []string, formatter *output.Formatter) int {
	bad := 0
	for _, name := range names {
		doc, err := loader.Load(name)
		if err != nil {
			formatter.SetupCheck(name, false, clierrors.WrapScriptError(err, name).Error())
			bad++
			continue
		}
		problems := script.Validate(doc)
		if len(problems) == 0 {
			formatter.SetupCheck(name, true, fmt.Sprintf("%d turns, %d participants", doc.Script.Len(), doc.Participants.Len()))
			continue
		}
		bad++
		formatter.SetupCheck(name, false, fmt.Sprintf("%d problems", len(problems)))
		for _, p := range problems {
			formatter.Detail(p.Error())
		}
	}
	return bad
}
