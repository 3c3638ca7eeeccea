package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/scrumsim/auth"
	"github.com/randalmurphal/scrumsim/config"
	clierrors "github.com/randalmurphal/scrumsim/errors"
	"github.com/randalmurphal/scrumsim/internal/output"
)

func NewConfigCmd(deps *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change settings",
	}
	cmd.AddCommand(newConfigListCmd(deps))
	cmd.AddCommand(newConfigSetCmd(deps))
	cmd.AddCommand(newConfigUnsetCmd(deps))
	return cmd
}

func newConfigListCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every setting with its source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved := deps.resolve(cmd)
			secrets := config.SecretKeys()

			f := output.NewFormatter(deps.Out)
			for _, key := range resolved.Keys() {
				v, src := resolved.GetWithSource(key)
				if slices.Contains(secrets, key) && v != "" {
					v = auth.Redact(v)
				}
				f.ConfigValue(key, v, src)
			}
			return nil
		},
	}
}

func newConfigSetCmd(deps *Dependencies) *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Save a setting to the global or local config file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			var err error
			where := "global"
			if local {
				where = "local"
				root := deps.Resolver.GitRoot()
				if root == "" {
					return errors.New("--local needs a git repository; run inside one or drop --local")
				}
				err = deps.SaveConfig.SaveLocal(root, key, value)
			} else {
				err = deps.SaveConfig.SaveGlobal(key, value)
			}
			if err != nil {
				return clierrors.WrapConfigError(err)
			}

			// Warn about values the settings parser cannot read.
			if _, err := config.ParseSettings(deps.resolve(cmd)); err != nil {
				output.NewFormatter(deps.Out).Warning(fmt.Sprintf("Saved %s, but the result does not parse: %v", key, err))
				return nil
			}
			output.NewFormatter(deps.Out).Success(fmt.Sprintf("Saved %s to %s config", key, where))
			return nil
		},
	}

	cmd.Flags().BoolVar(&local, "local", false, "Write to the repository's "+config.LocalConfigName)
	return cmd
}

func newConfigUnsetCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a setting from the global config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.SaveConfig.DeleteGlobalKey(args[0]); err != nil {
				return err
			}
			output.NewFormatter(deps.Out).Success("Removed " + args[0])
			return nil
		},
	}
}
