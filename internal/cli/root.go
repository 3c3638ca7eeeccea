// Package cli implements the scrumsim commands.
package cli

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/scrumsim"
	"github.com/randalmurphal/scrumsim/config"
	clierrors "github.com/randalmurphal/scrumsim/errors"
	"github.com/randalmurphal/scrumsim/internal/version"
	"github.com/randalmurphal/scrumsim/script"
	"github.com/randalmurphal/scrumsim/transcript"
)

type Dependencies struct {
	Out io.Writer
	Err io.Writer

	Resolver   *config.Resolver
	SaveConfig config.SaveConfig

	// ServiceOptions are appended when services are built.
	ServiceOptions []scrumsim.Option

	// Interactive enables the full-screen player and colored output.
	Interactive bool
}

// Persistent flags and the config keys they override.
var flagKeys = map[string]string{
	"data-dir":    config.KeyDataDir,
	"scripts-dir": config.KeyScriptsDir,
	"board":       config.KeyBoard,
	"log-level":   config.KeyLogLevel,
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "scrumsim",
		Short:         "Practice agile meetings with a scripted team",
		Long:          "scrumsim plays scripted Scrum meetings: synthetic teammates speak their lines, the transcript builds up as they talk, and the board changes when the conversation says so.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")
	rootCmd.SetOut(deps.Out)
	rootCmd.SetErr(deps.Err)

	pf := rootCmd.PersistentFlags()
	pf.String("data-dir", "", "Directory for the audio cache and meeting archive")
	pf.String("scripts-dir", "", "Extra directories to search for scripts (colon separated)")
	pf.String("board", "", "Board for side effects: memory, github, gitlab or jira")
	pf.String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(NewPlayCmd(deps))
	rootCmd.AddCommand(NewScriptsCmd(deps))
	rootCmd.AddCommand(NewTranscriptsCmd(deps))
	rootCmd.AddCommand(NewPregenCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))
	rootCmd.AddCommand(NewConfigCmd(deps))

	return rootCmd
}

// resolve merges files, the environment and any flags set on cmd.
func (d *Dependencies) resolve(cmd *cobra.Command) *config.Resolved {
	flags := make(map[string]string)
	for name, key := range flagKeys {
		if f := cmd.Flag(name); f != nil && f.Changed {
			flags[key] = f.Value.String()
		}
	}
	return d.Resolver.ResolveWithFlags(flags)
}

func (d *Dependencies) settings(cmd *cobra.Command) (config.Settings, error) {
	settings, err := config.ParseSettings(d.resolve(cmd))
	if err != nil {
		return config.Settings{}, clierrors.WrapConfigError(err)
	}
	return settings, nil
}

// services builds the full component set, logging to logw.
func (d *Dependencies) services(cmd *cobra.Command, settings config.Settings, logw io.Writer) (*scrumsim.Services, error) {
	logger := slog.New(slog.NewTextHandler(logw, &slog.HandlerOptions{Level: settings.LogLevel}))
	opts := append([]scrumsim.Option{scrumsim.WithLogger(logger)}, d.ServiceOptions...)

	svc, err := scrumsim.NewServices(cmd.Context(), settings, opts...)
	if err != nil {
		return nil, clierrors.WrapServiceError(err, settings.Board, boardURL(settings))
	}
	return svc, nil
}

func (d *Dependencies) loader(settings config.Settings) *script.Loader {
	return script.NewLoader(settings.ScriptsDirs...)
}

func (d *Dependencies) archive(settings config.Settings) (*transcript.FileStore, error) {
	return transcript.NewFileStore(transcript.StoreConfig{BaseDir: settings.ArchiveDir()})
}

func boardURL(s config.Settings) string {
	switch s.Board {
	case config.BoardGitHub:
		return "https://github.com/" + s.GitHubOwner + "/" + s.GitHubRepo
	case config.BoardGitLab:
		return s.GitLabURL
	case config.BoardJira:
		return s.JiraURL
	}
	return ""
}
