package cli

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/scrumsim/auth"
	"github.com/randalmurphal/scrumsim/config"
	"github.com/randalmurphal/scrumsim/internal/output"
	"github.com/randalmurphal/scrumsim/transcript"
)

func NewDoctorCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, audio tools and scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := output.NewFormatter(deps.Out)
			resolved := deps.resolve(cmd)

			f.Section("Configuration")
			f.SetupCheck("global file", fileExists(deps.Resolver.GlobalPath()), pathOrNone(deps.Resolver.GlobalPath()))
			f.SetupCheck("local file", fileExists(deps.Resolver.LocalPath()), pathOrNone(deps.Resolver.LocalPath()))
			for _, key := range config.SecretKeys() {
				v, src := resolved.GetWithSource(key)
				f.SetupCheck(key, v != "", fmt.Sprintf("%s [%s]", auth.Redact(v), src))
			}

			settings, err := config.ParseSettings(resolved)
			if err != nil {
				f.SetupCheck("settings", false, err.Error())
				return nil
			}

			f.Section("Scripts")
			loader := deps.loader(settings)
			if names, err := loader.List(); err != nil {
				f.SetupCheck("scripts", false, err.Error())
			} else {
				checkScripts(loader, names, f)
			}

			f.Section("Audio")
			svc, svcErr := deps.services(cmd, settings, deps.Err)
			if svcErr == nil {
				entries, err := svc.Cache.Entries()
				if err != nil {
					f.SetupCheck("cache", false, err.Error())
				} else {
					f.SetupCheck("cache", true, fmt.Sprintf("%d clips in %s", len(entries), svc.Cache.Dir()))
				}
				if svc.Synth.Available() {
					f.SetupCheck("speech gateway", true, settings.SynthURL)
				} else {
					f.SetupCheck("speech gateway", false, "not configured; lines will use cached or local audio")
				}
			}
			checkCommand(f, "local synthesis", settings.LocalTTSCommand)
			checkCommand(f, "audio player", settings.PlayerCommand)

			f.Section("Board")
			if svcErr != nil {
				f.SetupCheck(settings.Board, false, svcErr.Error())
			} else {
				f.SetupCheck(svc.Board.Name(), true, boardDetail(settings))
			}

			f.Section("Archive")
			store, err := deps.archive(settings)
			if err != nil {
				f.SetupCheck("meetings", false, err.Error())
				return nil
			}
			metas, err := store.List(transcript.ListFilter{})
			if err != nil {
				f.SetupCheck("meetings", false, err.Error())
				return nil
			}
			f.SetupCheck("meetings", true, fmt.Sprintf("%d archived in %s", len(metas), store.BaseDir()))
			return nil
		},
	}
}

func checkCommand(f *output.Formatter, name string, command []string) {
	if len(command) == 0 {
		f.SetupCheck(name, false, "no command configured")
		return
	}
	path, err := exec.LookPath(command[0])
	if err != nil {
		f.SetupCheck(name, false, command[0]+" not found in PATH")
		return
	}
	f.SetupCheck(name, true, path)
}

func boardDetail(s config.Settings) string {
	if url := boardURL(s); url != "" {
		return url
	}
	return "in-memory, changes last for one meeting"
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func pathOrNone(path string) string {
	if path == "" {
		return "(none)"
	}
	return path
}
