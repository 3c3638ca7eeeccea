package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	clierrors "github.com/randalmurphal/scrumsim/errors"
	"github.com/randalmurphal/scrumsim/internal/output"
	"github.com/randalmurphal/scrumsim/internal/tui"
	"github.com/randalmurphal/scrumsim/meeting"
	"github.com/randalmurphal/scrumsim/script"
	"github.com/randalmurphal/scrumsim/sideeffect"
	"github.com/randalmurphal/scrumsim/transcript"
)

// LogFileName receives logs while the full-screen player owns the terminal.
const LogFileName = "scrumsim.log"

func NewPlayCmd(deps *Dependencies) *cobra.Command {
	var plain bool
	var silent bool

	cmd := &cobra.Command{
		Use:   "play <script>",
		Short: "Play a scripted meeting",
		Long:  "Play a scripted meeting turn by turn.\nPress p or space to pause and resume, q or Ctrl+C to leave the meeting.\nUse --plain to stream the transcript as text instead.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := deps.settings(cmd)
			if err != nil {
				return err
			}

			interactive := deps.Interactive && !plain
			logw := deps.Err
			if interactive {
				f, err := openLog(settings.DataDir)
				if err != nil {
					return err
				}
				defer f.Close()
				logw = f
			}

			svc, err := deps.services(cmd, settings, logw)
			if err != nil {
				return err
			}

			doc, err := svc.Scripts.Load(args[0])
			if err != nil {
				return clierrors.WrapScriptError(err, args[0])
			}

			newMeeting := svc.NewMeeting
			if silent {
				newMeeting = svc.NewSilentMeeting
			}
			seq, err := newMeeting(doc)
			if err != nil {
				return clierrors.WrapScriptError(err, args[0])
			}

			if interactive {
				return playInteractive(cmd.Context(), deps.Out, seq, doc)
			}
			return playPlain(cmd.Context(), deps.Out, seq, doc)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "Stream the transcript as text instead of the full-screen view")
	cmd.Flags().BoolVar(&silent, "silent", false, "Do not synthesize or play audio; wait out cached clip lengths or reading time")

	return cmd
}

func openLog(dataDir string) (*os.File, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dataDir, LogFileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// playPlain streams the meeting as text. An interrupt cancels the session.
func playPlain(ctx context.Context, w io.Writer, seq *meeting.Sequencer, doc *script.Document) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	formatter := output.NewFormatter(w)
	formatter.MeetingStarted(doc.Script.Title(), doc.Script.Len())

	cb := meeting.Callbacks{
		OnTranscript: formatter.Entry,
		OnSideEffect: formatter.SideEffect,
	}
	if err := seq.StartDocument(ctx, doc, cb); err != nil {
		return err
	}

	report, err := seq.Wait(context.WithoutCancel(ctx))
	if err != nil {
		return fmt.Errorf("meeting %s: %w", doc.Script.ID(), err)
	}
	formatter.MeetingEnded(report)
	return nil
}

func playInteractive(ctx context.Context, w io.Writer, seq *meeting.Sequencer, doc *script.Document) error {
	p := tea.NewProgram(tui.New(seq, doc), tea.WithAltScreen(), tea.WithContext(ctx))

	relay := tui.NewSpeakerRelay()
	seq.Controller().SetSpeakerFunc(relay.Signal)
	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	go relay.Run(relayCtx, p.Send)

	cb := meeting.Callbacks{
		OnTranscript: func(e transcript.Entry) { p.Send(tui.EntryMsg(e)) },
		OnSideEffect: func(r sideeffect.Result) { p.Send(tui.EffectMsg(r)) },
	}
	if err := seq.StartDocument(ctx, doc, cb); err != nil {
		return err
	}
	go func() {
		report, err := seq.Wait(context.WithoutCancel(ctx))
		p.Send(tui.DoneMsg{Report: report, Err: err})
	}()

	final, runErr := p.Run()
	m, _ := final.(tui.Model)
	res, ok := m.Result()
	if !ok {
		// The view ended without seeing the session finish.
		_ = seq.Cancel()
		report, err := seq.Wait(context.WithoutCancel(ctx))
		res = tui.DoneMsg{Report: report, Err: err}
	}
	if runErr != nil && !ok {
		return fmt.Errorf("run meeting view: %w", runErr)
	}
	if res.Err != nil {
		return fmt.Errorf("meeting %s: %w", doc.Script.ID(), res.Err)
	}

	output.NewFormatter(w).MeetingEnded(res.Report)
	return nil
}
