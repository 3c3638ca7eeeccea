package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultLocalCommand synthesizes with espeak-ng. Placeholders {voice},
// {out} and {text} are substituted per argument.
var DefaultLocalCommand = []string{"espeak-ng", "-v", "{voice}", "-w", "{out}", "{text}"}

// LocalConfig configures on-device synthesis.
type LocalConfig struct {
	Command      []string
	DefaultVoice string
	// Voices maps speaker IDs to local voice names. Participant voice refs
	// belong to the gateway and are not passed to the local engine.
	Voices map[string]string
	Runner CommandRunner
	// TempDir holds synthesized files. Defaults to os.TempDir().
	TempDir string
}

// LocalProvider synthesizes speech with a local command. It is always
// attempted; a missing binary is reported as a failure.
type LocalProvider struct {
	cfg LocalConfig
}

// NewLocalProvider creates a local synthesis provider.
func NewLocalProvider(cfg LocalConfig) *LocalProvider {
	if len(cfg.Command) == 0 {
		cfg.Command = DefaultLocalCommand
	}
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}
	if cfg.DefaultVoice == "" {
		cfg.DefaultVoice = "en"
	}
	return &LocalProvider{cfg: cfg}
}

// Name implements Provider.
func (p *LocalProvider) Name() string { return "local-tts" }

// Source implements Provider.
func (p *LocalProvider) Source() Source { return SourceLocal }

// Available implements Provider.
func (p *LocalProvider) Available() bool { return true }

// Attempt implements Provider.
func (p *LocalProvider) Attempt(ctx context.Context, req Request) (*Clip, error) {
	bin := p.cfg.Command[0]
	if _, err := p.cfg.Runner.LookPath(bin); err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrProviderUnavailable, bin)
	}

	out, err := os.CreateTemp(p.cfg.TempDir, "scrumsim-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	outPath := out.Name()
	out.Close()

	voice := p.cfg.DefaultVoice
	if v, ok := p.cfg.Voices[req.SpeakerID]; ok && v != "" {
		voice = v
	}

	args := make([]string, 0, len(p.cfg.Command)-1)
	for _, a := range p.cfg.Command[1:] {
		a = strings.ReplaceAll(a, "{voice}", voice)
		a = strings.ReplaceAll(a, "{out}", outPath)
		a = strings.ReplaceAll(a, "{text}", req.Text)
		args = append(args, a)
	}

	if output, err := p.cfg.Runner.Run(ctx, bin, args...); err != nil {
		os.Remove(outPath)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s: %w: %s", filepath.Base(bin), err, strings.TrimSpace(string(output)))
	}

	data, err := os.ReadFile(outPath)
	os.Remove(outPath)
	if err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}

	return &Clip{
		Data:     data,
		Format:   FormatWAV,
		Source:   SourceLocal,
		Provider: p.Name(),
	}, nil
}
