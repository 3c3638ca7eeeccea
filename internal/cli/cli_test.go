package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/scrumsim"
	"github.com/randalmurphal/scrumsim/config"
	clierrors "github.com/randalmurphal/scrumsim/errors"
	"github.com/randalmurphal/scrumsim/script"
	"github.com/randalmurphal/scrumsim/testutil"
	"github.com/randalmurphal/scrumsim/transcript"
)

type testEnv struct {
	deps    *Dependencies
	out     *bytes.Buffer
	errOut  *bytes.Buffer
	dataDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	home := t.TempDir()
	data := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SCRUMSIM_DATA_DIR", data)
	t.Setenv("SCRUMSIM_LOCAL_TTS_COMMAND", "scrumsim-test-missing-tts {out} {text}")
	t.Setenv("SCRUMSIM_PLAYER_COMMAND", "scrumsim-test-missing-player {file}")
	t.Setenv("SCRUMSIM_READING_MIN", "1ms")
	t.Setenv("SCRUMSIM_READING_WPM", "1000000")

	resolver := config.NewResolverWithPaths(config.ResolverConfig{
		EnvPrefix: config.EnvPrefix,
		Defaults:  config.Defaults(),
		ValidKeys: config.Keys(),
	}, filepath.Join(home, ".config", config.AppDir, "config.yaml"), "")

	env := &testEnv{out: &bytes.Buffer{}, errOut: &bytes.Buffer{}, dataDir: data}
	env.deps = &Dependencies{
		Out:        env.out,
		Err:        env.errOut,
		Resolver:   resolver,
		SaveConfig: config.AppSaveConfig(),
		ServiceOptions: []scrumsim.Option{
			scrumsim.WithPlayer(testutil.NewAutoPlayer(time.Millisecond)),
		},
	}
	return env
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	e.out.Reset()
	cmd := NewRootCmd(e.deps)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(testutil.TestContextWithTimeout(t, 10*time.Second))
	return e.out.String(), err
}

func (e *testEnv) archive(t *testing.T) *transcript.FileStore {
	t.Helper()
	store, err := transcript.NewFileStore(transcript.StoreConfig{BaseDir: filepath.Join(e.dataDir, "meetings")})
	require.NoError(t, err)
	return store
}

func TestPlay_PlainStreamsMeetingAndArchives(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "play", "--plain", "refinement")
	require.NoError(t, err)

	assert.Contains(t, out, "Backlog Refinement")
	assert.Contains(t, out, "Sarah:")
	assert.Contains(t, out, "TICKET-101 → ready")
	assert.Contains(t, out, "Meeting complete")

	metas, err := env.archive(t).List(transcript.ListFilter{})
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "refinement", metas[0].ScriptID)
	assert.Equal(t, transcript.StatusCompleted, metas[0].Status)
	assert.Contains(t, out, metas[0].SessionID)
}

func TestPlay_UnknownScript(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "play", "--plain", "retro-of-doom")
	require.Error(t, err)
	assert.ErrorIs(t, err, script.ErrScriptNotFound)

	var cliErr *clierrors.CLIError
	assert.True(t, errors.As(err, &cliErr), "error should carry a suggestion, got %T", err)
}

func TestTranscripts_AfterPlay(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.run(t, "play", "--plain", "sprint-planning")
	require.NoError(t, err)

	metas, err := env.archive(t).List(transcript.ListFilter{})
	require.NoError(t, err)
	require.Len(t, metas, 1)
	id := metas[0].SessionID

	out, err := env.run(t, "transcripts", "list", "--script", "sprint-planning")
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "Total: 1 meetings")

	out, err = env.run(t, "transcripts", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Sprint Planning")

	out, err = env.run(t, "transcripts", "export", id, "--format", "json")
	require.NoError(t, err)
	var exported transcript.Meeting
	require.NoError(t, json.Unmarshal([]byte(out), &exported))
	assert.Equal(t, id, exported.SessionID)
	assert.NotEmpty(t, exported.Entries)

	_, err = env.run(t, "transcripts", "export", id, "--format", "pdf")
	assert.Error(t, err)

	out, err = env.run(t, "transcripts", "search", "guest checkout")
	require.NoError(t, err)
	assert.Contains(t, out, "sprint-planning")

	_, err = env.run(t, "transcripts", "delete", id)
	require.NoError(t, err)
	_, err = env.run(t, "transcripts", "show", id)
	assert.ErrorIs(t, err, transcript.ErrSessionNotFound)
}

func TestScripts_ListAndCheck(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "scripts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "refinement")
	assert.Contains(t, out, "sprint-planning")

	out, err = env.run(t, "scripts", "check")
	require.NoError(t, err)
	assert.NotContains(t, out, "❌")

	dir := t.TempDir()
	bad := []byte("id: broken\ntitle: Broken\nparticipants:\n  - id: sarah\nsegments:\n  - {id: s1, speaker: ghost, text: Hello}\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), bad, 0o644))

	out, err = env.run(t, "--scripts-dir", dir, "scripts", "check", "broken", "refinement")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 scripts")
	assert.Contains(t, out, "❌ broken")
	assert.Contains(t, out, "✅ refinement")
}

func TestConfig_SetAndList(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "config", "set", "board", "github")
	require.NoError(t, err)
	_, err = env.run(t, "config", "set", "synth_api_key", "sk-test-0123456789")
	require.NoError(t, err)

	out, err := env.run(t, "config", "list")
	require.NoError(t, err)
	assert.Regexp(t, `board\s+github\s+\[global\]`, out)
	assert.NotContains(t, out, "sk-test-0123456789", "secrets must be redacted")
	assert.Regexp(t, `data_dir\s+\S+\s+\[env\]`, out)

	_, err = env.run(t, "config", "set", "colour", "blue")
	assert.ErrorIs(t, err, config.ErrUnknownKey)

	_, err = env.run(t, "config", "unset", "board")
	require.NoError(t, err)
	out, err = env.run(t, "config", "list")
	require.NoError(t, err)
	assert.Regexp(t, `board\s+memory\s+\[default\]`, out)
}

func TestBoardFlagOverridesConfig(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "--board", "trello", "play", "--plain", "refinement")
	assert.ErrorIs(t, err, config.ErrInvalidSetting)
	assert.Contains(t, err.Error(), "trello")
}

func TestPregen_RequiresGateway(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "pregen", "refinement")
	require.Error(t, err)
	assert.ErrorIs(t, err, scrumsim.ErrNoSource)
	assert.Contains(t, err.Error(), "speech gateway is not configured")
}

func TestDoctor(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "doctor")
	require.NoError(t, err)
	for _, want := range []string{"Configuration:", "Scripts:", "Audio:", "Board:", "Archive:"} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "❌ local synthesis: scrumsim-test-missing-tts not found")
	assert.Contains(t, out, "❌ speech gateway")
	assert.Contains(t, out, "✅ refinement")
}
