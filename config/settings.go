package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Application file locations and environment prefix.
const (
	EnvPrefix       = "SCRUMSIM_"
	AppDir          = "scrumsim"
	LocalConfigName = ".scrumsim.yaml"
)

// Configuration keys.
const (
	KeyDataDir           = "data_dir"
	KeyScriptsDir        = "scripts_dir"
	KeyCacheDir          = "cache_dir"
	KeyCachePrefixLength = "cache_prefix_length"
	KeySynthURL          = "synth_url"
	KeySynthAPIKey       = "synth_api_key"
	KeySynthJWTSecret    = "synth_jwt_secret"
	KeySynthModel        = "synth_model"
	KeySynthFormat       = "synth_format"
	KeyLocalTTSCommand   = "local_tts_command"
	KeyLocalTTSVoice     = "local_tts_voice"
	KeyPlayerCommand     = "player_command"
	KeyProviderTimeout   = "provider_timeout"
	KeyReadingMin        = "reading_min"
	KeyReadingWPM        = "reading_wpm"
	KeyBoard             = "board"
	KeyGitHubToken       = "github_token"
	KeyGitHubRepo        = "github_repo"
	KeyGitLabToken       = "gitlab_token"
	KeyGitLabURL         = "gitlab_url"
	KeyGitLabProject     = "gitlab_project"
	KeyJiraURL           = "jira_url"
	KeyJiraEmail         = "jira_email"
	KeyJiraToken         = "jira_token"
	KeyJiraProject       = "jira_project"
	KeySlackWebhook      = "slack_webhook"
	KeyWebhookURL        = "webhook_url"
	KeyLogLevel          = "log_level"
)

// Board kinds.
const (
	BoardMemory = "memory"
	BoardGitHub = "github"
	BoardGitLab = "gitlab"
	BoardJira   = "jira"
)

// ErrInvalidSetting indicates a value that cannot be parsed for its key.
var ErrInvalidSetting = errors.New("invalid setting")

// Defaults returns the built-in value of every key.
func Defaults() map[string]string {
	return map[string]string{
		KeyDataDir:           "~/.local/share/scrumsim",
		KeyScriptsDir:        "",
		KeyCacheDir:          "",
		KeyCachePrefixLength: "50",
		KeySynthURL:          "",
		KeySynthAPIKey:       "",
		KeySynthJWTSecret:    "",
		KeySynthModel:        "",
		KeySynthFormat:       "mp3",
		KeyLocalTTSCommand:   "espeak-ng -v {voice} -w {out} {text}",
		KeyLocalTTSVoice:     "en",
		KeyPlayerCommand:     "ffplay -nodisp -autoexit -loglevel quiet {file}",
		KeyProviderTimeout:   "10s",
		KeyReadingMin:        "1.5s",
		KeyReadingWPM:        "180",
		KeyBoard:             BoardMemory,
		KeyGitHubToken:       "",
		KeyGitHubRepo:        "",
		KeyGitLabToken:       "",
		KeyGitLabURL:         "https://gitlab.com",
		KeyGitLabProject:     "",
		KeyJiraURL:           "",
		KeyJiraEmail:         "",
		KeyJiraToken:         "",
		KeyJiraProject:       "",
		KeySlackWebhook:      "",
		KeyWebhookURL:        "",
		KeyLogLevel:          "info",
	}
}

// Keys returns every configuration key in sorted order.
func Keys() []string {
	r := &Resolved{values: Defaults()}
	return r.Keys()
}

// SecretKeys lists keys that hold credentials.
func SecretKeys() []string {
	return []string{KeySynthAPIKey, KeySynthJWTSecret, KeyGitHubToken, KeyGitLabToken, KeyJiraToken, KeySlackWebhook}
}

// NewAppResolver returns the resolver for scrumsim's files and environment.
func NewAppResolver(errw io.Writer) *Resolver {
	return NewResolver(ResolverConfig{
		EnvPrefix:       EnvPrefix,
		GlobalConfigDir: AppDir,
		LocalConfigName: LocalConfigName,
		Defaults:        Defaults(),
		ValidKeys:       Keys(),
		ErrWriter:       errw,
	})
}

// AppSaveConfig returns the writer for `scrumsim config set`.
func AppSaveConfig() SaveConfig {
	return SaveConfig{
		GlobalConfigDir: AppDir,
		LocalConfigName: LocalConfigName,
		ValidKeys:       Keys(),
		Secrets:         SecretKeys(),
	}
}

// Settings is the typed form of a resolved configuration.
type Settings struct {
	DataDir           string
	ScriptsDirs       []string
	CacheDir          string
	CachePrefixLength int

	SynthURL       string
	SynthAPIKey    string
	SynthJWTSecret string
	SynthModel     string
	SynthFormat    string

	LocalTTSCommand []string
	LocalTTSVoice   string
	PlayerCommand   []string

	ProviderTimeout time.Duration
	ReadingMin      time.Duration
	ReadingWPM      int

	Board         string
	GitHubToken   string
	GitHubOwner   string
	GitHubRepo    string
	GitLabToken   string
	GitLabURL     string
	GitLabProject string
	JiraURL       string
	JiraEmail     string
	JiraToken     string
	JiraProject   string

	SlackWebhook string
	WebhookURL   string

	LogLevel slog.Level
}

// ArchiveDir is where finished meetings are stored.
func (s Settings) ArchiveDir() string {
	return filepath.Join(s.DataDir, "meetings")
}

// ParseSettings converts resolved string values into Settings. All parse
// failures are joined into one error.
func ParseSettings(r *Resolved) (Settings, error) {
	p := parser{r: r}

	s := Settings{
		DataDir:           expandHome(r.Get(KeyDataDir)),
		ScriptsDirs:       splitDirs(r.Get(KeyScriptsDir)),
		CacheDir:          expandHome(r.Get(KeyCacheDir)),
		CachePrefixLength: p.int(KeyCachePrefixLength),

		SynthURL:       r.Get(KeySynthURL),
		SynthAPIKey:    r.Get(KeySynthAPIKey),
		SynthJWTSecret: r.Get(KeySynthJWTSecret),
		SynthModel:     r.Get(KeySynthModel),
		SynthFormat:    r.Get(KeySynthFormat),

		LocalTTSCommand: strings.Fields(r.Get(KeyLocalTTSCommand)),
		LocalTTSVoice:   r.Get(KeyLocalTTSVoice),
		PlayerCommand:   strings.Fields(r.Get(KeyPlayerCommand)),

		ProviderTimeout: p.duration(KeyProviderTimeout),
		ReadingMin:      p.duration(KeyReadingMin),
		ReadingWPM:      p.int(KeyReadingWPM),

		Board:         strings.ToLower(r.Get(KeyBoard)),
		GitHubToken:   r.Get(KeyGitHubToken),
		GitLabToken:   r.Get(KeyGitLabToken),
		GitLabURL:     r.Get(KeyGitLabURL),
		GitLabProject: r.Get(KeyGitLabProject),
		JiraURL:       r.Get(KeyJiraURL),
		JiraEmail:     r.Get(KeyJiraEmail),
		JiraToken:     r.Get(KeyJiraToken),
		JiraProject:   strings.ToUpper(r.Get(KeyJiraProject)),

		SlackWebhook: r.Get(KeySlackWebhook),
		WebhookURL:   r.Get(KeyWebhookURL),
	}

	if s.CacheDir == "" && s.DataDir != "" {
		s.CacheDir = filepath.Join(s.DataDir, "cache")
	}

	if repo := r.Get(KeyGitHubRepo); repo != "" {
		owner, name, ok := strings.Cut(repo, "/")
		if !ok || owner == "" || name == "" {
			p.fail(KeyGitHubRepo, repo, "want owner/name")
		}
		s.GitHubOwner, s.GitHubRepo = owner, name
	}

	switch s.Board {
	case "", BoardMemory:
		s.Board = BoardMemory
	case BoardGitHub:
		if s.GitHubToken == "" || s.GitHubRepo == "" {
			p.fail(KeyBoard, s.Board, "requires github_token and github_repo")
		}
	case BoardGitLab:
		if s.GitLabToken == "" || s.GitLabProject == "" {
			p.fail(KeyBoard, s.Board, "requires gitlab_token and gitlab_project")
		}
	case BoardJira:
		if s.JiraURL == "" || s.JiraToken == "" {
			p.fail(KeyBoard, s.Board, "requires jira_url and jira_token")
		}
	default:
		p.fail(KeyBoard, s.Board, "want memory, github, gitlab or jira")
	}

	if err := s.LogLevel.UnmarshalText([]byte(r.Get(KeyLogLevel))); err != nil {
		p.fail(KeyLogLevel, r.Get(KeyLogLevel), "want debug, info, warn or error")
	}
	if s.ReadingWPM <= 0 {
		p.fail(KeyReadingWPM, r.Get(KeyReadingWPM), "must be positive")
	}

	return s, errors.Join(p.errs...)
}

type parser struct {
	r    *Resolved
	errs []error
}

func (p *parser) fail(key, value, why string) {
	p.errs = append(p.errs, fmt.Errorf("%w: %s=%q (%s, from %s)", ErrInvalidSetting, key, value, why, p.r.Source(key)))
}

func (p *parser) int(key string) int {
	v := p.r.Get(key)
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, "want an integer")
	}
	return n
}

func (p *parser) duration(key string) time.Duration {
	v := p.r.Get(key)
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, "want a duration like 1.5s")
	}
	return d
}

func splitDirs(v string) []string {
	var dirs []string
	for _, d := range filepath.SplitList(v) {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, expandHome(d))
		}
	}
	return dirs
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
