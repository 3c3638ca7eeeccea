package scrumsim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/randalmurphal/scrumsim/audio"
	"github.com/randalmurphal/scrumsim/auth"
	"github.com/randalmurphal/scrumsim/board"
	"github.com/randalmurphal/scrumsim/config"
	"github.com/randalmurphal/scrumsim/meeting"
	"github.com/randalmurphal/scrumsim/notify"
	"github.com/randalmurphal/scrumsim/playback"
	"github.com/randalmurphal/scrumsim/script"
	"github.com/randalmurphal/scrumsim/sideeffect"
	"github.com/randalmurphal/scrumsim/transcript"
)

// TokenIssuer identifies scrumsim in gateway tokens.
const TokenIssuer = "scrumsim"

// ErrUnknownBoard indicates a board setting with no implementation.
var ErrUnknownBoard = errors.New("unknown board")

// Services holds every long-lived component built from Settings.
type Services struct {
	Settings config.Settings
	Logger   *slog.Logger

	Scripts  *script.Loader
	Cache    *audio.CacheProvider
	Synth    *audio.SynthProvider
	Local    *audio.LocalProvider
	Resolver *audio.Resolver
	Player   playback.Player
	Board    board.Board
	Archive  *transcript.FileStore
	Notifier notify.Notifier
}

// Option configures NewServices.
type Option func(*options)

type options struct {
	logger *slog.Logger
	player playback.Player
	board  board.Board
}

// WithLogger sets the logger shared by all components.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithPlayer replaces the audio command player.
func WithPlayer(p playback.Player) Option {
	return func(o *options) { o.player = p }
}

// WithBoard replaces the board selected by settings.
func WithBoard(b board.Board) Option {
	return func(o *options) { o.board = b }
}

// NewServices builds the components described by settings.
func NewServices(ctx context.Context, settings config.Settings, opts ...Option) (*Services, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Services{
		Settings: settings,
		Logger:   o.logger,
		Scripts:  script.NewLoader(settings.ScriptsDirs...),
	}

	s.Cache = audio.NewCacheProvider(settings.CacheDir,
		audio.WithPrefixLength(settings.CachePrefixLength),
		audio.WithCacheLogger(s.Logger),
	)
	s.Synth = audio.NewSynthProvider(audio.SynthConfig{
		BaseURL:     settings.SynthURL,
		Model:       settings.SynthModel,
		Format:      audio.Format(settings.SynthFormat),
		Credentials: s.Credentials(),
	})
	s.Local = audio.NewLocalProvider(audio.LocalConfig{
		Command:      settings.LocalTTSCommand,
		DefaultVoice: settings.LocalTTSVoice,
	})
	s.Resolver = audio.NewResolver(
		[]audio.Provider{s.Cache, s.Synth, s.Local},
		audio.WithLogger(s.Logger),
		audio.WithProviderTimeout(settings.ProviderTimeout),
	)

	s.Player = o.player
	if s.Player == nil {
		s.Player = &playback.ExecPlayer{Command: settings.PlayerCommand, Logger: s.Logger}
	}

	s.Board = o.board
	if s.Board == nil {
		b, err := newBoard(ctx, settings, s.Logger)
		if err != nil {
			return nil, err
		}
		s.Board = b
	}

	archive, err := transcript.NewFileStore(transcript.StoreConfig{BaseDir: settings.ArchiveDir()})
	if err != nil {
		return nil, fmt.Errorf("open meeting archive: %w", err)
	}
	s.Archive = archive

	s.Notifier = newNotifier(settings, s.Logger)
	return s, nil
}

// Credentials returns the gateway credentials from settings.
func (s *Services) Credentials() auth.Credentials {
	creds := auth.Credentials{APIKey: s.Settings.SynthAPIKey}
	if s.Settings.SynthJWTSecret != "" {
		creds.JWT = auth.JWTConfig{
			Secret: []byte(s.Settings.SynthJWTSecret),
			Issuer: TokenIssuer,
		}
	}
	return creds
}

// NewMeeting builds a sequencer for doc with its side effects bound to the
// board. Each meeting gets its own playback controller and dispatcher.
func (s *Services) NewMeeting(doc *script.Document, opts ...playback.ControllerOption) (*meeting.Sequencer, error) {
	ctlOpts := []playback.ControllerOption{playback.WithPlayer(s.Player)}
	return s.newMeeting(doc, s.Resolver, append(ctlOpts, opts...))
}

// NewSilentMeeting is NewMeeting without sound. Only the cache is consulted,
// so nothing is synthesized, and clips are timed by the clock player.
func (s *Services) NewSilentMeeting(doc *script.Document, opts ...playback.ControllerOption) (*meeting.Sequencer, error) {
	cacheOnly := audio.NewResolver([]audio.Provider{s.Cache},
		audio.WithLogger(s.Logger),
		audio.WithProviderTimeout(s.Settings.ProviderTimeout),
	)
	ctlOpts := []playback.ControllerOption{playback.WithPlayer(&playback.ClockPlayer{})}
	return s.newMeeting(doc, cacheOnly, append(ctlOpts, opts...))
}

func (s *Services) newMeeting(doc *script.Document, resolver *audio.Resolver, opts []playback.ControllerOption) (*meeting.Sequencer, error) {
	if doc == nil || doc.Script == nil {
		return nil, fmt.Errorf("%w: no script", meeting.ErrInvalidInput)
	}

	disp := sideeffect.New(sideeffect.WithLogger(s.Logger))
	if err := board.Register(disp, s.Board, doc.Effects); err != nil {
		return nil, fmt.Errorf("bind side effects of %s: %w", doc.Script.ID(), err)
	}

	ctl := playback.NewController(append([]playback.ControllerOption{playback.WithLogger(s.Logger)}, opts...)...)

	return meeting.New(meeting.Config{
		Resolver:   resolver,
		Controller: ctl,
		Dispatcher: disp,
		Archive:    s.Archive,
		Notifier:   s.Notifier,
		Logger:     s.Logger,
		ReadingTime: meeting.ReadingTime{
			Min: s.Settings.ReadingMin,
			WPM: s.Settings.ReadingWPM,
		},
	}), nil
}

func newBoard(ctx context.Context, settings config.Settings, logger *slog.Logger) (board.Board, error) {
	switch settings.Board {
	case config.BoardMemory, "":
		return board.NewMemoryBoard(), nil
	case config.BoardGitHub:
		return board.NewGitHubBoard(ctx, settings.GitHubToken, settings.GitHubOwner, settings.GitHubRepo,
			board.WithGitHubLogger(logger),
		)
	case config.BoardGitLab:
		return board.NewGitLabBoard(settings.GitLabToken, settings.GitLabURL, settings.GitLabProject, logger)
	case config.BoardJira:
		return board.NewJiraBoard(board.JiraConfig{
			BaseURL: settings.JiraURL,
			Email:   settings.JiraEmail,
			Token:   settings.JiraToken,
			Project: settings.JiraProject,
			Logger:  logger,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBoard, settings.Board)
	}
}

func newNotifier(settings config.Settings, logger *slog.Logger) notify.Notifier {
	notifiers := []notify.Notifier{notify.NewLogNotifier(logger)}
	if settings.SlackWebhook != "" {
		// Channels only hear how meetings ended.
		notifiers = append(notifiers, notify.Only(notify.NewSlackNotifier(settings.SlackWebhook),
			notify.EventMeetingCompleted, notify.EventMeetingCancelled,
			notify.EventMeetingFailed, notify.EventSideEffectFailed,
		))
	}
	if settings.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(settings.WebhookURL, nil))
	}
	if len(notifiers) == 1 {
		return notifiers[0]
	}
	multi := notify.NewMultiNotifier(notifiers...)
	multi.Logger = logger
	return multi
}
