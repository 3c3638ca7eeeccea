package board

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"regexp"
	"strings"

	"github.com/randalmurphal/scrumsim/http"
)

// JiraAPIPath is the REST prefix for issue calls.
const JiraAPIPath = "/rest/api/2"

// ErrNoTransition indicates no workflow transition leads to the column.
var ErrNoTransition = errors.New("no jira transition to column")

var issueKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9_]+-\d+$`)

// JiraConfig configures a JiraBoard.
type JiraConfig struct {
	BaseURL string

	// Email and Token authenticate Jira Cloud with basic auth. Without an
	// email the token is sent as a bearer personal access token.
	Email string
	Token string

	// Project, when set, rewrites item references to "<Project>-<number>".
	Project string

	Client *nethttp.Client
	Logger *slog.Logger
}

// JiraBoard moves Jira issues by running the workflow transition whose name
// or target status matches the column. Unlike the label boards the column is
// the issue's real status.
type JiraBoard struct {
	client  *http.Client
	baseURL string
	project string
	logger  *slog.Logger
}

var _ Board = (*JiraBoard)(nil)

type jiraStatus struct {
	Name string `json:"name"`
}

type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary string      `json:"summary"`
		Status  *jiraStatus `json:"status"`
	} `json:"fields"`
}

type jiraTransition struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	To   *jiraStatus `json:"to"`
}

// NewJiraBoard creates a board over a Jira site.
func NewJiraBoard(cfg JiraConfig) (*JiraBoard, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("jira url is required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: jira token is required", ErrUnauthorized)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authHeader := "Bearer " + cfg.Token
	if cfg.Email != "" {
		authHeader = "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.Email+":"+cfg.Token))
	}

	base := strings.TrimSuffix(cfg.BaseURL, "/")
	return &JiraBoard{
		client: http.NewClient(http.ClientConfig{
			Client:      cfg.Client,
			BaseURL:     base + JiraAPIPath,
			ServiceName: "jira",
			Authorize: func(req *nethttp.Request) error {
				req.Header.Set("Authorization", authHeader)
				return nil
			},
		}),
		baseURL: base,
		project: cfg.Project,
		logger:  logger,
	}, nil
}

// Name implements Board.
func (b *JiraBoard) Name() string { return "jira" }

// Key returns the Jira issue key for an item reference.
func (b *JiraBoard) Key(itemID string) (string, error) {
	if b.project != "" {
		n, err := IssueNumber(itemID)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s-%d", b.project, n), nil
	}
	key := strings.ToUpper(strings.TrimSpace(itemID))
	if !issueKeyPattern.MatchString(key) {
		return "", fmt.Errorf("%w: %q is not a jira issue key", ErrInvalidItem, itemID)
	}
	return key, nil
}

// Move implements Board.
func (b *JiraBoard) Move(ctx context.Context, itemID, column string) (Item, error) {
	key, err := b.Key(itemID)
	if err != nil {
		return Item{}, err
	}

	var resp struct {
		Transitions []jiraTransition `json:"transitions"`
	}
	if err := b.client.GetJSON(ctx, "/issue/"+key+"/transitions", &resp); err != nil {
		return Item{}, jiraError(err)
	}

	t, ok := matchTransition(resp.Transitions, column)
	if !ok {
		return Item{}, fmt.Errorf("%w: %s to %q", ErrNoTransition, key, column)
	}

	body := map[string]any{"transition": map[string]string{"id": t.ID}}
	if err := b.client.PostJSON(ctx, "/issue/"+key+"/transitions", body, nil); err != nil {
		return Item{}, jiraError(err)
	}

	b.logger.Debug("moved issue", "board", "jira", "issue", key, "column", column, "transition", t.Name)
	return b.get(ctx, itemID, key)
}

// Open implements Board.
func (b *JiraBoard) Open(ctx context.Context, itemID string) (Item, error) {
	key, err := b.Key(itemID)
	if err != nil {
		return Item{}, err
	}
	return b.get(ctx, itemID, key)
}

func (b *JiraBoard) get(ctx context.Context, itemID, key string) (Item, error) {
	var issue jiraIssue
	if err := b.client.GetJSON(ctx, "/issue/"+key+"?fields=summary,status", &issue); err != nil {
		return Item{}, jiraError(err)
	}
	it := Item{
		ID:    itemID,
		Title: issue.Fields.Summary,
		URL:   b.baseURL + "/browse/" + key,
	}
	if issue.Fields.Status != nil {
		it.Column = strings.ToLower(issue.Fields.Status.Name)
	}
	return it, nil
}

// matchTransition prefers a transition into a status named column, then one
// whose own name is column.
func matchTransition(ts []jiraTransition, column string) (jiraTransition, bool) {
	for _, t := range ts {
		if t.To != nil && strings.EqualFold(t.To.Name, column) {
			return t, true
		}
	}
	for _, t := range ts {
		if strings.EqualFold(t.Name, column) {
			return t, true
		}
	}
	return jiraTransition{}, false
}

func jiraError(err error) error {
	var apiErr *http.APIError
	if errors.As(err, &apiErr) {
		return statusError(apiErr.StatusCode, err)
	}
	if errors.Is(err, http.ErrUnauthorized) {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return err
}
