package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHubBoard moves GitHub issues between columns by swapping status labels.
type GitHubBoard struct {
	client *github.Client
	owner  string
	repo   string
	logger *slog.Logger
}

var _ Board = (*GitHubBoard)(nil)

// GitHubOption configures a GitHubBoard.
type GitHubOption func(*GitHubBoard) error

// WithGitHubBaseURL points the client at a GitHub Enterprise or test server.
func WithGitHubBaseURL(raw string) GitHubOption {
	return func(b *GitHubBoard) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse github base url: %w", err)
		}
		b.client.BaseURL = u
		return nil
	}
}

// WithGitHubLogger sets the logger.
func WithGitHubLogger(logger *slog.Logger) GitHubOption {
	return func(b *GitHubBoard) error {
		b.logger = logger
		return nil
	}
}

// NewGitHubBoard creates a board over owner/repo issues using token.
func NewGitHubBoard(ctx context.Context, token, owner, repo string, opts ...GitHubOption) (*GitHubBoard, error) {
	var hc *http.Client
	if token != "" {
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}

	b := &GitHubBoard{
		client: github.NewClient(hc),
		owner:  owner,
		repo:   repo,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Name implements Board.
func (b *GitHubBoard) Name() string { return "github" }

// Move implements Board.
func (b *GitHubBoard) Move(ctx context.Context, itemID, column string) (Item, error) {
	n, err := IssueNumber(itemID)
	if err != nil {
		return Item{}, err
	}

	issue, _, err := b.client.Issues.Get(ctx, b.owner, b.repo, n)
	if err != nil {
		return Item{}, githubError(err)
	}

	target := columnLabel(column)
	_, stale := splitLabels(githubLabels(issue), target)
	for _, l := range stale {
		if _, err := b.client.Issues.RemoveLabelForIssue(ctx, b.owner, b.repo, n, l); err != nil {
			return Item{}, githubError(err)
		}
	}
	if _, _, err := b.client.Issues.AddLabelsToIssue(ctx, b.owner, b.repo, n, []string{target}); err != nil {
		return Item{}, githubError(err)
	}

	b.logger.Debug("moved issue", "board", "github", "issue", n, "column", column, "removed", stale)
	return Item{
		ID:     itemID,
		Title:  issue.GetTitle(),
		Column: strings.TrimPrefix(target, ColumnLabelPrefix),
		URL:    issue.GetHTMLURL(),
	}, nil
}

// Open implements Board.
func (b *GitHubBoard) Open(ctx context.Context, itemID string) (Item, error) {
	n, err := IssueNumber(itemID)
	if err != nil {
		return Item{}, err
	}

	issue, _, err := b.client.Issues.Get(ctx, b.owner, b.repo, n)
	if err != nil {
		return Item{}, githubError(err)
	}

	column, _ := splitLabels(githubLabels(issue), "")
	return Item{
		ID:     itemID,
		Title:  issue.GetTitle(),
		Column: column,
		URL:    issue.GetHTMLURL(),
	}, nil
}

func githubLabels(issue *github.Issue) []string {
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		labels = append(labels, l.GetName())
	}
	return labels
}

func githubError(err error) error {
	var ger *github.ErrorResponse
	if errors.As(err, &ger) && ger.Response != nil {
		return statusError(ger.Response.StatusCode, err)
	}
	return err
}
