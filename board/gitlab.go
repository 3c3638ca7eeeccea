package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/xanzy/go-gitlab"
)

// GitLabBoard moves GitLab issues between columns by swapping status labels.
type GitLabBoard struct {
	client  *gitlab.Client
	project string
	logger  *slog.Logger
}

var _ Board = (*GitLabBoard)(nil)

// NewGitLabBoard creates a board over a project's issues. project is a
// numeric ID or a "group/name" path.
func NewGitLabBoard(token, baseURL, project string, logger *slog.Logger) (*GitLabBoard, error) {
	var opts []gitlab.ClientOptionFunc
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}
	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gitlab client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GitLabBoard{client: client, project: project, logger: logger}, nil
}

// Name implements Board.
func (b *GitLabBoard) Name() string { return "gitlab" }

// Move implements Board.
func (b *GitLabBoard) Move(ctx context.Context, itemID, column string) (Item, error) {
	iid, err := IssueNumber(itemID)
	if err != nil {
		return Item{}, err
	}

	issue, _, err := b.client.Issues.GetIssue(b.project, iid, gitlab.WithContext(ctx))
	if err != nil {
		return Item{}, gitlabError(err)
	}

	target := columnLabel(column)
	_, stale := splitLabels(issue.Labels, target)

	update := &gitlab.UpdateIssueOptions{
		AddLabels: &gitlab.LabelOptions{target},
	}
	if len(stale) > 0 {
		remove := gitlab.LabelOptions(stale)
		update.RemoveLabels = &remove
	}

	updated, _, err := b.client.Issues.UpdateIssue(b.project, iid, update, gitlab.WithContext(ctx))
	if err != nil {
		return Item{}, gitlabError(err)
	}

	b.logger.Debug("moved issue", "board", "gitlab", "issue", iid, "column", column, "removed", stale)
	return Item{
		ID:     itemID,
		Title:  updated.Title,
		Column: strings.TrimPrefix(target, ColumnLabelPrefix),
		URL:    updated.WebURL,
	}, nil
}

// Open implements Board.
func (b *GitLabBoard) Open(ctx context.Context, itemID string) (Item, error) {
	iid, err := IssueNumber(itemID)
	if err != nil {
		return Item{}, err
	}

	issue, _, err := b.client.Issues.GetIssue(b.project, iid, gitlab.WithContext(ctx))
	if err != nil {
		return Item{}, gitlabError(err)
	}

	column, _ := splitLabels(issue.Labels, "")
	return Item{ID: itemID, Title: issue.Title, Column: column, URL: issue.WebURL}, nil
}

func gitlabError(err error) error {
	var ger *gitlab.ErrorResponse
	if errors.As(err, &ger) && ger.Response != nil {
		return statusError(ger.Response.StatusCode, err)
	}
	return err
}
