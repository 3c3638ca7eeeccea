// Package board applies scripted side effects to a task board.
//
// A script's effect bindings name an action (move an item to a column, or
// open an item) that runs when the meeting passes the bound segment.
// Register turns those bindings into side-effect handlers for a Board.
// MemoryBoard keeps state in process for the terminal view; GitHubBoard and
// GitLabBoard track the column as a "status:<column>" issue label, and
// JiraBoard runs the workflow transition into the column's status.
package board

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/randalmurphal/scrumsim/script"
	"github.com/randalmurphal/scrumsim/sideeffect"
)

// Board errors.
var (
	ErrItemNotFound  = errors.New("board item not found")
	ErrInvalidItem   = errors.New("invalid board item reference")
	ErrUnknownAction = errors.New("unknown board action")
	ErrMissingColumn = errors.New("move requires a column")
	ErrUnauthorized  = errors.New("board rejected credentials")
	ErrForbidden     = errors.New("board denied access")
)

// ColumnLabelPrefix marks the label holding an issue's column.
const ColumnLabelPrefix = "status:"

// Item is a board card.
type Item struct {
	ID     string `json:"id"`
	Title  string `json:"title,omitempty"`
	Column string `json:"column,omitempty"`
	URL    string `json:"url,omitempty"`
}

// Board is a target for scripted mutations.
type Board interface {
	// Name identifies the board in logs.
	Name() string

	// Move puts the item in column and returns its new state.
	Move(ctx context.Context, itemID, column string) (Item, error)

	// Open fetches the item for display.
	Open(ctx context.Context, itemID string) (Item, error)
}

// Handler builds the side-effect handler for one binding.
func Handler(b Board, e script.EffectBinding) (sideeffect.Handler, error) {
	if e.Item == "" {
		return nil, fmt.Errorf("%w: effect %s has no item", ErrInvalidItem, e.ID)
	}

	switch e.Action {
	case script.ActionMove:
		if e.Column == "" {
			return nil, fmt.Errorf("%w: effect %s", ErrMissingColumn, e.ID)
		}
		return func(ctx context.Context) (any, error) {
			return b.Move(ctx, e.Item, e.Column)
		}, nil
	case script.ActionOpen:
		return func(ctx context.Context) (any, error) {
			return b.Open(ctx, e.Item)
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q in effect %s", ErrUnknownAction, e.Action, e.ID)
	}
}

// Register installs a handler on d for every binding.
func Register(d *sideeffect.Dispatcher, b Board, bindings []script.EffectBinding) error {
	for _, e := range bindings {
		h, err := Handler(b, e)
		if err != nil {
			return err
		}
		if err := d.Register(e.ID, h); err != nil {
			return fmt.Errorf("register effect %s: %w", e.ID, err)
		}
	}
	return nil
}

// IssueNumber extracts the trailing number of an item reference, so
// "TICKET-101", "#101" and "101" all name issue 101.
func IssueNumber(itemID string) (int, error) {
	end := len(itemID)
	start := end
	for start > 0 && itemID[start-1] >= '0' && itemID[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, fmt.Errorf("%w: %q has no issue number", ErrInvalidItem, itemID)
	}
	n, err := strconv.Atoi(itemID[start:end])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidItem, itemID)
	}
	return n, nil
}

// columnLabel returns the label for column.
func columnLabel(column string) string {
	return ColumnLabelPrefix + strings.ToLower(column)
}

// splitLabels returns the column named by labels and the column labels that
// differ from keep.
func splitLabels(labels []string, keep string) (column string, stale []string) {
	for _, l := range labels {
		if !strings.HasPrefix(l, ColumnLabelPrefix) {
			continue
		}
		if column == "" {
			column = strings.TrimPrefix(l, ColumnLabelPrefix)
		}
		if l != keep {
			stale = append(stale, l)
		}
	}
	return column, stale
}

// statusError maps an HTTP status from a board API to a board error.
func statusError(status int, err error) error {
	switch status {
	case 401:
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	case 403:
		return fmt.Errorf("%w: %w", ErrForbidden, err)
	case 404:
		return fmt.Errorf("%w: %w", ErrItemNotFound, err)
	}
	return err
}
