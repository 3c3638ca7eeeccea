package board

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultColumn holds items the board has not seen before.
const DefaultColumn = "backlog"

// Change records one mutation of a MemoryBoard.
type Change struct {
	Item   Item      `json:"item"`
	Action string    `json:"action"`
	From   string    `json:"from,omitempty"`
	At     time.Time `json:"at"`
}

// MemoryBoard is an in-process board. Unknown items are created in
// DefaultColumn on first use.
type MemoryBoard struct {
	mu       sync.Mutex
	items    map[string]Item
	opened   string
	history  []Change
	onChange func(Change)
	now      func() time.Time
}

var _ Board = (*MemoryBoard)(nil)

// NewMemoryBoard creates a board seeded with items.
func NewMemoryBoard(items ...Item) *MemoryBoard {
	b := &MemoryBoard{items: make(map[string]Item), now: time.Now}
	for _, it := range items {
		if it.Column == "" {
			it.Column = DefaultColumn
		}
		b.items[it.ID] = it
	}
	return b
}

// OnChange sets a callback invoked after every mutation, outside the lock.
func (b *MemoryBoard) OnChange(fn func(Change)) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Name implements Board.
func (b *MemoryBoard) Name() string { return "memory" }

// Move implements Board.
func (b *MemoryBoard) Move(_ context.Context, itemID, column string) (Item, error) {
	if itemID == "" {
		return Item{}, ErrInvalidItem
	}

	b.mu.Lock()
	it := b.itemLocked(itemID)
	from := it.Column
	it.Column = column
	b.items[itemID] = it
	c := Change{Item: it, Action: "move", From: from, At: b.now()}
	b.history = append(b.history, c)
	fn := b.onChange
	b.mu.Unlock()

	if fn != nil {
		fn(c)
	}
	return it, nil
}

// Open implements Board.
func (b *MemoryBoard) Open(_ context.Context, itemID string) (Item, error) {
	if itemID == "" {
		return Item{}, ErrInvalidItem
	}

	b.mu.Lock()
	it := b.itemLocked(itemID)
	b.items[itemID] = it
	b.opened = itemID
	c := Change{Item: it, Action: "open", At: b.now()}
	b.history = append(b.history, c)
	fn := b.onChange
	b.mu.Unlock()

	if fn != nil {
		fn(c)
	}
	return it, nil
}

func (b *MemoryBoard) itemLocked(itemID string) Item {
	if it, ok := b.items[itemID]; ok {
		return it
	}
	return Item{ID: itemID, Column: DefaultColumn}
}

// Get returns an item by ID.
func (b *MemoryBoard) Get(itemID string) (Item, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	it, ok := b.items[itemID]
	return it, ok
}

// Items returns all items sorted by ID.
func (b *MemoryBoard) Items() []Item {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Item, 0, len(b.items))
	for _, it := range b.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Column returns the IDs of items in column, sorted.
func (b *MemoryBoard) Column(column string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var ids []string
	for id, it := range b.items {
		if it.Column == column {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Opened returns the most recently opened item ID.
func (b *MemoryBoard) Opened() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened
}

// History returns a copy of all changes in order.
func (b *MemoryBoard) History() []Change {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Change(nil), b.history...)
}
