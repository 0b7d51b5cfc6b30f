package shopping

import (
	"context"
	"errors"
)

var (
	// ErrListNotFound is returned when a list does not exist (or was deleted).
	ErrListNotFound = errors.New("shopping list not found")
	// ErrStaleWrite is returned when a write was computed from an outdated read.
	ErrStaleWrite = errors.New("shopping list changed since it was read")
)

// Store is the persistence contract for shopping lists. Writes replace the
// whole items array; baseVersion must be the Version returned by the Read
// the new array was computed from.
type Store interface {
	Read(ctx context.Context, listID string) (*List, error)
	Write(ctx context.Context, listID string, items []Item, baseVersion int64) (int64, error)
	Create(ctx context.Context, list *List) (string, error)
	Delete(ctx context.Context, listID string) error
	ListByUser(ctx context.Context, userID string) ([]List, error)
}

// maxEditAttempts bounds how often a direct edit re-reads the list after
// losing a race with another writer.
const maxEditAttempts = 3

// ErrItemNotFound is returned when editing an item that is not on the list.
var ErrItemNotFound = errors.New("item not found")

// editItems applies edit to a fresh copy of the list's items and writes the
// result, starting over from a new read on ErrStaleWrite. edit returns false
// when there is nothing to write.
func editItems(ctx context.Context, s Store, listID string, edit func(items []Item) ([]Item, bool, error)) error {
	var err error
	for attempt := 0; attempt < maxEditAttempts; attempt++ {
		var list *List
		list, err = s.Read(ctx, listID)
		if err != nil {
			return err
		}
		items, write, editErr := edit(list.CloneItems())
		if editErr != nil || !write {
			return editErr
		}
		if _, err = s.Write(ctx, listID, items, list.Version); !errors.Is(err, ErrStaleWrite) {
			return err
		}
	}
	return err
}

// ToggleChecked flips the checked flag of one item.
func ToggleChecked(ctx context.Context, s Store, listID, itemID string) (*Item, error) {
	var toggled Item
	err := editItems(ctx, s, listID, func(items []Item) ([]Item, bool, error) {
		idx := indexOfItem(items, itemID)
		if idx < 0 {
			return nil, false, ErrItemNotFound
		}
		items[idx].Checked = !items[idx].Checked
		toggled = items[idx]
		return items, true, nil
	})
	if err != nil {
		return nil, err
	}
	return &toggled, nil
}

// RemoveItem deletes one item from a list. Removing a missing item is a no-op.
func RemoveItem(ctx context.Context, s Store, listID, itemID string) error {
	return editItems(ctx, s, listID, func(items []Item) ([]Item, bool, error) {
		idx := indexOfItem(items, itemID)
		if idx < 0 {
			return nil, false, nil
		}
		return append(items[:idx], items[idx+1:]...), true, nil
	})
}

func indexOfItem(items []Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}
