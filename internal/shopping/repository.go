package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	shoppingdb "smart-shopping-list/internal/shopping/db"

	"github.com/google/uuid"
)

// Repository handles persistence of shopping lists in SQLite. The items of a
// list live in a single JSON column and are always replaced as a whole.
type Repository struct {
	queries *shoppingdb.Queries
	db      *sql.DB
}

var _ Store = (*Repository)(nil)

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{
		queries: shoppingdb.New(d),
		db:      d,
	}
}

// Create stores a new, empty or pre-filled list and returns its id.
func (r *Repository) Create(ctx context.Context, list *List) (string, error) {
	if list.ID == "" {
		list.ID = uuid.NewString()
	}
	if list.Items == nil {
		list.Items = []Item{}
	}
	if list.Collaborators == nil {
		list.Collaborators = []string{}
	}

	itemsJSON, err := json.Marshal(list.Items)
	if err != nil {
		return "", fmt.Errorf("failed to marshal shopping list items: %w", err)
	}
	collabJSON, err := json.Marshal(list.Collaborators)
	if err != nil {
		return "", fmt.Errorf("failed to marshal collaborators: %w", err)
	}

	now := time.Now().UTC()
	list.Version = 1
	list.CreatedAt = now
	list.UpdatedAt = now

	err = r.queries.InsertShoppingList(ctx, shoppingdb.InsertShoppingListParams{
		ID:            list.ID,
		Name:          list.Name,
		Icon:          list.Icon,
		OwnerID:       list.OwnerID,
		Collaborators: string(collabJSON),
		Items:         string(itemsJSON),
		Version:       list.Version,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to insert shopping list: %w", err)
	}
	return list.ID, nil
}

// Read retrieves the current state of a list.
func (r *Repository) Read(ctx context.Context, listID string) (*List, error) {
	row, err := r.queries.GetShoppingList(ctx, listID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("list %s: %w", listID, ErrListNotFound)
		}
		return nil, fmt.Errorf("failed to get shopping list: %w", err)
	}
	return fromRow(row)
}

// Write replaces the items of a list. The update only applies when the stored
// version still equals baseVersion; otherwise ErrStaleWrite is returned.
func (r *Repository) Write(ctx context.Context, listID string, items []Item, baseVersion int64) (int64, error) {
	if items == nil {
		items = []Item{}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal shopping list items: %w", err)
	}

	affected, err := r.queries.UpdateShoppingListItems(ctx, shoppingdb.UpdateShoppingListItemsParams{
		Items:     string(itemsJSON),
		UpdatedAt: time.Now().UTC(),
		ID:        listID,
		Version:   baseVersion,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to update shopping list items: %w", err)
	}
	if affected == 0 {
		if _, err := r.queries.GetShoppingList(ctx, listID); errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("list %s: %w", listID, ErrListNotFound)
		}
		return 0, fmt.Errorf("list %s at version %d: %w", listID, baseVersion, ErrStaleWrite)
	}
	return baseVersion + 1, nil
}

// Delete removes a list.
func (r *Repository) Delete(ctx context.Context, listID string) error {
	affected, err := r.queries.DeleteShoppingList(ctx, listID)
	if err != nil {
		return fmt.Errorf("failed to delete shopping list: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("list %s: %w", listID, ErrListNotFound)
	}
	return nil
}

// ListByUser returns every list the user owns or collaborates on.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]List, error) {
	rows, err := r.queries.ListShoppingListsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shopping lists for user %s: %w", userID, err)
	}

	lists := make([]List, 0, len(rows))
	for _, row := range rows {
		l, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		lists = append(lists, *l)
	}
	return lists, nil
}

func fromRow(row shoppingdb.ShoppingList) (*List, error) {
	var items []Item
	if err := json.Unmarshal([]byte(row.Items), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list items: %w", err)
	}
	var collaborators []string
	if err := json.Unmarshal([]byte(row.Collaborators), &collaborators); err != nil {
		return nil, fmt.Errorf("failed to unmarshal collaborators: %w", err)
	}

	return &List{
		ID:            row.ID,
		Name:          row.Name,
		Icon:          row.Icon,
		OwnerID:       row.OwnerID,
		Collaborators: collaborators,
		Items:         items,
		Version:       row.Version,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}, nil
}
