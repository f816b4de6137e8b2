package telegram

import (
	"context"

	"github.com/yourorg/vms-release-bot/internal/db"
)

// StoreAdapter adapts db.Store to telegram.Store interface
type StoreAdapter struct {
	store *db.Store
}

// NewStoreAdapter creates a new store adapter
func NewStoreAdapter(store *db.Store) Store {
	return &StoreAdapter{store: store}
}

// AddProduct implements Store.AddProduct
func (a *StoreAdapter) AddProduct(ctx context.Context, name string) error {
	return a.store.AddProduct(ctx, name)
}

// RemoveProduct implements Store.RemoveProduct
func (a *StoreAdapter) RemoveProduct(ctx context.Context, name string) error {
	return a.store.RemoveProduct(ctx, name)
}

// ListProducts implements Store.ListProducts
func (a *StoreAdapter) ListProducts(ctx context.Context) ([]string, error) {
	products, err := a.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names, nil
}

// AddChat implements Store.AddChat
func (a *StoreAdapter) AddChat(ctx context.Context, chatID int64, title string) error {
	return a.store.AddChat(ctx, chatID, title)
}
