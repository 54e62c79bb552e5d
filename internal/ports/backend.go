package ports

import (
	"context"

	"github.com/devbush/stockdesk/internal/domain"
)

// ProductStore manages the product catalog on the backend.
type ProductStore interface {
	// ListProducts returns every product.
	ListProducts(ctx context.Context) ([]*domain.Product, error)

	// GetProduct returns domain.ErrNotFound when id does not exist.
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// CreateProduct returns the stored product with its ID assigned.
	CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)

	UpdateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// InventoryStore manages per-period inventory records.
type InventoryStore interface {
	ListInventory(ctx context.Context) ([]*domain.InventoryRecord, error)
	CreateInventory(ctx context.Context, r *domain.InventoryRecord) (*domain.InventoryRecord, error)
	UpdateInventory(ctx context.Context, r *domain.InventoryRecord) (*domain.InventoryRecord, error)
	DeleteInventory(ctx context.Context, id string) error
}

// TransactionStore manages stock-in and stock-out entries.
type TransactionStore interface {
	ListTransactions(ctx context.Context) ([]*domain.Transaction, error)
	CreateTransaction(ctx context.Context, t *domain.Transaction) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// ActivityStore reads and appends the operation history.
type ActivityStore interface {
	ListActivities(ctx context.Context) ([]*domain.Activity, error)
	RecordActivity(ctx context.Context, a *domain.Activity) error
}

// Backend is the full remote surface stockdesk talks to.
type Backend interface {
	ProductStore
	InventoryStore
	TransactionStore
	ActivityStore

	// Ping checks the backend health endpoint.
	Ping(ctx context.Context) error
}
