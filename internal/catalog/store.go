package catalog

import (
	"context"
	"sync/atomic"

	"stock-bot/internal/common/metrics"
	"stock-bot/internal/models"
)

// Store is the in-memory catalog. Readers get an immutable snapshot; a
// refresh swaps the whole snapshot at once.
type Store struct {
	products atomic.Pointer[[]models.Product]
}

// NewStore returns an empty store.
func NewStore() *Store {
	s := &Store{}
	empty := []models.Product{}
	s.products.Store(&empty)
	return s
}

// NewStoreWith returns a store holding products.
func NewStoreWith(products []models.Product) *Store {
	s := NewStore()
	s.Replace(products)
	return s
}

// Products returns the current snapshot. Callers must not modify it.
func (s *Store) Products() []models.Product {
	return *s.products.Load()
}

func (s *Store) Len() int {
	return len(s.Products())
}

// Replace installs a copy of products as the new snapshot.
func (s *Store) Replace(products []models.Product) {
	snapshot := make([]models.Product, len(products))
	copy(snapshot, products)
	s.products.Store(&snapshot)
	metrics.CatalogRecords.Set(float64(len(snapshot)))
}

// Refresh loads src and replaces the snapshot. On error the previous snapshot
// stays in place and the error is returned.
func (s *Store) Refresh(ctx context.Context, src Source) error {
	products, err := Load(ctx, src)
	if err != nil {
		metrics.CatalogLoads.WithLabelValues("failed").Inc()
		return err
	}
	s.Replace(products)
	metrics.CatalogLoads.WithLabelValues("ok").Inc()
	return nil
}
