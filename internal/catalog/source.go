// Package catalog holds the in-memory product catalog and the sources it is
// loaded from.
package catalog

import (
	"context"

	"stock-bot/internal/models"
)

// Column headers of the stock export.
const (
	ColumnCode       = "KODE_BARANG"
	ColumnName       = "nama_barang"
	ColumnQuantity   = "STOK"
	ColumnUnit       = "SATUAN"
	ColumnLocation   = "LOKASI"
	ColumnLastUpdate = "LAST_UPDATE"
)

// Source produces the full set of product records in source order.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]models.Product, error)
}

// Load reads every record from src.
func Load(ctx context.Context, src Source) ([]models.Product, error) {
	return src.Load(ctx)
}
