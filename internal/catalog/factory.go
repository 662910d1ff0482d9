package catalog

import (
	"context"
	"fmt"

	"stock-bot/internal/common/config"
	"stock-bot/internal/common/database"
)

// NewSource builds the source selected by cfg.Catalog.Source. closeFn releases
// the database pool of a postgres source and is a no-op for csv.
func NewSource(ctx context.Context, cfg *config.Config) (src Source, closeFn func() error, err error) {
	switch cfg.Catalog.Source {
	case config.CatalogSourcePostgres:
		pg, err := database.NewPostgres(ctx, cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresSource(pg.DB, cfg.Catalog.Postgres.Query), pg.Close, nil
	case config.CatalogSourceCSV, "":
		return NewCSVSource(cfg.Catalog.Path), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}
