package catalog

import (
	"context"
	"database/sql"

	apperrors "stock-bot/internal/common/errors"
	"stock-bot/internal/models"
)

// PostgresSource loads records with a query returning, in order: code, name,
// quantity, unit, location and last update. NULL columns become "".
type PostgresSource struct {
	db    *sql.DB
	query string
}

func NewPostgresSource(db *sql.DB, query string) *PostgresSource {
	return &PostgresSource{db: db, query: query}
}

func (s *PostgresSource) Name() string {
	return "postgres"
}

func (s *PostgresSource) Load(ctx context.Context) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, apperrors.NewCatalogLoadFailedError(s.Name(), err)
	}
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		var code, name, qty, unit, loc, updated sql.NullString
		if err := rows.Scan(&code, &name, &qty, &unit, &loc, &updated); err != nil {
			return nil, apperrors.NewCatalogLoadFailedError(s.Name(), err)
		}
		products = append(products, models.Product{
			Code:       code.String,
			Name:       name.String,
			Quantity:   qty.String,
			Unit:       unit.String,
			Location:   loc.String,
			LastUpdate: updated.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewCatalogLoadFailedError(s.Name(), err)
	}
	return products, nil
}
