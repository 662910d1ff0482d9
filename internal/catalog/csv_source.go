package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	apperrors "stock-bot/internal/common/errors"
	"stock-bot/internal/models"
)

var ErrEmptyFile = errors.New("csv file has no header row")

// CSVSource reads a header-named, comma separated stock export.
type CSVSource struct {
	Path string
}

func NewCSVSource(path string) *CSVSource {
	return &CSVSource{Path: path}
}

func (s *CSVSource) Name() string {
	return "csv:" + s.Path
}

// Load returns a CATALOG_SOURCE_MISSING error when the file does not exist.
// Columns are matched by header name; a missing column leaves the field empty.
func (s *CSVSource) Load(ctx context.Context) ([]models.Product, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NewCatalogSourceMissingError(s.Path)
		}
		return nil, apperrors.NewCatalogLoadFailedError(s.Name(), err)
	}
	defer f.Close()

	products, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, apperrors.NewCatalogLoadFailedError(s.Name(), err)
	}
	return products, nil
}

// ReadCSV streams rows from r until EOF.
func ReadCSV(ctx context.Context, r io.Reader) ([]models.Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		index[h] = i
	}

	field := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	products := make([]models.Product, 0)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(products)+2, err)
		}

		products = append(products, models.Product{
			Code:       field(row, ColumnCode),
			Name:       field(row, ColumnName),
			Quantity:   field(row, ColumnQuantity),
			Unit:       field(row, ColumnUnit),
			Location:   field(row, ColumnLocation),
			LastUpdate: field(row, ColumnLastUpdate),
		})
	}
	return products, nil
}
