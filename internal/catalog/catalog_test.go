package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-bot/internal/common/config"
	apperrors "stock-bot/internal/common/errors"
	"stock-bot/internal/common/logger"
	"stock-bot/internal/models"
)

const sampleCSV = `KODE_BARANG,nama_barang,STOK,SATUAN,LOKASI,LAST_UPDATE
A1,Kabel USB Type C,10,pcs,Rak 1,2024-01-01
B2,Obeng Plus,,pcs,Rak 2,2024-01-02
C3,"Lampu LED, 12W",7,box,Gudang Belakang,kemarin
`

func writeCSV(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "stok.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// ==========================
// CSV source
// ==========================

func TestCSVSource_Load(t *testing.T) {
	path := writeCSV(t, t.TempDir(), sampleCSV)

	products, err := NewCSVSource(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 3)

	assert.Equal(t, models.Product{
		Code: "A1", Name: "Kabel USB Type C", Quantity: "10", Unit: "pcs", Location: "Rak 1", LastUpdate: "2024-01-01",
	}, products[0])
	// no coercion: empty stays empty, free text stays free text
	assert.Equal(t, "", products[1].Quantity)
	assert.Equal(t, "Lampu LED, 12W", products[2].Name)
	assert.Equal(t, "kemarin", products[2].LastUpdate)
}

func TestCSVSource_MissingFile(t *testing.T) {
	src := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"))

	products, err := src.Load(context.Background())

	assert.Nil(t, products)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCatalogSourceMissing))
}

func TestReadCSV_HeaderHandling(t *testing.T) {
	t.Run("byte order mark and reordered columns", func(t *testing.T) {
		body := "\ufeffnama_barang,KODE_BARANG,LOKASI\nBaut M8,Z9,Rak 4\n"
		products, err := ReadCSV(context.Background(), strings.NewReader(body))
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "Baut M8", products[0].Name)
		assert.Equal(t, "Z9", products[0].Code)
		assert.Equal(t, "Rak 4", products[0].Location)
		assert.Empty(t, products[0].Quantity)
	})

	t.Run("short rows", func(t *testing.T) {
		body := "KODE_BARANG,nama_barang,STOK\nA1\n"
		products, err := ReadCSV(context.Background(), strings.NewReader(body))
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "A1", products[0].Code)
		assert.Empty(t, products[0].Name)
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := ReadCSV(context.Background(), strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("header only", func(t *testing.T) {
		products, err := ReadCSV(context.Background(), strings.NewReader("KODE_BARANG,nama_barang\n"))
		require.NoError(t, err)
		assert.Empty(t, products)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := ReadCSV(ctx, strings.NewReader(sampleCSV))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

// ==========================
// Postgres source
// ==========================

func TestPostgresSource_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	query := "SELECT kode_barang, nama_barang, stok, satuan, lokasi, last_update FROM stok"
	rows := sqlmock.NewRows([]string{"kode_barang", "nama_barang", "stok", "satuan", "lokasi", "last_update"}).
		AddRow("A1", "Kabel USB Type C", "10", "pcs", "Rak 1", "2024-01-01").
		AddRow("B2", "Obeng Plus", nil, "pcs", nil, "2024-01-02")
	mock.ExpectQuery("SELECT kode_barang").WillReturnRows(rows)

	products, err := NewPostgresSource(db, query).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "Kabel USB Type C", products[0].Name)
	assert.Equal(t, "", products[1].Quantity)
	assert.Equal(t, "", products[1].Location)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection refused"))

	_, err = NewPostgresSource(db, "SELECT 1").Load(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCatalogLoadFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Store
// ==========================

type stubSource struct {
	products []models.Product
	err      error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Load(context.Context) ([]models.Product, error) {
	return s.products, s.err
}

func TestStore_StartsEmpty(t *testing.T) {
	s := NewStore()
	assert.Equal(t, 0, s.Len())
	assert.NotNil(t, s.Products())
}

func TestStore_RefreshReplacesSnapshot(t *testing.T) {
	s := NewStore()
	src := &stubSource{products: []models.Product{{Code: "A1"}, {Code: "B2"}}}

	require.NoError(t, s.Refresh(context.Background(), src))
	first := s.Products()
	assert.Len(t, first, 2)

	src.products = []models.Product{{Code: "C3"}}
	require.NoError(t, s.Refresh(context.Background(), src))

	assert.Equal(t, []models.Product{{Code: "C3"}}, s.Products())
	// earlier snapshot is untouched
	assert.Equal(t, "A1", first[0].Code)
}

func TestStore_FailedRefreshKeepsPrevious(t *testing.T) {
	s := NewStoreWith([]models.Product{{Code: "A1"}})

	err := s.Refresh(context.Background(), &stubSource{err: errors.New("disk gone")})

	assert.Error(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestStore_MissingSourceIsDegradedMode(t *testing.T) {
	s := NewStore()
	src := NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"))

	err := s.Refresh(context.Background(), src)

	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeCatalogSourceMissing))
	assert.Equal(t, 0, s.Len())
}

func TestStore_ReplaceCopiesInput(t *testing.T) {
	in := []models.Product{{Code: "A1"}}
	s := NewStoreWith(in)
	in[0].Code = "changed"
	assert.Equal(t, "A1", s.Products()[0].Code)
}

// ==========================
// Watcher
// ==========================

func TestReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, sampleCSV)
	src := NewCSVSource(path)

	store := NewStore()
	require.NoError(t, store.Refresh(context.Background(), src))
	require.Equal(t, 3, store.Len())

	w, err := NewWatcher(path, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, ReloadOnChange(w, store, src, time.Second, logger.NewTestLogger(t)))
	time.Sleep(50 * time.Millisecond)

	updated := "KODE_BARANG,nama_barang,STOK,SATUAN,LOKASI,LAST_UPDATE\nZ9,Baut M8,100,pcs,Rak 9,2024-02-02\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	assert.Eventually(t, func() bool {
		p := store.Products()
		return len(p) == 1 && p[0].Code == "Z9"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, sampleCSV)

	w, err := NewWatcher(path, 10*time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	fired := make(chan struct{}, 4)
	require.NoError(t, w.Watch(func() { fired <- struct{}{} }))
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644))

	select {
	case <-fired:
		t.Fatal("callback fired for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := writeCSV(t, t.TempDir(), sampleCSV)
	w, err := NewWatcher(path, 0)
	require.NoError(t, err)
	require.NoError(t, w.Watch(func() {}))

	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}

// ==========================
// Source selection
// ==========================

func TestNewSource_CSV(t *testing.T) {
	cfg := &config.Config{}
	cfg.Catalog.Source = config.CatalogSourceCSV
	cfg.Catalog.Path = "./stok.csv"

	src, closeFn, err := NewSource(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "csv:./stok.csv", src.Name())
	assert.NoError(t, closeFn())
}

func TestNewSource_Unknown(t *testing.T) {
	cfg := &config.Config{}
	cfg.Catalog.Source = "excel"

	_, _, err := NewSource(context.Background(), cfg)
	assert.ErrorContains(t, err, "excel")
}
