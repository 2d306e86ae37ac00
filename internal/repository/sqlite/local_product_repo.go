package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/jimlawless/whereami"
	_ "modernc.org/sqlite"
)

// LocalProductRepo — автономное хранилище товаров в одном файле SQLite.
type LocalProductRepo struct {
	db   *sql.DB
	path string
}

// Open открывает (или создаёт) базу по пути path и проверяет версию схемы.
func Open(ctx context.Context, path string) (*LocalProductRepo, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("open sqlite db: %w", err))
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, e.Wrap(whereami.WhereAmI(), fmt.Errorf("apply pragma %q: %w", pragma, execErr))
		}
	}

	repo := &LocalProductRepo{db: db, path: path}
	if err := repo.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return repo, nil
}

func (r *LocalProductRepo) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *LocalProductRepo) Get(ctx context.Context, barcode string) (*domain.LocalProduct, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT barcode, name, price, image, image_type, created_at FROM products WHERE barcode = ?`,
		barcode,
	)

	product, err := scanLocalProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return product, nil
}

// Put вставляет товар или заменяет существующий с тем же штрихкодом.
func (r *LocalProductRepo) Put(ctx context.Context, product *domain.LocalProduct) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO products (barcode, name, price, image, image_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		product.Barcode,
		product.Name,
		product.Price,
		product.Image,
		product.ImageType,
		product.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (r *LocalProductRepo) GetAll(ctx context.Context) ([]domain.LocalProduct, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT barcode, name, price, image, image_type, created_at FROM products ORDER BY barcode`,
	)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	var products []domain.LocalProduct
	for rows.Next() {
		product, err := scanLocalProduct(rows)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		products = append(products, *product)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return products, nil
}

// Delete удаляет товар. Отсутствующий штрихкод — ErrProductNotFound.
func (r *LocalProductRepo) Delete(ctx context.Context, barcode string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE barcode = ?`, barcode)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if n == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrProductNotFound)
	}

	return nil
}

func (r *LocalProductRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM products`); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLocalProduct(row scanner) (*domain.LocalProduct, error) {
	var (
		product   domain.LocalProduct
		createdAt string
	)

	if err := row.Scan(
		&product.Barcode,
		&product.Name,
		&product.Price,
		&product.Image,
		&product.ImageType,
		&createdAt,
	); err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	product.CreatedAt = ts

	return &product, nil
}
