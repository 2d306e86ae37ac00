package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/ferreteria-backend/internal/domain"
	"github.com/DRSN-tech/ferreteria-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/ferreteria-backend/pkg/e"
	"github.com/DRSN-tech/ferreteria-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const productColumns = `id, barcode, name, price, image_key, image_type, created_at`

// ProductRepo реализует репозиторий продуктов поверх PostgreSQL.
// Все методы работают внутри транзакции из контекста, если она есть.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

// Create вставляет новый товар. Нарушение уникальности штрихкода — e.ErrDuplicateBarcode.
func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	model := p.conv.ToModel(product)
	query := `
		INSERT INTO products (barcode, name, price, image_key, image_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + productColumns

	row := tr.Conn(ctx, p.pool).QueryRow(ctx, query,
		model.Barcode, model.Name, model.Price, model.ImageKey, model.ImageType,
	)

	created, err := scanProduct(row)
	if err != nil {
		if postgresDuplicate(err) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrDuplicateBarcode)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(created), nil
}

func (p *ProductRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	return p.getOne(ctx, query, id)
}

func (p *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE barcode = $1`

	return p.getOne(ctx, query, barcode)
}

func (p *ProductRepo) ExistsByBarcode(ctx context.Context, barcode string) (bool, error) {
	var exists bool
	err := tr.Conn(ctx, p.pool).
		QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE barcode = $1)`, barcode).
		Scan(&exists)
	if err != nil {
		return false, e.Wrap(whereami.WhereAmI(), err)
	}

	return exists, nil
}

// List возвращает страницу каталога, новые товары первыми.
func (p *ProductRepo) List(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	return p.getMany(ctx, query, limit, offset)
}

// ListAll возвращает весь каталог в том же порядке, что и List.
func (p *ProductRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY created_at DESC, id DESC
	`

	return p.getMany(ctx, query)
}

// Delete удаляет товар и возвращает удалённую запись.
func (p *ProductRepo) Delete(ctx context.Context, id int64) (*domain.Product, error) {
	query := `DELETE FROM products WHERE id = $1 RETURNING ` + productColumns

	return p.getOne(ctx, query, id)
}

func (p *ProductRepo) getOne(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	model, err := scanProduct(tr.Conn(ctx, p.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrProductNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToEntity(model), nil
}

func (p *ProductRepo) getMany(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := tr.Conn(ctx, p.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	models := make([]converter.ProductModel, 0)
	for rows.Next() {
		model, err := scanProduct(rows)
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		models = append(models, *model)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.conv.ToArrEntity(models), nil
}

func scanProduct(row pgx.Row) (*converter.ProductModel, error) {
	var model converter.ProductModel
	if err := row.Scan(
		&model.ID, &model.Barcode, &model.Name, &model.Price,
		&model.ImageKey, &model.ImageType, &model.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &model, nil
}
