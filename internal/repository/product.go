package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/ecom-cart-api/internal/model"
)

// VariationLookup resolves a (product, variation) pair to its current price and stock.
type VariationLookup interface {
	FindVariation(ctx context.Context, productID, variationID uuid.UUID) (*model.Variation, error)
}

type ProductRepository interface {
	VariationLookup
	Create(ctx context.Context, product *model.Product) error
	CreateVariation(ctx context.Context, variation *model.Variation) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, limit, offset int, search, sort, order string) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetVariationStock(ctx context.Context, productID, variationID uuid.UUID, stock int) (*model.Variation, error)
}

type pgProductRepo struct{ q Querier }

func NewProductRepository(q Querier) ProductRepository {
	return &pgProductRepo{q: q}
}

const variationColumns = `id, product_id, sku, attributes, price, stock, created_at, updated_at`

func (r *pgProductRepo) Create(ctx context.Context, product *model.Product) error {
	product.ID = uuid.New()
	query := `INSERT INTO products (id, name, description, price, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW()) RETURNING created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Price,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) CreateVariation(ctx context.Context, v *model.Variation) error {
	v.ID = uuid.New()
	attrs, err := json.Marshal(v.Attributes)
	if err != nil {
		return fmt.Errorf("encode variation attributes: %w", err)
	}
	query := `INSERT INTO product_variations (id, product_id, sku, attributes, price, stock, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING created_at, updated_at`
	err = r.q.QueryRow(ctx, query,
		v.ID, v.ProductID, v.SKU, attrs, v.Price, v.Stock,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create variation %q: %w", v.SKU, ErrConflict)
		}
		return fmt.Errorf("create variation: %w", err)
	}
	return nil
}

func (r *pgProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT id, name, description, price, created_at, updated_at FROM products WHERE id = $1`
	p := &model.Product{}
	err := r.q.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Price, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	byProduct, err := r.variationsFor(ctx, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	p.Variations = byProduct[p.ID]
	return p, nil
}

func (r *pgProductRepo) List(ctx context.Context, limit, offset int, search, sort, order string) ([]model.Product, int, error) {
	allowedSorts := map[string]bool{"name": true, "price": true, "created_at": true}
	if !allowedSorts[sort] {
		sort = "created_at"
	}
	if order != "asc" && order != "desc" {
		order = "desc"
	}

	var total int
	countQ := `SELECT COUNT(*) FROM products WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%')`
	if err := r.q.QueryRow(ctx, countQ, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf(`SELECT id, name, description, price, created_at, updated_at
		FROM products
		WHERE ($1 = '' OR name ILIKE '%%' || $1 || '%%' OR description ILIKE '%%' || $1 || '%%')
		ORDER BY %s %s LIMIT $2 OFFSET $3`, sort, order)

	rows, err := r.q.Query(ctx, query, search, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products []model.Product
		ids      []uuid.UUID
	)
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate products: %w", err)
	}
	if len(ids) == 0 {
		return products, total, nil
	}

	byProduct, err := r.variationsFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range products {
		products[i].Variations = byProduct[products[i].ID]
	}
	return products, total, nil
}

func (r *pgProductRepo) Update(ctx context.Context, product *model.Product) error {
	query := `UPDATE products SET name=$2, description=$3, price=$4, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := r.q.QueryRow(ctx, query,
		product.ID, product.Name, product.Description, product.Price,
	).Scan(&product.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (r *pgProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// FindVariation reads the variation FOR SHARE so a concurrent stock change
// waits for the caller's transaction to finish.
func (r *pgProductRepo) FindVariation(ctx context.Context, productID, variationID uuid.UUID) (*model.Variation, error) {
	row := r.q.QueryRow(ctx,
		`SELECT `+variationColumns+` FROM product_variations WHERE id = $1 AND product_id = $2 FOR SHARE`,
		variationID, productID,
	)
	v, err := scanVariation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find variation: %w", err)
	}
	return v, nil
}

func (r *pgProductRepo) SetVariationStock(ctx context.Context, productID, variationID uuid.UUID, stock int) (*model.Variation, error) {
	row := r.q.QueryRow(ctx,
		`UPDATE product_variations SET stock = $3, updated_at = NOW()
		 WHERE id = $1 AND product_id = $2 RETURNING `+variationColumns,
		variationID, productID, stock,
	)
	v, err := scanVariation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("set variation stock: %w", err)
	}
	return v, nil
}

func (r *pgProductRepo) variationsFor(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID][]model.Variation, error) {
	rows, err := r.q.Query(ctx,
		`SELECT `+variationColumns+` FROM product_variations WHERE product_id = ANY($1) ORDER BY created_at, id`,
		productIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("list variations: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]model.Variation, len(productIDs))
	for rows.Next() {
		v, err := scanVariation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan variation: %w", err)
		}
		out[v.ProductID] = append(out[v.ProductID], *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variations: %w", err)
	}
	return out, nil
}

func scanVariation(row pgx.Row) (*model.Variation, error) {
	var (
		v     model.Variation
		attrs []byte
	)
	if err := row.Scan(&v.ID, &v.ProductID, &v.SKU, &attrs, &v.Price, &v.Stock, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	if err := decodeAttributes(attrs, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
