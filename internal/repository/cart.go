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

// CartRepository owns carts and cart items. Methods that lock rows are only
// meaningful when the repository is bound to a transaction.
type CartRepository interface {
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	GetCartWithItems(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	TouchCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*model.CartItem, error)
	UpsertItem(ctx context.Context, item *model.CartItem) error
	UpdateItem(ctx context.Context, item *model.CartItem) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	CountItems(ctx context.Context, cartID uuid.UUID) (int, error)
	DeleteCart(ctx context.Context, cartID uuid.UUID) error
}

type pgCartRepo struct{ q Querier }

func NewCartRepository(q Querier) CartRepository {
	return &pgCartRepo{q: q}
}

// GetOrCreateCart is a single upsert keyed by user_id, so concurrent first
// adds converge on one row. The DO UPDATE branch also locks the row.
func (r *pgCartRepo) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.q.QueryRow(ctx,
		`INSERT INTO carts (id, user_id, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		 RETURNING id, user_id, created_at, updated_at`,
		uuid.New(), userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert cart: %w", err)
	}
	return cart, nil
}

func (r *pgCartRepo) GetCartWithItems(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.q.QueryRow(ctx,
		`SELECT id, user_id, created_at, updated_at FROM carts WHERE user_id = $1`, userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	rows, err := r.q.Query(ctx,
		`SELECT ci.id, ci.cart_id, ci.product_id, ci.variation_id, ci.quantity, ci.created_at, ci.updated_at,
		        p.name, p.description, p.price, p.created_at, p.updated_at,
		        v.sku, v.attributes, v.price, v.stock, v.created_at, v.updated_at
		 FROM cart_items ci
		 JOIN products p ON p.id = ci.product_id
		 JOIN product_variations v ON v.id = ci.variation_id
		 WHERE ci.cart_id = $1
		 ORDER BY ci.created_at, ci.id`, cart.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item  model.CartItem
			p     model.Product
			v     model.Variation
			attrs []byte
		)
		if err := rows.Scan(
			&item.ID, &item.CartID, &item.ProductID, &item.VariationID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt,
			&p.Name, &p.Description, &p.Price, &p.CreatedAt, &p.UpdatedAt,
			&v.SKU, &attrs, &v.Price, &v.Stock, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		if err := decodeAttributes(attrs, &v); err != nil {
			return nil, err
		}
		p.ID = item.ProductID
		v.ID = item.VariationID
		v.ProductID = item.ProductID
		item.Product = &p
		item.Variation = &v
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return cart, nil
}

// TouchCart bumps updated_at on the user's cart and leaves the row locked
// until the surrounding transaction ends. Returns nil when there is no cart.
func (r *pgCartRepo) TouchCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart := &model.Cart{}
	err := r.q.QueryRow(ctx,
		`UPDATE carts SET updated_at = NOW() WHERE user_id = $1
		 RETURNING id, user_id, created_at, updated_at`, userID,
	).Scan(&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("touch cart: %w", err)
	}
	return cart, nil
}

func (r *pgCartRepo) FindItem(ctx context.Context, cartID, itemID uuid.UUID) (*model.CartItem, error) {
	item := &model.CartItem{}
	err := r.q.QueryRow(ctx,
		`SELECT id, cart_id, product_id, variation_id, quantity, created_at, updated_at
		 FROM cart_items WHERE id = $1 AND cart_id = $2 FOR UPDATE`, itemID, cartID,
	).Scan(&item.ID, &item.CartID, &item.ProductID, &item.VariationID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find cart item: %w", err)
	}
	return item, nil
}

// UpsertItem inserts the item or merges its quantity into the existing row
// for the same (cart, product, variation).
func (r *pgCartRepo) UpsertItem(ctx context.Context, item *model.CartItem) error {
	query := `INSERT INTO cart_items (id, cart_id, product_id, variation_id, quantity, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			  ON CONFLICT (cart_id, product_id, variation_id)
			  DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity, updated_at = NOW()
			  RETURNING id, quantity, created_at, updated_at`
	err := r.q.QueryRow(ctx, query,
		uuid.New(), item.CartID, item.ProductID, item.VariationID, item.Quantity,
	).Scan(&item.ID, &item.Quantity, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if isOutOfRange(err) {
			return fmt.Errorf("upsert cart item: %w", ErrOutOfRange)
		}
		return fmt.Errorf("upsert cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) UpdateItem(ctx context.Context, item *model.CartItem) error {
	err := r.q.QueryRow(ctx,
		`UPDATE cart_items SET quantity = $2, updated_at = NOW() WHERE id = $1 RETURNING updated_at`,
		item.ID, item.Quantity,
	).Scan(&item.UpdatedAt)
	if err != nil {
		if isOutOfRange(err) {
			return fmt.Errorf("update cart item: %w", ErrOutOfRange)
		}
		return fmt.Errorf("update cart item: %w", err)
	}
	return nil
}

func (r *pgCartRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	ct, err := r.q.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delete cart item %s: %w", itemID, pgx.ErrNoRows)
	}
	return nil
}

func (r *pgCartRepo) CountItems(ctx context.Context, cartID uuid.UUID) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM cart_items WHERE cart_id = $1`, cartID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count cart items: %w", err)
	}
	return n, nil
}

func (r *pgCartRepo) DeleteCart(ctx context.Context, cartID uuid.UUID) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM carts WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

func decodeAttributes(raw []byte, v *model.Variation) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &v.Attributes); err != nil {
		return fmt.Errorf("decode variation attributes: %w", err)
	}
	return nil
}
