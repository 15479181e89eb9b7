package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/ecom-cart-api/internal/model"
)

type WishlistRepository interface {
	GetOrCreateWishlist(ctx context.Context, userID uuid.UUID) (*model.Wishlist, error)
	GetWishlistWithItems(ctx context.Context, userID uuid.UUID) (*model.Wishlist, error)
	TouchWishlist(ctx context.Context, userID uuid.UUID) (*model.Wishlist, error)
	FindItem(ctx context.Context, wishlistID, itemID uuid.UUID) (*model.WishlistItem, error)
	CreateItem(ctx context.Context, item *model.WishlistItem) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	CountItems(ctx context.Context, wishlistID uuid.UUID) (int, error)
	DeleteWishlist(ctx context.Context, wishlistID uuid.UUID) error
}

type pgWishlistRepo struct{ q Querier }

func NewWishlistRepository(q Querier) WishlistRepository {
	return &pgWishlistRepo{q: q}
}

func (r *pgWishlistRepo) GetOrCreateWishlist(ctx context.Context, userID uuid.UUID) (*model.Wishlist, error) {
	w := &model.Wishlist{}
	err := r.q.QueryRow(ctx,
		`INSERT INTO wishlists (id, user_id, created_at, updated_at) VALUES ($1, $2, NOW(), NOW())
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = NOW()
		 RETURNING id, user_id, created_at, updated_at`,
		uuid.New(), userID,
	).Scan(&w.ID, &w.UserID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert wishlist: %w", err)
	}
	return w, nil
}

func (r *pgWishlistRepo) GetWishlistWithItems(ctx context.Context, userID uuid.UUID) (*model.Wishlist, error) {
	w := &model.Wishlist{}
	err := r.q.QueryRow(ctx,
		`SELECT id, user_id, created_at, updated_at FROM wishlists WHERE user_id = $1`, userID,
	).Scan(&w.ID, &w.UserID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wishlist: %w", err)
	}

	rows, err := r.q.Query(ctx,
		`SELECT wi.id, wi.wishlist_id, wi.product_id, wi.created_at,
		        p.name, p.description, p.price, p.created_at, p.updated_at
		 FROM wishlist_items wi
		 JOIN products p ON p.id = wi.product_id
		 WHERE wi.wishlist_id = $1
		 ORDER BY wi.created_at, wi.id`, w.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("get wishlist items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item model.WishlistItem
			p    model.Product
		)
		if err := rows.Scan(
			&item.ID, &item.WishlistID, &item.ProductID, &item.CreatedAt,
			&p.Name, &p.Description, &p.Price, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		p.ID = item.ProductID
		item.Product = &p
		w.Items = append(w.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wishlist items: %w", err)
	}
	return w, nil
}

func (r *pgWishlistRepo) TouchWishlist(ctx context.Context, userID uuid.UUID) (*model.Wishlist, error) {
	w := &model.Wishlist{}
	err := r.q.QueryRow(ctx,
		`UPDATE wishlists SET updated_at = NOW() WHERE user_id = $1
		 RETURNING id, user_id, created_at, updated_at`, userID,
	).Scan(&w.ID, &w.UserID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("touch wishlist: %w", err)
	}
	return w, nil
}

func (r *pgWishlistRepo) FindItem(ctx context.Context, wishlistID, itemID uuid.UUID) (*model.WishlistItem, error) {
	item := &model.WishlistItem{}
	err := r.q.QueryRow(ctx,
		`SELECT id, wishlist_id, product_id, created_at
		 FROM wishlist_items WHERE id = $1 AND wishlist_id = $2 FOR UPDATE`, itemID, wishlistID,
	).Scan(&item.ID, &item.WishlistID, &item.ProductID, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find wishlist item: %w", err)
	}
	return item, nil
}

// CreateItem returns ErrConflict when the product is already on the wishlist.
func (r *pgWishlistRepo) CreateItem(ctx context.Context, item *model.WishlistItem) error {
	err := r.q.QueryRow(ctx,
		`INSERT INTO wishlist_items (id, wishlist_id, product_id, created_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (wishlist_id, product_id) DO NOTHING
		 RETURNING id, created_at`,
		uuid.New(), item.WishlistID, item.ProductID,
	).Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("create wishlist item: %w", ErrConflict)
		}
		return fmt.Errorf("create wishlist item: %w", err)
	}
	return nil
}

func (r *pgWishlistRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	ct, err := r.q.Exec(ctx, `DELETE FROM wishlist_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete wishlist item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("delete wishlist item %s: %w", itemID, pgx.ErrNoRows)
	}
	return nil
}

func (r *pgWishlistRepo) CountItems(ctx context.Context, wishlistID uuid.UUID) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM wishlist_items WHERE wishlist_id = $1`, wishlistID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count wishlist items: %w", err)
	}
	return n, nil
}

func (r *pgWishlistRepo) DeleteWishlist(ctx context.Context, wishlistID uuid.UUID) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM wishlists WHERE id = $1`, wishlistID); err != nil {
		return fmt.Errorf("delete wishlist: %w", err)
	}
	return nil
}
