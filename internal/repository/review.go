package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/ecom-cart-api/internal/model"
)

// Review sort keys accepted by ListByProduct. Anything else sorts newest first.
const (
	ReviewSortAuthorAsc  = "A-Z"
	ReviewSortAuthorDesc = "Z-A"
	ReviewSortRatingAsc  = "low-to-high"
	ReviewSortRatingDesc = "high-to-low"
)

var reviewOrderBy = map[string]string{
	ReviewSortAuthorAsc:  "u.first_name ASC, u.last_name ASC, r.id",
	ReviewSortAuthorDesc: "u.first_name DESC, u.last_name DESC, r.id",
	ReviewSortRatingAsc:  "r.rating ASC, r.created_at DESC, r.id",
	ReviewSortRatingDesc: "r.rating DESC, r.created_at DESC, r.id",
}

type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	ListByProduct(ctx context.Context, productID uuid.UUID, limit, offset int, sort string) ([]model.Review, int, error)
}

type pgReviewRepo struct{ q Querier }

func NewReviewRepository(q Querier) ReviewRepository {
	return &pgReviewRepo{q: q}
}

// Create returns ErrConflict when the user already reviewed the product.
func (r *pgReviewRepo) Create(ctx context.Context, review *model.Review) error {
	review.ID = uuid.New()
	err := r.q.QueryRow(ctx,
		`INSERT INTO reviews (id, product_id, user_id, rating, comment, created_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 RETURNING created_at`,
		review.ID, review.ProductID, review.UserID, review.Rating, review.Comment,
	).Scan(&review.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create review: %w", ErrConflict)
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

func (r *pgReviewRepo) ListByProduct(ctx context.Context, productID uuid.UUID, limit, offset int, sort string) ([]model.Review, int, error) {
	orderBy, ok := reviewOrderBy[sort]
	if !ok {
		orderBy = "r.created_at DESC, r.id"
	}

	var total int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE product_id = $1`, productID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	rows, err := r.q.Query(ctx, `SELECT r.id, r.product_id, r.user_id, r.rating, r.comment, r.created_at,
		       u.first_name || ' ' || u.last_name, u.email
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY `+orderBy+` LIMIT $2 OFFSET $3`,
		productID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []model.Review{}
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.UserID, &rv.Rating, &rv.Comment, &rv.CreatedAt,
			&rv.AuthorName, &rv.AuthorEmail); err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate reviews: %w", err)
	}
	return reviews, total, nil
}
