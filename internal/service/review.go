package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/flicky/ecom-cart-api/internal/dto"
	"github.com/flicky/ecom-cart-api/internal/model"
	"github.com/flicky/ecom-cart-api/internal/repository"
)

var ErrAlreadyReviewed = fmt.Errorf("review %w for this product", ErrAlreadyExists)

type ReviewService struct {
	reviews  repository.ReviewRepository
	products repository.ProductRepository
	users    repository.UserRepository
}

func NewReviewService(reviews repository.ReviewRepository, products repository.ProductRepository, users repository.UserRepository) *ReviewService {
	return &ReviewService{reviews: reviews, products: products, users: users}
}

// Create records the caller's review of a product. A user reviews a product
// at most once.
func (s *ReviewService) Create(ctx context.Context, userID, productID uuid.UUID, req dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, classify("get review author", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %w", ErrNotFound)
	}

	review := &model.Review{
		ProductID:   productID,
		UserID:      userID,
		Rating:      req.Rating,
		Comment:     strings.TrimSpace(req.Comment),
		AuthorName:  user.FirstName + " " + user.LastName,
		AuthorEmail: user.Email,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyReviewed
		}
		return nil, classify("create review", err)
	}

	resp := dto.ToReviewResponse(review)
	return &resp, nil
}

// List pages through a product's reviews, newest first unless SortBy says
// otherwise.
func (s *ReviewService) List(ctx context.Context, productID uuid.UUID, req dto.ListReviewsRequest) (*dto.ReviewListResponse, error) {
	if err := s.requireProduct(ctx, productID); err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.Limit
	reviews, total, err := s.reviews.ListByProduct(ctx, productID, req.Limit, offset, req.SortBy)
	if err != nil {
		return nil, classify("list reviews", err)
	}

	items := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		items = append(items, dto.ToReviewResponse(&reviews[i]))
	}
	return &dto.ReviewListResponse{
		Reviews:    items,
		Pagination: dto.NewPagination(req.Page, req.Limit, len(items), total),
	}, nil
}

func (s *ReviewService) requireProduct(ctx context.Context, productID uuid.UUID) error {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return classify("get product", err)
	}
	if product == nil {
		return ErrProductNotFound
	}
	return nil
}
