package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/flicky/ecom-cart-api/internal/dto"
	"github.com/flicky/ecom-cart-api/internal/model"
	"github.com/flicky/ecom-cart-api/internal/repository"
)

const productCacheTTL = 60 * time.Second

type ProductService struct {
	productRepo repository.ProductRepository
	tx          repository.Transactor
	redisClient *redis.Client
	log         *slog.Logger
}

// NewProductService wires the catalog. redisClient may be nil, which disables
// the read-through cache.
func NewProductService(productRepo repository.ProductRepository, tx repository.Transactor, redisClient *redis.Client, log *slog.Logger) *ProductService {
	return &ProductService{productRepo: productRepo, tx: tx, redisClient: redisClient, log: log}
}

// Create stores a product and its variations in one transaction.
func (s *ProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if len(req.Variations) == 0 {
		return nil, ErrNoVariations
	}
	if err := checkPrice(req.Price); err != nil {
		return nil, err
	}
	for _, v := range req.Variations {
		if err := checkPrice(v.Price); err != nil {
			return nil, fmt.Errorf("variation %q: %w", v.SKU, err)
		}
		if v.Stock < 0 {
			return nil, ErrNegativeStock
		}
	}

	product := &model.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
	}
	err := s.tx.WithinTx(ctx, func(r repository.Repositories) error {
		if err := r.Products.Create(ctx, product); err != nil {
			return err
		}
		for _, vr := range req.Variations {
			v := &model.Variation{
				ProductID:  product.ID,
				SKU:        vr.SKU,
				Attributes: vr.Attributes,
				Price:      *vr.Price,
				Stock:      vr.Stock,
			}
			if err := r.Products.CreateVariation(ctx, v); err != nil {
				if errors.Is(err, repository.ErrConflict) {
					return ErrDuplicateSKU
				}
				return err
			}
			product.Variations = append(product.Variations, *v)
		}
		return nil
	})
	if err != nil {
		return nil, classify("create product", err)
	}

	resp := dto.ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	cacheKey := productCacheKey(id)

	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp dto.ProductResponse
			if json.Unmarshal(cached, &resp) == nil {
				return &resp, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn("read product cache", slog.String("key", cacheKey), slog.String("error", err.Error()))
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, classify("get product", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	resp := dto.ToProductResponse(product)

	if s.redisClient != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := s.redisClient.Set(ctx, cacheKey, data, productCacheTTL).Err(); err != nil {
				s.log.Warn("write product cache", slog.String("key", cacheKey), slog.String("error", err.Error()))
			}
		}
	}

	return &resp, nil
}

func (s *ProductService) List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	offset := (req.Page - 1) * req.Limit
	products, total, err := s.productRepo.List(ctx, req.Limit, offset, req.Search, req.Sort, req.Order)
	if err != nil {
		return nil, classify("list products", err)
	}

	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, dto.ToProductResponse(&products[i]))
	}

	return &dto.ProductListResponse{Products: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if req.Price != nil {
		if err := checkPrice(req.Price); err != nil {
			return nil, err
		}
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, classify("get product", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, classify("update product", err)
	}

	s.invalidateCache(ctx, id)
	resp := dto.ToProductResponse(product)
	return &resp, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProductNotFound
		}
		return classify("delete product", err)
	}
	s.invalidateCache(ctx, id)
	return nil
}

// SetVariationStock overwrites a variation's stock level. Carts never call
// this; it is the catalog's own mutation.
func (s *ProductService) SetVariationStock(ctx context.Context, productID, variationID uuid.UUID, stock int) (*dto.VariationResponse, error) {
	if stock < 0 {
		return nil, ErrNegativeStock
	}
	v, err := s.productRepo.SetVariationStock(ctx, productID, variationID, stock)
	if err != nil {
		return nil, classify("set variation stock", err)
	}
	if v == nil {
		return nil, ErrVariationNotFound
	}

	s.invalidateCache(ctx, productID)
	resp := dto.ToVariationResponse(v)
	return &resp, nil
}

func (s *ProductService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Del(ctx, productCacheKey(id)).Err(); err != nil {
		s.log.Warn("invalidate product cache", slog.String("product_id", id.String()), slog.String("error", err.Error()))
	}
}

func checkPrice(price *decimal.Decimal) error {
	switch {
	case price == nil:
		return ErrMissingPrice
	case price.IsNegative():
		return ErrNegativePrice
	default:
		return nil
	}
}

func productCacheKey(id uuid.UUID) string { return "product:" + id.String() }
