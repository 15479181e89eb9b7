package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/ecom-cart-api/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
}

type ListUsersRequest struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// --- Product ---

type VariationRequest struct {
	SKU        string            `json:"sku" binding:"required"`
	Attributes map[string]string `json:"attributes"`
	Price      *decimal.Decimal  `json:"price" binding:"required,nonnegative"`
	Stock      int               `json:"stock" binding:"gte=0"`
}

type CreateProductRequest struct {
	Name        string             `json:"name" binding:"required"`
	Description string             `json:"description"`
	Price       *decimal.Decimal   `json:"price" binding:"required,nonnegative"`
	Variations  []VariationRequest `json:"variations" binding:"required,min=1,dive"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" binding:"omitempty,nonnegative"`
}

type SetStockRequest struct {
	Stock *int `json:"stock" binding:"required,gte=0"`
}

type ListProductsRequest struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search string `form:"search"`
	Sort   string `form:"sort,default=created_at" binding:"oneof=name price created_at"`
	Order  string `form:"order,default=desc" binding:"oneof=asc desc"`
}

type VariationResponse struct {
	ID         uuid.UUID         `json:"id"`
	SKU        string            `json:"sku"`
	Attributes map[string]string `json:"attributes"`
	Price      decimal.Decimal   `json:"price"`
	Stock      int               `json:"stock"`
}

type ProductResponse struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price"`
	Variations  []VariationResponse `json:"variations"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Review ---

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

type ListReviewsRequest struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=10" binding:"min=1,max=100"`
	SortBy string `form:"sortBy" binding:"omitempty,oneof=A-Z Z-A low-to-high high-to-low"`
}

type ReviewAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type ReviewResponse struct {
	ID        uuid.UUID    `json:"id"`
	ProductID uuid.UUID    `json:"product_id"`
	UserID    uuid.UUID    `json:"user_id"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	Author    ReviewAuthor `json:"author"`
	CreatedAt time.Time    `json:"created_at"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Results    int `json:"results"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type ReviewListResponse struct {
	Reviews    []ReviewResponse `json:"reviews"`
	Pagination Pagination       `json:"pagination"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID   uuid.UUID `json:"productId" binding:"notnil"`
	VariationID uuid.UUID `json:"variationId" binding:"notnil"`
	Quantity    int       `json:"quantity" binding:"required,min=1"`
}

type CartItemRequest struct {
	CartItemID uuid.UUID `json:"cartItemId" binding:"notnil"`
}

type CartResponse struct {
	ID        uuid.UUID          `json:"id"`
	UserID    uuid.UUID          `json:"userId"`
	Items     []CartItemResponse `json:"items"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

type CartItemResponse struct {
	ID          uuid.UUID          `json:"id"`
	CartID      uuid.UUID          `json:"cartId"`
	ProductID   uuid.UUID          `json:"productId"`
	VariationID uuid.UUID          `json:"variationId"`
	Quantity    int                `json:"quantity"`
	Product     *ProductSummary    `json:"product,omitempty"`
	Variation   *VariationResponse `json:"variation,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

type ProductSummary struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// --- Wishlist ---

type AddWishlistItemRequest struct {
	ProductID uuid.UUID `json:"productId" binding:"notnil"`
}

type WishlistItemRequest struct {
	WishlistItemID uuid.UUID `json:"wishlistItemId" binding:"notnil"`
}

type WishlistResponse struct {
	ID        uuid.UUID              `json:"id"`
	UserID    uuid.UUID              `json:"userId"`
	Items     []WishlistItemResponse `json:"items"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

type WishlistItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	WishlistID uuid.UUID       `json:"wishlistId"`
	ProductID  uuid.UUID       `json:"productId"`
	Product    *ProductSummary `json:"product,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// --- Mapping ---

func ToVariationResponse(v *model.Variation) VariationResponse {
	attrs := v.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	return VariationResponse{ID: v.ID, SKU: v.SKU, Attributes: attrs, Price: v.Price, Stock: v.Stock}
}

func ToProductResponse(p *model.Product) ProductResponse {
	variations := make([]VariationResponse, 0, len(p.Variations))
	for i := range p.Variations {
		variations = append(variations, ToVariationResponse(&p.Variations[i]))
	}
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Variations:  variations,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func ToReviewResponse(r *model.Review) ReviewResponse {
	return ReviewResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Author:    ReviewAuthor{Name: r.AuthorName, Email: r.AuthorEmail},
		CreatedAt: r.CreatedAt,
	}
}

// NewPagination describes one page of total results. TotalPages is 0 when
// there are no results.
func NewPagination(page, limit, results, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Results: results, Total: total, TotalPages: pages}
}

func toProductSummary(p *model.Product) *ProductSummary {
	if p == nil {
		return nil
	}
	return &ProductSummary{ID: p.ID, Name: p.Name, Description: p.Description, Price: p.Price}
}

func ToCartItemResponse(item *model.CartItem) *CartItemResponse {
	if item == nil {
		return nil
	}
	resp := &CartItemResponse{
		ID:          item.ID,
		CartID:      item.CartID,
		ProductID:   item.ProductID,
		VariationID: item.VariationID,
		Quantity:    item.Quantity,
		Product:     toProductSummary(item.Product),
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
	if item.Variation != nil {
		v := ToVariationResponse(item.Variation)
		resp.Variation = &v
	}
	return resp
}

func ToCartResponse(cart *model.Cart) *CartResponse {
	if cart == nil {
		return nil
	}
	items := make([]CartItemResponse, 0, len(cart.Items))
	for i := range cart.Items {
		items = append(items, *ToCartItemResponse(&cart.Items[i]))
	}
	return &CartResponse{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     items,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
}

func ToWishlistItemResponse(item *model.WishlistItem) *WishlistItemResponse {
	if item == nil {
		return nil
	}
	return &WishlistItemResponse{
		ID:         item.ID,
		WishlistID: item.WishlistID,
		ProductID:  item.ProductID,
		Product:    toProductSummary(item.Product),
		CreatedAt:  item.CreatedAt,
	}
}

func ToWishlistResponse(w *model.Wishlist) *WishlistResponse {
	if w == nil {
		return nil
	}
	items := make([]WishlistItemResponse, 0, len(w.Items))
	for i := range w.Items {
		items = append(items, *ToWishlistItemResponse(&w.Items[i]))
	}
	return &WishlistResponse{
		ID:        w.ID,
		UserID:    w.UserID,
		Items:     items,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}
