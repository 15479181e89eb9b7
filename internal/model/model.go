package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

type User struct {
	ID        uuid.UUID
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Product struct {
	ID          uuid.UUID
	Name        string
	Description string
	Price       decimal.Decimal
	Variations  []Variation
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Review is one user's rating of a product. Author fields are filled on reads.
type Review struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	UserID      uuid.UUID
	Rating      int
	Comment     string
	AuthorName  string
	AuthorEmail string
	CreatedAt   time.Time
}

// Variation is the purchasable unit of a product; it carries stock and price.
type Variation struct {
	ID         uuid.UUID
	ProductID  uuid.UUID
	SKU        string
	Attributes map[string]string
	Price      decimal.Decimal
	Stock      int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Cart struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CartItem struct {
	ID          uuid.UUID
	CartID      uuid.UUID
	ProductID   uuid.UUID
	VariationID uuid.UUID
	Quantity    int

	// Populated only when the item is read as part of a cart view.
	Product   *Product
	Variation *Variation

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Wishlist struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Items     []WishlistItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

type WishlistItem struct {
	ID         uuid.UUID
	WishlistID uuid.UUID
	ProductID  uuid.UUID
	Product    *Product
	CreatedAt  time.Time
}

type CartEventType string

const (
	CartEventItemAdded     CartEventType = "cart.item_added"
	CartEventItemIncreased CartEventType = "cart.item_increased"
	CartEventItemDecreased CartEventType = "cart.item_decreased"
	CartEventItemRemoved   CartEventType = "cart.item_removed"
	CartEventDeleted       CartEventType = "cart.deleted"
)

type CartEvent struct {
	Type        CartEventType `json:"type"`
	UserID      uuid.UUID     `json:"user_id"`
	CartID      uuid.UUID     `json:"cart_id"`
	ItemID      uuid.UUID     `json:"item_id"`
	ProductID   uuid.UUID     `json:"product_id"`
	VariationID uuid.UUID     `json:"variation_id"`
	Quantity    int           `json:"quantity"`
	OccurredAt  time.Time     `json:"occurred_at"`
}
