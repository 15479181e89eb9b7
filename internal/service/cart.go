package service

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flicky/ecom-cart-api/internal/model"
	"github.com/flicky/ecom-cart-api/internal/repository"
)

// CartEventPublisher delivers cart lifecycle events after they are committed.
type CartEventPublisher interface {
	Publish(ctx context.Context, event model.CartEvent) error
}

// MaxItemQuantity is the largest quantity a cart line can hold, bounded by
// the INTEGER column that stores it.
const MaxItemQuantity = math.MaxInt32

type CartOption func(*CartService)

func WithEventPublisher(p CartEventPublisher) CartOption {
	return func(s *CartService) { s.publisher = p }
}

// WithOperationCounter records every engine call as (operation, outcome).
func WithOperationCounter(c *prometheus.CounterVec) CartOption {
	return func(s *CartService) { s.ops = c }
}

type CartService struct {
	carts     repository.CartRepository
	tx        repository.Transactor
	publisher CartEventPublisher
	ops       *prometheus.CounterVec
	log       *slog.Logger
	now       func() time.Time
}

func NewCartService(carts repository.CartRepository, tx repository.Transactor, log *slog.Logger, opts ...CartOption) *CartService {
	s := &CartService{carts: carts, tx: tx, log: log, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetCart returns the user's cart with expanded items, or nil when the user
// has none. It never creates a cart.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := s.carts.GetCartWithItems(ctx, userID)
	s.record("get", err)
	if err != nil {
		return nil, classify("get cart", err)
	}
	return cart, nil
}

// AddItem puts quantity units of a variation into the user's cart, creating
// the cart on first use and merging into an existing line for the same
// product and variation. Stock is checked against the variation's total
// stock; carts do not reserve units.
func (s *CartService) AddItem(ctx context.Context, userID, productID, variationID uuid.UUID, quantity int) (*model.CartItem, error) {
	if quantity < 1 {
		s.record("add", ErrInvalidQuantity)
		return nil, ErrInvalidQuantity
	}
	if quantity > MaxItemQuantity {
		s.record("add", ErrQuantityTooLarge)
		return nil, ErrQuantityTooLarge
	}

	var item *model.CartItem
	err := s.tx.WithinTx(ctx, func(r repository.Repositories) error {
		cart, err := r.Carts.GetOrCreateCart(ctx, userID)
		if err != nil {
			return err
		}

		variation, err := r.Products.FindVariation(ctx, productID, variationID)
		if err != nil {
			return err
		}
		if variation == nil {
			return ErrVariationNotFound
		}
		if variation.Stock < quantity {
			return &StockError{Available: variation.Stock, Requested: quantity}
		}

		item = &model.CartItem{
			CartID:      cart.ID,
			ProductID:   productID,
			VariationID: variationID,
			Quantity:    quantity,
		}
		if err := r.Carts.UpsertItem(ctx, item); err != nil {
			if errors.Is(err, repository.ErrOutOfRange) {
				return ErrQuantityTooLarge
			}
			return err
		}
		return nil
	})
	s.record("add", err)
	if err != nil {
		return nil, classify("add cart item", err)
	}

	s.publish(ctx, model.CartEventItemAdded, userID, item)
	return item, nil
}

// IncreaseQuantity adds one unit to an item in the user's cart. Stock is not
// re-checked here.
func (s *CartService) IncreaseQuantity(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error) {
	var item *model.CartItem
	err := s.tx.WithinTx(ctx, func(r repository.Repositories) error {
		var err error
		if _, item, err = lockOwnedItem(ctx, r.Carts, userID, itemID); err != nil {
			return err
		}
		if item.Quantity >= MaxItemQuantity {
			return ErrQuantityTooLarge
		}
		item.Quantity++
		return r.Carts.UpdateItem(ctx, item)
	})
	s.record("increase", err)
	if err != nil {
		return nil, classify("increase cart item", err)
	}

	s.publish(ctx, model.CartEventItemIncreased, userID, item)
	return item, nil
}

// DecreaseQuantity removes one unit from an item in the user's cart. An item
// at quantity 1 or less is deleted instead, along with the cart if it is left
// empty, and nil is returned.
func (s *CartService) DecreaseQuantity(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error) {
	var (
		item        *model.CartItem
		deleted     bool
		cartDeleted bool
	)
	err := s.tx.WithinTx(ctx, func(r repository.Repositories) error {
		cart, found, err := lockOwnedItem(ctx, r.Carts, userID, itemID)
		if err != nil {
			return err
		}
		item = found

		if item.Quantity > 1 {
			item.Quantity--
			return r.Carts.UpdateItem(ctx, item)
		}

		if err := r.Carts.DeleteItem(ctx, item.ID); err != nil {
			return err
		}
		deleted = true
		cartDeleted, err = deleteCartIfEmpty(ctx, r.Carts, cart.ID)
		return err
	})
	s.record("decrease", err)
	if err != nil {
		return nil, classify("decrease cart item", err)
	}

	if !deleted {
		s.publish(ctx, model.CartEventItemDecreased, userID, item)
		return item, nil
	}

	s.publish(ctx, model.CartEventItemRemoved, userID, item)
	if cartDeleted {
		s.publish(ctx, model.CartEventDeleted, userID, &model.CartItem{CartID: item.CartID})
	}
	return nil, nil
}

// RemoveItem deletes an item from the user's cart regardless of quantity and
// returns its last known values. An emptied cart is deleted too.
func (s *CartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error) {
	var (
		item        *model.CartItem
		cartDeleted bool
	)
	err := s.tx.WithinTx(ctx, func(r repository.Repositories) error {
		cart, found, err := lockOwnedItem(ctx, r.Carts, userID, itemID)
		if err != nil {
			return err
		}
		item = found

		if err := r.Carts.DeleteItem(ctx, item.ID); err != nil {
			return err
		}
		cartDeleted, err = deleteCartIfEmpty(ctx, r.Carts, cart.ID)
		return err
	})
	s.record("remove", err)
	if err != nil {
		return nil, classify("remove cart item", err)
	}

	s.publish(ctx, model.CartEventItemRemoved, userID, item)
	if cartDeleted {
		s.publish(ctx, model.CartEventDeleted, userID, &model.CartItem{CartID: item.CartID})
	}
	return item, nil
}

// lockOwnedItem locks the user's cart row, then the item row, in that order.
// An item outside the user's cart is reported as not found.
func lockOwnedItem(ctx context.Context, carts repository.CartRepository, userID, itemID uuid.UUID) (*model.Cart, *model.CartItem, error) {
	cart, err := carts.TouchCart(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if cart == nil {
		return nil, nil, ErrCartItemNotFound
	}

	item, err := carts.FindItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, nil, err
	}
	if item == nil {
		return nil, nil, ErrCartItemNotFound
	}
	return cart, item, nil
}

// deleteCartIfEmpty recounts items while the cart row is still locked by the
// caller's transaction.
func deleteCartIfEmpty(ctx context.Context, carts repository.CartRepository, cartID uuid.UUID) (bool, error) {
	n, err := carts.CountItems(ctx, cartID)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := carts.DeleteCart(ctx, cartID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CartService) publish(ctx context.Context, typ model.CartEventType, userID uuid.UUID, item *model.CartItem) {
	if s.publisher == nil {
		return
	}
	event := model.CartEvent{
		Type:        typ,
		UserID:      userID,
		CartID:      item.CartID,
		ItemID:      item.ID,
		ProductID:   item.ProductID,
		VariationID: item.VariationID,
		Quantity:    item.Quantity,
		OccurredAt:  s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("publish cart event",
			slog.String("type", string(typ)),
			slog.String("cart_id", item.CartID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func (s *CartService) record(op string, err error) {
	if s.ops == nil {
		return
	}
	s.ops.WithLabelValues(op, outcome(err)).Inc()
}
