package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/flicky/ecom-cart-api/internal/model"
	"github.com/flicky/ecom-cart-api/internal/repository"
)

type WishlistService struct {
	wishlists repository.WishlistRepository
	tx        repository.Transactor
}

func NewWishlistService(wishlists repository.WishlistRepository, tx repository.Transactor) *WishlistService {
	return &WishlistService{wishlists: wishlists, tx: tx}
}

func (s *WishlistService) GetWishlist(ctx context.Context, userID uuid.UUID) (*model.Wishlist, error) {
	w, err := s.wishlists.GetWishlistWithItems(ctx, userID)
	if err != nil {
		return nil, classify("get wishlist", err)
	}
	return w, nil
}

// AddItem wishlists a product. Items are presence-only, so adding a product
// twice fails with ErrProductInWishlist.
func (s *WishlistService) AddItem(ctx context.Context, userID, productID uuid.UUID) (*model.WishlistItem, error) {
	var item *model.WishlistItem
	err := s.tx.WithinTx(ctx, func(r repository.Repositories) error {
		product, err := r.Products.GetByID(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}

		w, err := r.Wishlists.GetOrCreateWishlist(ctx, userID)
		if err != nil {
			return err
		}

		item = &model.WishlistItem{WishlistID: w.ID, ProductID: productID}
		if err := r.Wishlists.CreateItem(ctx, item); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrProductInWishlist
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, classify("add wishlist item", err)
	}
	return item, nil
}

// RemoveItem deletes an item from the user's wishlist and deletes the
// wishlist when it is left empty.
func (s *WishlistService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*model.WishlistItem, error) {
	var item *model.WishlistItem
	err := s.tx.WithinTx(ctx, func(r repository.Repositories) error {
		w, err := r.Wishlists.TouchWishlist(ctx, userID)
		if err != nil {
			return err
		}
		if w == nil {
			return ErrWishlistItemNotFound
		}

		item, err = r.Wishlists.FindItem(ctx, w.ID, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return ErrWishlistItemNotFound
		}

		if err := r.Wishlists.DeleteItem(ctx, item.ID); err != nil {
			return err
		}
		n, err := r.Wishlists.CountItems(ctx, w.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			return r.Wishlists.DeleteWishlist(ctx, w.ID)
		}
		return nil
	})
	if err != nil {
		return nil, classify("remove wishlist item", err)
	}
	return item, nil
}
