package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWishlistService(store *memStore) *WishlistService {
	return NewWishlistService(store.repos(false).Wishlists, store)
}

func TestWishlistService_AddAndGet(t *testing.T) {
	store := newMemStore()
	svc := newWishlistService(store)
	p, _ := store.seedProduct("mug")
	userID := uuid.New()
	ctx := context.Background()

	w, err := svc.GetWishlist(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, w)

	item, err := svc.AddItem(ctx, userID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, item.ProductID)

	w, err = svc.GetWishlist(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, w)
	require.Len(t, w.Items, 1)
	require.NotNil(t, w.Items[0].Product)
	assert.Equal(t, "mug", w.Items[0].Product.Name)
}

func TestWishlistService_AddItem_Duplicate(t *testing.T) {
	store := newMemStore()
	svc := newWishlistService(store)
	p, _ := store.seedProduct("mug")
	userID := uuid.New()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, userID, p.ID)
	require.NoError(t, err)

	_, err = svc.AddItem(ctx, userID, p.ID)
	assert.ErrorIs(t, err, ErrAlreadyExists)
	assert.Len(t, store.wishlistItems, 1)
}

func TestWishlistService_AddItem_UnknownProduct(t *testing.T) {
	store := newMemStore()
	svc := newWishlistService(store)

	_, err := svc.AddItem(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Empty(t, store.wishlists)
}

func TestWishlistService_RemoveLastItemDeletesWishlist(t *testing.T) {
	store := newMemStore()
	svc := newWishlistService(store)
	mug, _ := store.seedProduct("mug")
	tee, _ := store.seedProduct("tee")
	userID := uuid.New()
	ctx := context.Background()

	first, err := svc.AddItem(ctx, userID, mug.ID)
	require.NoError(t, err)
	second, err := svc.AddItem(ctx, userID, tee.ID)
	require.NoError(t, err)

	removed, err := svc.RemoveItem(ctx, userID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, removed.ID)
	assert.Len(t, store.wishlists, 1)

	_, err = svc.RemoveItem(ctx, userID, second.ID)
	require.NoError(t, err)
	assert.Empty(t, store.wishlists)
}

func TestWishlistService_RemoveItem_OtherUser(t *testing.T) {
	store := newMemStore()
	svc := newWishlistService(store)
	p, _ := store.seedProduct("mug")
	owner, intruder := uuid.New(), uuid.New()
	ctx := context.Background()

	item, err := svc.AddItem(ctx, owner, p.ID)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, intruder, p.ID)
	require.NoError(t, err)

	_, err = svc.RemoveItem(ctx, intruder, item.ID)
	assert.ErrorIs(t, err, ErrWishlistItemNotFound)
	assert.Contains(t, store.wishlistItems, item.ID)
}
