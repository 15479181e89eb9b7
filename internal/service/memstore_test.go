package service

import (
	"context"
	"fmt"
	"maps"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/ecom-cart-api/internal/model"
	"github.com/flicky/ecom-cart-api/internal/repository"
)

// memStore is an in-memory stand-in for Postgres. WithinTx holds the store
// lock for the whole callback and restores a snapshot when it fails, which
// gives the engine serialisable transactions.
type memStore struct {
	mu  sync.Mutex
	seq int

	carts         map[uuid.UUID]model.Cart
	cartItems     map[uuid.UUID]model.CartItem
	wishlists     map[uuid.UUID]model.Wishlist
	wishlistItems map[uuid.UUID]model.WishlistItem
	products      map[uuid.UUID]model.Product
	variations    map[uuid.UUID]model.Variation

	// failures makes the named repository method return the error.
	failures map[string]error
	commits  int
}

func newMemStore() *memStore {
	return &memStore{
		carts:         make(map[uuid.UUID]model.Cart),
		cartItems:     make(map[uuid.UUID]model.CartItem),
		wishlists:     make(map[uuid.UUID]model.Wishlist),
		wishlistItems: make(map[uuid.UUID]model.WishlistItem),
		products:      make(map[uuid.UUID]model.Product),
		variations:    make(map[uuid.UUID]model.Variation),
		failures:      make(map[string]error),
	}
}

type memSnapshot struct {
	carts         map[uuid.UUID]model.Cart
	cartItems     map[uuid.UUID]model.CartItem
	wishlists     map[uuid.UUID]model.Wishlist
	wishlistItems map[uuid.UUID]model.WishlistItem
	products      map[uuid.UUID]model.Product
	variations    map[uuid.UUID]model.Variation
}

func (s *memStore) snapshot() memSnapshot {
	return memSnapshot{
		carts:         maps.Clone(s.carts),
		cartItems:     maps.Clone(s.cartItems),
		wishlists:     maps.Clone(s.wishlists),
		wishlistItems: maps.Clone(s.wishlistItems),
		products:      maps.Clone(s.products),
		variations:    maps.Clone(s.variations),
	}
}

func (s *memStore) restore(snap memSnapshot) {
	s.carts = snap.carts
	s.cartItems = snap.cartItems
	s.wishlists = snap.wishlists
	s.wishlistItems = snap.wishlistItems
	s.products = snap.products
	s.variations = snap.variations
}

func (s *memStore) WithinTx(_ context.Context, fn func(r repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failures["Begin"]; err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	snap := s.snapshot()
	if err := fn(s.repos(true)); err != nil {
		s.restore(snap)
		return err
	}
	s.commits++
	return nil
}

func (s *memStore) repos(inTx bool) repository.Repositories {
	return repository.Repositories{
		Carts:     &memCartRepo{s: s, inTx: inTx},
		Wishlists: &memWishlistRepo{s: s, inTx: inTx},
		Products:  &memProductRepo{s: s, inTx: inTx},
	}
}

// enter takes the store lock unless the caller already holds it through WithinTx.
func (s *memStore) enter(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *memStore) fail(method string) error { return s.failures[method] }

func (s *memStore) stamp() time.Time {
	s.seq++
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(s.seq) * time.Second)
}

// seedProduct stores a product with one variation per stock value.
func (s *memStore) seedProduct(name string, stocks ...int) (model.Product, []model.Variation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := model.Product{ID: uuid.New(), Name: name, CreatedAt: s.stamp()}
	p.UpdatedAt = p.CreatedAt
	s.products[p.ID] = p

	vs := make([]model.Variation, 0, len(stocks))
	for i, stock := range stocks {
		v := model.Variation{
			ID:         uuid.New(),
			ProductID:  p.ID,
			SKU:        fmt.Sprintf("%s-%d", strings.ToUpper(name), i),
			Attributes: map[string]string{"size": fmt.Sprint(i)},
			Stock:      stock,
			CreatedAt:  s.stamp(),
		}
		s.variations[v.ID] = v
		vs = append(vs, v)
	}
	return p, vs
}

func (s *memStore) cartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

func (s *memStore) itemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cartItems)
}

func (s *memStore) item(id uuid.UUID) (model.CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.cartItems[id]
	return it, ok
}

// --- carts ---

type memCartRepo struct {
	s    *memStore
	inTx bool
}

func (r *memCartRepo) cartByUser(userID uuid.UUID) (model.Cart, bool) {
	for _, c := range r.s.carts {
		if c.UserID == userID {
			return c, true
		}
	}
	return model.Cart{}, false
}

func (r *memCartRepo) GetOrCreateCart(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	defer r.s.enter(r.inTx)()
	if err := r.s.fail("GetOrCreateCart"); err != nil {
		return nil, err
	}
	if c, ok := r.cartByUser(userID); ok {
		c.UpdatedAt = r.s.stamp()
		r.s.carts[c.ID] = c
		return &c, nil
	}
	now := r.s.stamp()
	c := model.Cart{ID: uuid.New(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	r.s.carts[c.ID] = c
	return &c, nil
}

func (r *memCartRepo) GetCartWithItems(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	defer r.s.enter(r.inTx)()
	if err := r.s.fail("GetCartWithItems"); err != nil {
		return nil, err
	}
	c, ok := r.cartByUser(userID)
	if !ok {
		return nil, nil
	}
	for _, it := range r.s.cartItems {
		if it.CartID != c.ID {
			continue
		}
		p := r.s.products[it.ProductID]
		v := r.s.variations[it.VariationID]
		it.Product = &p
		it.Variation = &v
		c.Items = append(c.Items, it)
	}
	sort.Slice(c.Items, func(i, j int) bool { return c.Items[i].CreatedAt.Before(c.Items[j].CreatedAt) })
	return &c, nil
}

func (r *memCartRepo) TouchCart(_ context.Context, userID uuid.UUID) (*model.Cart, error) {
	defer r.s.enter(r.inTx)()
	if err := r.s.fail("TouchCart"); err != nil {
		return nil, err
	}
	c, ok := r.cartByUser(userID)
	if !ok {
		return nil, nil
	}
	c.UpdatedAt = r.s.stamp()
	r.s.carts[c.ID] = c
	return &c, nil
}

func (r *memCartRepo) FindItem(_ context.Context, cartID, itemID uuid.UUID) (*model.CartItem, error) {
	defer r.s.enter(r.inTx)()
	if err := r.s.fail("FindItem"); err != nil {
		return nil, err
	}
	it, ok := r.s.cartItems[itemID]
	if !ok || it.CartID != cartID {
		return nil, nil
	}
	return &it, nil
}

func (r *memCartRepo) UpsertItem(_ context.Context, item *model.CartItem) error {
	defer r.s.enter(r.inTx)()
	if err := r.s.fail("UpsertItem"); err != nil {
		return err
	}
	if _, ok := r.s.carts[item.CartID]; !ok {
		return fmt.Errorf("insert cart item: cart %s violates foreign key", item.CartID)
	}
	for id, it := range r.s.cartItems {
		if it.CartID == item.CartID && it.ProductID == item.ProductID && it.VariationID == item.VariationID {
			if it.Quantity+item.Quantity > math.MaxInt32 {
				return fmt.Errorf("upsert cart item: %w", repository.ErrOutOfRange)
			}
			it.Quantity += item.Quantity
			it.UpdatedAt = r.s.stamp()
			r.s.cartItems[id] = it
			*item = it
			return nil
		}
	}
	now := r.s.stamp()
	item.ID = uuid.New()
	item.CreatedAt, item.UpdatedAt = now, now
	r.s.cartItems[item.ID] = *item
	return nil
}

func (r *memCartRepo) UpdateItem(_ context.Context, item *model.CartItem) error {
	defer r.s.enter(r.inTx)()
	if err := r.s.fail("UpdateItem"); err != nil {
		return err
	}
	it, ok := r.s.cartItems[item.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("cart_items quantity check violated: %d", item.Quantity)
	}
	it.Quantity = item.Quantity
	it.UpdatedAt = r.s.stamp()
	r.s.cartItems[item.ID] = it
	item.UpdatedAt = it.UpdatedAt
	return nil
}

func (r *memCartRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	defer r.s.enter(r.inTx)()
	if err := r.s.fail("DeleteItem"); err != nil {
		return err
	}
	if _, ok := r.s.cartItems[itemID]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.cartItems, itemID)
	return nil
}

func (r *memCartRepo) CountItems(_ context.Context, cartID uuid.UUID) (int, error) {
	defer r.s.enter(r.inTx)()
	if err := r.s.fail("CountItems"); err != nil {
		return 0, err
	}
	n := 0
	for _, it := range r.s.cartItems {
		if it.CartID == cartID {
			n++
		}
	}
	return n, nil
}

func (r *memCartRepo) DeleteCart(_ context.Context, cartID uuid.UUID) error {
	defer r.s.enter(r.inTx)()
	if err := r.s.fail("DeleteCart"); err != nil {
		return err
	}
	delete(r.s.carts, cartID)
	for id, it := range r.s.cartItems {
		if it.CartID == cartID {
			delete(r.s.cartItems, id)
		}
	}
	return nil
}

// --- wishlists ---

type memWishlistRepo struct {
	s    *memStore
	inTx bool
}

func (r *memWishlistRepo) byUser(userID uuid.UUID) (model.Wishlist, bool) {
	for _, w := range r.s.wishlists {
		if w.UserID == userID {
			return w, true
		}
	}
	return model.Wishlist{}, false
}

func (r *memWishlistRepo) GetOrCreateWishlist(_ context.Context, userID uuid.UUID) (*model.Wishlist, error) {
	defer r.s.enter(r.inTx)()
	if w, ok := r.byUser(userID); ok {
		return &w, nil
	}
	now := r.s.stamp()
	w := model.Wishlist{ID: uuid.New(), UserID: userID, CreatedAt: now, UpdatedAt: now}
	r.s.wishlists[w.ID] = w
	return &w, nil
}

func (r *memWishlistRepo) GetWishlistWithItems(_ context.Context, userID uuid.UUID) (*model.Wishlist, error) {
	defer r.s.enter(r.inTx)()
	if err := r.s.fail("GetWishlistWithItems"); err != nil {
		return nil, err
	}
	w, ok := r.byUser(userID)
	if !ok {
		return nil, nil
	}
	for _, it := range r.s.wishlistItems {
		if it.WishlistID == w.ID {
			p := r.s.products[it.ProductID]
			it.Product = &p
			w.Items = append(w.Items, it)
		}
	}
	sort.Slice(w.Items, func(i, j int) bool { return w.Items[i].CreatedAt.Before(w.Items[j].CreatedAt) })
	return &w, nil
}

func (r *memWishlistRepo) TouchWishlist(_ context.Context, userID uuid.UUID) (*model.Wishlist, error) {
	defer r.s.enter(r.inTx)()
	w, ok := r.byUser(userID)
	if !ok {
		return nil, nil
	}
	w.UpdatedAt = r.s.stamp()
	r.s.wishlists[w.ID] = w
	return &w, nil
}

func (r *memWishlistRepo) FindItem(_ context.Context, wishlistID, itemID uuid.UUID) (*model.WishlistItem, error) {
	defer r.s.enter(r.inTx)()
	it, ok := r.s.wishlistItems[itemID]
	if !ok || it.WishlistID != wishlistID {
		return nil, nil
	}
	return &it, nil
}

func (r *memWishlistRepo) CreateItem(_ context.Context, item *model.WishlistItem) error {
	defer r.s.enter(r.inTx)()
	for _, it := range r.s.wishlistItems {
		if it.WishlistID == item.WishlistID && it.ProductID == item.ProductID {
			return fmt.Errorf("create wishlist item: %w", repository.ErrConflict)
		}
	}
	item.ID = uuid.New()
	item.CreatedAt = r.s.stamp()
	r.s.wishlistItems[item.ID] = *item
	return nil
}

func (r *memWishlistRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	defer r.s.enter(r.inTx)()
	if _, ok := r.s.wishlistItems[itemID]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.wishlistItems, itemID)
	return nil
}

func (r *memWishlistRepo) CountItems(_ context.Context, wishlistID uuid.UUID) (int, error) {
	defer r.s.enter(r.inTx)()
	n := 0
	for _, it := range r.s.wishlistItems {
		if it.WishlistID == wishlistID {
			n++
		}
	}
	return n, nil
}

func (r *memWishlistRepo) DeleteWishlist(_ context.Context, wishlistID uuid.UUID) error {
	defer r.s.enter(r.inTx)()
	delete(r.s.wishlists, wishlistID)
	return nil
}

// --- products ---

type memProductRepo struct {
	s    *memStore
	inTx bool
}

func (r *memProductRepo) withVariations(p model.Product) model.Product {
	p.Variations = nil
	for _, v := range r.s.variations {
		if v.ProductID == p.ID {
			p.Variations = append(p.Variations, v)
		}
	}
	sort.Slice(p.Variations, func(i, j int) bool { return p.Variations[i].CreatedAt.Before(p.Variations[j].CreatedAt) })
	return p
}

func (r *memProductRepo) FindVariation(_ context.Context, productID, variationID uuid.UUID) (*model.Variation, error) {
	defer r.s.enter(r.inTx)()
	if err := r.s.fail("FindVariation"); err != nil {
		return nil, err
	}
	v, ok := r.s.variations[variationID]
	if !ok || v.ProductID != productID {
		return nil, nil
	}
	return &v, nil
}

func (r *memProductRepo) Create(_ context.Context, p *model.Product) error {
	defer r.s.enter(r.inTx)()
	if err := r.s.fail("CreateProduct"); err != nil {
		return err
	}
	p.ID = uuid.New()
	p.CreatedAt = r.s.stamp()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	stored.Variations = nil
	r.s.products[p.ID] = stored
	return nil
}

func (r *memProductRepo) CreateVariation(_ context.Context, v *model.Variation) error {
	defer r.s.enter(r.inTx)()
	for _, existing := range r.s.variations {
		if existing.SKU == v.SKU {
			return fmt.Errorf("create variation %q: %w", v.SKU, repository.ErrConflict)
		}
	}
	v.ID = uuid.New()
	v.CreatedAt = r.s.stamp()
	v.UpdatedAt = v.CreatedAt
	r.s.variations[v.ID] = *v
	return nil
}

func (r *memProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	defer r.s.enter(r.inTx)()
	if err := r.s.fail("GetProduct"); err != nil {
		return nil, err
	}
	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	p = r.withVariations(p)
	return &p, nil
}

func (r *memProductRepo) List(_ context.Context, limit, offset int, search, _, _ string) ([]model.Product, int, error) {
	defer r.s.enter(r.inTx)()
	var all []model.Product
	for _, p := range r.s.products {
		if search == "" || strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			all = append(all, r.withVariations(p))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := min(offset+limit, total)
	return all[offset:end], total, nil
}

func (r *memProductRepo) Update(_ context.Context, p *model.Product) error {
	defer r.s.enter(r.inTx)()
	if _, ok := r.s.products[p.ID]; !ok {
		return nil
	}
	p.UpdatedAt = r.s.stamp()
	stored := *p
	stored.Variations = nil
	r.s.products[p.ID] = stored
	return nil
}

func (r *memProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	defer r.s.enter(r.inTx)()
	if _, ok := r.s.products[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.products, id)
	for vid, v := range r.s.variations {
		if v.ProductID == id {
			delete(r.s.variations, vid)
		}
	}
	return nil
}

func (r *memProductRepo) SetVariationStock(_ context.Context, productID, variationID uuid.UUID, stock int) (*model.Variation, error) {
	defer r.s.enter(r.inTx)()
	v, ok := r.s.variations[variationID]
	if !ok || v.ProductID != productID {
		return nil, nil
	}
	v.Stock = stock
	v.UpdatedAt = r.s.stamp()
	r.s.variations[v.ID] = v
	return &v, nil
}
