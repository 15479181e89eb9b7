package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/flicky/ecom-cart-api/internal/dto"
	"github.com/flicky/ecom-cart-api/internal/model"
)

const testSecret = "handler-test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := dto.RegisterValidators(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ============================================================================
// Mock services
// ============================================================================

type mockCartService struct{ mock.Mock }

func (m *mockCartService) GetCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *mockCartService) AddItem(ctx context.Context, userID, productID, variationID uuid.UUID, quantity int) (*model.CartItem, error) {
	args := m.Called(ctx, userID, productID, variationID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

func (m *mockCartService) IncreaseQuantity(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error) {
	return m.item(m.Called(ctx, userID, itemID))
}

func (m *mockCartService) DecreaseQuantity(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error) {
	return m.item(m.Called(ctx, userID, itemID))
}

func (m *mockCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*model.CartItem, error) {
	return m.item(m.Called(ctx, userID, itemID))
}

func (m *mockCartService) item(args mock.Arguments) (*model.CartItem, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartItem), args.Error(1)
}

type mockWishlistService struct{ mock.Mock }

func (m *mockWishlistService) GetWishlist(ctx context.Context, userID uuid.UUID) (*model.Wishlist, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Wishlist), args.Error(1)
}

func (m *mockWishlistService) AddItem(ctx context.Context, userID, productID uuid.UUID) (*model.WishlistItem, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WishlistItem), args.Error(1)
}

func (m *mockWishlistService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*model.WishlistItem, error) {
	args := m.Called(ctx, userID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WishlistItem), args.Error(1)
}

type mockProductService struct{ mock.Mock }

func (m *mockProductService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	return m.product(m.Called(ctx, req))
}

func (m *mockProductService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	return m.product(m.Called(ctx, id))
}

func (m *mockProductService) List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ProductListResponse), args.Error(1)
}

func (m *mockProductService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	return m.product(m.Called(ctx, id, req))
}

func (m *mockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductService) SetVariationStock(ctx context.Context, productID, variationID uuid.UUID, stock int) (*dto.VariationResponse, error) {
	args := m.Called(ctx, productID, variationID, stock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.VariationResponse), args.Error(1)
}

func (m *mockProductService) product(args mock.Arguments) (*dto.ProductResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ProductResponse), args.Error(1)
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResponse), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.AuthResponse), args.Error(1)
}

type mockReviewService struct{ mock.Mock }

func (m *mockReviewService) Create(ctx context.Context, userID, productID uuid.UUID, req dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	args := m.Called(ctx, userID, productID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReviewResponse), args.Error(1)
}

func (m *mockReviewService) List(ctx context.Context, productID uuid.UUID, req dto.ListReviewsRequest) (*dto.ReviewListResponse, error) {
	args := m.Called(ctx, productID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReviewListResponse), args.Error(1)
}

type mockUserService struct{ mock.Mock }

func (m *mockUserService) List(ctx context.Context, req dto.ListUsersRequest) (*dto.UserListResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.UserListResponse), args.Error(1)
}

// ============================================================================
// Test harness
// ============================================================================

type testServer struct {
	router   *gin.Engine
	cart     *mockCartService
	wishlist *mockWishlistService
	products *mockProductService
	reviews  *mockReviewService
	users    *mockUserService
	auth     *mockAuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := testLogger()
	s := &testServer{
		cart:     &mockCartService{},
		wishlist: &mockWishlistService{},
		products: &mockProductService{},
		reviews:  &mockReviewService{},
		users:    &mockUserService{},
		auth:     &mockAuthService{},
	}
	s.router = NewRouter(RouterConfig{
		JWTSecret: testSecret,
		Log:       log,
		Auth:      NewAuthHandler(s.auth, log),
		Products:  NewProductHandler(s.products, log),
		Reviews:   NewReviewHandler(s.reviews, log),
		Users:     NewUserHandler(s.users, log),
		Cart:      NewCartHandler(s.cart, log),
		Wishlist:  NewWishlistHandler(s.wishlist, log),
		Health:    NewHealthHandler(nil),
	})
	t.Cleanup(func() {
		s.cart.AssertExpectations(t)
		s.wishlist.AssertExpectations(t)
		s.products.AssertExpectations(t)
		s.reviews.AssertExpectations(t)
		s.users.AssertExpectations(t)
		s.auth.AssertExpectations(t)
	})
	return s
}

func tokenFor(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"role": role,
		"exp":  jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

type testResponse struct {
	Code    int
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) testResponse {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	var resp testResponse
	if rr.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	}
	resp.Code = rr.Code
	return resp
}
