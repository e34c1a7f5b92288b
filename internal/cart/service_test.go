package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/ichiba/internal/model"
)

// mockCartRepo はCartRepositoryの関数フィールド型モック。
type mockCartRepo struct {
	findByUserIDFn func(ctx context.Context, userID string) (*model.Cart, error)
	upsertItemFn   func(ctx context.Context, userID, productID string, quantity int) error
	removeItemFn   func(ctx context.Context, userID, productID string) error
	clearFn        func(ctx context.Context, userID string) error
}

func (m *mockCartRepo) FindByUserID(ctx context.Context, userID string) (*model.Cart, error) {
	return m.findByUserIDFn(ctx, userID)
}
func (m *mockCartRepo) UpsertItem(ctx context.Context, userID, productID string, quantity int) error {
	return m.upsertItemFn(ctx, userID, productID, quantity)
}
func (m *mockCartRepo) RemoveItem(ctx context.Context, userID, productID string) error {
	return m.removeItemFn(ctx, userID, productID)
}
func (m *mockCartRepo) Clear(ctx context.Context, userID string) error {
	return m.clearFn(ctx, userID)
}

// mockProductRepo はProductRepositoryの関数フィールド型モック。
type mockProductRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.Product, error)
}

func (m *mockProductRepo) Create(ctx context.Context, product *model.Product) error { return nil }
func (m *mockProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockProductRepo) List(ctx context.Context, limit, offset int) ([]*model.Product, error) {
	return nil, nil
}
func (m *mockProductRepo) ListBySellerID(ctx context.Context, sellerID string) ([]*model.Product, error) {
	return nil, nil
}
func (m *mockProductRepo) Update(ctx context.Context, product *model.Product) error { return nil }
func (m *mockProductRepo) Delete(ctx context.Context, id string) error              { return nil }

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("error code = %q, want %q", apiErr.Code, code)
	}
}

func TestAddItem_Success(t *testing.T) {
	var upsertedProduct string
	var upsertedQty int
	carts := &mockCartRepo{
		upsertItemFn: func(ctx context.Context, userID, productID string, quantity int) error {
			upsertedProduct, upsertedQty = productID, quantity
			return nil
		},
		findByUserIDFn: func(ctx context.Context, userID string) (*model.Cart, error) {
			return &model.Cart{UserID: userID, Items: []model.CartItem{{ProductID: "p-1", Quantity: 2}}}, nil
		},
	}
	products := &mockProductRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
			return &model.Product{ID: id, Stock: 10}, nil
		},
	}
	svc := NewService(carts, products)

	cart, err := svc.AddItem(context.Background(), "u-1", "p-1", 2)
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if upsertedProduct != "p-1" || upsertedQty != 2 {
		t.Errorf("upserted (%q, %d), want (p-1, 2)", upsertedProduct, upsertedQty)
	}
	if len(cart.Items) != 1 {
		t.Errorf("cart items = %d, want 1", len(cart.Items))
	}
}

func TestAddItem_NonPositiveQuantity(t *testing.T) {
	svc := NewService(&mockCartRepo{}, &mockProductRepo{})

	_, err := svc.AddItem(context.Background(), "u-1", "p-1", 0)
	assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	products := &mockProductRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Product, error) { return nil, nil },
	}
	svc := NewService(&mockCartRepo{}, products)

	_, err := svc.AddItem(context.Background(), "u-1", "p-gone", 1)
	assertAPIErrorCode(t, err, model.ErrCodeProductNotFound)
}

func TestAddItem_ExceedsStock(t *testing.T) {
	upserted := false
	carts := &mockCartRepo{
		upsertItemFn: func(ctx context.Context, userID, productID string, quantity int) error {
			upserted = true
			return nil
		},
	}
	products := &mockProductRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
			return &model.Product{ID: id, Stock: 3}, nil
		},
	}
	svc := NewService(carts, products)

	_, err := svc.AddItem(context.Background(), "u-1", "p-1", 5)
	assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
	if upserted {
		t.Error("cart should not be updated when quantity exceeds stock")
	}
}

func TestAddItem_QuantityEqualsStock(t *testing.T) {
	carts := &mockCartRepo{
		upsertItemFn: func(ctx context.Context, userID, productID string, quantity int) error { return nil },
		findByUserIDFn: func(ctx context.Context, userID string) (*model.Cart, error) {
			return &model.Cart{UserID: userID, Items: []model.CartItem{{ProductID: "p-1", Quantity: 3}}}, nil
		},
	}
	products := &mockProductRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Product, error) {
			return &model.Product{ID: id, Stock: 3}, nil
		},
	}
	svc := NewService(carts, products)

	if _, err := svc.AddItem(context.Background(), "u-1", "p-1", 3); err != nil {
		t.Fatalf("AddItem at exact stock returned error: %v", err)
	}
}

func TestGetCart_EmptyCartForNewUser(t *testing.T) {
	carts := &mockCartRepo{
		findByUserIDFn: func(ctx context.Context, userID string) (*model.Cart, error) {
			return &model.Cart{UserID: userID, Items: []model.CartItem{}}, nil
		},
	}
	svc := NewService(carts, &mockProductRepo{})

	cart, err := svc.GetCart(context.Background(), "u-new")
	if err != nil {
		t.Fatalf("GetCart returned error: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Errorf("cart items = %d, want 0", len(cart.Items))
	}
}

func TestRemoveItem_ReturnsUpdatedCart(t *testing.T) {
	removed := false
	carts := &mockCartRepo{
		removeItemFn: func(ctx context.Context, userID, productID string) error {
			removed = true
			return nil
		},
		findByUserIDFn: func(ctx context.Context, userID string) (*model.Cart, error) {
			return &model.Cart{UserID: userID, Items: []model.CartItem{}}, nil
		},
	}
	svc := NewService(carts, &mockProductRepo{})

	cart, err := svc.RemoveItem(context.Background(), "u-1", "p-1")
	if err != nil {
		t.Fatalf("RemoveItem returned error: %v", err)
	}
	if !removed {
		t.Error("item was not removed")
	}
	if len(cart.Items) != 0 {
		t.Errorf("cart items = %d, want 0", len(cart.Items))
	}
}

func TestClear_PropagatesError(t *testing.T) {
	carts := &mockCartRepo{
		clearFn: func(ctx context.Context, userID string) error { return errors.New("db down") },
	}
	svc := NewService(carts, &mockProductRepo{})

	if err := svc.Clear(context.Background(), "u-1"); err == nil {
		t.Error("expected error when clear fails")
	}
}
