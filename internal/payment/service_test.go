package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/ichiba/internal/model"
	"github.com/hitoshi/ichiba/internal/repository"
)

// mockPaymentRepo はPaymentRepositoryの関数フィールド型モック。
type mockPaymentRepo struct {
	createFn        func(ctx context.Context, payment *model.Payment) error
	findByOrderIDFn func(ctx context.Context, orderID string) (*model.Payment, error)
	listByUserIDFn  func(ctx context.Context, userID string) ([]*model.Payment, error)
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	return m.createFn(ctx, payment)
}
func (m *mockPaymentRepo) FindByOrderID(ctx context.Context, orderID string) (*model.Payment, error) {
	return m.findByOrderIDFn(ctx, orderID)
}
func (m *mockPaymentRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Payment, error) {
	return m.listByUserIDFn(ctx, userID)
}

// mockOrderRepo はOrderRepositoryの関数フィールド型モック。
type mockOrderRepo struct {
	findByIDFn     func(ctx context.Context, id string) (*model.Order, error)
	updateStatusFn func(ctx context.Context, id string, status model.OrderStatus) error
}

func (m *mockOrderRepo) Create(ctx context.Context, order *model.Order) error { return nil }
func (m *mockOrderRepo) FindByID(ctx context.Context, id string) (*model.Order, error) {
	return m.findByIDFn(ctx, id)
}
func (m *mockOrderRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Order, error) {
	return nil, nil
}
func (m *mockOrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	return m.updateStatusFn(ctx, id, status)
}

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

func pendingOrder(id, userID string) *model.Order {
	return &model.Order{ID: id, UserID: userID, TotalAmount: 5500, Currency: "JPY", Status: model.OrderStatusPending}
}

func TestPay_RecordsPaymentAndMarksOrderPaid(t *testing.T) {
	var recorded *model.Payment
	var newStatus model.OrderStatus

	payments := &mockPaymentRepo{
		createFn: func(ctx context.Context, payment *model.Payment) error {
			recorded = payment
			return nil
		},
	}
	orders := &mockOrderRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Order, error) {
			return pendingOrder(id, "u-1"), nil
		},
		updateStatusFn: func(ctx context.Context, id string, status model.OrderStatus) error {
			newStatus = status
			return nil
		},
	}
	svc := NewService(payments, orders)

	payment, err := svc.Pay(context.Background(), "u-1", "o-1", "card")
	if err != nil {
		t.Fatalf("Pay returned error: %v", err)
	}

	if payment.Amount != 5500 {
		t.Errorf("amount = %d, want order total 5500", payment.Amount)
	}
	if recorded == nil {
		t.Error("payment was not persisted")
	}
	if newStatus != model.OrderStatusPaid {
		t.Errorf("order status = %q, want %q", newStatus, model.OrderStatusPaid)
	}
}

func TestPay_AlreadyPaidOrder(t *testing.T) {
	orders := &mockOrderRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Order, error) {
			order := pendingOrder(id, "u-1")
			order.Status = model.OrderStatusPaid
			return order, nil
		},
	}
	svc := NewService(&mockPaymentRepo{}, orders)

	_, err := svc.Pay(context.Background(), "u-1", "o-1", "card")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
}

// ユニーク制約による二重払い検出が入力エラーとして返ること
func TestPay_DuplicatePayment(t *testing.T) {
	payments := &mockPaymentRepo{
		createFn: func(ctx context.Context, payment *model.Payment) error {
			return repository.ErrDuplicatePayment
		},
	}
	orders := &mockOrderRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Order, error) {
			return pendingOrder(id, "u-1"), nil
		},
	}
	svc := NewService(payments, orders)

	_, err := svc.Pay(context.Background(), "u-1", "o-1", "card")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
}

func TestPay_OtherUsersOrder_NotFound(t *testing.T) {
	orders := &mockOrderRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Order, error) {
			return pendingOrder(id, "u-owner"), nil
		},
	}
	svc := NewService(&mockPaymentRepo{}, orders)

	_, err := svc.Pay(context.Background(), "u-other", "o-1", "card")
	assertAPIErrorCode(t, err, model.ErrCodeOrderNotFound)
}

func TestPay_MissingMethod(t *testing.T) {
	svc := NewService(&mockPaymentRepo{}, &mockOrderRepo{})

	_, err := svc.Pay(context.Background(), "u-1", "o-1", "")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidRequest)
}

func TestGetByOrder_OtherUser_NotFound(t *testing.T) {
	payments := &mockPaymentRepo{
		findByOrderIDFn: func(ctx context.Context, orderID string) (*model.Payment, error) {
			return &model.Payment{ID: "pay-1", OrderID: orderID, UserID: "u-owner"}, nil
		},
	}
	svc := NewService(payments, &mockOrderRepo{})

	_, err := svc.GetByOrder(context.Background(), "u-other", "o-1")
	assertAPIErrorCode(t, err, model.ErrCodePaymentNotFound)
}
