// Package order はカートからの注文確定と注文照会のドメインロジックを提供する。
package order

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/ichiba/internal/model"
	"github.com/hitoshi/ichiba/internal/repository"
)

// Service はorderサービスのサービス層。
type Service struct {
	orders   repository.OrderRepository
	carts    repository.CartRepository
	products repository.ProductRepository
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	orders repository.OrderRepository,
	carts repository.CartRepository,
	products repository.ProductRepository,
) *Service {
	return &Service{
		orders:   orders,
		carts:    carts,
		products: products,
		now:      time.Now,
	}
}

// Checkout はカートの内容から注文を確定する。
// 合計金額は確定時点の商品価格から算出する。確定後カートは空にする。
func (s *Service) Checkout(ctx context.Context, userID string) (*model.Order, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return nil, model.NewInvalidRequestError("カートが空です")
	}

	var total int64
	currency := "JPY"
	for _, item := range cart.Items {
		product, err := s.products.FindByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("failed to find product: %w", err)
		}
		if product == nil {
			return nil, model.NewProductNotFoundError(item.ProductID)
		}
		total += product.PriceAmount * int64(item.Quantity)
		currency = product.Currency
	}

	order := &model.Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		Items:       cart.Items,
		TotalAmount: total,
		Currency:    currency,
		Status:      model.OrderStatusPending,
		CreatedAt:   s.now(),
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	// 注文は確定済みのため、カートの掃除失敗で全体を失敗させない
	if err := s.carts.Clear(ctx, userID); err != nil {
		slog.Error("failed to clear cart after checkout",
			slog.String("user_id", userID),
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	slog.Info("order placed",
		slog.String("order_id", order.ID),
		slog.String("user_id", userID),
		slog.Int64("total_amount", total),
	)
	return order, nil
}

// GetOrder は指定IDの注文を返す。他ユーザーの注文は参照できない。
func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (*model.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	if order == nil || order.UserID != userID {
		// 他人の注文の存在を漏らさない
		return nil, model.NewOrderNotFoundError(orderID)
	}
	return order, nil
}

// ListOrders はユーザーの注文一覧を返す。
func (s *Service) ListOrders(ctx context.Context, userID string) ([]*model.Order, error) {
	orders, err := s.orders.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
