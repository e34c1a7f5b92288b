// Package payment は注文に対する支払い記録のドメインロジックを提供する。
// 決済プロバイダ連携は行わず、支払い事実の記録と注文状態の遷移のみを扱う。
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/ichiba/internal/model"
	"github.com/hitoshi/ichiba/internal/repository"
)

// Service はpaymentサービスのサービス層。
type Service struct {
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(payments repository.PaymentRepository, orders repository.OrderRepository) *Service {
	return &Service{
		payments: payments,
		orders:   orders,
		now:      time.Now,
	}
}

// Pay は注文の支払いを記録し、注文をpaidへ遷移させる。
// 注文ごとに1件のユニーク制約があるため、二重払いは記録されない。
func (s *Service) Pay(ctx context.Context, userID, orderID, method string) (*model.Payment, error) {
	if method == "" {
		return nil, model.NewInvalidRequestError("支払い方法は必須です")
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, model.NewOrderNotFoundError(orderID)
	}
	if order.Status == model.OrderStatusPaid {
		return nil, model.NewInvalidRequestError("この注文は支払い済みです")
	}

	payment := &model.Payment{
		ID:        uuid.NewString(),
		OrderID:   orderID,
		UserID:    userID,
		Amount:    order.TotalAmount,
		Currency:  order.Currency,
		Method:    method,
		CreatedAt: s.now(),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrDuplicatePayment) {
			return nil, model.NewInvalidRequestError("この注文は支払い済みです")
		}
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	if err := s.orders.UpdateStatus(ctx, orderID, model.OrderStatusPaid); err != nil {
		// 支払いは記録済み。状態遷移の失敗は記録して照会側で補正する。
		slog.Error("failed to mark order as paid",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}

	slog.Info("payment recorded",
		slog.String("payment_id", payment.ID),
		slog.String("order_id", orderID),
		slog.Int64("amount", payment.Amount),
	)
	return payment, nil
}

// GetByOrder は注文の支払い記録を返す。他ユーザーの記録は参照できない。
func (s *Service) GetByOrder(ctx context.Context, userID, orderID string) (*model.Payment, error) {
	payment, err := s.payments.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	if payment == nil || payment.UserID != userID {
		return nil, model.NewPaymentNotFoundError(orderID)
	}
	return payment, nil
}

// ListByUser はユーザーの支払い一覧を返す。
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*model.Payment, error) {
	payments, err := s.payments.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}
