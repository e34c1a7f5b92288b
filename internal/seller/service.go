// Package seller はuser-createdイベントで更新されるユーザー射影と
// seller-dashboardサービスのドメインロジックを提供する。
package seller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/ichiba/internal/model"
	"github.com/hitoshi/ichiba/internal/repository"
)

// Service はseller-dashboardサービスのサービス層。
type Service struct {
	projections repository.SellerProjectionRepository
	products    repository.ProductRepository
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(projections repository.SellerProjectionRepository, products repository.ProductRepository) *Service {
	return &Service{
		projections: projections,
		products:    products,
		now:         time.Now,
	}
}

// ApplyUserCreated はuser-createdイベントをユーザー射影として反映する。
// user_idキーのUPSERTのため、再配送で同じイベントが届いても結果は変わらない。
func (s *Service) ApplyUserCreated(ctx context.Context, ev *model.Event) error {
	user, err := ev.DecodeUserPayload()
	if err != nil {
		slog.Error("failed to decode user-created payload",
			slog.String("subject", ev.Subject),
			slog.String("error", err.Error()),
		)
		return nil
	}

	p := &model.SellerProjection{
		UserID:    user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		UpdatedAt: s.now(),
	}
	if err := s.projections.Upsert(ctx, p); err != nil {
		return fmt.Errorf("failed to upsert projection: %w", err)
	}
	return nil
}

// Profile は出品者自身の射影を返す。
// イベントが未到達の場合は結果整合の遅延としてnilを返す。
func (s *Service) Profile(ctx context.Context, userID string) (*model.SellerProjection, error) {
	p, err := s.projections.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find projection: %w", err)
	}
	return p, nil
}

// ListProducts は出品者の商品一覧を返す。
func (s *Service) ListProducts(ctx context.Context, sellerID string) ([]*model.Product, error) {
	products, err := s.products.ListBySellerID(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list seller products: %w", err)
	}
	return products, nil
}
