// Package cart はユーザーごとのカート操作のドメインロジックを提供する。
package cart

import (
	"context"
	"fmt"

	"github.com/hitoshi/ichiba/internal/model"
	"github.com/hitoshi/ichiba/internal/repository"
)

// Service はcartサービスのサービス層。
type Service struct {
	carts    repository.CartRepository
	products repository.ProductRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(carts repository.CartRepository, products repository.ProductRepository) *Service {
	return &Service{carts: carts, products: products}
}

// GetCart はユーザーのカートを返す。未作成の場合は空のカートを返す。
func (s *Service) GetCart(ctx context.Context, userID string) (*model.Cart, error) {
	cart, err := s.carts.FindByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return cart, nil
}

// AddItem はカートに商品を追加する。既にある商品は数量を上書きする。
// 存在しない商品、在庫を超える数量は追加できない。
func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int) (*model.Cart, error) {
	if quantity <= 0 {
		return nil, model.NewInvalidRequestError("数量は1以上にしてください")
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(productID)
	}
	if quantity > product.Stock {
		return nil, model.NewInvalidRequestError(fmt.Sprintf("在庫が不足しています（残り%d点）", product.Stock))
	}

	if err := s.carts.UpsertItem(ctx, userID, productID, quantity); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	return s.GetCart(ctx, userID)
}

// RemoveItem はカートから商品を削除する。
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (*model.Cart, error) {
	if err := s.carts.RemoveItem(ctx, userID, productID); err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return s.GetCart(ctx, userID)
}

// Clear はカートを空にする。
func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
