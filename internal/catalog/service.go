// Package catalog は商品カタログのドメインロジックを提供する。
// 商品の作成・更新は出品者本人に限定される。
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/ichiba/internal/model"
	"github.com/hitoshi/ichiba/internal/repository"
	"github.com/hitoshi/ichiba/internal/security"
)

// defaultListLimit は一覧取得のデフォルト件数。
const defaultListLimit = 50

// Service はcatalogサービスのサービス層。
type Service struct {
	products  repository.ProductRepository
	sanitizer security.ListingSanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(products repository.ProductRepository, sanitizer security.ListingSanitizer) *Service {
	return &Service{
		products:  products,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// sanitize は出品者入力のタイトルと説明文をサニタイズする。
// 検証前に適用し、タグ除去後に空になるタイトルを弾けるようにする。
func (s *Service) sanitize(in ProductInput) ProductInput {
	in.Title = s.sanitizer.SanitizeTitle(in.Title)
	in.Description = s.sanitizer.SanitizeDescription(in.Description)
	return in
}

// ProductInput は商品の作成・更新の入力。
type ProductInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	PriceAmount int64  `json:"priceAmount"`
	Currency    string `json:"currency"`
	Stock       int    `json:"stock"`
}

// Validate は商品入力を検証する。
func (in *ProductInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return model.NewInvalidRequestError("商品名は必須です")
	}
	if in.PriceAmount < 0 {
		return model.NewInvalidRequestError("価格は0以上にしてください")
	}
	if in.Stock < 0 {
		return model.NewInvalidRequestError("在庫は0以上にしてください")
	}
	return nil
}

// CreateProduct は出品者の新規商品を作成する。
func (s *Service) CreateProduct(ctx context.Context, sellerID string, in ProductInput) (*model.Product, error) {
	in = s.sanitize(in)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	currency := in.Currency
	if currency == "" {
		currency = "JPY"
	}

	now := s.now()
	product := &model.Product{
		ID:          uuid.NewString(),
		SellerID:    sellerID,
		Title:       in.Title,
		Description: in.Description,
		PriceAmount: in.PriceAmount,
		Currency:    currency,
		Stock:       in.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// GetProduct は指定IDの商品を返す。
func (s *Service) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if product == nil {
		return nil, model.NewProductNotFoundError(id)
	}
	return product, nil
}

// ListProducts は商品一覧を返す。limitが0以下の場合はデフォルト件数を使う。
func (s *Service) ListProducts(ctx context.Context, limit, offset int) ([]*model.Product, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	products, err := s.products.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// UpdateProduct は商品を更新する。出品者本人以外は更新できない。
func (s *Service) UpdateProduct(ctx context.Context, sellerID, productID string, in ProductInput) (*model.Product, error) {
	in = s.sanitize(in)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if existing == nil {
		return nil, model.NewProductNotFoundError(productID)
	}
	if existing.SellerID != sellerID {
		return nil, model.NewInsufficientRoleError()
	}

	currency := in.Currency
	if currency == "" {
		currency = existing.Currency
	}

	existing.Title = in.Title
	existing.Description = in.Description
	existing.PriceAmount = in.PriceAmount
	existing.Currency = currency
	existing.Stock = in.Stock
	existing.UpdatedAt = s.now()

	if err := s.products.Update(ctx, existing); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, model.NewProductNotFoundError(productID)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return existing, nil
}

// DeleteProduct は商品を削除する。出品者本人以外は削除できない。
func (s *Service) DeleteProduct(ctx context.Context, sellerID, productID string) error {
	existing, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to find product: %w", err)
	}
	if existing == nil {
		return model.NewProductNotFoundError(productID)
	}
	if existing.SellerID != sellerID {
		return model.NewInsufficientRoleError()
	}

	if err := s.products.Delete(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return model.NewProductNotFoundError(productID)
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}
