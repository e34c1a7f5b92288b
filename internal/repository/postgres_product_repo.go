package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/ichiba/internal/model"
)

// PostgresProductRepo はPostgreSQLを使用した商品リポジトリ。
type PostgresProductRepo struct {
	db *sql.DB
}

// NewPostgresProductRepo はPostgresProductRepoを生成する。
func NewPostgresProductRepo(db *sql.DB) *PostgresProductRepo {
	return &PostgresProductRepo{db: db}
}

// Create は商品を作成する。
func (r *PostgresProductRepo) Create(ctx context.Context, product *model.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, seller_id, title, description, price_amount, currency, stock, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		product.ID, product.SellerID, product.Title, product.Description,
		product.PriceAmount, product.Currency, product.Stock, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
func (r *PostgresProductRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	product := &model.Product{}
	var description sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, seller_id, title, description, price_amount, currency, stock, created_at, updated_at
		 FROM products WHERE id = $1`,
		id,
	).Scan(&product.ID, &product.SellerID, &product.Title, &description,
		&product.PriceAmount, &product.Currency, &product.Stock, &product.CreatedAt, &product.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	product.Description = description.String

	return product, nil
}

// List は商品一覧を作成日時降順で返す。
func (r *PostgresProductRepo) List(ctx context.Context, limit, offset int) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, seller_id, title, description, price_amount, currency, stock, created_at, updated_at
		 FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// ListBySellerID は出品者の商品一覧を作成日時降順で返す。
func (r *PostgresProductRepo) ListBySellerID(ctx context.Context, sellerID string) ([]*model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, seller_id, title, description, price_amount, currency, stock, created_at, updated_at
		 FROM products WHERE seller_id = $1 ORDER BY created_at DESC`,
		sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list products by seller: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// Update は商品を更新する。見つからない場合はErrProductNotFoundを返す。
func (r *PostgresProductRepo) Update(ctx context.Context, product *model.Product) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products
		 SET title = $1, description = $2, price_amount = $3, currency = $4, stock = $5, updated_at = $6
		 WHERE id = $7`,
		product.Title, product.Description, product.PriceAmount, product.Currency,
		product.Stock, product.UpdatedAt, product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Delete は商品を削除する。見つからない場合はErrProductNotFoundを返す。
func (r *PostgresProductRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func scanProducts(rows *sql.Rows) ([]*model.Product, error) {
	products := []*model.Product{}
	for rows.Next() {
		product := &model.Product{}
		var description sql.NullString
		if err := rows.Scan(&product.ID, &product.SellerID, &product.Title, &description,
			&product.PriceAmount, &product.Currency, &product.Stock, &product.CreatedAt, &product.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		product.Description = description.String
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return products, nil
}

// compile-time interface check
var _ ProductRepository = (*PostgresProductRepo)(nil)
