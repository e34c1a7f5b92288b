package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/ichiba/internal/model"
)

// PostgresCartRepo はPostgreSQLを使用したカートリポジトリ。
type PostgresCartRepo struct {
	db *sql.DB
}

// NewPostgresCartRepo はPostgresCartRepoを生成する。
func NewPostgresCartRepo(db *sql.DB) *PostgresCartRepo {
	return &PostgresCartRepo{db: db}
}

// FindByUserID はユーザーのカートを取得する。未作成の場合は空のカートを返す。
func (r *PostgresCartRepo) FindByUserID(ctx context.Context, userID string) (*model.Cart, error) {
	cart := &model.Cart{UserID: userID, Items: []model.CartItem{}}

	err := r.db.QueryRowContext(ctx,
		`SELECT updated_at FROM carts WHERE user_id = $1`,
		userID,
	).Scan(&cart.UpdatedAt)
	if err == sql.ErrNoRows {
		return cart, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, quantity FROM cart_items WHERE cart_user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cart items: %w", err)
	}

	return cart, nil
}

// UpsertItem はカート項目を冪等にUPSERTする。数量は上書きする。
func (r *PostgresCartRepo) UpsertItem(ctx context.Context, userID, productID string, quantity int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// カート本体が無ければ作る
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO carts (user_id, updated_at) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET updated_at = $2`,
		userID, time.Now(),
	); err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cart_items (cart_user_id, product_id, quantity) VALUES ($1, $2, $3)
		 ON CONFLICT (cart_user_id, product_id) DO UPDATE SET quantity = $3`,
		userID, productID, quantity,
	); err != nil {
		return fmt.Errorf("failed to upsert cart item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RemoveItem はカートから指定商品を削除する。
func (r *PostgresCartRepo) RemoveItem(ctx context.Context, userID, productID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_user_id = $1 AND product_id = $2`,
		userID, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

// Clear はカートを空にする。
func (r *PostgresCartRepo) Clear(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE cart_user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// compile-time interface check
var _ CartRepository = (*PostgresCartRepo)(nil)
