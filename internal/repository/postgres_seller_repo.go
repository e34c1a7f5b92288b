package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/ichiba/internal/model"
)

// PostgresSellerProjectionRepo はPostgreSQLを使用したユーザー射影リポジトリ。
type PostgresSellerProjectionRepo struct {
	db *sql.DB
}

// NewPostgresSellerProjectionRepo はPostgresSellerProjectionRepoを生成する。
func NewPostgresSellerProjectionRepo(db *sql.DB) *PostgresSellerProjectionRepo {
	return &PostgresSellerProjectionRepo{db: db}
}

// Upsert は射影をuser_idキーで冪等にUPSERTする。
// 同じイベントが再配送されても結果は変わらない。
func (r *PostgresSellerProjectionRepo) Upsert(ctx context.Context, p *model.SellerProjection) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO seller_users (user_id, email, full_name, role, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE
		 SET email = $2, full_name = $3, role = $4, updated_at = $5`,
		p.UserID, p.Email, p.FullName, p.Role, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert seller projection: %w", err)
	}
	return nil
}

// FindByUserID は指定ユーザーの射影を取得する。見つからない場合はnilを返す。
func (r *PostgresSellerProjectionRepo) FindByUserID(ctx context.Context, userID string) (*model.SellerProjection, error) {
	p := &model.SellerProjection{}
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, email, full_name, role, updated_at FROM seller_users WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.Email, &p.FullName, &p.Role, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find seller projection: %w", err)
	}

	return p, nil
}

// compile-time interface check
var _ SellerProjectionRepository = (*PostgresSellerProjectionRepo)(nil)
