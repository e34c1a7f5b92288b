package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/ichiba/internal/model"
)

// uniqueViolation はPostgreSQLのユニーク制約違反コード。
const uniqueViolation = "23505"

// isUniqueViolation はユニーク制約違反かどうかを判別する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Create はユーザーをパスワードハッシュとともに作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, full_name, role, profile_image, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Email, passwordHash, user.FullName, user.Role, user.ProfileImage, user.CreatedAt, user.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// FindByID は指定IDのユーザーを住所込みで取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	var profileImage sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, role, profile_image, created_at, updated_at FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Email, &user.FullName, &user.Role, &profileImage, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}
	user.ProfileImage = profileImage.String

	addresses, err := r.ListAddresses(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.Addresses = addresses

	return user, nil
}

// FindByEmail はemailでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	var profileImage sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, role, profile_image, created_at, updated_at FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &user.FullName, &user.Role, &profileImage, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	user.ProfileImage = profileImage.String

	return user, nil
}

// FindCredentialByEmail はemailでユーザーとパスワードハッシュを取得する。
func (r *PostgresUserRepo) FindCredentialByEmail(ctx context.Context, email string) (*model.User, string, error) {
	user := &model.User{}
	var profileImage sql.NullString
	var passwordHash string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, full_name, role, profile_image, created_at, updated_at FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &passwordHash, &user.FullName, &user.Role, &profileImage, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to find credential by email: %w", err)
	}
	user.ProfileImage = profileImage.String

	return user, passwordHash, nil
}

// ExistsByID は指定IDのユーザーが存在するかを返す。
func (r *PostgresUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

// AddAddress はユーザー集約配下に住所を追加する。
// is_defaultが真の場合は既存のデフォルトを解除してから追加する。
func (r *PostgresUserRepo) AddAddress(ctx context.Context, userID string, addr *model.Address) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if addr.IsDefault {
		if _, err := tx.ExecContext(ctx,
			`UPDATE addresses SET is_default = false WHERE user_id = $1 AND is_default = true`,
			userID,
		); err != nil {
			return fmt.Errorf("failed to unset default address: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO addresses (id, user_id, street, city, state, pincode, country, is_default, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		addr.ID, userID, addr.Street, addr.City, addr.State, addr.Pincode, addr.Country, addr.IsDefault, addr.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert address: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateAddress は指定住所を更新する。ユーザーの所有チェックを含む。
func (r *PostgresUserRepo) UpdateAddress(ctx context.Context, userID string, addr *model.Address) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if addr.IsDefault {
		if _, err := tx.ExecContext(ctx,
			`UPDATE addresses SET is_default = false WHERE user_id = $1 AND is_default = true AND id <> $2`,
			userID, addr.ID,
		); err != nil {
			return fmt.Errorf("failed to unset default address: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE addresses
		 SET street = $1, city = $2, state = $3, pincode = $4, country = $5, is_default = $6
		 WHERE id = $7 AND user_id = $8`,
		addr.Street, addr.City, addr.State, addr.Pincode, addr.Country, addr.IsDefault, addr.ID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update address: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAddressNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteAddress は指定住所を削除する。ユーザーの所有チェックを含む。
func (r *PostgresUserRepo) DeleteAddress(ctx context.Context, userID, addressID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM addresses WHERE id = $1 AND user_id = $2`,
		addressID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete address: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAddressNotFound
	}
	return nil
}

// ListAddresses はユーザーの住所一覧を作成日時昇順で返す。
func (r *PostgresUserRepo) ListAddresses(ctx context.Context, userID string) ([]model.Address, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, street, city, state, pincode, country, is_default, created_at
		 FROM addresses WHERE user_id = $1 ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list addresses: %w", err)
	}
	defer rows.Close()

	addresses := []model.Address{}
	for rows.Next() {
		var addr model.Address
		if err := rows.Scan(&addr.ID, &addr.Street, &addr.City, &addr.State, &addr.Pincode, &addr.Country, &addr.IsDefault, &addr.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, addr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate addresses: %w", err)
	}
	return addresses, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
