// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/ichiba/internal/model"
)

// UserRepository はidentityサービスが所有するユーザー集約の永続化インターフェース。
type UserRepository interface {
	// Create はユーザーをパスワードハッシュとともに作成する。
	// 同一emailが既に存在する場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User, passwordHash string) error

	// FindByID は指定IDのユーザーを住所込みで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はemailでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindCredentialByEmail はemailでユーザーとパスワードハッシュを取得する。
	// ログイン検証専用。見つからない場合は(nil, "", nil)を返す。
	FindCredentialByEmail(ctx context.Context, email string) (*model.User, string, error)

	// ExistsByID は指定IDのユーザーが存在するかを返す。
	ExistsByID(ctx context.Context, id string) (bool, error)

	// AddAddress はユーザー集約配下に住所を追加する。
	AddAddress(ctx context.Context, userID string, addr *model.Address) error

	// UpdateAddress は指定住所を更新する。ユーザーの所有チェックを含む。
	// 見つからない場合はErrAddressNotFoundを返す。
	UpdateAddress(ctx context.Context, userID string, addr *model.Address) error

	// DeleteAddress は指定住所を削除する。ユーザーの所有チェックを含む。
	// 見つからない場合はErrAddressNotFoundを返す。
	DeleteAddress(ctx context.Context, userID, addressID string) error

	// ListAddresses はユーザーの住所一覧を作成日時昇順で返す。
	ListAddresses(ctx context.Context, userID string) ([]model.Address, error)
}

// ProductRepository はcatalogサービスが所有する商品の永続化インターフェース。
type ProductRepository interface {
	// Create は商品を作成する。
	Create(ctx context.Context, product *model.Product) error

	// FindByID は指定IDの商品を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Product, error)

	// List は商品一覧を作成日時降順で返す。
	List(ctx context.Context, limit, offset int) ([]*model.Product, error)

	// ListBySellerID は出品者の商品一覧を作成日時降順で返す。
	ListBySellerID(ctx context.Context, sellerID string) ([]*model.Product, error)

	// Update は商品を更新する。見つからない場合はErrProductNotFoundを返す。
	Update(ctx context.Context, product *model.Product) error

	// Delete は商品を削除する。見つからない場合はErrProductNotFoundを返す。
	Delete(ctx context.Context, id string) error
}

// CartRepository はユーザーごとのカートの永続化インターフェース。
type CartRepository interface {
	// FindByUserID はユーザーのカートを取得する。未作成の場合は空のカートを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Cart, error)

	// UpsertItem はカート項目を冪等にUPSERTする。数量は上書きする。
	UpsertItem(ctx context.Context, userID, productID string, quantity int) error

	// RemoveItem はカートから指定商品を削除する。
	RemoveItem(ctx context.Context, userID, productID string) error

	// Clear はカートを空にする。
	Clear(ctx context.Context, userID string) error
}

// OrderRepository は注文の永続化インターフェース。
type OrderRepository interface {
	// Create は注文と注文項目を同一トランザクションで作成する。
	Create(ctx context.Context, order *model.Order) error

	// FindByID は指定IDの注文を項目込みで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Order, error)

	// ListByUserID はユーザーの注文一覧を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Order, error)

	// UpdateStatus は注文状態を更新する。見つからない場合はErrOrderNotFoundを返す。
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error
}

// PaymentRepository は支払い記録の永続化インターフェース。
type PaymentRepository interface {
	// Create は支払いを記録する。同一注文への二重記録はErrDuplicatePaymentを返す。
	Create(ctx context.Context, payment *model.Payment) error

	// FindByOrderID は注文IDで支払いを取得する。見つからない場合はnilを返す。
	FindByOrderID(ctx context.Context, orderID string) (*model.Payment, error)

	// ListByUserID はユーザーの支払い一覧を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Payment, error)
}

// NotificationRepository は通知の永続化インターフェース。
type NotificationRepository interface {
	// InsertIfAbsent は通知を冪等に挿入する。
	// 同一(user_id, kind)が既に存在する場合は何もせずfalseを返す。
	// イベント再配送時の重複適用をここで吸収する。
	InsertIfAbsent(ctx context.Context, n *model.Notification) (bool, error)

	// ListByUserID はユーザーの通知一覧を作成日時降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Notification, error)
}

// SellerProjectionRepository はseller-dashboardのユーザー射影の永続化インターフェース。
type SellerProjectionRepository interface {
	// Upsert は射影をuser_idキーで冪等にUPSERTする。
	Upsert(ctx context.Context, p *model.SellerProjection) error

	// FindByUserID は指定ユーザーの射影を取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.SellerProjection, error)
}
