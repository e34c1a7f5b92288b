// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの役割を表す。作成後は不変として扱う。
type Role string

const (
	// RoleUser は一般購入者の役割。
	RoleUser Role = "user"
	// RoleSeller は出品者の役割。
	RoleSeller Role = "seller"
)

// IsValid は既知の役割かどうかを返す。
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleSeller
}

// User はidentityサービスが所有するユーザー集約を表す。
// 他サービスはイベント経由のプロジェクションとしてのみ参照する。
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	Role         Role      `json:"role"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Addresses    []Address `json:"addresses"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Address はユーザー集約配下の住所を表す。独立したIDを持つ。
type Address struct {
	ID        string    `json:"id"`
	Street    string    `json:"street"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Pincode   string    `json:"pincode"`
	Country   string    `json:"country"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

// SellerProjection はseller-dashboardサービスが保持するユーザーの射影。
// identityサービスのイベントにより結果整合で更新される。
type SellerProjection struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	Role      Role      `json:"role"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Notification はnotificationサービスが保持する通知レコード。
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
