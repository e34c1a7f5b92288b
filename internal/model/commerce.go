package model

import "time"

// Product はcatalogサービスが所有する商品を表す。
type Product struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"sellerId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	PriceAmount int64     `json:"priceAmount"` // 最小通貨単位
	Currency    string    `json:"currency"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CartItem はカート内の1商品を表す。
type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Cart はユーザーごとのカートを表す。ユーザーIDをキーとして一意。
type Cart struct {
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// OrderStatus は注文の状態を表す。
type OrderStatus string

const (
	// OrderStatusPending は支払い待ちの注文状態。
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusPaid は支払い済みの注文状態。
	OrderStatusPaid OrderStatus = "paid"
)

// Order はorderサービスが所有する注文を表す。
type Order struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Items       []CartItem  `json:"items"`
	TotalAmount int64       `json:"totalAmount"`
	Currency    string      `json:"currency"`
	Status      OrderStatus `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// Payment はpaymentサービスが記録する支払いを表す。
// 決済プロバイダ連携はスコープ外のため、記録のみを行う。
type Payment struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	Amount    int64     `json:"amount"`
	Currency  string    `json:"currency"`
	Method    string    `json:"method"`
	CreatedAt time.Time `json:"createdAt"`
}
