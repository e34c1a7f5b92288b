package repository

import "errors"

// リポジトリ層のセンチネルエラー。ハンドラー層でerrors.Isにより判別する。
var (
	// ErrDuplicateEmail は同一emailのユーザーが既に存在することを表す。
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrAddressNotFound は指定住所が存在しないか所有者が異なることを表す。
	ErrAddressNotFound = errors.New("address not found")
	// ErrProductNotFound は指定商品が存在しないことを表す。
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound は指定注文が存在しないことを表す。
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicatePayment は同一注文への支払いが既に記録されていることを表す。
	ErrDuplicatePayment = errors.New("payment already recorded for order")
)
