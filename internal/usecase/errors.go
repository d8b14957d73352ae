package usecase

import (
	"errors"
	"fmt"
	"strings"
)

// ユーザー起因の失敗はここの種類で表す。
// これ以外のエラーはストレージ障害として500扱い（部分更新はTxがロールバックする）。
var (
	//チェックアウト対象のカートが空（カート未作成も同じ扱い）
	ErrEmptyCart = errors.New("cart is empty")
	//商品が存在しない
	ErrItemNotFound = errors.New("item not found")
	//カート明細が呼び出しユーザーのものではない・存在しない
	ErrCartNotFound = errors.New("cart not found")
	//email重複
	ErrEmailTaken = errors.New("email already registered")
	//メールまたはパスワードが違う
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// 在庫不足の明細ごとの内訳
type StockShortage struct {
	ItemID    int64  `json:"item_id"`
	Name      string `json:"name"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

// チェックアウト時に1つでも在庫が足りないと全体が失敗する。
// どの商品がどれだけ足りないかを全部持って返す。
type InsufficientStockError struct {
	Shortages []StockShortage
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("item %d: requested %d, available %d", s.ItemID, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, "; ")
}

func AsInsufficientStock(err error) (*InsufficientStockError, bool) {
	var ise *InsufficientStockError
	ok := errors.As(err, &ise)
	return ise, ok
}

type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}
