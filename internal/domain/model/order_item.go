package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// price_at_purchaseはチェックアウト時点のItem.Priceのスナップショット。
// 以後の価格変更の影響を受けない。
type OrderItem struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID         int64           `gorm:"not null;index" json:"order_id"`
	ItemID          int64           `gorm:"not null;index" json:"item_id"`
	Quantity        int64           `gorm:"not null" json:"quantity"`
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(12,2);not null;column:price_at_purchase" json:"price_at_purchase"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}
