package model

import "time"

// カートの明細。(cart_id, item_id) は一意で、同じ商品の追加は数量加算になる。
// 価格はここには持たない（スナップショットはチェックアウト時）。
type CartItem struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64     `gorm:"not null;uniqueIndex:idx_cart_items_cart_item" json:"cart_id"`
	ItemID    int64     `gorm:"not null;uniqueIndex:idx_cart_items_cart_item;index" json:"item_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
