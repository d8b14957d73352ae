package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 在庫（stock）はチェックアウト成功時のみ減る。
type Item struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	ImageURL    string          `gorm:"type:varchar(500);column:image_url" json:"image_url"`
	Stock       int64           `gorm:"not null" json:"stock"`
	CategoryID  int64           `gorm:"not null;index" json:"category_id"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
