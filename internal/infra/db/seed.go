package db

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"app/internal/domain/model"
)

type seedItem struct {
	name        string
	description string
	price       string
	imageURL    string
	stock       int64
	category    string
}

var seedCategories = []string{"Fruits", "Vegetables", "Breads", "Non-Veg"}

var seedItems = []seedItem{
	{"Apple", "A crisp, sweet red apple.", "0.50", "https://placehold.co/600x400/FF0000/FFF?text=Apple", 100, "Fruits"},
	{"Banana", "A ripe yellow banana.", "0.30", "https://placehold.co/600x400/FFFF00/000?text=Banana", 150, "Fruits"},
	{"Carrot", "A fresh orange carrot.", "0.20", "https://placehold.co/600x400/FFA500/FFF?text=Carrot", 200, "Vegetables"},
	{"Broccoli", "A head of green broccoli.", "1.20", "https://placehold.co/600x400/008000/FFF?text=Broccoli", 80, "Vegetables"},
	{"Baguette", "A crusty French baguette.", "2.50", "https://placehold.co/600x400/DEB887/FFF?text=Baguette", 50, "Breads"},
	{"Chicken Breast", "Fresh, skinless chicken breast.", "5.00", "https://placehold.co/600x400/F0E68C/000?text=Chicken", 30, "Non-Veg"},
}

// Seed はデモ用のカテゴリと商品を投入する。
// 名前で探して無ければ作るだけなので、何回実行しても増殖しない。
func Seed(gormDB *gorm.DB) error {
	return gormDB.Transaction(func(tx *gorm.DB) error {
		categoryIDs := make(map[string]int64, len(seedCategories))

		for _, name := range seedCategories {
			var c model.Category
			if err := tx.Where("name = ?", name).
				FirstOrCreate(&c, model.Category{Name: name}).Error; err != nil {
				return err
			}
			categoryIDs[name] = c.ID
		}

		for _, s := range seedItems {
			price, err := decimal.NewFromString(s.price)
			if err != nil {
				return err
			}

			var it model.Item
			err = tx.Where("name = ?", s.name).First(&it).Error
			if err == nil {
				continue
			}
			if err != gorm.ErrRecordNotFound {
				return err
			}

			it = model.Item{
				Name:        s.name,
				Description: s.description,
				Price:       price,
				ImageURL:    s.imageURL,
				Stock:       s.stock,
				CategoryID:  categoryIDs[s.category],
			}
			if err := tx.Create(&it).Error; err != nil {
				return err
			}
		}

		return nil
	})
}
