package mainmodel

import "time"

// PriceType 计价方式
type PriceType string

const (
	PriceFixed   PriceType = "fixed"
	PricePerItem PriceType = "per_item"
)

// Product represents products
type Product struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SKU          string    `gorm:"column:sku;type:varchar(64);uniqueIndex" json:"sku"`
	Name         string    `gorm:"column:name;type:varchar(128);not null" json:"name"`
	GameName     string    `gorm:"column:game_name;type:varchar(64)" json:"gameName"`
	Image        string    `gorm:"column:image;type:varchar(255)" json:"image"`
	PriceType    PriceType `gorm:"column:price_type;type:varchar(16);not null;default:fixed" json:"priceType"`
	Price        int64     `gorm:"column:price;not null;default:0" json:"price"`
	PricePerItem int64     `gorm:"column:price_per_item;not null;default:0" json:"pricePerItem"`
	Active       bool      `gorm:"column:active;not null;default:true" json:"active"`
	SortOrder    int       `gorm:"column:sort_order;not null;default:0" json:"sortOrder"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

func (Product) TableName() string {
	return "products"
}

// Quote 按计价方式给出 (数量, 单价)；fixed 强制数量为 1
func (p *Product) Quote(qty int) (int, int64) {
	if p.PriceType == PricePerItem {
		return qty, p.PricePerItem
	}
	return 1, p.Price
}
