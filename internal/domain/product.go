package domain

import "github.com/shopspring/decimal"

type Category string

const (
	CategoryFruits     Category = "frutas"
	CategoryVegetables Category = "verduras"
	CategoryDairy      Category = "lacteos"
	CategoryMeat       Category = "carnes"
	CategoryBakery     Category = "panaderia"
	CategoryBeverages  Category = "bebidas"
	CategoryOther      Category = "otros"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryFruits, CategoryVegetables, CategoryDairy, CategoryMeat,
		CategoryBakery, CategoryBeverages, CategoryOther:
		return true
	}
	return false
}

// Product is a catalog entry. The service never mutates it.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;size:64"`
	Name        string          `json:"name" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(14,2);not null"`
	Category    Category        `json:"category" gorm:"size:32;index"`
	ImageURL    string          `json:"imageUrl" gorm:"size:512"`
	Unit        string          `json:"unit" gorm:"size:32"`
	Stock       int64           `json:"stock" gorm:"not null;default:0"`
	Available   bool            `json:"available" gorm:"not null;default:true"`
}
