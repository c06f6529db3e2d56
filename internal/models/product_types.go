package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductCategory string

const (
	CategorySeeds       ProductCategory = "Seeds"
	CategoryFertilizers ProductCategory = "Fertilizers"
	CategoryPesticides  ProductCategory = "Pesticides"
	CategoryTools       ProductCategory = "Tools"

	// Produce categories are only used by wanted-product requests.
	CategoryVegetables ProductCategory = "Vegetables"
	CategoryFruits     ProductCategory = "Fruits"
	CategoryPaddy      ProductCategory = "Paddy"
	CategoryCrops      ProductCategory = "Crops"
)

// ValidListing reports whether c may be used on a product listing.
func (c ProductCategory) ValidListing() bool {
	switch c {
	case CategorySeeds, CategoryFertilizers, CategoryPesticides, CategoryTools:
		return true
	}
	return false
}

// ValidWanted reports whether c may be used on a wanted-product request.
func (c ProductCategory) ValidWanted() bool {
	switch c {
	case CategoryVegetables, CategoryFruits, CategoryPaddy, CategoryCrops:
		return true
	}
	return c.ValidListing()
}

type Unit string

// QuantityScale is how many decimal places stock and order quantities keep.
const QuantityScale = 3

// RoundQuantity rounds q to QuantityScale decimal places.
func RoundQuantity(q float64) float64 {
	return decimal.NewFromFloat(q).Round(QuantityScale).InexactFloat64()
}

const (
	UnitKg     Unit = "kg"
	UnitGram   Unit = "g"
	UnitLitre  Unit = "L"
	UnitPieces Unit = "pcs"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitKg, UnitGram, UnitLitre, UnitPieces:
		return true
	}
	return false
}

// Product is the model for the 'products' table.
type Product struct {
	ID          string          `json:"id" db:"id"`
	SellerID    string          `json:"seller_id" db:"seller_id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Category    ProductCategory `json:"category" db:"category"`
	Quantity    float64         `json:"quantity" db:"quantity"`
	Unit        Unit            `json:"unit" db:"unit"`
	Price       float64         `json:"price" db:"price"`
	ImageURL    *string         `json:"image_url,omitempty" db:"image_url"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ProductFilter narrows a product listing.
type ProductFilter struct {
	SellerID string
	Query    string // case-insensitive substring of the name
	Category ProductCategory
	Limit    int
	Offset   int
}

// WantedProduct is a buyer's public request for produce or supplies.
type WantedProduct struct {
	ID               string          `json:"id" db:"id"`
	UserID           string          `json:"user_id" db:"user_id"`
	Name             string          `json:"name" db:"name"`
	Category         ProductCategory `json:"category" db:"category"`
	Quantity         float64         `json:"quantity" db:"quantity"`
	Unit             Unit            `json:"unit" db:"unit"`
	Notes            string          `json:"notes" db:"notes"`
	DeliveryLocation *string         `json:"delivery_location,omitempty" db:"delivery_location"`
	RequiredDateTime *time.Time      `json:"required_date_time,omitempty" db:"required_date_time"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}
