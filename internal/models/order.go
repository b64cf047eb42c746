package models

import (
	"time"

	"github.com/google/uuid"
)

type Order struct {
	BaseModel
	CustomerID     uuid.UUID   `gorm:"type:uuid;index" json:"customer_id"`
	Customer       *Customer   `json:"customer,omitempty"`
	OrderNumber    string      `gorm:"uniqueIndex" json:"order_number"`
	Status         string      `json:"status"`
	PlacedAt       time.Time   `json:"placed_at"`
	Subtotal       float64     `json:"subtotal"`
	BonusSpent     float64     `json:"bonus_spent"`
	TotalAmount    float64     `json:"total_amount"`
	Currency       string      `json:"currency"`
	DeliveryMethod string      `json:"delivery_method"`
	Notes          string      `json:"notes"`
	Items          []OrderItem `json:"items,omitempty"`
}

type OrderItem struct {
	BaseModel
	OrderID    uuid.UUID  `gorm:"type:uuid;index" json:"order_id"`
	MenuItemID *uuid.UUID `gorm:"type:uuid" json:"menu_item_id"`
	ItemName   string     `json:"item_name"`
	Quantity   int        `json:"quantity"`
	UnitPrice  float64    `json:"unit_price"`
	LineTotal  float64    `json:"line_total"`
}
