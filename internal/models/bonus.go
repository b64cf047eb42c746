package models

import (
	"time"

	"github.com/google/uuid"
)

type BonusTransaction struct {
	BaseModel
	CustomerID        uuid.UUID  `gorm:"type:uuid;index" json:"customer_id"`
	TransactionNumber string     `gorm:"uniqueIndex" json:"transaction_number"`
	Type              string     `json:"type"`
	Amount            float64    `json:"amount"`
	Currency          string     `json:"currency"`
	OrderID           *uuid.UUID `gorm:"type:uuid" json:"order_id"`
	OccurredAt        time.Time  `json:"occurred_at"`
}
