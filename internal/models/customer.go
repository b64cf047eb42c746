package models

import (
	"time"
)

// Customer is a loyalty-program account looked up by its canonical
// 11-digit phone key (always 77XXXXXXXXX).
type Customer struct {
	BaseModel
	FirstName         string             `json:"first_name"`
	LastName          string             `json:"last_name"`
	Phone             string             `gorm:"uniqueIndex" json:"phone"`
	Password          string             `json:"-"`
	IsBanned          bool               `json:"is_banned"`
	VerificationCode  string             `json:"-"`
	CodeUsed          bool               `json:"-"`
	CodeExpiresAt     *time.Time         `json:"-"`
	BonusBalance      float64            `json:"bonus_balance"`
	Orders            []Order            `json:"orders,omitempty"`
	BonusTransactions []BonusTransaction `json:"bonus_transactions,omitempty"`
}

// TableName keeps the historical table name used by the web site.
func (Customer) TableName() string {
	return "customers"
}
