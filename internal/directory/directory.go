package directory

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/example/tumar/internal/models"
)

// Directory provides the customer lookups and field updates the
// authentication flow runs against. Phone is unique, so every lookup
// has at-most-one-match semantics.
type Directory struct {
	db *gorm.DB
}

// New constructs a Directory over the given database handle.
func New(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// FindByPhone returns the customer with the given canonical phone key,
// or (nil, nil) when no such customer exists.
func (d *Directory) FindByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	var customer models.Customer
	err := d.db.WithContext(ctx).Where("phone = ?", phone).First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// ClaimCode atomically consumes a verification code: the conditional
// update succeeds only while the code matches, is unused and unexpired,
// so a code can never authenticate twice. Returns (nil, nil) when no
// claimable code exists, without distinguishing why.
func (d *Directory) ClaimCode(ctx context.Context, phone, code string) (*models.Customer, error) {
	res := d.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("phone = ? AND verification_code = ? AND code_used = ? AND code_expires_at > ?",
			phone, code, false, time.Now()).
		Update("code_used", true)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}

	return d.FindByPhone(ctx, phone)
}

// SetVerificationCode stores a fresh code with its expiry on the
// customer row, creating a pending account row when the phone is not
// registered yet. Any previous code becomes unreachable.
func (d *Directory) SetVerificationCode(ctx context.Context, phone, code string, expiresAt time.Time) error {
	existing, err := d.FindByPhone(ctx, phone)
	if err != nil {
		return err
	}

	if existing == nil {
		pending := models.Customer{
			Phone:            phone,
			VerificationCode: code,
			CodeUsed:         false,
			CodeExpiresAt:    &expiresAt,
		}
		return d.db.WithContext(ctx).Create(&pending).Error
	}

	return d.UpdateFields(ctx, phone, map[string]interface{}{
		"verification_code": code,
		"code_used":         false,
		"code_expires_at":   expiresAt,
	})
}

// UpdateFields applies a partial update to the customer row identified
// by the canonical phone key.
func (d *Directory) UpdateFields(ctx context.Context, phone string, fields map[string]interface{}) error {
	return d.db.WithContext(ctx).
		Model(&models.Customer{}).
		Where("phone = ?", phone).
		Updates(fields).Error
}
