package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tumar/internal/middleware"
	"github.com/example/tumar/internal/models"
	"github.com/example/tumar/internal/utils"
)

// ProfileHandler manages customer profile endpoints.
type ProfileHandler struct {
	db *gorm.DB
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(db *gorm.DB) *ProfileHandler {
	return &ProfileHandler{db: db}
}

// GetProfile returns the authenticated customer's profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	customerID, ok := middleware.GetCurrentCustomerID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var customer models.Customer
	if err := h.db.First(&customer, "id = ?", customerID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":            customer.ID,
			"first_name":    customer.FirstName,
			"last_name":     customer.LastName,
			"phone":         customer.Phone,
			"bonus_balance": customer.BonusBalance,
			"created_at":    customer.CreatedAt,
			"updated_at":    customer.UpdatedAt,
		},
	})
}

type updateProfileRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UpdateProfile updates customer profile fields.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	customerID, ok := middleware.GetCurrentCustomerID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.FirstName != "" {
		updates["first_name"] = req.FirstName
	}
	if req.LastName != "" {
		updates["last_name"] = req.LastName
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}
	updates["updated_at"] = time.Now()

	if err := h.db.Model(&models.Customer{}).Where("id = ?", customerID).Updates(updates).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "profile updated"})
}

// ListBonusTransactions returns bonus ledger entries.
func (h *ProfileHandler) ListBonusTransactions(c *fiber.Ctx) error {
	customerID, ok := middleware.GetCurrentCustomerID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Where("customer_id = ?", customerID).Model(&models.BonusTransaction{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var items []models.BonusTransaction
	if err := query.Order("occurred_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&items).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    items,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}
