package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/tumar/internal/middleware"
	"github.com/example/tumar/internal/models"
	"github.com/example/tumar/internal/utils"
)

// OrderHandler manages order endpoints.
type OrderHandler struct {
	db *gorm.DB
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(db *gorm.DB) *OrderHandler {
	return &OrderHandler{db: db}
}

type orderItemRequest struct {
	MenuItemID string  `json:"menu_item_id"`
	ItemName   string  `json:"item_name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	LineTotal  float64 `json:"line_total"`
}

type createOrderRequest struct {
	DeliveryMethod string             `json:"delivery_method"`
	Currency       string             `json:"currency"`
	Items          []orderItemRequest `json:"items"`
	BonusSpent     float64            `json:"bonus_spent"`
	Notes          string             `json:"notes"`
}

// CreateOrder allows authenticated customers to place an order.
func (h *OrderHandler) CreateOrder(c *fiber.Ctx) error {
	customerID, ok := middleware.GetCurrentCustomerID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Items) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "order has no items")
	}

	order := models.Order{
		CustomerID:     customerID,
		DeliveryMethod: req.DeliveryMethod,
		Currency:       req.Currency,
		BonusSpent:     req.BonusSpent,
		Notes:          req.Notes,
		Status:         "pending",
		PlacedAt:       time.Now(),
	}
	if order.Currency == "" {
		order.Currency = "KZT"
	}

	var subtotal float64
	for _, it := range req.Items {
		lineTotal := it.LineTotal
		if lineTotal == 0 {
			lineTotal = it.UnitPrice * float64(it.Quantity)
		}

		item := models.OrderItem{
			ItemName:  it.ItemName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: lineTotal,
		}
		if it.MenuItemID != "" {
			if id, err := uuid.Parse(it.MenuItemID); err == nil {
				item.MenuItemID = &id
			}
		}

		subtotal += lineTotal
		order.Items = append(order.Items, item)
	}

	order.Subtotal = subtotal
	order.TotalAmount = subtotal - order.BonusSpent
	if order.TotalAmount < 0 {
		order.TotalAmount = 0
	}
	order.OrderNumber = fmt.Sprintf("TMR-%d", time.Now().UnixMilli())

	if err := h.db.Create(&order).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
			"total_amount": order.TotalAmount,
		},
	})
}

// ListOrders returns the customer's order history, newest first.
func (h *OrderHandler) ListOrders(c *fiber.Ctx) error {
	customerID, ok := middleware.GetCurrentCustomerID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Order{}).Where("customer_id = ?", customerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var orders []models.Order
	if err := query.Preload("Items").
		Order("placed_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&orders).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    orders,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetOrder returns a single order belonging to the customer.
func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	customerID, ok := middleware.GetCurrentCustomerID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var order models.Order
	if err := h.db.Preload("Items").
		First(&order, "id = ? AND customer_id = ?", id, customerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": order})
}
