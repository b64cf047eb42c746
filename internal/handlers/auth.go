package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/example/tumar/internal/authflow"
	"github.com/example/tumar/internal/config"
	"github.com/example/tumar/internal/models"
	"github.com/example/tumar/internal/utils"
)

// CustomerDirectory is the slice of the customer store the auth
// endpoints use.
type CustomerDirectory interface {
	FindByPhone(ctx context.Context, phone string) (*models.Customer, error)
	ClaimCode(ctx context.Context, phone, code string) (*models.Customer, error)
	UpdateFields(ctx context.Context, phone string, fields map[string]interface{}) error
}

// CodeIssuer sends and resends one-time verification codes.
type CodeIssuer interface {
	Send(ctx context.Context, phone string) error
	Resend(ctx context.Context, phone string) error
}

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	cfg      *config.Config
	dir      CustomerDirectory
	delivery CodeIssuer
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(cfg *config.Config, dir CustomerDirectory, delivery CodeIssuer) *AuthHandler {
	return &AuthHandler{cfg: cfg, dir: dir, delivery: delivery}
}

type lookupRequest struct {
	Phone string `json:"phone"`
	Mode  string `json:"mode"`
}

// Lookup runs the first step of the login screen: find the account
// behind a phone and branch by mode. In register mode a verification
// code is sent when the phone is free; in login mode the client is
// told to ask for the password.
func (h *AuthHandler) Lookup(c *fiber.Ctx) error {
	var req lookupRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	key := authflow.PhoneKey(authflow.FormatPhone(req.Phone))
	if !authflow.ValidPhoneKey(key) {
		return fiber.NewError(fiber.StatusBadRequest, authflow.MsgInvalidPhone)
	}

	customer, err := h.dir.FindByPhone(c.Context(), key)
	if err != nil {
		return err
	}

	mode := authflow.Mode(req.Mode)
	if mode != authflow.ModeRegister && mode != authflow.ModeLogin {
		return fiber.NewError(fiber.StatusBadRequest, "unknown mode")
	}
	if failure := authflow.DecideLookup(mode, customer); failure != nil {
		return fiber.NewError(lookupStatus(mode), failure.Message)
	}

	if mode == authflow.ModeRegister {
		if err := h.delivery.Send(c.Context(), key); err != nil {
			return c.JSON(fiber.Map{"success": false, "message": err.Error()})
		}
		return c.JSON(fiber.Map{
			"success":    true,
			"next":       "code",
			"expires_in": int(h.cfg.CodeTTL.Seconds()),
		})
	}

	return c.JSON(fiber.Map{"success": true, "next": "password"})
}

func lookupStatus(mode authflow.Mode) int {
	if mode == authflow.ModeRegister {
		return fiber.StatusConflict
	}
	return fiber.StatusNotFound
}

type loginRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// Login authenticates an existing customer by password. The ban check
// runs before password verification and wins over it.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	key := authflow.PhoneKey(authflow.FormatPhone(req.Phone))
	if !authflow.ValidPhoneKey(key) {
		return fiber.NewError(fiber.StatusBadRequest, authflow.MsgInvalidPhone)
	}

	customer, err := h.dir.FindByPhone(c.Context(), key)
	if err != nil {
		return err
	}
	if !authflow.IsRegistered(customer) {
		return fiber.NewError(fiber.StatusNotFound, authflow.MsgAccountNotFound)
	}

	if failure := authflow.DecidePassword(customer, utils.CheckPassword, req.Password); failure != nil {
		status := fiber.StatusUnauthorized
		if failure.Message == authflow.MsgAccountBlocked {
			status = fiber.StatusForbidden
		}
		return fiber.NewError(status, failure.Message)
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, customer.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"customer": customerResponse(customer),
		"token":    token,
	})
}

type verifyCodeRequest struct {
	Phone     string `json:"phone"`
	Code      string `json:"code"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// VerifyCode completes registration by claiming a one-time code. The
// claim is atomic, so replaying a code always fails, and the rejection
// never reveals whether it was wrong, used or expired. Profile fields
// sent along are applied to the new account.
func (h *AuthHandler) VerifyCode(c *fiber.Ctx) error {
	var req verifyCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	key := authflow.PhoneKey(authflow.FormatPhone(req.Phone))
	if !authflow.ValidPhoneKey(key) {
		return fiber.NewError(fiber.StatusBadRequest, authflow.MsgInvalidPhone)
	}
	if !authflow.ValidCodeEntry(req.Code) {
		return fiber.NewError(fiber.StatusBadRequest, authflow.MsgIncompleteCode)
	}

	customer, err := h.dir.ClaimCode(c.Context(), key, req.Code)
	if err != nil {
		return err
	}
	if customer == nil {
		return fiber.NewError(fiber.StatusBadRequest, authflow.MsgCodeInvalid)
	}

	updates := map[string]interface{}{}
	if req.FirstName != "" {
		updates["first_name"] = req.FirstName
		customer.FirstName = req.FirstName
	}
	if req.LastName != "" {
		updates["last_name"] = req.LastName
		customer.LastName = req.LastName
	}
	if req.Password != "" {
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
		}
		updates["password"] = hash
	}
	if len(updates) > 0 {
		if err := h.dir.UpdateFields(c.Context(), key, updates); err != nil {
			return err
		}
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, customer.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"customer": customerResponse(customer),
		"token":    token,
	})
}

func customerResponse(customer *models.Customer) fiber.Map {
	return fiber.Map{
		"id":            customer.ID,
		"first_name":    customer.FirstName,
		"last_name":     customer.LastName,
		"phone":         customer.Phone,
		"bonus_balance": customer.BonusBalance,
	}
}
