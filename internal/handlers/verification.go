package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/tumar/internal/authflow"
)

// VerificationHandler exposes the code-delivery helper endpoints the
// web client calls before showing the code entry screen.
type VerificationHandler struct {
	dir      CustomerDirectory
	delivery CodeIssuer
}

// NewVerificationHandler constructs a VerificationHandler.
func NewVerificationHandler(dir CustomerDirectory, delivery CodeIssuer) *VerificationHandler {
	return &VerificationHandler{dir: dir, delivery: delivery}
}

type sendCodeRequest struct {
	Phone string `json:"phone"`
}

// SendCode handles POST /api/send-code: issue and deliver a fresh
// 4-digit code for an unregistered phone.
func (h *VerificationHandler) SendCode(c *fiber.Ctx) error {
	phone, err := h.parsePhone(c)
	if err != nil {
		return err
	}

	customer, err := h.dir.FindByPhone(c.Context(), phone)
	if err != nil {
		return err
	}
	if authflow.IsRegistered(customer) {
		return fiber.NewError(fiber.StatusConflict, authflow.MsgPhoneTaken)
	}

	if err := h.delivery.Send(c.Context(), phone); err != nil {
		return c.JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true})
}

// ResendCode handles POST /api/resend-code: reissue a code and reset
// its expiry. The previous code becomes unusable.
func (h *VerificationHandler) ResendCode(c *fiber.Ctx) error {
	phone, err := h.parsePhone(c)
	if err != nil {
		return err
	}

	if err := h.delivery.Resend(c.Context(), phone); err != nil {
		return c.JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	return c.JSON(fiber.Map{"success": true})
}

func (h *VerificationHandler) parsePhone(c *fiber.Ctx) (string, error) {
	var req sendCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	key := authflow.PhoneKey(authflow.FormatPhone(req.Phone))
	if !authflow.ValidPhoneKey(key) {
		return "", fiber.NewError(fiber.StatusBadRequest, authflow.MsgInvalidPhone)
	}
	return key, nil
}
