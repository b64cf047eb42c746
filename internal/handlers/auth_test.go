package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/tumar/internal/config"
	"github.com/example/tumar/internal/handlers"
	"github.com/example/tumar/internal/models"
	"github.com/example/tumar/internal/utils"
)

// ---------- Mocks ----------

type mockDirectory struct {
	customers map[string]*models.Customer
	updates   map[string]map[string]interface{}
	claims    int
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		customers: make(map[string]*models.Customer),
		updates:   make(map[string]map[string]interface{}),
	}
}

func (m *mockDirectory) FindByPhone(_ context.Context, phone string) (*models.Customer, error) {
	c, ok := m.customers[phone]
	if !ok {
		return nil, nil
	}
	clone := *c
	return &clone, nil
}

func (m *mockDirectory) ClaimCode(_ context.Context, phone, code string) (*models.Customer, error) {
	m.claims++
	c, ok := m.customers[phone]
	if !ok {
		return nil, nil
	}
	if c.VerificationCode != code || c.CodeUsed ||
		c.CodeExpiresAt == nil || !c.CodeExpiresAt.After(time.Now()) {
		return nil, nil
	}
	c.CodeUsed = true
	clone := *c
	return &clone, nil
}

func (m *mockDirectory) UpdateFields(_ context.Context, phone string, fields map[string]interface{}) error {
	m.updates[phone] = fields
	return nil
}

type mockIssuer struct {
	sent    []string
	sendErr error
}

func (m *mockIssuer) Send(_ context.Context, phone string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, phone)
	return nil
}

func (m *mockIssuer) Resend(ctx context.Context, phone string) error {
	return m.Send(ctx, phone)
}

// ---------- Helpers ----------

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:    "test-secret",
		TokenExpires: time.Hour,
		CodeTTL:      300 * time.Second,
	}
}

func newTestApp(dir *mockDirectory, issuer *mockIssuer) *fiber.App {
	app := fiber.New()
	authHandler := handlers.NewAuthHandler(testConfig(), dir, issuer)
	verificationHandler := handlers.NewVerificationHandler(dir, issuer)

	app.Post("/api/auth/lookup", authHandler.Lookup)
	app.Post("/api/auth/login", authHandler.Login)
	app.Post("/api/auth/verify-code", authHandler.VerifyCode)
	app.Post("/api/send-code", verificationHandler.SendCode)
	app.Post("/api/resend-code", verificationHandler.ResendCode)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal %q: %v", raw, err)
	}
	return out
}

func registeredCustomer(t *testing.T, password string) *models.Customer {
	t.Helper()
	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return &models.Customer{Phone: "77771234567", Password: hash}
}

// ---------- Lookup ----------

func TestLookup_RegisterTakenPhone(t *testing.T) {
	dir := newMockDirectory()
	dir.customers["77771234567"] = registeredCustomer(t, "secret")
	issuer := &mockIssuer{}

	app := newTestApp(dir, issuer)
	resp := postJSON(t, app, "/api/auth/lookup", fiber.Map{"phone": "777-123-45-67", "mode": "register"})

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
	if len(issuer.sent) != 0 {
		t.Fatalf("no code may be sent for a taken phone, got %v", issuer.sent)
	}
}

func TestLookup_RegisterFreePhoneSendsCode(t *testing.T) {
	dir := newMockDirectory()
	issuer := &mockIssuer{}

	app := newTestApp(dir, issuer)
	resp := postJSON(t, app, "/api/auth/lookup", fiber.Map{"phone": "777-123-45-67", "mode": "register"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["success"] != true || body["next"] != "code" {
		t.Fatalf("unexpected body %v", body)
	}
	if len(issuer.sent) != 1 || issuer.sent[0] != "77771234567" {
		t.Fatalf("expected delivery to canonical key, got %v", issuer.sent)
	}
}

func TestLookup_LoginUnknownPhone(t *testing.T) {
	app := newTestApp(newMockDirectory(), &mockIssuer{})
	resp := postJSON(t, app, "/api/auth/lookup", fiber.Map{"phone": "777-123-45-67", "mode": "login"})

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestLookup_MalformedPhone(t *testing.T) {
	issuer := &mockIssuer{}
	app := newTestApp(newMockDirectory(), issuer)
	resp := postJSON(t, app, "/api/auth/lookup", fiber.Map{"phone": "777", "mode": "register"})

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if len(issuer.sent) != 0 {
		t.Fatalf("no external call may be made for invalid input")
	}
}

// ---------- Login ----------

func TestLogin_BannedAccountRejectedBeforePassword(t *testing.T) {
	dir := newMockDirectory()
	banned := registeredCustomer(t, "secret")
	banned.IsBanned = true
	dir.customers["77771234567"] = banned

	app := newTestApp(dir, &mockIssuer{})
	resp := postJSON(t, app, "/api/auth/login", fiber.Map{"phone": "7771234567", "password": "secret"})

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	dir := newMockDirectory()
	dir.customers["77771234567"] = registeredCustomer(t, "secret")

	app := newTestApp(dir, &mockIssuer{})
	resp := postJSON(t, app, "/api/auth/login", fiber.Map{"phone": "7771234567", "password": "nope"})

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestLogin_Success(t *testing.T) {
	dir := newMockDirectory()
	dir.customers["77771234567"] = registeredCustomer(t, "secret")

	app := newTestApp(dir, &mockIssuer{})
	resp := postJSON(t, app, "/api/auth/login", fiber.Map{"phone": "7771234567", "password": "secret"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["token"] == nil || body["token"] == "" {
		t.Fatalf("expected a token, got %v", body)
	}
}

// ---------- Code verification ----------

func pendingCustomer(code string, expiresAt time.Time) *models.Customer {
	return &models.Customer{
		Phone:            "77771234567",
		VerificationCode: code,
		CodeExpiresAt:    &expiresAt,
	}
}

func TestVerifyCode_SuccessThenReplayFails(t *testing.T) {
	dir := newMockDirectory()
	dir.customers["77771234567"] = pendingCustomer("4321", time.Now().Add(time.Minute))

	app := newTestApp(dir, &mockIssuer{})
	resp := postJSON(t, app, "/api/auth/verify-code", fiber.Map{"phone": "7771234567", "code": "4321"})

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["token"] == nil {
		t.Fatalf("expected a token, got %v", body)
	}

	resp = postJSON(t, app, "/api/auth/verify-code", fiber.Map{"phone": "7771234567", "code": "4321"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("replayed code must be rejected, got %d", resp.StatusCode)
	}
}

func TestVerifyCode_ExpiredCode(t *testing.T) {
	dir := newMockDirectory()
	dir.customers["77771234567"] = pendingCustomer("4321", time.Now().Add(-time.Minute))

	app := newTestApp(dir, &mockIssuer{})
	resp := postJSON(t, app, "/api/auth/verify-code", fiber.Map{"phone": "7771234567", "code": "4321"})

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expired code must be rejected, got %d", resp.StatusCode)
	}
}

func TestVerifyCode_NonDigitCodeRejectedBeforeClaim(t *testing.T) {
	dir := newMockDirectory()
	dir.customers["77771234567"] = pendingCustomer("12a4", time.Now().Add(time.Minute))

	app := newTestApp(dir, &mockIssuer{})
	resp := postJSON(t, app, "/api/auth/verify-code", fiber.Map{"phone": "7771234567", "code": "12a4"})

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if dir.claims != 0 {
		t.Fatalf("malformed code must not reach the directory, got %d claims", dir.claims)
	}
}

func TestVerifyCode_AppliesProfileFields(t *testing.T) {
	dir := newMockDirectory()
	dir.customers["77771234567"] = pendingCustomer("4321", time.Now().Add(time.Minute))

	app := newTestApp(dir, &mockIssuer{})
	resp := postJSON(t, app, "/api/auth/verify-code", fiber.Map{
		"phone":      "7771234567",
		"code":       "4321",
		"first_name": "Aruzhan",
		"password":   "secret123",
	})

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	updates := dir.updates["77771234567"]
	if updates == nil || updates["first_name"] != "Aruzhan" {
		t.Fatalf("expected profile fields applied, got %v", updates)
	}
	if updates["password"] == nil || updates["password"] == "secret123" {
		t.Fatalf("password must be stored hashed, got %v", updates["password"])
	}
}

// ---------- Code delivery endpoints ----------

func TestSendCode_DeliveryFailureShape(t *testing.T) {
	dir := newMockDirectory()
	issuer := &mockIssuer{sendErr: errors.New("gateway unreachable")}

	app := newTestApp(dir, issuer)
	resp := postJSON(t, app, "/api/send-code", fiber.Map{"phone": "7771234567"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delivery failures use the success/message shape, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["success"] != false || body["message"] != "gateway unreachable" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestSendCode_TakenPhone(t *testing.T) {
	dir := newMockDirectory()
	dir.customers["77771234567"] = registeredCustomer(t, "secret")

	app := newTestApp(dir, &mockIssuer{})
	resp := postJSON(t, app, "/api/send-code", fiber.Map{"phone": "7771234567"})

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}
}

func TestResendCode_Success(t *testing.T) {
	dir := newMockDirectory()
	issuer := &mockIssuer{}

	app := newTestApp(dir, issuer)
	resp := postJSON(t, app, "/api/resend-code", fiber.Map{"phone": "7771234567"})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["success"] != true {
		t.Fatalf("unexpected body %v", body)
	}
	if len(issuer.sent) != 1 || issuer.sent[0] != "77771234567" {
		t.Fatalf("expected resend to canonical key, got %v", issuer.sent)
	}
}
