package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/tumar/internal/config"
	"github.com/example/tumar/internal/directory"
	"github.com/example/tumar/internal/handlers"
	"github.com/example/tumar/internal/middleware"
	"github.com/example/tumar/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	dir := directory.New(db)
	whatsapp := services.NewWhatsAppService(cfg.WhatsAppBaseURL, cfg.WhatsAppToken, cfg.WhatsAppSender)
	delivery := services.NewCodeDelivery(dir, whatsapp, cfg.CodeTTL)

	authHandler := handlers.NewAuthHandler(cfg, dir, delivery)
	verificationHandler := handlers.NewVerificationHandler(dir, delivery)
	menuHandler := handlers.NewMenuHandler(db)
	orderHandler := handlers.NewOrderHandler(db)
	profileHandler := handlers.NewProfileHandler(db)
	contentHandler := handlers.NewContentHandler(db)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/lookup", authHandler.Lookup)
	auth.Post("/login", authHandler.Login)
	auth.Post("/verify-code", authHandler.VerifyCode)

	// Code delivery helpers used by the login screen
	api.Post("/send-code", verificationHandler.SendCode)
	api.Post("/resend-code", verificationHandler.ResendCode)

	// Menu routes
	menu := api.Group("/menu")
	menu.Get("/", menuHandler.ListItems)
	menu.Post("/", menuHandler.CreateItem)
	menu.Get("/:id", menuHandler.GetItem)
	menu.Put("/:id", menuHandler.UpdateItem)
	menu.Delete("/:id", menuHandler.DeleteItem)

	// Content resources
	api.Get("/banner", contentHandler.ListBanners)
	api.Post("/banner", contentHandler.CreateBanner)
	api.Put("/banner/:id", contentHandler.UpdateBanner)
	api.Delete("/banner/:id", contentHandler.DeleteBanner)

	faq := api.Group("/faq")
	faq.Get("/", contentHandler.ListFAQ)
	faq.Post("/", contentHandler.CreateFAQEntry)
	faq.Put("/:id", contentHandler.UpdateFAQEntry)
	faq.Delete("/:id", contentHandler.DeleteFAQEntry)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg))

	protected.Post("/orders", orderHandler.CreateOrder)
	protected.Get("/orders", orderHandler.ListOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Get("/profile/bonus", profileHandler.ListBonusTransactions)
}
