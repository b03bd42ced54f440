package router

import (
	"workshop-web/internal/handler"
	"workshop-web/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

func SetupAPIRoutes(router fiber.Router, deps Dependencies) {
	authHandler := handler.NewAuthHandler(deps.Client, deps.Sessions, deps.Screens)
	reportHandler := handler.NewReportHandler(deps.Screens)
	paymentHandler := handler.NewPaymentHandler(deps.Payments, deps.Client, deps.Sessions)

	// Public routes
	authGroup := router.Group("/auth")
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/logout", authHandler.Logout)

	// Protected routes
	authenticated := middleware.WebAuthMiddleware(deps.Sessions, deps.Gate)

	reports := router.Group("/reports", authenticated, middleware.RequireRoles(deps.Gate, deps.Config.ReportRoles...))
	reports.Get("/:type", reportHandler.Show)
	reports.Post("/:type/generate", reportHandler.Generate)
	reports.Post("/:type/panels/:panel/lens/:lens", reportHandler.SetLens)
	reports.Get("/:type/export/:format", reportHandler.Export)

	// Payments need Redis for status tracking.
	if deps.Payments == nil {
		return
	}
	payments := router.Group("/payments", authenticated)
	payments.Get("/:invoiceId/qr", paymentHandler.QR)
	payments.Get("/:txn/status", paymentHandler.Status)
}
