package router

import (
	"workshop-web/internal/apiclient"
	"workshop-web/internal/auth"
	"workshop-web/internal/config"
	"workshop-web/internal/handler"
	"workshop-web/internal/middleware"
	"workshop-web/internal/service"
	"workshop-web/internal/session"

	"github.com/gofiber/fiber/v2"
)

// Dependencies are the long-lived components the routes are built from.
type Dependencies struct {
	Config   *config.Config
	Sessions *session.Manager
	Gate     *auth.Gate
	Client   *apiclient.Client
	Screens  *service.ScreenRegistry
	Payments *service.PaymentService
}

func Setup(app *fiber.App, deps Dependencies) {
	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
			"app":    deps.Config.AppName,
		})
	})

	app.Use(middleware.SessionMiddleware(deps.Sessions))

	// Web routes (HTML)
	web := app.Group("")
	setupWebRoutes(web, deps)

	// API routes (JSON)
	api := app.Group("/api/v1")
	SetupAPIRoutes(api, deps)
}

func setupWebRoutes(router fiber.Router, deps Dependencies) {
	authHandler := handler.NewAuthHandler(deps.Client, deps.Sessions, deps.Screens)
	reportHandler := handler.NewReportHandler(deps.Screens)
	paymentHandler := handler.NewPaymentHandler(deps.Payments, deps.Client, deps.Sessions)

	// Authentication pages. State changes are POST only.
	guest := middleware.GuestMiddleware(deps.Sessions, deps.Gate)
	router.Get("/login", guest, authHandler.ShowLogin)
	router.Post("/login", guest, authHandler.Login)
	router.Post("/logout", authHandler.Logout)

	authenticated := middleware.WebAuthMiddleware(deps.Sessions, deps.Gate)
	reportRoles := middleware.RequireRoles(deps.Gate, deps.Config.ReportRoles...)

	router.Get("/unauthorized", authenticated, authHandler.Unauthorized)
	router.Get("/", authenticated, reportRoles, reportHandler.Index)

	// Reports
	reports := router.Group("/reports", authenticated, reportRoles)
	reports.Get("/:type", reportHandler.Show)
	reports.Post("/:type/generate", reportHandler.Generate)
	reports.Post("/:type/panels/:panel/lens/:lens", reportHandler.SetLens)
	reports.Get("/:type/export/:format", reportHandler.Export)
	reports.Get("/:type/panels/:panel/table.xlsx", reportHandler.TableWorkbook)

	// Payments
	if deps.Payments != nil {
		router.Get("/payments/:invoiceId/qr", authenticated, paymentHandler.QR)
	}
}
