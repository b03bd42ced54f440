package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"strconv"

	"workshop-web/internal/apiclient"
	"workshop-web/internal/middleware"
	"workshop-web/internal/models"
	"workshop-web/internal/repository"
	"workshop-web/internal/service"
	"workshop-web/internal/session"
	"workshop-web/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type PaymentHandler struct {
	payments *service.PaymentService
	client   *apiclient.Client
	sessions *session.Manager
}

func NewPaymentHandler(payments *service.PaymentService, client *apiclient.Client, sessions *session.Manager) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		client:   client,
		sessions: sessions,
	}
}

// QR opens a UPI collect request for an invoice and shows its QR code.
// ?format=png returns the bare image.
func (h *PaymentHandler) QR(c *fiber.Ctx) error {
	invoiceID, err := strconv.ParseInt(c.Params("invoiceId"), 10, 64)
	if err != nil || invoiceID <= 0 {
		return failure(c, fiber.StatusBadRequest, "Invalid invoice id", nil)
	}
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		return failure(c, fiber.StatusBadRequest, "Invalid amount", nil)
	}

	store := h.sessions.For(middleware.SessionID(c))
	token, err := store.GetToken(c.UserContext())
	if err != nil {
		return failure(c, fiber.StatusInternalServerError, "Failed to read session", err)
	}

	gateway := repository.NewPaymentRepository(h.client.WithStore(store))
	qr, err := h.payments.Initiate(c.UserContext(), gateway, paymentOwner(c), token, invoiceID, amount)

	var verr *models.ValidationError
	switch {
	case err == nil:
	case errors.Is(err, service.ErrNoOwner):
		return failure(c, fiber.StatusForbidden, "Payments need an identified user", nil)
	case errors.Is(err, service.ErrInvalidAmount):
		return failure(c, fiber.StatusBadRequest, err.Error(), nil)
	case errors.As(err, &verr):
		return failure(c, fiber.StatusBadRequest, verr.Message, nil)
	case apiclient.IsUnauthorized(err):
		return err
	default:
		return failure(c, fiber.StatusBadGateway, apiclient.UserMessage(err), err)
	}

	if c.Query("format") == "png" {
		c.Set(fiber.HeaderContentType, "image/png")
		return c.Send(qr.PNG)
	}
	if utils.WantsJSON(c) {
		return utils.SuccessResponse(c, "Payment initiated", qr)
	}

	return c.Render("payments/qr", page(c, "UPI Payment", "", fiber.Map{
		"Payment": qr,
		"PayURI":  template.URL(qr.URI),
		"Amount":  service.FormatMoney(qr.Amount.String()),
		"QRImage": template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(qr.PNG)),
	}), layout)
}

// paymentOwner names the signed-in user a transaction belongs to.
func paymentOwner(c *fiber.Ctx) string {
	user := middleware.AuthState(c).User
	switch {
	case user.ID > 0:
		return fmt.Sprintf("user:%d", user.ID)
	case user.Username != "":
		return "user:" + user.Username
	}
	return ""
}

// Status reports the cached gateway status polled by the worker. Only the
// user who started the payment can read it.
func (h *PaymentHandler) Status(c *fiber.Ctx) error {
	status, ok, err := h.payments.StatusFor(c.UserContext(), c.Params("txn"), paymentOwner(c))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to read payment status", err)
	}
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Unknown transaction", nil)
	}
	return utils.SuccessResponse(c, "Payment status", status)
}
