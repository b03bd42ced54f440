package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"workshop-web/internal/apiclient"
	"workshop-web/internal/models"
	"workshop-web/internal/repository"
	"workshop-web/internal/service"
	"workshop-web/internal/session"
	"workshop-web/internal/utils"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// PaymentPollHandler checks a pending UPI transaction with the backend and
// re-enqueues itself until the payment settles or the window closes.
type PaymentPollHandler struct {
	payments *service.PaymentService
	client   *apiclient.Client
	logger   *logrus.Entry
}

func NewPaymentPollHandler(payments *service.PaymentService, client *apiclient.Client) *PaymentPollHandler {
	return &PaymentPollHandler{
		payments: payments,
		client:   client,
		logger:   utils.Component("payment-poll"),
	}
}

func (h *PaymentPollHandler) Handle(ctx context.Context, task *asynq.Task) error {
	var payload service.PaymentPollPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	log := h.logger.WithFields(logrus.Fields{
		"transaction_id": payload.TransactionID,
		"invoice_id":     payload.InvoiceID,
	})

	if h.payments.Now().After(payload.Deadline) {
		log.Info("Payment window closed without settlement")
		return h.payments.RecordStatus(ctx, models.UPIStatus{
			TransactionID: payload.TransactionID,
			Status:        models.PaymentExpired,
			Message:       "Payment window expired",
		})
	}

	// The poll runs with the token of the user who opened the payment.
	store := session.NewStaticStore(payload.Token)
	repo := repository.NewPaymentRepository(h.client.WithStore(store))

	status, err := repo.UPIStatus(ctx, payload.TransactionID)
	switch {
	case apiclient.IsUnauthorized(err):
		log.Warn("Session expired while polling payment")
		return h.payments.RecordStatus(ctx, models.UPIStatus{
			TransactionID: payload.TransactionID,
			Status:        models.PaymentFailed,
			Message:       "Session expired before the payment was confirmed",
		})
	case err != nil:
		log.WithError(err).Warn("Payment status check failed, retrying later")
		return h.payments.SchedulePoll(ctx, payload)
	}

	if status.Status == "" {
		status.Status = models.PaymentPending
	}
	if err := h.payments.RecordStatus(ctx, *status); err != nil {
		return err
	}

	if status.Status.Terminal() {
		log.WithField("status", status.Status).Info("Payment settled")
		return nil
	}
	return h.payments.SchedulePoll(ctx, payload)
}
