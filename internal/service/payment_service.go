package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"workshop-web/internal/config"
	"workshop-web/internal/models"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/skip2/go-qrcode"
)

const (
	TypePaymentPoll = "payment:poll"

	qrSize = 256
)

var (
	ErrInvalidAmount = errors.New("payment amount must be greater than zero")
	ErrNoOwner       = errors.New("payment owner is required")
)

// PaymentGateway is the backend's UPI surface, bound to the paying user's session.
type PaymentGateway interface {
	InitiateUPI(ctx context.Context, req models.UPIInitiateRequest) (*models.UPIInitiation, error)
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// PaymentPollPayload carries what the worker needs to poll on the user's
// behalf. The token is replayed through a request-scoped store.
type PaymentPollPayload struct {
	TransactionID string    `json:"transaction_id"`
	InvoiceID     int64     `json:"invoice_id"`
	Token         string    `json:"token"`
	Deadline      time.Time `json:"deadline"`
}

type PaymentService struct {
	redis  *redis.Client
	queue  TaskEnqueuer
	cfg    *config.Config
	logger *logrus.Logger
	now    func() time.Time
}

func NewPaymentService(redis *redis.Client, queue TaskEnqueuer, cfg *config.Config, logger *logrus.Logger) *PaymentService {
	return &PaymentService{
		redis:  redis,
		queue:  queue,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

func statusKey(transactionID string) string {
	return fmt.Sprintf("payment:upi:status:%s", transactionID)
}

func ownerKey(transactionID string) string {
	return fmt.Sprintf("payment:upi:owner:%s", transactionID)
}

// Initiate opens a UPI collect request for an invoice, renders its QR code
// and schedules background status polling. Only owner can read the
// transaction's status afterwards.
func (s *PaymentService) Initiate(ctx context.Context, gateway PaymentGateway, owner, token string, invoiceID int64, amount decimal.Decimal) (*models.PaymentQR, error) {
	if owner == "" {
		return nil, ErrNoOwner
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	req := models.UPIInitiateRequest{InvoiceID: invoiceID, Amount: amount.Round(2)}
	if err := models.ValidateStruct(req); err != nil {
		return nil, err
	}

	init, err := gateway.InitiateUPI(ctx, req)
	if err != nil {
		return nil, err
	}
	if init.Amount.IsZero() {
		init.Amount = req.Amount
	}
	if init.Note == "" {
		init.Note = fmt.Sprintf("Invoice #%d", invoiceID)
	}

	uri := BuildUPIURI(init)
	png, err := qrcode.Encode(uri, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render payment QR: %w", err)
	}

	status := init.Status
	if status == "" {
		status = models.PaymentPending
	}
	// The owner outlives the last status the worker can record.
	ownerTTL := s.cfg.UPIPollTimeout + s.cfg.UPIStatusTTL
	if err := s.redis.Set(ctx, ownerKey(init.TransactionID), owner, ownerTTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to record payment owner: %w", err)
	}
	if err := s.RecordStatus(ctx, models.UPIStatus{TransactionID: init.TransactionID, Status: status}); err != nil {
		return nil, err
	}

	if !status.Terminal() {
		payload := PaymentPollPayload{
			TransactionID: init.TransactionID,
			InvoiceID:     invoiceID,
			Token:         token,
			Deadline:      s.now().Add(s.cfg.UPIPollTimeout),
		}
		if err := s.SchedulePoll(ctx, payload); err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"invoice_id":     invoiceID,
		"transaction_id": init.TransactionID,
		"amount":         init.Amount.StringFixed(2),
	}).Info("UPI payment initiated")

	return &models.PaymentQR{
		InvoiceID:     invoiceID,
		TransactionID: init.TransactionID,
		URI:           uri,
		PNG:           png,
		Amount:        init.Amount,
		PayeeName:     init.PayeeName,
		Status:        status,
	}, nil
}

// BuildUPIURI renders the upi://pay deep link scanned by payer apps.
func BuildUPIURI(init *models.UPIInitiation) string {
	params := []struct{ key, value string }{
		{"pa", init.UPIID},
		{"pn", init.PayeeName},
		{"am", init.Amount.StringFixed(2)},
		{"tr", init.TransactionID},
		{"cu", "INR"},
		{"tn", init.Note},
	}

	parts := make([]string, 0, len(params))
	for _, p := range params {
		if p.value == "" {
			continue
		}
		parts = append(parts, p.key+"="+strings.ReplaceAll(url.QueryEscape(p.value), "+", "%20"))
	}
	return "upi://pay?" + strings.Join(parts, "&")
}

// SchedulePoll enqueues the next status check after the poll interval.
func (s *PaymentService) SchedulePoll(ctx context.Context, payload PaymentPollPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal poll payload: %w", err)
	}

	task := asynq.NewTask(TypePaymentPoll, data)
	_, err = s.queue.EnqueueContext(ctx, task,
		asynq.ProcessIn(s.cfg.UPIPollInterval),
		asynq.TaskID(uuid.NewString()),
		asynq.MaxRetry(3),
		asynq.Queue("default"),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue payment poll: %w", err)
	}
	return nil
}

// RecordStatus caches the latest known status for the status endpoint.
func (s *PaymentService) RecordStatus(ctx context.Context, status models.UPIStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, statusKey(status.TransactionID), data, s.cfg.UPIStatusTTL).Err(); err != nil {
		return fmt.Errorf("failed to record payment status: %w", err)
	}
	return nil
}

// Status reads the cached status. Unknown transactions report ok=false.
func (s *PaymentService) Status(ctx context.Context, transactionID string) (*models.UPIStatus, bool, error) {
	data, err := s.redis.Get(ctx, statusKey(transactionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var status models.UPIStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, false, fmt.Errorf("corrupt payment status for %s: %w", transactionID, err)
	}
	return &status, true, nil
}

// StatusFor is Status restricted to the transaction's owner. Transactions
// started by anyone else read as unknown.
func (s *PaymentService) StatusFor(ctx context.Context, transactionID, owner string) (*models.UPIStatus, bool, error) {
	if owner == "" {
		return nil, false, nil
	}
	stored, err := s.redis.Get(ctx, ownerKey(transactionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if stored != owner {
		return nil, false, nil
	}
	return s.Status(ctx, transactionID)
}

func (s *PaymentService) Now() time.Time {
	return s.now()
}
