package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"workshop-web/internal/apiclient"
	"workshop-web/internal/models"
)

type PaymentRepository struct {
	client *apiclient.Client
}

func NewPaymentRepository(client *apiclient.Client) *PaymentRepository {
	return &PaymentRepository{client: client}
}

func (r *PaymentRepository) InitiateUPI(ctx context.Context, req models.UPIInitiateRequest) (*models.UPIInitiation, error) {
	env, err := r.client.Request(ctx, http.MethodPost, "/payments/upi/initiate", req)
	if err != nil {
		return nil, err
	}
	if err := env.Err(); err != nil {
		return nil, err
	}

	var out models.UPIInitiation
	if err := env.Decode(&out); err != nil {
		return nil, err
	}
	if out.TransactionID == "" {
		return nil, fmt.Errorf("payment gateway returned no transaction id for invoice %d", req.InvoiceID)
	}
	return &out, nil
}

func (r *PaymentRepository) UPIStatus(ctx context.Context, transactionID string) (*models.UPIStatus, error) {
	path := fmt.Sprintf("/payments/upi/%s/status", url.PathEscape(transactionID))
	env, err := r.client.Request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if err := env.Err(); err != nil {
		return nil, err
	}

	var out models.UPIStatus
	if err := env.Decode(&out); err != nil {
		return nil, err
	}
	if out.TransactionID == "" {
		out.TransactionID = transactionID
	}
	return &out, nil
}
