package worker

import (
	"workshop-web/internal/apiclient"
	"workshop-web/internal/service"

	"github.com/hibiken/asynq"
)

func RegisterHandlers(mux *asynq.ServeMux, payments *service.PaymentService, client *apiclient.Client) {
	poller := NewPaymentPollHandler(payments, client)
	mux.HandleFunc(service.TypePaymentPoll, poller.Handle)
}
