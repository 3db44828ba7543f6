package httpapi

import "net/http"

func NewRouter(tx *TransactionHandler, webhooks *WebhookHandler, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/transactions", tx.CreateTransaction)
	mux.HandleFunc("GET /api/transactions", tx.ListTransactions)
	mux.HandleFunc("GET /api/transactions/order/{nsu}", tx.GetByOrderNSU)

	mux.HandleFunc("POST /api/webhooks/infinitepay", webhooks.Receive)
	mux.HandleFunc("GET /api/webhooks/infinitepay/health", webhooks.Health)

	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return mux
}
