package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rcarvalho-pb/ipsim-go/internal/application/payment"
	"github.com/rcarvalho-pb/ipsim-go/internal/domain/event"
	"github.com/rcarvalho-pb/ipsim-go/internal/domain/transaction"
	"github.com/rcarvalho-pb/ipsim-go/internal/infra/logging"
)

type TransactionHandler struct {
	Service *payment.Service
	Logger  logging.Logger
}

func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	tx, err := h.Service.Submit(payment.SubmitRequest{
		Amount:       req.Amount,
		Type:         transaction.Type(req.Type),
		Installments: req.Installments,
		CardNumber:   req.CardNumber,
		CardHolder:   req.CardHolder,
		CardExpiry:   req.CardExpiry,
	})
	if err != nil {
		if isValidation(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logError(h.Logger, "submit transaction failed", err, nil)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(tx))
}

func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.Service.List()
	if err != nil {
		logError(h.Logger, "list transactions failed", err, nil)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toResponse(tx))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *TransactionHandler) GetByOrderNSU(w http.ResponseWriter, r *http.Request) {
	nsu := r.PathValue("nsu")

	tx, err := h.Service.FindByOrderNSU(nsu)
	if errors.Is(err, transaction.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		logError(h.Logger, "find transaction failed", err, map[string]any{"order-nsu": nsu})
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(tx))
}

// WebhookHandler receives checkout completion notifications. Non-2xx
// answers ask the provider to retry, so unknown orders are acknowledged.
type WebhookHandler struct {
	Service *payment.Service
	Logger  logging.Logger
}

func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var p event.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid webhook body", http.StatusBadRequest)
		return
	}

	_, applied, err := h.Service.ApplyWebhook(p)
	switch {
	case errors.Is(err, payment.ErrMissingOrderNSU):
		writeText(w, http.StatusBadRequest, "Missing order_nsu")
	case errors.Is(err, transaction.ErrNotFound):
		writeText(w, http.StatusOK, "Transaction not found, but acknowledged")
	case err != nil:
		logError(h.Logger, "webhook processing failed", err, map[string]any{"order-nsu": p.OrderNSU})
		writeText(w, http.StatusBadRequest, "Error processing webhook: "+err.Error())
	case !applied:
		writeText(w, http.StatusOK, "Already processed")
	default:
		writeText(w, http.StatusOK, "Webhook processed successfully")
	}
}

func (h *WebhookHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, "InfinitePay webhook endpoint is healthy")
}

func isValidation(err error) bool {
	return errors.Is(err, payment.ErrInvalidAmount) ||
		errors.Is(err, payment.ErrInvalidType) ||
		errors.Is(err, payment.ErrInvalidInstallments) ||
		errors.Is(err, payment.ErrMissingCard)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	w.Write([]byte(msg))
}

func logError(l logging.Logger, msg string, err error, fields map[string]any) {
	if l == nil {
		return
	}
	if fields == nil {
		fields = map[string]any{}
	}
	fields["error"] = err
	l.Error(msg, fields)
}
