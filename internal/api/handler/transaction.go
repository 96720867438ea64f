// internal/api/handler/transaction.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"billing-api/internal/api/types"
	"billing-api/internal/domain"
	"billing-api/internal/service"
	"billing-api/internal/util"
)

// TransactionHandler handles HTTP requests for funds credits.
type TransactionHandler struct {
	service service.TransactionService
	logger  *slog.Logger
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(svc service.TransactionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateTransactionRequest represents the request body for an admin credit.
type CreateTransactionRequest struct {
	BillID int64           `json:"bill_id"`
	UserID int64           `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

// CreateTransactionResponse carries the recorded transaction together with
// the bill balance it produced.
type CreateTransactionResponse struct {
	Transaction *domain.Transaction `json:"transaction"`
	Balance     decimal.Decimal     `json:"balance"`
}

// Create handles the admin credit request.
// POST /v1/api/transactions
func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	if req.BillID <= 0 || req.UserID <= 0 {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	transaction, bill, err := h.service.Credit(r.Context(), req.BillID, req.UserID, req.Amount, nil)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, CreateTransactionResponse{
		Transaction: transaction,
		Balance:     bill.Balance,
	})
}

// List handles the role-scoped transaction listing request.
// GET /v1/api/transactions
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, h.logger, util.ErrUnauthorized)
		return
	}

	transactions, err := h.service.ListTransactions(r.Context(), principal)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{"transactions": transactions})
}

// Get handles the transaction detail request.
// GET /v1/api/transactions/{transactionID}
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, h.logger, util.ErrUnauthorized)
		return
	}

	transactionID, err := strconv.ParseInt(chi.URLParam(r, "transactionID"), 10, 64)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	transaction, err := h.service.GetTransaction(r.Context(), transactionID, principal)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, transaction)
}

// BillHistory handles the paginated bill statement request.
// GET /v1/api/bills/{billID}/transactions?limit=10&offset=0
func (h *TransactionHandler) BillHistory(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, h.logger, util.ErrUnauthorized)
		return
	}

	billID, err := strconv.ParseInt(chi.URLParam(r, "billID"), 10, 64)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10 // Default limit
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0 // Default offset
	}

	transactions, totalCount, err := h.service.GetBillHistory(r.Context(), billID, limit, offset, principal)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, types.PaginatedResponse[domain.Transaction]{
		Data:       transactions,
		Limit:      limit,
		Offset:     offset,
		TotalCount: totalCount,
	})
}
