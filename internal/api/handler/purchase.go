// internal/api/handler/purchase.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"billing-api/internal/domain"
	"billing-api/internal/service"
	"billing-api/internal/util"
)

// PurchaseHandler handles HTTP requests for purchases.
type PurchaseHandler struct {
	service service.PurchaseService
	logger  *slog.Logger
}

// NewPurchaseHandler creates a new PurchaseHandler.
func NewPurchaseHandler(svc service.PurchaseService, logger *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{
		service: svc,
		logger:  logger,
	}
}

// CreatePurchaseRequest represents the request body for a purchase.
type CreatePurchaseRequest struct {
	ProductID int64 `json:"product_id"`
	UserID    int64 `json:"user_id"`
	BillID    int64 `json:"bill_id"`
}

// CreatePurchaseResponse carries the recorded purchase together with the
// bill balance it left behind.
type CreatePurchaseResponse struct {
	Purchase *domain.Purchase `json:"purchase"`
	Balance  decimal.Decimal  `json:"balance"`
}

// Create handles the purchase request.
// POST /v1/api/purchases
func (h *PurchaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, h.logger, util.ErrUnauthorized)
		return
	}

	var req CreatePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	if req.ProductID <= 0 || req.UserID <= 0 || req.BillID <= 0 {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	purchase, bill, err := h.service.Purchase(r.Context(), req.ProductID, req.UserID, req.BillID, principal)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, CreatePurchaseResponse{
		Purchase: purchase,
		Balance:  bill.Balance,
	})
}

// Record handles the admin record-only purchase insert. No balance is
// touched on this path.
// POST /v1/api/purchases/records
func (h *PurchaseHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	if req.ProductID <= 0 || req.UserID <= 0 || req.BillID <= 0 {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	purchase, err := h.service.RecordPurchase(r.Context(), req.ProductID, req.UserID, req.BillID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, purchase)
}

// List handles the role-scoped purchase listing request.
// GET /v1/api/purchases
func (h *PurchaseHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, h.logger, util.ErrUnauthorized)
		return
	}

	purchases, err := h.service.ListPurchases(r.Context(), principal)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{"purchases": purchases})
}

// Get handles the purchase detail request.
// GET /v1/api/purchases/{purchaseID}
func (h *PurchaseHandler) Get(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, h.logger, util.ErrUnauthorized)
		return
	}

	purchaseID, err := strconv.ParseInt(chi.URLParam(r, "purchaseID"), 10, 64)
	if err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	purchase, err := h.service.GetPurchase(r.Context(), purchaseID, principal)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, purchase)
}
