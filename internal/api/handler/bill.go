// internal/api/handler/bill.go
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"billing-api/internal/service"
	"billing-api/internal/util"
)

// BillHandler handles HTTP requests for customer bills.
type BillHandler struct {
	service service.BillService
	logger  *slog.Logger
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(svc service.BillService, logger *slog.Logger) *BillHandler {
	return &BillHandler{
		service: svc,
		logger:  logger,
	}
}

// CreateBillRequest represents the request body for bill creation.
type CreateBillRequest struct {
	UserID int64 `json:"user_id"`
}

// Create handles the admin bill creation request.
// POST /v1/api/bills
func (h *BillHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}
	if req.UserID <= 0 {
		respondWithError(w, h.logger, util.ErrInvalidInput)
		return
	}

	bill, err := h.service.CreateBill(r.Context(), req.UserID)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusCreated, bill)
}

// List handles the role-scoped bill listing request.
// GET /v1/api/bills
func (h *BillHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		respondWithError(w, h.logger, util.ErrUnauthorized)
		return
	}

	bills, err := h.service.ListBills(r.Context(), principal)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, map[string]interface{}{"bills": bills})
}

// Get handles the bill detail request.
// GET /v1/api/bills/{billID}
func (h *BillHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	bill, err := h.service.GetBill(r.Context(), billID, principal)
	if err != nil {
		respondWithError(w, h.logger, err)
		return
	}

	respondWithJSON(w, h.logger, http.StatusOK, bill)
}
