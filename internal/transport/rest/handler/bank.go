package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/canvasslabs/canvass/internal/service"
	"github.com/canvasslabs/canvass/internal/transport/rest/middleware"
)

// BankHandler handles question bank endpoints
type BankHandler struct {
	bankSvc *service.BankService
}

// NewBankHandler creates a new bank handler
func NewBankHandler(bankSvc *service.BankService) *BankHandler {
	return &BankHandler{bankSvc: bankSvc}
}

// Create handles POST /v1/banks
func (h *BankHandler) Create(w http.ResponseWriter, r *http.Request) {
	builderID := middleware.GetBuilderID(r.Context())
	if builderID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req service.CreateBankRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	bank, err := h.bankSvc.Create(r.Context(), builderID, &req)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, bank)
}

// List handles GET /v1/banks
func (h *BankHandler) List(w http.ResponseWriter, r *http.Request) {
	builderID := middleware.GetBuilderID(r.Context())
	if builderID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	banks, err := h.bankSvc.List(r.Context(), builderID)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"banks": banks})
}

// Delete handles DELETE /v1/banks/{bankId}
func (h *BankHandler) Delete(w http.ResponseWriter, r *http.Request) {
	builderID := middleware.GetBuilderID(r.Context())
	bankID := mux.Vars(r)["bankId"]

	if err := h.bankSvc.Delete(r.Context(), builderID, bankID); err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
