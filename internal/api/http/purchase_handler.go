package http

import (
	"net/http"

	"pointmarket-backend/internal/service"

	"github.com/gorilla/mux"
)

// PurchaseHandler serves purchase and refund endpoints
type PurchaseHandler struct {
	purchaseSvc service.PurchaseService
	ledgerSvc   service.LedgerService
}

func NewPurchaseHandler(purchaseSvc service.PurchaseService, ledgerSvc service.LedgerService) *PurchaseHandler {
	return &PurchaseHandler{purchaseSvc: purchaseSvc, ledgerSvc: ledgerSvc}
}

func (h *PurchaseHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID  string `json:"item_id"`
		BuyerID string `json:"buyer_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ItemID == "" || req.BuyerID == "" {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "item_id and buyer_id are required")
		return
	}

	receipt, err := h.purchaseSvc.Purchase(r.Context(), req.ItemID, req.BuyerID)
	if err != nil {
		writeError(w, err)
		return
	}

	// A replayed purchase returns the original receipt, not a new resource.
	status := http.StatusCreated
	if receipt.AlreadyOwned {
		status = http.StatusOK
	}
	writeJSON(w, status, receipt)
}

func (h *PurchaseHandler) GetPurchase(w http.ResponseWriter, r *http.Request) {
	rec, err := h.purchaseSvc.GetPurchase(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *PurchaseHandler) Refund(w http.ResponseWriter, r *http.Request) {
	purchaseID := mux.Vars(r)["id"]

	balance, err := h.ledgerSvc.Refund(r.Context(), purchaseID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"purchase_id": purchaseID,
		"balance":     balance,
	})
}

func (h *PurchaseHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	buyerID := mux.Vars(r)["user_id"]

	page := queryInt32(r, "page")
	pageSize := queryInt32(r, "page_size")

	recs, total, err := h.purchaseSvc.ListPurchases(r.Context(), buyerID, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"purchases": recs,
		"total":     total,
	})
}
