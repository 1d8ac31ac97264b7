package http

import (
	"net/http"
	"strconv"
	"time"

	"pointmarket-backend/internal/domain"
	"pointmarket-backend/internal/service"

	"github.com/gorilla/mux"
)

// AccountHandler serves account and ledger endpoints
type AccountHandler struct {
	ledgerSvc service.LedgerService
}

func NewAccountHandler(ledgerSvc service.LedgerService) *AccountHandler {
	return &AccountHandler{ledgerSvc: ledgerSvc}
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.UserID == "" {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "user_id is required")
		return
	}

	account, err := h.ledgerSvc.CreateAccount(r.Context(), req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

func (h *AccountHandler) ArchiveAccount(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	if err := h.ledgerSvc.ArchiveAccount(r.Context(), userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	balance, err := h.ledgerSvc.GetBalance(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"balance": balance,
	})
}

func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	filter := domain.TransactionFilter{
		Type:   domain.TransactionType(r.URL.Query().Get("type")),
		Limit:  queryInt32(r, "limit"),
		Offset: queryInt32(r, "offset"),
	}

	txs, total, err := h.ledgerSvc.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": txs,
		"total":        total,
	})
}

func (h *AccountHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	summary, err := h.ledgerSvc.GetSummary(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *AccountHandler) Credit(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]

	var req struct {
		Amount        int64   `json:"amount"`
		Type          string  `json:"type"`
		RelatedItemID *string `json:"related_item_id"`
		Description   string  `json:"description"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	balance, err := h.ledgerSvc.Credit(r.Context(), userID, req.Amount,
		domain.TransactionType(req.Type), req.RelatedItemID, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"balance": balance,
	})
}

func (h *AccountHandler) GetSellerRevenue(w http.ResponseWriter, r *http.Request) {
	sellerID := mux.Vars(r)["seller_id"]

	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "from must be an RFC 3339 timestamp")
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "to must be an RFC 3339 timestamp")
		return
	}

	revenue, err := h.ledgerSvc.GetSellerRevenue(r.Context(), sellerID, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, revenue)
}

func queryInt32(r *http.Request, key string) int32 {
	val, err := strconv.ParseInt(r.URL.Query().Get(key), 10, 32)
	if err != nil {
		return 0
	}
	return int32(val)
}
