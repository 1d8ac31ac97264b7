package http

import (
	"net/http"

	"pointmarket-backend/internal/service"

	"github.com/gorilla/mux"
)

// SubscriptionHandler serves subscription endpoints
type SubscriptionHandler struct {
	subscriptionSvc service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionSvc service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionSvc: subscriptionSvc}
}

func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemID       string `json:"item_id"`
		UserID       string `json:"user_id"`
		IntervalDays int32  `json:"interval_days"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ItemID == "" || req.UserID == "" {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "item_id and user_id are required")
		return
	}
	if req.IntervalDays <= 0 {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "interval_days must be positive")
		return
	}

	sub, err := h.subscriptionSvc.Subscribe(r.Context(), req.ItemID, req.UserID, req.IntervalDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *SubscriptionHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subscriptionSvc.GetSubscription(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	sub, err := h.subscriptionSvc.Cancel(r.Context(), mux.Vars(r)["id"], req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}
