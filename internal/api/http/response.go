package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"pointmarket-backend/internal/domain"
	"pointmarket-backend/internal/logger"
)

// errorBody is the JSON shape of every error response. Code is a stable
// machine-readable identifier; clients branch on it, not on the message.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("failed to encode response", "error", err)
		}
	}
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeError maps domain errors onto the stable error codes of the API
// contract. Unknown errors become INTERNAL_ERROR without leaking internals.
func writeError(w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusPaymentRequired, errorBody{Error: errorDetail{
			Code:    "INSUFFICIENT_BALANCE",
			Message: insufficient.Error(),
			Details: map[string]any{
				"required":  insufficient.Required,
				"available": insufficient.Available,
			},
		}})
		return
	}

	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		writeErrorCode(w, http.StatusNotFound, "ACCOUNT_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrAccountArchived):
		writeErrorCode(w, http.StatusConflict, "ACCOUNT_ARCHIVED", err.Error())
	case errors.Is(err, domain.ErrItemNotFound):
		writeErrorCode(w, http.StatusNotFound, "ITEM_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrItemUnavailable):
		writeErrorCode(w, http.StatusConflict, "ITEM_UNAVAILABLE", err.Error())
	case errors.Is(err, domain.ErrInvalidPrice):
		writeErrorCode(w, http.StatusUnprocessableEntity, "INVALID_PRICE", err.Error())
	case errors.Is(err, domain.ErrOutOfStock):
		writeErrorCode(w, http.StatusConflict, "OUT_OF_STOCK", err.Error())
	case errors.Is(err, domain.ErrSelfPurchase):
		writeErrorCode(w, http.StatusForbidden, "SELF_PURCHASE_NOT_ALLOWED", err.Error())
	case errors.Is(err, domain.ErrAlreadyPurchased):
		writeErrorCode(w, http.StatusConflict, "ALREADY_PURCHASED", err.Error())
	case errors.Is(err, domain.ErrPurchaseNotFound):
		writeErrorCode(w, http.StatusNotFound, "PURCHASE_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrAlreadyRefunded):
		writeErrorCode(w, http.StatusConflict, "ALREADY_REFUNDED", err.Error())
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		writeErrorCode(w, http.StatusNotFound, "SUBSCRIPTION_NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrAlreadySubscribed):
		writeErrorCode(w, http.StatusConflict, "ALREADY_SUBSCRIBED", err.Error())
	case errors.Is(err, domain.ErrInvalidAmount):
		writeErrorCode(w, http.StatusUnprocessableEntity, "INVALID_AMOUNT", err.Error())
	case errors.Is(err, domain.ErrInvalidTransactionType):
		writeErrorCode(w, http.StatusUnprocessableEntity, "INVALID_TRANSACTION_TYPE", err.Error())
	case errors.Is(err, domain.ErrConstraintViolation):
		writeErrorCode(w, http.StatusConflict, "CONSTRAINT_VIOLATION", err.Error())
	default:
		logger.Error("request failed", "error", err)
		writeErrorCode(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_REQUEST", "malformed request body")
		return false
	}
	return true
}
