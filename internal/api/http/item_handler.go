package http

import (
	"net/http"

	"pointmarket-backend/internal/domain"
	"pointmarket-backend/internal/service"

	"github.com/gorilla/mux"
)

// ItemHandler serves catalog endpoints
type ItemHandler struct {
	catalogSvc service.CatalogService
}

func NewItemHandler(catalogSvc service.CatalogService) *ItemHandler {
	return &ItemHandler{catalogSvc: catalogSvc}
}

type itemRequest struct {
	SellerID      string `json:"seller_id"`
	Title         string `json:"title"`
	PricePoints   int64  `json:"price_points"`
	StockQuantity *int64 `json:"stock_quantity"`
	IsAvailable   bool   `json:"is_available"`
}

func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if !decodeBody(w, r, &req) {
		return
	}

	item := &domain.Item{
		SellerID:      req.SellerID,
		Title:         req.Title,
		PricePoints:   req.PricePoints,
		StockQuantity: req.StockQuantity,
		IsAvailable:   req.IsAvailable,
	}
	if err := h.catalogSvc.CreateItem(r.Context(), item); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.catalogSvc.GetItem(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	item, err := h.catalogSvc.GetItem(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	var req itemRequest
	if !decodeBody(w, r, &req) {
		return
	}
	item.Title = req.Title
	item.PricePoints = req.PricePoints
	item.StockQuantity = req.StockQuantity
	item.IsAvailable = req.IsAvailable

	if err := h.catalogSvc.UpdateItem(r.Context(), item); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *ItemHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Available bool `json:"available"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	id := mux.Vars(r)["id"]
	if err := h.catalogSvc.SetAvailability(r.Context(), id, req.Available); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *ItemHandler) ListSellerItems(w http.ResponseWriter, r *http.Request) {
	sellerID := mux.Vars(r)["seller_id"]

	page := queryInt32(r, "page")
	pageSize := queryInt32(r, "page_size")

	items, total, err := h.catalogSvc.ListSellerItems(r.Context(), sellerID, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
	})
}
