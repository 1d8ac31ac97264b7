package http

import (
	"net/http"

	"pointmarket-backend/internal/service"

	"github.com/gorilla/mux"
)

// Services bundles the service dependencies the HTTP layer exposes
type Services struct {
	Ledger       service.LedgerService
	Purchase     service.PurchaseService
	Catalog      service.CatalogService
	Subscription service.SubscriptionService
}

// NewRouter builds the API router with all routes registered
func NewRouter(svcs *Services) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()

	accounts := NewAccountHandler(svcs.Ledger)
	api.HandleFunc("/accounts", accounts.CreateAccount).Methods("POST")
	api.HandleFunc("/accounts/{user_id}", accounts.ArchiveAccount).Methods("DELETE")
	api.HandleFunc("/accounts/{user_id}/balance", accounts.GetBalance).Methods("GET")
	api.HandleFunc("/accounts/{user_id}/transactions", accounts.ListTransactions).Methods("GET")
	api.HandleFunc("/accounts/{user_id}/summary", accounts.GetSummary).Methods("GET")
	api.HandleFunc("/accounts/{user_id}/credit", accounts.Credit).Methods("POST")

	items := NewItemHandler(svcs.Catalog)
	api.HandleFunc("/items", items.CreateItem).Methods("POST")
	api.HandleFunc("/items/{id}", items.GetItem).Methods("GET")
	api.HandleFunc("/items/{id}", items.UpdateItem).Methods("PUT")
	api.HandleFunc("/items/{id}/availability", items.SetAvailability).Methods("POST")
	api.HandleFunc("/sellers/{seller_id}/items", items.ListSellerItems).Methods("GET")
	api.HandleFunc("/sellers/{seller_id}/revenue", accounts.GetSellerRevenue).Methods("GET")

	purchases := NewPurchaseHandler(svcs.Purchase, svcs.Ledger)
	api.HandleFunc("/purchases", purchases.Purchase).Methods("POST")
	api.HandleFunc("/purchases/{id}", purchases.GetPurchase).Methods("GET")
	api.HandleFunc("/purchases/{id}/refund", purchases.Refund).Methods("POST")
	api.HandleFunc("/accounts/{user_id}/purchases", purchases.ListPurchases).Methods("GET")

	subscriptions := NewSubscriptionHandler(svcs.Subscription)
	api.HandleFunc("/subscriptions", subscriptions.Subscribe).Methods("POST")
	api.HandleFunc("/subscriptions/{id}", subscriptions.GetSubscription).Methods("GET")
	api.HandleFunc("/subscriptions/{id}/cancel", subscriptions.Cancel).Methods("POST")

	return router
}
