// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"billing-api/internal/api/handler"
	"billing-api/internal/auth"
)

// Handlers bundles the HTTP handlers the router wires up.
type Handlers struct {
	Auth        *handler.AuthHandler
	Product     *handler.ProductHandler
	Bill        *handler.BillHandler
	Transaction *handler.TransactionHandler
	Purchase    *handler.PurchaseHandler
	Webhook     *handler.WebhookHandler
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(h Handlers, tokens *auth.TokenManager, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)                       // Add a request ID to the context
	r.Use(middleware.RealIP)                          // Use the real IP address
	r.Use(middleware.Logger)                          // Log HTTP requests
	r.Use(middleware.Recoverer)                       // Recover from panics and return 500
	r.Use(middleware.Timeout(handler.DefaultTimeout)) // Set a default timeout for requests

	authenticate := handler.Authenticator(tokens, logger)
	requireAdmin := handler.RequireAdmin(logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Registration, activation, and login do not require a token.
	r.Route("/v1/auth", func(r chi.Router) {
		r.Post("/user", h.Auth.Register)
		r.Get("/activate/{token}", h.Auth.Activate)
		r.Post("/login/", h.Auth.Login)
		r.Post("/refresh/", h.Auth.Refresh)
	})

	r.Route("/v1/api", func(r chi.Router) {
		// The product catalog is readable without a token.
		r.Get("/products", h.Product.List)
		r.Get("/products/{productID}", h.Product.Get)

		// Catalog writes and account listings are admin-only.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(requireAdmin)

			r.Post("/products", h.Product.Create)
			r.Put("/products/{productID}", h.Product.Update)
			r.Delete("/products/{productID}", h.Product.Delete)

			r.Get("/users", h.Auth.ListUsers)
			r.Get("/users/{userID}", h.Auth.GetUser)

			r.Post("/bills", h.Bill.Create)
			r.Post("/transactions", h.Transaction.Create)
			r.Post("/purchases/records", h.Purchase.Record)
		})

		// Reads are scoped to the caller's role inside the services.
		r.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/bills", h.Bill.List)
			r.Get("/bills/{billID}", h.Bill.Get)
			r.Get("/bills/{billID}/transactions", h.Transaction.BillHistory)

			r.Get("/transactions", h.Transaction.List)
			r.Get("/transactions/{transactionID}", h.Transaction.Get)

			r.Get("/purchases", h.Purchase.List)
			r.Get("/purchases/{purchaseID}", h.Purchase.Get)
			r.Post("/purchases", h.Purchase.Create)
		})
	})

	// The payment provider authenticates with the payload signature, not
	// with a bearer token.
	r.Post("/v1/payment/webhook", h.Webhook.Receive)

	return r
}
