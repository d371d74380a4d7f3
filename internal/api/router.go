package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/erazemk/lostfound/internal/claim"
	"github.com/erazemk/lostfound/internal/model"
)

// Deps holds everything the API needs. DB stores accounts and revoked
// tokens; Items and Claims may be backed by a different database.
type Deps struct {
	DB        *sql.DB
	Items     ItemRepository
	Claims    *claim.Service
	JWTSecret string
	TokenTTL  time.Duration
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: d.DB, JWTSecret: d.JWTSecret, TokenTTL: d.TokenTTL}
	usersHandler := &UsersHandler{DB: d.DB}
	itemsHandler := &ItemsHandler{DB: d.DB, Items: d.Items, Claims: d.Claims}
	claimsHandler := &ClaimsHandler{Items: d.Items, Claims: d.Claims}
	adminHandler := &AdminHandler{Claims: d.Claims}

	authMW := AuthMiddleware(d.JWTSecret, d.DB)
	requireAdmin := RequireRole(model.RoleAdmin)

	// Public: signup and login.
	mux.HandleFunc("POST /api/auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Items, scoped to the caller's college.
	mux.Handle("POST /api/items/{kind}", authMW(http.HandlerFunc(itemsHandler.Create)))
	mux.Handle("GET /api/items/{kind}", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("GET /api/items/{kind}/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{kind}/{id}/resolve", authMW(http.HandlerFunc(itemsHandler.Resolve)))

	// Claims and matches.
	mux.Handle("POST /api/claims", authMW(http.HandlerFunc(claimsHandler.Toggle)))
	mux.Handle("GET /api/claims", authMW(http.HandlerFunc(claimsHandler.List)))

	// Admin only.
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/admin/counters/resync", authMW(requireAdmin(http.HandlerFunc(adminHandler.ResyncCounters))))

	return mux
}
