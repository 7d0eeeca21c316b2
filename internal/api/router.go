package api

import (
	"net/http"

	"github.com/justinas/alice"

	"github.com/erazemk/custodia/internal/auth"
	"github.com/erazemk/custodia/internal/db"
	"github.com/erazemk/custodia/internal/model"
)

// Options configures the API router.
type Options struct {
	Tokens *auth.Issuer

	// LoginRate and LoginBurst limit login and registration attempts per
	// client IP, in requests per minute. Zero disables the limit.
	LoginRate  int
	LoginBurst int
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(database *db.DB, opts Options) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: database, Tokens: opts.Tokens}
	usersHandler := &UsersHandler{DB: database}
	itemsHandler := &ItemsHandler{DB: database}
	reportsHandler := &ReportsHandler{DB: database}

	public := alice.New()
	if opts.LoginRate > 0 {
		public = public.Append(RateLimit(opts.LoginRate, max(opts.LoginBurst, 1)))
	}
	authed := alice.New(AuthMiddleware(opts.Tokens, database))
	admin := authed.Append(RequireRole(model.RoleAdmin))

	// Public.
	mux.Handle("POST /api/register", public.ThenFunc(authHandler.Register))
	mux.Handle("POST /api/login", public.ThenFunc(authHandler.Login))
	mux.HandleFunc("GET /api/health", reportsHandler.Health)

	// Own account.
	mux.Handle("POST /api/auth/logout", authed.ThenFunc(authHandler.Logout))
	mux.Handle("GET /api/me", authed.ThenFunc(authHandler.Me))
	mux.Handle("PUT /api/profile/password", authed.ThenFunc(authHandler.ChangePassword))
	mux.Handle("PUT /api/profile/details", authed.ThenFunc(authHandler.UpdateProfile))

	// Users (admin only).
	mux.Handle("GET /api/users", admin.ThenFunc(usersHandler.List))
	mux.Handle("PUT /api/users/{id}/role", admin.ThenFunc(usersHandler.UpdateRole))
	mux.Handle("DELETE /api/users/{id}", admin.ThenFunc(usersHandler.Delete))

	// Items.
	mux.Handle("GET /api/items", authed.ThenFunc(itemsHandler.List))
	mux.Handle("POST /api/items", authed.ThenFunc(itemsHandler.Create))
	mux.Handle("DELETE /api/items/bulk", admin.ThenFunc(itemsHandler.BulkDelete))
	mux.Handle("GET /api/items/{id}", authed.ThenFunc(itemsHandler.Get))
	mux.Handle("PUT /api/items/{id}", authed.ThenFunc(itemsHandler.Update))
	mux.Handle("DELETE /api/items/{id}", authed.ThenFunc(itemsHandler.Delete))
	mux.Handle("GET /api/items/{id}/movements", authed.ThenFunc(itemsHandler.Movements))
	mux.Handle("PUT /api/items/{id}/image", authed.ThenFunc(itemsHandler.UploadImage))
	mux.Handle("GET /api/items/{id}/image", authed.ThenFunc(itemsHandler.GetImage))
	mux.Handle("POST /api/import/{type}", admin.ThenFunc(itemsHandler.Import))

	// Reports.
	mux.Handle("GET /api/dashboard/stats", authed.ThenFunc(reportsHandler.Dashboard))
	mux.Handle("GET /api/reports/equipment-by-status", authed.ThenFunc(reportsHandler.EquipmentByStatus))
	mux.Handle("GET /api/reports/inventory-by-custodian", authed.ThenFunc(reportsHandler.InventoryByCustodian))
	mux.Handle("GET /api/logs/recent", authed.ThenFunc(reportsHandler.RecentLogs))

	return alice.New(LoggingMiddleware, RecoverMiddleware).Then(mux)
}
