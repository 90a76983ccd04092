package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/escola-solidaria/solidaria-api/internal/auth"
	"github.com/escola-solidaria/solidaria-api/internal/handlers"
	"github.com/escola-solidaria/solidaria-api/internal/middleware"
	"github.com/escola-solidaria/solidaria-api/internal/models"
)

// Handlers bundles every HTTP handler wired into the router
type Handlers struct {
	StudentAuth *handlers.StudentAuthHandler
	StaffAuth   *handlers.StaffAuthHandler
	Students    *handlers.StudentHandler
	Documents   *handlers.DocumentHandler
	Cards       *handlers.CardHandler
	Donations   *handlers.DonationHandler
	Home        *handlers.HomeHandler
	Uploads     *handlers.UploadHandler
}

// RegisterRoutes registers all application routes. Student endpoints sit
// under /api/autenticacao and friends and are guarded by the student gate;
// the staff panel lives under /api/auth and /api/admin behind the staff gate.
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	studentGate *auth.Gate,
	staffGate *auth.Gate,
) {
	loginLimit := middleware.RateLimitByIP(middleware.LoginRateLimit())

	// Public routes - no authentication required
	router.Get("/api/home", h.Home.GetPublic)
	router.Get("/api/transparencia/receitas", h.Donations.ListPublic)
	router.Get("/api/transparencia/resumo", h.Donations.Summary)
	router.Get("/api/carteirinhas/validar/{numero}", h.Cards.Validate)

	// Optional staff auth: staff previewing the transparency page also see
	// hidden and unconfirmed entries.
	router.With(staffGate.Optional).Get("/api/transparencia/receitas/{id}", h.Donations.GetDetail)

	router.With(loginLimit).Post("/api/autenticacao/login", h.StudentAuth.Login)
	router.With(loginLimit).Post("/api/auth/login", h.StaffAuth.Login)

	// Student routes - student session required
	router.Group(func(r chi.Router) {
		r.Use(studentGate.Authenticate)

		r.Get("/api/autenticacao/eu", h.StudentAuth.Me)
		r.Post("/api/autenticacao/logout", h.StudentAuth.Logout)
		r.With(loginLimit).Post("/api/autenticacao/trocar-senha", h.StudentAuth.ChangePassword)

		r.Get("/api/ficha", h.Students.GetForm)
		r.Post("/api/ficha", h.Students.SubmitForm)

		r.Get("/api/documentos", h.Documents.ListMine)
		r.Post("/api/documentos", h.Documents.Upload)

		r.Get("/api/carteirinha", h.Cards.Mine)
	})

	// Account registration and password resets belong to the aluno-side
	// admin, who lives in the alunos table like everyone else
	router.Group(func(r chi.Router) {
		r.Use(studentGate.Authenticate)
		r.Use(studentGate.RequireRole(models.RoleAdmin))

		r.Post("/api/autenticacao/registrar", h.StudentAuth.Register)
		r.Post("/api/autenticacao/resetar-senha/{id}", h.StudentAuth.ResetPassword)
	})

	// Staff routes - staff session required
	router.Group(func(r chi.Router) {
		r.Use(staffGate.Authenticate)
		r.Use(staffGate.RequireRole(models.RoleAdmin, models.RoleEditor))

		r.Get("/api/auth/me", h.StaffAuth.Me)
		r.Post("/api/auth/logout", h.StaffAuth.Logout)
		r.Put("/api/auth/profile", h.StaffAuth.UpdateProfile)

		// Homepage editor
		r.Get("/api/admin/home", h.Home.Get)
		r.Put("/api/admin/home", h.Home.Update)
		r.Patch("/api/admin/home/{section}", h.Home.UpdateSection)
		r.Post("/api/admin/home/publicar", h.Home.Publish)

		// Uploads for photos and gallery images
		r.Post("/api/admin/uploads", h.Uploads.Upload)
		r.Post("/api/admin/uploads/multiplos", h.Uploads.UploadMultiple)

		// Revenue ledger
		r.Get("/api/admin/receitas", h.Donations.List)
		r.Post("/api/admin/receitas", h.Donations.Create)
		r.Get("/api/admin/receitas/{id}", h.Donations.Get)
		r.Put("/api/admin/receitas/{id}", h.Donations.Update)

		// Student management
		r.Get("/api/admin/alunos", h.Students.List)
		r.Get("/api/admin/alunos/estatisticas", h.Students.Stats)
		r.Get("/api/admin/alunos/{id}", h.Students.Get)
		r.Put("/api/admin/alunos/{id}", h.Students.Update)
		r.Get("/api/admin/alunos/{id}/ficha", h.Students.GetStudentForm)
		r.Get("/api/admin/alunos/{id}/documentos", h.Documents.ListByStudent)

		// Document review
		r.Get("/api/admin/documentos/{id}", h.Documents.Get)
		r.Post("/api/admin/documentos/{id}/revisar", h.Documents.Review)

		// Cards
		r.Get("/api/admin/alunos/{id}/carteirinha", h.Cards.Get)
		r.Post("/api/admin/alunos/{id}/carteirinha", h.Cards.Issue)
		r.Post("/api/admin/alunos/{id}/carteirinha/sincronizar", h.Cards.Sync)
		r.Post("/api/admin/alunos/{id}/carteirinha/renovar", h.Cards.Renew)
		r.Put("/api/admin/alunos/{id}/carteirinha/status", h.Cards.UpdateStatus)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(staffGate.RequireRole(models.RoleAdmin))

			r.Post("/api/admin/alunos/{id}/matricular", h.Students.Enroll)
			r.Put("/api/admin/alunos/{id}/reativar", h.Students.Reactivate)
			r.Delete("/api/admin/alunos/{id}", h.Students.Deactivate)
			r.Delete("/api/admin/receitas/{id}", h.Donations.Delete)
			r.Delete("/api/admin/documentos/{id}", h.Documents.Delete)
		})
	})
}

// RegisterStatic serves locally stored uploads when the local file store is
// in use.
func RegisterStatic(router chi.Router, dir string) {
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(dir)))
	router.Get("/uploads/*", fs.ServeHTTP)
}
