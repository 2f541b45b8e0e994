package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/pawsoft/vetclinic/internal/auth"
	"github.com/pawsoft/vetclinic/internal/database"
	"github.com/pawsoft/vetclinic/internal/web/handlers"
	"github.com/pawsoft/vetclinic/internal/web/middleware"
)

//go:embed templates/*
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Server represents the web server
type Server struct {
	db          *database.DB
	port        int
	bind        string
	allowedNet  *net.IPNet
	router      *chi.Mux
	templates   map[string]*template.Template
	authService *auth.AuthService
	handlers    *handlers.Handlers
	version     string
	isDev       bool
}

// NewServer creates a new web server
func NewServer(db *database.DB, port int, bind string, allowedNet *net.IPNet, version string, isDev bool) *Server {
	s := &Server{
		db:          db,
		port:        port,
		bind:        bind,
		allowedNet:  allowedNet,
		router:      chi.NewRouter(),
		authService: auth.NewAuthService(db),
		version:     version,
		isDev:       isDev,
	}

	s.loadTemplates()
	s.setupRoutes()

	return s
}

// AuthService returns the authentication service
func (s *Server) AuthService() *auth.AuthService {
	return s.authService
}

// templateFuncMap returns the common template functions
func templateFuncMap() template.FuncMap {
	return template.FuncMap{
		"formatTime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04")
		},
		"formatDate": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
		"formatDatePtr": func(t *time.Time) string {
			if t == nil {
				return "-"
			}
			return t.Format("2006-01-02")
		},
		"formatMoney": formatMoney,
		"centsToUnits": func(cents int64) float64 {
			return float64(cents) / 100
		},
		"formatWeight": func(kg *float64) string {
			if kg == nil {
				return "-"
			}
			return fmt.Sprintf("%.2f kg", *kg)
		},
		"deref64": func(v *int64) int64 {
			if v == nil {
				return 0
			}
			return *v
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"title": func(s string) string {
			s = strings.ReplaceAll(s, "_", " ")
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"list": func(items ...string) []string {
			return items
		},
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"truncate": func(s string, maxLen int) string {
			if len(s) <= maxLen {
				return s
			}
			return s[:maxLen] + "..."
		},
	}
}

// loadTemplates loads all HTML templates
// Each page template is parsed with the base template and partials
func (s *Server) loadTemplates() {
	s.templates = make(map[string]*template.Template)
	funcMap := templateFuncMap()

	pageTemplates := []string{
		"login.html",
		"setup.html",
		"dashboard.html",
		"profile.html",
		"notfound.html",
		"clients.html",
		"client_form.html",
		"client_detail.html",
		"pets.html",
		"pet_form.html",
		"pet_detail.html",
		"appointments.html",
		"appointment_form.html",
		"invoices.html",
		"invoice_form.html",
		"invoice_detail.html",
		"products.html",
		"product_form.html",
		"categories.html",
		"movements.html",
		"users.html",
		"user_form.html",
	}

	for _, page := range pageTemplates {
		// Parse base template first, then partials, then the page template
		tmpl, err := template.New("").Funcs(funcMap).ParseFS(templatesFS,
			"templates/base.html",
			"templates/partials/*.html",
			"templates/"+page,
		)
		if err != nil {
			log.Fatal().Err(err).Str("template", page).Msg("Failed to parse template")
		}
		s.templates[page] = tmpl
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(chimiddleware.RequestID)
	// AllowSubnet must come BEFORE RealIP so we check the actual connection source
	r.Use(middleware.AllowSubnet(s.allowedNet))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// Static files
	staticContent, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to setup static files")
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticContent))))

	h := handlers.New(s.db, s.templates, s.authService, s.version, s.isDev)
	s.handlers = h

	r.NotFound(h.NotFound)

	// Public routes (no auth required)
	r.Group(func(r chi.Router) {
		r.Get("/login", h.LoginPage)
		r.Post("/login", h.LoginSubmit)
		r.Get("/logout", h.Logout)

		// First-run setup (only works while no users exist)
		r.Get("/setup", h.SetupPage)
		r.Post("/setup", h.SetupSubmit)
	})

	// Protected routes (session auth required)
	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(s.authService))
		r.Use(middleware.RequireSetup(s.db))

		r.Get("/", h.Dashboard)
		r.Get("/dashboard", h.Dashboard)

		r.Get("/profile", h.ProfilePage)
		r.Post("/profile/username", h.ProfileUpdateUsername)
		r.Post("/profile/password", h.ProfileUpdatePassword)

		r.Route("/clients", func(r chi.Router) {
			r.Get("/", h.ClientsPage)
			r.Get("/new", h.ClientNew)
			r.Post("/", h.ClientCreate)
			r.Get("/{id}", h.ClientDetail)
			r.Get("/{id}/edit", h.ClientEdit)
			r.Post("/{id}", h.ClientUpdate)
			r.Delete("/{id}", h.ClientDelete)
		})

		r.Route("/pets", func(r chi.Router) {
			r.Get("/", h.PetsPage)
			r.Get("/new", h.PetNew)
			r.Post("/", h.PetCreate)
			r.Get("/{id}", h.PetDetail)
			r.Get("/{id}/edit", h.PetEdit)
			r.Post("/{id}", h.PetUpdate)
			r.Delete("/{id}", h.PetDelete)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Get("/", h.AppointmentsPage)
			r.Get("/new", h.AppointmentNew)
			r.Post("/", h.AppointmentCreate)
			r.Get("/{id}/edit", h.AppointmentEdit)
			r.Post("/{id}", h.AppointmentUpdate)
			r.Post("/{id}/confirm", h.AppointmentConfirm)
			r.Post("/{id}/start", h.AppointmentStart)
			r.Post("/{id}/complete", h.AppointmentComplete)
			r.Post("/{id}/cancel", h.AppointmentCancel)
			r.Post("/{id}/no-show", h.AppointmentNoShow)
			r.Delete("/{id}", h.AppointmentDelete)
		})

		r.Route("/invoices", func(r chi.Router) {
			r.Get("/", h.InvoicesPage)
			r.Get("/new", h.InvoiceNew)
			r.Post("/", h.InvoiceCreate)
			r.Get("/{id}", h.InvoiceDetail)
			r.Post("/{id}/items", h.InvoiceAddItem)
			r.Delete("/{id}/items", h.InvoiceRemoveItem)
			r.Post("/{id}/issue", h.InvoiceIssue)
			r.Post("/{id}/pay", h.InvoicePay)
			r.Post("/{id}/cancel", h.InvoiceCancel)
			r.Delete("/{id}", h.InvoiceDelete)
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.ProductsPage)
				r.Get("/new", h.ProductNew)
				r.Post("/", h.ProductCreate)
				r.Get("/{id}/edit", h.ProductEdit)
				r.Post("/{id}", h.ProductUpdate)
				r.Delete("/{id}", h.ProductDelete)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.CategoriesPage)
				r.Post("/", h.CategoryCreate)
				r.Delete("/{id}", h.CategoryDelete)
			})

			r.Route("/movements", func(r chi.Router) {
				r.Get("/", h.MovementsPage)
				r.Post("/", h.MovementCreate)
			})
		})

		// Staff administration
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(database.RoleAdmin))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.UsersPage)
				r.Get("/new", h.UserNew)
				r.Post("/", h.UserCreate)
				r.Get("/{id}/edit", h.UserEdit)
				r.Post("/{id}", h.UserUpdate)
			})
		})
	})
}

// Start starts the web server
func (s *Server) Start(ctx context.Context) error {
	var addr string
	if s.bind != "" {
		addr = fmt.Sprintf("%s:%d", s.bind, s.port)
	} else {
		addr = fmt.Sprintf(":%d", s.port)
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// formatMoney renders integer cents as a currency amount
func formatMoney(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s$%d.%02d", sign, cents/100, cents%100)
}
