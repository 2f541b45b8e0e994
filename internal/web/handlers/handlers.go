package handlers

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/pawsoft/vetclinic/internal/auth"
	"github.com/pawsoft/vetclinic/internal/billing"
	"github.com/pawsoft/vetclinic/internal/clinic"
	"github.com/pawsoft/vetclinic/internal/config"
	"github.com/pawsoft/vetclinic/internal/database"
	"github.com/pawsoft/vetclinic/internal/inventory"
	"github.com/pawsoft/vetclinic/internal/web/middleware"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db           *database.DB
	templates    map[string]*template.Template
	authService  *auth.AuthService
	clients      *clinic.ClientManager
	pets         *clinic.PetManager
	appointments *clinic.AppointmentManager
	billing      *billing.Manager
	inventory    *inventory.Manager
	settings     *config.Loader
	version      string
	isDev        bool
}

// New creates a new Handlers instance
func New(db *database.DB, templates map[string]*template.Template, authService *auth.AuthService, version string, isDev bool) *Handlers {
	return &Handlers{
		db:           db,
		templates:    templates,
		authService:  authService,
		clients:      clinic.NewClientManager(db),
		pets:         clinic.NewPetManager(db),
		appointments: clinic.NewAppointmentManager(db),
		billing:      billing.NewManager(db),
		inventory:    inventory.NewManager(db),
		settings:     config.NewLoader(db),
		version:      version,
		isDev:        isDev,
	}
}

// PageData contains common data for all pages
type PageData struct {
	Title      string
	ClinicName string
	User       *database.UserRecord
	Flash      string
	FlashErr   string
	Content    any
	Version    string
}

// render renders a template with common data
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	pageData := PageData{
		Title:      h.settings.String(config.KeyClinicName, "VetClinic"),
		ClinicName: h.settings.String(config.KeyClinicName, "VetClinic"),
		User:       middleware.GetUser(r.Context()),
		Content:    data,
		Version:    h.version,
	}

	// Check for flash messages in cookies
	if cookie, err := r.Cookie("flash"); err == nil {
		pageData.Flash = cookie.Value
		clear := &http.Cookie{Name: "flash", MaxAge: -1, Path: "/"}
		h.applyCookieSecurity(clear)
		http.SetCookie(w, clear)
	}
	if cookie, err := r.Cookie("flash_err"); err == nil {
		pageData.FlashErr = cookie.Value
		clear := &http.Cookie{Name: "flash_err", MaxAge: -1, Path: "/"}
		h.applyCookieSecurity(clear)
		http.SetCookie(w, clear)
	}

	tmpl, ok := h.templates[name]
	if !ok {
		log.Error().Str("template", name).Msg("Template not found")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base", pageData); err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render template")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// NotFound renders the 404 page
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	h.render(w, r, "notfound.html", nil)
}

// flash sets a flash message
func (h *Handlers) flash(w http.ResponseWriter, message string) {
	c := &http.Cookie{
		Name:     "flash",
		Value:    message,
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	}
	h.applyCookieSecurity(c)
	http.SetCookie(w, c)
}

// flashErr sets an error flash message
func (h *Handlers) flashErr(w http.ResponseWriter, message string) {
	c := &http.Cookie{
		Name:     "flash_err",
		Value:    message,
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	}
	h.applyCookieSecurity(c)
	http.SetCookie(w, c)
}

// redirect redirects to a URL
func (h *Handlers) redirect(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// jsonError sends a JSON error response
func (h *Handlers) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + message + `"}`))
}

// jsonSuccess sends a JSON success response
func (h *Handlers) jsonSuccess(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"success":true,"message":"` + message + `"}`))
}

// applyCookieSecurity sets Secure/SameSite defaults based on environment.
func (h *Handlers) applyCookieSecurity(c *http.Cookie) {
	if h.isDev {
		if c.SameSite == 0 {
			c.SameSite = http.SameSiteLaxMode
		}
		return
	}
	c.Secure = true
	if c.SameSite == 0 {
		c.SameSite = http.SameSiteStrictMode
	}
}

// urlID parses the {id} route parameter.
func urlID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// handleManagerError turns a manager error into a flash message and redirect.
// Validation, not-found and conflict errors are user mistakes; anything else
// is logged as a server error.
func (h *Handlers) handleManagerError(w http.ResponseWriter, r *http.Request, err error, backURL string) {
	var ve *clinic.ValidationError
	switch {
	case errors.As(err, &ve):
		h.flashErr(w, ve.Message)
	case errors.Is(err, clinic.ErrNotFound):
		h.flashErr(w, "Record not found")
	case errors.Is(err, clinic.ErrConflict):
		h.flashErr(w, "Record is still referenced by other records and cannot be deleted")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		h.flashErr(w, "An unexpected error occurred")
	}
	h.redirect(w, r, backURL)
}

// jsonManagerError is handleManagerError for XHR endpoints.
func (h *Handlers) jsonManagerError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *clinic.ValidationError
	switch {
	case errors.As(err, &ve):
		h.jsonError(w, ve.Message, http.StatusBadRequest)
	case errors.Is(err, clinic.ErrNotFound):
		h.jsonError(w, "Record not found", http.StatusNotFound)
	case errors.Is(err, clinic.ErrConflict):
		h.jsonError(w, "Record is still referenced by other records", http.StatusConflict)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		h.jsonError(w, "An unexpected error occurred", http.StatusInternalServerError)
	}
}
