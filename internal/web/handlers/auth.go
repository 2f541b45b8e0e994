package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pawsoft/vetclinic/internal/auth"
	"github.com/pawsoft/vetclinic/internal/database"
	"github.com/pawsoft/vetclinic/internal/web/middleware"
)

// LoginPage renders the login page
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	// Check if already logged in
	if cookie, err := r.Cookie("session"); err == nil {
		if session, err := h.authService.GetSession(cookie.Value); err == nil && session != nil {
			h.redirect(w, r, "/")
			return
		}
	}

	firstRun, err := h.db.IsFirstRun()
	if err != nil {
		log.Error().Err(err).Msg("Failed to check first run")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if firstRun {
		h.redirect(w, r, "/setup")
		return
	}

	h.render(w, r, "login.html", nil)
}

// LoginSubmit handles login form submission
func (h *Handlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")

	if username == "" || password == "" {
		h.flashErr(w, "Username and password are required")
		h.redirect(w, r, "/login")
		return
	}

	user, err := h.authService.Authenticate(username, password)
	if err != nil {
		log.Error().Err(err).Msg("Authentication error")
		h.flashErr(w, "An error occurred during login")
		h.redirect(w, r, "/login")
		return
	}
	if user == nil {
		h.flashErr(w, "Invalid username or password")
		h.redirect(w, r, "/login")
		return
	}

	session, err := h.authService.CreateSession(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		h.flashErr(w, "An error occurred during login")
		h.redirect(w, r, "/login")
		return
	}

	cookie := &http.Cookie{
		Name:     "session",
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
	}
	h.applyCookieSecurity(cookie)
	http.SetCookie(w, cookie)

	log.Info().Str("username", user.Username).Msg("User logged in")
	h.redirect(w, r, "/")
}

// Logout handles user logout
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie("session"); err == nil {
		if err := h.authService.DeleteSession(cookie.Value); err != nil {
			log.Debug().Err(err).Msg("Failed to delete session during logout")
		}
	}

	cookie := &http.Cookie{
		Name:     "session",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	}
	h.applyCookieSecurity(cookie)
	http.SetCookie(w, cookie)

	h.redirect(w, r, "/login")
}

// SetupPage renders the first-run setup form
func (h *Handlers) SetupPage(w http.ResponseWriter, r *http.Request) {
	firstRun, err := h.db.IsFirstRun()
	if err != nil {
		log.Error().Err(err).Msg("Failed to check first run")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !firstRun {
		h.redirect(w, r, "/")
		return
	}

	h.render(w, r, "setup.html", nil)
}

// SetupSubmit creates the first admin account
func (h *Handlers) SetupSubmit(w http.ResponseWriter, r *http.Request) {
	firstRun, err := h.db.IsFirstRun()
	if err != nil {
		log.Error().Err(err).Msg("Failed to check first run")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !firstRun {
		h.redirect(w, r, "/")
		return
	}

	password := r.FormValue("password")
	if password != r.FormValue("confirm_password") {
		h.flashErr(w, "Passwords do not match")
		h.redirect(w, r, "/setup")
		return
	}

	user, err := h.authService.CreateUser(auth.UserInput{
		Username:  r.FormValue("username"),
		Email:     r.FormValue("email"),
		Password:  password,
		Role:      database.RoleAdmin,
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
	})
	if err != nil {
		h.handleManagerError(w, r, err, "/setup")
		return
	}

	if clinicName := r.FormValue("clinic_name"); clinicName != "" {
		if err := h.db.SetSetting("clinic.name", clinicName); err != nil {
			log.Error().Err(err).Msg("Failed to save clinic name")
		}
	}

	session, err := h.authService.CreateSession(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create session")
		h.redirect(w, r, "/login")
		return
	}

	cookie := &http.Cookie{
		Name:     "session",
		Value:    session.ID,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
	}
	h.applyCookieSecurity(cookie)
	http.SetCookie(w, cookie)

	log.Info().Str("username", user.Username).Msg("Setup completed, admin created")
	h.flash(w, "Welcome! Setup complete.")
	h.redirect(w, r, "/")
}

// ProfilePage renders the current user's profile
func (h *Handlers) ProfilePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "profile.html", middleware.GetUser(r.Context()))
}

// ProfileUpdateUsername handles username change from the profile page
func (h *Handlers) ProfileUpdateUsername(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		h.redirect(w, r, "/login")
		return
	}

	if err := h.authService.UpdateUsername(user.ID, r.FormValue("username")); err != nil {
		h.handleManagerError(w, r, err, "/profile")
		return
	}

	h.flash(w, "Username updated")
	h.redirect(w, r, "/profile")
}

// ProfileUpdatePassword handles password change from the profile page
func (h *Handlers) ProfileUpdatePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		h.redirect(w, r, "/login")
		return
	}

	currentPassword := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")
	confirmPassword := r.FormValue("confirm_password")

	if !auth.CheckPassword(currentPassword, user.PasswordHash) {
		h.flashErr(w, "Current password is incorrect")
		h.redirect(w, r, "/profile")
		return
	}
	if newPassword != confirmPassword {
		h.flashErr(w, "New passwords do not match")
		h.redirect(w, r, "/profile")
		return
	}

	if err := h.authService.UpdatePassword(user.ID, newPassword); err != nil {
		h.handleManagerError(w, r, err, "/profile")
		return
	}

	log.Info().Str("username", user.Username).Msg("Password updated")
	h.flash(w, "Password updated")
	h.redirect(w, r, "/profile")
}
