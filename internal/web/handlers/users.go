package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pawsoft/vetclinic/internal/auth"
	"github.com/pawsoft/vetclinic/internal/database"
	"github.com/pawsoft/vetclinic/internal/web/middleware"
)

var staffRoles = []database.UserRole{
	database.RoleAdmin,
	database.RoleVeterinarian,
	database.RoleReceptionist,
	database.RoleAssistant,
}

// UsersPage lists staff accounts
func (h *Handlers) UsersPage(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "users.html", map[string]any{"Users": users})
}

// UserNew renders the empty account form
func (h *Handlers) UserNew(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "user_form.html", map[string]any{"Roles": staffRoles})
}

// UserCreate creates a staff account
func (h *Handlers) UserCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashErr(w, "Invalid form submission")
		h.redirect(w, r, "/users/new")
		return
	}

	user, err := h.authService.CreateUser(auth.UserInput{
		Username:  r.FormValue("username"),
		Email:     r.FormValue("email"),
		Password:  r.FormValue("password"),
		Role:      database.UserRole(r.FormValue("role")),
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
	})
	if err != nil {
		h.handleManagerError(w, r, err, "/users/new")
		return
	}

	h.flash(w, "Account "+user.Username+" created")
	h.redirect(w, r, "/users")
}

// UserEdit renders the account form pre-filled
func (h *Handlers) UserEdit(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	user, err := h.authService.GetUserByID(id)
	if err != nil {
		log.Error().Err(err).Int64("user_id", id).Msg("Failed to load user")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		h.NotFound(w, r)
		return
	}

	h.render(w, r, "user_form.html", map[string]any{
		"Account": user,
		"Roles":   staffRoles,
	})
}

// UserUpdate applies profile, role, and active changes to an account. A
// non-empty password field also resets the password.
func (h *Handlers) UserUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.flashErr(w, "Invalid form submission")
		h.redirect(w, r, "/users")
		return
	}

	user, err := h.authService.GetUserByID(id)
	if err != nil {
		log.Error().Err(err).Int64("user_id", id).Msg("Failed to load user")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		h.NotFound(w, r)
		return
	}

	user.Email = r.FormValue("email")
	user.FirstName = r.FormValue("first_name")
	user.LastName = r.FormValue("last_name")
	user.Role = database.UserRole(r.FormValue("role"))
	user.IsActive = r.FormValue("is_active") == "on"

	// Admins cannot lock themselves out by deactivating their own account.
	if current := middleware.GetUser(r.Context()); current != nil && current.ID == user.ID {
		user.IsActive = true
		user.Role = database.RoleAdmin
	}

	if err := h.authService.UpdateUser(user); err != nil {
		h.handleManagerError(w, r, err, "/users/"+formatID(id)+"/edit")
		return
	}

	if password := r.FormValue("password"); password != "" {
		if err := h.authService.UpdatePassword(id, password); err != nil {
			h.handleManagerError(w, r, err, "/users/"+formatID(id)+"/edit")
			return
		}
	}

	h.flash(w, "Account updated")
	h.redirect(w, r, "/users")
}
