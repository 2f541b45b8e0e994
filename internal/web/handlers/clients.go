package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pawsoft/vetclinic/internal/clinic"
	"github.com/pawsoft/vetclinic/internal/database"
)

// ClientsPage lists all clients, optionally filtered by a search query
func (h *Handlers) ClientsPage(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	var (
		clients []*database.Client
		err     error
	)
	if query != "" {
		clients, err = h.clients.Search(query)
	} else {
		clients, err = h.clients.List()
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to list clients")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "clients.html", map[string]any{
		"Clients": clients,
		"Query":   query,
	})
}

// ClientNew renders the empty client form
func (h *Handlers) ClientNew(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "client_form.html", map[string]any{"Client": nil})
}

// ClientCreate handles the new client form submission
func (h *Handlers) ClientCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashErr(w, "Invalid form submission")
		h.redirect(w, r, "/clients/new")
		return
	}

	client, err := h.clients.Create(clientInput(r))
	if err != nil {
		h.handleManagerError(w, r, err, "/clients/new")
		return
	}

	h.flash(w, "Client "+client.FullName()+" created")
	h.redirect(w, r, "/clients")
}

// ClientDetail shows one client with their pets
func (h *Handlers) ClientDetail(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	client, err := h.clients.Get(id)
	if err != nil {
		h.handleManagerError(w, r, err, "/clients")
		return
	}

	pets, err := h.pets.ListByClient(id)
	if err != nil {
		log.Error().Err(err).Int64("client_id", id).Msg("Failed to list pets")
	}

	h.render(w, r, "client_detail.html", map[string]any{
		"Client": client,
		"Pets":   pets,
	})
}

// ClientEdit renders the client form with existing values
func (h *Handlers) ClientEdit(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	client, err := h.clients.Get(id)
	if err != nil {
		h.handleManagerError(w, r, err, "/clients")
		return
	}

	h.render(w, r, "client_form.html", map[string]any{"Client": client})
}

// ClientUpdate handles the edit form submission
func (h *Handlers) ClientUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.flashErr(w, "Invalid form submission")
		h.redirect(w, r, "/clients")
		return
	}

	if _, err := h.clients.Update(id, clientInput(r)); err != nil {
		h.handleManagerError(w, r, err, "/clients")
		return
	}

	h.flash(w, "Client updated")
	h.redirect(w, r, "/clients")
}

// ClientDelete removes a client (XHR)
func (h *Handlers) ClientDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.jsonError(w, "Invalid client id", http.StatusBadRequest)
		return
	}

	if err := h.clients.Delete(id); err != nil {
		h.jsonManagerError(w, r, err)
		return
	}
	h.jsonSuccess(w, "Client deleted")
}

func clientInput(r *http.Request) clinic.ClientInput {
	return clinic.ClientInput{
		FirstName:            formString(r, "first_name"),
		LastName:             formString(r, "last_name"),
		Email:                formString(r, "email"),
		Phone:                formString(r, "phone"),
		Address:              formString(r, "address"),
		IdentificationNumber: formString(r, "identification_number"),
	}
}
