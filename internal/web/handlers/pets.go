package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pawsoft/vetclinic/internal/clinic"
	"github.com/pawsoft/vetclinic/internal/database"
)

// PetsPage lists all pets
func (h *Handlers) PetsPage(w http.ResponseWriter, r *http.Request) {
	pets, err := h.pets.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list pets")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Owner names for the listing.
	owners := make(map[int64]*database.Client)
	for _, p := range pets {
		if _, ok := owners[p.ClientID]; ok {
			continue
		}
		client, err := h.db.GetClient(p.ClientID)
		if err != nil {
			log.Error().Err(err).Int64("client_id", p.ClientID).Msg("Failed to load owner")
			continue
		}
		owners[p.ClientID] = client
	}

	h.render(w, r, "pets.html", map[string]any{
		"Pets":   pets,
		"Owners": owners,
	})
}

// PetNew renders the empty pet form
func (h *Handlers) PetNew(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list clients")
	}
	h.render(w, r, "pet_form.html", map[string]any{
		"Pet":     nil,
		"Clients": clients,
	})
}

// PetCreate handles the new pet form submission
func (h *Handlers) PetCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashErr(w, "Invalid form submission")
		h.redirect(w, r, "/pets/new")
		return
	}

	pet, err := h.pets.Create(petInput(r))
	if err != nil {
		h.handleManagerError(w, r, err, "/pets/new")
		return
	}

	h.flash(w, "Pet "+pet.Name+" registered")
	h.redirect(w, r, "/pets")
}

// PetDetail shows one pet with its appointment history
func (h *Handlers) PetDetail(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	pet, err := h.pets.Get(id)
	if err != nil {
		h.handleManagerError(w, r, err, "/pets")
		return
	}

	owner, err := h.db.GetClient(pet.ClientID)
	if err != nil {
		log.Error().Err(err).Int64("client_id", pet.ClientID).Msg("Failed to load owner")
	}

	history, err := h.appointments.ListForPet(id)
	if err != nil {
		log.Error().Err(err).Int64("pet_id", id).Msg("Failed to load appointment history")
	}

	h.render(w, r, "pet_detail.html", map[string]any{
		"Pet":          pet,
		"Owner":        owner,
		"Appointments": history,
	})
}

// PetEdit renders the pet form with existing values
func (h *Handlers) PetEdit(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	pet, err := h.pets.Get(id)
	if err != nil {
		h.handleManagerError(w, r, err, "/pets")
		return
	}

	clients, err := h.clients.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list clients")
	}

	h.render(w, r, "pet_form.html", map[string]any{
		"Pet":     pet,
		"Clients": clients,
	})
}

// PetUpdate handles the edit form submission
func (h *Handlers) PetUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.flashErr(w, "Invalid form submission")
		h.redirect(w, r, "/pets")
		return
	}

	in := petInput(r)
	active := r.FormValue("is_active") == "on"
	in.IsActive = &active

	if _, err := h.pets.Update(id, in); err != nil {
		h.handleManagerError(w, r, err, "/pets")
		return
	}

	h.flash(w, "Pet updated")
	h.redirect(w, r, "/pets")
}

// PetDelete removes a pet (XHR)
func (h *Handlers) PetDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.jsonError(w, "Invalid pet id", http.StatusBadRequest)
		return
	}

	if err := h.pets.Delete(id); err != nil {
		h.jsonManagerError(w, r, err)
		return
	}
	h.jsonSuccess(w, "Pet deleted")
}

func petInput(r *http.Request) clinic.PetInput {
	in := clinic.PetInput{
		Name:            formString(r, "name"),
		Breed:           formString(r, "breed"),
		BirthDate:       formDate(r, "birth_date"),
		Color:           formString(r, "color"),
		WeightKg:        formFloat(r, "weight_kg"),
		MicrochipNumber: formString(r, "microchip_number"),
		ClientID:        formInt64(r, "client_id"),
	}
	if v := r.FormValue("species"); v != "" {
		species := database.PetSpecies(v)
		in.Species = &species
	}
	if v := r.FormValue("gender"); v != "" {
		gender := database.PetGender(v)
		in.Gender = &gender
	}
	return in
}
