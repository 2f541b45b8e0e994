package clinic

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pawsoft/vetclinic/internal/database"
)

var validSpecies = map[database.PetSpecies]bool{
	database.PetSpeciesDog:     true,
	database.PetSpeciesCat:     true,
	database.PetSpeciesBird:    true,
	database.PetSpeciesRabbit:  true,
	database.PetSpeciesHamster: true,
	database.PetSpeciesOther:   true,
}

var validGenders = map[database.PetGender]bool{
	database.PetGenderMale:    true,
	database.PetGenderFemale:  true,
	database.PetGenderUnknown: true,
}

// PetManager owns CRUD operations and invariants for pets. Every pet belongs
// to an existing client, and a pet cannot be deleted while appointments still
// reference it.
type PetManager struct {
	db *database.DB
}

// NewPetManager creates a pet manager bound to the given database.
func NewPetManager(db *database.DB) *PetManager {
	return &PetManager{db: db}
}

// PetInput carries pet fields for create and update operations.
// On update, nil pointers leave the stored value unchanged.
type PetInput struct {
	Name            *string
	Species         *database.PetSpecies
	Breed           *string
	BirthDate       *time.Time
	Gender          *database.PetGender
	Color           *string
	WeightKg        *float64
	MicrochipNumber *string
	ClientID        *int64
	IsActive        *bool
}

// Create registers a new pet for an existing client.
func (m *PetManager) Create(in PetInput) (*database.Pet, error) {
	name := strings.TrimSpace(deref(in.Name))
	if name == "" {
		return nil, invalidf("name", "pet name is required")
	}

	if in.ClientID == nil || *in.ClientID <= 0 {
		return nil, invalidf("client_id", "owner is required")
	}
	owner, err := m.db.GetClient(*in.ClientID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, fmt.Errorf("client %d: %w", *in.ClientID, ErrNotFound)
	}

	species := database.PetSpeciesOther
	if in.Species != nil {
		species = *in.Species
	}
	gender := database.PetGenderUnknown
	if in.Gender != nil {
		gender = *in.Gender
	}

	p := &database.Pet{
		Name:            name,
		Species:         species,
		Breed:           strings.TrimSpace(deref(in.Breed)),
		BirthDate:       in.BirthDate,
		Gender:          gender,
		Color:           strings.TrimSpace(deref(in.Color)),
		WeightKg:        in.WeightKg,
		MicrochipNumber: strings.TrimSpace(deref(in.MicrochipNumber)),
		ClientID:        *in.ClientID,
		IsActive:        true,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	if err := m.validate(p, 0); err != nil {
		return nil, err
	}

	if err := m.db.CreatePet(p); err != nil {
		return nil, err
	}

	log.Info().Int64("pet_id", p.ID).Str("name", p.Name).Int64("client_id", p.ClientID).Msg("Pet created")
	return p, nil
}

// List returns all pets ordered by identifier.
func (m *PetManager) List() ([]*database.Pet, error) {
	return m.db.ListPets()
}

// ListActive returns pets that have not been deactivated.
func (m *PetManager) ListActive() ([]*database.Pet, error) {
	return m.db.ListActivePets()
}

// ListByClient returns the pets owned by a client, or ErrNotFound for an
// unknown client.
func (m *PetManager) ListByClient(clientID int64) ([]*database.Pet, error) {
	owner, err := m.db.GetClient(clientID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, fmt.Errorf("client %d: %w", clientID, ErrNotFound)
	}
	return m.db.ListPetsByClient(clientID)
}

// Get returns one pet or ErrNotFound.
func (m *PetManager) Get(id int64) (*database.Pet, error) {
	p, err := m.db.GetPet(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("pet %d: %w", id, ErrNotFound)
	}
	return p, nil
}

// Update applies a partial update to an existing pet.
func (m *PetManager) Update(id int64, in PetInput) (*database.Pet, error) {
	p, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if v == "" {
			return nil, invalidf("name", "pet name is required")
		}
		p.Name = v
	}
	if in.Species != nil {
		p.Species = *in.Species
	}
	if in.Breed != nil {
		p.Breed = strings.TrimSpace(*in.Breed)
	}
	if in.BirthDate != nil {
		p.BirthDate = in.BirthDate
	}
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	if in.Color != nil {
		p.Color = strings.TrimSpace(*in.Color)
	}
	if in.WeightKg != nil {
		p.WeightKg = in.WeightKg
	}
	if in.MicrochipNumber != nil {
		p.MicrochipNumber = strings.TrimSpace(*in.MicrochipNumber)
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if in.ClientID != nil && *in.ClientID != p.ClientID {
		owner, err := m.db.GetClient(*in.ClientID)
		if err != nil {
			return nil, err
		}
		if owner == nil {
			return nil, fmt.Errorf("client %d: %w", *in.ClientID, ErrNotFound)
		}
		p.ClientID = *in.ClientID
	}

	if err := m.validate(p, p.ID); err != nil {
		return nil, err
	}

	if err := m.db.UpdatePet(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Deactivate marks a pet inactive without removing its history.
func (m *PetManager) Deactivate(id int64) (*database.Pet, error) {
	inactive := false
	return m.Update(id, PetInput{IsActive: &inactive})
}

// Delete removes a pet. Fails with ErrConflict while appointments reference it.
func (m *PetManager) Delete(id int64) error {
	if _, err := m.Get(id); err != nil {
		return err
	}

	appts, err := m.db.CountAppointmentsForPet(id)
	if err != nil {
		return err
	}
	if appts > 0 {
		return fmt.Errorf("pet %d has %d appointments: %w", id, appts, ErrConflict)
	}

	if err := m.db.DeletePet(id); err != nil {
		return err
	}

	log.Info().Int64("pet_id", id).Msg("Pet deleted")
	return nil
}

func (m *PetManager) validate(p *database.Pet, selfID int64) error {
	if !validSpecies[p.Species] {
		return invalidf("species", "unknown species: %s", p.Species)
	}
	if !validGenders[p.Gender] {
		return invalidf("gender", "unknown gender: %s", p.Gender)
	}
	if p.BirthDate != nil && p.BirthDate.After(time.Now()) {
		return invalidf("birth_date", "birth date cannot be in the future")
	}
	if p.WeightKg != nil && (*p.WeightKg <= 0 || *p.WeightKg > 1000) {
		return invalidf("weight_kg", "weight must be between 0 and 1000 kg")
	}
	if p.MicrochipNumber != "" {
		existing, err := m.db.GetPetByMicrochip(p.MicrochipNumber)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != selfID {
			return invalidf("microchip_number", "a pet with this microchip number already exists")
		}
	}
	return nil
}
