package database

import (
	"database/sql"
	"fmt"
	"time"
)

// PetSpecies identifies the species of a pet.
type PetSpecies string

const (
	PetSpeciesDog     PetSpecies = "dog"
	PetSpeciesCat     PetSpecies = "cat"
	PetSpeciesBird    PetSpecies = "bird"
	PetSpeciesRabbit  PetSpecies = "rabbit"
	PetSpeciesHamster PetSpecies = "hamster"
	PetSpeciesOther   PetSpecies = "other"
)

// PetGender identifies the gender of a pet.
type PetGender string

const (
	PetGenderMale    PetGender = "male"
	PetGenderFemale  PetGender = "female"
	PetGenderUnknown PetGender = "unknown"
)

// Pet represents an animal registered to a client.
type Pet struct {
	ID              int64
	Name            string
	Species         PetSpecies
	Breed           string
	BirthDate       *time.Time
	Gender          PetGender
	Color           string
	WeightKg        *float64
	MicrochipNumber string
	ClientID        int64
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AgeYears returns the pet's age in whole years, or -1 when the birth date is unknown.
func (p *Pet) AgeYears() int {
	if p.BirthDate == nil {
		return -1
	}
	now := time.Now()
	years := now.Year() - p.BirthDate.Year()
	if now.Month() < p.BirthDate.Month() ||
		(now.Month() == p.BirthDate.Month() && now.Day() < p.BirthDate.Day()) {
		years--
	}
	return years
}

const petColumns = `id, name, species, breed, birth_date, gender, color, weight_kg, microchip_number, client_id, is_active, created_at, updated_at`

func scanPet(row interface{ Scan(...any) error }) (*Pet, error) {
	p := &Pet{}
	var breed, color, microchip sql.NullString
	var birthDate sql.NullTime
	var weight sql.NullFloat64
	err := row.Scan(&p.ID, &p.Name, &p.Species, &breed, &birthDate, &p.Gender, &color,
		&weight, &microchip, &p.ClientID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Breed = nullStringValue(breed)
	p.BirthDate = nullTimeToPtr(birthDate)
	p.Color = nullStringValue(color)
	p.WeightKg = nullFloatToPtr(weight)
	p.MicrochipNumber = nullStringValue(microchip)
	return p, nil
}

// CreatePet inserts a new pet record and sets its ID.
func (db *DB) CreatePet(p *Pet) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	result, err := db.Exec(`
		INSERT INTO pets (name, species, breed, birth_date, gender, color, weight_kg, microchip_number, client_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Name, p.Species, emptyToNullString(p.Breed), ptrToNullTime(p.BirthDate), p.Gender,
		emptyToNullString(p.Color), ptrToNullFloat(p.WeightKg), emptyToNullString(p.MicrochipNumber),
		p.ClientID, p.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create pet: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get pet id: %w", err)
	}
	p.ID = id
	return nil
}

// GetPet retrieves a pet by ID. Returns nil when not found.
func (db *DB) GetPet(id int64) (*Pet, error) {
	p, err := scanPet(db.QueryRow(`SELECT `+petColumns+` FROM pets WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", err)
	}
	return p, nil
}

// GetPetByMicrochip retrieves a pet by microchip number. Returns nil when not found.
func (db *DB) GetPetByMicrochip(number string) (*Pet, error) {
	p, err := scanPet(db.QueryRow(`SELECT `+petColumns+` FROM pets WHERE microchip_number = ?`, number))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pet by microchip: %w", err)
	}
	return p, nil
}

// ListPets retrieves all pets ordered by ID.
func (db *DB) ListPets() ([]*Pet, error) {
	return db.queryPets(`SELECT ` + petColumns + ` FROM pets ORDER BY id`)
}

// ListPetsByClient retrieves the pets owned by a client.
func (db *DB) ListPetsByClient(clientID int64) ([]*Pet, error) {
	return db.queryPets(`SELECT `+petColumns+` FROM pets WHERE client_id = ? ORDER BY id`, clientID)
}

// ListActivePets retrieves pets that have not been deactivated.
func (db *DB) ListActivePets() ([]*Pet, error) {
	return db.queryPets(`SELECT ` + petColumns + ` FROM pets WHERE is_active = 1 ORDER BY id`)
}

func (db *DB) queryPets(query string, args ...any) ([]*Pet, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pets: %w", err)
	}
	defer rows.Close()

	var pets []*Pet
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pet: %w", err)
		}
		pets = append(pets, p)
	}
	return pets, rows.Err()
}

// UpdatePet persists changes to an existing pet record.
func (db *DB) UpdatePet(p *Pet) error {
	p.UpdatedAt = time.Now()
	_, err := db.Exec(`
		UPDATE pets
		SET name = ?, species = ?, breed = ?, birth_date = ?, gender = ?, color = ?,
		    weight_kg = ?, microchip_number = ?, client_id = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Species, emptyToNullString(p.Breed), ptrToNullTime(p.BirthDate), p.Gender,
		emptyToNullString(p.Color), ptrToNullFloat(p.WeightKg), emptyToNullString(p.MicrochipNumber),
		p.ClientID, p.IsActive, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update pet: %w", err)
	}
	return nil
}

// DeletePet removes a pet record.
func (db *DB) DeletePet(id int64) error {
	_, err := db.Exec("DELETE FROM pets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete pet: %w", err)
	}
	return nil
}

// CountAppointmentsForPet returns the number of appointments referencing a pet.
func (db *DB) CountAppointmentsForPet(petID int64) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM appointments WHERE pet_id = ?", petID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments for pet: %w", err)
	}
	return count, nil
}

// CountPets returns the total number of pets.
func (db *DB) CountPets() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM pets").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pets: %w", err)
	}
	return count, nil
}
