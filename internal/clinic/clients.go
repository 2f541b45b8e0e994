package clinic

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pawsoft/vetclinic/internal/database"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ClientManager owns CRUD operations and invariants for clients (pet owners).
// A client cannot be deleted while any pet still references it.
type ClientManager struct {
	db *database.DB
}

// NewClientManager creates a client manager bound to the given database.
func NewClientManager(db *database.DB) *ClientManager {
	return &ClientManager{db: db}
}

// ClientInput carries client fields for create and update operations.
// On update, nil pointers leave the stored value unchanged.
type ClientInput struct {
	FirstName            *string
	LastName             *string
	Email                *string
	Phone                *string
	Address              *string
	IdentificationNumber *string
}

// Create registers a new client. First and last name are required.
func (m *ClientManager) Create(in ClientInput) (*database.Client, error) {
	firstName := strings.TrimSpace(deref(in.FirstName))
	lastName := strings.TrimSpace(deref(in.LastName))

	if firstName == "" {
		return nil, invalidf("first_name", "first name is required")
	}
	if lastName == "" {
		return nil, invalidf("last_name", "last name is required")
	}
	if len(firstName) < 2 || len(lastName) < 2 {
		return nil, invalidf("name", "names must be at least 2 characters long")
	}

	c := &database.Client{
		FirstName:            firstName,
		LastName:             lastName,
		Email:                strings.TrimSpace(deref(in.Email)),
		Phone:                strings.TrimSpace(deref(in.Phone)),
		Address:              strings.TrimSpace(deref(in.Address)),
		IdentificationNumber: strings.TrimSpace(deref(in.IdentificationNumber)),
	}

	if err := m.validateContact(c, 0); err != nil {
		return nil, err
	}

	if err := m.db.CreateClient(c); err != nil {
		return nil, err
	}

	log.Info().Int64("client_id", c.ID).Str("name", c.FullName()).Msg("Client created")
	return c, nil
}

// List returns all clients ordered by identifier.
func (m *ClientManager) List() ([]*database.Client, error) {
	return m.db.ListClients()
}

// Search returns clients matching the query by name, email or identification.
// Queries shorter than 2 characters return no results.
func (m *ClientManager) Search(query string) ([]*database.Client, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, nil
	}
	return m.db.SearchClients(query)
}

// Get returns one client or ErrNotFound.
func (m *ClientManager) Get(id int64) (*database.Client, error) {
	c, err := m.db.GetClient(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("client %d: %w", id, ErrNotFound)
	}
	return c, nil
}

// Update applies a partial update to an existing client.
func (m *ClientManager) Update(id int64, in ClientInput) (*database.Client, error) {
	c, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		v := strings.TrimSpace(*in.FirstName)
		if len(v) < 2 {
			return nil, invalidf("first_name", "first name must be at least 2 characters long")
		}
		c.FirstName = v
	}
	if in.LastName != nil {
		v := strings.TrimSpace(*in.LastName)
		if len(v) < 2 {
			return nil, invalidf("last_name", "last name must be at least 2 characters long")
		}
		c.LastName = v
	}
	if in.Email != nil {
		c.Email = strings.TrimSpace(*in.Email)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		c.Address = strings.TrimSpace(*in.Address)
	}
	if in.IdentificationNumber != nil {
		c.IdentificationNumber = strings.TrimSpace(*in.IdentificationNumber)
	}

	if err := m.validateContact(c, c.ID); err != nil {
		return nil, err
	}

	if err := m.db.UpdateClient(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a client. Fails with ErrConflict while pets reference it.
func (m *ClientManager) Delete(id int64) error {
	if _, err := m.Get(id); err != nil {
		return err
	}

	pets, err := m.db.CountPetsForClient(id)
	if err != nil {
		return err
	}
	if pets > 0 {
		return fmt.Errorf("client %d has %d pets: %w", id, pets, ErrConflict)
	}

	if err := m.db.DeleteClient(id); err != nil {
		return err
	}

	log.Info().Int64("client_id", id).Msg("Client deleted")
	return nil
}

// validateContact enforces contact formats and uniqueness. selfID excludes the
// client's own record from uniqueness checks on update.
func (m *ClientManager) validateContact(c *database.Client, selfID int64) error {
	if c.Email != "" {
		if !emailPattern.MatchString(c.Email) {
			return invalidf("email", "invalid email format: %s", c.Email)
		}
		existing, err := m.db.GetClientByEmail(c.Email)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != selfID {
			return invalidf("email", "a client with this email already exists")
		}
	}

	if c.Phone != "" && len(c.Phone) < 7 {
		return invalidf("phone", "phone number must be at least 7 digits long")
	}

	if c.IdentificationNumber != "" {
		existing, err := m.db.GetClientByIdentification(c.IdentificationNumber)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != selfID {
			return invalidf("identification_number", "a client with this identification number already exists")
		}
	}

	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
