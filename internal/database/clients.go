package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Client represents a pet owner registered with the clinic.
type Client struct {
	ID                   int64
	FirstName            string
	LastName             string
	Email                string
	Phone                string
	Address              string
	IdentificationNumber string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// FullName returns the client's display name.
func (c *Client) FullName() string {
	return c.FirstName + " " + c.LastName
}

// DisplayContact returns the preferred contact value (email, then phone).
func (c *Client) DisplayContact() string {
	if c.Email != "" {
		return c.Email
	}
	if c.Phone != "" {
		return c.Phone
	}
	return "No contact"
}

const clientColumns = `id, first_name, last_name, email, phone, address, identification_number, created_at, updated_at`

func scanClient(row interface{ Scan(...any) error }) (*Client, error) {
	c := &Client{}
	var email, phone, address, identification sql.NullString
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &email, &phone, &address, &identification, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Email = nullStringValue(email)
	c.Phone = nullStringValue(phone)
	c.Address = nullStringValue(address)
	c.IdentificationNumber = nullStringValue(identification)
	return c, nil
}

// CreateClient inserts a new client record and sets its ID.
func (db *DB) CreateClient(c *Client) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	result, err := db.Exec(`
		INSERT INTO clients (first_name, last_name, email, phone, address, identification_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, c.FirstName, c.LastName, emptyToNullString(c.Email), emptyToNullString(c.Phone),
		emptyToNullString(c.Address), emptyToNullString(c.IdentificationNumber), now, now)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get client id: %w", err)
	}
	c.ID = id
	return nil
}

// GetClient retrieves a client by ID. Returns nil when not found.
func (db *DB) GetClient(id int64) (*Client, error) {
	c, err := scanClient(db.QueryRow(`SELECT `+clientColumns+` FROM clients WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return c, nil
}

// GetClientByEmail retrieves a client by email. Returns nil when not found.
func (db *DB) GetClientByEmail(email string) (*Client, error) {
	c, err := scanClient(db.QueryRow(`SELECT `+clientColumns+` FROM clients WHERE email = ?`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client by email: %w", err)
	}
	return c, nil
}

// GetClientByIdentification retrieves a client by identification number. Returns nil when not found.
func (db *DB) GetClientByIdentification(number string) (*Client, error) {
	c, err := scanClient(db.QueryRow(`SELECT `+clientColumns+` FROM clients WHERE identification_number = ?`, number))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client by identification: %w", err)
	}
	return c, nil
}

// ListClients retrieves all clients ordered by ID.
func (db *DB) ListClients() ([]*Client, error) {
	rows, err := db.Query(`SELECT ` + clientColumns + ` FROM clients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// SearchClients retrieves clients whose name, email or identification matches the query.
func (db *DB) SearchClients(query string) ([]*Client, error) {
	like := "%" + query + "%"
	rows, err := db.Query(`
		SELECT `+clientColumns+` FROM clients
		WHERE first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR identification_number LIKE ?
		ORDER BY last_name, first_name
	`, like, like, like, like)
	if err != nil {
		return nil, fmt.Errorf("failed to search clients: %w", err)
	}
	defer rows.Close()

	var clients []*Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// UpdateClient persists changes to an existing client record.
func (db *DB) UpdateClient(c *Client) error {
	c.UpdatedAt = time.Now()
	_, err := db.Exec(`
		UPDATE clients
		SET first_name = ?, last_name = ?, email = ?, phone = ?, address = ?, identification_number = ?, updated_at = ?
		WHERE id = ?
	`, c.FirstName, c.LastName, emptyToNullString(c.Email), emptyToNullString(c.Phone),
		emptyToNullString(c.Address), emptyToNullString(c.IdentificationNumber), c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}
	return nil
}

// DeleteClient removes a client record.
func (db *DB) DeleteClient(id int64) error {
	_, err := db.Exec("DELETE FROM clients WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}

// CountPetsForClient returns the number of pets owned by a client.
func (db *DB) CountPetsForClient(clientID int64) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM pets WHERE client_id = ?", clientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pets for client: %w", err)
	}
	return count, nil
}

// CountClients returns the total number of clients.
func (db *DB) CountClients() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM clients").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count clients: %w", err)
	}
	return count, nil
}
