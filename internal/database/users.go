package database

import (
	"database/sql"
	"fmt"
	"time"
)

// UserRole determines what a staff account is allowed to do.
type UserRole string

const (
	RoleAdmin        UserRole = "admin"
	RoleVeterinarian UserRole = "veterinarian"
	RoleReceptionist UserRole = "receptionist"
	RoleAssistant    UserRole = "assistant"
)

// UserRecord represents a staff account stored in the database.
type UserRecord struct {
	ID                  int64
	Username            string
	Email               string
	PasswordHash        string
	Role                UserRole
	FirstName           string
	LastName            string
	IsActive            bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLogin           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// FullName returns the user's display name.
func (u *UserRecord) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsLocked reports whether the account is currently locked out.
func (u *UserRecord) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// SessionRecord represents a user session stored in the database.
type SessionRecord struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

const userColumns = `id, username, email, password_hash, role, first_name, last_name, is_active, failed_login_attempts, locked_until, last_login, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*UserRecord, error) {
	u := &UserRecord{}
	var lockedUntil, lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&u.FirstName, &u.LastName, &u.IsActive, &u.FailedLoginAttempts,
		&lockedUntil, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.LockedUntil = nullTimeToPtr(lockedUntil)
	u.LastLogin = nullTimeToPtr(lastLogin)
	return u, nil
}

// CreateUser inserts a new user record and sets its ID.
func (db *DB) CreateUser(u *UserRecord) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	result, err := db.Exec(`
		INSERT INTO users (username, email, password_hash, role, first_name, last_name, is_active, failed_login_attempts, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`, u.Username, u.Email, u.PasswordHash, u.Role, u.FirstName, u.LastName, u.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	u.ID = id
	return nil
}

// GetUserByUsername retrieves a user by username. Returns nil when not found.
func (db *DB) GetUserByUsername(username string) (*UserRecord, error) {
	u, err := scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetUserByID retrieves a user by ID. Returns nil when not found.
func (db *DB) GetUserByID(id int64) (*UserRecord, error) {
	u, err := scanUser(db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// ListUsers retrieves all user accounts ordered by username.
func (db *DB) ListUsers() ([]*UserRecord, error) {
	return db.queryUsers(`SELECT ` + userColumns + ` FROM users ORDER BY username`)
}

// ListUsersByRole retrieves active users with the given role.
func (db *DB) ListUsersByRole(role UserRole) ([]*UserRecord, error) {
	return db.queryUsers(`SELECT `+userColumns+` FROM users WHERE role = ? AND is_active = 1 ORDER BY username`, role)
}

func (db *DB) queryUsers(query string, args ...any) ([]*UserRecord, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*UserRecord
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser persists changes to an existing user record.
func (db *DB) UpdateUser(u *UserRecord) error {
	u.UpdatedAt = time.Now()
	_, err := db.Exec(`
		UPDATE users
		SET username = ?, email = ?, role = ?, first_name = ?, last_name = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, u.Username, u.Email, u.Role, u.FirstName, u.LastName, u.IsActive, u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// UpdateUserPassword updates the user's password hash.
func (db *DB) UpdateUserPassword(userID int64, passwordHash string) error {
	_, err := db.Exec(`
		UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?
	`, passwordHash, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// RecordFailedLogin increments the failed login counter and optionally locks the account.
func (db *DB) RecordFailedLogin(userID int64, lockedUntil *time.Time) error {
	_, err := db.Exec(`
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1, locked_until = ?, updated_at = ?
		WHERE id = ?
	`, ptrToNullTime(lockedUntil), time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to record failed login: %w", err)
	}
	return nil
}

// RecordSuccessfulLogin clears lockout state and stamps last_login.
func (db *DB) RecordSuccessfulLogin(userID int64) error {
	now := time.Now()
	_, err := db.Exec(`
		UPDATE users
		SET failed_login_attempts = 0, locked_until = NULL, last_login = ?, updated_at = ?
		WHERE id = ?
	`, now, now, userID)
	if err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// CountUsers returns the total number of user accounts.
func (db *DB) CountUsers() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// CreateSession inserts a new session record.
func (db *DB) CreateSession(id string, userID int64, expiresAt time.Time) (*SessionRecord, error) {
	now := time.Now()
	_, err := db.Exec(`
		INSERT INTO sessions (id, user_id, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`, id, userID, expiresAt, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SessionRecord{
		ID:        id,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// GetSession retrieves a session by ID. Returns nil when not found.
func (db *DB) GetSession(id string) (*SessionRecord, error) {
	session := &SessionRecord{}
	err := db.QueryRow(`
		SELECT id, user_id, expires_at, created_at
		FROM sessions WHERE id = ?
	`, id).Scan(&session.ID, &session.UserID, &session.ExpiresAt, &session.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// DeleteSession removes a session by ID.
func (db *DB) DeleteSession(id string) error {
	_, err := db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ExtendSession updates a session's expiration time.
func (db *DB) ExtendSession(id string, expiresAt time.Time) error {
	_, err := db.Exec("UPDATE sessions SET expires_at = ? WHERE id = ?", expiresAt, id)
	if err != nil {
		return fmt.Errorf("failed to extend session: %w", err)
	}
	return nil
}
