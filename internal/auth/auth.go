package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/pawsoft/vetclinic/internal/clinic"
	"github.com/pawsoft/vetclinic/internal/database"
)

const (
	// SessionDuration is how long sessions last
	SessionDuration = 7 * 24 * time.Hour
	// BcryptCost is the bcrypt cost factor
	BcryptCost = 12
	// MaxFailedLogins is the number of consecutive failures before lockout
	MaxFailedLogins = 5
	// LockoutDuration is how long an account stays locked after too many failures
	LockoutDuration = 15 * time.Minute
	// MinPasswordLength is the minimum accepted password length
	MinPasswordLength = 8
)

var validRoles = map[database.UserRole]bool{
	database.RoleAdmin:        true,
	database.RoleVeterinarian: true,
	database.RoleReceptionist: true,
	database.RoleAssistant:    true,
}

// AuthService handles staff accounts and web sessions.
type AuthService struct {
	db *database.DB
}

// NewAuthService creates a new auth service.
func NewAuthService(db *database.DB) *AuthService {
	return &AuthService{db: db}
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword verifies a password against a hash.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// UserInput carries the fields needed to create a staff account.
type UserInput struct {
	Username  string
	Email     string
	Password  string
	Role      database.UserRole
	FirstName string
	LastName  string
}

// CreateUser creates a new staff account.
func (s *AuthService) CreateUser(in UserInput) (*database.UserRecord, error) {
	username := strings.TrimSpace(strings.ToLower(in.Username))
	if len(username) < 3 {
		return nil, &clinic.ValidationError{Field: "username", Message: "username must be at least 3 characters long"}
	}
	if len(in.Password) < MinPasswordLength {
		return nil, &clinic.ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters long", MinPasswordLength)}
	}
	if !validRoles[in.Role] {
		return nil, &clinic.ValidationError{Field: "role", Message: fmt.Sprintf("unknown role: %s", in.Role)}
	}

	existing, err := s.db.GetUserByUsername(username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &clinic.ValidationError{Field: "username", Message: "username already taken"}
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &database.UserRecord{
		Username:     username,
		Email:        strings.TrimSpace(in.Email),
		PasswordHash: hash,
		Role:         in.Role,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsActive:     true,
	}
	if err := s.db.CreateUser(u); err != nil {
		return nil, err
	}

	log.Info().Int64("user_id", u.ID).Str("username", u.Username).Str("role", string(u.Role)).Msg("User created")
	return u, nil
}

// GetUserByID retrieves a user by ID. Returns nil when not found.
func (s *AuthService) GetUserByID(id int64) (*database.UserRecord, error) {
	return s.db.GetUserByID(id)
}

// ListUsers returns all staff accounts.
func (s *AuthService) ListUsers() ([]*database.UserRecord, error) {
	return s.db.ListUsers()
}

// ListVeterinarians returns the active accounts holding the veterinarian role.
func (s *AuthService) ListVeterinarians() ([]*database.UserRecord, error) {
	return s.db.ListUsersByRole(database.RoleVeterinarian)
}

// Authenticate verifies credentials. Returns nil without error for bad
// credentials, a locked account, or a deactivated account. Repeated failures
// lock the account.
func (s *AuthService) Authenticate(username, password string) (*database.UserRecord, error) {
	user, err := s.db.GetUserByUsername(strings.TrimSpace(strings.ToLower(username)))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, nil
	}

	now := time.Now()
	if user.IsLocked(now) {
		log.Warn().Str("username", user.Username).Time("locked_until", *user.LockedUntil).Msg("Login attempt on locked account")
		return nil, nil
	}

	if !CheckPassword(password, user.PasswordHash) {
		var lockedUntil *time.Time
		if user.FailedLoginAttempts+1 >= MaxFailedLogins {
			until := now.Add(LockoutDuration)
			lockedUntil = &until
			log.Warn().Str("username", user.Username).Msg("Account locked after repeated failed logins")
		}
		if err := s.db.RecordFailedLogin(user.ID, lockedUntil); err != nil {
			return nil, err
		}
		return nil, nil
	}

	if err := s.db.RecordSuccessfulLogin(user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdatePassword changes a user's password.
func (s *AuthService) UpdatePassword(userID int64, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return &clinic.ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters long", MinPasswordLength)}
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.db.UpdateUserPassword(userID, hash)
}

// UpdateUsername changes a user's login name. The name is lowercased and must
// not collide with another account.
func (s *AuthService) UpdateUsername(userID int64, newUsername string) error {
	username := strings.TrimSpace(strings.ToLower(newUsername))
	if len(username) < 3 {
		return &clinic.ValidationError{Field: "username", Message: "username must be at least 3 characters long"}
	}

	existing, err := s.db.GetUserByUsername(username)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != userID {
		return &clinic.ValidationError{Field: "username", Message: "username already taken"}
	}

	u, err := s.db.GetUserByID(userID)
	if err != nil {
		return err
	}
	if u == nil {
		return clinic.ErrNotFound
	}
	u.Username = username
	if err := s.db.UpdateUser(u); err != nil {
		return err
	}

	log.Info().Int64("user_id", userID).Str("username", username).Msg("Username changed")
	return nil
}

// UpdateUser persists profile changes to a staff account.
func (s *AuthService) UpdateUser(u *database.UserRecord) error {
	if !validRoles[u.Role] {
		return &clinic.ValidationError{Field: "role", Message: fmt.Sprintf("unknown role: %s", u.Role)}
	}
	return s.db.UpdateUser(u)
}

// SetUserActive enables or disables a staff account. Disabled accounts cannot
// log in and their existing sessions stop resolving.
func (s *AuthService) SetUserActive(userID int64, active bool) error {
	u, err := s.db.GetUserByID(userID)
	if err != nil {
		return err
	}
	if u == nil {
		return fmt.Errorf("user %d: %w", userID, clinic.ErrNotFound)
	}
	u.IsActive = active
	return s.db.UpdateUser(u)
}

// CreateSession creates a new session for a user.
func (s *AuthService) CreateSession(userID int64) (*database.SessionRecord, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}
	return s.db.CreateSession(sessionID, userID, time.Now().Add(SessionDuration))
}

// GetSession retrieves a session by ID. Expired sessions are removed and
// resolve to nil.
func (s *AuthService) GetSession(sessionID string) (*database.SessionRecord, error) {
	session, err := s.db.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	if time.Now().After(session.ExpiresAt) {
		if err := s.db.DeleteSession(sessionID); err != nil {
			return nil, fmt.Errorf("failed to delete expired session: %w", err)
		}
		return nil, nil
	}
	return session, nil
}

// DeleteSession removes a session.
func (s *AuthService) DeleteSession(sessionID string) error {
	return s.db.DeleteSession(sessionID)
}

// ExtendSession pushes a session's expiration forward.
func (s *AuthService) ExtendSession(sessionID string) error {
	return s.db.ExtendSession(sessionID, time.Now().Add(SessionDuration))
}

// generateSessionID creates a cryptographically secure session ID.
func generateSessionID() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
