package auth

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pawsoft/vetclinic/internal/clinic"
	"github.com/pawsoft/vetclinic/internal/database"
)

func newTestService(t *testing.T) (*AuthService, *database.DB) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := database.New(dbPath)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewAuthService(db), db
}

func createTestUser(t *testing.T, s *AuthService, role database.UserRole) *database.UserRecord {
	t.Helper()
	u, err := s.CreateUser(UserInput{
		Username:  "drsmith",
		Email:     "drsmith@example.com",
		Password:  "correct-horse",
		Role:      role,
		FirstName: "Ana",
		LastName:  "Smith",
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u
}

func TestCreateUser_Validation(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.CreateUser(UserInput{Username: "ab", Password: "long-enough-pw", Role: database.RoleAdmin})
	if !clinic.IsValidation(err) {
		t.Fatalf("expected validation error for short username, got %v", err)
	}

	_, err = s.CreateUser(UserInput{Username: "valid", Password: "short", Role: database.RoleAdmin})
	if !clinic.IsValidation(err) {
		t.Fatalf("expected validation error for short password, got %v", err)
	}

	_, err = s.CreateUser(UserInput{Username: "valid", Password: "long-enough-pw", Role: "janitor"})
	if !clinic.IsValidation(err) {
		t.Fatalf("expected validation error for unknown role, got %v", err)
	}
}

func TestCreateUser_NormalizesUsernameAndRejectsDuplicates(t *testing.T) {
	s, _ := newTestService(t)

	u, err := s.CreateUser(UserInput{
		Username: "  DrSmith ",
		Email:    "drsmith@example.com",
		Password: "correct-horse",
		Role:     database.RoleVeterinarian,
	})
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if u.Username != "drsmith" {
		t.Fatalf("expected lowercased username, got %q", u.Username)
	}

	_, err = s.CreateUser(UserInput{
		Username: "drsmith",
		Email:    "other@example.com",
		Password: "correct-horse",
		Role:     database.RoleAssistant,
	})
	if !clinic.IsValidation(err) {
		t.Fatalf("expected validation error for duplicate username, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	s, _ := newTestService(t)
	createTestUser(t, s, database.RoleVeterinarian)

	user, err := s.Authenticate("drsmith", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if user == nil {
		t.Fatal("expected successful login")
	}
	if user.Role != database.RoleVeterinarian {
		t.Fatalf("expected veterinarian role, got %s", user.Role)
	}

	user, err = s.Authenticate("drsmith", "wrong")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if user != nil {
		t.Fatal("expected bad password to fail")
	}

	user, err = s.Authenticate("nobody", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if user != nil {
		t.Fatal("expected unknown user to fail")
	}
}

func TestAuthenticate_LockoutAfterRepeatedFailures(t *testing.T) {
	s, db := newTestService(t)
	u := createTestUser(t, s, database.RoleReceptionist)

	for i := 0; i < MaxFailedLogins; i++ {
		if _, err := s.Authenticate("drsmith", "wrong"); err != nil {
			t.Fatalf("Authenticate returned error: %v", err)
		}
	}

	stored, err := db.GetUserByID(u.ID)
	if err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if !stored.IsLocked(time.Now()) {
		t.Fatal("expected account to be locked")
	}

	// Even the right password is rejected while locked.
	user, err := s.Authenticate("drsmith", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if user != nil {
		t.Fatal("expected login to fail while locked")
	}
}

func TestAuthenticate_SuccessClearsFailures(t *testing.T) {
	s, db := newTestService(t)
	u := createTestUser(t, s, database.RoleAdmin)

	if _, err := s.Authenticate("drsmith", "wrong"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Authenticate("drsmith", "correct-horse"); err != nil {
		t.Fatal(err)
	}

	stored, err := db.GetUserByID(u.ID)
	if err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if stored.FailedLoginAttempts != 0 {
		t.Fatalf("expected failure counter reset, got %d", stored.FailedLoginAttempts)
	}
	if stored.LastLogin == nil {
		t.Fatal("expected last_login to be stamped")
	}
}

func TestAuthenticate_InactiveAccount(t *testing.T) {
	s, _ := newTestService(t)
	u := createTestUser(t, s, database.RoleAssistant)

	if err := s.SetUserActive(u.ID, false); err != nil {
		t.Fatalf("SetUserActive returned error: %v", err)
	}

	user, err := s.Authenticate("drsmith", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if user != nil {
		t.Fatal("expected inactive account to fail login")
	}
}

func TestSessionLifecycle(t *testing.T) {
	s, _ := newTestService(t)
	u := createTestUser(t, s, database.RoleAdmin)

	session, err := s.CreateSession(u.ID)
	if err != nil {
		t.Fatalf("CreateSession returned error: %v", err)
	}
	if len(session.ID) != 64 {
		t.Fatalf("expected 64 char hex session id, got %d chars", len(session.ID))
	}

	loaded, err := s.GetSession(session.ID)
	if err != nil {
		t.Fatalf("GetSession returned error: %v", err)
	}
	if loaded == nil || loaded.UserID != u.ID {
		t.Fatal("expected session to resolve to its user")
	}

	if err := s.DeleteSession(session.ID); err != nil {
		t.Fatalf("DeleteSession returned error: %v", err)
	}
	loaded, err = s.GetSession(session.ID)
	if err != nil {
		t.Fatalf("GetSession returned error: %v", err)
	}
	if loaded != nil {
		t.Fatal("expected deleted session to be gone")
	}
}

func TestGetSession_ExpiredIsPurged(t *testing.T) {
	s, db := newTestService(t)
	u := createTestUser(t, s, database.RoleAdmin)

	if _, err := db.CreateSession("expired-session", u.ID, time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("failed to insert expired session: %v", err)
	}

	loaded, err := s.GetSession("expired-session")
	if err != nil {
		t.Fatalf("GetSession returned error: %v", err)
	}
	if loaded != nil {
		t.Fatal("expected expired session to resolve to nil")
	}

	raw, err := db.GetSession("expired-session")
	if err != nil {
		t.Fatalf("failed to query session: %v", err)
	}
	if raw != nil {
		t.Fatal("expected expired session row to be deleted")
	}
}

func TestUpdateUsername(t *testing.T) {
	s, _ := newTestService(t)
	u := createTestUser(t, s, database.RoleVeterinarian)

	if err := s.UpdateUsername(u.ID, "  DrJones  "); err != nil {
		t.Fatalf("UpdateUsername returned error: %v", err)
	}
	loaded, err := s.GetUserByID(u.ID)
	if err != nil {
		t.Fatalf("GetUserByID returned error: %v", err)
	}
	if loaded.Username != "drjones" {
		t.Fatalf("expected normalized username drjones, got %q", loaded.Username)
	}

	if err := s.UpdateUsername(u.ID, "ab"); !clinic.IsValidation(err) {
		t.Fatalf("expected validation error for short username, got %v", err)
	}

	other, err := s.CreateUser(UserInput{
		Username: "frontdesk",
		Email:    "desk@example.com",
		Password: "correct-horse",
		Role:     database.RoleReceptionist,
	})
	if err != nil {
		t.Fatalf("failed to create second user: %v", err)
	}
	if err := s.UpdateUsername(other.ID, "drjones"); !clinic.IsValidation(err) {
		t.Fatalf("expected validation error for taken username, got %v", err)
	}

	// Keeping your own name is not a collision.
	if err := s.UpdateUsername(u.ID, "drjones"); err != nil {
		t.Fatalf("expected no error renaming to own username, got %v", err)
	}
}
