package clinic

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pawsoft/vetclinic/internal/database"
)

func newTestDB(t *testing.T) *database.DB {
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
	return db
}

func strptr(s string) *string                               { return &s }
func i64ptr(i int64) *int64                                 { return &i }
func timeptr(t time.Time) *time.Time                        { return &t }
func speciesPtr(s database.PetSpecies) *database.PetSpecies { return &s }
func typePtr(t database.AppointmentType) *database.AppointmentType {
	return &t
}

func seedClient(t *testing.T, m *ClientManager) *database.Client {
	t.Helper()
	c, err := m.Create(ClientInput{
		FirstName: strptr("Maria"),
		LastName:  strptr("Lopez"),
		Email:     strptr("maria@example.com"),
		Phone:     strptr("5551234567"),
	})
	if err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}
	return c
}

func seedPet(t *testing.T, m *PetManager, clientID int64) *database.Pet {
	t.Helper()
	p, err := m.Create(PetInput{
		Name:     strptr("Rex"),
		Species:  speciesPtr(database.PetSpeciesDog),
		ClientID: i64ptr(clientID),
	})
	if err != nil {
		t.Fatalf("failed to seed pet: %v", err)
	}
	return p
}

func seedVet(t *testing.T, db *database.DB) *database.UserRecord {
	t.Helper()
	u := &database.UserRecord{
		Username:     "drsmith",
		Email:        "drsmith@example.com",
		PasswordHash: "x",
		Role:         database.RoleVeterinarian,
		FirstName:    "Ana",
		LastName:     "Smith",
		IsActive:     true,
	}
	if err := db.CreateUser(u); err != nil {
		t.Fatalf("failed to seed veterinarian: %v", err)
	}
	return u
}
