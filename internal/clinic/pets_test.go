package clinic

import (
	"errors"
	"testing"
	"time"

	"github.com/pawsoft/vetclinic/internal/database"
)

func TestPetCreate_RequiresExistingOwner(t *testing.T) {
	db := newTestDB(t)
	m := NewPetManager(db)

	_, err := m.Create(PetInput{Name: strptr("Rex"), ClientID: i64ptr(42)})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown owner, got %v", err)
	}

	_, err = m.Create(PetInput{Name: strptr("Rex")})
	if !IsValidation(err) {
		t.Fatalf("expected validation error for missing owner, got %v", err)
	}
}

func TestPetCreate_Defaults(t *testing.T) {
	db := newTestDB(t)
	clients := NewClientManager(db)
	pets := NewPetManager(db)

	c := seedClient(t, clients)
	p, err := pets.Create(PetInput{Name: strptr("  Rex  "), ClientID: i64ptr(c.ID)})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if p.Name != "Rex" {
		t.Fatalf("expected trimmed name, got %q", p.Name)
	}
	if p.Species != database.PetSpeciesOther || p.Gender != database.PetGenderUnknown {
		t.Fatalf("expected default species/gender, got %s/%s", p.Species, p.Gender)
	}
	if !p.IsActive {
		t.Fatal("expected new pets to be active")
	}
}

func TestPetCreate_RejectsFutureBirthDate(t *testing.T) {
	db := newTestDB(t)
	clients := NewClientManager(db)
	pets := NewPetManager(db)

	c := seedClient(t, clients)
	_, err := pets.Create(PetInput{
		Name:      strptr("Rex"),
		ClientID:  i64ptr(c.ID),
		BirthDate: timeptr(time.Now().AddDate(1, 0, 0)),
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation error for future birth date, got %v", err)
	}
}

func TestPetCreate_RejectsDuplicateMicrochip(t *testing.T) {
	db := newTestDB(t)
	clients := NewClientManager(db)
	pets := NewPetManager(db)

	c := seedClient(t, clients)
	if _, err := pets.Create(PetInput{
		Name:            strptr("Rex"),
		ClientID:        i64ptr(c.ID),
		MicrochipNumber: strptr("CHIP-001"),
	}); err != nil {
		t.Fatalf("failed to create first pet: %v", err)
	}

	_, err := pets.Create(PetInput{
		Name:            strptr("Luna"),
		ClientID:        i64ptr(c.ID),
		MicrochipNumber: strptr("CHIP-001"),
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation error for duplicate microchip, got %v", err)
	}
}

func TestPetUpdate_ReassignOwner(t *testing.T) {
	db := newTestDB(t)
	clients := NewClientManager(db)
	pets := NewPetManager(db)

	c1 := seedClient(t, clients)
	c2, err := clients.Create(ClientInput{
		FirstName: strptr("John"),
		LastName:  strptr("Baker"),
	})
	if err != nil {
		t.Fatalf("failed to create second client: %v", err)
	}

	p := seedPet(t, pets, c1.ID)

	updated, err := pets.Update(p.ID, PetInput{ClientID: i64ptr(c2.ID)})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.ClientID != c2.ID {
		t.Fatalf("expected pet to move to client %d, got %d", c2.ID, updated.ClientID)
	}

	_, err = pets.Update(p.ID, PetInput{ClientID: i64ptr(999)})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown new owner, got %v", err)
	}
}

func TestPetDeactivate(t *testing.T) {
	db := newTestDB(t)
	clients := NewClientManager(db)
	pets := NewPetManager(db)

	c := seedClient(t, clients)
	p := seedPet(t, pets, c.ID)

	updated, err := pets.Deactivate(p.ID)
	if err != nil {
		t.Fatalf("Deactivate returned error: %v", err)
	}
	if updated.IsActive {
		t.Fatal("expected pet to be inactive")
	}

	active, err := pets.ListActive()
	if err != nil {
		t.Fatalf("ListActive returned error: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active pets, got %d", len(active))
	}
}

func TestPetDelete_BlockedWhileAppointmentsExist(t *testing.T) {
	db := newTestDB(t)
	clients := NewClientManager(db)
	pets := NewPetManager(db)
	appts := NewAppointmentManager(db)

	c := seedClient(t, clients)
	p := seedPet(t, pets, c.ID)

	a, err := appts.Schedule(AppointmentInput{
		PetID:           i64ptr(p.ID),
		AppointmentDate: timeptr(time.Now().Add(24 * time.Hour)),
	})
	if err != nil {
		t.Fatalf("failed to schedule appointment: %v", err)
	}

	err = pets.Delete(p.ID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict while appointments exist, got %v", err)
	}

	if err := appts.Delete(a.ID); err != nil {
		t.Fatalf("failed to delete appointment: %v", err)
	}
	if err := pets.Delete(p.ID); err != nil {
		t.Fatalf("expected delete to succeed after removing appointments, got %v", err)
	}
}

func TestPetListByClient(t *testing.T) {
	db := newTestDB(t)
	clients := NewClientManager(db)
	pets := NewPetManager(db)

	c := seedClient(t, clients)
	seedPet(t, pets, c.ID)

	list, err := pets.ListByClient(c.ID)
	if err != nil {
		t.Fatalf("ListByClient returned error: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 pet, got %d", len(list))
	}

	_, err = pets.ListByClient(999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown client, got %v", err)
	}
}
