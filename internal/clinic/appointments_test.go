package clinic

import (
	"errors"
	"testing"
	"time"

	"github.com/pawsoft/vetclinic/internal/database"
)

func TestAppointmentSchedule_DefaultDurationByType(t *testing.T) {
	db := newTestDB(t)
	clients := NewClientManager(db)
	pets := NewPetManager(db)
	appts := NewAppointmentManager(db)

	c := seedClient(t, clients)
	p := seedPet(t, pets, c.ID)

	a, err := appts.Schedule(AppointmentInput{
		PetID:           i64ptr(p.ID),
		AppointmentDate: timeptr(time.Now().Add(24 * time.Hour)),
		Type:            typePtr(database.AppointmentTypeSurgery),
	})
	if err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	if a.DurationMinutes != 120 {
		t.Fatalf("expected surgery default of 120 minutes, got %d", a.DurationMinutes)
	}
	if a.Status != database.AppointmentStatusScheduled {
		t.Fatalf("expected new appointment to be scheduled, got %s", a.Status)
	}
	if a.Type != database.AppointmentTypeSurgery {
		t.Fatalf("expected surgery type, got %s", a.Type)
	}
}

func TestAppointmentSchedule_RejectsPastDate(t *testing.T) {
	db := newTestDB(t)
	clients := NewClientManager(db)
	pets := NewPetManager(db)
	appts := NewAppointmentManager(db)

	c := seedClient(t, clients)
	p := seedPet(t, pets, c.ID)

	_, err := appts.Schedule(AppointmentInput{
		PetID:           i64ptr(p.ID),
		AppointmentDate: timeptr(time.Now().Add(-time.Hour)),
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation error for past date, got %v", err)
	}
}

func TestAppointmentSchedule_RejectsInactivePet(t *testing.T) {
	db := newTestDB(t)
	clients := NewClientManager(db)
	pets := NewPetManager(db)
	appts := NewAppointmentManager(db)

	c := seedClient(t, clients)
	p := seedPet(t, pets, c.ID)
	if _, err := pets.Deactivate(p.ID); err != nil {
		t.Fatalf("failed to deactivate pet: %v", err)
	}

	_, err := appts.Schedule(AppointmentInput{
		PetID:           i64ptr(p.ID),
		AppointmentDate: timeptr(time.Now().Add(24 * time.Hour)),
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation error for inactive pet, got %v", err)
	}
}

func TestAppointmentSchedule_VeterinarianRoleRequired(t *testing.T) {
	db := newTestDB(t)
	clients := NewClientManager(db)
	pets := NewPetManager(db)
	appts := NewAppointmentManager(db)

	c := seedClient(t, clients)
	p := seedPet(t, pets, c.ID)

	reception := &database.UserRecord{
		Username:     "frontdesk",
		Email:        "frontdesk@example.com",
		PasswordHash: "x",
		Role:         database.RoleReceptionist,
		FirstName:    "Front",
		LastName:     "Desk",
		IsActive:     true,
	}
	if err := db.CreateUser(reception); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	_, err := appts.Schedule(AppointmentInput{
		PetID:           i64ptr(p.ID),
		VeterinarianID:  i64ptr(reception.ID),
		AppointmentDate: timeptr(time.Now().Add(24 * time.Hour)),
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation error for non-vet assignee, got %v", err)
	}

	vet := seedVet(t, db)
	if _, err := appts.Schedule(AppointmentInput{
		PetID:           i64ptr(p.ID),
		VeterinarianID:  i64ptr(vet.ID),
		AppointmentDate: timeptr(time.Now().Add(24 * time.Hour)),
	}); err != nil {
		t.Fatalf("expected scheduling with a vet to succeed, got %v", err)
	}
}

func TestAppointmentSchedule_AcceptsAdminAssignee(t *testing.T) {
	db := newTestDB(t)
	clients := NewClientManager(db)
	pets := NewPetManager(db)
	appts := NewAppointmentManager(db)

	c := seedClient(t, clients)
	p := seedPet(t, pets, c.ID)

	admin := &database.UserRecord{
		Username:     "boss",
		Email:        "boss@example.com",
		PasswordHash: "x",
		Role:         database.RoleAdmin,
		FirstName:    "Clinic",
		LastName:     "Owner",
		IsActive:     true,
	}
	if err := db.CreateUser(admin); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	a, err := appts.Schedule(AppointmentInput{
		PetID:           i64ptr(p.ID),
		VeterinarianID:  i64ptr(admin.ID),
		AppointmentDate: timeptr(time.Now().Add(24 * time.Hour)),
	})
	if err != nil {
		t.Fatalf("expected scheduling with an admin assignee to succeed, got %v", err)
	}
	if a.VeterinarianID == nil || *a.VeterinarianID != admin.ID {
		t.Fatalf("expected appointment assigned to admin %d, got %v", admin.ID, a.VeterinarianID)
	}
}

func TestAppointmentSchedule_DurationBounds(t *testing.T) {
	db := newTestDB(t)
	clients := NewClientManager(db)
	pets := NewPetManager(db)
	appts := NewAppointmentManager(db)

	c := seedClient(t, clients)
	p := seedPet(t, pets, c.ID)

	for _, bad := range []int{0, -10, 481} {
		_, err := appts.Schedule(AppointmentInput{
			PetID:           i64ptr(p.ID),
			AppointmentDate: timeptr(time.Now().Add(24 * time.Hour)),
			DurationMinutes: &bad,
		})
		if !IsValidation(err) {
			t.Fatalf("expected validation error for duration %d, got %v", bad, err)
		}
	}

	short := 1
	a, err := appts.Schedule(AppointmentInput{
		PetID:           i64ptr(p.ID),
		AppointmentDate: timeptr(time.Now().Add(24 * time.Hour)),
		DurationMinutes: &short,
	})
	if err != nil {
		t.Fatalf("expected one-minute appointment to be accepted, got %v", err)
	}
	if a.DurationMinutes != 1 {
		t.Fatalf("expected duration of 1 minute, got %d", a.DurationMinutes)
	}
}

func TestAppointmentSchedule_RejectsVetDoubleBooking(t *testing.T) {
	db := newTestDB(t)
	clients := NewClientManager(db)
	pets := NewPetManager(db)
	appts := NewAppointmentManager(db)

	c := seedClient(t, clients)
	p := seedPet(t, pets, c.ID)
	vet := seedVet(t, db)

	slot := time.Now().Add(24 * time.Hour)
	if _, err := appts.Schedule(AppointmentInput{
		PetID:           i64ptr(p.ID),
		VeterinarianID:  i64ptr(vet.ID),
		AppointmentDate: timeptr(slot),
	}); err != nil {
		t.Fatalf("failed to schedule first appointment: %v", err)
	}

	_, err := appts.Schedule(AppointmentInput{
		PetID:           i64ptr(p.ID),
		VeterinarianID:  i64ptr(vet.ID),
		AppointmentDate: timeptr(slot.Add(10 * time.Minute)),
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation error for overlapping slot, got %v", err)
	}

	// The slot right after the first appointment ends is free.
	if _, err := appts.Schedule(AppointmentInput{
		PetID:           i64ptr(p.ID),
		VeterinarianID:  i64ptr(vet.ID),
		AppointmentDate: timeptr(slot.Add(30 * time.Minute)),
	}); err != nil {
		t.Fatalf("expected back-to-back slot to succeed, got %v", err)
	}
}

func TestAppointmentLifecycle(t *testing.T) {
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
		t.Fatalf("Schedule returned error: %v", err)
	}

	// Cannot start before confirming.
	if _, err := appts.Start(a.ID); !IsValidation(err) {
		t.Fatalf("expected validation error starting a scheduled appointment, got %v", err)
	}

	if _, err := appts.Confirm(a.ID); err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}
	if _, err := appts.Start(a.ID); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	done, err := appts.Complete(a.ID, "routine checkup, all clear")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if done.Status != database.AppointmentStatusCompleted {
		t.Fatalf("expected completed status, got %s", done.Status)
	}
	if done.Notes != "routine checkup, all clear" {
		t.Fatalf("expected completion notes to be saved, got %q", done.Notes)
	}

	// Completed is terminal.
	if _, err := appts.Cancel(a.ID, ""); !IsValidation(err) {
		t.Fatalf("expected validation error cancelling a completed appointment, got %v", err)
	}
}

func TestAppointmentCancel_FromScheduledAndConfirmed(t *testing.T) {
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
		t.Fatalf("Schedule returned error: %v", err)
	}

	cancelled, err := appts.Cancel(a.ID, "client rescheduled")
	if err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if cancelled.Status != database.AppointmentStatusCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}
	if cancelled.Notes != "Cancelled: client rescheduled" {
		t.Fatalf("expected cancellation reason in notes, got %q", cancelled.Notes)
	}
}

func TestAppointmentMarkNoShow(t *testing.T) {
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
		t.Fatalf("Schedule returned error: %v", err)
	}

	if _, err := appts.MarkNoShow(a.ID); err != nil {
		t.Fatalf("MarkNoShow returned error: %v", err)
	}

	// No-show is terminal.
	if _, err := appts.Confirm(a.ID); !IsValidation(err) {
		t.Fatalf("expected validation error confirming a no-show, got %v", err)
	}
}

func TestAppointmentUpdate_FrozenAfterCompletion(t *testing.T) {
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
		t.Fatalf("Schedule returned error: %v", err)
	}
	if _, err := appts.Confirm(a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := appts.Start(a.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := appts.Complete(a.ID, ""); err != nil {
		t.Fatal(err)
	}

	_, err = appts.Update(a.ID, AppointmentInput{
		AppointmentDate: timeptr(time.Now().Add(48 * time.Hour)),
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation error rescheduling a completed appointment, got %v", err)
	}

	// Notes stay editable for record keeping.
	updated, err := appts.Update(a.ID, AppointmentInput{Notes: strptr("follow-up booked")})
	if err != nil {
		t.Fatalf("expected notes-only update to succeed, got %v", err)
	}
	if updated.Notes != "follow-up booked" {
		t.Fatalf("expected notes to change, got %q", updated.Notes)
	}
}

func TestAppointmentDelete_Unconditional(t *testing.T) {
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
		t.Fatalf("Schedule returned error: %v", err)
	}
	if _, err := appts.Confirm(a.ID); err != nil {
		t.Fatal(err)
	}

	if err := appts.Delete(a.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	_, err = appts.Get(a.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected appointment to be gone, got %v", err)
	}
}

func TestAppointmentListForDay(t *testing.T) {
	db := newTestDB(t)
	clients := NewClientManager(db)
	pets := NewPetManager(db)
	appts := NewAppointmentManager(db)

	c := seedClient(t, clients)
	p := seedPet(t, pets, c.ID)

	tomorrow := time.Now().Add(24 * time.Hour)
	dayAfter := time.Now().Add(48 * time.Hour)

	if _, err := appts.Schedule(AppointmentInput{
		PetID:           i64ptr(p.ID),
		AppointmentDate: timeptr(tomorrow),
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := appts.Schedule(AppointmentInput{
		PetID:           i64ptr(p.ID),
		AppointmentDate: timeptr(dayAfter),
	}); err != nil {
		t.Fatal(err)
	}

	day, err := appts.ListForDay(tomorrow)
	if err != nil {
		t.Fatalf("ListForDay returned error: %v", err)
	}
	if len(day) != 1 {
		t.Fatalf("expected 1 appointment for the day, got %d", len(day))
	}
}
