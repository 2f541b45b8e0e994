package clinic

import (
	"errors"
	"testing"
)

func TestClientCreate_RequiresNames(t *testing.T) {
	db := newTestDB(t)
	m := NewClientManager(db)

	_, err := m.Create(ClientInput{LastName: strptr("Lopez")})
	if !IsValidation(err) {
		t.Fatalf("expected validation error for missing first name, got %v", err)
	}

	_, err = m.Create(ClientInput{FirstName: strptr("M"), LastName: strptr("Lopez")})
	if !IsValidation(err) {
		t.Fatalf("expected validation error for short name, got %v", err)
	}
}

func TestClientCreate_RejectsBadEmail(t *testing.T) {
	db := newTestDB(t)
	m := NewClientManager(db)

	_, err := m.Create(ClientInput{
		FirstName: strptr("Maria"),
		LastName:  strptr("Lopez"),
		Email:     strptr("not-an-email"),
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation error for bad email, got %v", err)
	}
}

func TestClientCreate_RejectsDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	m := NewClientManager(db)

	seedClient(t, m)

	_, err := m.Create(ClientInput{
		FirstName: strptr("Other"),
		LastName:  strptr("Person"),
		Email:     strptr("maria@example.com"),
	})
	if !IsValidation(err) {
		t.Fatalf("expected validation error for duplicate email, got %v", err)
	}
}

func TestClientUpdate_PartialFields(t *testing.T) {
	db := newTestDB(t)
	m := NewClientManager(db)

	c := seedClient(t, m)

	updated, err := m.Update(c.ID, ClientInput{Phone: strptr("5559998888")})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Phone != "5559998888" {
		t.Fatalf("expected phone to change, got %q", updated.Phone)
	}
	if updated.FirstName != "Maria" || updated.Email != "maria@example.com" {
		t.Fatal("expected untouched fields to survive a partial update")
	}
}

func TestClientUpdate_KeepingOwnEmailIsAllowed(t *testing.T) {
	db := newTestDB(t)
	m := NewClientManager(db)

	c := seedClient(t, m)

	if _, err := m.Update(c.ID, ClientInput{Email: strptr("maria@example.com")}); err != nil {
		t.Fatalf("expected re-saving own email to succeed, got %v", err)
	}
}

func TestClientGet_NotFound(t *testing.T) {
	db := newTestDB(t)
	m := NewClientManager(db)

	_, err := m.Get(9999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClientDelete_BlockedWhilePetsExist(t *testing.T) {
	db := newTestDB(t)
	clients := NewClientManager(db)
	pets := NewPetManager(db)

	c := seedClient(t, clients)
	p := seedPet(t, pets, c.ID)

	err := clients.Delete(c.ID)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict while pets exist, got %v", err)
	}

	if err := pets.Delete(p.ID); err != nil {
		t.Fatalf("failed to delete pet: %v", err)
	}
	if err := clients.Delete(c.ID); err != nil {
		t.Fatalf("expected delete to succeed after removing pets, got %v", err)
	}

	_, err = clients.Get(c.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected client to be gone, got %v", err)
	}
}

func TestClientSearch(t *testing.T) {
	db := newTestDB(t)
	m := NewClientManager(db)

	seedClient(t, m)
	if _, err := m.Create(ClientInput{
		FirstName: strptr("John"),
		LastName:  strptr("Baker"),
		Email:     strptr("john@example.com"),
	}); err != nil {
		t.Fatalf("failed to create second client: %v", err)
	}

	results, err := m.Search("lop")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(results) != 1 || results[0].LastName != "Lopez" {
		t.Fatalf("expected one match for 'lop', got %d", len(results))
	}

	results, err = m.Search("x")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if results != nil {
		t.Fatal("expected short queries to return nothing")
	}
}
