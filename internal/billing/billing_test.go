package billing

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/pawsoft/vetclinic/internal/clinic"
	"github.com/pawsoft/vetclinic/internal/config"
	"github.com/pawsoft/vetclinic/internal/database"
)

func newTestManager(t *testing.T) (*Manager, *database.DB, *database.Client) {
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

	client := &database.Client{FirstName: "Maria", LastName: "Lopez"}
	if err := db.CreateClient(client); err != nil {
		t.Fatalf("failed to seed client: %v", err)
	}
	return NewManager(db), db, client
}

func TestCreateInvoice_WithItems(t *testing.T) {
	m, _, client := newTestManager(t)

	inv, err := m.CreateInvoice(InvoiceInput{
		ClientID:      client.ID,
		TaxPercentage: 10,
		Items: []ItemInput{
			{Description: "Consultation", Quantity: 1, UnitPriceCents: 5000},
			{Description: "Rabies vaccine", Quantity: 2, UnitPriceCents: 1500, DiscountPercentage: 50},
		},
	})
	if err != nil {
		t.Fatalf("CreateInvoice returned error: %v", err)
	}

	if inv.Status != database.InvoiceStatusDraft {
		t.Fatalf("expected draft status, got %s", inv.Status)
	}
	if len(inv.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(inv.Items))
	}
	// 5000 + (3000 - 50%) = 6500 subtotal, + 10% tax = 7150.
	if got := inv.SubtotalCents(); got != 6500 {
		t.Fatalf("expected subtotal 6500, got %d", got)
	}
	if got := inv.TotalCents(); got != 7150 {
		t.Fatalf("expected total 7150, got %d", got)
	}
	if inv.InvoiceNumber == "" {
		t.Fatal("expected a generated invoice number")
	}
}

func TestCreateInvoice_UnknownClient(t *testing.T) {
	m, _, _ := newTestManager(t)

	_, err := m.CreateInvoice(InvoiceInput{ClientID: 999})
	if !errors.Is(err, clinic.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddItem_ProductDefaults(t *testing.T) {
	m, db, client := newTestManager(t)

	product := &database.Product{
		Name:           "Flea shampoo",
		SKU:            "SH-001",
		Type:           database.ProductTypeSupply,
		UnitPriceCents: 1200,
		Status:         database.ProductStatusActive,
	}
	if err := db.CreateProduct(product); err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}

	inv, err := m.CreateInvoice(InvoiceInput{ClientID: client.ID})
	if err != nil {
		t.Fatalf("CreateInvoice returned error: %v", err)
	}

	item, err := m.AddItem(inv.ID, ItemInput{ProductID: &product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("AddItem returned error: %v", err)
	}
	if item.Description != "Flea shampoo" {
		t.Fatalf("expected description from product, got %q", item.Description)
	}
	if item.UnitPriceCents != 1200 {
		t.Fatalf("expected price from product, got %d", item.UnitPriceCents)
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	m, _, client := newTestManager(t)

	inv, err := m.CreateInvoice(InvoiceInput{
		ClientID: client.ID,
		Items:    []ItemInput{{Description: "Consultation", Quantity: 1, UnitPriceCents: 5000}},
	})
	if err != nil {
		t.Fatalf("CreateInvoice returned error: %v", err)
	}

	// Draft invoices cannot be paid.
	if _, err := m.MarkPaid(inv.ID); !clinic.IsValidation(err) {
		t.Fatalf("expected validation error paying a draft, got %v", err)
	}

	issued, err := m.Issue(inv.ID)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if issued.Status != database.InvoiceStatusPending {
		t.Fatalf("expected pending status, got %s", issued.Status)
	}

	// Items are frozen after issue.
	if _, err := m.AddItem(inv.ID, ItemInput{Description: "Extra", Quantity: 1, UnitPriceCents: 100}); !clinic.IsValidation(err) {
		t.Fatalf("expected validation error adding to issued invoice, got %v", err)
	}

	paid, err := m.MarkPaid(inv.ID)
	if err != nil {
		t.Fatalf("MarkPaid returned error: %v", err)
	}
	if paid.Status != database.InvoiceStatusPaid {
		t.Fatalf("expected paid status, got %s", paid.Status)
	}

	if _, err := m.Cancel(inv.ID); !clinic.IsValidation(err) {
		t.Fatalf("expected validation error cancelling a paid invoice, got %v", err)
	}
}

func TestIssue_RequiresItems(t *testing.T) {
	m, _, client := newTestManager(t)

	inv, err := m.CreateInvoice(InvoiceInput{ClientID: client.ID})
	if err != nil {
		t.Fatalf("CreateInvoice returned error: %v", err)
	}

	if _, err := m.Issue(inv.ID); !clinic.IsValidation(err) {
		t.Fatalf("expected validation error issuing empty invoice, got %v", err)
	}
}

func TestRemoveItem_DraftOnly(t *testing.T) {
	m, _, client := newTestManager(t)

	inv, err := m.CreateInvoice(InvoiceInput{
		ClientID: client.ID,
		Items:    []ItemInput{{Description: "Consultation", Quantity: 1, UnitPriceCents: 5000}},
	})
	if err != nil {
		t.Fatalf("CreateInvoice returned error: %v", err)
	}

	if err := m.RemoveItem(inv.ID, 999); !errors.Is(err, clinic.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown item, got %v", err)
	}

	if err := m.RemoveItem(inv.ID, inv.Items[0].ID); err != nil {
		t.Fatalf("RemoveItem returned error: %v", err)
	}

	reloaded, err := m.Get(inv.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if len(reloaded.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(reloaded.Items))
	}
}

func TestMarkOverdue(t *testing.T) {
	m, db, client := newTestManager(t)

	inv, err := m.CreateInvoice(InvoiceInput{
		ClientID: client.ID,
		Items:    []ItemInput{{Description: "Consultation", Quantity: 1, UnitPriceCents: 5000}},
	})
	if err != nil {
		t.Fatalf("CreateInvoice returned error: %v", err)
	}
	if _, err := m.Issue(inv.ID); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	// Backdate the due date, then sweep.
	reloaded, _ := m.Get(inv.ID)
	reloaded.DueDate = time.Now().AddDate(0, 0, -1)
	if err := db.UpdateInvoice(reloaded); err != nil {
		t.Fatalf("failed to backdate invoice: %v", err)
	}

	n, err := m.MarkOverdue(time.Now())
	if err != nil {
		t.Fatalf("MarkOverdue returned error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 invoice marked overdue, got %d", n)
	}

	overdue, err := m.Get(inv.ID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if overdue.Status != database.InvoiceStatusOverdue {
		t.Fatalf("expected overdue status, got %s", overdue.Status)
	}

	// Overdue invoices can still be settled.
	if _, err := m.MarkPaid(inv.ID); err != nil {
		t.Fatalf("expected paying an overdue invoice to succeed, got %v", err)
	}
}

func TestDelete_IssuedInvoicesAreKept(t *testing.T) {
	m, _, client := newTestManager(t)

	inv, err := m.CreateInvoice(InvoiceInput{
		ClientID: client.ID,
		Items:    []ItemInput{{Description: "Consultation", Quantity: 1, UnitPriceCents: 5000}},
	})
	if err != nil {
		t.Fatalf("CreateInvoice returned error: %v", err)
	}
	if _, err := m.Issue(inv.ID); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if err := m.Delete(inv.ID); !errors.Is(err, clinic.ErrConflict) {
		t.Fatalf("expected ErrConflict deleting an issued invoice, got %v", err)
	}

	if _, err := m.Cancel(inv.ID); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if err := m.Delete(inv.ID); err != nil {
		t.Fatalf("expected deleting a cancelled invoice to succeed, got %v", err)
	}
}

func TestCreateInvoice_PaymentTermFromSettings(t *testing.T) {
	m, db, client := newTestManager(t)

	if err := db.SetSetting(config.KeyPaymentTermDays, "7"); err != nil {
		t.Fatalf("failed to set payment term: %v", err)
	}

	inv, err := m.CreateInvoice(InvoiceInput{ClientID: client.ID})
	if err != nil {
		t.Fatalf("CreateInvoice returned error: %v", err)
	}

	term := inv.DueDate.Sub(inv.IssueDate)
	if term < 6*24*time.Hour || term > 8*24*time.Hour {
		t.Fatalf("expected a 7-day payment term from settings, got %s", term)
	}
}
