package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pawsoft/vetclinic/internal/clinic"
	"github.com/pawsoft/vetclinic/internal/config"
	"github.com/pawsoft/vetclinic/internal/database"
)

// DefaultPaymentTermDays is how long after issue an invoice falls due when no
// term is configured.
const DefaultPaymentTermDays = 30

// Manager owns invoice creation and the invoice lifecycle. Line items are
// editable only while an invoice is in draft; totals are always computed from
// the items, never stored.
type Manager struct {
	db       *database.DB
	settings *config.Loader
}

// NewManager creates a billing manager bound to the given database.
func NewManager(db *database.DB) *Manager {
	return &Manager{db: db, settings: config.NewLoader(db)}
}

// ItemInput carries one invoice line for creation.
type ItemInput struct {
	ProductID          *int64
	Description        string
	Quantity           int
	UnitPriceCents     int64
	DiscountPercentage float64
}

// InvoiceInput carries the fields needed to create an invoice.
type InvoiceInput struct {
	ClientID      int64
	AppointmentID *int64
	DueDate       *time.Time
	TaxPercentage float64
	Notes         string
	Items         []ItemInput
}

// CreateInvoice creates a draft invoice with its line items.
func (m *Manager) CreateInvoice(in InvoiceInput) (*database.Invoice, error) {
	client, err := m.db.GetClient(in.ClientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("client %d: %w", in.ClientID, clinic.ErrNotFound)
	}

	if in.AppointmentID != nil {
		appt, err := m.db.GetAppointment(*in.AppointmentID)
		if err != nil {
			return nil, err
		}
		if appt == nil {
			return nil, fmt.Errorf("appointment %d: %w", *in.AppointmentID, clinic.ErrNotFound)
		}
	}

	if in.TaxPercentage < 0 || in.TaxPercentage > 100 {
		return nil, &clinic.ValidationError{Field: "tax_percentage", Message: "tax percentage must be between 0 and 100"}
	}

	now := time.Now()
	due := now.AddDate(0, 0, m.settings.Int(config.KeyPaymentTermDays, DefaultPaymentTermDays))
	if in.DueDate != nil {
		due = *in.DueDate
		if due.Before(now) {
			return nil, &clinic.ValidationError{Field: "due_date", Message: "due date cannot be in the past"}
		}
	}

	inv := &database.Invoice{
		ClientID:      in.ClientID,
		AppointmentID: in.AppointmentID,
		InvoiceNumber: generateInvoiceNumber(now),
		IssueDate:     now,
		DueDate:       due,
		Status:        database.InvoiceStatusDraft,
		TaxPercentage: in.TaxPercentage,
		Notes:         strings.TrimSpace(in.Notes),
	}

	if err := m.db.CreateInvoice(inv); err != nil {
		return nil, err
	}
	for _, itemIn := range in.Items {
		if _, err := m.addItem(inv, itemIn); err != nil {
			return nil, err
		}
	}

	log.Info().Int64("invoice_id", inv.ID).Str("number", inv.InvoiceNumber).
		Int64("client_id", inv.ClientID).Msg("Invoice created")
	return m.Get(inv.ID)
}

// Get returns one invoice with its items, or ErrNotFound.
func (m *Manager) Get(id int64) (*database.Invoice, error) {
	inv, err := m.db.GetInvoice(id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("invoice %d: %w", id, clinic.ErrNotFound)
	}
	return inv, nil
}

// List returns invoices matching the filter.
func (m *Manager) List(filter database.InvoiceFilter) ([]*database.Invoice, error) {
	return m.db.ListInvoices(filter)
}

// AddItem appends a line item to a draft invoice.
func (m *Manager) AddItem(invoiceID int64, in ItemInput) (*database.InvoiceItem, error) {
	inv, err := m.Get(invoiceID)
	if err != nil {
		return nil, err
	}
	if inv.Status != database.InvoiceStatusDraft {
		return nil, &clinic.ValidationError{Field: "status", Message: fmt.Sprintf("cannot add items to a %s invoice", inv.Status)}
	}
	return m.addItem(inv, in)
}

func (m *Manager) addItem(inv *database.Invoice, in ItemInput) (*database.InvoiceItem, error) {
	description := strings.TrimSpace(in.Description)

	if in.ProductID != nil {
		product, err := m.db.GetProduct(*in.ProductID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, fmt.Errorf("product %d: %w", *in.ProductID, clinic.ErrNotFound)
		}
		if description == "" {
			description = product.Name
		}
		if in.UnitPriceCents == 0 {
			in.UnitPriceCents = product.UnitPriceCents
		}
	}

	if description == "" {
		return nil, &clinic.ValidationError{Field: "description", Message: "item description is required"}
	}
	if in.Quantity <= 0 {
		return nil, &clinic.ValidationError{Field: "quantity", Message: "quantity must be positive"}
	}
	if in.UnitPriceCents < 0 {
		return nil, &clinic.ValidationError{Field: "unit_price", Message: "unit price cannot be negative"}
	}
	if in.DiscountPercentage < 0 || in.DiscountPercentage > 100 {
		return nil, &clinic.ValidationError{Field: "discount_percentage", Message: "discount must be between 0 and 100"}
	}

	item := &database.InvoiceItem{
		InvoiceID:          inv.ID,
		ProductID:          in.ProductID,
		Description:        description,
		Quantity:           in.Quantity,
		UnitPriceCents:     in.UnitPriceCents,
		DiscountPercentage: in.DiscountPercentage,
	}
	if err := m.db.CreateInvoiceItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem deletes a line item from a draft invoice.
func (m *Manager) RemoveItem(invoiceID, itemID int64) error {
	inv, err := m.Get(invoiceID)
	if err != nil {
		return err
	}
	if inv.Status != database.InvoiceStatusDraft {
		return &clinic.ValidationError{Field: "status", Message: fmt.Sprintf("cannot remove items from a %s invoice", inv.Status)}
	}

	for _, item := range inv.Items {
		if item.ID == itemID {
			return m.db.DeleteInvoiceItem(itemID)
		}
	}
	return fmt.Errorf("invoice item %d: %w", itemID, clinic.ErrNotFound)
}

// Issue moves a draft invoice to pending. An invoice needs at least one item
// before it can be issued.
func (m *Manager) Issue(id int64) (*database.Invoice, error) {
	inv, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if inv.Status != database.InvoiceStatusDraft {
		return nil, &clinic.ValidationError{Field: "status", Message: fmt.Sprintf("cannot issue a %s invoice", inv.Status)}
	}
	if len(inv.Items) == 0 {
		return nil, &clinic.ValidationError{Field: "items", Message: "cannot issue an invoice with no items"}
	}

	inv.Status = database.InvoiceStatusPending
	if err := m.db.UpdateInvoice(inv); err != nil {
		return nil, err
	}

	log.Info().Int64("invoice_id", inv.ID).Str("number", inv.InvoiceNumber).Msg("Invoice issued")
	return inv, nil
}

// MarkPaid settles a pending or overdue invoice.
func (m *Manager) MarkPaid(id int64) (*database.Invoice, error) {
	inv, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if inv.Status != database.InvoiceStatusPending && inv.Status != database.InvoiceStatusOverdue {
		return nil, &clinic.ValidationError{Field: "status", Message: fmt.Sprintf("cannot mark a %s invoice paid", inv.Status)}
	}

	inv.Status = database.InvoiceStatusPaid
	if err := m.db.UpdateInvoice(inv); err != nil {
		return nil, err
	}

	log.Info().Int64("invoice_id", inv.ID).Str("number", inv.InvoiceNumber).
		Int64("total_cents", inv.TotalCents()).Msg("Invoice paid")
	return inv, nil
}

// Cancel voids an invoice that has not been paid.
func (m *Manager) Cancel(id int64) (*database.Invoice, error) {
	inv, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	switch inv.Status {
	case database.InvoiceStatusPaid, database.InvoiceStatusCancelled:
		return nil, &clinic.ValidationError{Field: "status", Message: fmt.Sprintf("cannot cancel a %s invoice", inv.Status)}
	}

	inv.Status = database.InvoiceStatusCancelled
	if err := m.db.UpdateInvoice(inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// MarkOverdue flags pending invoices whose due date has passed. Returns the
// number of invoices flagged.
func (m *Manager) MarkOverdue(now time.Time) (int64, error) {
	n, err := m.db.MarkOverdueInvoices(now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info().Int64("count", n).Msg("Invoices marked overdue")
	}
	return n, nil
}

// Delete removes an invoice and its items. Only draft and cancelled invoices
// may be deleted; issued invoices stay for the books.
func (m *Manager) Delete(id int64) error {
	inv, err := m.Get(id)
	if err != nil {
		return err
	}
	if inv.Status != database.InvoiceStatusDraft && inv.Status != database.InvoiceStatusCancelled {
		return fmt.Errorf("invoice %s is %s: %w", inv.InvoiceNumber, inv.Status, clinic.ErrConflict)
	}
	return m.db.DeleteInvoice(id)
}

// generateInvoiceNumber builds a unique human-readable invoice number such as
// INV-20260830-1A2B3C4D.
func generateInvoiceNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("INV-%s-%s", now.Format("20060102"), suffix)
}
