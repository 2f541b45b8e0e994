package database

import (
	"database/sql"
	"fmt"
	"time"
)

// InvoiceStatus tracks an invoice through its lifecycle.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice represents a bill issued to a client.
type Invoice struct {
	ID            int64
	ClientID      int64
	AppointmentID *int64
	InvoiceNumber string
	IssueDate     time.Time
	DueDate       time.Time
	Status        InvoiceStatus
	TaxPercentage float64
	Notes         string
	Items         []*InvoiceItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// InvoiceItem represents a billed product or service line.
type InvoiceItem struct {
	ID                 int64
	InvoiceID          int64
	ProductID          *int64
	Description        string
	Quantity           int
	UnitPriceCents     int64
	DiscountPercentage float64
	CreatedAt          time.Time
}

// TotalCents returns the item total with discount applied.
func (i *InvoiceItem) TotalCents() int64 {
	subtotal := i.UnitPriceCents * int64(i.Quantity)
	discount := int64(float64(subtotal) * i.DiscountPercentage / 100)
	return subtotal - discount
}

// SubtotalCents returns the sum of all item totals.
func (inv *Invoice) SubtotalCents() int64 {
	var total int64
	for _, item := range inv.Items {
		total += item.TotalCents()
	}
	return total
}

// TaxCents returns the tax amount on the subtotal.
func (inv *Invoice) TaxCents() int64 {
	return int64(float64(inv.SubtotalCents()) * inv.TaxPercentage / 100)
}

// TotalCents returns the invoice total including tax.
func (inv *Invoice) TotalCents() int64 {
	return inv.SubtotalCents() + inv.TaxCents()
}

const invoiceColumns = `id, client_id, appointment_id, invoice_number, issue_date, due_date, status, tax_percentage, notes, created_at, updated_at`

func scanInvoice(row interface{ Scan(...any) error }) (*Invoice, error) {
	inv := &Invoice{}
	var appointmentID sql.NullInt64
	var notes sql.NullString
	err := row.Scan(&inv.ID, &inv.ClientID, &appointmentID, &inv.InvoiceNumber,
		&inv.IssueDate, &inv.DueDate, &inv.Status, &inv.TaxPercentage, &notes,
		&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	inv.AppointmentID = nullInt64ToPtr(appointmentID)
	inv.Notes = nullStringValue(notes)
	return inv, nil
}

// CreateInvoice inserts a new invoice record and sets its ID.
func (db *DB) CreateInvoice(inv *Invoice) error {
	now := time.Now()
	inv.CreatedAt = now
	inv.UpdatedAt = now

	result, err := db.Exec(`
		INSERT INTO invoices (client_id, appointment_id, invoice_number, issue_date, due_date, status, tax_percentage, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, inv.ClientID, ptrToNullInt64(inv.AppointmentID), inv.InvoiceNumber, inv.IssueDate,
		inv.DueDate, inv.Status, inv.TaxPercentage, emptyToNullString(inv.Notes), now, now)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get invoice id: %w", err)
	}
	inv.ID = id
	return nil
}

// GetInvoice retrieves an invoice with its items. Returns nil when not found.
func (db *DB) GetInvoice(id int64) (*Invoice, error) {
	inv, err := scanInvoice(db.QueryRow(`SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	items, err := db.listInvoiceItems(inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

// InvoiceFilter narrows ListInvoices results. Zero values match everything.
type InvoiceFilter struct {
	ClientID int64
	Status   InvoiceStatus
}

// ListInvoices retrieves invoices matching the filter, newest first. Items are not loaded.
func (db *DB) ListInvoices(filter InvoiceFilter) ([]*Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`
	var args []any

	if filter.ClientID != 0 {
		query += " AND client_id = ?"
		args = append(args, filter.ClientID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY issue_date DESC, id DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Totals are derived from items, so listings need them loaded too.
	for _, inv := range invoices {
		items, err := db.listInvoiceItems(inv.ID)
		if err != nil {
			return nil, err
		}
		inv.Items = items
	}
	return invoices, nil
}

// UpdateInvoice persists changes to an existing invoice record. Items are managed separately.
func (db *DB) UpdateInvoice(inv *Invoice) error {
	inv.UpdatedAt = time.Now()
	_, err := db.Exec(`
		UPDATE invoices
		SET client_id = ?, appointment_id = ?, issue_date = ?, due_date = ?, status = ?, tax_percentage = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, inv.ClientID, ptrToNullInt64(inv.AppointmentID), inv.IssueDate, inv.DueDate,
		inv.Status, inv.TaxPercentage, emptyToNullString(inv.Notes), inv.UpdatedAt, inv.ID)
	if err != nil {
		return fmt.Errorf("failed to update invoice: %w", err)
	}
	return nil
}

// DeleteInvoice removes an invoice and its items.
func (db *DB) DeleteInvoice(id int64) error {
	return db.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM invoice_items WHERE invoice_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete invoice items: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM invoices WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}
		return nil
	})
}

// MarkOverdueInvoices flips pending invoices past their due date to overdue.
func (db *DB) MarkOverdueInvoices(now time.Time) (int64, error) {
	result, err := db.Exec(`
		UPDATE invoices SET status = ?, updated_at = ? WHERE status = ? AND due_date < ?
	`, InvoiceStatusOverdue, now, InvoiceStatusPending, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue invoices: %w", err)
	}
	return result.RowsAffected()
}

// CreateInvoiceItem inserts an invoice item record and sets its ID.
func (db *DB) CreateInvoiceItem(item *InvoiceItem) error {
	item.CreatedAt = time.Now()

	result, err := db.Exec(`
		INSERT INTO invoice_items (invoice_id, product_id, description, quantity, unit_price_cents, discount_percentage, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, item.InvoiceID, ptrToNullInt64(item.ProductID), item.Description, item.Quantity,
		item.UnitPriceCents, item.DiscountPercentage, item.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invoice item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get invoice item id: %w", err)
	}
	item.ID = id
	return nil
}

// DeleteInvoiceItem removes a single item from an invoice.
func (db *DB) DeleteInvoiceItem(id int64) error {
	_, err := db.Exec("DELETE FROM invoice_items WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice item: %w", err)
	}
	return nil
}

func (db *DB) listInvoiceItems(invoiceID int64) ([]*InvoiceItem, error) {
	rows, err := db.Query(`
		SELECT id, invoice_id, product_id, description, quantity, unit_price_cents, discount_percentage, created_at
		FROM invoice_items WHERE invoice_id = ? ORDER BY id
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoice items: %w", err)
	}
	defer rows.Close()

	var items []*InvoiceItem
	for rows.Next() {
		item := &InvoiceItem{}
		var productID sql.NullInt64
		if err := rows.Scan(&item.ID, &item.InvoiceID, &productID, &item.Description,
			&item.Quantity, &item.UnitPriceCents, &item.DiscountPercentage, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan invoice item: %w", err)
		}
		item.ProductID = nullInt64ToPtr(productID)
		items = append(items, item)
	}
	return items, rows.Err()
}
