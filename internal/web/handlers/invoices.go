package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pawsoft/vetclinic/internal/billing"
	"github.com/pawsoft/vetclinic/internal/config"
	"github.com/pawsoft/vetclinic/internal/database"
)

// InvoicesPage lists invoices, optionally filtered by status
func (h *Handlers) InvoicesPage(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")

	invoices, err := h.billing.List(database.InvoiceFilter{
		Status: database.InvoiceStatus(status),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to list invoices")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Client names for the listing.
	clients := make(map[int64]*database.Client)
	for _, inv := range invoices {
		if _, ok := clients[inv.ClientID]; ok {
			continue
		}
		c, err := h.db.GetClient(inv.ClientID)
		if err != nil {
			log.Error().Err(err).Int64("client_id", inv.ClientID).Msg("Failed to load client")
			continue
		}
		clients[inv.ClientID] = c
	}

	h.render(w, r, "invoices.html", map[string]any{
		"Invoices": invoices,
		"Clients":  clients,
		"Status":   status,
	})
}

// InvoiceNew renders the empty invoice form
func (h *Handlers) InvoiceNew(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.List()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list clients")
	}
	h.render(w, r, "invoice_form.html", map[string]any{
		"Clients":    clients,
		"DefaultTax": h.settings.Float64(config.KeyDefaultTaxPercent, 0),
	})
}

// InvoiceCreate creates a draft invoice
func (h *Handlers) InvoiceCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashErr(w, "Invalid form submission")
		h.redirect(w, r, "/invoices/new")
		return
	}

	clientID := formInt64(r, "client_id")
	if clientID == nil {
		h.flashErr(w, "Client is required")
		h.redirect(w, r, "/invoices/new")
		return
	}

	in := billing.InvoiceInput{
		ClientID:      *clientID,
		AppointmentID: formInt64(r, "appointment_id"),
		DueDate:       formDate(r, "due_date"),
		Notes:         r.FormValue("notes"),
	}
	if tax := formFloat(r, "tax_percentage"); tax != nil {
		in.TaxPercentage = *tax
	}

	inv, err := h.billing.CreateInvoice(in)
	if err != nil {
		h.handleManagerError(w, r, err, "/invoices/new")
		return
	}

	h.flash(w, "Invoice "+inv.InvoiceNumber+" created")
	h.redirect(w, r, "/invoices/"+formatID(inv.ID))
}

// InvoiceDetail shows one invoice with its items and totals
func (h *Handlers) InvoiceDetail(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	inv, err := h.billing.Get(id)
	if err != nil {
		h.handleManagerError(w, r, err, "/invoices")
		return
	}

	client, err := h.db.GetClient(inv.ClientID)
	if err != nil {
		log.Error().Err(err).Int64("client_id", inv.ClientID).Msg("Failed to load client")
	}

	products, err := h.inventory.ListProducts()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
	}

	h.render(w, r, "invoice_detail.html", map[string]any{
		"Invoice":  inv,
		"Client":   client,
		"Products": products,
	})
}

// InvoiceAddItem appends a line item to a draft invoice
func (h *Handlers) InvoiceAddItem(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.flashErr(w, "Invalid form submission")
		h.redirect(w, r, "/invoices/"+formatID(id))
		return
	}

	in := billing.ItemInput{
		ProductID:   formInt64(r, "product_id"),
		Description: r.FormValue("description"),
		Quantity:    1,
	}
	if qty := formInt(r, "quantity"); qty != nil {
		in.Quantity = *qty
	}
	if price := formCents(r, "unit_price"); price != nil {
		in.UnitPriceCents = *price
	}
	if discount := formFloat(r, "discount_percentage"); discount != nil {
		in.DiscountPercentage = *discount
	}

	if _, err := h.billing.AddItem(id, in); err != nil {
		h.handleManagerError(w, r, err, "/invoices/"+formatID(id))
		return
	}
	h.redirect(w, r, "/invoices/"+formatID(id))
}

// InvoiceRemoveItem deletes a line item from a draft invoice (XHR)
func (h *Handlers) InvoiceRemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.jsonError(w, "Invalid invoice id", http.StatusBadRequest)
		return
	}
	itemID := formInt64(r, "item_id")
	if itemID == nil {
		h.jsonError(w, "Invalid item id", http.StatusBadRequest)
		return
	}

	if err := h.billing.RemoveItem(id, *itemID); err != nil {
		h.jsonManagerError(w, r, err)
		return
	}
	h.jsonSuccess(w, "Item removed")
}

// InvoiceIssue moves a draft invoice to pending
func (h *Handlers) InvoiceIssue(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	if _, err := h.billing.Issue(id); err != nil {
		h.handleManagerError(w, r, err, "/invoices/"+formatID(id))
		return
	}

	h.flash(w, "Invoice issued")
	h.redirect(w, r, "/invoices/"+formatID(id))
}

// InvoicePay settles an invoice
func (h *Handlers) InvoicePay(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	if _, err := h.billing.MarkPaid(id); err != nil {
		h.handleManagerError(w, r, err, "/invoices/"+formatID(id))
		return
	}

	h.flash(w, "Invoice marked as paid")
	h.redirect(w, r, "/invoices/"+formatID(id))
}

// InvoiceCancel voids an invoice
func (h *Handlers) InvoiceCancel(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	if _, err := h.billing.Cancel(id); err != nil {
		h.handleManagerError(w, r, err, "/invoices/"+formatID(id))
		return
	}

	h.flash(w, "Invoice cancelled")
	h.redirect(w, r, "/invoices/"+formatID(id))
}

// InvoiceDelete removes a draft or cancelled invoice (XHR)
func (h *Handlers) InvoiceDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.jsonError(w, "Invalid invoice id", http.StatusBadRequest)
		return
	}

	if err := h.billing.Delete(id); err != nil {
		h.jsonManagerError(w, r, err)
		return
	}
	h.jsonSuccess(w, "Invoice deleted")
}
