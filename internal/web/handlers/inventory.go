package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pawsoft/vetclinic/internal/database"
	"github.com/pawsoft/vetclinic/internal/inventory"
	"github.com/pawsoft/vetclinic/internal/web/middleware"
)

// ProductsPage lists products with their current stock levels
func (h *Handlers) ProductsPage(w http.ResponseWriter, r *http.Request) {
	products, err := h.inventory.ListProducts()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	levels := make(map[int64]int)
	for _, p := range products {
		level, err := h.inventory.StockLevel(p.ID)
		if err != nil {
			log.Error().Err(err).Int64("product_id", p.ID).Msg("Failed to compute stock level")
			continue
		}
		levels[p.ID] = level
	}

	lowStock, err := h.inventory.LowStock()
	if err != nil {
		log.Error().Err(err).Msg("Failed to compute low stock")
	}

	h.render(w, r, "products.html", map[string]any{
		"Products": products,
		"Levels":   levels,
		"LowStock": lowStock,
	})
}

// ProductNew renders the empty product form
func (h *Handlers) ProductNew(w http.ResponseWriter, r *http.Request) {
	h.renderProductForm(w, r, nil)
}

func (h *Handlers) renderProductForm(w http.ResponseWriter, r *http.Request, product *database.Product) {
	categories, err := h.inventory.ListCategories()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list categories")
	}
	h.render(w, r, "product_form.html", map[string]any{
		"Product":    product,
		"Categories": categories,
	})
}

// ProductCreate creates a product from form data
func (h *Handlers) ProductCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashErr(w, "Invalid form submission")
		h.redirect(w, r, "/inventory/products/new")
		return
	}

	product, err := h.inventory.CreateProduct(productInput(r))
	if err != nil {
		h.handleManagerError(w, r, err, "/inventory/products/new")
		return
	}

	h.flash(w, "Product "+product.Name+" created")
	h.redirect(w, r, "/inventory/products")
}

// ProductEdit renders the product form pre-filled
func (h *Handlers) ProductEdit(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	product, err := h.inventory.GetProduct(id)
	if err != nil {
		h.handleManagerError(w, r, err, "/inventory/products")
		return
	}
	h.renderProductForm(w, r, product)
}

// ProductUpdate applies form changes to a product
func (h *Handlers) ProductUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.flashErr(w, "Invalid form submission")
		h.redirect(w, r, "/inventory/products")
		return
	}

	in := productInput(r)
	status := database.ProductStatus(r.FormValue("status"))
	if status != "" {
		in.Status = &status
	}

	if _, err := h.inventory.UpdateProduct(id, in); err != nil {
		h.handleManagerError(w, r, err, "/inventory/products/"+formatID(id)+"/edit")
		return
	}

	h.flash(w, "Product updated")
	h.redirect(w, r, "/inventory/products")
}

// ProductDelete removes a product without recorded movements (XHR)
func (h *Handlers) ProductDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.jsonError(w, "Invalid product id", http.StatusBadRequest)
		return
	}

	if err := h.inventory.DeleteProduct(id); err != nil {
		h.jsonManagerError(w, r, err)
		return
	}
	h.jsonSuccess(w, "Product deleted")
}

// CategoriesPage lists categories
func (h *Handlers) CategoriesPage(w http.ResponseWriter, r *http.Request) {
	categories, err := h.inventory.ListCategories()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list categories")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "categories.html", map[string]any{"Categories": categories})
}

// CategoryCreate creates a category from form data
func (h *Handlers) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashErr(w, "Invalid form submission")
		h.redirect(w, r, "/inventory/categories")
		return
	}

	_, err := h.inventory.CreateCategory(
		r.FormValue("name"),
		r.FormValue("description"),
		formInt64(r, "parent_id"),
	)
	if err != nil {
		h.handleManagerError(w, r, err, "/inventory/categories")
		return
	}

	h.flash(w, "Category created")
	h.redirect(w, r, "/inventory/categories")
}

// CategoryDelete removes an empty category (XHR)
func (h *Handlers) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.jsonError(w, "Invalid category id", http.StatusBadRequest)
		return
	}

	if err := h.inventory.DeleteCategory(id); err != nil {
		h.jsonManagerError(w, r, err)
		return
	}
	h.jsonSuccess(w, "Category deleted")
}

// MovementsPage lists stock movements for a product
func (h *Handlers) MovementsPage(w http.ResponseWriter, r *http.Request) {
	productID := formInt64(r, "product_id")
	if productID == nil {
		h.redirect(w, r, "/inventory/products")
		return
	}

	product, err := h.inventory.GetProduct(*productID)
	if err != nil {
		h.handleManagerError(w, r, err, "/inventory/products")
		return
	}

	movements, err := h.inventory.ListMovements(product.ID)
	if err != nil {
		log.Error().Err(err).Int64("product_id", product.ID).Msg("Failed to list movements")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	level, err := h.inventory.StockLevel(product.ID)
	if err != nil {
		log.Error().Err(err).Int64("product_id", product.ID).Msg("Failed to compute stock level")
	}

	h.render(w, r, "movements.html", map[string]any{
		"Product":   product,
		"Movements": movements,
		"Level":     level,
	})
}

// MovementCreate records a stock movement for a product
func (h *Handlers) MovementCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashErr(w, "Invalid form submission")
		h.redirect(w, r, "/inventory/products")
		return
	}

	productID := formInt64(r, "product_id")
	quantity := formInt(r, "quantity")
	if productID == nil || quantity == nil {
		h.flashErr(w, "Product and quantity are required")
		h.redirect(w, r, "/inventory/products")
		return
	}
	backURL := "/inventory/movements?product_id=" + formatID(*productID)

	var createdBy *int64
	if user := middleware.GetUser(r.Context()); user != nil {
		createdBy = &user.ID
	}

	_, err := h.inventory.RecordMovement(
		*productID,
		database.MovementType(r.FormValue("movement_type")),
		*quantity,
		r.FormValue("reference"),
		r.FormValue("notes"),
		createdBy,
	)
	if err != nil {
		h.handleManagerError(w, r, err, backURL)
		return
	}

	h.flash(w, "Movement recorded")
	h.redirect(w, r, backURL)
}

func productInput(r *http.Request) inventory.ProductInput {
	in := inventory.ProductInput{
		Name:           formString(r, "name"),
		SKU:            formString(r, "sku"),
		Description:    formString(r, "description"),
		CategoryID:     formInt64(r, "category_id"),
		UnitPriceCents: formCents(r, "unit_price"),
		CostPriceCents: formCents(r, "cost_price"),
		MinimumStock:   formInt(r, "minimum_stock"),
		ReorderPoint:   formInt(r, "reorder_point"),
		Supplier:       formString(r, "supplier"),
	}
	if v := r.FormValue("product_type"); v != "" {
		t := database.ProductType(v)
		in.Type = &t
	}
	return in
}
