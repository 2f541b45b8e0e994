package database

import (
	"database/sql"
	"fmt"
	"time"
)

// ProductStatus tracks whether a product can be sold.
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// ProductType classifies inventory items.
type ProductType string

const (
	ProductTypeMedication ProductType = "medication"
	ProductTypeSupply     ProductType = "supply"
	ProductTypeEquipment  ProductType = "equipment"
	ProductTypeService    ProductType = "service"
	ProductTypeFood       ProductType = "food"
	ProductTypeAccessory  ProductType = "accessory"
)

// MovementType classifies stock movements. Outbound types carry negative quantities.
type MovementType string

const (
	MovementTypePurchase   MovementType = "purchase"
	MovementTypeSale       MovementType = "sale"
	MovementTypeAdjustment MovementType = "adjustment"
	MovementTypeReturn     MovementType = "return"
	MovementTypeExpired    MovementType = "expired"
	MovementTypeDamaged    MovementType = "damaged"
)

// Category groups products, optionally under a parent category.
type Category struct {
	ID          int64
	Name        string
	Description string
	ParentID    *int64
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Product represents a sellable item or service.
type Product struct {
	ID             int64
	Name           string
	SKU            string
	Description    string
	CategoryID     *int64
	Type           ProductType
	UnitPriceCents int64
	CostPriceCents int64
	Status         ProductStatus
	MinimumStock   int
	ReorderPoint   int
	Supplier       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// StockMovement records a change in a product's stock level.
type StockMovement struct {
	ID        int64
	ProductID int64
	Type      MovementType
	Quantity  int
	Reference string
	Notes     string
	CreatedBy *int64
	CreatedAt time.Time
}

// CreateCategory inserts a new category record and sets its ID.
func (db *DB) CreateCategory(c *Category) error {
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	result, err := db.Exec(`
		INSERT INTO categories (name, description, parent_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.Name, emptyToNullString(c.Description), ptrToNullInt64(c.ParentID), c.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get category id: %w", err)
	}
	c.ID = id
	return nil
}

func scanCategory(row interface{ Scan(...any) error }) (*Category, error) {
	c := &Category{}
	var description sql.NullString
	var parentID sql.NullInt64
	err := row.Scan(&c.ID, &c.Name, &description, &parentID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Description = nullStringValue(description)
	c.ParentID = nullInt64ToPtr(parentID)
	return c, nil
}

// GetCategory retrieves a category by ID. Returns nil when not found.
func (db *DB) GetCategory(id int64) (*Category, error) {
	c, err := scanCategory(db.QueryRow(`
		SELECT id, name, description, parent_id, is_active, created_at, updated_at
		FROM categories WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return c, nil
}

// ListCategories retrieves all categories ordered by name.
func (db *DB) ListCategories() ([]*Category, error) {
	rows, err := db.Query(`
		SELECT id, name, description, parent_id, is_active, created_at, updated_at
		FROM categories ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpdateCategory persists changes to an existing category record.
func (db *DB) UpdateCategory(c *Category) error {
	c.UpdatedAt = time.Now()
	_, err := db.Exec(`
		UPDATE categories SET name = ?, description = ?, parent_id = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`, c.Name, emptyToNullString(c.Description), ptrToNullInt64(c.ParentID), c.IsActive, c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category record.
func (db *DB) DeleteCategory(id int64) error {
	_, err := db.Exec("DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

// CountProductsForCategory returns the number of products in a category.
func (db *DB) CountProductsForCategory(categoryID int64) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM products WHERE category_id = ?", categoryID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products for category: %w", err)
	}
	return count, nil
}

const productColumns = `id, name, sku, description, category_id, product_type, unit_price_cents, cost_price_cents, status, minimum_stock, reorder_point, supplier, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*Product, error) {
	p := &Product{}
	var description, supplier sql.NullString
	var categoryID sql.NullInt64
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &description, &categoryID, &p.Type,
		&p.UnitPriceCents, &p.CostPriceCents, &p.Status, &p.MinimumStock, &p.ReorderPoint,
		&supplier, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Description = nullStringValue(description)
	p.CategoryID = nullInt64ToPtr(categoryID)
	p.Supplier = nullStringValue(supplier)
	return p, nil
}

// CreateProduct inserts a new product record and sets its ID.
func (db *DB) CreateProduct(p *Product) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	result, err := db.Exec(`
		INSERT INTO products (name, sku, description, category_id, product_type, unit_price_cents, cost_price_cents, status, minimum_stock, reorder_point, supplier, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.Name, p.SKU, emptyToNullString(p.Description), ptrToNullInt64(p.CategoryID), p.Type,
		p.UnitPriceCents, p.CostPriceCents, p.Status, p.MinimumStock, p.ReorderPoint,
		emptyToNullString(p.Supplier), now, now)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get product id: %w", err)
	}
	p.ID = id
	return nil
}

// GetProduct retrieves a product by ID. Returns nil when not found.
func (db *DB) GetProduct(id int64) (*Product, error) {
	p, err := scanProduct(db.QueryRow(`SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// GetProductBySKU retrieves a product by SKU. Returns nil when not found.
func (db *DB) GetProductBySKU(sku string) (*Product, error) {
	p, err := scanProduct(db.QueryRow(`SELECT `+productColumns+` FROM products WHERE sku = ?`, sku))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product by sku: %w", err)
	}
	return p, nil
}

// ListProducts retrieves all products ordered by name.
func (db *DB) ListProducts() ([]*Product, error) {
	rows, err := db.Query(`SELECT ` + productColumns + ` FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct persists changes to an existing product record.
func (db *DB) UpdateProduct(p *Product) error {
	p.UpdatedAt = time.Now()
	_, err := db.Exec(`
		UPDATE products
		SET name = ?, sku = ?, description = ?, category_id = ?, product_type = ?,
		    unit_price_cents = ?, cost_price_cents = ?, status = ?, minimum_stock = ?,
		    reorder_point = ?, supplier = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.SKU, emptyToNullString(p.Description), ptrToNullInt64(p.CategoryID), p.Type,
		p.UnitPriceCents, p.CostPriceCents, p.Status, p.MinimumStock, p.ReorderPoint,
		emptyToNullString(p.Supplier), p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// DeleteProduct removes a product record.
func (db *DB) DeleteProduct(id int64) error {
	_, err := db.Exec("DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// CountMovementsForProduct returns the number of stock movements referencing a product.
func (db *DB) CountMovementsForProduct(productID int64) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM stock_movements WHERE product_id = ?", productID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count movements for product: %w", err)
	}
	return count, nil
}

// CreateStockMovement inserts a stock movement record and sets its ID.
func (db *DB) CreateStockMovement(m *StockMovement) error {
	m.CreatedAt = time.Now()

	result, err := db.Exec(`
		INSERT INTO stock_movements (product_id, movement_type, quantity, reference, notes, created_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ProductID, m.Type, m.Quantity, emptyToNullString(m.Reference),
		emptyToNullString(m.Notes), ptrToNullInt64(m.CreatedBy), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create stock movement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get stock movement id: %w", err)
	}
	m.ID = id
	return nil
}

// ListStockMovements retrieves movements for a product, newest first.
func (db *DB) ListStockMovements(productID int64) ([]*StockMovement, error) {
	rows, err := db.Query(`
		SELECT id, product_id, movement_type, quantity, reference, notes, created_by, created_at
		FROM stock_movements WHERE product_id = ? ORDER BY created_at DESC, id DESC
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}
	defer rows.Close()

	var movements []*StockMovement
	for rows.Next() {
		m := &StockMovement{}
		var reference, notes sql.NullString
		var createdBy sql.NullInt64
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &reference, &notes, &createdBy, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		m.Reference = nullStringValue(reference)
		m.Notes = nullStringValue(notes)
		m.CreatedBy = nullInt64ToPtr(createdBy)
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// StockLevel returns the current stock level of a product (sum of movement quantities).
func (db *DB) StockLevel(productID int64) (int, error) {
	var level int
	err := db.QueryRow(`
		SELECT COALESCE(SUM(quantity), 0) FROM stock_movements WHERE product_id = ?
	`, productID).Scan(&level)
	if err != nil {
		return 0, fmt.Errorf("failed to get stock level: %w", err)
	}
	return level, nil
}
