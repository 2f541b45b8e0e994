package inventory

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/pawsoft/vetclinic/internal/clinic"
	"github.com/pawsoft/vetclinic/internal/database"
)

var validProductTypes = map[database.ProductType]bool{
	database.ProductTypeMedication: true,
	database.ProductTypeSupply:     true,
	database.ProductTypeEquipment:  true,
	database.ProductTypeService:    true,
	database.ProductTypeFood:       true,
	database.ProductTypeAccessory:  true,
}

var validMovementTypes = map[database.MovementType]bool{
	database.MovementTypePurchase:   true,
	database.MovementTypeSale:       true,
	database.MovementTypeAdjustment: true,
	database.MovementTypeReturn:     true,
	database.MovementTypeExpired:    true,
	database.MovementTypeDamaged:    true,
}

// outboundMovements are the movement types that reduce stock. Their
// quantities are normalized to negative on record.
var outboundMovements = map[database.MovementType]bool{
	database.MovementTypeSale:    true,
	database.MovementTypeExpired: true,
	database.MovementTypeDamaged: true,
}

// Manager owns categories, products and stock movements. Stock levels are
// never stored; they are the sum of a product's movements.
type Manager struct {
	db *database.DB
}

// NewManager creates an inventory manager bound to the given database.
func NewManager(db *database.DB) *Manager {
	return &Manager{db: db}
}

// CreateCategory registers a new product category.
func (m *Manager) CreateCategory(name, description string, parentID *int64) (*database.Category, error) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return nil, &clinic.ValidationError{Field: "name", Message: "category name must be at least 2 characters long"}
	}

	if parentID != nil {
		parent, err := m.db.GetCategory(*parentID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, fmt.Errorf("category %d: %w", *parentID, clinic.ErrNotFound)
		}
	}

	c := &database.Category{
		Name:        name,
		Description: strings.TrimSpace(description),
		ParentID:    parentID,
		IsActive:    true,
	}
	if err := m.db.CreateCategory(c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCategory returns one category or ErrNotFound.
func (m *Manager) GetCategory(id int64) (*database.Category, error) {
	c, err := m.db.GetCategory(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("category %d: %w", id, clinic.ErrNotFound)
	}
	return c, nil
}

// ListCategories returns all categories.
func (m *Manager) ListCategories() ([]*database.Category, error) {
	return m.db.ListCategories()
}

// UpdateCategory persists changes to a category.
func (m *Manager) UpdateCategory(c *database.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return &clinic.ValidationError{Field: "name", Message: "category name is required"}
	}
	return m.db.UpdateCategory(c)
}

// DeleteCategory removes a category. Fails with ErrConflict while products
// reference it.
func (m *Manager) DeleteCategory(id int64) error {
	if _, err := m.GetCategory(id); err != nil {
		return err
	}

	products, err := m.db.CountProductsForCategory(id)
	if err != nil {
		return err
	}
	if products > 0 {
		return fmt.Errorf("category %d has %d products: %w", id, products, clinic.ErrConflict)
	}
	return m.db.DeleteCategory(id)
}

// ProductInput carries product fields for create and update operations.
// On update, nil pointers leave the stored value unchanged.
type ProductInput struct {
	Name           *string
	SKU            *string
	Description    *string
	CategoryID     *int64
	Type           *database.ProductType
	UnitPriceCents *int64
	CostPriceCents *int64
	Status         *database.ProductStatus
	MinimumStock   *int
	ReorderPoint   *int
	Supplier       *string
}

// CreateProduct registers a new product.
func (m *Manager) CreateProduct(in ProductInput) (*database.Product, error) {
	name := strings.TrimSpace(derefStr(in.Name))
	if len(name) < 2 {
		return nil, &clinic.ValidationError{Field: "name", Message: "product name must be at least 2 characters long"}
	}
	sku := strings.ToUpper(strings.TrimSpace(derefStr(in.SKU)))
	if len(sku) < 3 {
		return nil, &clinic.ValidationError{Field: "sku", Message: "SKU must be at least 3 characters long"}
	}

	existing, err := m.db.GetProductBySKU(sku)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &clinic.ValidationError{Field: "sku", Message: "a product with this SKU already exists"}
	}

	productType := database.ProductTypeSupply
	if in.Type != nil {
		productType = *in.Type
	}
	if !validProductTypes[productType] {
		return nil, &clinic.ValidationError{Field: "product_type", Message: fmt.Sprintf("unknown product type: %s", productType)}
	}

	if in.CategoryID != nil {
		if _, err := m.GetCategory(*in.CategoryID); err != nil {
			return nil, err
		}
	}

	p := &database.Product{
		Name:           name,
		SKU:            sku,
		Description:    strings.TrimSpace(derefStr(in.Description)),
		CategoryID:     in.CategoryID,
		Type:           productType,
		UnitPriceCents: derefI64(in.UnitPriceCents),
		CostPriceCents: derefI64(in.CostPriceCents),
		Status:         database.ProductStatusActive,
		MinimumStock:   derefInt(in.MinimumStock),
		ReorderPoint:   derefInt(in.ReorderPoint),
		Supplier:       strings.TrimSpace(derefStr(in.Supplier)),
	}
	if in.Status != nil {
		p.Status = *in.Status
	}

	if err := m.validatePrices(p); err != nil {
		return nil, err
	}

	if err := m.db.CreateProduct(p); err != nil {
		return nil, err
	}

	log.Info().Int64("product_id", p.ID).Str("sku", p.SKU).Msg("Product created")
	return p, nil
}

// GetProduct returns one product or ErrNotFound.
func (m *Manager) GetProduct(id int64) (*database.Product, error) {
	p, err := m.db.GetProduct(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("product %d: %w", id, clinic.ErrNotFound)
	}
	return p, nil
}

// ListProducts returns all products.
func (m *Manager) ListProducts() ([]*database.Product, error) {
	return m.db.ListProducts()
}

// UpdateProduct applies a partial update to an existing product.
func (m *Manager) UpdateProduct(id int64, in ProductInput) (*database.Product, error) {
	p, err := m.GetProduct(id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		v := strings.TrimSpace(*in.Name)
		if len(v) < 2 {
			return nil, &clinic.ValidationError{Field: "name", Message: "product name must be at least 2 characters long"}
		}
		p.Name = v
	}
	if in.SKU != nil {
		sku := strings.ToUpper(strings.TrimSpace(*in.SKU))
		if len(sku) < 3 {
			return nil, &clinic.ValidationError{Field: "sku", Message: "SKU must be at least 3 characters long"}
		}
		if sku != p.SKU {
			existing, err := m.db.GetProductBySKU(sku)
			if err != nil {
				return nil, err
			}
			if existing != nil {
				return nil, &clinic.ValidationError{Field: "sku", Message: "a product with this SKU already exists"}
			}
			p.SKU = sku
		}
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.CategoryID != nil {
		if _, err := m.GetCategory(*in.CategoryID); err != nil {
			return nil, err
		}
		p.CategoryID = in.CategoryID
	}
	if in.Type != nil {
		if !validProductTypes[*in.Type] {
			return nil, &clinic.ValidationError{Field: "product_type", Message: fmt.Sprintf("unknown product type: %s", *in.Type)}
		}
		p.Type = *in.Type
	}
	if in.UnitPriceCents != nil {
		p.UnitPriceCents = *in.UnitPriceCents
	}
	if in.CostPriceCents != nil {
		p.CostPriceCents = *in.CostPriceCents
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.MinimumStock != nil {
		p.MinimumStock = *in.MinimumStock
	}
	if in.ReorderPoint != nil {
		p.ReorderPoint = *in.ReorderPoint
	}
	if in.Supplier != nil {
		p.Supplier = strings.TrimSpace(*in.Supplier)
	}

	if err := m.validatePrices(p); err != nil {
		return nil, err
	}

	if err := m.db.UpdateProduct(p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a product. Fails with ErrConflict while stock
// movements reference it.
func (m *Manager) DeleteProduct(id int64) error {
	if _, err := m.GetProduct(id); err != nil {
		return err
	}

	movements, err := m.db.CountMovementsForProduct(id)
	if err != nil {
		return err
	}
	if movements > 0 {
		return fmt.Errorf("product %d has %d stock movements: %w", id, movements, clinic.ErrConflict)
	}
	return m.db.DeleteProduct(id)
}

// RecordMovement registers a stock change for a product. Outbound movement
// types (sale, expired, damaged) have their quantity normalized to negative;
// purchases and returns to positive. Adjustments keep their sign. A movement
// that would drive stock below zero is rejected.
func (m *Manager) RecordMovement(productID int64, movementType database.MovementType, quantity int, reference, notes string, createdBy *int64) (*database.StockMovement, error) {
	p, err := m.GetProduct(productID)
	if err != nil {
		return nil, err
	}
	if !validMovementTypes[movementType] {
		return nil, &clinic.ValidationError{Field: "movement_type", Message: fmt.Sprintf("unknown movement type: %s", movementType)}
	}
	if quantity == 0 {
		return nil, &clinic.ValidationError{Field: "quantity", Message: "quantity cannot be zero"}
	}

	if movementType != database.MovementTypeAdjustment {
		if quantity < 0 {
			quantity = -quantity
		}
		if outboundMovements[movementType] {
			quantity = -quantity
		}
	}

	if quantity < 0 {
		level, err := m.db.StockLevel(productID)
		if err != nil {
			return nil, err
		}
		if level+quantity < 0 {
			return nil, &clinic.ValidationError{Field: "quantity", Message: fmt.Sprintf("insufficient stock: %d available", level)}
		}
	}

	movement := &database.StockMovement{
		ProductID: productID,
		Type:      movementType,
		Quantity:  quantity,
		Reference: strings.TrimSpace(reference),
		Notes:     strings.TrimSpace(notes),
		CreatedBy: createdBy,
	}
	if err := m.db.CreateStockMovement(movement); err != nil {
		return nil, err
	}

	log.Info().Int64("product_id", p.ID).Str("sku", p.SKU).
		Str("type", string(movementType)).Int("quantity", quantity).Msg("Stock movement recorded")
	return movement, nil
}

// ListMovements returns a product's stock movements, newest first.
func (m *Manager) ListMovements(productID int64) ([]*database.StockMovement, error) {
	return m.db.ListStockMovements(productID)
}

// StockLevel returns the current stock of a product.
func (m *Manager) StockLevel(productID int64) (int, error) {
	if _, err := m.GetProduct(productID); err != nil {
		return 0, err
	}
	return m.db.StockLevel(productID)
}

// LowStockItem pairs a product with its current stock level.
type LowStockItem struct {
	Product *database.Product
	Level   int
}

// LowStock reports active physical products at or below their minimum stock.
func (m *Manager) LowStock() ([]LowStockItem, error) {
	products, err := m.db.ListProducts()
	if err != nil {
		return nil, err
	}

	var low []LowStockItem
	for _, p := range products {
		if p.Status != database.ProductStatusActive || p.Type == database.ProductTypeService {
			continue
		}
		level, err := m.db.StockLevel(p.ID)
		if err != nil {
			return nil, err
		}
		if level <= p.MinimumStock {
			low = append(low, LowStockItem{Product: p, Level: level})
		}
	}
	return low, nil
}

func (m *Manager) validatePrices(p *database.Product) error {
	if p.UnitPriceCents < 0 {
		return &clinic.ValidationError{Field: "unit_price", Message: "unit price cannot be negative"}
	}
	if p.CostPriceCents < 0 {
		return &clinic.ValidationError{Field: "cost_price", Message: "cost price cannot be negative"}
	}
	if p.MinimumStock < 0 || p.ReorderPoint < 0 {
		return &clinic.ValidationError{Field: "minimum_stock", Message: "stock thresholds cannot be negative"}
	}
	return nil
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefI64(i *int64) int64 {
	if i == nil {
		return 0
	}
	return *i
}

func derefInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
