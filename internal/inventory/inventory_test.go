package inventory

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/pawsoft/vetclinic/internal/clinic"
	"github.com/pawsoft/vetclinic/internal/database"
)

func newTestManager(t *testing.T) *Manager {
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
	return NewManager(db)
}

func strptr(s string) *string                                  { return &s }
func intptr(i int) *int                                        { return &i }
func i64ptr(i int64) *int64                                    { return &i }
func typeptr(v database.ProductType) *database.ProductType     { return &v }
func statptr(v database.ProductStatus) *database.ProductStatus { return &v }

func seedProduct(t *testing.T, m *Manager) *database.Product {
	t.Helper()
	p, err := m.CreateProduct(ProductInput{
		Name:           strptr("Flea shampoo"),
		SKU:            strptr("sh-001"),
		UnitPriceCents: i64ptr(1200),
		MinimumStock:   intptr(5),
	})
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
	return p
}

func TestCreateProduct_NormalizesSKUAndRejectsDuplicates(t *testing.T) {
	m := newTestManager(t)

	p := seedProduct(t, m)
	if p.SKU != "SH-001" {
		t.Fatalf("expected uppercased SKU, got %q", p.SKU)
	}
	if p.Status != database.ProductStatusActive {
		t.Fatalf("expected active status, got %s", p.Status)
	}

	_, err := m.CreateProduct(ProductInput{
		Name: strptr("Other"),
		SKU:  strptr("SH-001"),
	})
	if !clinic.IsValidation(err) {
		t.Fatalf("expected validation error for duplicate SKU, got %v", err)
	}
}

func TestCreateProduct_RejectsNegativePrices(t *testing.T) {
	m := newTestManager(t)

	_, err := m.CreateProduct(ProductInput{
		Name:           strptr("Bad"),
		SKU:            strptr("BAD-1"),
		UnitPriceCents: i64ptr(-100),
	})
	if !clinic.IsValidation(err) {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}
}

func TestCategoryDelete_BlockedWhileProductsExist(t *testing.T) {
	m := newTestManager(t)

	cat, err := m.CreateCategory("Grooming", "", nil)
	if err != nil {
		t.Fatalf("CreateCategory returned error: %v", err)
	}

	p, err := m.CreateProduct(ProductInput{
		Name:       strptr("Flea shampoo"),
		SKU:        strptr("SH-001"),
		CategoryID: &cat.ID,
	})
	if err != nil {
		t.Fatalf("CreateProduct returned error: %v", err)
	}

	err = m.DeleteCategory(cat.ID)
	if !errors.Is(err, clinic.ErrConflict) {
		t.Fatalf("expected ErrConflict while products exist, got %v", err)
	}

	if err := m.DeleteProduct(p.ID); err != nil {
		t.Fatalf("DeleteProduct returned error: %v", err)
	}
	if err := m.DeleteCategory(cat.ID); err != nil {
		t.Fatalf("expected delete to succeed after removing products, got %v", err)
	}
}

func TestCreateCategory_UnknownParent(t *testing.T) {
	m := newTestManager(t)

	parent := int64(999)
	_, err := m.CreateCategory("Orphan", "", &parent)
	if !errors.Is(err, clinic.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown parent, got %v", err)
	}
}

func TestRecordMovement_SignNormalization(t *testing.T) {
	m := newTestManager(t)
	p := seedProduct(t, m)

	// Purchases normalize to positive regardless of input sign.
	mv, err := m.RecordMovement(p.ID, database.MovementTypePurchase, -10, "PO-1", "", nil)
	if err != nil {
		t.Fatalf("RecordMovement returned error: %v", err)
	}
	if mv.Quantity != 10 {
		t.Fatalf("expected purchase quantity 10, got %d", mv.Quantity)
	}

	// Sales normalize to negative.
	mv, err = m.RecordMovement(p.ID, database.MovementTypeSale, 3, "INV-1", "", nil)
	if err != nil {
		t.Fatalf("RecordMovement returned error: %v", err)
	}
	if mv.Quantity != -3 {
		t.Fatalf("expected sale quantity -3, got %d", mv.Quantity)
	}

	level, err := m.StockLevel(p.ID)
	if err != nil {
		t.Fatalf("StockLevel returned error: %v", err)
	}
	if level != 7 {
		t.Fatalf("expected stock level 7, got %d", level)
	}

	// Adjustments keep their sign.
	if _, err := m.RecordMovement(p.ID, database.MovementTypeAdjustment, -2, "", "shrinkage", nil); err != nil {
		t.Fatalf("RecordMovement returned error: %v", err)
	}
	level, _ = m.StockLevel(p.ID)
	if level != 5 {
		t.Fatalf("expected stock level 5 after adjustment, got %d", level)
	}
}

func TestRecordMovement_RejectsOverdraw(t *testing.T) {
	m := newTestManager(t)
	p := seedProduct(t, m)

	if _, err := m.RecordMovement(p.ID, database.MovementTypePurchase, 2, "", "", nil); err != nil {
		t.Fatalf("RecordMovement returned error: %v", err)
	}

	_, err := m.RecordMovement(p.ID, database.MovementTypeSale, 5, "", "", nil)
	if !clinic.IsValidation(err) {
		t.Fatalf("expected validation error for overdraw, got %v", err)
	}

	_, err = m.RecordMovement(p.ID, database.MovementTypeSale, 0, "", "", nil)
	if !clinic.IsValidation(err) {
		t.Fatalf("expected validation error for zero quantity, got %v", err)
	}
}

func TestDeleteProduct_BlockedWhileMovementsExist(t *testing.T) {
	m := newTestManager(t)
	p := seedProduct(t, m)

	if _, err := m.RecordMovement(p.ID, database.MovementTypePurchase, 1, "", "", nil); err != nil {
		t.Fatalf("RecordMovement returned error: %v", err)
	}

	err := m.DeleteProduct(p.ID)
	if !errors.Is(err, clinic.ErrConflict) {
		t.Fatalf("expected ErrConflict while movements exist, got %v", err)
	}
}

func TestLowStock(t *testing.T) {
	m := newTestManager(t)
	p := seedProduct(t, m) // minimum stock 5

	stocked, err := m.CreateProduct(ProductInput{
		Name:         strptr("Dog food"),
		SKU:          strptr("DF-001"),
		Type:         typeptr(database.ProductTypeFood),
		MinimumStock: intptr(2),
	})
	if err != nil {
		t.Fatalf("CreateProduct returned error: %v", err)
	}
	if _, err := m.RecordMovement(stocked.ID, database.MovementTypePurchase, 50, "", "", nil); err != nil {
		t.Fatalf("RecordMovement returned error: %v", err)
	}

	// Services never appear in the report.
	if _, err := m.CreateProduct(ProductInput{
		Name: strptr("Grooming session"),
		SKU:  strptr("SVC-001"),
		Type: typeptr(database.ProductTypeService),
	}); err != nil {
		t.Fatalf("CreateProduct returned error: %v", err)
	}

	low, err := m.LowStock()
	if err != nil {
		t.Fatalf("LowStock returned error: %v", err)
	}
	if len(low) != 1 {
		t.Fatalf("expected 1 low stock item, got %d", len(low))
	}
	if low[0].Product.ID != p.ID || low[0].Level != 0 {
		t.Fatalf("expected shampoo at level 0, got product %d level %d", low[0].Product.ID, low[0].Level)
	}

	// Discontinued products drop out of the report.
	if _, err := m.UpdateProduct(p.ID, ProductInput{Status: statptr(database.ProductStatusDiscontinued)}); err != nil {
		t.Fatalf("UpdateProduct returned error: %v", err)
	}
	low, err = m.LowStock()
	if err != nil {
		t.Fatalf("LowStock returned error: %v", err)
	}
	if len(low) != 0 {
		t.Fatalf("expected no low stock items, got %d", len(low))
	}
}

func TestCreateProduct_MinimumLengths(t *testing.T) {
	m := newTestManager(t)

	_, err := m.CreateProduct(ProductInput{
		Name:           strptr("X"),
		SKU:            strptr("ab-100"),
		UnitPriceCents: i64ptr(500),
	})
	if !clinic.IsValidation(err) {
		t.Fatalf("expected validation error for one-character name, got %v", err)
	}

	_, err = m.CreateProduct(ProductInput{
		Name:           strptr("Gauze"),
		SKU:            strptr("ab"),
		UnitPriceCents: i64ptr(500),
	})
	if !clinic.IsValidation(err) {
		t.Fatalf("expected validation error for two-character SKU, got %v", err)
	}

	p := seedProduct(t, m)
	if _, err := m.UpdateProduct(p.ID, ProductInput{Name: strptr("Y")}); !clinic.IsValidation(err) {
		t.Fatalf("expected validation error updating to short name, got %v", err)
	}
	if _, err := m.UpdateProduct(p.ID, ProductInput{SKU: strptr("zz")}); !clinic.IsValidation(err) {
		t.Fatalf("expected validation error updating to short SKU, got %v", err)
	}
}

func TestCreateCategory_NameLength(t *testing.T) {
	m := newTestManager(t)

	if _, err := m.CreateCategory("V", "", nil); !clinic.IsValidation(err) {
		t.Fatalf("expected validation error for one-character category name, got %v", err)
	}
	if _, err := m.CreateCategory("Vaccines", "", nil); err != nil {
		t.Fatalf("expected two-plus character category name to be accepted, got %v", err)
	}
}
