package database

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// Migrate runs all database migrations
func (db *DB) Migrate() error {
	log.Info().Msg("Running database migrations")

	// Create migrations table if not exists
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	log.Debug().Int("current_version", currentVersion).Msg("Current schema version")

	// Run migrations
	for _, migration := range migrations {
		if migration.Version > currentVersion {
			log.Info().Int("version", migration.Version).Str("name", migration.Name).Msg("Applying migration")

			if err := db.Transaction(func(tx *sql.Tx) error {
				// Execute migration SQL - split by semicolons and execute each statement
				// This ensures each statement is properly executed and errors are caught
				statements := splitSQLStatements(migration.SQL)
				for i, stmt := range statements {
					if _, err := tx.Exec(stmt); err != nil {
						return fmt.Errorf("migration %d statement %d failed: %w", migration.Version, i+1, err)
					}
				}

				// Record migration
				if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", migration.Version); err != nil {
					return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
				}

				return nil
			}); err != nil {
				return err
			}
		}
	}

	log.Info().Msg("Database migrations complete")
	return nil
}

type migration struct {
	Version int
	Name    string
	SQL     string
}

// splitSQLStatements splits a SQL string into individual statements.
// It handles comments and only returns non-empty statements.
func splitSQLStatements(sql string) []string {
	var statements []string
	var current strings.Builder

	lines := strings.SplitSeq(sql, "\n")
	for line := range lines {
		trimmed := strings.TrimSpace(line)
		// Skip empty lines and comments
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		// Check if line ends with semicolon (statement complete)
		if strings.HasSuffix(trimmed, ";") {
			stmt := strings.TrimSpace(current.String())
			if stmt != "" && stmt != ";" {
				statements = append(statements, stmt)
			}
			current.Reset()
		}
	}

	// Handle any remaining content without trailing semicolon
	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		statements = append(statements, remaining)
	}

	return statements
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "initial_schema",
		SQL: `
			-- Staff accounts
			CREATE TABLE users (
				id INTEGER PRIMARY KEY,
				username TEXT NOT NULL UNIQUE,
				email TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL DEFAULT 'receptionist',
				first_name TEXT NOT NULL,
				last_name TEXT NOT NULL,
				is_active INTEGER NOT NULL DEFAULT 1,
				failed_login_attempts INTEGER NOT NULL DEFAULT 0,
				locked_until TIMESTAMP,
				last_login TIMESTAMP,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);

			-- Sessions for web UI
			CREATE TABLE sessions (
				id TEXT PRIMARY KEY,
				user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				expires_at TIMESTAMP NOT NULL,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX idx_sessions_expires ON sessions(expires_at);

			-- Pet owners
			CREATE TABLE clients (
				id INTEGER PRIMARY KEY,
				first_name TEXT NOT NULL,
				last_name TEXT NOT NULL,
				email TEXT UNIQUE,
				phone TEXT,
				address TEXT,
				identification_number TEXT UNIQUE,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX idx_clients_last_name ON clients(last_name);

			CREATE TABLE pets (
				id INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				species TEXT NOT NULL DEFAULT 'other',
				breed TEXT,
				birth_date DATE,
				gender TEXT NOT NULL DEFAULT 'unknown',
				color TEXT,
				weight_kg REAL,
				microchip_number TEXT UNIQUE,
				client_id INTEGER NOT NULL REFERENCES clients(id),
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX idx_pets_client ON pets(client_id);

			CREATE TABLE appointments (
				id INTEGER PRIMARY KEY,
				pet_id INTEGER NOT NULL REFERENCES pets(id),
				veterinarian_id INTEGER REFERENCES users(id),
				appointment_date TIMESTAMP NOT NULL,
				duration_minutes INTEGER NOT NULL DEFAULT 30,
				appointment_type TEXT NOT NULL DEFAULT 'consultation',
				status TEXT NOT NULL DEFAULT 'scheduled',
				reason TEXT,
				notes TEXT,
				created_by INTEGER REFERENCES users(id),
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX idx_appointments_pet ON appointments(pet_id);
			CREATE INDEX idx_appointments_date ON appointments(appointment_date);
			CREATE INDEX idx_appointments_status ON appointments(status);

			-- Key/value settings
			CREATE TABLE settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
	{
		Version: 2,
		Name:    "inventory",
		SQL: `
			CREATE TABLE categories (
				id INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT,
				parent_id INTEGER REFERENCES categories(id),
				is_active INTEGER NOT NULL DEFAULT 1,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);

			CREATE TABLE products (
				id INTEGER PRIMARY KEY,
				name TEXT NOT NULL,
				sku TEXT NOT NULL UNIQUE,
				description TEXT,
				category_id INTEGER REFERENCES categories(id),
				product_type TEXT NOT NULL DEFAULT 'supply',
				unit_price_cents INTEGER NOT NULL DEFAULT 0,
				cost_price_cents INTEGER NOT NULL DEFAULT 0,
				status TEXT NOT NULL DEFAULT 'active',
				minimum_stock INTEGER NOT NULL DEFAULT 0,
				reorder_point INTEGER NOT NULL DEFAULT 0,
				supplier TEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX idx_products_category ON products(category_id);
			CREATE INDEX idx_products_status ON products(status);

			CREATE TABLE stock_movements (
				id INTEGER PRIMARY KEY,
				product_id INTEGER NOT NULL REFERENCES products(id),
				movement_type TEXT NOT NULL,
				quantity INTEGER NOT NULL,
				reference TEXT,
				notes TEXT,
				created_by INTEGER REFERENCES users(id),
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX idx_stock_movements_product ON stock_movements(product_id);
		`,
	},
	{
		Version: 3,
		Name:    "billing",
		SQL: `
			CREATE TABLE invoices (
				id INTEGER PRIMARY KEY,
				client_id INTEGER NOT NULL REFERENCES clients(id),
				appointment_id INTEGER REFERENCES appointments(id),
				invoice_number TEXT NOT NULL UNIQUE,
				issue_date TIMESTAMP NOT NULL,
				due_date TIMESTAMP NOT NULL,
				status TEXT NOT NULL DEFAULT 'draft',
				tax_percentage REAL NOT NULL DEFAULT 0,
				notes TEXT,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX idx_invoices_client ON invoices(client_id);
			CREATE INDEX idx_invoices_status ON invoices(status);

			CREATE TABLE invoice_items (
				id INTEGER PRIMARY KEY,
				invoice_id INTEGER NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
				product_id INTEGER REFERENCES products(id),
				description TEXT NOT NULL,
				quantity INTEGER NOT NULL,
				unit_price_cents INTEGER NOT NULL DEFAULT 0,
				discount_percentage REAL NOT NULL DEFAULT 0,
				created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX idx_invoice_items_invoice ON invoice_items(invoice_id);
		`,
	},
}
