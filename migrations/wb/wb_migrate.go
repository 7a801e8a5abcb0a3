package wb

import (
	"database/sql"
	"fmt"
	"log"
)

type CreateCabinetsTable struct{}

func (m *CreateCabinetsTable) UpMigration(db *sql.DB) error {
	if ok, err := checkAndSkipMigration(db, "cabinets"); err != nil {
		return err
	} else if ok {
		return nil
	}
	query := `
	CREATE TABLE IF NOT EXISTS cabinets (
		id SERIAL PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		api_token TEXT NOT NULL, -- зашифрованный токен WB
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP NOT NULL
	);`
	if err := executeAndMarkMigration(db, query, "cabinets"); err != nil {
		return err
	}
	log.Println("Migration 'cabinets' completed successfully.")
	return nil
}

type CreateProductsTable struct{}

func (m *CreateProductsTable) UpMigration(db *sql.DB) error {
	if ok, err := checkAndSkipMigration(db, "products"); err != nil {
		return err
	} else if ok {
		return nil
	}
	query := `
	CREATE TABLE IF NOT EXISTS products (
		nm_id BIGINT PRIMARY KEY, -- артикул WB, глобально уникален
		cabinet_id INT NOT NULL REFERENCES cabinets(id) ON DELETE CASCADE,
		vendor_code VARCHAR(100),
		barcode VARCHAR(50),
		title VARCHAR(500),
		manager VARCHAR(255), -- теги менеджера через запятую
		image_url VARCHAR(500),
		stock_wb INT NOT NULL DEFAULT 0,
		stock_own INT NOT NULL DEFAULT 0,
		last_update TIMESTAMP WITH TIME ZONE,
		sizes JSONB,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_product_vendor_code ON products(vendor_code);
	CREATE INDEX IF NOT EXISTS idx_product_cabinet_manager ON products(cabinet_id, manager);`
	if err := executeAndMarkMigration(db, query, "products"); err != nil {
		return err
	}
	log.Println("Migration 'products' completed successfully.")
	return nil
}

type CreateSalesHistoryTable struct{}

func (m *CreateSalesHistoryTable) UpMigration(db *sql.DB) error {
	if ok, err := checkAndSkipMigration(db, "sales_history"); err != nil {
		return err
	} else if ok {
		return nil
	}
	query := `
	CREATE TABLE IF NOT EXISTS sales_history (
		id SERIAL PRIMARY KEY,
		nm_id BIGINT NOT NULL REFERENCES products(nm_id) ON DELETE CASCADE,
		cabinet_id INT NOT NULL REFERENCES cabinets(id) ON DELETE CASCADE,
		date DATE NOT NULL,
		orders_count INT NOT NULL DEFAULT 0,
		buyouts_count INT NOT NULL DEFAULT 0,
		revenue NUMERIC(12, 2) NOT NULL DEFAULT 0,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP NOT NULL,
		CONSTRAINT uq_sales_nm_date UNIQUE(nm_id, date)
	);
	CREATE INDEX IF NOT EXISTS idx_sales_cabinet_date ON sales_history(cabinet_id, date);`
	if err := executeAndMarkMigration(db, query, "sales_history"); err != nil {
		return err
	}
	log.Println("Migration 'sales_history' completed successfully.")
	return nil
}

type CreateSyncHistoryTable struct{}

func (m *CreateSyncHistoryTable) UpMigration(db *sql.DB) error {
	if ok, err := checkAndSkipMigration(db, "sync_history"); err != nil {
		return err
	} else if ok {
		return nil
	}
	query := `
	CREATE TABLE IF NOT EXISTS sync_history (
		id SERIAL PRIMARY KEY,
		cabinet_id INT NOT NULL REFERENCES cabinets(id) ON DELETE CASCADE,
		sync_type VARCHAR(20) NOT NULL,
		last_sync_date TIMESTAMP WITH TIME ZONE NOT NULL,
		status VARCHAR(20) NOT NULL,
		error_message TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP NOT NULL,
		CONSTRAINT uq_sync_cabinet_type UNIQUE(cabinet_id, sync_type)
	);`
	if err := executeAndMarkMigration(db, query, "sync_history"); err != nil {
		return err
	}
	log.Println("Migration 'sync_history' completed successfully.")
	return nil
}

func checkAndSkipMigration(db *sql.DB, migrationName string) (bool, error) {
	var migrationExists bool
	err := db.QueryRow("SELECT EXISTS (SELECT 1 FROM migrations.migrations WHERE name = $1)", migrationName).Scan(&migrationExists)
	if err != nil {
		return migrationExists, fmt.Errorf("failed to check migration status: %w", err)
	}
	if migrationExists {
		log.Printf("Migration '%s' already completed. Skipping.\n", migrationName)
		return migrationExists, nil
	}
	return migrationExists, nil
}

func executeAndMarkMigration(db *sql.DB, query string, migrationName string) error {
	_, err := db.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to execute migration '%s': %w", migrationName, err)
	}
	_, err = db.Exec("INSERT INTO migrations.migrations (name, time) VALUES ($1, current_timestamp)", migrationName)
	if err != nil {
		return fmt.Errorf("failed to mark migration '%s' as complete: %w", migrationName, err)
	}
	return nil
}
