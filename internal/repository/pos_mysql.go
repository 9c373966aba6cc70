package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"tillpoint-pos-api/internal/model"
)

// MySQLPOSRepository implements POSRepository using MySQL.
// The *sql.DB is injected so the caller controls pool settings and lifetime.
type MySQLPOSRepository struct {
	db *sql.DB
}

// NewMySQLPOSRepository creates a new MySQL POS repository and ensures the
// schema exists.
func NewMySQLPOSRepository(db *sql.DB) (*MySQLPOSRepository, error) {
	r := &MySQLPOSRepository{db: db}
	if err := r.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return r, nil
}

func (r *MySQLPOSRepository) createTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			price DOUBLE NOT NULL,
			stock INT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS customers (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			lifetime_value DOUBLE NOT NULL DEFAULT 0,
			INDEX idx_customers_name (name)
		)`,
		`CREATE TABLE IF NOT EXISTS sales (
			id VARCHAR(64) PRIMARY KEY,
			product_id VARCHAR(64) NOT NULL,
			customer_id VARCHAR(64),
			quantity INT NOT NULL,
			unit_price DOUBLE NOT NULL,
			total_amount DOUBLE NOT NULL,
			payment_method VARCHAR(32) NOT NULL,
			status VARCHAR(32) NOT NULL,
			created_at DATETIME NOT NULL,
			INDEX idx_sales_created_at (created_at)
		)`,
	}
	for _, stmt := range statements {
		if _, err := r.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ListProducts returns the full product catalogue.
func (r *MySQLPOSRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, price, stock FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Stock); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetProduct retrieves a product by ID.
func (r *MySQLPOSRepository) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, price, stock FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return &p, nil
}

// SetStock sets a product's stock to an absolute value.
func (r *MySQLPOSRepository) SetStock(ctx context.Context, productID string, stock int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock = ? WHERE id = ?`, stock, productID)
	if err != nil {
		return fmt.Errorf("failed to set stock for %s: %w", productID, err)
	}
	return requireProductRow(result, productID)
}

// AdjustStock changes a product's stock by delta.
func (r *MySQLPOSRepository) AdjustStock(ctx context.Context, productID string, delta int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock = stock + ? WHERE id = ?`, delta, productID)
	if err != nil {
		return fmt.Errorf("failed to adjust stock for %s: %w", productID, err)
	}
	return requireProductRow(result, productID)
}

func requireProductRow(result sql.Result, productID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("product %s not found", productID)
	}
	return nil
}

// ListCustomers returns all customer records.
func (r *MySQLPOSRepository) ListCustomers(ctx context.Context) ([]model.Customer, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, lifetime_value FROM customers ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.LifetimeValue); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// FindCustomerByName performs a case-insensitive name lookup.
// MySQL's default collation already compares case-insensitively; LOWER is
// applied anyway so behavior does not depend on collation settings.
func (r *MySQLPOSRepository) FindCustomerByName(ctx context.Context, name string) (*model.Customer, error) {
	var c model.Customer
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, lifetime_value FROM customers WHERE LOWER(name) = LOWER(?) LIMIT 1`, name,
	).Scan(&c.ID, &c.Name, &c.LifetimeValue)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer %q: %w", name, err)
	}
	return &c, nil
}

// InsertCustomer creates a customer record.
func (r *MySQLPOSRepository) InsertCustomer(ctx context.Context, customer model.Customer) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO customers (id, name, lifetime_value) VALUES (?, ?, ?)`,
		customer.ID, customer.Name, customer.LifetimeValue)
	if err != nil {
		return fmt.Errorf("failed to insert customer %s: %w", customer.ID, err)
	}
	return nil
}

// AddLifetimeValue increments a customer's lifetime-value aggregate,
// inserting the record if it does not exist yet.
func (r *MySQLPOSRepository) AddLifetimeValue(ctx context.Context, customerID, name string, amount float64) error {
	query := `
		INSERT INTO customers (id, name, lifetime_value)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE lifetime_value = lifetime_value + VALUES(lifetime_value)`

	_, err := r.db.ExecContext(ctx, query, customerID, name, amount)
	if err != nil {
		return fmt.Errorf("failed to add lifetime value for %s: %w", customerID, err)
	}
	return nil
}

// InsertSale records a sale. Re-inserting the same sale ID is a no-op.
func (r *MySQLPOSRepository) InsertSale(ctx context.Context, sale model.Sale) error {
	query := `
		INSERT IGNORE INTO sales (id, product_id, customer_id, quantity, unit_price,
			total_amount, payment_method, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	customerID := sql.NullString{String: sale.CustomerID, Valid: sale.CustomerID != ""}
	_, err := r.db.ExecContext(ctx, query,
		sale.ID, sale.ProductID, customerID, sale.Quantity, sale.UnitPrice,
		sale.TotalAmount, sale.PaymentMethod, sale.Status, sale.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert sale %s: %w", sale.ID, err)
	}
	return nil
}

// ListSales returns recorded sales, newest first.
func (r *MySQLPOSRepository) ListSales(ctx context.Context) ([]model.Sale, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, product_id, customer_id, quantity, unit_price,
			total_amount, payment_method, status, created_at
		FROM sales ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	sales := []model.Sale{}
	for rows.Next() {
		var s model.Sale
		var customerID sql.NullString
		if err := rows.Scan(&s.ID, &s.ProductID, &customerID, &s.Quantity, &s.UnitPrice,
			&s.TotalAmount, &s.PaymentMethod, &s.Status, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		s.CustomerID = customerID.String
		sales = append(sales, s)
	}
	return sales, rows.Err()
}

// Ping verifies the database is reachable.
func (r *MySQLPOSRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *MySQLPOSRepository) Close() error {
	return r.db.Close()
}

// Ensure MySQLPOSRepository implements POSRepository
var _ POSRepository = (*MySQLPOSRepository)(nil)
