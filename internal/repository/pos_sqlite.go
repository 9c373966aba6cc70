package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"tillpoint-pos-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLitePOSRepository implements POSRepository using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLitePOSRepository struct {
	db *sql.DB
}

// NewSQLitePOSRepository creates a new SQLite POS repository.
// dbPath is the path to the SQLite database file (e.g., "./data/pos.db")
func NewSQLitePOSRepository(dbPath string) (*SQLitePOSRepository, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite only supports 1 writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := createPOSTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLitePOSRepository] Initialized with database: %s", dbPath)
	return &SQLitePOSRepository{db: db}, nil
}

// createPOSTables creates the products, customers and sales tables.
func createPOSTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		price REAL NOT NULL,
		stock INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS customers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		lifetime_value REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(name COLLATE NOCASE);
	CREATE TABLE IF NOT EXISTS sales (
		id TEXT PRIMARY KEY,
		product_id TEXT NOT NULL,
		customer_id TEXT,
		quantity INTEGER NOT NULL,
		unit_price REAL NOT NULL,
		total_amount REAL NOT NULL,
		payment_method TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sales_created_at ON sales(created_at);
	`
	_, err := db.Exec(query)
	return err
}

// ListProducts returns the full product catalogue.
func (r *SQLitePOSRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
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
func (r *SQLitePOSRepository) GetProduct(ctx context.Context, id string) (*model.Product, error) {
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
func (r *SQLitePOSRepository) SetStock(ctx context.Context, productID string, stock int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock = ? WHERE id = ?`, stock, productID)
	if err != nil {
		return fmt.Errorf("failed to set stock for %s: %w", productID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("product %s not found", productID)
	}
	return nil
}

// AdjustStock changes a product's stock by delta.
func (r *SQLitePOSRepository) AdjustStock(ctx context.Context, productID string, delta int) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock = stock + ? WHERE id = ?`, delta, productID)
	if err != nil {
		return fmt.Errorf("failed to adjust stock for %s: %w", productID, err)
	}
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
func (r *SQLitePOSRepository) ListCustomers(ctx context.Context) ([]model.Customer, error) {
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
func (r *SQLitePOSRepository) FindCustomerByName(ctx context.Context, name string) (*model.Customer, error) {
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
func (r *SQLitePOSRepository) InsertCustomer(ctx context.Context, customer model.Customer) error {
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
func (r *SQLitePOSRepository) AddLifetimeValue(ctx context.Context, customerID, name string, amount float64) error {
	query := `
		INSERT INTO customers (id, name, lifetime_value)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			lifetime_value = lifetime_value + excluded.lifetime_value`

	_, err := r.db.ExecContext(ctx, query, customerID, name, amount)
	if err != nil {
		return fmt.Errorf("failed to add lifetime value for %s: %w", customerID, err)
	}
	return nil
}

// InsertSale records a sale. Re-inserting the same sale ID is a no-op.
func (r *SQLitePOSRepository) InsertSale(ctx context.Context, sale model.Sale) error {
	query := `
		INSERT INTO sales (id, product_id, customer_id, quantity, unit_price,
			total_amount, payment_method, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`

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
func (r *SQLitePOSRepository) ListSales(ctx context.Context) ([]model.Sale, error) {
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

// SeedDemoProducts inserts a small catalogue if the products table is empty.
func (r *SQLitePOSRepository) SeedDemoProducts(ctx context.Context) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	demo := []model.Product{
		{ID: "espresso-single", Name: "Single Espresso", Price: 2.50, Stock: 200},
		{ID: "latte-regular", Name: "Regular Latte", Price: 4.25, Stock: 150},
		{ID: "croissant-butter", Name: "Butter Croissant", Price: 3.00, Stock: 40},
		{ID: "beans-house-250g", Name: "House Blend Beans 250g", Price: 11.00, Stock: 25},
	}
	for _, p := range demo {
		if _, err := r.db.ExecContext(ctx,
			`INSERT INTO products (id, name, price, stock) VALUES (?, ?, ?, ?)`,
			p.ID, p.Name, p.Price, p.Stock); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}
	log.Printf("[SQLitePOSRepository] Seeded %d demo products", len(demo))
	return nil
}

// Ping verifies the database is reachable.
func (r *SQLitePOSRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLitePOSRepository) Close() error {
	return r.db.Close()
}

// Ensure SQLitePOSRepository implements POSRepository
var _ POSRepository = (*SQLitePOSRepository)(nil)
