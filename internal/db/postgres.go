package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/models"
)

type PostgresConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

func (c PostgresConfig) DSN() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, sslMode,
	)
}

// PostgresDB is the PostgreSQL-backed Store.
type PostgresDB struct {
	Conn *sql.DB
}

func NewPostgresDB(cfg PostgresConfig) (*PostgresDB, error) {
	return OpenPostgres(cfg.DSN(), cfg.MaxOpenConns, cfg.MaxIdleConns)
}

// OpenPostgres connects using a libpq connection string or URL.
func OpenPostgres(dsn string, maxOpen, maxIdle int) (*PostgresDB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if maxOpen > 0 {
		conn.SetMaxOpenConns(maxOpen)
	}
	if maxIdle > 0 {
		conn.SetMaxIdleConns(maxIdle)
	}
	conn.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Test connection
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Connected to PostgreSQL")
	return &PostgresDB{Conn: conn}, nil
}

func (db *PostgresDB) Close() error {
	return db.Conn.Close()
}

// Migrate creates the schema if it does not exist yet.
func (db *PostgresDB) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.Conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	log.Println("✅ Database schema is up to date")
	return nil
}

func (db *PostgresDB) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return db.run(ctx, nil, fn)
}

func (db *PostgresDB) View(ctx context.Context, fn func(tx Tx) error) error {
	return db.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (db *PostgresDB) run(ctx context.Context, opts *sql.TxOptions, fn func(tx Tx) error) error {
	tx, err := db.Conn.BeginTx(ctx, opts)
	if err != nil {
		return &models.StorageError{Op: "begin transaction", Err: err}
	}
	// No-op once committed; also runs when fn panics.
	defer tx.Rollback()

	if err := fn(pgTx{q: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type pgTx struct {
	q querier
}

func (t pgTx) Products() ProductStore   { return &ProductRepository{db: t.q} }
func (t pgTx) Customers() CustomerStore { return &CustomerRepository{db: t.q} }
func (t pgTx) Orders() OrderStore       { return &OrderRepository{db: t.q} }

var schema = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id          BIGSERIAL PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price       NUMERIC(12,2) NOT NULL CHECK (price >= 0),
		quantity    INTEGER NOT NULL CHECK (quantity >= 0),
		category    TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id         BIGSERIAL PRIMARY KEY,
		name       TEXT NOT NULL CHECK (name <> ''),
		email      TEXT NOT NULL DEFAULT '',
		phone      TEXT NOT NULL DEFAULT '',
		address    TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS customers_email_key ON customers (lower(email)) WHERE email <> ''`,
	`CREATE TABLE IF NOT EXISTS orders (
		id           BIGSERIAL PRIMARY KEY,
		customer_id  BIGINT NOT NULL REFERENCES customers (id),
		total_amount NUMERIC(14,2) NOT NULL CHECK (total_amount >= 0),
		status       TEXT NOT NULL CHECK (status IN ('New', 'InProcessing', 'ReadyToShip', 'Shipped', 'Delivered', 'Cancelled')),
		created_date TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS orders_customer_id_idx ON orders (customer_id)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id         BIGSERIAL PRIMARY KEY,
		order_id   BIGINT NOT NULL REFERENCES orders (id),
		product_id BIGINT NOT NULL REFERENCES products (id),
		quantity   INTEGER NOT NULL CHECK (quantity > 0),
		price      NUMERIC(12,2) NOT NULL CHECK (price >= 0)
	)`,
	`CREATE INDEX IF NOT EXISTS order_items_order_id_idx ON order_items (order_id)`,
	`CREATE INDEX IF NOT EXISTS order_items_product_id_idx ON order_items (product_id)`,
}
