/*
Package sqlite provides a SQLite-backed implementation of sales.Storage.

The sales table is append-only: the store issues INSERT and SELECT statements
only. Appends are serialized with a mutex so ID assignment and insert happen as
one step; reads take the shared lock and may run concurrently.

Usage:

	store, err := sqlite.New("./data/sales.db")
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	svc := sales.NewService(store, logger, nil)
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"sales_tracker/internal/sales"
)

// Store implements sales.Storage on top of a SQLite database file.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ sales.Storage = (*Store)(nil)

// New opens (creating if needed) the database at dbPath and applies migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Append inserts the candidate under a fresh UUID and returns the stored sale.
func (s *Store) Append(ctx context.Context, c sales.Candidate) (sales.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sale := sales.Sale{
		ID:       uuid.NewString(),
		Product:  c.Product,
		Customer: c.Customer,
		Amount:   c.Amount,
		Date:     c.Date,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sales (id, product, customer, amount, sold_at) VALUES (?, ?, ?, ?, ?)`,
		sale.ID, sale.Product, sale.Customer, sale.Amount, sale.Date.Format(time.RFC3339Nano),
	)
	if err != nil {
		return sales.Sale{}, fmt.Errorf("%w: insert sale: %w", sales.ErrStorageFault, err)
	}
	return sale, nil
}

// ListAll returns every stored sale in insertion order.
func (s *Store) ListAll(ctx context.Context) ([]sales.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product, customer, amount, sold_at FROM sales ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("%w: query sales: %w", sales.ErrStorageFault, err)
	}
	defer rows.Close()

	out := []sales.Sale{}
	for rows.Next() {
		var (
			sale   sales.Sale
			soldAt string
		)
		if err := rows.Scan(&sale.ID, &sale.Product, &sale.Customer, &sale.Amount, &soldAt); err != nil {
			return nil, fmt.Errorf("%w: scan sale: %w", sales.ErrStorageFault, err)
		}
		sale.Date, err = time.Parse(time.RFC3339Nano, soldAt)
		if err != nil {
			return nil, fmt.Errorf("%w: parse sale %s date %q: %w", sales.ErrStorageFault, sale.ID, soldAt, err)
		}
		out = append(out, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate sales: %w", sales.ErrStorageFault, err)
	}
	return out, nil
}
