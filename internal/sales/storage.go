package sales

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrStorageFault is returned when the backing store cannot read or persist sales.
var ErrStorageFault = errors.New("storage fault")

// ErrEmptyID is returned when trying to store a sale with an empty ID.
var ErrEmptyID = errors.New("empty sale ID")

// Storage is the main interface for our sales storage layer.
// Implementations are append-only: a stored sale is never updated or deleted.
type Storage interface {
	Append(ctx context.Context, c Candidate) (Sale, error)
	ListAll(ctx context.Context) ([]Sale, error)
}

// LocalStorage provides an in-memory implementation for storing sales.
type LocalStorage struct {
	mu    sync.RWMutex
	sales []Sale
	ids   map[string]struct{}
	newID func() string
}

// NewLocalStorage instantiates a new, empty LocalStorage.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		ids:   map[string]struct{}{},
		newID: uuid.NewString,
	}
}

// Append assigns a fresh ID to the candidate and stores it.
// Appends are serialized, so ID assignment never races and no write is lost.
func (l *LocalStorage) Append(_ context.Context, c Candidate) (Sale, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.newID()
	for _, taken := l.ids[id]; taken; _, taken = l.ids[id] {
		id = l.newID()
	}
	if id == "" {
		return Sale{}, ErrEmptyID
	}

	sale := Sale{
		ID:       id,
		Product:  c.Product,
		Customer: c.Customer,
		Amount:   c.Amount,
		Date:     c.Date,
	}
	l.sales = append(l.sales, sale)
	l.ids[id] = struct{}{}
	return sale, nil
}

// ListAll returns a copy of every stored sale.
func (l *LocalStorage) ListAll(_ context.Context) ([]Sale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Sale, len(l.sales))
	copy(out, l.sales)
	return out, nil
}
