package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Notifier is told about every sale that was stored.
type Notifier interface {
	SaleRecorded(ctx context.Context, sale Sale) error
}

type nopNotifier struct{}

func (nopNotifier) SaleRecorded(context.Context, Sale) error { return nil }

// Service provides high-level sales management operations on a Storage backend.
type Service struct {
	storage  Storage
	logger   *zap.Logger
	notifier Notifier
}

// NewService creates a new Service. A nil logger falls back to a no-op logger
// and a nil notifier disables notifications.
func NewService(storage Storage, logger *zap.Logger, notifier Notifier) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}

	return &Service{
		storage:  storage,
		logger:   logger,
		notifier: notifier,
	}
}

// CreateSale validates the candidate again and appends it to the store.
// Validation failures are returned as ValidationErrors; storage failures wrap ErrStorageFault.
func (s *Service) CreateSale(ctx context.Context, c Candidate) (*Sale, error) {
	if err := ValidateCandidate(c); err != nil {
		s.logger.Warn("rejected sale candidate", zap.Error(err))
		return nil, err
	}

	sale, err := s.storage.Append(ctx, c)
	if err != nil {
		s.logger.Error("failed to save sale",
			zap.String("product", c.Product),
			zap.String("customer", c.Customer),
			zap.Error(err),
		)
		if errors.Is(err, ErrStorageFault) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageFault, err)
	}

	s.logger.Info("sale created",
		zap.String("sale_id", sale.ID),
		zap.String("product", sale.Product),
		zap.String("customer", sale.Customer),
		zap.Float64("amount", sale.Amount),
		zap.Time("date", sale.Date),
	)

	if err := s.notifier.SaleRecorded(ctx, sale); err != nil {
		s.logger.Warn("failed to publish sale event", zap.String("sale_id", sale.ID), zap.Error(err))
	}
	return &sale, nil
}

// ListSales returns every stored sale, most recent first.
func (s *Service) ListSales(ctx context.Context) ([]Sale, error) {
	all, err := s.listAll(ctx)
	if err != nil {
		return nil, err
	}
	SortByDateDesc(all)
	return all, nil
}

// Dashboard derives the filtered view, its aggregates and the filter options
// from a fresh snapshot of the store.
func (s *Service) Dashboard(ctx context.Context, c Criteria) (Dashboard, error) {
	all, err := s.listAll(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	summary := Apply(all, c)
	SortByDateDesc(summary.Filtered)
	dash := Dashboard{
		Summary:       summary,
		Chart:         ProductTotals(summary),
		FilterOptions: Options(all),
	}

	s.logger.Debug("dashboard computed",
		zap.String("product_filter", c.Product),
		zap.String("customer_filter", c.Customer),
		zap.Int("results_count", len(summary.Filtered)),
		zap.Float64("total", summary.Total),
	)
	return dash, nil
}

// Seed appends the given sales when the store is still empty.
func (s *Service) Seed(ctx context.Context, seed []Candidate) error {
	all, err := s.listAll(ctx)
	if err != nil {
		return err
	}
	if len(all) > 0 {
		s.logger.Debug("store already populated, skipping seed", zap.Int("count", len(all)))
		return nil
	}
	for _, c := range seed {
		if _, err := s.CreateSale(ctx, c); err != nil {
			return fmt.Errorf("seed sale %q: %w", c.Product, err)
		}
	}
	s.logger.Info("seeded demo sales", zap.Int("count", len(seed)))
	return nil
}

func (s *Service) listAll(ctx context.Context) ([]Sale, error) {
	all, err := s.storage.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to get all sales from storage", zap.Error(err))
		if errors.Is(err, ErrStorageFault) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageFault, err)
	}
	return all, nil
}

// DemoSales returns the sample sales the dashboard starts with.
func DemoSales() []Candidate {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return []Candidate{
		{Product: "Laptop", Customer: "Acme Corp", Amount: 1200, Date: day(2024, time.June, 15)},
		{Product: "Keyboard", Customer: "Globex Inc", Amount: 75, Date: day(2024, time.June, 20)},
		{Product: "Monitor", Customer: "Acme Corp", Amount: 300, Date: day(2024, time.July, 1)},
		{Product: "Laptop", Customer: "Stark Industries", Amount: 1500, Date: day(2024, time.July, 5)},
		{Product: "Mouse", Customer: "Globex Inc", Amount: 25, Date: day(2024, time.July, 10)},
	}
}
