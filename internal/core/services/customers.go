package services

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
	"github.com/custodia-labs/ragbank/internal/core/ports/driving"
	"github.com/custodia-labs/ragbank/internal/normalisers/tabular"
)

// Ensure CustomerService implements the interface.
var _ driving.CustomerService = (*CustomerService)(nil)

// CustomerService answers per-customer lookups from the tabular source.
// The table is loaded on first use unless one is provided with Use.
type CustomerService struct {
	tables driven.TableNormaliser
	path   string

	mu    sync.RWMutex
	table *domain.Table
}

// NewCustomerService creates a customer directory over the table at path.
func NewCustomerService(tables driven.TableNormaliser, path string) *CustomerService {
	return &CustomerService{
		tables: tables,
		path:   path,
	}
}

// Use replaces the cached table, typically after a rebuild.
func (s *CustomerService) Use(table *domain.Table) {
	s.mu.Lock()
	s.table = table
	s.mu.Unlock()
}

// Get returns the raw row for a customer.
func (s *CustomerService) Get(ctx context.Context, id int64) (map[string]string, error) {
	table, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	row, ok := tabular.FindCustomer(table, id)
	if !ok {
		return nil, eris.Wrapf(domain.ErrNotFound, "customer %d", id)
	}
	return row, nil
}

// Stats returns the customer profile including its risk level.
func (s *CustomerService) Stats(ctx context.Context, id int64) (*domain.CustomerStats, error) {
	row, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	score, err := parseNumber(row, "credit_score")
	if err != nil {
		return nil, err
	}
	balance, err := parseNumber(row, "balance")
	if err != nil {
		return nil, err
	}
	products, err := parseNumber(row, "products_number")
	if err != nil {
		return nil, err
	}

	return &domain.CustomerStats{
		CustomerID:     id,
		CreditScore:    int(score),
		Balance:        balance,
		ProductsNumber: int(products),
		IsActive:       isTruthy(row["active_member"]),
		Risk:           domain.ClassifyRisk(int(score), balance),
	}, nil
}

func (s *CustomerService) load(ctx context.Context) (*domain.Table, error) {
	s.mu.RLock()
	table := s.table
	s.mu.RUnlock()
	if table != nil {
		return table, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table != nil {
		return s.table, nil
	}
	if s.tables == nil {
		return nil, eris.Wrap(domain.ErrConfiguration, "customer directory has no table source")
	}
	loaded, err := s.tables.LoadTable(ctx, s.path)
	if err != nil {
		return nil, eris.Wrapf(err, "load customer table %s", s.path)
	}
	s.table = loaded
	return loaded, nil
}

func parseNumber(row map[string]string, column string) (float64, error) {
	raw := strings.TrimSpace(row[column])
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, eris.Wrapf(domain.ErrDataFormat, "%s %q is not numeric", column, raw)
	}
	return v, nil
}

func isTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true", "yes", "si", "sí":
		return true
	default:
		return false
	}
}
