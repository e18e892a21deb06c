package driving

import (
	"context"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// CustomerService looks up individual customers in the tabular source.
type CustomerService interface {
	// Get returns the raw row for a customer.
	// Returns domain.ErrNotFound for an unknown id.
	Get(ctx context.Context, id int64) (map[string]string, error)

	// Stats returns the customer profile including its risk level.
	Stats(ctx context.Context, id int64) (*domain.CustomerStats, error)
}
