package services

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driving"
)

// Ensure RetrieverService implements the interface.
var _ driving.Retriever = (*RetrieverService)(nil)

// Tier sizes of the retriever.
const (
	// SummaryK is the number of summary documents fetched first.
	SummaryK = 1

	// GeneralK is the number of unfiltered documents fetched second.
	GeneralK = 4
)

// RetrieverService selects context in two tiers: the aggregate summary,
// then the general nearest neighbours not already present.
type RetrieverService struct {
	index driving.IndexService
}

// NewRetrieverService creates a tiered retriever over index.
func NewRetrieverService(index driving.IndexService) *RetrieverService {
	return &RetrieverService{index: index}
}

// Retrieve returns at most SummaryK+GeneralK documents, summary first.
// With no summary in the index the result is exactly the general tier.
// Both tiers read the same index version, even if a rebuild lands between them.
func (r *RetrieverService) Retrieve(ctx context.Context, query string) ([]domain.Document, error) {
	snap, err := r.index.Snapshot(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "retrieve")
	}
	defer snap.Release()

	summary, err := snap.Search(ctx, query, SummaryK, domain.SummaryFilter())
	if err != nil {
		return nil, eris.Wrap(err, "retrieve summary")
	}

	general, err := snap.Search(ctx, query, GeneralK, nil)
	if err != nil {
		return nil, eris.Wrap(err, "retrieve general")
	}

	seen := make(map[string]struct{}, len(summary))
	docs := make([]domain.Document, 0, len(summary)+len(general))
	for _, d := range summary {
		seen[d.ID()] = struct{}{}
		docs = append(docs, d)
	}
	for _, d := range general {
		if _, dup := seen[d.ID()]; dup {
			continue
		}
		seen[d.ID()] = struct{}{}
		docs = append(docs, d)
	}
	return docs, nil
}

// RetrieveAsync runs Retrieve in a goroutine. The channel is buffered so
// the goroutine never blocks if the caller stops listening.
func (r *RetrieverService) RetrieveAsync(ctx context.Context, query string) <-chan driving.RetrieveResult {
	out := make(chan driving.RetrieveResult, 1)
	go func() {
		defer close(out)
		docs, err := r.Retrieve(ctx, query)
		out <- driving.RetrieveResult{Documents: docs, Err: err}
	}()
	return out
}
