// Package postprocessors chains document splitters that run between
// normalisation and indexing.
package postprocessors

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.Splitter = (*Pipeline)(nil)

// Pipeline chains multiple Splitters and runs them in order.
// A Pipeline is itself a Splitter.
type Pipeline struct {
	splitters []driven.Splitter
}

// NewPipeline creates a new processing pipeline with the given splitters.
// Splitters are executed in the order provided.
func NewPipeline(splitters ...driven.Splitter) *Pipeline {
	return &Pipeline{
		splitters: splitters,
	}
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string {
	return "pipeline"
}

// Split runs the documents through every splitter in order. Each splitter
// receives the output of the previous one.
func (p *Pipeline) Split(ctx context.Context, docs []domain.Document) ([]domain.Document, error) {
	for _, s := range p.splitters {
		before := len(docs)
		out, err := s.Split(ctx, docs)
		if err != nil {
			return nil, eris.Wrapf(err, "splitter %s", s.Name())
		}
		docs = out
		zap.L().Debug("splitter done",
			zap.String("splitter", s.Name()),
			zap.Int("in", before),
			zap.Int("out", len(docs)))
	}
	return docs, nil
}

// Add appends a splitter to the pipeline.
func (p *Pipeline) Add(s driven.Splitter) {
	p.splitters = append(p.splitters, s)
}

// Len returns the number of splitters in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.splitters)
}
