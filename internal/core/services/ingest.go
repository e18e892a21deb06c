package services

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
	"github.com/custodia-labs/ragbank/internal/logger"
)

// IngestResult is the unified document set produced from the raw sources.
type IngestResult struct {
	// Table is the loaded customer table.
	Table *domain.Table

	// Documents holds the summary first, then records, then page chunks.
	Documents []domain.Document

	// Records is the number of record documents.
	Records int

	// Pages is the number of pages read before splitting.
	Pages int
}

// IngestService turns the configured sources into documents ready to index.
type IngestService struct {
	tables   driven.TableNormaliser
	pages    driven.PageLoader
	splitter driven.Splitter
}

// NewIngestService creates an ingest service. pages and splitter may be nil,
// in which case no documents are loaded from PDFs or no splitting occurs.
func NewIngestService(tables driven.TableNormaliser, pages driven.PageLoader, splitter driven.Splitter) *IngestService {
	return &IngestService{
		tables:   tables,
		pages:    pages,
		splitter: splitter,
	}
}

// Ingest loads the table and the PDF directory and returns the document set.
// A data format error in either source aborts ingestion.
func (s *IngestService) Ingest(ctx context.Context, data domain.DataSettings, sampleSize int) (*IngestResult, error) {
	if s.tables == nil {
		return nil, eris.Wrap(domain.ErrConfiguration, "ingest: no table normaliser")
	}

	logger.Section("Ingest")
	logger.Info("Loading table %s", data.CSVPath)
	table, err := s.tables.LoadTable(ctx, data.CSVPath)
	if err != nil {
		return nil, eris.Wrapf(err, "load table %s", data.CSVPath)
	}

	summary, err := s.tables.Summarise(table)
	if err != nil {
		return nil, eris.Wrap(err, "summarise table")
	}

	records, err := s.tables.Records(table, sampleSize)
	if err != nil {
		return nil, eris.Wrap(err, "create record documents")
	}
	logger.Info("Table: %d rows, %d record documents", table.Len(), len(records))

	docs := make([]domain.Document, 0, 1+len(records))
	docs = append(docs, summary)
	for _, r := range records {
		docs = append(docs, r)
	}

	var pageCount int
	if s.pages != nil && data.PDFDir != "" {
		pages, err := s.pages.LoadDirectory(ctx, data.PDFDir)
		if err != nil {
			return nil, eris.Wrapf(err, "load pdf directory %s", data.PDFDir)
		}
		pageCount = len(pages)
		for _, p := range pages {
			docs = append(docs, p)
		}
		logger.Info("PDFs: %d pages", pageCount)
	}

	if s.splitter != nil {
		docs, err = s.splitter.Split(ctx, docs)
		if err != nil {
			return nil, eris.Wrapf(err, "split documents with %s", s.splitter.Name())
		}
	}
	logger.Info("Unified document set: %d documents", len(docs))

	return &IngestResult{
		Table:     table,
		Documents: docs,
		Records:   len(records),
		Pages:     pageCount,
	}, nil
}
