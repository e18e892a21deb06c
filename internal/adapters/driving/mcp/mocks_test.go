package mcp

import (
	"context"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// mockRAGService is a mock implementation of driving.RAGService.
type mockRAGService struct {
	answer   *domain.Answer
	docs     []domain.Document
	status   domain.IndexStatus
	err      error
	question string
}

func (m *mockRAGService) Ask(_ context.Context, question string) (*domain.Answer, error) {
	m.question = question
	return m.answer, m.err
}

func (m *mockRAGService) Retrieve(_ context.Context, query string) ([]domain.Document, error) {
	m.question = query
	return m.docs, m.err
}

func (m *mockRAGService) Rebuild(_ context.Context) (domain.IndexStatus, error) {
	return m.status, m.err
}

func (m *mockRAGService) EnsureIndex(_ context.Context) (domain.IndexStatus, error) {
	return m.status, m.err
}

func (m *mockRAGService) Status(_ context.Context) (domain.IndexStatus, error) {
	return m.status, m.err
}

// mockCustomerService is a mock implementation of driving.CustomerService.
type mockCustomerService struct {
	row   map[string]string
	stats *domain.CustomerStats
	err   error
}

func (m *mockCustomerService) Get(_ context.Context, _ int64) (map[string]string, error) {
	return m.row, m.err
}

func (m *mockCustomerService) Stats(_ context.Context, _ int64) (*domain.CustomerStats, error) {
	return m.stats, m.err
}
