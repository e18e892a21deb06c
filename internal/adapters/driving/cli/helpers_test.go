package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/mock"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driving"
)

type mockRAGService struct {
	mock.Mock
}

func (m *mockRAGService) Ask(ctx context.Context, question string) (*domain.Answer, error) {
	args := m.Called(ctx, question)
	answer, _ := args.Get(0).(*domain.Answer)
	return answer, args.Error(1)
}

func (m *mockRAGService) Retrieve(ctx context.Context, query string) ([]domain.Document, error) {
	args := m.Called(ctx, query)
	docs, _ := args.Get(0).([]domain.Document)
	return docs, args.Error(1)
}

func (m *mockRAGService) Rebuild(ctx context.Context) (domain.IndexStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.IndexStatus), args.Error(1)
}

func (m *mockRAGService) EnsureIndex(ctx context.Context) (domain.IndexStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.IndexStatus), args.Error(1)
}

func (m *mockRAGService) Status(ctx context.Context) (domain.IndexStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.IndexStatus), args.Error(1)
}

type mockCustomerService struct {
	mock.Mock
}

func (m *mockCustomerService) Get(ctx context.Context, id int64) (map[string]string, error) {
	args := m.Called(ctx, id)
	row, _ := args.Get(0).(map[string]string)
	return row, args.Error(1)
}

func (m *mockCustomerService) Stats(ctx context.Context, id int64) (*domain.CustomerStats, error) {
	args := m.Called(ctx, id)
	stats, _ := args.Get(0).(*domain.CustomerStats)
	return stats, args.Error(1)
}

type mockSettingsService struct {
	mock.Mock
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	args := m.Called()
	s, _ := args.Get(0).(*domain.AppSettings)
	return s, args.Error(1)
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	return m.Called(settings).Error(0)
}

func (m *mockSettingsService) Set(key, value string) error {
	return m.Called(key, value).Error(0)
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	return m.Called(provider, model, apiKey).Error(0)
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	return m.Called(provider, model, apiKey).Error(0)
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	return m.Called().Error(0)
}

func (m *mockSettingsService) ValidateLLMConfig() error {
	return m.Called().Error(0)
}

func (m *mockSettingsService) IndexState() (string, time.Time) {
	args := m.Called()
	return args.String(0), args.Get(1).(time.Time)
}

func (m *mockSettingsService) RecordIndexBuild(fingerprint string, builtAt time.Time) error {
	return m.Called(fingerprint, builtAt).Error(0)
}

var (
	_ driving.RAGService      = (*mockRAGService)(nil)
	_ driving.CustomerService = (*mockCustomerService)(nil)
	_ driving.SettingsService = (*mockSettingsService)(nil)
)

// setupTestServices installs mocks in place of the wired services and
// restores the originals when the test ends.
func setupTestServices(t *testing.T) (*mockRAGService, *mockCustomerService, *mockSettingsService) {
	t.Helper()

	origRAG, origCustomers, origSettings := ragService, customerService, settingsService
	origWireRAG, origWireSettings := wireRAG, wireSettings

	rag := &mockRAGService{}
	customers := &mockCustomerService{}
	settings := &mockSettingsService{}
	ragService, customerService, settingsService = rag, customers, settings

	t.Cleanup(func() {
		ragService, customerService, settingsService = origRAG, origCustomers, origSettings
		wireRAG, wireSettings = origWireRAG, origWireSettings
	})
	return rag, customers, settings
}

// executeCommand runs the root command with args and returns its combined output.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	askJSON, retrieveJSON = false, false
	customerJSON, customerRaw = false, false
	ingestIfChanged = false
	evalQuestions, evalOut = "", "results.csv"
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func readyStatus() domain.IndexStatus {
	return domain.IndexStatus{
		Name:        "bank",
		Collection:  "bank_v3",
		Documents:   42,
		Fingerprint: "abc123",
	}
}

// captureOutput collects what fn prints through the ingest command.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	buf := new(bytes.Buffer)
	ingestCmd.SetOut(buf)
	t.Cleanup(func() { ingestCmd.SetOut(nil) })
	fn()
	return buf.String()
}

func indexOf(s, sub string) int {
	return strings.Index(s, sub)
}

// resetFlags clears state cobra keeps between executions, such as a
// previous --help.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if f.Name == "help" {
			_ = f.Value.Set("false")
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
