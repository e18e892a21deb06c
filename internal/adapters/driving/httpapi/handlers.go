package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the reply to POST /ask.
type AskResponse struct {
	Question  string        `json:"question"`
	Answer    string        `json:"answer"`
	Citations []DocumentDTO `json:"citations"`
}

// RetrieveRequest is the body of POST /retrieve.
type RetrieveRequest struct {
	Query string `json:"query"`
}

// RetrieveResponse is the reply to POST /retrieve.
type RetrieveResponse struct {
	Documents []DocumentDTO `json:"documents"`
	Count     int           `json:"count"`
}

// DocumentDTO is the JSON form of a context document.
type DocumentDTO struct {
	ID       string         `json:"id"`
	Kind     string         `json:"kind"`
	Source   string         `json:"source"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CustomerResponse is the reply to GET /customers/{id}.
type CustomerResponse struct {
	Stats *domain.CustomerStats `json:"stats"`
	Row   map[string]string     `json:"row"`
}

// IndexResponse is the reply to POST /index/rebuild.
type IndexResponse struct {
	Name        string `json:"name"`
	Collection  string `json:"collection"`
	Documents   int    `json:"documents"`
	Fingerprint string `json:"fingerprint"`
	BuiltAt     string `json:"built_at,omitempty"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if status, err := s.ports.RAG.Status(r.Context()); err == nil {
		body["index_ready"] = status.Ready()
		body["documents"] = status.Documents
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !decodeBody(w, r, &req) {
		return
	}

	answer, err := s.ports.RAG.Ask(r.Context(), req.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AskResponse{
		Question:  answer.Question,
		Answer:    answer.Text,
		Citations: toDTOs(answer.Citations),
	})
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	docs, err := s.ports.RAG.Retrieve(r.Context(), req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RetrieveResponse{Documents: toDTOs(docs), Count: len(docs)})
}

func (s *Server) handleCustomer(w http.ResponseWriter, r *http.Request) {
	if s.ports.Customers == nil {
		writeJSON(w, http.StatusNotImplemented, ErrorResponse{Error: "customer directory not configured"})
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "customer id must be an integer"})
		return
	}

	row, err := s.ports.Customers.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	stats, err := s.ports.Customers.Stats(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CustomerResponse{Stats: stats, Row: row})
}

func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	status, err := s.ports.RAG.Rebuild(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := IndexResponse{
		Name:        status.Name,
		Collection:  status.Collection,
		Documents:   status.Documents,
		Fingerprint: status.Fingerprint,
	}
	if !status.BuiltAt.IsZero() {
		resp.BuiltAt = status.BuiltAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConfiguration), errors.Is(err, domain.ErrDataFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrIndexUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrLLMUnavailable),
		errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrAnswerGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("encode response", zap.Error(err))
	}
}

func toDTOs(docs []domain.Document) []DocumentDTO {
	out := make([]DocumentDTO, len(docs))
	for i, doc := range docs {
		out[i] = DocumentDTO{
			ID:       doc.ID(),
			Kind:     string(doc.Kind()),
			Source:   doc.Source(),
			Content:  doc.Text(),
			Metadata: doc.Metadata(),
		}
	}
	return out
}
