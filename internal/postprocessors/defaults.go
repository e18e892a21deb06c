package postprocessors

import (
	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
	"github.com/custodia-labs/ragbank/internal/postprocessors/chunker"
)

// Config keys understood by the built-in splitters.
const (
	KeyChunkSize    = "chunk_size"
	KeyChunkOverlap = "chunk_overlap"
)

// RegisterDefaults registers all built-in splitters with the registry.
// Call this during application initialisation to enable standard splitters.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
}

// DefaultRegistry returns a registry holding the built-in splitters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

// ConfigFromSettings maps pipeline settings to splitter config.
func ConfigFromSettings(s domain.PipelineSettings) map[string]any {
	return map[string]any{
		KeyChunkSize:    s.ChunkSize,
		KeyChunkOverlap: s.ChunkOverlap,
	}
}

// buildChunker creates a chunker from generic config.
// Supported config keys:
//   - chunk_size (int): characters per chunk (default: 2000)
//   - chunk_overlap (int): overlapping characters between chunks (default: 500)
//
// Invalid sizes are reported by the chunker when it runs.
func buildChunker(cfg map[string]any) (driven.Splitter, error) {
	var opts []chunker.Option

	if cfg != nil {
		if size, ok := getIntFromConfig(cfg, KeyChunkSize); ok {
			opts = append(opts, chunker.WithChunkSize(size))
		}
		if overlap, ok := getIntFromConfig(cfg, KeyChunkOverlap); ok {
			opts = append(opts, chunker.WithOverlap(overlap))
		}
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) (int, bool) {
	val, ok := cfg[key]
	if !ok {
		return 0, false
	}

	switch v := val.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
