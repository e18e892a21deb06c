// Package chunker provides a recursive character splitter for page documents.
package chunker

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Splitter = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// DefaultSeparators are tried in order, coarsest first. The empty
// separator splits between characters and always succeeds.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Processor splits page documents into overlapping chunks.
// Summary and record documents pass through untouched.
type Processor struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		p.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		p.overlap = overlap
	}
}

// WithSeparators replaces the separator hierarchy.
func WithSeparators(seps ...string) Option {
	return func(p *Processor) {
		p.separators = append([]string(nil), seps...)
	}
}

// New creates a chunker. Sizes are validated by Split so that a bad
// configuration surfaces before any work is done.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Validate checks chunkSize > 0 and 0 <= overlap < chunkSize.
func (p *Processor) Validate() error {
	if p.chunkSize <= 0 {
		return eris.Wrapf(domain.ErrConfiguration, "chunker: chunk size %d must be positive", p.chunkSize)
	}
	if p.overlap < 0 || p.overlap >= p.chunkSize {
		return eris.Wrapf(domain.ErrConfiguration,
			"chunker: overlap %d must be in [0, %d)", p.overlap, p.chunkSize)
	}
	return nil
}

// Split replaces each page document by its chunks, numbered from 0.
// The order of documents is preserved.
func (p *Processor) Split(ctx context.Context, docs []domain.Document) ([]domain.Document, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, ok := doc.(domain.PageDoc)
		if !ok {
			out = append(out, doc)
			continue
		}
		for i, text := range p.SplitText(page.Text()) {
			out = append(out, page.WithChunk(text, i))
		}
	}
	return out, nil
}

// SplitText splits text into chunks of at most chunkSize characters where
// the separators allow it.
func (p *Processor) SplitText(text string) []string {
	return p.split(text, p.separators)
}

func (p *Processor) split(text string, separators []string) []string {
	sep := ""
	var rest []string
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = strings.Split(text, "")
	} else {
		pieces = strings.Split(text, sep)
	}

	var chunks, pending []string
	for _, piece := range pieces {
		if piece == "" {
			continue
		}
		if runeLen(piece) <= p.chunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, p.merge(pending, sep)...)
			pending = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, piece)
			continue
		}
		chunks = append(chunks, p.split(piece, rest)...)
	}
	if len(pending) > 0 {
		chunks = append(chunks, p.merge(pending, sep)...)
	}
	return chunks
}

// merge packs pieces greedily into chunks, carrying up to overlap
// characters of trailing pieces into the next chunk.
func (p *Processor) merge(pieces []string, sep string) []string {
	sepLen := runeLen(sep)
	var (
		chunks  []string
		current []string
		total   int
	)
	joinLen := func() int {
		if len(current) > 0 {
			return sepLen
		}
		return 0
	}

	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n+joinLen() > p.chunkSize && len(current) > 0 {
			if c := strings.TrimSpace(strings.Join(current, sep)); c != "" {
				chunks = append(chunks, c)
			}
			for total > p.overlap || (total+n+joinLen() > p.chunkSize && total > 0) {
				total -= runeLen(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		total += n + joinLen()
		current = append(current, piece)
	}
	if c := strings.TrimSpace(strings.Join(current, sep)); c != "" {
		chunks = append(chunks, c)
	}
	return chunks
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
