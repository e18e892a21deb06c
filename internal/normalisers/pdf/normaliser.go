// Package pdf turns a directory of PDF files into page documents using the
// pdftotext tool from poppler.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/custodia-labs/ragbank/internal/core/domain"
	"github.com/custodia-labs/ragbank/internal/core/ports/driven"
)

// Ensure Loader implements the interface.
var _ driven.PageLoader = (*Loader)(nil)

// ErrPDFToolNotFound is returned when pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found: install poppler-utils")

const (
	toolName  = "pdftotext"
	extension = ".pdf"
	pageBreak = "\f"
)

// CommandRunner runs an external command and returns its stdout.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, eris.Wrap(err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}

// Loader extracts page documents from PDFs.
type Loader struct {
	runner    CommandRunner
	lookupErr func() error
}

// New creates a loader that shells out to pdftotext.
func New() *Loader {
	return &Loader{runner: execRunner{}, lookupErr: CheckAvailable}
}

// NewWithRunner creates a loader with a custom command runner.
// The tool availability check is skipped.
func NewWithRunner(runner CommandRunner) *Loader {
	return &Loader{runner: runner, lookupErr: func() error { return nil }}
}

// CheckAvailable returns ErrPDFToolNotFound if pdftotext is not on PATH.
func CheckAvailable() error {
	if _, err := exec.LookPath(toolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions describes how to install pdftotext.
func InstallInstructions() string {
	return `pdftotext is required to read PDF files.

  macOS:          brew install poppler
  Debian/Ubuntu:  apt install poppler-utils
  Fedora:         dnf install poppler-utils`
}

// LoadDirectory extracts every *.pdf in dir, in lexical order, one PageDoc
// per non-blank page. Other files are skipped.
func (l *Loader) LoadDirectory(ctx context.Context, dir string) ([]domain.PageDoc, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(domain.ErrDataFormat, "pdf: directory %s not found", dir)
		}
		return nil, eris.Wrapf(err, "pdf: read directory %s", dir)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), extension) {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	if len(files) == 0 {
		zap.L().Warn("no PDF files found", zap.String("dir", dir))
		return nil, nil
	}

	if err := l.lookupErr(); err != nil {
		return nil, err
	}

	var pages []domain.PageDoc
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		filePages, err := l.loadFile(ctx, filepath.Join(dir, name), name)
		if err != nil {
			return nil, err
		}
		zap.L().Debug("loaded PDF", zap.String("file", name), zap.Int("pages", len(filePages)))
		pages = append(pages, filePages...)
	}
	return pages, nil
}

func (l *Loader) loadFile(ctx context.Context, path, name string) ([]domain.PageDoc, error) {
	out, err := l.runner.Run(ctx, toolName, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, eris.Wrapf(err, "pdf: pdftotext failed for %s", name)
	}
	return splitPages(string(out), name), nil
}

// splitPages cuts pdftotext output on form feeds. Page numbers follow the
// physical page even when a blank page is dropped.
func splitPages(text, file string) []domain.PageDoc {
	raw := strings.Split(text, pageBreak)
	pages := make([]domain.PageDoc, 0, len(raw))
	for i, p := range raw {
		p = cleanPage(p)
		if p == "" {
			continue
		}
		pages = append(pages, domain.NewPageDoc(p, file, i+1))
	}
	return pages
}

// cleanPage trims trailing whitespace on each line and collapses runs of
// blank lines left by the layout mode.
func cleanPage(p string) string {
	lines := strings.Split(strings.ReplaceAll(p, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
