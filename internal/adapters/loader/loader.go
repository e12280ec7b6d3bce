// Package loader provides document loading adapters.
package loader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/0xcro3dile/agent-multitool/internal/domain/entities"
	"github.com/0xcro3dile/agent-multitool/internal/domain/ports"
)

// format turns raw bytes into document text.
type format interface {
	text(ctx context.Context, name string, data []byte) (string, error)
}

// TextLoader loads plain text documents (.txt, .md).
type TextLoader struct{}

// NewTextLoader creates a new text document loader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

func (l *TextLoader) text(_ context.Context, _ string, data []byte) (string, error) {
	return string(data), nil
}

// Load reads a text document from the given path.
func (l *TextLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	return loadFile(ctx, l, path)
}

// LoadBytes builds a text document from uploaded content.
func (l *TextLoader) LoadBytes(ctx context.Context, name string, data []byte) (*entities.Document, error) {
	return loadBytes(ctx, l, name, data)
}

// SupportedExtensions returns file extensions this loader handles.
func (l *TextLoader) SupportedExtensions() []string {
	return []string{".txt", ".md", ".markdown"}
}

// PDFLoader loads PDF documents through a DocumentParser.
type PDFLoader struct {
	parser ports.DocumentParser
}

// NewPDFLoader creates a PDF loader.
func NewPDFLoader(parser ports.DocumentParser) *PDFLoader {
	return &PDFLoader{parser: parser}
}

func (l *PDFLoader) text(ctx context.Context, name string, data []byte) (string, error) {
	text, err := l.parser.Parse(ctx, data, name)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", name, err)
	}
	return cleanPDFContent(text), nil
}

// Load reads a PDF from disk.
func (l *PDFLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	return loadFile(ctx, l, path)
}

// LoadBytes parses uploaded PDF bytes.
func (l *PDFLoader) LoadBytes(ctx context.Context, name string, data []byte) (*entities.Document, error) {
	return loadBytes(ctx, l, name, data)
}

// SupportedExtensions returns file extensions.
func (l *PDFLoader) SupportedExtensions() []string {
	return []string{".pdf"}
}

// MultiLoader dispatches on file extension.
type MultiLoader struct {
	formats map[string]format
}

// NewMultiLoader creates a loader for text files and, when parser is not
// nil, PDFs.
func NewMultiLoader(parser ports.DocumentParser) *MultiLoader {
	text := NewTextLoader()
	m := &MultiLoader{formats: map[string]format{}}
	for _, ext := range text.SupportedExtensions() {
		m.formats[ext] = text
	}
	if parser != nil {
		m.formats[".pdf"] = NewPDFLoader(parser)
	}
	return m
}

func (m *MultiLoader) lookup(name string) (format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	f, ok := m.formats[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported document type %q", ext)
	}
	return f, nil
}

// Load dispatches to the appropriate loader based on extension.
func (m *MultiLoader) Load(ctx context.Context, path string) (*entities.Document, error) {
	f, err := m.lookup(path)
	if err != nil {
		return nil, err
	}
	return loadFile(ctx, f, path)
}

// LoadBytes dispatches uploaded content based on the name's extension.
func (m *MultiLoader) LoadBytes(ctx context.Context, name string, data []byte) (*entities.Document, error) {
	f, err := m.lookup(name)
	if err != nil {
		return nil, err
	}
	return loadBytes(ctx, f, name, data)
}

// Supports reports whether the file name has a supported extension.
func (m *MultiLoader) Supports(name string) bool {
	_, err := m.lookup(name)
	return err == nil
}

// SupportedExtensions returns all supported extensions, sorted.
func (m *MultiLoader) SupportedExtensions() []string {
	exts := make([]string, 0, len(m.formats))
	for ext := range m.formats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

func loadFile(ctx context.Context, f format, path string) (*entities.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := f.text(ctx, filepath.Base(path), data)
	if err != nil {
		return nil, err
	}

	modTime := time.Now()
	if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime()
	}

	return &entities.Document{
		ID:        generateDocID(path),
		Name:      filepath.Base(path),
		Path:      path,
		Content:   text,
		CreatedAt: modTime,
		UpdatedAt: time.Now(),
	}, nil
}

func loadBytes(ctx context.Context, f format, name string, data []byte) (*entities.Document, error) {
	text, err := f.text(ctx, name, data)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	h := sha256.New()
	h.Write([]byte(name))
	h.Write(data)
	return &entities.Document{
		ID:        hex.EncodeToString(h.Sum(nil)[:8]),
		Name:      filepath.Base(name),
		Content:   text,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// generateDocID creates a deterministic ID for a document.
func generateDocID(path string) string {
	hash := sha256.Sum256([]byte(path))
	return hex.EncodeToString(hash[:8])
}

// cleanPDFContent drops control characters left over from extraction.
func cleanPDFContent(content string) string {
	var cleaned strings.Builder
	for _, r := range content {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' {
			cleaned.WriteRune(r)
		}
	}
	return strings.TrimSpace(cleaned.String())
}
