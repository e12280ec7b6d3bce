// Package parser provides document parsing adapters.
// PDF text extraction is delegated to a small Python sidecar service.
package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// PythonPDFParser implements ports.DocumentParser by calling the PDF service.
type PythonPDFParser struct {
	serviceURL string
	client     *http.Client
	pythonCmd  *exec.Cmd
	logger     *zap.Logger
}

// NewPythonPDFParser creates a new PDF parser that calls the Python service.
func NewPythonPDFParser(serviceURL string, logger *zap.Logger) *PythonPDFParser {
	if serviceURL == "" {
		serviceURL = "http://localhost:8081"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PythonPDFParser{
		serviceURL: serviceURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

type parseResponse struct {
	Text    string `json:"text"`
	Pages   int    `json:"pages"`
	Library string `json:"library,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Parse extracts text from PDF bytes via the Python service.
func (p *PythonPDFParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serviceURL+"/parse", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Filename", filename)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling PDF service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var result parseResponse
	if err := json.Unmarshal(body, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("PDF service returned status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if result.Error != "" {
		return "", fmt.Errorf("PDF parse error: %s", result.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("PDF service returned status %d", resp.StatusCode)
	}

	p.logger.Debug("pdf parsed",
		zap.String("file", filename),
		zap.Int("pages", result.Pages),
		zap.String("library", result.Library),
	)
	return result.Text, nil
}

// SupportedFormats returns formats this parser handles.
func (p *PythonPDFParser) SupportedFormats() []string {
	return []string{"pdf"}
}

// StartService runs scriptDir/pdf_service.py as a subprocess and waits until
// it reports healthy. The returned func stops it.
func (p *PythonPDFParser) StartService(ctx context.Context, scriptDir string) (func(), error) {
	scriptPath := filepath.Join(scriptDir, "pdf_service.py")
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, fmt.Errorf("pdf_service.py not found at %s: %w", scriptPath, err)
	}

	p.pythonCmd = exec.Command("python3", scriptPath)
	p.pythonCmd.Stdout = os.Stdout
	p.pythonCmd.Stderr = os.Stderr

	if err := p.pythonCmd.Start(); err != nil {
		return nil, fmt.Errorf("starting Python service: %w", err)
	}

	cleanup := func() {
		if p.pythonCmd != nil && p.pythonCmd.Process != nil {
			p.pythonCmd.Process.Kill()
			p.pythonCmd.Wait()
		}
	}

	deadline := time.Now().Add(10 * time.Second)
	for !p.IsServiceHealthy(ctx) {
		if time.Now().After(deadline) || ctx.Err() != nil {
			cleanup()
			return nil, fmt.Errorf("PDF service at %s did not become healthy", p.serviceURL)
		}
		time.Sleep(200 * time.Millisecond)
	}
	p.logger.Info("pdf service started", zap.String("url", p.serviceURL))
	return cleanup, nil
}

// IsServiceHealthy checks if the Python service is running.
func (p *PythonPDFParser) IsServiceHealthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serviceURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}
