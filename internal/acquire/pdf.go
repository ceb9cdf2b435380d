package acquire

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// PDFExtractor turns PDF bytes into plain text using the pdftotext CLI.
type PDFExtractor struct {
	binPath string
	tempDir string
}

// NewPDFExtractor creates a PDFExtractor. Empty binPath defaults to
// "pdftotext"; empty tempDir defaults to the OS temp directory.
func NewPDFExtractor(binPath, tempDir string) *PDFExtractor {
	if binPath == "" {
		binPath = "pdftotext"
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &PDFExtractor{binPath: binPath, tempDir: tempDir}
}

// ExtractText writes the PDF bytes to a temp file and runs
// pdftotext -layout over it. Layout mode preserves tabular fleet data.
func (p *PDFExtractor) ExtractText(ctx context.Context, pdf []byte) (string, error) {
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		return "", eris.New("acquire: not a pdf document")
	}

	path := filepath.Join(p.tempDir, uuid.New().String()+".pdf")
	if err := os.WriteFile(path, pdf, 0o600); err != nil {
		return "", eris.Wrap(err, "acquire: write temp pdf")
	}
	defer os.Remove(path) //nolint:errcheck

	cmd := exec.CommandContext(ctx, p.binPath, "-layout", path, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "acquire: pdftotext failed: %s", stderr.String())
	}

	return stdout.String(), nil
}
