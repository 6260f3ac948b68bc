package transcript

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Extractor converts a PDF into a plain-text file at a caller-chosen path.
// The extraction algorithm itself is an external collaborator.
type Extractor interface {
	Extract(ctx context.Context, pdfPath, txtPath string) error
}

// PDFToText extracts text by invoking the poppler pdftotext binary.
type PDFToText struct {
	// Binary overrides the pdftotext executable path.
	Binary string
}

// Extract runs pdftotext with layout preserved. The command's stderr is
// included in the returned error on failure.
func (p PDFToText) Extract(ctx context.Context, pdfPath, txtPath string) error {
	bin := p.Binary
	if bin == "" {
		bin = "pdftotext"
	}

	if _, err := os.Stat(pdfPath); err != nil {
		return fmt.Errorf("pdf not found: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, "-layout", pdfPath, txtPath)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("pdftotext: %w: %s", err, out)
	}
	return nil
}
