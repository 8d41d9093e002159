package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// PDFRendererInterface prints an HTML document to PDF
type PDFRendererInterface interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// ChromePDFRenderer prints HTML with a headless Chrome through chromedp
type ChromePDFRenderer struct {
	chromePath string
	timeout    time.Duration
}

// NewChromePDFRenderer creates a renderer. An empty chromePath falls back to
// the usual install locations, then to chromedp's own lookup.
func NewChromePDFRenderer(chromePath string) *ChromePDFRenderer {
	if chromePath == "" {
		chromePath = detectChromePath()
	}
	return &ChromePDFRenderer{chromePath: chromePath, timeout: 60 * time.Second}
}

var _ PDFRendererInterface = (*ChromePDFRenderer)(nil)

// detectChromePath returns the first Chrome/Chromium executable found in common installation paths
func detectChromePath() string {
	paths := []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// RenderPDF loads html as a data URL and prints it on A4 paper
func (r *ChromePDFRenderer) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox, // Required for running in Docker/containers
		chromedp.Flag("enable-print-preview", true),
	)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	} else {
		log.Printf("⚠️  PDF: no Chrome found in common paths, letting chromedp auto-detect")
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	chromedpCtx, chromedpCancel := chromedp.NewContext(allocCtx)
	defer chromedpCancel()

	dataURL := "data:text/html;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(html))

	var pdfBuf []byte
	err := chromedp.Run(chromedpCtx,
		chromedp.Navigate(dataURL),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			// A4: 210mm x 297mm = 8.27" x 11.69"
			pdfBuf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0).
				WithMarginBottom(0).
				WithMarginLeft(0).
				WithMarginRight(0).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	log.Printf("✓ PDF generated: %d bytes", len(pdfBuf))
	return pdfBuf, nil
}
