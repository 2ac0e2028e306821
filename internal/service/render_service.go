package service

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"

	"bankstmt/internal/models"
	"bankstmt/pkg/metrics"
)

// renderDPI is enough for the model to read statement print reliably
// without blowing up the request payload.
const renderDPI = 150

type RenderService struct {
	logger *zap.Logger
}

// NewRenderService creates a PDF-to-image renderer backed by go-fitz.
func NewRenderService(logger *zap.Logger) *RenderService {
	return &RenderService{logger: logger}
}

// RenderPages rasterizes every page of the PDF to a PNG, in page order.
// Invalid, empty or encrypted documents fail with ErrUnreadablePDF.
func (s *RenderService) RenderPages(pdf []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnreadablePDF, err)
	}
	defer doc.Close()

	numPages := doc.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("%w: document has no pages", models.ErrUnreadablePDF)
	}

	pages := make([][]byte, 0, numPages)
	for i := 0; i < numPages; i++ {
		img, err := doc.ImageDPI(i, renderDPI)
		if err != nil {
			return nil, fmt.Errorf("%w: rendering page %d: %v", models.ErrUnreadablePDF, i+1, err)
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encoding page %d: %w", i+1, err)
		}
		pages = append(pages, buf.Bytes())
		metrics.PagesRendered.Inc()
	}

	s.logger.Info("PDF rendered",
		zap.Int("pages", numPages),
		zap.Int("dpi", renderDPI),
	)

	return pages, nil
}
